package email

import (
	"context"
	"fmt"

	domain "github.com/footprint-shop/api/internal/domain"
)

// statusLabels are the customer-facing names for fulfillment states that
// warrant a notification. States absent from the map are internal and
// produce no mail.
var statusLabels = map[domain.FulfillmentStatus]string{
	domain.StatusPrinting:  "In Production",
	domain.StatusShipped:   "Shipped",
	domain.StatusDelivered: "Delivered",
	domain.StatusCancelled: "Cancelled",
}

// LogFunc receives delivery failures. Mail is best-effort and never
// propagates errors to the mutation that triggered it.
type LogFunc func(ctx context.Context, event string, fields map[string]any)

// Notifier turns order events into transactional mail. Sends run in a
// detached goroutine so carrier bookings and bulk updates never wait on
// the mail provider.
type Notifier struct {
	sender Sender
	log    LogFunc
}

// NewNotifier wraps a sender. The logger may be nil.
func NewNotifier(sender Sender, log LogFunc) (*Notifier, error) {
	if sender == nil {
		return nil, fmt.Errorf("email: sender is required")
	}
	if log == nil {
		log = func(context.Context, string, map[string]any) {}
	}
	return &Notifier{sender: sender, log: log}, nil
}

// OrderStatusChanged mails the customer about a fulfillment state change.
// Orders without a shipping email, and transitions into states the
// customer does not care about, are silently skipped.
func (n *Notifier) OrderStatusChanged(ctx context.Context, order domain.Order, previous domain.FulfillmentStatus) {
	label, ok := statusLabels[order.Status]
	if !ok {
		return
	}
	to := recipient(order)
	if to == "" {
		return
	}
	n.dispatch(ctx, order.ID, Message{
		To:      to,
		Subject: fmt.Sprintf("Your Footprint Order %s: %s", order.OrderNumber, label),
		HTML:    statusChangeHTML(order, label),
	})
}

// OrderShipped mails the customer the tracking details of a booked
// shipment.
func (n *Notifier) OrderShipped(ctx context.Context, order domain.Order, shipment domain.Shipment) {
	to := recipient(order)
	if to == "" {
		return
	}
	n.dispatch(ctx, order.ID, Message{
		To:      to,
		Subject: fmt.Sprintf("Your Footprint Order %s Has Shipped!", order.OrderNumber),
		HTML:    shippedHTML(order, shipment),
	})
}

func (n *Notifier) dispatch(ctx context.Context, orderID string, msg Message) {
	// Detach from the request context so an aborted request does not
	// cancel an email that is already owed to the customer.
	sendCtx := context.WithoutCancel(ctx)
	go func() {
		if err := n.sender.Send(sendCtx, msg); err != nil {
			n.log(sendCtx, "email.send_failed", map[string]any{
				"order_id": orderID,
				"subject":  msg.Subject,
				"error":    err.Error(),
			})
		}
	}()
}

func recipient(order domain.Order) string {
	if order.ShippingAddress == nil {
		return ""
	}
	return order.ShippingAddress.Email
}

func statusChangeHTML(order domain.Order, label string) string {
	return fmt.Sprintf(`<!DOCTYPE html>
<html>
<body style="font-family: Arial, sans-serif; max-width: 600px; margin: 0 auto; padding: 20px;">
  <h2 style="color: #1e293b;">Order Update</h2>
  <p>Hi %s,</p>
  <p>Your order <strong>%s</strong> is now: <strong>%s</strong>.</p>
  <div style="text-align: center; padding: 24px; border-top: 1px solid #eee; color: #666; font-size: 14px;">
    <p>Questions? Reply to this email or contact us at support@footprint.co.il</p>
  </div>
</body>
</html>`, customerName(order), order.OrderNumber, label)
}

func shippedHTML(order domain.Order, shipment domain.Shipment) string {
	return fmt.Sprintf(`<!DOCTYPE html>
<html>
<body style="font-family: Arial, sans-serif; max-width: 600px; margin: 0 auto; padding: 20px;">
  <h2 style="color: #1e293b;">Your Order Is On Its Way!</h2>
  <p>Hi %s,</p>
  <p>Your order <strong>%s</strong> has been handed to the carrier.</p>
  <div style="background: #f8fafc; border-radius: 12px; padding: 24px; margin-bottom: 24px;">
    <p style="margin: 0;">Tracking number: <strong>%s</strong><br>
    Carrier: %s</p>
  </div>
  <div style="text-align: center; padding: 24px; border-top: 1px solid #eee; color: #666; font-size: 14px;">
    <p>Questions? Reply to this email or contact us at support@footprint.co.il</p>
  </div>
</body>
</html>`, customerName(order), order.OrderNumber, shipment.TrackingNumber, shipment.Carrier)
}

func customerName(order domain.Order) string {
	if order.ShippingAddress != nil && order.ShippingAddress.Name != "" {
		return order.ShippingAddress.Name
	}
	return "there"
}
