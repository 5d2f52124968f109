package email

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	domain "github.com/footprint-shop/api/internal/domain"
)

type chanSender struct {
	sent chan Message
	err  error
}

func newChanSender(err error) *chanSender {
	return &chanSender{sent: make(chan Message, 4), err: err}
}

func (s *chanSender) Send(_ context.Context, msg Message) error {
	s.sent <- msg
	return s.err
}

func (s *chanSender) wait(t *testing.T) Message {
	t.Helper()
	select {
	case msg := <-s.sent:
		return msg
	case <-time.After(2 * time.Second):
		t.Fatal("no message was sent")
		return Message{}
	}
}

func (s *chanSender) assertNone(t *testing.T) {
	t.Helper()
	select {
	case msg := <-s.sent:
		t.Fatalf("unexpected message sent: %+v", msg)
	case <-time.After(50 * time.Millisecond):
	}
}

func notifierOrder() domain.Order {
	return domain.Order{
		ID:          "ord_1",
		OrderNumber: "FP-1001",
		Status:      domain.StatusShipped,
		ShippingAddress: &domain.Address{
			Name:  "Dana Levi",
			Email: "dana@example.com",
		},
	}
}

func TestNotifierStatusChanged(t *testing.T) {
	sender := newChanSender(nil)
	notifier, err := NewNotifier(sender, nil)
	if err != nil {
		t.Fatal(err)
	}

	order := notifierOrder()
	order.Status = domain.StatusPrinting
	notifier.OrderStatusChanged(context.Background(), order, domain.StatusPending)

	msg := sender.wait(t)
	if msg.To != "dana@example.com" {
		t.Errorf("to = %q", msg.To)
	}
	if !strings.Contains(msg.Subject, "FP-1001") || !strings.Contains(msg.Subject, "In Production") {
		t.Errorf("subject = %q", msg.Subject)
	}
	if !strings.Contains(msg.HTML, "Dana Levi") {
		t.Errorf("body does not address the customer: %q", msg.HTML)
	}
}

func TestNotifierSkipsInternalStatuses(t *testing.T) {
	sender := newChanSender(nil)
	notifier, err := NewNotifier(sender, nil)
	if err != nil {
		t.Fatal(err)
	}

	order := notifierOrder()
	order.Status = domain.StatusReadyToShip
	notifier.OrderStatusChanged(context.Background(), order, domain.StatusPrinting)

	sender.assertNone(t)
}

func TestNotifierSkipsMissingEmail(t *testing.T) {
	sender := newChanSender(nil)
	notifier, err := NewNotifier(sender, nil)
	if err != nil {
		t.Fatal(err)
	}

	order := notifierOrder()
	order.ShippingAddress = nil
	notifier.OrderShipped(context.Background(), order, domain.Shipment{})

	sender.assertNone(t)
}

func TestNotifierShipped(t *testing.T) {
	sender := newChanSender(nil)
	notifier, err := NewNotifier(sender, nil)
	if err != nil {
		t.Fatal(err)
	}

	notifier.OrderShipped(context.Background(), notifierOrder(), domain.Shipment{
		TrackingNumber: "RR123456789IL",
		Carrier:        domain.CarrierIsraelPost,
	})

	msg := sender.wait(t)
	if !strings.Contains(msg.Subject, "Has Shipped") {
		t.Errorf("subject = %q", msg.Subject)
	}
	if !strings.Contains(msg.HTML, "RR123456789IL") {
		t.Errorf("body missing tracking number: %q", msg.HTML)
	}
}

func TestNotifierLogsSendFailure(t *testing.T) {
	sender := newChanSender(errors.New("provider down"))
	logged := make(chan string, 1)
	notifier, err := NewNotifier(sender, func(_ context.Context, event string, _ map[string]any) {
		logged <- event
	})
	if err != nil {
		t.Fatal(err)
	}

	notifier.OrderShipped(context.Background(), notifierOrder(), domain.Shipment{TrackingNumber: "RR123456789IL"})
	sender.wait(t)

	select {
	case event := <-logged:
		if event != "email.send_failed" {
			t.Errorf("event = %q", event)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("send failure was not logged")
	}
}
