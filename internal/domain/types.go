package domain

import "time"

// FulfillmentStatus tracks where an order sits in the production and
// shipping lifecycle.
type FulfillmentStatus string

const (
	StatusPending     FulfillmentStatus = "pending"
	StatusPrinting    FulfillmentStatus = "printing"
	StatusReadyToShip FulfillmentStatus = "ready_to_ship"
	StatusShipped     FulfillmentStatus = "shipped"
	StatusDelivered   FulfillmentStatus = "delivered"
	StatusCancelled   FulfillmentStatus = "cancelled"
)

// PrintSize is the physical print format ordered by the customer.
type PrintSize string

const (
	SizeA5 PrintSize = "A5"
	SizeA4 PrintSize = "A4"
	SizeA3 PrintSize = "A3"
	SizeA2 PrintSize = "A2"
)

// CarrierCode identifies a shipping carrier integration.
type CarrierCode string

const (
	CarrierIsraelPost CarrierCode = "israel_post"
	CarrierDHL        CarrierCode = "dhl"
	CarrierFedEx      CarrierCode = "fedex"
	CarrierUPS        CarrierCode = "ups"
)

// ServiceType selects the carrier service level for a shipment.
type ServiceType string

const (
	ServiceStandard   ServiceType = "standard"
	ServiceExpress    ServiceType = "express"
	ServiceRegistered ServiceType = "registered"
)

// ShipmentStatus tracks the lifecycle of a carrier shipment record.
type ShipmentStatus string

const (
	ShipmentCreated   ShipmentStatus = "created"
	ShipmentInTransit ShipmentStatus = "in_transit"
	ShipmentDelivered ShipmentStatus = "delivered"
	ShipmentCancelled ShipmentStatus = "cancelled"
)

// Address is a structured shipping address. PostalCode is the 7-digit
// Israeli format; Phone is optional but format-checked when present.
type Address struct {
	Name       string `json:"name"`
	Company    string `json:"company,omitempty"`
	Street     string `json:"street"`
	Street2    string `json:"street2,omitempty"`
	City       string `json:"city"`
	PostalCode string `json:"postalCode"`
	Country    string `json:"country"`
	Phone      string `json:"phone,omitempty"`
	Email      string `json:"email,omitempty"`
}

// Order is the fulfillment view of a customer order. The checkout flow owns
// creation; this subsystem only reads it and performs narrow field updates
// (status, tracking fields, timestamps).
type Order struct {
	ID          string
	OrderNumber string
	UserID      string
	Status      FulfillmentStatus

	Subtotal int64
	Shipping int64
	Total    int64
	Currency string

	ShippingAddress *Address
	GiftMessage     string
	IsGift          bool

	TrackingNumber string
	Carrier        CarrierCode

	Items []OrderItem

	CreatedAt   time.Time
	PaidAt      *time.Time
	ShippedAt   *time.Time
	DeliveredAt *time.Time
	CancelledAt *time.Time
	UpdatedAt   time.Time
}

// OrderItem is a single line of an order, carrying the print configuration
// and references to the image pipeline outputs.
type OrderItem struct {
	ID        string
	OrderID   string
	Size      PrintSize
	PaperType string
	FrameType string
	Quantity  int
	UnitPrice int64

	OriginalImageURL    string
	TransformedImageURL string
	TransformedImageKey string
	PrintReadyKey       string
}

// PrimaryItem returns the first order item, which carries the print
// configuration for single-print orders. ok is false for empty orders.
func (o Order) PrimaryItem() (OrderItem, bool) {
	if len(o.Items) == 0 {
		return OrderItem{}, false
	}
	return o.Items[0], true
}

// Shipment is a carrier shipment booked for an order. At most one shipment
// per order may hold status "created" at any time.
type Shipment struct {
	ID             string
	OrderID        string
	Carrier        CarrierCode
	CarrierRef     string
	TrackingNumber string
	LabelURL       string
	ServiceType    ServiceType
	Status         ShipmentStatus
	CreatedBy      string
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// AuditLogEntry is an immutable record of an admin-triggered mutation.
type AuditLogEntry struct {
	ID        string
	ActorID   string
	Action    string
	TargetRef string
	Details   map[string]any
	CreatedAt time.Time
}

// Pagination carries offset-window parameters for list queries.
type Pagination struct {
	Limit  int
	Offset int
}

// Page is a window of results plus the total match count.
type Page[T any] struct {
	Items []T
	Total int64
}
