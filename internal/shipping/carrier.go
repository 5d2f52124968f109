// Package shipping holds the carrier abstraction: a Carrier interface per
// integration, a registry keyed by typed carrier codes, tracking-number
// detection, and Israeli address validation.
package shipping

import (
	"context"
	"fmt"
	"time"

	domain "github.com/footprint-shop/api/internal/domain"
)

// PackageDimensions describe the parcel in centimetres and grams.
type PackageDimensions struct {
	LengthCM int `json:"length"`
	WidthCM  int `json:"width"`
	HeightCM int `json:"height"`
	WeightG  int `json:"weight"`
}

// ShipmentRequest is the carrier-neutral request to book a shipment.
type ShipmentRequest struct {
	OrderID       string
	OrderNumber   string
	Sender        domain.Address
	Recipient     domain.Address
	Package       PackageDimensions
	ServiceType   domain.ServiceType
	DeclaredValue int64
	Description   string
	Reference     string
}

// DeliveryEstimate is the carrier's promised delivery window in days.
type DeliveryEstimate struct {
	MinDays int `json:"minDays"`
	MaxDays int `json:"maxDays"`
}

// ShipmentCost is what the carrier will charge, in the minor unit.
type ShipmentCost struct {
	Amount   int64  `json:"amount"`
	Currency string `json:"currency"`
}

// ShipmentResult is the carrier's answer to a successful booking.
type ShipmentResult struct {
	ShipmentID        string
	TrackingNumber    string
	Carrier           domain.CarrierCode
	LabelURL          string
	EstimatedDelivery *DeliveryEstimate
	Cost              *ShipmentCost
}

// TrackingStatus is the carrier-neutral tracking state.
type TrackingStatus string

const (
	TrackingPending        TrackingStatus = "pending"
	TrackingPickedUp       TrackingStatus = "picked_up"
	TrackingInTransit      TrackingStatus = "in_transit"
	TrackingOutForDelivery TrackingStatus = "out_for_delivery"
	TrackingDelivered      TrackingStatus = "delivered"
	TrackingFailedDelivery TrackingStatus = "failed_delivery"
	TrackingReturned       TrackingStatus = "returned"
	TrackingException      TrackingStatus = "exception"
)

// TrackingEvent is one scan in a shipment's history.
type TrackingEvent struct {
	Timestamp   time.Time      `json:"timestamp"`
	Status      TrackingStatus `json:"status"`
	Location    string         `json:"location,omitempty"`
	Description string         `json:"description"`
	RawStatus   string         `json:"rawStatus,omitempty"`
}

// TrackingDetails is the normalised tracking view for one shipment.
type TrackingDetails struct {
	TrackingNumber    string             `json:"trackingNumber"`
	Carrier           domain.CarrierCode `json:"carrier"`
	Status            TrackingStatus     `json:"status"`
	EstimatedDelivery *time.Time         `json:"estimatedDelivery,omitempty"`
	Events            []TrackingEvent    `json:"events"`
	LastUpdated       time.Time          `json:"lastUpdated"`
}

// Carrier is one shipping integration. Implementations wrap a carrier's
// HTTP API and surface failures as *CarrierError.
type Carrier interface {
	Code() domain.CarrierCode
	Name() string

	// Configured reports whether the carrier has the credentials it needs.
	Configured() bool

	CreateShipment(ctx context.Context, req ShipmentRequest) (ShipmentResult, error)
	GetTracking(ctx context.Context, trackingNumber string) (TrackingDetails, error)

	// CancelShipment voids a booking by its carrier reference. Carriers may
	// refuse once the parcel is in motion.
	CancelShipment(ctx context.Context, carrierRef string) error
}

// Stable carrier error codes shared across integrations.
const (
	ErrCodeNotConfigured    = "NOT_CONFIGURED"
	ErrCodeAPIError         = "API_ERROR"
	ErrCodeProviderNotFound = "PROVIDER_NOT_FOUND"
	ErrCodeNoProviders      = "NO_PROVIDERS"
)

// CarrierError wraps a carrier failure with a stable code and whether a
// retry might succeed.
type CarrierError struct {
	Code      string
	Carrier   domain.CarrierCode
	Message   string
	Retryable bool
	Err       error
}

func (e *CarrierError) Error() string {
	msg := e.Message
	if msg == "" && e.Err != nil {
		msg = e.Err.Error()
	}
	return fmt.Sprintf("shipping: %s: %s: %s", e.Carrier, e.Code, msg)
}

func (e *CarrierError) Unwrap() error { return e.Err }
