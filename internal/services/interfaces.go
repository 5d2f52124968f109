// Package services holds the fulfillment coordinators: bulk order
// operations, shipment booking, tracking, and audit writing. Services
// depend on repository and gateway interfaces only; wiring happens in
// cmd/api.
package services

import (
	"context"
	"errors"
	"time"

	domain "github.com/footprint-shop/api/internal/domain"
	"github.com/footprint-shop/api/internal/fulfillment"
	"github.com/footprint-shop/api/internal/shipping"
)

// MaxBatchSize caps the ids accepted by the bulk operations.
const MaxBatchSize = 50

var (
	// ErrTooManyOrders is returned when a batch exceeds MaxBatchSize ids.
	ErrTooManyOrders = errors.New("services: too many orders in batch")
	// ErrEmptyBatch is returned when a batch carries no ids.
	ErrEmptyBatch = errors.New("services: batch must contain at least one order id")
	// ErrInvalidStatus is returned when a batch targets an unknown status.
	ErrInvalidStatus = errors.New("services: invalid target status")
	// ErrNoOrdersFound is returned when none of the requested ids exist.
	ErrNoOrdersFound = errors.New("services: no orders found for the provided ids")
	// ErrNoValidFiles is returned when an archive build produced zero files.
	ErrNoValidFiles = errors.New("services: no valid print files to download")
	// ErrOrderNotFound is returned when a single-order operation targets a
	// missing order.
	ErrOrderNotFound = errors.New("services: order not found")
	// ErrMissingAddress is returned when an order has no shipping address.
	ErrMissingAddress = errors.New("services: order has no shipping address")
	// ErrShipmentConflict is returned when an order already has an active
	// shipment.
	ErrShipmentConflict = errors.New("services: order already has an active shipment")
	// ErrShipmentNotFound is returned when a shipment lookup misses.
	ErrShipmentNotFound = errors.New("services: shipment not found")
)

// InvalidAddressError reports which address fields failed validation.
type InvalidAddressError struct {
	Fields shipping.FieldErrors
}

func (e *InvalidAddressError) Error() string {
	return "services: shipping address failed validation"
}

// LogFunc receives structured service events. A nil LogFunc is replaced by
// a no-op.
type LogFunc func(ctx context.Context, event string, fields map[string]any)

func noopLog(context.Context, string, map[string]any) {}

// Notifier sends customer-facing notifications. Implementations must not
// block the caller; failures are theirs to log.
type Notifier interface {
	OrderStatusChanged(ctx context.Context, order domain.Order, previous domain.FulfillmentStatus)
	OrderShipped(ctx context.Context, order domain.Order, shipment domain.Shipment)
}

type noopNotifier struct{}

func (noopNotifier) OrderStatusChanged(context.Context, domain.Order, domain.FulfillmentStatus) {}
func (noopNotifier) OrderShipped(context.Context, domain.Order, domain.Shipment)                {}

// BulkStatusCommand asks for a batch status change.
type BulkStatusCommand struct {
	OrderIDs []string
	Target   domain.FulfillmentStatus
	ActorID  string
}

// BulkStatusResult partitions the batch. Every requested id lands in
// exactly one of the four lists.
type BulkStatusResult struct {
	Updated  []string
	Invalid  []fulfillment.InvalidTransition
	NotFound []string
	Failed   []string
}

// BulkDownloadCommand asks for a print-file archive.
type BulkDownloadCommand struct {
	OrderIDs []string
	ActorID  string
}

// BulkDownloadResult describes the uploaded archive and the per-order
// partitions.
type BulkDownloadResult struct {
	DownloadURL string
	FileName    string
	FileCount   int
	ExpiresIn   time.Duration
	Skipped     []string
	NotFound    []string
	Failed      []string
}

// BulkService runs the admin batch operations.
type BulkService interface {
	UpdateStatuses(ctx context.Context, cmd BulkStatusCommand) (BulkStatusResult, error)
	BuildDownloadArchive(ctx context.Context, cmd BulkDownloadCommand) (BulkDownloadResult, error)
}

// CreateShipmentCommand books a carrier shipment for one order.
type CreateShipmentCommand struct {
	OrderID     string
	Carrier     domain.CarrierCode
	ServiceType domain.ServiceType
	ActorID     string
}

// CreateShipmentResult is the booked shipment plus the carrier's answer.
type CreateShipmentResult struct {
	Shipment domain.Shipment
	Carrier  shipping.ShipmentResult
}

// ShipmentService books shipments and answers tracking queries.
type ShipmentService interface {
	CreateShipment(ctx context.Context, cmd CreateShipmentCommand) (CreateShipmentResult, error)
	GetTracking(ctx context.Context, shipmentID string) (shipping.TrackingDetails, error)
	TrackByNumber(ctx context.Context, trackingNumber string, carrier domain.CarrierCode) (shipping.TrackingDetails, error)
}

// AuditRecord describes one admin-triggered mutation for the audit trail.
type AuditRecord struct {
	ActorID    string
	Action     string
	TargetRef  string
	Details    map[string]any
	OccurredAt time.Time
}

// AuditLogFilter narrows audit reads.
type AuditLogFilter struct {
	ActorID   string
	Action    string
	TargetRef string
	Pager     domain.Pagination
}

// AuditLogService writes and reads the admin audit trail. Record never
// fails the calling mutation.
type AuditLogService interface {
	Record(ctx context.Context, record AuditRecord)
	List(ctx context.Context, filter AuditLogFilter) (domain.Page[domain.AuditLogEntry], error)
}
