// Package repositories declares the persistence interfaces the services
// depend on. Implementations live in subpackages; services only see these
// interfaces and the RepositoryError classification.
package repositories

import (
	"context"
	"time"

	domain "github.com/footprint-shop/api/internal/domain"
)

// Registry exposes typed repository accessors and lifecycle hooks for
// dependency injection.
type Registry interface {
	Close() error

	Orders() OrderRepository
	Shipments() ShipmentRepository
	AuditLogs() AuditLogRepository
	Health() HealthRepository
	UnitOfWork
}

// RepositoryError wraps low-level persistence failures with categorisation
// used by services.
type RepositoryError interface {
	error
	IsNotFound() bool
	IsConflict() bool
	IsUnavailable() bool
}

// UnitOfWork allows grouping repository operations in a transactional
// boundary when supported.
type UnitOfWork interface {
	RunInTx(ctx context.Context, fn func(ctx context.Context) error) error
}

// OrderListFilter narrows admin order listings.
type OrderListFilter struct {
	Status domain.FulfillmentStatus
	UserID string
	Pager  domain.Pagination
}

// ShippedUpdate carries the fields written when an order leaves the
// warehouse.
type ShippedUpdate struct {
	TrackingNumber string
	Carrier        domain.CarrierCode
	ShippedAt      time.Time
}

// OrderRepository reads orders and performs the narrow updates this
// subsystem owns. Order creation belongs to checkout.
type OrderRepository interface {
	FindByID(ctx context.Context, orderID string) (domain.Order, error)

	// FindByIDs returns the orders that exist, in no particular order.
	// Callers diff against the requested ids to find the missing ones.
	FindByIDs(ctx context.Context, orderIDs []string) ([]domain.Order, error)

	UpdateStatus(ctx context.Context, orderID string, status domain.FulfillmentStatus, updatedAt time.Time) error
	MarkShipped(ctx context.Context, orderID string, update ShippedUpdate) error
	List(ctx context.Context, filter OrderListFilter) (domain.Page[domain.Order], error)
}

// ShipmentListFilter narrows shipment listings.
type ShipmentListFilter struct {
	OrderID string
	Status  domain.ShipmentStatus
	Pager   domain.Pagination
}

// ShipmentRepository persists carrier bookings. Insert must reject a second
// shipment in status "created" for the same order with a conflict error.
type ShipmentRepository interface {
	Insert(ctx context.Context, shipment domain.Shipment) error
	FindByID(ctx context.Context, shipmentID string) (domain.Shipment, error)
	FindActiveByOrder(ctx context.Context, orderID string) (domain.Shipment, error)
	UpdateStatus(ctx context.Context, shipmentID string, status domain.ShipmentStatus, updatedAt time.Time) error
	List(ctx context.Context, filter ShipmentListFilter) (domain.Page[domain.Shipment], error)
}

// AuditLogFilter narrows audit listings.
type AuditLogFilter struct {
	ActorID   string
	Action    string
	TargetRef string
	Pager     domain.Pagination
}

// AuditLogRepository stores immutable admin activity records.
type AuditLogRepository interface {
	Append(ctx context.Context, entry domain.AuditLogEntry) error
	List(ctx context.Context, filter AuditLogFilter) (domain.Page[domain.AuditLogEntry], error)
}

// HealthRepository reports whether the backing store answers queries.
type HealthRepository interface {
	Ping(ctx context.Context) error
}
