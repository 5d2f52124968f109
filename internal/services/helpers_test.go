package services

import (
	"context"
	"time"

	domain "github.com/footprint-shop/api/internal/domain"
	"github.com/footprint-shop/api/internal/repositories"
	"github.com/footprint-shop/api/internal/shipping"
)

// repoError is a stub repositories.RepositoryError.
type repoError struct {
	notFound    bool
	conflict    bool
	unavailable bool
}

func (e repoError) Error() string       { return "repository error" }
func (e repoError) IsNotFound() bool    { return e.notFound }
func (e repoError) IsConflict() bool    { return e.conflict }
func (e repoError) IsUnavailable() bool { return e.unavailable }

type stubOrderRepo struct {
	findByID     func(ctx context.Context, orderID string) (domain.Order, error)
	findByIDs    func(ctx context.Context, orderIDs []string) ([]domain.Order, error)
	updateStatus func(ctx context.Context, orderID string, status domain.FulfillmentStatus, updatedAt time.Time) error
	markShipped  func(ctx context.Context, orderID string, update repositories.ShippedUpdate) error
	list         func(ctx context.Context, filter repositories.OrderListFilter) (domain.Page[domain.Order], error)
}

func (s *stubOrderRepo) FindByID(ctx context.Context, orderID string) (domain.Order, error) {
	return s.findByID(ctx, orderID)
}

func (s *stubOrderRepo) FindByIDs(ctx context.Context, orderIDs []string) ([]domain.Order, error) {
	return s.findByIDs(ctx, orderIDs)
}

func (s *stubOrderRepo) UpdateStatus(ctx context.Context, orderID string, status domain.FulfillmentStatus, updatedAt time.Time) error {
	return s.updateStatus(ctx, orderID, status, updatedAt)
}

func (s *stubOrderRepo) MarkShipped(ctx context.Context, orderID string, update repositories.ShippedUpdate) error {
	return s.markShipped(ctx, orderID, update)
}

func (s *stubOrderRepo) List(ctx context.Context, filter repositories.OrderListFilter) (domain.Page[domain.Order], error) {
	return s.list(ctx, filter)
}

type stubShipmentRepo struct {
	insert            func(ctx context.Context, shipment domain.Shipment) error
	findByID          func(ctx context.Context, shipmentID string) (domain.Shipment, error)
	findActiveByOrder func(ctx context.Context, orderID string) (domain.Shipment, error)
	updateStatus      func(ctx context.Context, shipmentID string, status domain.ShipmentStatus, updatedAt time.Time) error
	list              func(ctx context.Context, filter repositories.ShipmentListFilter) (domain.Page[domain.Shipment], error)
}

func (s *stubShipmentRepo) Insert(ctx context.Context, shipment domain.Shipment) error {
	return s.insert(ctx, shipment)
}

func (s *stubShipmentRepo) FindByID(ctx context.Context, shipmentID string) (domain.Shipment, error) {
	return s.findByID(ctx, shipmentID)
}

func (s *stubShipmentRepo) FindActiveByOrder(ctx context.Context, orderID string) (domain.Shipment, error) {
	return s.findActiveByOrder(ctx, orderID)
}

func (s *stubShipmentRepo) UpdateStatus(ctx context.Context, shipmentID string, status domain.ShipmentStatus, updatedAt time.Time) error {
	return s.updateStatus(ctx, shipmentID, status, updatedAt)
}

func (s *stubShipmentRepo) List(ctx context.Context, filter repositories.ShipmentListFilter) (domain.Page[domain.Shipment], error) {
	return s.list(ctx, filter)
}

type stubAuditRepo struct {
	append func(ctx context.Context, entry domain.AuditLogEntry) error
	list   func(ctx context.Context, filter repositories.AuditLogFilter) (domain.Page[domain.AuditLogEntry], error)
}

func (s *stubAuditRepo) Append(ctx context.Context, entry domain.AuditLogEntry) error {
	return s.append(ctx, entry)
}

func (s *stubAuditRepo) List(ctx context.Context, filter repositories.AuditLogFilter) (domain.Page[domain.AuditLogEntry], error) {
	return s.list(ctx, filter)
}

// recordingAudit captures Record calls for assertions.
type recordingAudit struct {
	records []AuditRecord
}

func (r *recordingAudit) Record(_ context.Context, record AuditRecord) {
	r.records = append(r.records, record)
}

func (r *recordingAudit) List(context.Context, AuditLogFilter) (domain.Page[domain.AuditLogEntry], error) {
	return domain.Page[domain.AuditLogEntry]{}, nil
}

// recordingNotifier captures notification calls.
type recordingNotifier struct {
	statusChanges []string
	shipped       []string
}

func (r *recordingNotifier) OrderStatusChanged(_ context.Context, order domain.Order, _ domain.FulfillmentStatus) {
	r.statusChanges = append(r.statusChanges, order.ID)
}

func (r *recordingNotifier) OrderShipped(_ context.Context, order domain.Order, _ domain.Shipment) {
	r.shipped = append(r.shipped, order.ID)
}

type stubCarrier struct {
	code           domain.CarrierCode
	createShipment func(ctx context.Context, req shipping.ShipmentRequest) (shipping.ShipmentResult, error)
	getTracking    func(ctx context.Context, trackingNumber string) (shipping.TrackingDetails, error)
}

func (s *stubCarrier) Code() domain.CarrierCode { return s.code }
func (s *stubCarrier) Name() string             { return string(s.code) }
func (s *stubCarrier) Configured() bool         { return true }

func (s *stubCarrier) CreateShipment(ctx context.Context, req shipping.ShipmentRequest) (shipping.ShipmentResult, error) {
	return s.createShipment(ctx, req)
}

func (s *stubCarrier) GetTracking(ctx context.Context, trackingNumber string) (shipping.TrackingDetails, error) {
	return s.getTracking(ctx, trackingNumber)
}

func (s *stubCarrier) CancelShipment(context.Context, string) error { return nil }

// stubResolver returns a fixed carrier for every code.
type stubResolver struct {
	carrier shipping.Carrier
	err     error
}

func (s *stubResolver) Resolve(domain.CarrierCode) (shipping.Carrier, error) {
	return s.carrier, s.err
}

func fixedClock(t time.Time) func() time.Time {
	return func() time.Time { return t }
}
