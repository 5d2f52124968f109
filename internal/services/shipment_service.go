package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/oklog/ulid/v2"

	domain "github.com/footprint-shop/api/internal/domain"
	"github.com/footprint-shop/api/internal/repositories"
	"github.com/footprint-shop/api/internal/shipping"
)

const shipmentIDPrefix = "shp_"

// CarrierResolver picks a carrier by code, falling back to the default for
// an empty code. *shipping.Registry satisfies it.
type CarrierResolver interface {
	Resolve(code domain.CarrierCode) (shipping.Carrier, error)
}

// SenderProfile is the warehouse side of every shipment: the return
// address, the parcel dimensions, and the customs description.
type SenderProfile struct {
	Address     domain.Address
	Package     shipping.PackageDimensions
	Description string
}

type noopUnitOfWork struct{}

func (noopUnitOfWork) RunInTx(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

type shipmentService struct {
	orders    repositories.OrderRepository
	shipments repositories.ShipmentRepository
	uow       repositories.UnitOfWork
	carriers  CarrierResolver
	audit     AuditLogService
	notifier  Notifier
	sender    SenderProfile
	clock     func() time.Time
	newID     func() string
	log       LogFunc
}

// ShipmentServiceDeps bundles collaborators for the shipment coordinator.
type ShipmentServiceDeps struct {
	Orders      repositories.OrderRepository
	Shipments   repositories.ShipmentRepository
	UnitOfWork  repositories.UnitOfWork
	Carriers    CarrierResolver
	Audit       AuditLogService
	Notifier    Notifier
	Sender      SenderProfile
	Clock       func() time.Time
	IDGenerator func() string
	Logger      LogFunc
}

// NewShipmentService wires the shipment coordinator.
func NewShipmentService(deps ShipmentServiceDeps) (ShipmentService, error) {
	if deps.Orders == nil {
		return nil, fmt.Errorf("shipment service: order repository is required")
	}
	if deps.Shipments == nil {
		return nil, fmt.Errorf("shipment service: shipment repository is required")
	}
	if deps.Carriers == nil {
		return nil, fmt.Errorf("shipment service: carrier resolver is required")
	}
	if deps.Audit == nil {
		return nil, fmt.Errorf("shipment service: audit log service is required")
	}

	uow := deps.UnitOfWork
	if uow == nil {
		uow = noopUnitOfWork{}
	}
	notifier := deps.Notifier
	if notifier == nil {
		notifier = noopNotifier{}
	}
	clock := deps.Clock
	if clock == nil {
		clock = time.Now
	}
	newID := deps.IDGenerator
	if newID == nil {
		newID = func() string { return shipmentIDPrefix + ulid.Make().String() }
	}
	log := deps.Logger
	if log == nil {
		log = noopLog
	}

	return &shipmentService{
		orders:    deps.Orders,
		shipments: deps.Shipments,
		uow:       uow,
		carriers:  deps.Carriers,
		audit:     deps.Audit,
		notifier:  notifier,
		sender:    deps.Sender,
		clock:     func() time.Time { return clock().UTC() },
		newID:     newID,
		log:       log,
	}, nil
}

// CreateShipment books a carrier shipment for an order and records the
// result. The gates run in order: order exists, address present, address
// valid, no active shipment. Once the carrier accepts, persistence
// failures no longer fail the call; the booking already happened.
func (s *shipmentService) CreateShipment(ctx context.Context, cmd CreateShipmentCommand) (CreateShipmentResult, error) {
	order, err := s.orders.FindByID(ctx, cmd.OrderID)
	if err != nil {
		if isNotFound(err) {
			return CreateShipmentResult{}, fmt.Errorf("%w: %s", ErrOrderNotFound, cmd.OrderID)
		}
		return CreateShipmentResult{}, fmt.Errorf("shipment service: load order: %w", err)
	}

	if order.ShippingAddress == nil {
		return CreateShipmentResult{}, fmt.Errorf("%w: %s", ErrMissingAddress, order.ID)
	}
	if fieldErrs := shipping.ValidateAddress(*order.ShippingAddress); len(fieldErrs) > 0 {
		return CreateShipmentResult{}, &InvalidAddressError{Fields: fieldErrs}
	}

	if _, err := s.shipments.FindActiveByOrder(ctx, order.ID); err == nil {
		return CreateShipmentResult{}, fmt.Errorf("%w: %s", ErrShipmentConflict, order.ID)
	} else if !isNotFound(err) {
		return CreateShipmentResult{}, fmt.Errorf("shipment service: check active shipment: %w", err)
	}

	carrier, err := s.carriers.Resolve(cmd.Carrier)
	if err != nil {
		return CreateShipmentResult{}, err
	}

	serviceType := cmd.ServiceType
	if serviceType == "" {
		serviceType = domain.ServiceStandard
	}

	booked, err := carrier.CreateShipment(ctx, shipping.ShipmentRequest{
		OrderID:       order.ID,
		OrderNumber:   order.OrderNumber,
		Sender:        s.sender.Address,
		Recipient:     *order.ShippingAddress,
		Package:       s.sender.Package,
		ServiceType:   serviceType,
		DeclaredValue: order.Total,
		Description:   s.sender.Description,
		Reference:     order.OrderNumber,
	})
	if err != nil {
		return CreateShipmentResult{}, err
	}

	now := s.clock()
	shipment := domain.Shipment{
		ID:             s.newID(),
		OrderID:        order.ID,
		Carrier:        booked.Carrier,
		CarrierRef:     booked.ShipmentID,
		TrackingNumber: booked.TrackingNumber,
		LabelURL:       booked.LabelURL,
		ServiceType:    serviceType,
		Status:         domain.ShipmentCreated,
		CreatedBy:      cmd.ActorID,
		CreatedAt:      now,
		UpdatedAt:      now,
	}

	persistErr := s.uow.RunInTx(ctx, func(ctx context.Context) error {
		if err := s.shipments.Insert(ctx, shipment); err != nil {
			return err
		}
		return s.orders.MarkShipped(ctx, order.ID, repositories.ShippedUpdate{
			TrackingNumber: booked.TrackingNumber,
			Carrier:        booked.Carrier,
			ShippedAt:      now,
		})
	})
	if persistErr != nil {
		// The carrier already accepted the booking. Surface the tracking
		// number to the operator and leave reconciliation to a follow-up.
		s.log(ctx, "shipment.persist_failed", map[string]any{
			"orderId":        order.ID,
			"trackingNumber": booked.TrackingNumber,
			"carrier":        string(booked.Carrier),
			"error":          persistErr.Error(),
		})
	} else {
		order.Status = domain.StatusShipped
		order.TrackingNumber = booked.TrackingNumber
		order.Carrier = booked.Carrier
		order.ShippedAt = &now
		s.notifier.OrderShipped(ctx, order, shipment)
	}

	s.audit.Record(ctx, AuditRecord{
		ActorID:   cmd.ActorID,
		Action:    "shipments.create",
		TargetRef: order.ID,
		Details: map[string]any{
			"shipmentId":     shipment.ID,
			"carrier":        string(booked.Carrier),
			"trackingNumber": booked.TrackingNumber,
			"serviceType":    string(serviceType),
			"persisted":      persistErr == nil,
		},
		OccurredAt: now,
	})

	return CreateShipmentResult{Shipment: shipment, Carrier: booked}, nil
}

// GetTracking answers a tracking query for a stored shipment.
func (s *shipmentService) GetTracking(ctx context.Context, shipmentID string) (shipping.TrackingDetails, error) {
	shipment, err := s.shipments.FindByID(ctx, shipmentID)
	if err != nil {
		if isNotFound(err) {
			return shipping.TrackingDetails{}, fmt.Errorf("%w: %s", ErrShipmentNotFound, shipmentID)
		}
		return shipping.TrackingDetails{}, fmt.Errorf("shipment service: load shipment: %w", err)
	}
	carrier, err := s.carriers.Resolve(shipment.Carrier)
	if err != nil {
		return shipping.TrackingDetails{}, err
	}
	return carrier.GetTracking(ctx, shipment.TrackingNumber)
}

// TrackByNumber answers a tracking query for a raw tracking number,
// detecting the carrier from the number's format when none is given.
func (s *shipmentService) TrackByNumber(ctx context.Context, trackingNumber string, carrierCode domain.CarrierCode) (shipping.TrackingDetails, error) {
	if carrierCode == "" {
		detected, ok := shipping.DetectCarrier(trackingNumber)
		if !ok {
			return shipping.TrackingDetails{}, &shipping.CarrierError{
				Code:    shipping.ErrCodeProviderNotFound,
				Message: "could not detect carrier from tracking number",
			}
		}
		carrierCode = detected
	}
	carrier, err := s.carriers.Resolve(carrierCode)
	if err != nil {
		return shipping.TrackingDetails{}, err
	}
	return carrier.GetTracking(ctx, trackingNumber)
}

// isNotFound unwraps repository errors down to their classification.
func isNotFound(err error) bool {
	var repoErr repositories.RepositoryError
	return errors.As(err, &repoErr) && repoErr.IsNotFound()
}
