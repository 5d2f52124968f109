package postgres

import (
	"context"
	"time"

	"gorm.io/gorm"

	domain "github.com/footprint-shop/api/internal/domain"
	"github.com/footprint-shop/api/internal/repositories"
)

type shipmentRepository struct {
	db *gorm.DB
}

// Insert persists a shipment. The partial unique index on
// (order_id) WHERE status = 'created' turns a second active shipment for
// the same order into a conflict error.
func (r *shipmentRepository) Insert(ctx context.Context, shipment domain.Shipment) error {
	if err := handle(ctx, r.db).Create(toShipmentRow(shipment)).Error; err != nil {
		return wrapError("shipments.insert", err)
	}
	return nil
}

func (r *shipmentRepository) FindByID(ctx context.Context, shipmentID string) (domain.Shipment, error) {
	var row shipmentRow
	err := handle(ctx, r.db).First(&row, "id = ?", shipmentID).Error
	if err != nil {
		return domain.Shipment{}, wrapError("shipments.find_by_id", err)
	}
	return toDomainShipment(row), nil
}

func (r *shipmentRepository) FindActiveByOrder(ctx context.Context, orderID string) (domain.Shipment, error) {
	var row shipmentRow
	err := handle(ctx, r.db).
		Where("order_id = ? AND status = ?", orderID, string(domain.ShipmentCreated)).
		First(&row).Error
	if err != nil {
		return domain.Shipment{}, wrapError("shipments.find_active_by_order", err)
	}
	return toDomainShipment(row), nil
}

func (r *shipmentRepository) UpdateStatus(ctx context.Context, shipmentID string, status domain.ShipmentStatus, updatedAt time.Time) error {
	result := handle(ctx, r.db).Model(&shipmentRow{}).Where("id = ?", shipmentID).Updates(map[string]any{
		"status":     string(status),
		"updated_at": updatedAt,
	})
	if result.Error != nil {
		return wrapError("shipments.update_status", result.Error)
	}
	if result.RowsAffected == 0 {
		return wrapError("shipments.update_status", gorm.ErrRecordNotFound)
	}
	return nil
}

func (r *shipmentRepository) List(ctx context.Context, filter repositories.ShipmentListFilter) (domain.Page[domain.Shipment], error) {
	query := handle(ctx, r.db).Model(&shipmentRow{})
	if filter.OrderID != "" {
		query = query.Where("order_id = ?", filter.OrderID)
	}
	if filter.Status != "" {
		query = query.Where("status = ?", string(filter.Status))
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return domain.Page[domain.Shipment]{}, wrapError("shipments.list", err)
	}

	query = query.Order("created_at DESC")
	if filter.Pager.Limit > 0 {
		query = query.Limit(filter.Pager.Limit)
	}
	if filter.Pager.Offset > 0 {
		query = query.Offset(filter.Pager.Offset)
	}

	var rows []shipmentRow
	if err := query.Find(&rows).Error; err != nil {
		return domain.Page[domain.Shipment]{}, wrapError("shipments.list", err)
	}
	items := make([]domain.Shipment, 0, len(rows))
	for _, row := range rows {
		items = append(items, toDomainShipment(row))
	}
	return domain.Page[domain.Shipment]{Items: items, Total: total}, nil
}
