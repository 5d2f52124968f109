package postgres

import (
	"context"
	"time"

	"gorm.io/gorm"

	domain "github.com/footprint-shop/api/internal/domain"
	"github.com/footprint-shop/api/internal/repositories"
)

type orderRepository struct {
	db *gorm.DB
}

func (r *orderRepository) FindByID(ctx context.Context, orderID string) (domain.Order, error) {
	var row orderRow
	err := handle(ctx, r.db).Preload("Items").First(&row, "id = ?", orderID).Error
	if err != nil {
		return domain.Order{}, wrapError("orders.find_by_id", err)
	}
	order, err := toDomainOrder(row)
	if err != nil {
		return domain.Order{}, wrapError("orders.find_by_id", err)
	}
	return order, nil
}

func (r *orderRepository) FindByIDs(ctx context.Context, orderIDs []string) ([]domain.Order, error) {
	if len(orderIDs) == 0 {
		return nil, nil
	}
	var rows []orderRow
	err := handle(ctx, r.db).Preload("Items").Where("id IN ?", orderIDs).Find(&rows).Error
	if err != nil {
		return nil, wrapError("orders.find_by_ids", err)
	}
	orders := make([]domain.Order, 0, len(rows))
	for _, row := range rows {
		order, err := toDomainOrder(row)
		if err != nil {
			return nil, wrapError("orders.find_by_ids", err)
		}
		orders = append(orders, order)
	}
	return orders, nil
}

func (r *orderRepository) UpdateStatus(ctx context.Context, orderID string, status domain.FulfillmentStatus, updatedAt time.Time) error {
	updates := map[string]any{
		"status":     string(status),
		"updated_at": updatedAt,
	}
	switch status {
	case domain.StatusDelivered:
		updates["delivered_at"] = updatedAt
	case domain.StatusCancelled:
		updates["cancelled_at"] = updatedAt
	}
	result := handle(ctx, r.db).Model(&orderRow{}).Where("id = ?", orderID).Updates(updates)
	if result.Error != nil {
		return wrapError("orders.update_status", result.Error)
	}
	if result.RowsAffected == 0 {
		return wrapError("orders.update_status", gorm.ErrRecordNotFound)
	}
	return nil
}

func (r *orderRepository) MarkShipped(ctx context.Context, orderID string, update repositories.ShippedUpdate) error {
	result := handle(ctx, r.db).Model(&orderRow{}).Where("id = ?", orderID).Updates(map[string]any{
		"status":          string(domain.StatusShipped),
		"tracking_number": update.TrackingNumber,
		"carrier":         string(update.Carrier),
		"shipped_at":      update.ShippedAt,
		"updated_at":      update.ShippedAt,
	})
	if result.Error != nil {
		return wrapError("orders.mark_shipped", result.Error)
	}
	if result.RowsAffected == 0 {
		return wrapError("orders.mark_shipped", gorm.ErrRecordNotFound)
	}
	return nil
}

func (r *orderRepository) List(ctx context.Context, filter repositories.OrderListFilter) (domain.Page[domain.Order], error) {
	query := handle(ctx, r.db).Model(&orderRow{})
	if filter.Status != "" {
		query = query.Where("status = ?", string(filter.Status))
	}
	if filter.UserID != "" {
		query = query.Where("user_id = ?", filter.UserID)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return domain.Page[domain.Order]{}, wrapError("orders.list", err)
	}

	query = query.Preload("Items").Order("created_at DESC")
	if filter.Pager.Limit > 0 {
		query = query.Limit(filter.Pager.Limit)
	}
	if filter.Pager.Offset > 0 {
		query = query.Offset(filter.Pager.Offset)
	}

	var rows []orderRow
	if err := query.Find(&rows).Error; err != nil {
		return domain.Page[domain.Order]{}, wrapError("orders.list", err)
	}

	items := make([]domain.Order, 0, len(rows))
	for _, row := range rows {
		order, err := toDomainOrder(row)
		if err != nil {
			return domain.Page[domain.Order]{}, wrapError("orders.list", err)
		}
		items = append(items, order)
	}
	return domain.Page[domain.Order]{Items: items, Total: total}, nil
}
