package postgres

import (
	"encoding/json"
	"time"

	domain "github.com/footprint-shop/api/internal/domain"
)

type orderRow struct {
	ID          string `gorm:"column:id;primaryKey"`
	OrderNumber string `gorm:"column:order_number;uniqueIndex"`
	UserID      string `gorm:"column:user_id;index"`
	Status      string `gorm:"column:status;index"`

	Subtotal int64  `gorm:"column:subtotal"`
	Shipping int64  `gorm:"column:shipping"`
	Total    int64  `gorm:"column:total"`
	Currency string `gorm:"column:currency"`

	ShippingAddress json.RawMessage `gorm:"column:shipping_address;type:jsonb"`
	GiftMessage     string          `gorm:"column:gift_message"`
	IsGift          bool            `gorm:"column:is_gift"`

	TrackingNumber string `gorm:"column:tracking_number"`
	Carrier        string `gorm:"column:carrier"`

	Items []orderItemRow `gorm:"foreignKey:OrderID"`

	CreatedAt   time.Time  `gorm:"column:created_at"`
	PaidAt      *time.Time `gorm:"column:paid_at"`
	ShippedAt   *time.Time `gorm:"column:shipped_at"`
	DeliveredAt *time.Time `gorm:"column:delivered_at"`
	CancelledAt *time.Time `gorm:"column:cancelled_at"`
	UpdatedAt   time.Time  `gorm:"column:updated_at"`
}

func (orderRow) TableName() string { return "orders" }

type orderItemRow struct {
	ID        string `gorm:"column:id;primaryKey"`
	OrderID   string `gorm:"column:order_id;index"`
	Size      string `gorm:"column:size"`
	PaperType string `gorm:"column:paper_type"`
	FrameType string `gorm:"column:frame_type"`
	Quantity  int    `gorm:"column:quantity"`
	UnitPrice int64  `gorm:"column:unit_price"`

	OriginalImageURL    string `gorm:"column:original_image_url"`
	TransformedImageURL string `gorm:"column:transformed_image_url"`
	TransformedImageKey string `gorm:"column:transformed_image_key"`
	PrintReadyKey       string `gorm:"column:print_ready_key"`
}

func (orderItemRow) TableName() string { return "order_items" }

type shipmentRow struct {
	ID             string    `gorm:"column:id;primaryKey"`
	OrderID        string    `gorm:"column:order_id;index"`
	Carrier        string    `gorm:"column:carrier"`
	CarrierRef     string    `gorm:"column:carrier_ref"`
	TrackingNumber string    `gorm:"column:tracking_number;index"`
	LabelURL       string    `gorm:"column:label_url"`
	ServiceType    string    `gorm:"column:service_type"`
	Status         string    `gorm:"column:status;index"`
	CreatedBy      string    `gorm:"column:created_by"`
	CreatedAt      time.Time `gorm:"column:created_at"`
	UpdatedAt      time.Time `gorm:"column:updated_at"`
}

func (shipmentRow) TableName() string { return "shipments" }

type auditLogRow struct {
	ID        string          `gorm:"column:id;primaryKey"`
	ActorID   string          `gorm:"column:actor_id;index"`
	Action    string          `gorm:"column:action;index"`
	TargetRef string          `gorm:"column:target_ref;index"`
	Details   json.RawMessage `gorm:"column:details;type:jsonb"`
	CreatedAt time.Time       `gorm:"column:created_at;index"`
}

func (auditLogRow) TableName() string { return "audit_logs" }

func toDomainOrder(row orderRow) (domain.Order, error) {
	order := domain.Order{
		ID:             row.ID,
		OrderNumber:    row.OrderNumber,
		UserID:         row.UserID,
		Status:         domain.FulfillmentStatus(row.Status),
		Subtotal:       row.Subtotal,
		Shipping:       row.Shipping,
		Total:          row.Total,
		Currency:       row.Currency,
		GiftMessage:    row.GiftMessage,
		IsGift:         row.IsGift,
		TrackingNumber: row.TrackingNumber,
		Carrier:        domain.CarrierCode(row.Carrier),
		CreatedAt:      row.CreatedAt,
		PaidAt:         row.PaidAt,
		ShippedAt:      row.ShippedAt,
		DeliveredAt:    row.DeliveredAt,
		CancelledAt:    row.CancelledAt,
		UpdatedAt:      row.UpdatedAt,
	}
	if len(row.ShippingAddress) > 0 {
		var addr domain.Address
		if err := json.Unmarshal(row.ShippingAddress, &addr); err != nil {
			return domain.Order{}, err
		}
		order.ShippingAddress = &addr
	}
	for _, item := range row.Items {
		order.Items = append(order.Items, domain.OrderItem{
			ID:                  item.ID,
			OrderID:             item.OrderID,
			Size:                domain.PrintSize(item.Size),
			PaperType:           item.PaperType,
			FrameType:           item.FrameType,
			Quantity:            item.Quantity,
			UnitPrice:           item.UnitPrice,
			OriginalImageURL:    item.OriginalImageURL,
			TransformedImageURL: item.TransformedImageURL,
			TransformedImageKey: item.TransformedImageKey,
			PrintReadyKey:       item.PrintReadyKey,
		})
	}
	return order, nil
}

func toShipmentRow(shipment domain.Shipment) shipmentRow {
	return shipmentRow{
		ID:             shipment.ID,
		OrderID:        shipment.OrderID,
		Carrier:        string(shipment.Carrier),
		CarrierRef:     shipment.CarrierRef,
		TrackingNumber: shipment.TrackingNumber,
		LabelURL:       shipment.LabelURL,
		ServiceType:    string(shipment.ServiceType),
		Status:         string(shipment.Status),
		CreatedBy:      shipment.CreatedBy,
		CreatedAt:      shipment.CreatedAt,
		UpdatedAt:      shipment.UpdatedAt,
	}
}

func toDomainShipment(row shipmentRow) domain.Shipment {
	return domain.Shipment{
		ID:             row.ID,
		OrderID:        row.OrderID,
		Carrier:        domain.CarrierCode(row.Carrier),
		CarrierRef:     row.CarrierRef,
		TrackingNumber: row.TrackingNumber,
		LabelURL:       row.LabelURL,
		ServiceType:    domain.ServiceType(row.ServiceType),
		Status:         domain.ShipmentStatus(row.Status),
		CreatedBy:      row.CreatedBy,
		CreatedAt:      row.CreatedAt,
		UpdatedAt:      row.UpdatedAt,
	}
}

func toAuditLogRow(entry domain.AuditLogEntry) (auditLogRow, error) {
	row := auditLogRow{
		ID:        entry.ID,
		ActorID:   entry.ActorID,
		Action:    entry.Action,
		TargetRef: entry.TargetRef,
		CreatedAt: entry.CreatedAt,
	}
	if entry.Details != nil {
		encoded, err := json.Marshal(entry.Details)
		if err != nil {
			return auditLogRow{}, err
		}
		row.Details = encoded
	}
	return row, nil
}

func toDomainAuditLog(row auditLogRow) (domain.AuditLogEntry, error) {
	entry := domain.AuditLogEntry{
		ID:        row.ID,
		ActorID:   row.ActorID,
		Action:    row.Action,
		TargetRef: row.TargetRef,
		CreatedAt: row.CreatedAt,
	}
	if len(row.Details) > 0 {
		if err := json.Unmarshal(row.Details, &entry.Details); err != nil {
			return domain.AuditLogEntry{}, err
		}
	}
	return entry, nil
}
