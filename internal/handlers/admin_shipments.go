package handlers

import (
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	domain "github.com/footprint-shop/api/internal/domain"
	"github.com/footprint-shop/api/internal/platform/httpx"
	"github.com/footprint-shop/api/internal/services"
	"github.com/footprint-shop/api/internal/shipping"
)

// AdminShipmentHandlers exposes shipment booking and tracking endpoints.
type AdminShipmentHandlers struct {
	shipments services.ShipmentService
	strict    RateLimiter
}

// NewAdminShipmentHandlers constructs the shipment handlers. The strict
// limiter guards the booking mutation and may be nil.
func NewAdminShipmentHandlers(shipments services.ShipmentService, strict RateLimiter) *AdminShipmentHandlers {
	return &AdminShipmentHandlers{shipments: shipments, strict: strict}
}

// Routes registers the shipment endpoints.
func (h *AdminShipmentHandlers) Routes(r chi.Router) {
	if r == nil {
		return
	}
	r.With(RateLimit(h.strict)).Post("/shipments", h.createShipment)
	r.Get("/shipments/{shipmentID}/tracking", h.getTracking)
	r.Get("/tracking/{trackingNumber}", h.trackByNumber)
}

type createShipmentRequest struct {
	OrderID     string `json:"orderId"`
	Carrier     string `json:"carrier,omitempty"`
	ServiceType string `json:"serviceType,omitempty"`
}

type shipmentPayload struct {
	ID             string `json:"id"`
	OrderID        string `json:"orderId"`
	Carrier        string `json:"carrier"`
	TrackingNumber string `json:"trackingNumber"`
	LabelURL       string `json:"labelUrl,omitempty"`
	ServiceType    string `json:"serviceType"`
	Status         string `json:"status"`
	CreatedAt      string `json:"createdAt"`
}

type createShipmentResponse struct {
	Shipment          shipmentPayload            `json:"shipment"`
	EstimatedDelivery *shipping.DeliveryEstimate `json:"estimatedDelivery,omitempty"`
	Cost              *shipping.ShipmentCost     `json:"cost,omitempty"`
}

func (h *AdminShipmentHandlers) createShipment(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if h.shipments == nil {
		httpx.WriteError(ctx, w, httpx.NewError("service_unavailable", "shipment service unavailable", http.StatusServiceUnavailable))
		return
	}
	actor, ok := actorFromRequest(w, r)
	if !ok {
		return
	}

	var payload createShipmentRequest
	if !decodeJSONBody(w, r, &payload) {
		return
	}
	if strings.TrimSpace(payload.OrderID) == "" {
		httpx.WriteError(ctx, w, httpx.
			NewError("invalid_request", "orderId is required", http.StatusBadRequest).
			WithDetails(map[string]any{"field": "orderId"}))
		return
	}

	result, err := h.shipments.CreateShipment(ctx, services.CreateShipmentCommand{
		OrderID:     strings.TrimSpace(payload.OrderID),
		Carrier:     domain.CarrierCode(strings.TrimSpace(payload.Carrier)),
		ServiceType: domain.ServiceType(strings.TrimSpace(payload.ServiceType)),
		ActorID:     actor.ID,
	})
	if err != nil {
		writeServiceError(ctx, w, err)
		return
	}

	writeJSON(w, http.StatusCreated, createShipmentResponse{
		Shipment:          newShipmentPayload(result.Shipment),
		EstimatedDelivery: result.Carrier.EstimatedDelivery,
		Cost:              result.Carrier.Cost,
	})
}

func newShipmentPayload(shipment domain.Shipment) shipmentPayload {
	return shipmentPayload{
		ID:             shipment.ID,
		OrderID:        shipment.OrderID,
		Carrier:        string(shipment.Carrier),
		TrackingNumber: shipment.TrackingNumber,
		LabelURL:       shipment.LabelURL,
		ServiceType:    string(shipment.ServiceType),
		Status:         string(shipment.Status),
		CreatedAt:      shipment.CreatedAt.UTC().Format(time.RFC3339),
	}
}

func (h *AdminShipmentHandlers) getTracking(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if h.shipments == nil {
		httpx.WriteError(ctx, w, httpx.NewError("service_unavailable", "shipment service unavailable", http.StatusServiceUnavailable))
		return
	}
	if _, ok := actorFromRequest(w, r); !ok {
		return
	}

	shipmentID := strings.TrimSpace(chi.URLParam(r, "shipmentID"))
	if shipmentID == "" {
		httpx.WriteError(ctx, w, httpx.NewError("invalid_request", "shipment id is required", http.StatusBadRequest))
		return
	}

	details, err := h.shipments.GetTracking(ctx, shipmentID)
	if err != nil {
		writeServiceError(ctx, w, err)
		return
	}

	writeJSON(w, http.StatusOK, details)
}

func (h *AdminShipmentHandlers) trackByNumber(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if h.shipments == nil {
		httpx.WriteError(ctx, w, httpx.NewError("service_unavailable", "shipment service unavailable", http.StatusServiceUnavailable))
		return
	}
	if _, ok := actorFromRequest(w, r); !ok {
		return
	}

	trackingNumber := strings.TrimSpace(chi.URLParam(r, "trackingNumber"))
	if trackingNumber == "" {
		httpx.WriteError(ctx, w, httpx.NewError("invalid_request", "tracking number is required", http.StatusBadRequest))
		return
	}
	carrier := domain.CarrierCode(strings.TrimSpace(r.URL.Query().Get("carrier")))

	details, err := h.shipments.TrackByNumber(ctx, trackingNumber, carrier)
	if err != nil {
		writeServiceError(ctx, w, err)
		return
	}

	writeJSON(w, http.StatusOK, details)
}
