package handlers

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	domain "github.com/footprint-shop/api/internal/domain"
	"github.com/footprint-shop/api/internal/platform/httpx"
	"github.com/footprint-shop/api/internal/services"
)

// AdminOrderHandlers exposes the bulk fulfillment endpoints.
type AdminOrderHandlers struct {
	bulk   services.BulkService
	strict RateLimiter
}

// NewAdminOrderHandlers constructs the bulk order handlers. The strict
// limiter guards the bulk mutations and may be nil.
func NewAdminOrderHandlers(bulk services.BulkService, strict RateLimiter) *AdminOrderHandlers {
	return &AdminOrderHandlers{bulk: bulk, strict: strict}
}

// Routes registers the bulk order endpoints.
func (h *AdminOrderHandlers) Routes(r chi.Router) {
	if r == nil {
		return
	}
	r.With(RateLimit(h.strict)).Post("/orders:bulk-status", h.bulkStatus)
	r.With(RateLimit(h.strict)).Post("/orders:bulk-download", h.bulkDownload)
}

type bulkStatusRequest struct {
	OrderIDs []string `json:"orderIds"`
	Status   string   `json:"status"`
}

type invalidTransitionPayload struct {
	OrderID string `json:"orderId"`
	Reason  string `json:"reason"`
}

type bulkStatusResponse struct {
	Updated  []string                   `json:"updated"`
	Invalid  []invalidTransitionPayload `json:"invalid"`
	NotFound []string                   `json:"notFound"`
	Failed   []string                   `json:"failed"`
}

func (h *AdminOrderHandlers) bulkStatus(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if h.bulk == nil {
		httpx.WriteError(ctx, w, httpx.NewError("service_unavailable", "bulk service unavailable", http.StatusServiceUnavailable))
		return
	}
	actor, ok := actorFromRequest(w, r)
	if !ok {
		return
	}

	var payload bulkStatusRequest
	if !decodeJSONBody(w, r, &payload) {
		return
	}
	if !validateOrderIDs(w, r, payload.OrderIDs) {
		return
	}
	if strings.TrimSpace(payload.Status) == "" {
		httpx.WriteError(ctx, w, httpx.
			NewError("invalid_request", "status is required", http.StatusBadRequest).
			WithDetails(map[string]any{"field": "status"}))
		return
	}

	result, err := h.bulk.UpdateStatuses(ctx, services.BulkStatusCommand{
		OrderIDs: payload.OrderIDs,
		Target:   domain.FulfillmentStatus(payload.Status),
		ActorID:  actor.ID,
	})
	if err != nil {
		writeServiceError(ctx, w, err)
		return
	}

	writeJSON(w, http.StatusOK, newBulkStatusResponse(result))
}

func newBulkStatusResponse(result services.BulkStatusResult) bulkStatusResponse {
	response := bulkStatusResponse{
		Updated:  emptyIfNil(result.Updated),
		Invalid:  make([]invalidTransitionPayload, 0, len(result.Invalid)),
		NotFound: emptyIfNil(result.NotFound),
		Failed:   emptyIfNil(result.Failed),
	}
	for _, invalid := range result.Invalid {
		response.Invalid = append(response.Invalid, invalidTransitionPayload{
			OrderID: invalid.OrderID,
			Reason:  invalid.Reason,
		})
	}
	return response
}

type bulkDownloadRequest struct {
	OrderIDs []string `json:"orderIds"`
}

type bulkDownloadResponse struct {
	DownloadURL      string   `json:"downloadUrl"`
	FileName         string   `json:"fileName"`
	FileCount        int      `json:"fileCount"`
	ExpiresInSeconds int      `json:"expiresIn"`
	Skipped          []string `json:"skipped"`
	NotFound         []string `json:"notFound"`
	Failed           []string `json:"failed"`
}

func (h *AdminOrderHandlers) bulkDownload(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if h.bulk == nil {
		httpx.WriteError(ctx, w, httpx.NewError("service_unavailable", "bulk service unavailable", http.StatusServiceUnavailable))
		return
	}
	actor, ok := actorFromRequest(w, r)
	if !ok {
		return
	}

	var payload bulkDownloadRequest
	if !decodeJSONBody(w, r, &payload) {
		return
	}
	if !validateOrderIDs(w, r, payload.OrderIDs) {
		return
	}

	result, err := h.bulk.BuildDownloadArchive(ctx, services.BulkDownloadCommand{
		OrderIDs: payload.OrderIDs,
		ActorID:  actor.ID,
	})
	if err != nil {
		writeServiceError(ctx, w, err)
		return
	}

	writeJSON(w, http.StatusOK, bulkDownloadResponse{
		DownloadURL:      result.DownloadURL,
		FileName:         result.FileName,
		FileCount:        result.FileCount,
		ExpiresInSeconds: int(result.ExpiresIn.Seconds()),
		Skipped:          emptyIfNil(result.Skipped),
		NotFound:         emptyIfNil(result.NotFound),
		Failed:           emptyIfNil(result.Failed),
	})
}

// validateOrderIDs enforces the 1..MaxBatchSize bound before the service
// is touched, with a field-level message.
func validateOrderIDs(w http.ResponseWriter, r *http.Request, ids []string) bool {
	ctx := r.Context()
	if len(ids) == 0 {
		httpx.WriteError(ctx, w, httpx.
			NewError("invalid_request", "orderIds must contain at least one id", http.StatusBadRequest).
			WithDetails(map[string]any{"field": "orderIds"}))
		return false
	}
	if len(ids) > services.MaxBatchSize {
		httpx.WriteError(ctx, w, httpx.
			NewError("invalid_request", fmt.Sprintf("orderIds must contain at most %d ids", services.MaxBatchSize), http.StatusBadRequest).
			WithDetails(map[string]any{"field": "orderIds"}))
		return false
	}
	return true
}

func emptyIfNil(values []string) []string {
	if values == nil {
		return []string{}
	}
	return values
}
