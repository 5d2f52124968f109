package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/footprint-shop/api/internal/platform/httpx"
	"github.com/footprint-shop/api/internal/platform/requestctx"
	"github.com/footprint-shop/api/internal/services"
	"github.com/footprint-shop/api/internal/shipping"
)

const maxAdminRequestBody = 256 * 1024

// AdminVerifier authenticates the admin credential presented on a request.
// How credentials are issued and checked is an integration concern; the
// handlers only gate on the verdict.
type AdminVerifier interface {
	Verify(ctx context.Context, token string) (requestctx.Actor, error)
}

// RequireAdmin rejects requests without a valid admin credential and
// stores the verified actor on the context.
func RequireAdmin(verifier AdminVerifier) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			if verifier == nil {
				httpx.WriteError(ctx, w, httpx.NewError("unauthenticated", "authentication not configured", http.StatusUnauthorized))
				return
			}
			token := bearerToken(r)
			if token == "" {
				httpx.WriteError(ctx, w, httpx.NewError("unauthenticated", "authentication required", http.StatusUnauthorized))
				return
			}
			actor, err := verifier.Verify(ctx, token)
			if err != nil || actor.ID == "" {
				httpx.WriteError(ctx, w, httpx.NewError("forbidden", "admin access required", http.StatusForbidden))
				return
			}
			next.ServeHTTP(w, r.WithContext(requestctx.WithActor(ctx, actor)))
		})
	}
}

func bearerToken(r *http.Request) string {
	header := strings.TrimSpace(r.Header.Get("Authorization"))
	if header == "" {
		return ""
	}
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return ""
	}
	return strings.TrimSpace(parts[1])
}

func actorFromRequest(w http.ResponseWriter, r *http.Request) (requestctx.Actor, bool) {
	ctx := r.Context()
	actor, ok := requestctx.ActorFromContext(ctx)
	if !ok {
		httpx.WriteError(ctx, w, httpx.NewError("unauthenticated", "authentication required", http.StatusUnauthorized))
		return requestctx.Actor{}, false
	}
	return actor, true
}

func decodeJSONBody(w http.ResponseWriter, r *http.Request, dst any) bool {
	ctx := r.Context()
	r.Body = http.MaxBytesReader(w, r.Body, maxAdminRequestBody)
	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(dst); err != nil {
		httpx.WriteError(ctx, w, httpx.NewError("invalid_request", "request body is not valid JSON", http.StatusBadRequest))
		return false
	}
	return true
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

// writeServiceError maps service-layer failures onto the error envelope.
func writeServiceError(ctx context.Context, w http.ResponseWriter, err error) {
	var addrErr *services.InvalidAddressError
	var carrierErr *shipping.CarrierError

	switch {
	case errors.Is(err, services.ErrEmptyBatch),
		errors.Is(err, services.ErrTooManyOrders),
		errors.Is(err, services.ErrInvalidStatus):
		httpx.WriteError(ctx, w, httpx.NewError("invalid_request", err.Error(), http.StatusBadRequest))
	case errors.Is(err, services.ErrNoOrdersFound):
		httpx.WriteError(ctx, w, httpx.NewError("orders_not_found", err.Error(), http.StatusNotFound))
	case errors.Is(err, services.ErrOrderNotFound):
		httpx.WriteError(ctx, w, httpx.NewError("order_not_found", err.Error(), http.StatusNotFound))
	case errors.Is(err, services.ErrShipmentNotFound):
		httpx.WriteError(ctx, w, httpx.NewError("shipment_not_found", err.Error(), http.StatusNotFound))
	case errors.Is(err, services.ErrShipmentConflict):
		httpx.WriteError(ctx, w, httpx.NewError("shipment_conflict", err.Error(), http.StatusConflict))
	case errors.Is(err, services.ErrMissingAddress):
		httpx.WriteError(ctx, w, httpx.NewError("missing_address", err.Error(), http.StatusUnprocessableEntity))
	case errors.Is(err, services.ErrNoValidFiles):
		httpx.WriteError(ctx, w, httpx.NewError("no_valid_files", err.Error(), http.StatusUnprocessableEntity))
	case errors.As(err, &addrErr):
		fields := make(map[string]any, len(addrErr.Fields))
		for field, message := range addrErr.Fields {
			fields[field] = message
		}
		httpx.WriteError(ctx, w, httpx.
			NewError("invalid_address", "shipping address failed validation", http.StatusUnprocessableEntity).
			WithDetails(map[string]any{"fields": fields}))
	case errors.As(err, &carrierErr):
		httpx.WriteError(ctx, w, httpx.
			NewError("carrier_error", carrierErr.Error(), http.StatusBadGateway).
			WithDetails(map[string]any{
				"carrier":   string(carrierErr.Carrier),
				"code":      carrierErr.Code,
				"retryable": carrierErr.Retryable,
			}))
	default:
		httpx.WriteError(ctx, w, httpx.NewError("internal_error", "internal server error", http.StatusInternalServerError))
	}
}
