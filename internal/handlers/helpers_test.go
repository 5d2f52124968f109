package handlers

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"

	"github.com/go-chi/chi/v5"

	domain "github.com/footprint-shop/api/internal/domain"
	"github.com/footprint-shop/api/internal/platform/requestctx"
	"github.com/footprint-shop/api/internal/services"
	"github.com/footprint-shop/api/internal/shipping"
)

type stubBulkService struct {
	updateStatuses func(ctx context.Context, cmd services.BulkStatusCommand) (services.BulkStatusResult, error)
	buildArchive   func(ctx context.Context, cmd services.BulkDownloadCommand) (services.BulkDownloadResult, error)
}

func (s *stubBulkService) UpdateStatuses(ctx context.Context, cmd services.BulkStatusCommand) (services.BulkStatusResult, error) {
	if s.updateStatuses == nil {
		return services.BulkStatusResult{}, errors.New("unexpected UpdateStatuses call")
	}
	return s.updateStatuses(ctx, cmd)
}

func (s *stubBulkService) BuildDownloadArchive(ctx context.Context, cmd services.BulkDownloadCommand) (services.BulkDownloadResult, error) {
	if s.buildArchive == nil {
		return services.BulkDownloadResult{}, errors.New("unexpected BuildDownloadArchive call")
	}
	return s.buildArchive(ctx, cmd)
}

type stubShipmentService struct {
	create        func(ctx context.Context, cmd services.CreateShipmentCommand) (services.CreateShipmentResult, error)
	getTracking   func(ctx context.Context, shipmentID string) (shipping.TrackingDetails, error)
	trackByNumber func(ctx context.Context, trackingNumber string, carrier domain.CarrierCode) (shipping.TrackingDetails, error)
}

func (s *stubShipmentService) CreateShipment(ctx context.Context, cmd services.CreateShipmentCommand) (services.CreateShipmentResult, error) {
	if s.create == nil {
		return services.CreateShipmentResult{}, errors.New("unexpected CreateShipment call")
	}
	return s.create(ctx, cmd)
}

func (s *stubShipmentService) GetTracking(ctx context.Context, shipmentID string) (shipping.TrackingDetails, error) {
	if s.getTracking == nil {
		return shipping.TrackingDetails{}, errors.New("unexpected GetTracking call")
	}
	return s.getTracking(ctx, shipmentID)
}

func (s *stubShipmentService) TrackByNumber(ctx context.Context, trackingNumber string, carrier domain.CarrierCode) (shipping.TrackingDetails, error) {
	if s.trackByNumber == nil {
		return shipping.TrackingDetails{}, errors.New("unexpected TrackByNumber call")
	}
	return s.trackByNumber(ctx, trackingNumber, carrier)
}

type stubAuditService struct {
	list func(ctx context.Context, filter services.AuditLogFilter) (domain.Page[domain.AuditLogEntry], error)
}

func (s *stubAuditService) Record(context.Context, services.AuditRecord) {}

func (s *stubAuditService) List(ctx context.Context, filter services.AuditLogFilter) (domain.Page[domain.AuditLogEntry], error) {
	if s.list == nil {
		return domain.Page[domain.AuditLogEntry]{}, errors.New("unexpected List call")
	}
	return s.list(ctx, filter)
}

type stubVerifier struct {
	actor requestctx.Actor
	err   error
}

func (s *stubVerifier) Verify(context.Context, string) (requestctx.Actor, error) {
	return s.actor, s.err
}

// adminRouter builds a router with the admin group authenticated as the
// given actor, bypassing token verification.
func adminRouter(actor requestctx.Actor, registrars ...RouteRegistrar) chi.Router {
	injectActor := func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			next.ServeHTTP(w, r.WithContext(requestctx.WithActor(r.Context(), actor)))
		})
	}
	return NewRouter(
		WithAdminMiddlewares(injectActor),
		WithAdminRoutes(func(r chi.Router) {
			for _, registrar := range registrars {
				registrar(r)
			}
		}),
	)
}

func doRawRequest(handler http.Handler, authorization string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	if authorization != "" {
		req.Header.Set("Authorization", authorization)
	}
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	return rec
}

func doRequest(router chi.Router, method, path, body string) *httptest.ResponseRecorder {
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}
