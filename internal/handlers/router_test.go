package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/footprint-shop/api/internal/platform/requestctx"
)

func TestHealthz(t *testing.T) {
	router := NewRouter()

	rec := doRequest(router, http.MethodGet, "/healthz", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	var payload map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &payload); err != nil {
		t.Fatal(err)
	}
	if payload["status"] != "ok" {
		t.Errorf("payload = %v", payload)
	}
}

type stubPinger struct {
	err error
}

func (s *stubPinger) Ping(context.Context) error { return s.err }

func TestReadyz(t *testing.T) {
	router := NewRouter(WithHealthHandlers(NewHealthHandlers(&stubPinger{})))
	if rec := doRequest(router, http.MethodGet, "/readyz", ""); rec.Code != http.StatusOK {
		t.Errorf("ready status = %d", rec.Code)
	}

	router = NewRouter(WithHealthHandlers(NewHealthHandlers(&stubPinger{err: errors.New("down")})))
	if rec := doRequest(router, http.MethodGet, "/readyz", ""); rec.Code != http.StatusServiceUnavailable {
		t.Errorf("unready status = %d", rec.Code)
	}
}

func TestRouterNotFoundEnvelope(t *testing.T) {
	router := NewRouter()

	rec := doRequest(router, http.MethodGet, "/nope", "")
	if rec.Code != http.StatusNotFound {
		t.Fatalf("status = %d", rec.Code)
	}
	var envelope struct {
		Error  string `json:"error"`
		Status int    `json:"status"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &envelope); err != nil {
		t.Fatal(err)
	}
	if envelope.Error != "route_not_found" || envelope.Status != http.StatusNotFound {
		t.Errorf("envelope = %+v", envelope)
	}
}

func TestRequireAdmin(t *testing.T) {
	var gotActor requestctx.Actor
	protected := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotActor, _ = requestctx.ActorFromContext(r.Context())
		w.WriteHeader(http.StatusNoContent)
	})

	verifier := &stubVerifier{actor: requestctx.Actor{ID: "admin_1", Role: "admin"}}
	handler := RequireAdmin(verifier)(protected)

	rec := doRawRequest(handler, "")
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("no token status = %d", rec.Code)
	}

	rec = doRawRequest(handler, "Bearer good-token")
	if rec.Code != http.StatusNoContent {
		t.Errorf("valid token status = %d", rec.Code)
	}
	if gotActor.ID != "admin_1" {
		t.Errorf("actor = %+v", gotActor)
	}

	handler = RequireAdmin(&stubVerifier{err: errors.New("bad token")})(protected)
	rec = doRawRequest(handler, "Bearer bad-token")
	if rec.Code != http.StatusForbidden {
		t.Errorf("rejected token status = %d", rec.Code)
	}
}

func TestWindowedRateLimiter(t *testing.T) {
	now := time.Date(2026, 2, 1, 9, 0, 0, 0, time.UTC)
	clock := func() time.Time { return now }
	limiter := NewWindowedRateLimiter(2, time.Minute, clock)

	if !limiter.Allow("k") || !limiter.Allow("k") {
		t.Fatal("first two requests must pass")
	}
	if limiter.Allow("k") {
		t.Error("third request within the window must be rejected")
	}
	if !limiter.Allow("other") {
		t.Error("keys are limited independently")
	}

	now = now.Add(2 * time.Minute)
	if !limiter.Allow("k") {
		t.Error("window expiry must reset the budget")
	}

	if NewWindowedRateLimiter(0, time.Minute, nil) != nil {
		t.Error("non-positive limit disables limiting")
	}
}
