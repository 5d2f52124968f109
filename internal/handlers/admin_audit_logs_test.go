package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"testing"
	"time"

	domain "github.com/footprint-shop/api/internal/domain"
	"github.com/footprint-shop/api/internal/services"
)

func TestAuditLogList(t *testing.T) {
	var gotFilter services.AuditLogFilter
	audit := &stubAuditService{
		list: func(_ context.Context, filter services.AuditLogFilter) (domain.Page[domain.AuditLogEntry], error) {
			gotFilter = filter
			return domain.Page[domain.AuditLogEntry]{
				Items: []domain.AuditLogEntry{{
					ID:        "aud_1",
					ActorID:   "admin_1",
					Action:    "orders.bulk_status",
					TargetRef: "orders:3",
					CreatedAt: time.Date(2026, 2, 1, 9, 0, 0, 0, time.UTC),
				}},
				Total: 1,
			}, nil
		},
	}
	router := adminRouter(testActor(), NewAdminAuditLogHandlers(audit).Routes)

	rec := doRequest(router, http.MethodGet, "/api/v1/admin/audit-logs?action=orders.bulk_status&limit=10", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}

	if gotFilter.Action != "orders.bulk_status" || gotFilter.Pager.Limit != 10 {
		t.Errorf("filter = %+v", gotFilter)
	}

	var response struct {
		Items []struct {
			ID        string `json:"id"`
			Action    string `json:"action"`
			CreatedAt string `json:"createdAt"`
		} `json:"items"`
		Total int64 `json:"total"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &response); err != nil {
		t.Fatal(err)
	}
	if response.Total != 1 || len(response.Items) != 1 || response.Items[0].ID != "aud_1" {
		t.Errorf("response = %+v", response)
	}
	if response.Items[0].CreatedAt != "2026-02-01T09:00:00Z" {
		t.Errorf("createdAt = %q", response.Items[0].CreatedAt)
	}
}

func TestAuditLogListClampsPageSize(t *testing.T) {
	var gotFilter services.AuditLogFilter
	audit := &stubAuditService{
		list: func(_ context.Context, filter services.AuditLogFilter) (domain.Page[domain.AuditLogEntry], error) {
			gotFilter = filter
			return domain.Page[domain.AuditLogEntry]{}, nil
		},
	}
	router := adminRouter(testActor(), NewAdminAuditLogHandlers(audit).Routes)

	rec := doRequest(router, http.MethodGet, "/api/v1/admin/audit-logs?limit=9999", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if gotFilter.Pager.Limit != maxAuditPageSize {
		t.Errorf("limit = %d, want clamp to %d", gotFilter.Pager.Limit, maxAuditPageSize)
	}
}
