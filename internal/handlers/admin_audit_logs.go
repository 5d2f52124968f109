package handlers

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	domain "github.com/footprint-shop/api/internal/domain"
	"github.com/footprint-shop/api/internal/platform/httpx"
	"github.com/footprint-shop/api/internal/services"
)

const (
	defaultAuditPageSize = 50
	maxAuditPageSize     = 200
)

// AdminAuditLogHandlers exposes the read side of the audit trail.
type AdminAuditLogHandlers struct {
	audit services.AuditLogService
}

// NewAdminAuditLogHandlers constructs the audit log handlers.
func NewAdminAuditLogHandlers(audit services.AuditLogService) *AdminAuditLogHandlers {
	return &AdminAuditLogHandlers{audit: audit}
}

// Routes registers the audit log endpoints.
func (h *AdminAuditLogHandlers) Routes(r chi.Router) {
	if r == nil {
		return
	}
	r.Get("/audit-logs", h.list)
}

type auditLogPayload struct {
	ID        string         `json:"id"`
	ActorID   string         `json:"actorId"`
	Action    string         `json:"action"`
	TargetRef string         `json:"targetRef"`
	Details   map[string]any `json:"details,omitempty"`
	CreatedAt string         `json:"createdAt"`
}

type auditLogListResponse struct {
	Items []auditLogPayload `json:"items"`
	Total int64             `json:"total"`
}

func (h *AdminAuditLogHandlers) list(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if h.audit == nil {
		httpx.WriteError(ctx, w, httpx.NewError("service_unavailable", "audit log service unavailable", http.StatusServiceUnavailable))
		return
	}
	if _, ok := actorFromRequest(w, r); !ok {
		return
	}

	query := r.URL.Query()
	page, err := h.audit.List(ctx, services.AuditLogFilter{
		ActorID:   strings.TrimSpace(query.Get("actorId")),
		Action:    strings.TrimSpace(query.Get("action")),
		TargetRef: strings.TrimSpace(query.Get("targetRef")),
		Pager: domain.Pagination{
			Limit:  boundedIntParam(query.Get("limit"), defaultAuditPageSize, maxAuditPageSize),
			Offset: boundedIntParam(query.Get("offset"), 0, 1<<30),
		},
	})
	if err != nil {
		writeServiceError(ctx, w, err)
		return
	}

	response := auditLogListResponse{
		Items: make([]auditLogPayload, 0, len(page.Items)),
		Total: page.Total,
	}
	for _, entry := range page.Items {
		response.Items = append(response.Items, auditLogPayload{
			ID:        entry.ID,
			ActorID:   entry.ActorID,
			Action:    entry.Action,
			TargetRef: entry.TargetRef,
			Details:   entry.Details,
			CreatedAt: entry.CreatedAt.UTC().Format(time.RFC3339),
		})
	}
	writeJSON(w, http.StatusOK, response)
}

func boundedIntParam(raw string, fallback, ceiling int) int {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return fallback
	}
	value, err := strconv.Atoi(raw)
	if err != nil || value < 0 {
		return fallback
	}
	if value > ceiling {
		return ceiling
	}
	return value
}
