package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/oklog/ulid/v2"

	domain "github.com/footprint-shop/api/internal/domain"
	"github.com/footprint-shop/api/internal/repositories"
)

const auditIDPrefix = "aud_"

type auditLogService struct {
	repo  repositories.AuditLogRepository
	clock func() time.Time
	newID func() string
	log   LogFunc
}

// AuditLogServiceDeps bundles constructor inputs for the audit writer.
type AuditLogServiceDeps struct {
	Repository  repositories.AuditLogRepository
	Clock       func() time.Time
	IDGenerator func() string
	Logger      LogFunc
}

// NewAuditLogService creates an audit log writer backed by the supplied
// repository.
func NewAuditLogService(deps AuditLogServiceDeps) (AuditLogService, error) {
	if deps.Repository == nil {
		return nil, fmt.Errorf("audit log service: repository is required")
	}

	clock := deps.Clock
	if clock == nil {
		clock = time.Now
	}
	newID := deps.IDGenerator
	if newID == nil {
		newID = func() string { return auditIDPrefix + ulid.Make().String() }
	}
	log := deps.Logger
	if log == nil {
		log = noopLog
	}

	return &auditLogService{
		repo:  deps.Repository,
		clock: func() time.Time { return clock().UTC() },
		newID: newID,
		log:   log,
	}, nil
}

// Record persists an audit entry. Repository failures are logged but do
// not bubble up to callers, so the primary mutation never fails over its
// audit trail.
func (s *auditLogService) Record(ctx context.Context, record AuditRecord) {
	occurred := record.OccurredAt
	if occurred.IsZero() {
		occurred = s.clock()
	} else {
		occurred = occurred.UTC()
	}

	entry := domain.AuditLogEntry{
		ID:        s.newID(),
		ActorID:   strings.TrimSpace(record.ActorID),
		Action:    strings.TrimSpace(record.Action),
		TargetRef: strings.TrimSpace(record.TargetRef),
		Details:   record.Details,
		CreatedAt: occurred,
	}
	if err := s.repo.Append(ctx, entry); err != nil {
		s.log(ctx, "audit.append_failed", map[string]any{
			"action":    entry.Action,
			"targetRef": entry.TargetRef,
			"error":     err.Error(),
		})
	}
}

// List delegates to the repository to retrieve paginated audit entries.
func (s *auditLogService) List(ctx context.Context, filter AuditLogFilter) (domain.Page[domain.AuditLogEntry], error) {
	return s.repo.List(ctx, repositories.AuditLogFilter{
		ActorID:   strings.TrimSpace(filter.ActorID),
		Action:    strings.TrimSpace(filter.Action),
		TargetRef: strings.TrimSpace(filter.TargetRef),
		Pager:     filter.Pager,
	})
}
