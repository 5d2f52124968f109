package postgres

import (
	"context"

	"gorm.io/gorm"

	domain "github.com/footprint-shop/api/internal/domain"
	"github.com/footprint-shop/api/internal/repositories"
)

type auditLogRepository struct {
	db *gorm.DB
}

func (r *auditLogRepository) Append(ctx context.Context, entry domain.AuditLogEntry) error {
	row, err := toAuditLogRow(entry)
	if err != nil {
		return wrapError("audit_logs.append", err)
	}
	if err := handle(ctx, r.db).Create(row).Error; err != nil {
		return wrapError("audit_logs.append", err)
	}
	return nil
}

func (r *auditLogRepository) List(ctx context.Context, filter repositories.AuditLogFilter) (domain.Page[domain.AuditLogEntry], error) {
	query := handle(ctx, r.db).Model(&auditLogRow{})
	if filter.ActorID != "" {
		query = query.Where("actor_id = ?", filter.ActorID)
	}
	if filter.Action != "" {
		query = query.Where("action = ?", filter.Action)
	}
	if filter.TargetRef != "" {
		query = query.Where("target_ref = ?", filter.TargetRef)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return domain.Page[domain.AuditLogEntry]{}, wrapError("audit_logs.list", err)
	}

	query = query.Order("created_at DESC")
	if filter.Pager.Limit > 0 {
		query = query.Limit(filter.Pager.Limit)
	}
	if filter.Pager.Offset > 0 {
		query = query.Offset(filter.Pager.Offset)
	}

	var rows []auditLogRow
	if err := query.Find(&rows).Error; err != nil {
		return domain.Page[domain.AuditLogEntry]{}, wrapError("audit_logs.list", err)
	}
	items := make([]domain.AuditLogEntry, 0, len(rows))
	for _, row := range rows {
		entry, err := toDomainAuditLog(row)
		if err != nil {
			return domain.Page[domain.AuditLogEntry]{}, wrapError("audit_logs.list", err)
		}
		items = append(items, entry)
	}
	return domain.Page[domain.AuditLogEntry]{Items: items, Total: total}, nil
}
