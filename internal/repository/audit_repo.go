package repository

import (
	"context"

	"expenseflow/internal/model"

	"gorm.io/gorm"
)

// AuditLogRepository defines data access for audit log entries
type AuditLogRepository interface {
	Create(ctx context.Context, entry *model.AuditLog) error
	ListByCompany(ctx context.Context, companyID string, limit int) ([]model.AuditLog, error)
}

type auditLogRepository struct {
	db *gorm.DB
}

func NewAuditLogRepository(db *gorm.DB) AuditLogRepository {
	return &auditLogRepository{db: db}
}

func (r *auditLogRepository) Create(ctx context.Context, entry *model.AuditLog) error {
	return dbFrom(ctx, r.db).Create(entry).Error
}

func (r *auditLogRepository) ListByCompany(ctx context.Context, companyID string, limit int) ([]model.AuditLog, error) {
	if limit <= 0 {
		limit = 50
	}
	var entries []model.AuditLog
	if err := dbFrom(ctx, r.db).
		Where("company_id = ?", companyID).
		Order("created_at DESC").
		Limit(limit).
		Find(&entries).Error; err != nil {
		return nil, err
	}
	return entries, nil
}
