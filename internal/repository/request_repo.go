package repository

import (
	"context"

	"expenseflow/internal/model"

	"gorm.io/gorm"
)

// RequestRepository serves read paths for expense requests. Status-changing
// writes go through the request service's own transactions so the row lock,
// the set update and the audit entry commit together.
type RequestRepository interface {
	Create(ctx context.Context, request *model.Request) error
	GetByIDInCompany(ctx context.Context, id, companyID string) (*model.Request, error)
	ListByRequestor(ctx context.Context, requestorID string) ([]model.Request, error)
	ListByCompany(ctx context.Context, companyID string, offset, limit int) ([]model.Request, int64, error)
}

type requestRepository struct {
	db *gorm.DB
}

func NewRequestRepository(db *gorm.DB) RequestRepository {
	return &requestRepository{db: db}
}

func (r *requestRepository) Create(ctx context.Context, request *model.Request) error {
	return dbFrom(ctx, r.db).Create(request).Error
}

func (r *requestRepository) GetByIDInCompany(ctx context.Context, id, companyID string) (*model.Request, error) {
	var request model.Request
	if err := dbFrom(ctx, r.db).
		Preload("Requestor").
		First(&request, "id = ? AND company_id = ?", id, companyID).Error; err != nil {
		return nil, err
	}
	return &request, nil
}

func (r *requestRepository) ListByRequestor(ctx context.Context, requestorID string) ([]model.Request, error) {
	var requests []model.Request
	if err := dbFrom(ctx, r.db).
		Where("requestor_id = ?", requestorID).
		Order("created_at DESC").
		Find(&requests).Error; err != nil {
		return nil, err
	}
	return requests, nil
}

func (r *requestRepository) ListByCompany(ctx context.Context, companyID string, offset, limit int) ([]model.Request, int64, error) {
	var total int64
	if err := dbFrom(ctx, r.db).Model(&model.Request{}).
		Where("company_id = ?", companyID).
		Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var requests []model.Request
	if err := dbFrom(ctx, r.db).
		Preload("Requestor").
		Where("company_id = ?", companyID).
		Order("created_at DESC").
		Offset(offset).
		Limit(limit).
		Find(&requests).Error; err != nil {
		return nil, 0, err
	}

	return requests, total, nil
}
