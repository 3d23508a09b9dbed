package repository

import (
	"context"

	"expenseflow/internal/model"

	"gorm.io/gorm"
)

// RuleRepository serves read paths for approval rules. Creation happens in
// the rule-attachment transaction owned by the request service.
type RuleRepository interface {
	GetByRequestID(ctx context.Context, requestID string) (*model.Rule, error)
}

type ruleRepository struct {
	db *gorm.DB
}

func NewRuleRepository(db *gorm.DB) RuleRepository {
	return &ruleRepository{db: db}
}

func (r *ruleRepository) GetByRequestID(ctx context.Context, requestID string) (*model.Rule, error) {
	var rule model.Rule
	if err := dbFrom(ctx, r.db).First(&rule, "request_id = ?", requestID).Error; err != nil {
		return nil, err
	}
	return &rule, nil
}
