package service

import (
	"context"
	"errors"
	"fmt"

	"expenseflow/internal/model"
	"expenseflow/pkg/apperr"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// StatusTotal aggregates request amounts for one status.
type StatusTotal struct {
	Count int64           `json:"count"`
	Total decimal.Decimal `json:"total_amount"`
}

// ExpenseSummary groups request amounts by status.
type ExpenseSummary struct {
	Submitted StatusTotal `json:"submitted"`
	Pending   StatusTotal `json:"pending"`
	Approved  StatusTotal `json:"approved"`
	Rejected  StatusTotal `json:"rejected"`
}

// SummaryService aggregates expense amounts: company-wide for admins,
// direct reports only for managers (single level, not transitive).
type SummaryService interface {
	CompanyExpenses(ctx context.Context, companyID string) (ExpenseSummary, error)
	TeamExpenses(ctx context.Context, managerID string) (ExpenseSummary, error)
}

type summaryService struct {
	db *gorm.DB
}

func NewSummaryService(db *gorm.DB) SummaryService {
	return &summaryService{db: db}
}

type statusRow struct {
	Status string
	Count  int64
	Total  decimal.Decimal
}

func (s *summaryService) CompanyExpenses(ctx context.Context, companyID string) (ExpenseSummary, error) {
	var rows []statusRow
	err := s.db.WithContext(ctx).Model(&model.Request{}).
		Select("status, COUNT(*) as count, COALESCE(SUM(amount), 0) as total").
		Where("company_id = ?", companyID).
		Group("status").
		Scan(&rows).Error
	if err != nil {
		return ExpenseSummary{}, fmt.Errorf("aggregating company expenses: %w", err)
	}
	return toSummary(rows), nil
}

func (s *summaryService) TeamExpenses(ctx context.Context, managerID string) (ExpenseSummary, error) {
	var manager model.User
	if err := s.db.WithContext(ctx).First(&manager, "id = ?", managerID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ExpenseSummary{}, apperr.NotFound("user not found")
		}
		return ExpenseSummary{}, fmt.Errorf("loading manager: %w", err)
	}
	if manager.Role != model.RoleManager {
		return ExpenseSummary{}, apperr.Forbidden("only managers can view team expenses")
	}

	reports := s.db.Model(&model.User{}).
		Select("id").
		Where("manager_id = ? AND company_id = ?", managerID, manager.CompanyID)

	var rows []statusRow
	err := s.db.WithContext(ctx).Model(&model.Request{}).
		Select("status, COUNT(*) as count, COALESCE(SUM(amount), 0) as total").
		Where("requestor_id IN (?)", reports).
		Group("status").
		Scan(&rows).Error
	if err != nil {
		return ExpenseSummary{}, fmt.Errorf("aggregating team expenses: %w", err)
	}
	return toSummary(rows), nil
}

func toSummary(rows []statusRow) ExpenseSummary {
	var summary ExpenseSummary
	for _, row := range rows {
		total := StatusTotal{Count: row.Count, Total: row.Total}
		switch row.Status {
		case model.StatusSubmitted:
			summary.Submitted = total
		case model.StatusPending:
			summary.Pending = total
		case model.StatusApproved:
			summary.Approved = total
		case model.StatusRejected:
			summary.Rejected = total
		}
	}
	return summary
}
