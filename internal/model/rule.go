package model

import (
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
)

// Rule is the approval rule bound 1:1 to a request, immutable once created.
// Approvers keeps the order given at creation; for sequential rules that
// order is the required approval order. CompulsoryApprovers must be a
// subset of Approvers.
type Rule struct {
	ID                  string                      `gorm:"type:varchar(36);primaryKey" json:"rule_id"`
	RequestID           string                      `gorm:"type:varchar(36);uniqueIndex;not null" json:"request_id"`
	CompanyID           string                      `gorm:"type:varchar(36);not null;index" json:"company_id"`
	Description         string                      `gorm:"type:text" json:"description"`
	Approvers           datatypes.JSONSlice[string] `gorm:"type:jsonb;not null" json:"approvers"`
	CompulsoryApprovers datatypes.JSONSlice[string] `gorm:"type:jsonb" json:"compulsory_approvers"`
	Sequential          bool                        `gorm:"not null;default:false" json:"sequential"`
	PercentageRequired  decimal.Decimal             `gorm:"type:decimal(5,2);not null" json:"percentage_required"` // in (0, 100]
	CreatedAt           time.Time                   `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt           time.Time                   `gorm:"autoUpdateTime" json:"updated_at"`
}
