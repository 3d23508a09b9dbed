package model

import (
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
)

// Request status enum constants. Approved and rejected are terminal.
const (
	StatusSubmitted = "submitted" // created, no rule attached yet
	StatusPending   = "pending"   // rule attached, collecting approvals
	StatusApproved  = "approved"
	StatusRejected  = "rejected"
)

// Request is an expense request raised by a user. ApprovedBy is a set
// (membership only, insertion order irrelevant); RejectedBy holds at most
// one user id since a single rejection is terminal.
type Request struct {
	ID          string                      `gorm:"type:varchar(36);primaryKey" json:"request_id"`
	CompanyID   string                      `gorm:"type:varchar(36);not null;index" json:"company_id"`
	RequestorID string                      `gorm:"type:varchar(36);not null;index" json:"requestor_id"`
	Requestor   *User                       `gorm:"foreignKey:RequestorID" json:"requestor,omitempty"`
	Description string                      `gorm:"type:text;not null" json:"description"`
	Category    string                      `gorm:"type:varchar(100);not null" json:"category"`
	ExpenseDate time.Time                   `gorm:"not null" json:"expense_date"`
	PaidBy      string                      `gorm:"type:varchar(100)" json:"paid_by"`
	Currency    string                      `gorm:"type:varchar(10);not null" json:"currency"`
	Amount      decimal.Decimal             `gorm:"type:decimal(18,4);not null" json:"amount"`
	Remarks     string                      `gorm:"type:text" json:"remarks"`
	Status      string                      `gorm:"type:varchar(20);not null;default:'submitted';index" json:"status"`
	ApprovedBy  datatypes.JSONSlice[string] `gorm:"type:jsonb" json:"approved_by"`
	RejectedBy  *string                     `gorm:"type:varchar(36)" json:"rejected_by"`
	CreatedAt   time.Time                   `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt   time.Time                   `gorm:"autoUpdateTime" json:"updated_at"`
}

// IsTerminal reports whether the request reached a final status.
func (r *Request) IsTerminal() bool {
	return r.Status == StatusApproved || r.Status == StatusRejected
}
