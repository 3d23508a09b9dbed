package model

import (
	"time"
)

const (
	ActionCompanySignup  = "COMPANY_SIGNUP"
	ActionCreateUser     = "CREATE_USER"
	ActionChangeRole     = "CHANGE_ROLE"
	ActionChangeManager  = "CHANGE_MANAGER"
	ActionResetPassword  = "RESET_PASSWORD"
	ActionCreateRequest  = "CREATE_REQUEST"
	ActionAttachRule     = "ATTACH_RULE"
	ActionApproveRequest = "APPROVE_REQUEST"
	ActionRejectRequest  = "REJECT_REQUEST"
)

// AuditLog tracks who did what and when for every mutating operation.
// Rows are written in the same transaction as the change they record.
type AuditLog struct {
	ID        string    `gorm:"type:varchar(36);primaryKey" json:"id"`
	CompanyID string    `gorm:"type:varchar(36);not null;index" json:"company_id"`
	ActorID   string    `gorm:"type:varchar(36);index" json:"actor_id"` // user id or company id for admin actions
	Action    string    `gorm:"type:varchar(50);not null;index" json:"action"`
	EntityID  string    `gorm:"type:varchar(50);index" json:"entity_id"`
	Details   string    `gorm:"type:jsonb" json:"details"`
	CreatedAt time.Time `gorm:"index;autoCreateTime" json:"created_at"`
}
