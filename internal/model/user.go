package model

import (
	"time"
)

// Role enum constants
const (
	RoleAdmin    = "admin"
	RoleManager  = "manager"
	RoleEmployee = "employee"
)

// Principal kinds carried in token claims
const (
	PrincipalAdmin = "admin"
	PrincipalUser  = "user"
)

// User belongs to exactly one company. ManagerID is a weak reference to
// another user in the same company and must not form a cycle.
type User struct {
	ID           string    `gorm:"type:varchar(36);primaryKey" json:"user_id"`
	CompanyID    string    `gorm:"type:varchar(36);not null;index" json:"company_id"`
	Name         string    `gorm:"type:varchar(255);not null" json:"name"`
	Email        string    `gorm:"type:varchar(255);uniqueIndex;not null" json:"email"`
	Role         string    `gorm:"type:varchar(20);not null" json:"role"` // admin, manager, employee
	ManagerID    *string   `gorm:"type:varchar(36);index" json:"manager_id"`
	Manager      *User     `gorm:"foreignKey:ManagerID" json:"manager,omitempty"`
	PasswordHash string    `gorm:"type:varchar(255);not null" json:"-"`
	CreatedAt    time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt    time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

// RefreshToken stores long-lived tokens so a refresh can be revoked by
// deleting the row. SubjectID is a user id or a company id depending on Kind.
type RefreshToken struct {
	ID        string    `gorm:"type:varchar(36);primaryKey" json:"id"`
	SubjectID string    `gorm:"type:varchar(36);not null;index" json:"subject_id"`
	Kind      string    `gorm:"type:varchar(10);not null" json:"kind"` // admin or user
	Token     string    `gorm:"type:varchar(512);uniqueIndex;not null" json:"token"`
	ExpiresAt time.Time `gorm:"not null" json:"expires_at"`
	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
}
