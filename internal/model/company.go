package model

import (
	"time"
)

// Company is the tenancy root. Every User, Request and Rule carries its id,
// and all cross-entity lookups must filter by it.
type Company struct {
	ID                string    `gorm:"type:varchar(36);primaryKey" json:"company_id"`
	Name              string    `gorm:"type:varchar(255);uniqueIndex;not null" json:"company_name"`
	Country           string    `gorm:"type:varchar(100);not null" json:"country"`
	Currency          string    `gorm:"type:varchar(10);not null" json:"currency"` // resolved from country at signup, immutable
	AdminEmail        string    `gorm:"type:varchar(255);uniqueIndex;not null" json:"admin_email"`
	AdminPasswordHash string    `gorm:"type:varchar(255);not null" json:"-"`
	CreatedAt         time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt         time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}
