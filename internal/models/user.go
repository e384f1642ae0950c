package models

import (
	"time"

	"github.com/google/uuid"
)

// User is a self-registered account. IPHash carries a one-way digest of the
// registering client IP; its unique index is what enforces the one-account-per-IP
// rule, so conflicts surface on insert instead of through a separate existence
// query.
type User struct {
	ID              uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	Username        string    `gorm:"size:64;not null;uniqueIndex" json:"username"`
	PasswordHash    string    `gorm:"not null" json:"-"`
	IPHash          string    `gorm:"size:64;not null;uniqueIndex" json:"-"`
	WhitelistedNick *string   `gorm:"size:64" json:"whitelistedNick"`
	IsBanned        bool      `gorm:"default:false" json:"isBanned"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}
