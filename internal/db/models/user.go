package models

import (
	"strings"
	"time"
)

// User is a tenant that pushes log events with its bearer token.
type User struct {
	// ID is the unique identifier for the user.
	ID uint64 `gorm:"primaryKey" json:"id"`
	// Name is the display name shown on the dashboard and in live events.
	Name string `gorm:"size:100;not null;index" json:"name"`
	// Token is the opaque bearer credential. Generated server side, never changed.
	Token string `gorm:"size:64;not null;uniqueIndex" json:"token"`
	// Email receives forwarded events when mail forwarding is enabled. Empty means none.
	Email string `gorm:"size:120" json:"email,omitempty"`
	// CreatedAt is the timestamp when the user was created (managed by GORM).
	CreatedAt time.Time `json:"created_at"`
}

// TableName specifies the database table name for the User model.
func (User) TableName() string {
	return "users"
}

// HasEmail reports whether the user can receive forwarded events.
func (u *User) HasEmail() bool {
	return strings.TrimSpace(u.Email) != ""
}
