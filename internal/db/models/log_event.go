package models

import (
	"time"

	"gorm.io/datatypes"
)

// LogEvent is one ingested log line. Immutable after creation.
// Rows are only removed in bulk: per user, globally or by age.
type LogEvent struct {
	ID uint64 `gorm:"primaryKey" json:"id"`
	// Level is a lower-cased free-form tag, "info" when the client sent none.
	Level string `gorm:"size:32;not null;index" json:"level"`
	// Message is never empty, blank input is stored as a placeholder.
	Message string `gorm:"type:text;not null" json:"message"`
	// Context is the optional structured payload sent by the client.
	Context datatypes.JSON `json:"context,omitempty"`
	// CreatedAt is assigned by the service at write time, stored in UTC.
	CreatedAt time.Time `gorm:"not null;index;index:idx_log_events_user_created,priority:2" json:"created_at"`
	// UserID is the owning user.
	UserID uint64 `gorm:"not null;index:idx_log_events_user_created,priority:1" json:"user_id"`
	// User is the owner. Deleting the user removes its events (CASCADE).
	User User `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE" json:"-"`
}

// TableName specifies the database table name for the LogEvent model.
func (LogEvent) TableName() string {
	return "log_events"
}
