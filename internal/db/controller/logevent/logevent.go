// Package logevent is the log store: append-only persistence of log events
// with newest-first retrieval, bulk deletion and age based purging.
package logevent

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/logmonitor/logmonitor/internal/db/models"
)

const (
	// EmptyMessage replaces a message that is blank after trimming.
	EmptyMessage = "Empty log"
	// DefaultLevel is used when the client sends no level.
	DefaultLevel = "info"
	// DefaultLimit caps Recent when the caller passes no limit.
	DefaultLimit = 100
	// MaxLimit is the largest page Recent returns.
	MaxLimit = 1000

	day = 24 * time.Hour
)

// Store persists log events.
type Store struct {
	db  *gorm.DB
	now func() time.Time
}

// New returns a Store using the wall clock.
func New(db *gorm.DB) *Store {
	return &Store{db: db, now: time.Now}
}

// WithClock replaces the clock, used by tests to age events.
func (s *Store) WithClock(now func() time.Time) *Store {
	return &Store{db: s.db, now: now}
}

// Normalize trims the message and lower-cases the level, applying the defaults.
func Normalize(level, message string) (string, string) {
	message = strings.TrimSpace(message)
	if message == "" {
		message = EmptyMessage
	}

	level = strings.ToLower(strings.TrimSpace(level))
	if level == "" {
		level = DefaultLevel
	}

	return level, message
}

// Append stores one event owned by user. The timestamp is assigned here.
func (s *Store) Append(user *models.User, level, message string, context json.RawMessage) (*models.LogEvent, error) {
	if user == nil || user.ID == 0 {
		return nil, ErrNoUser
	}

	level, message = Normalize(level, message)

	event := models.LogEvent{
		Level:     level,
		Message:   message,
		CreatedAt: s.now().UTC(),
		UserID:    user.ID,
	}

	if len(context) > 0 && string(context) != "null" {
		event.Context = datatypes.JSON(context)
	}

	if err := s.db.Omit(clause.Associations).Create(&event).Error; err != nil {
		return nil, fmt.Errorf("%w: %w", ErrPersistence, err)
	}

	event.User = *user

	return &event, nil
}

// Recent returns up to limit events, newest first. A userID of 0 selects every user.
func (s *Store) Recent(limit int, userID uint64) ([]models.LogEvent, error) {
	switch {
	case limit <= 0:
		limit = DefaultLimit
	case limit > MaxLimit:
		limit = MaxLimit
	}

	query := s.db.Preload("User").Order("created_at DESC").Order("id DESC").Limit(limit)
	if userID != 0 {
		query = query.Where("user_id = ?", userID)
	}

	var events []models.LogEvent
	if err := query.Find(&events).Error; err != nil {
		return nil, fmt.Errorf("%w: %w", ErrPersistence, err)
	}

	return events, nil
}

// Count returns the number of stored events, optionally for one user.
func (s *Store) Count(userID uint64) (int64, error) {
	query := s.db.Model(&models.LogEvent{})
	if userID != 0 {
		query = query.Where("user_id = ?", userID)
	}

	var n int64
	if err := query.Count(&n).Error; err != nil {
		return 0, fmt.Errorf("%w: %w", ErrPersistence, err)
	}

	return n, nil
}

// DeleteForUser removes every event of one user.
func (s *Store) DeleteForUser(userID uint64) (int64, error) {
	result := s.db.Where("user_id = ?", userID).Delete(&models.LogEvent{})
	if result.Error != nil {
		return 0, fmt.Errorf("%w: %w", ErrPersistence, result.Error)
	}

	return result.RowsAffected, nil
}

// DeleteAll removes every event.
func (s *Store) DeleteAll() (int64, error) {
	result := s.db.Session(&gorm.Session{AllowGlobalUpdate: true}).Delete(&models.LogEvent{})
	if result.Error != nil {
		return 0, fmt.Errorf("%w: %w", ErrPersistence, result.Error)
	}

	return result.RowsAffected, nil
}

// Cutoff returns the instant before which events are older than days.
func (s *Store) Cutoff(days int) time.Time {
	return s.now().UTC().Add(-time.Duration(days) * day)
}

// PurgeOlderThan removes the events created before now minus days.
func (s *Store) PurgeOlderThan(days int) (int64, error) {
	if days < 0 {
		return 0, ErrInvalidHorizon
	}

	result := s.db.Where("created_at < ?", s.Cutoff(days)).Delete(&models.LogEvent{})
	if result.Error != nil {
		return 0, fmt.Errorf("%w: %w", ErrPersistence, result.Error)
	}

	return result.RowsAffected, nil
}
