package broadcast

import (
	"time"

	"github.com/logmonitor/logmonitor/internal/db/models"
)

const (
	// EventNewLog names the only event pushed to live subscribers.
	EventNewLog = "new_log"
	// TimeFormat renders timestamps for humans.
	TimeFormat = "2006-01-02 15:04:05"
)

// Event is the payload of a new_log message.
type Event struct {
	Message   string `json:"message"`
	Level     string `json:"level"`
	User      string `json:"user"`
	CreatedAt string `json:"created_at"`
}

type envelope struct {
	Event string `json:"event"`
	Data  Event  `json:"data"`
}

// Format renders t in loc, UTC when loc is nil.
func Format(t time.Time, loc *time.Location) string {
	if loc == nil {
		loc = time.UTC
	}

	return t.In(loc).Format(TimeFormat)
}

// NewEvent builds the live payload of a stored event.
func NewEvent(ev *models.LogEvent, loc *time.Location) Event {
	return Event{
		Message:   ev.Message,
		Level:     ev.Level,
		User:      ev.User.Name,
		CreatedAt: Format(ev.CreatedAt, loc),
	}
}
