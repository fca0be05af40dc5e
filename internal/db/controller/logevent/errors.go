package logevent

import "errors"

var (
	// ErrPersistence wraps every storage failure of the log store.
	ErrPersistence = errors.New("log persistence failed")
	// ErrInvalidHorizon is returned for a negative purge horizon.
	ErrInvalidHorizon = errors.New("horizon days must be zero or positive")
	// ErrNoUser is returned when appending without an owning user.
	ErrNoUser = errors.New("log event needs an owning user")
)
