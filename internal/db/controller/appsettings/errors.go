package appsettings

import "errors"

var (
	// ErrInvalidRetention is returned when a negative retention horizon is submitted.
	ErrInvalidRetention = errors.New("retention days must be zero or positive")
	// ErrInvalidMail is returned when mail settings fail validation.
	ErrInvalidMail = errors.New("invalid mail settings")
	// ErrNoSecretBox is returned when a store is built without a secret box.
	ErrNoSecretBox = errors.New("secret box is nil")
	// ErrCorruptSetting is returned when a stored blob cannot be decoded.
	ErrCorruptSetting = errors.New("stored setting cannot be decoded")
	// ErrUnknownSetting is returned by Reset for names other than KeyRetention and KeyMail.
	ErrUnknownSetting = errors.New("unknown setting")
)
