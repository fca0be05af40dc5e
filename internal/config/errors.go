package config

import (
	"errors"
)

var (
	// ErrWebServerPortCanNotBeZero error if config webserver listening port is 0.
	ErrWebServerPortCanNotBeZero = errors.New("config webserver.port listening port can not be 0")

	// ErrNegativeRetention error if the configured retention horizon is below zero.
	ErrNegativeRetention = errors.New("config retention.days can not be negative")

	// ErrUnknownDBEngine error if db.engine is not one of the supported gorm drivers.
	ErrUnknownDBEngine = errors.New("config db.engine must be one of sqlite, mysql, postgres")

	// ErrSecretsKeyMissing error if no age identity is configured outside dev mode.
	ErrSecretsKeyMissing = errors.New("config secrets.key or secrets.keyfile is required outside dev mode")

	// ErrUnknownTimezone error if display.timezone is not a known IANA zone.
	ErrUnknownTimezone = errors.New("config display.timezone is not a known time zone")
)
