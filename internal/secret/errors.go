package secret

import "errors"

var (
	// ErrNoKey is returned when neither a key nor a key file is configured.
	ErrNoKey = errors.New("no secrets key configured")
	// ErrInvalidKey is returned when the configured key is not an age X25519 identity.
	ErrInvalidKey = errors.New("invalid secrets key")
	// ErrCorrupt is returned when a sealed value cannot be decoded or decrypted.
	ErrCorrupt = errors.New("sealed value cannot be opened")
)
