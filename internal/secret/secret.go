// Package secret seals configuration secrets at rest.
//
// Values are encrypted with an age X25519 identity and stored as
// "ENCRYPTED:" followed by the base64 encoded age ciphertext. The identity
// itself never lives next to the values it protects: it is loaded from the
// configuration or from a dedicated key file.
package secret

import (
	"bytes"
	"encoding/base64"
	"io"
	"os"
	"strings"

	"filippo.io/age"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
)

// Prefix tags a stored value as sealed.
const Prefix = "ENCRYPTED:"

// Box seals and opens values with one age identity.
type Box struct {
	identity  *age.X25519Identity
	recipient *age.X25519Recipient
}

// New returns a Box for an age identity string (AGE-SECRET-KEY-1...).
func New(key string) (*Box, error) {
	identity, err := age.ParseX25519Identity(strings.TrimSpace(key))
	if err != nil {
		return nil, errors.Wrap(ErrInvalidKey, err.Error())
	}

	return &Box{identity: identity, recipient: identity.Recipient()}, nil
}

// Load builds a Box from an inline key or, when key is empty, from keyFile.
// Lines starting with '#' in the key file are ignored so files produced by
// age-keygen can be used as is.
func Load(key, keyFile string) (*Box, error) {
	if key != "" {
		return New(key)
	}

	if keyFile == "" {
		return nil, ErrNoKey
	}

	raw, err := os.ReadFile(keyFile)
	if err != nil {
		return nil, errors.Wrap(err, "failed to read secrets key file")
	}

	for _, line := range strings.Split(string(raw), "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		return New(line)
	}

	return nil, errors.Wrap(ErrNoKey, keyFile)
}

// Ephemeral returns a Box with a freshly generated identity. Values sealed
// with it cannot be opened after a restart.
func Ephemeral() (*Box, error) {
	identity, err := age.GenerateX25519Identity()
	if err != nil {
		return nil, errors.Wrap(err, "failed to generate age identity")
	}

	log.Warn().Str("recipient", identity.Recipient().String()).
		Msg("using an ephemeral secrets key, sealed settings will not survive a restart")

	return &Box{identity: identity, recipient: identity.Recipient()}, nil
}

// Generate returns a new identity and its public recipient.
func Generate() (identity, recipient string, err error) {
	id, err := age.GenerateX25519Identity()
	if err != nil {
		return "", "", errors.Wrap(err, "failed to generate age identity")
	}

	return id.String(), id.Recipient().String(), nil
}

// IsSealed reports whether value carries the sealed prefix.
func IsSealed(value string) bool {
	return strings.HasPrefix(value, Prefix)
}

// Seal encrypts plaintext and returns the tagged value.
// An already sealed value is returned unchanged.
func (b *Box) Seal(plaintext string) (string, error) {
	if IsSealed(plaintext) {
		return plaintext, nil
	}

	var buf bytes.Buffer

	w, err := age.Encrypt(&buf, b.recipient)
	if err != nil {
		return "", errors.Wrap(err, "failed to create age encryptor")
	}

	if _, err := io.WriteString(w, plaintext); err != nil {
		return "", errors.Wrap(err, "failed to write plaintext")
	}

	if err := w.Close(); err != nil {
		return "", errors.Wrap(err, "failed to finalize encryption")
	}

	return Prefix + base64.StdEncoding.EncodeToString(buf.Bytes()), nil
}

// Open decrypts a tagged value. Values without the prefix are returned
// unchanged so plaintext rows written before sealing was enabled keep working.
func (b *Box) Open(value string) (string, error) {
	if !IsSealed(value) {
		return value, nil
	}

	raw, err := base64.StdEncoding.DecodeString(strings.TrimPrefix(value, Prefix))
	if err != nil {
		return "", errors.Wrap(ErrCorrupt, err.Error())
	}

	r, err := age.Decrypt(bytes.NewReader(raw), b.identity)
	if err != nil {
		return "", errors.Wrap(ErrCorrupt, err.Error())
	}

	plaintext, err := io.ReadAll(r)
	if err != nil {
		return "", errors.Wrap(ErrCorrupt, err.Error())
	}

	return string(plaintext), nil
}

// Recipient returns the public half of the identity.
func (b *Box) Recipient() string {
	return b.recipient.String()
}
