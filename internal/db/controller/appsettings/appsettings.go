// Package appsettings is the config store: retention and mail settings kept as
// named JSON blobs, with the mail password sealed at rest.
package appsettings

import (
	"encoding/json"
	"sync"

	"github.com/go-playground/validator/v10"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"

	"github.com/logmonitor/logmonitor/internal/db/controller/setting"
	"github.com/logmonitor/logmonitor/internal/secret"
)

const (
	// KeyRetention names the retention blob.
	KeyRetention = "retention"
	// KeyMail names the mail blob.
	KeyMail = "mail"

	// DecryptionError is shown in place of a password that cannot be opened.
	DecryptionError = "[DECRYPTION ERROR]"

	// MaskedPassword replaces a stored password in Stored.
	MaskedPassword = "***"

	DefaultRetentionDays = 7
	DefaultMailPort      = 587
)

// Retention is the purge horizon.
type Retention struct {
	Days int `json:"days" validate:"min=0"`
}

// Mail are the outbound mail settings. Password holds the sealed value
// except in the copies returned by Transport and Display.
type Mail struct {
	Enabled       bool   `json:"enabled"`
	Host          string `json:"host" validate:"omitempty,hostname_rfc1123|ip"`
	Port          int    `json:"port" validate:"omitempty,min=1,max=65535"`
	User          string `json:"user"`
	Password      string `json:"password"`
	From          string `json:"from" validate:"omitempty,email"`
	UseTLS        bool   `json:"use_tls"`
	AllowInsecure bool   `json:"allow_insecure"`
}

// Complete reports whether enough is configured to attempt a delivery.
func (m Mail) Complete() bool {
	return m.Host != "" && m.Port != 0 && m.User != "" && m.Password != ""
}

// Sender returns the from-address, falling back to the login user.
func (m Mail) Sender() string {
	if m.From != "" {
		return m.From
	}

	return m.User
}

// Update groups the blobs written by one Save. Nil members are left untouched.
type Update struct {
	Retention *Retention
	Mail      *Mail
}

// Store reads and writes settings. Writes are serialized and each Save is one transaction.
type Store struct {
	mu       sync.Mutex
	db       *gorm.DB
	box      *secret.Box
	validate *validator.Validate
}

// New returns a Store backed by db that seals secrets with box.
func New(db *gorm.DB, box *secret.Box) (*Store, error) {
	if db == nil {
		return nil, setting.ErrDBNil
	}

	if box == nil {
		return nil, ErrNoSecretBox
	}

	return &Store{db: db, box: box, validate: validator.New()}, nil
}

// Retention returns the stored horizon, or the default when none is stored.
func (s *Store) Retention() (Retention, error) {
	r := Retention{Days: DefaultRetentionDays}

	found, err := load(s.db, KeyRetention, &r)
	if err != nil || !found {
		return r, err
	}

	return r, nil
}

// RetentionDays is a shortcut used by the sweeper.
func (s *Store) RetentionDays() (int, error) {
	r, err := s.Retention()

	return r.Days, err
}

// Mail returns the stored mail settings with the password still sealed.
func (s *Store) Mail() (Mail, error) {
	m := Mail{Port: DefaultMailPort, UseTLS: true}

	_, err := load(s.db, KeyMail, &m)

	return m, err
}

// Transport returns the mail settings with the password opened for a single
// delivery attempt. The result must not be persisted.
func (s *Store) Transport() (Mail, error) {
	m, err := s.Mail()
	if err != nil {
		return m, err
	}

	if m.Password == "" {
		return m, nil
	}

	plain, err := s.box.Open(m.Password)
	if err != nil {
		return m, errors.Wrap(err, "failed to open mail password")
	}

	m.Password = plain

	return m, nil
}

// Display returns the mail settings for the settings page. A password that
// cannot be opened is replaced by DecryptionError.
func (s *Store) Display() (Mail, error) {
	m, err := s.Mail()
	if err != nil {
		return m, err
	}

	if m.Password == "" {
		return m, nil
	}

	plain, err := s.box.Open(m.Password)
	if err != nil {
		log.Warn().Err(err).Str("setting", KeyMail).Msg("mail password cannot be decrypted")

		m.Password = DecryptionError

		return m, nil
	}

	m.Password = plain

	return m, nil
}

// SaveRetention stores a new horizon.
func (s *Store) SaveRetention(r Retention) error {
	return s.Save(Update{Retention: &r})
}

// SaveMail stores new mail settings. See Save for the password rules.
func (s *Store) SaveMail(m Mail) error {
	return s.Save(Update{Mail: &m})
}

// Save validates and writes every non-nil member of u in one transaction.
//
// The mail password is kept as stored when empty, passed through when it is
// already sealed and sealed otherwise.
func (s *Store) Save(u Update) error {
	if u.Retention != nil {
		if err := s.validate.Struct(u.Retention); err != nil {
			return errors.Wrap(ErrInvalidRetention, err.Error())
		}
	}

	if u.Mail != nil {
		if err := s.validate.Struct(u.Mail); err != nil {
			return errors.Wrap(ErrInvalidMail, err.Error())
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	return s.db.Transaction(func(tx *gorm.DB) error {
		if u.Retention != nil {
			if err := store(tx, KeyRetention, u.Retention); err != nil {
				return err
			}
		}

		if u.Mail == nil {
			return nil
		}

		m := *u.Mail

		switch {
		case m.Password == "" || m.Password == DecryptionError:
			previous := Mail{}
			if _, err := load(tx, KeyMail, &previous); err != nil {
				return err
			}

			m.Password = previous.Password
		case !secret.IsSealed(m.Password):
			sealed, err := s.box.Seal(m.Password)
			if err != nil {
				return errors.Wrap(err, "failed to seal mail password")
			}

			m.Password = sealed
		}

		return store(tx, KeyMail, &m)
	})
}

// SeedDefaults writes the given values for every key that is not stored yet.
// Existing rows are never overwritten.
func (s *Store) SeedDefaults(r Retention, m Mail) error {
	if r.Days < 0 {
		return ErrInvalidRetention
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	return s.db.Transaction(func(tx *gorm.DB) error {
		ok, err := setting.Exists(tx, KeyRetention)
		if err != nil {
			return err
		}

		if !ok {
			if err := store(tx, KeyRetention, &r); err != nil {
				return err
			}

			log.Info().Int("days", r.Days).Msg("seeded retention setting")
		}

		ok, err = setting.Exists(tx, KeyMail)
		if err != nil {
			return err
		}

		if ok {
			return nil
		}

		if secret.IsSealed(m.Password) {
			if _, err := s.box.Open(m.Password); err != nil {
				log.Warn().Err(err).Str("setting", KeyMail).
					Msg("configured mail password is sealed with another key, seeding it empty")

				m.Password = ""
			}
		}

		if m.Password != "" {
			sealed, err := s.box.Seal(m.Password)
			if err != nil {
				return errors.Wrap(err, "failed to seal mail password")
			}

			m.Password = sealed
		}

		if err := store(tx, KeyMail, &m); err != nil {
			return err
		}

		log.Info().Bool("enabled", m.Enabled).Str("host", m.Host).Msg("seeded mail setting")

		return nil
	})
}

// Stored returns every stored blob by name, as kept in the database except
// for the mail password, which is masked.
func (s *Store) Stored() (map[string]json.RawMessage, error) {
	rows, err := setting.GetAll(s.db)
	if err != nil {
		return nil, errors.Wrap(err, "failed to list settings")
	}

	out := make(map[string]json.RawMessage, len(rows))

	for _, row := range rows {
		value := json.RawMessage(row.Value)

		if row.Name == KeyMail {
			var m Mail
			if err := json.Unmarshal(row.Value, &m); err != nil {
				return nil, errors.Wrap(ErrCorruptSetting, row.Name+": "+err.Error())
			}

			if m.Password != "" {
				m.Password = MaskedPassword
			}

			if value, err = json.Marshal(&m); err != nil {
				return nil, errors.Wrap(err, "failed to encode setting "+row.Name)
			}
		}

		out[row.Name] = value
	}

	return out, nil
}

// Reset deletes the named blobs, all of them when names is empty, so the
// defaults apply until the next seed or save. Blobs that are not stored are skipped.
func (s *Store) Reset(names ...string) error {
	if len(names) == 0 {
		names = []string{KeyRetention, KeyMail}
	}

	for _, name := range names {
		if name != KeyRetention && name != KeyMail {
			return errors.Wrap(ErrUnknownSetting, name)
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	return s.db.Transaction(func(tx *gorm.DB) error {
		for _, name := range names {
			err := setting.Delete(tx, name)

			switch {
			case err == nil:
				log.Info().Str("setting", name).Msg("setting reset")
			case errors.Is(err, setting.ErrSettingNotFound):
			default:
				return errors.Wrap(err, "failed to reset setting "+name)
			}
		}

		return nil
	})
}

func load(db *gorm.DB, name string, v any) (bool, error) {
	row, err := setting.Get(db, name)
	if err != nil {
		if errors.Is(err, setting.ErrSettingNotFound) {
			return false, nil
		}

		return false, errors.Wrap(err, "failed to load setting "+name)
	}

	if err := json.Unmarshal(row.Value, v); err != nil {
		return false, errors.Wrap(ErrCorruptSetting, name+": "+err.Error())
	}

	return true, nil
}

func store(db *gorm.DB, name string, v any) error {
	raw, err := json.Marshal(v)
	if err != nil {
		return errors.Wrap(err, "failed to encode setting "+name)
	}

	if err := setting.Set(db, name, raw); err != nil {
		return errors.Wrap(err, "failed to store setting "+name)
	}

	return nil
}
