package auth

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"

	"github.com/logmonitor/logmonitor/internal/db/models"
)

const (
	maxTokenAttempts = 5
	maxNameLength    = 100

	whereToken = "token = ?"
	whereID    = "id = ?"
)

// Service is the user directory.
type Service struct {
	db       *gorm.DB
	validate *validator.Validate
}

// NewService creates a new user directory.
func NewService(db *gorm.DB) *Service {
	return &Service{db: db, validate: validator.New()}
}

// Authenticate returns the user owning token.
func (s *Service) Authenticate(token string) (*models.User, error) {
	if token == "" {
		return nil, ErrMissingToken
	}

	var user models.User

	err := s.db.Where(whereToken, token).First(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrInvalidToken
	}

	if err != nil {
		return nil, fmt.Errorf("failed to query user: %w", err)
	}

	return &user, nil
}

// Create creates a new user with a fresh token.
func (s *Service) Create(name, email string) (*models.User, error) {
	name = strings.TrimSpace(name)
	email = strings.TrimSpace(email)

	if name == "" {
		return nil, ErrNameRequired
	}

	if len(name) > maxNameLength {
		return nil, ErrNameTooLong
	}

	if email != "" {
		if err := s.validate.Var(email, "email"); err != nil {
			return nil, ErrInvalidEmail
		}
	}

	for range maxTokenAttempts {
		token, err := NewToken()
		if err != nil {
			return nil, fmt.Errorf("failed to generate token: %w", err)
		}

		var count int64
		if err := s.db.Model(&models.User{}).Where(whereToken, token).Count(&count).Error; err != nil {
			return nil, fmt.Errorf("failed to check token: %w", err)
		}

		if count > 0 {
			continue
		}

		user := models.User{
			Name:      name,
			Email:     email,
			Token:     token,
			CreatedAt: time.Now(),
		}

		if err := s.db.Create(&user).Error; err != nil {
			return nil, fmt.Errorf("failed to create user: %w", err)
		}

		log.Info().Uint64("user_id", user.ID).Str("name", user.Name).Msg("user created")

		return &user, nil
	}

	return nil, ErrTokenExhausted
}

// Delete removes a user and every log event it owns in one transaction.
// It returns the number of log events removed.
func (s *Service) Delete(userID uint64) (int64, error) {
	var removed int64

	err := s.db.Transaction(func(tx *gorm.DB) error {
		logs := tx.Where("user_id = ?", userID).Delete(&models.LogEvent{})
		if logs.Error != nil {
			return fmt.Errorf("failed to delete log events: %w", logs.Error)
		}

		user := tx.Where(whereID, userID).Delete(&models.User{})
		if user.Error != nil {
			return fmt.Errorf("failed to delete user: %w", user.Error)
		}

		if user.RowsAffected == 0 {
			return ErrUserNotFound
		}

		removed = logs.RowsAffected

		return nil
	})
	if err != nil {
		return 0, err
	}

	log.Info().Uint64("user_id", userID).Int64("logs_removed", removed).Msg("user deleted")

	return removed, nil
}

// Get retrieves a user by ID.
func (s *Service) Get(userID uint64) (*models.User, error) {
	var user models.User

	err := s.db.Where(whereID, userID).First(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrUserNotFound
	}

	if err != nil {
		return nil, fmt.Errorf("failed to query user: %w", err)
	}

	return &user, nil
}

// List returns all users sorted by name.
func (s *Service) List() ([]models.User, error) {
	var users []models.User

	if err := s.db.Order("name ASC").Order("id ASC").Find(&users).Error; err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}

	return users, nil
}
