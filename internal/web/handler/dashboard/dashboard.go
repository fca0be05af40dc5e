// Package dashboard renders the log listing and serves it as JSON.
package dashboard

import (
	"errors"
	"strconv"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog/log"

	"github.com/logmonitor/logmonitor/internal/auth"
	"github.com/logmonitor/logmonitor/internal/broadcast"
	"github.com/logmonitor/logmonitor/internal/db/controller/logevent"
	"github.com/logmonitor/logmonitor/internal/db/models"
	"github.com/logmonitor/logmonitor/internal/web/handler"
)

const (
	// Path is the dashboard page.
	Path = handler.RootPath

	// UserLogsPath shows one user's events.
	UserLogsPath = handler.RootPath + "logs/:user_id"

	// APIPath serves the listing as JSON.
	APIPath = handler.RootPath + "api/logs"

	// TemplateName is the name of the dashboard template.
	TemplateName = "dashboard/index"

	// TemplateUserLogs is the name of the per user template.
	TemplateUserLogs = "dashboard/user_logs"
)

// Row is one event prepared for display.
type Row struct {
	ID        uint64 `json:"id"`
	Level     string `json:"level"`
	Message   string `json:"message"`
	Context   string `json:"context,omitempty"`
	User      string `json:"user"`
	UserID    uint64 `json:"user_id"`
	CreatedAt string `json:"created_at"`
}

// Service is the dashboard handler service.
type Service struct {
	handler.Service
	deps *handler.Deps
}

// Handler is the dashboard handler.
var Handler = Service{}

// Init initializes the dashboard handler.
func (s *Service) Init(app *fiber.App, deps *handler.Deps) error {
	if app == nil || deps == nil || deps.Users == nil || deps.Logs == nil {
		return handler.ErrNilDeps
	}

	s.deps = deps

	app.Get(Path, s.Get)
	app.Get(UserLogsPath, s.UserLogs)
	app.Get(APIPath, s.API)

	return nil
}

// Get renders the newest events, optionally for one user.
func (s *Service) Get(c *fiber.Ctx) error {
	userID := queryUserID(c)

	users, err := s.deps.Users.List()
	if err != nil {
		log.Error().Err(err).Msg("failed to list users")

		return c.Status(fiber.StatusInternalServerError).SendString("Failed to load users")
	}

	events, err := s.deps.Logs.Recent(logevent.DefaultLimit, userID)
	if err != nil {
		log.Error().Err(err).Uint64("user_id", userID).Msg("failed to load logs")

		return c.Status(fiber.StatusInternalServerError).SendString("Failed to load logs")
	}

	var selectedName string

	for _, u := range users {
		if u.ID == userID {
			selectedName = u.Name
		}
	}

	return c.Render(TemplateName, fiber.Map{
		"Title":            s.title(),
		"Logs":             s.rows(events),
		"Users":            users,
		"SelectedUserID":   userID,
		"SelectedUserName": selectedName,
	}, handler.BaseLayout)
}

// UserLogs renders one user's newest events.
func (s *Service) UserLogs(c *fiber.Ctx) error {
	id, err := strconv.ParseUint(c.Params("user_id"), 10, 64)
	if err != nil {
		return c.Status(fiber.StatusNotFound).SendString("User not found")
	}

	user, err := s.deps.Users.Get(id)
	if err != nil {
		if errors.Is(err, auth.ErrUserNotFound) {
			return c.Status(fiber.StatusNotFound).SendString("User not found")
		}

		log.Error().Err(err).Uint64("user_id", id).Msg("failed to load user")

		return c.Status(fiber.StatusInternalServerError).SendString("Failed to load user")
	}

	events, err := s.deps.Logs.Recent(logevent.DefaultLimit, user.ID)
	if err != nil {
		log.Error().Err(err).Uint64("user_id", id).Msg("failed to load logs")

		return c.Status(fiber.StatusInternalServerError).SendString("Failed to load logs")
	}

	return c.Render(TemplateUserLogs, fiber.Map{
		"Title": s.title(),
		"User":  user,
		"Logs":  s.rows(events),
		"Flash": c.Query("removed"),
	}, handler.BaseLayout)
}

// API returns the newest events as JSON. limit defaults to 100 and is capped at 1000.
func (s *Service) API(c *fiber.Ctx) error {
	userID := queryUserID(c)
	limit := c.QueryInt("limit", logevent.DefaultLimit)

	events, err := s.deps.Logs.Recent(limit, userID)
	if err != nil {
		log.Error().Err(err).Uint64("user_id", userID).Msg("failed to load logs")

		return handler.JSONError(c, fiber.StatusInternalServerError, "Failed to load logs")
	}

	return c.JSON(fiber.Map{"logs": s.rows(events)})
}

func (s *Service) rows(events []models.LogEvent) []Row {
	rows := make([]Row, 0, len(events))

	for i := range events {
		ev := &events[i]
		rows = append(rows, Row{
			ID:        ev.ID,
			Level:     ev.Level,
			Message:   ev.Message,
			Context:   string(ev.Context),
			User:      ev.User.Name,
			UserID:    ev.UserID,
			CreatedAt: broadcast.Format(ev.CreatedAt, s.deps.Location),
		})
	}

	return rows
}

func (s *Service) title() string {
	if s.deps.Cfg != nil && s.deps.Cfg.Title != "" {
		return s.deps.Cfg.Title
	}

	return "Log Monitor"
}

func queryUserID(c *fiber.Ctx) uint64 {
	id := c.QueryInt("user_id", 0)
	if id < 0 {
		return 0
	}

	return uint64(id)
}
