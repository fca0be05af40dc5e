// Package ingest receives log events from token authenticated clients.
package ingest

import (
	"bytes"
	"encoding/json"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog/log"

	"github.com/logmonitor/logmonitor/internal/auth"
	"github.com/logmonitor/logmonitor/internal/broadcast"
	"github.com/logmonitor/logmonitor/internal/web/handler"
)

const (
	// Path is the ingestion endpoint.
	Path = handler.RootPath + "log"
)

// Payload is the request body of POST /log.
type Payload struct {
	Message string          `json:"message"`
	Level   string          `json:"level"`
	Context json.RawMessage `json:"context"`
}

// Service is the ingestion handler service.
type Service struct {
	handler.Service
	deps *handler.Deps
}

// Handler is the ingestion handler.
var Handler = Service{}

// Init registers POST /log behind the bearer token middleware.
func (s *Service) Init(app *fiber.App, deps *handler.Deps) error {
	if app == nil || deps == nil || deps.Users == nil || deps.Logs == nil {
		return handler.ErrNilDeps
	}

	s.deps = deps

	app.Post(Path, auth.RequireToken(deps.Users), s.Post)

	return nil
}

// Post stores one event, then pushes it to live subscribers and queues the
// notification. Only the store decides the response.
func (s *Service) Post(c *fiber.Ctx) error {
	user, ok := auth.UserFromContext(c)
	if !ok {
		return handler.JSONError(c, fiber.StatusUnauthorized, "Missing token")
	}

	var p Payload

	body := bytes.TrimSpace(c.Body())
	if len(body) > 0 {
		if err := json.Unmarshal(body, &p); err != nil {
			log.Warn().Err(err).Uint64("user_id", user.ID).Msg("rejected log with invalid json")

			return handler.JSONError(c, fiber.StatusBadRequest, "Invalid JSON")
		}
	}

	if ctx := bytes.TrimSpace(p.Context); len(ctx) > 0 && !bytes.Equal(ctx, []byte("null")) && ctx[0] != '{' {
		return handler.JSONError(c, fiber.StatusBadRequest, "Context must be an object")
	}

	event, err := s.deps.Logs.Append(user, p.Level, p.Message, p.Context)
	if err != nil {
		log.Error().Err(err).Uint64("user_id", user.ID).Str("level", p.Level).Str("category", "persistence").
			Msg("failed to store log")

		return handler.JSONError(c, fiber.StatusInternalServerError, "Failed to store log")
	}

	if s.deps.Counters != nil {
		s.deps.Counters.LogsIngested.WithLabelValues(event.Level).Inc()
	}

	if s.deps.Hub != nil {
		s.deps.Hub.Push(broadcast.NewEvent(event, s.deps.Location))
	}

	if s.deps.Notifier != nil {
		_ = s.deps.Notifier.Dispatch(*user, event.Level, event.Message)
	}

	log.Debug().Uint64("user_id", user.ID).Str("user", user.Name).Str("level", event.Level).Msg("log saved")

	return c.JSON(fiber.Map{"status": "ok"})
}
