// Package logs provides bulk log deletion and the on-demand retention sweep.
package logs

import (
	"errors"
	"strconv"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog/log"

	"github.com/logmonitor/logmonitor/internal/auth"
	"github.com/logmonitor/logmonitor/internal/web/handler"
)

const (
	// Path is the base path for log management.
	Path = handler.RootPath + "logs"
)

// Service is the log management handler service.
type Service struct {
	handler.Service
	deps *handler.Deps
}

// Handler is the log management handler.
var Handler = Service{}

// Init registers routes.
func (s *Service) Init(app *fiber.App, deps *handler.Deps) error {
	if app == nil || deps == nil || deps.Users == nil || deps.Logs == nil || deps.Sweeper == nil {
		return handler.ErrNilDeps
	}

	s.deps = deps

	app.Post(Path+"/delete_all", s.DeleteAll)
	app.Post(Path+"/cleanup", s.Cleanup)
	app.Post(Path+"/:user_id/delete", s.DeleteForUser)

	return nil
}

// DeleteForUser removes one user's events and goes back to its page.
func (s *Service) DeleteForUser(c *fiber.Ctx) error {
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

	removed, err := s.deps.Logs.DeleteForUser(user.ID)
	if err != nil {
		log.Error().Err(err).Uint64("user_id", id).Msg("failed to delete logs")

		return c.Status(fiber.StatusInternalServerError).SendString("Failed to delete logs")
	}

	log.Info().Uint64("user_id", user.ID).Str("user", user.Name).Int64("removed", removed).Msg("removed user logs")

	return c.Redirect(Path + "/" + strconv.FormatUint(user.ID, 10) + "?removed=" + strconv.FormatInt(removed, 10))
}

// DeleteAll removes every event and goes back to the dashboard.
func (s *Service) DeleteAll(c *fiber.Ctx) error {
	removed, err := s.deps.Logs.DeleteAll()
	if err != nil {
		log.Error().Err(err).Msg("failed to delete logs")

		return c.Status(fiber.StatusInternalServerError).SendString("Failed to delete logs")
	}

	log.Info().Int64("removed", removed).Msg("removed all logs")

	return c.Redirect(handler.RootPath)
}

// Cleanup runs the retention sweeper once.
func (s *Service) Cleanup(c *fiber.Ctx) error {
	res, err := s.deps.Sweeper.Sweep()
	if err != nil {
		log.Error().Err(err).Msg("retention sweep failed")

		return handler.JSONError(c, fiber.StatusInternalServerError, "Cleanup failed")
	}

	return c.JSON(res)
}
