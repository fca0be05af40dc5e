// Package user provides the user management pages.
package user

import (
	"errors"
	"strconv"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog/log"

	"github.com/logmonitor/logmonitor/internal/auth"
	"github.com/logmonitor/logmonitor/internal/web/handler"
)

const (
	// Path is the base path for user management.
	Path = handler.RootPath + "users"

	// TemplateList is the template for listing users.
	TemplateList = "users/list"
)

// CreateRequest is the body of POST /users.
type CreateRequest struct {
	Name  string `json:"name" form:"name"`
	Email string `json:"email" form:"email"`
}

// Service provides create, list and delete for users.
type Service struct {
	handler.Service
	deps *handler.Deps
}

// Handler is the exported instance.
var Handler = Service{}

// Init registers routes.
func (s *Service) Init(app *fiber.App, deps *handler.Deps) error {
	if app == nil || deps == nil || deps.Users == nil {
		return handler.ErrNilDeps
	}

	s.deps = deps

	app.Get(Path, s.List)
	app.Post(Path, s.Create)
	app.Post(Path+"/:id/delete", s.Delete)

	return nil
}

// List shows every user ordered by name.
func (s *Service) List(c *fiber.Ctx) error {
	users, err := s.deps.Users.List()
	if err != nil {
		log.Error().Err(err).Msg("failed to list users")

		return c.Status(fiber.StatusInternalServerError).SendString("Failed to load users")
	}

	return c.Render(TemplateList, fiber.Map{
		"Title": "Users",
		"Users": users,
	}, handler.BaseLayout)
}

// Create adds a user and returns its token.
func (s *Service) Create(c *fiber.Ctx) error {
	req := new(CreateRequest)
	if len(c.Body()) > 0 {
		if err := c.BodyParser(req); err != nil {
			return handler.JSONError(c, fiber.StatusBadRequest, "Invalid request")
		}
	}

	user, err := s.deps.Users.Create(req.Name, req.Email)
	if err != nil {
		switch {
		case errors.Is(err, auth.ErrNameRequired):
			return handler.JSONError(c, fiber.StatusBadRequest, "Missing name")
		case errors.Is(err, auth.ErrNameTooLong):
			return handler.JSONError(c, fiber.StatusBadRequest, "Name too long")
		case errors.Is(err, auth.ErrInvalidEmail):
			return handler.JSONError(c, fiber.StatusBadRequest, "Invalid email")
		}

		log.Error().Err(err).Msg("failed to create user")

		return handler.JSONError(c, fiber.StatusInternalServerError, "Failed to create user")
	}

	return c.JSON(fiber.Map{
		"success": true,
		"id":      user.ID,
		"token":   user.Token,
	})
}

// Delete removes a user with all of its events.
func (s *Service) Delete(c *fiber.Ctx) error {
	id, err := strconv.ParseUint(c.Params("id"), 10, 64)
	if err != nil {
		return c.Status(fiber.StatusNotFound).SendString("User not found")
	}

	if _, err := s.deps.Users.Delete(id); err != nil {
		if errors.Is(err, auth.ErrUserNotFound) {
			return c.Status(fiber.StatusNotFound).SendString("User not found")
		}

		log.Error().Err(err).Uint64("user_id", id).Msg("failed to delete user")

		return c.Status(fiber.StatusInternalServerError).SendString("Failed to delete user")
	}

	return c.Redirect(Path)
}
