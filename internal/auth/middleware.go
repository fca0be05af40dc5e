package auth

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog/log"

	"github.com/logmonitor/logmonitor/internal/db/models"
	fiberlogger "github.com/logmonitor/logmonitor/internal/logger/adapter/fiber"
)

// LocalsUser is the fiber.Locals key holding the authenticated *models.User.
const LocalsUser = "auth_user"

// RequireToken creates Fiber middleware that authenticates the bearer token.
func RequireToken(svc *Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		token, err := BearerToken(c.Get(fiber.HeaderAuthorization))
		if err != nil {
			log.Warn().Str("ip", c.IP()).Str("path", c.Path()).Msg("request without bearer token")

			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Missing token"})
		}

		user, err := svc.Authenticate(token)
		if err != nil {
			if errors.Is(err, ErrInvalidToken) {
				log.Warn().Str("ip", c.IP()).Str("path", c.Path()).Msg("request with invalid token")

				return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": "Invalid token"})
			}

			log.Error().Err(err).Msg("failed to authenticate token")

			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Internal Server Error"})
		}

		c.Locals(LocalsUser, user)
		c.Locals(fiberlogger.LocalsUserID, user.ID)

		return c.Next()
	}
}

// UserFromContext returns the user stored by RequireToken.
func UserFromContext(c *fiber.Ctx) (*models.User, bool) {
	user, ok := c.Locals(LocalsUser).(*models.User)

	return user, ok && user != nil
}
