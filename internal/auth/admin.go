package auth

import (
	"github.com/alexedwards/argon2id"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/basicauth"
	"github.com/rs/zerolog/log"
)

// AdminUser is the only account accepted by AdminBasicAuth.
const AdminUser = "admin"

// HashPassword returns the argon2id hash stored in admin.passwordhash.
func HashPassword(password string) (string, error) {
	return argon2id.CreateHash(password, argon2id.DefaultParams)
}

// VerifyAdmin checks user and password against hash.
func VerifyAdmin(hash, user, password string) bool {
	if hash == "" || user != AdminUser {
		return false
	}

	match, err := argon2id.ComparePasswordAndHash(password, hash)
	if err != nil {
		log.Error().Err(err).Msg("failed to compare admin password")

		return false
	}

	return match
}

// AdminBasicAuth protects every route except the public ones with HTTP basic auth.
// An empty hash disables the check.
func AdminBasicAuth(hash string, public ...string) fiber.Handler {
	skip := make(map[string]struct{}, len(public))
	for _, p := range public {
		skip[p] = struct{}{}
	}

	return basicauth.New(basicauth.Config{
		Next: func(c *fiber.Ctx) bool {
			if hash == "" {
				return true
			}

			_, ok := skip[c.Path()]

			return ok
		},
		Realm: "logmonitor",
		Authorizer: func(user, password string) bool {
			ok := VerifyAdmin(hash, user, password)
			if !ok {
				log.Warn().Str("user", user).Msg("admin authentication failed")
			}

			return ok
		},
	})
}
