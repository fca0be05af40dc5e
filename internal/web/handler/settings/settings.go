// Package settings renders and updates the retention and mail settings.
package settings

import (
	"errors"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cast"

	"github.com/logmonitor/logmonitor/internal/db/controller/appsettings"
	"github.com/logmonitor/logmonitor/internal/web/handler"
)

const (
	// Path is the settings page.
	Path = handler.RootPath + "settings"

	// TemplateName is the name of the settings template.
	TemplateName = "settings/settings"
)

// Request is the body of POST /settings. Omitted fields keep their defaults:
// the current retention, port 587 and STARTTLS on. Numbers and booleans may
// arrive as JSON scalars or as strings.
type Request struct {
	RetentionDays     any    `json:"retention_days"`
	SMTPEnabled       any    `json:"smtp_enabled"`
	SMTPHost          string `json:"smtp_host"`
	SMTPPort          any    `json:"smtp_port"`
	SMTPUser          string `json:"smtp_user"`
	SMTPPassword      string `json:"smtp_password"`
	SMTPFrom          string `json:"smtp_from"`
	SMTPTLS           any    `json:"smtp_tls"`
	SMTPAllowInsecure any    `json:"smtp_allow_insecure"`
}

// Service is the settings handler service.
type Service struct {
	handler.Service
	deps *handler.Deps
}

// Handler is the settings handler.
var Handler = Service{}

// Init initializes the settings handler.
func (s *Service) Init(app *fiber.App, deps *handler.Deps) error {
	if app == nil || deps == nil || deps.Settings == nil {
		return handler.ErrNilDeps
	}

	s.deps = deps

	app.Route(Path, func(router fiber.Router) {
		router.Get(handler.RootPath, s.Get)
		router.Post(handler.RootPath, s.Post)
	})

	return nil
}

// Get renders the settings with the mail password opened for display.
func (s *Service) Get(c *fiber.Ctx) error {
	retention, err := s.deps.Settings.Retention()
	if err != nil {
		log.Error().Err(err).Msg("failed to load retention settings")

		return c.Status(fiber.StatusInternalServerError).SendString("Failed to load settings")
	}

	mail, err := s.deps.Settings.Display()
	if err != nil {
		log.Error().Err(err).Msg("failed to load mail settings")

		return c.Status(fiber.StatusInternalServerError).SendString("Failed to load settings")
	}

	return c.Render(TemplateName, fiber.Map{
		"Title":     "Settings",
		"Retention": retention,
		"Mail":      mail,
	}, handler.BaseLayout)
}

// Post validates and stores both settings blobs in one transaction.
func (s *Service) Post(c *fiber.Ctx) error {
	req := new(Request)
	if err := c.BodyParser(req); err != nil {
		return handler.JSONError(c, fiber.StatusBadRequest, "Invalid request")
	}

	retention, err := s.deps.Settings.Retention()
	if err != nil {
		log.Error().Err(err).Msg("failed to load retention settings")

		return handler.JSONError(c, fiber.StatusInternalServerError, "Failed to load settings")
	}

	mail := appsettings.Mail{
		Host:     req.SMTPHost,
		User:     req.SMTPUser,
		Password: req.SMTPPassword,
		From:     req.SMTPFrom,
		UseTLS:   true,
	}

	if err = req.scalars(&retention, &mail); err != nil {
		log.Debug().Err(err).Msg("rejected settings with malformed value")

		return handler.JSONError(c, fiber.StatusBadRequest, "Invalid request")
	}

	if mail.Port == 0 {
		mail.Port = appsettings.DefaultMailPort
	}

	err = s.deps.Settings.Save(appsettings.Update{Retention: &retention, Mail: &mail})

	switch {
	case err == nil:
	case errors.Is(err, appsettings.ErrInvalidRetention):
		return handler.JSONError(c, fiber.StatusBadRequest, "Retention days must be zero or positive")
	case errors.Is(err, appsettings.ErrInvalidMail):
		return handler.JSONError(c, fiber.StatusBadRequest, "Invalid mail settings")
	default:
		log.Error().Err(err).Msg("failed to save settings")

		return handler.JSONError(c, fiber.StatusInternalServerError, "Failed to save settings")
	}

	log.Info().Int("retention_days", retention.Days).Bool("mail_enabled", mail.Enabled).
		Str("mail_host", mail.Host).Int("mail_port", mail.Port).Msg("settings updated")

	return c.JSON(fiber.Map{"success": true})
}

// scalars converts the loosely typed fields. Absent or blank values leave the
// destination unchanged.
func (r *Request) scalars(retention *appsettings.Retention, mail *appsettings.Mail) error {
	var err error

	if !blank(r.RetentionDays) {
		if retention.Days, err = cast.ToIntE(trim(r.RetentionDays)); err != nil {
			return err //nolint:wrapcheck
		}
	}

	if !blank(r.SMTPPort) {
		if mail.Port, err = cast.ToIntE(trim(r.SMTPPort)); err != nil {
			return err //nolint:wrapcheck
		}
	}

	for _, f := range []struct {
		src any
		dst *bool
	}{
		{r.SMTPEnabled, &mail.Enabled},
		{r.SMTPTLS, &mail.UseTLS},
		{r.SMTPAllowInsecure, &mail.AllowInsecure},
	} {
		if blank(f.src) {
			continue
		}

		if *f.dst, err = toBool(f.src); err != nil {
			return err
		}
	}

	return nil
}

// toBool accepts what cast does plus the "on" an html checkbox posts.
func toBool(v any) (bool, error) {
	if s, ok := v.(string); ok {
		switch strings.ToLower(strings.TrimSpace(s)) {
		case "on", "yes":
			return true, nil
		case "off", "no":
			return false, nil
		}
	}

	return cast.ToBoolE(trim(v)) //nolint:wrapcheck
}

func blank(v any) bool {
	if v == nil {
		return true
	}

	s, ok := v.(string)

	return ok && strings.TrimSpace(s) == ""
}

func trim(v any) any {
	if s, ok := v.(string); ok {
		return strings.TrimSpace(s)
	}

	return v
}
