package handler

import (
	"errors"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/logmonitor/logmonitor/internal/auth"
	"github.com/logmonitor/logmonitor/internal/broadcast"
	"github.com/logmonitor/logmonitor/internal/config"
	"github.com/logmonitor/logmonitor/internal/db/controller/appsettings"
	"github.com/logmonitor/logmonitor/internal/db/controller/logevent"
	"github.com/logmonitor/logmonitor/internal/db/models"
	"github.com/logmonitor/logmonitor/internal/metrics"
	"github.com/logmonitor/logmonitor/internal/retention"
)

// ErrNilDeps is returned by Init when app or deps is nil.
var ErrNilDeps = errors.New(ErrNilDepsFatalLogMsg)

// Notifier forwards an ingested event without blocking.
type Notifier interface {
	Dispatch(user models.User, level, message string) error
}

// Deps bundles what the handlers share.
type Deps struct {
	Cfg      *config.Config
	Users    *auth.Service
	Logs     *logevent.Store
	Settings *appsettings.Store
	Hub      *broadcast.Hub
	Notifier Notifier
	Sweeper  *retention.Sweeper
	Counters *metrics.Counters
	Location *time.Location
}

// Service is the interface for a web handler service.
type Service interface {
	Init(app *fiber.App, deps *Deps) error
}

// JSONError writes {"error": msg} with status.
func JSONError(c *fiber.Ctx, status int, msg string) error {
	return c.Status(status).JSON(fiber.Map{"error": msg})
}
