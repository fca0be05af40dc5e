package web

import (
	"errors"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/fiber/v2/middleware/filesystem"
	"github.com/gofiber/template/html/v2"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog/log"

	"github.com/logmonitor/logmonitor/internal/auth"
	"github.com/logmonitor/logmonitor/internal/config"
	fiberlogger "github.com/logmonitor/logmonitor/internal/logger/adapter/fiber"
	"github.com/logmonitor/logmonitor/internal/web/handler"
	"github.com/logmonitor/logmonitor/internal/web/handler/dashboard"
	"github.com/logmonitor/logmonitor/internal/web/handler/ingest"
	"github.com/logmonitor/logmonitor/internal/web/handler/live"
	"github.com/logmonitor/logmonitor/internal/web/handler/logs"
	"github.com/logmonitor/logmonitor/internal/web/handler/settings"
	"github.com/logmonitor/logmonitor/internal/web/handler/user"
)

const (
	// HealthPath answers 200 while alive and 503 while shutting down.
	HealthPath = "/healthz"
	// MetricsPath exposes the prometheus registry.
	MetricsPath = "/metrics"
	// StaticPath serves the embedded assets.
	StaticPath = "/static"
)

// Service represents the web service.
type Service struct {
	App          *fiber.App
	cfg          *config.Config
	fastShutDown bool
	alive        atomic.Bool
}

// Start starts the web service on the given address and blocks until the listener stops.
func (s *Service) Start(addr string) error {
	if err := s.App.Listen(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err //nolint:wrapcheck
	}

	return nil
}

// Alive reports whether /healthz answers 200.
func (s *Service) Alive() bool {
	return s.alive.Load()
}

// WaitShutdown blocks until SIGINT or SIGTERM, then shuts the listener down.
func (s *Service) WaitShutdown() {
	irqSig := make(chan os.Signal, 1)
	signal.Notify(irqSig, syscall.SIGINT, syscall.SIGTERM)

	sig := <-irqSig
	log.Info().Msgf("shutdown request (signal: %v)", sig)

	s.Shutdown()
}

// Shutdown fails /healthz for ShutDownTime seconds so load balancers drain us,
// then stops the http server.
func (s *Service) Shutdown() {
	s.alive.Store(false)

	if !s.fastShutDown {
		log.Info().Msgf(
			"graceful shutdown: return 503 while %d seconds to let LB to remove this pod from active targets",
			s.cfg.Webserver.ShutDownTime,
		)

		time.Sleep(time.Duration(s.cfg.Webserver.ShutDownTime) * time.Second)
	}

	log.Info().Msg("stopping http server ...")

	if err := s.App.Shutdown(); err != nil {
		log.Error().Err(err).Msg("")
	}

	log.Info().Msg("http server was stopped")
}

// New creates the fiber app, mounts the middleware and initialises every handler.
func New(cfg *config.Config, deps *handler.Deps) (*Service, error) {
	if cfg == nil || deps == nil {
		return nil, handler.ErrNilDeps
	}

	httpFS := http.FS(templateEmbedFS{embeddedTemplates})
	templateEngine := html.NewFileSystem(httpFS, ".gohtml")

	// in dev mode, use local filesystem for templates
	if cfg.DevMode {
		templateEngine = html.New("./internal/web/templates", ".gohtml")
		templateEngine.ShouldReload = true

		log.Warn().Msg("dev mode enabled: using local filesystem for templates")
	}

	addTemplateFuncs(templateEngine)

	app := fiber.New(
		fiber.Config{
			ReadBufferSize:        8192,
			AppName:               cfg.Title,
			CaseSensitive:         true,
			Prefork:               false,
			Immutable:             true,
			Views:                 templateEngine,
			ErrorHandler:          ErrorHandler,
			DisableStartupMessage: !cfg.DevMode,
		},
	)

	service := &Service{
		App: app,
		cfg: cfg,
	}
	service.alive.Store(true)

	app.Use(fiberlogger.New(fiberlogger.Config{
		Config:        cfg.Log,
		CheckAliveURI: HealthPath,
	}))

	app.Get(HealthPath, service.health)

	if deps.Counters != nil {
		app.Get(MetricsPath, adaptor.HTTPHandler(
			promhttp.HandlerFor(deps.Counters.Gatherer, promhttp.HandlerOpts{}),
		))
	}

	// everything registered below is admin only, except the ingest endpoint
	app.Use(auth.AdminBasicAuth(cfg.Admin.PasswordHash, ingest.Path, MetricsPath, HealthPath))

	app.Use(StaticPath,
		filesystem.New(
			filesystem.Config{
				Root:       http.FS(embeddedStaticFiles),
				PathPrefix: "static",
				Browse:     false,
			},
		),
	)

	handlers := []handler.Service{
		&ingest.Handler,
		&dashboard.Handler,
		&user.Handler,
		&logs.Handler,
		&settings.Handler,
		&live.Handler,
	}

	for _, h := range handlers {
		if err := h.Init(app, deps); err != nil {
			return nil, err //nolint:wrapcheck
		}
	}

	return service, nil
}

func (s *Service) health(c *fiber.Ctx) error {
	if !s.alive.Load() {
		return c.Status(fiber.StatusServiceUnavailable).SendString("shutting down")
	}

	return c.SendString("ok")
}

// ErrorHandler answers JSON for errors no handler turned into a response.
// Internal details are logged, never sent.
func ErrorHandler(c *fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError
	msg := http.StatusText(code)

	var fe *fiber.Error
	if errors.As(err, &fe) {
		code = fe.Code
		msg = fe.Message
	}

	if code >= fiber.StatusInternalServerError {
		log.Error().Err(err).Str("path", c.Path()).Msg("request failed")
	}

	return handler.JSONError(c, code, msg)
}

func addTemplateFuncs(engine *html.Engine) {
	engine.AddFunc("upper", strings.ToUpper)
	engine.AddFunc("lower", strings.ToLower)
	engine.AddFunc("levelClass", func(level string) string {
		switch strings.ToLower(level) {
		case "error", "critical", "fatal":
			return "level-error"
		case "warn", "warning":
			return "level-warn"
		case "debug", "trace":
			return "level-debug"
		default:
			return "level-info"
		}
	})
}
