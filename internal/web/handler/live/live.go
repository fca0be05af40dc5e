// Package live upgrades dashboard connections to websockets and registers
// them with the broadcast hub.
package live

import (
	"github.com/gofiber/contrib/websocket"
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog/log"

	"github.com/logmonitor/logmonitor/internal/broadcast"
	"github.com/logmonitor/logmonitor/internal/web/handler"
)

const (
	// Path is the live channel endpoint.
	Path = handler.RootPath + "ws"
)

// Service is the live channel handler service.
type Service struct {
	handler.Service
	hub *broadcast.Hub
}

// Handler is the live channel handler.
var Handler = Service{}

// Init registers the upgrade check and the websocket route.
func (s *Service) Init(app *fiber.App, deps *handler.Deps) error {
	if app == nil || deps == nil || deps.Hub == nil {
		return handler.ErrNilDeps
	}

	s.hub = deps.Hub

	app.Use(Path, RequireUpgrade)
	app.Get(Path, websocket.New(s.Serve))

	return nil
}

// RequireUpgrade answers 426 to plain HTTP requests.
func RequireUpgrade(c *fiber.Ctx) error {
	if websocket.IsWebSocketUpgrade(c) {
		return c.Next()
	}

	return fiber.ErrUpgradeRequired
}

// Serve keeps one subscriber registered for the lifetime of the connection.
// Incoming frames are discarded; reading only detects the close.
func (s *Service) Serve(c *websocket.Conn) {
	sub, err := s.hub.Subscribe(c)
	if err != nil {
		log.Debug().Err(err).Msg("live subscription refused")

		return
	}

	defer s.hub.Unsubscribe(sub)

	for {
		if _, _, err := c.ReadMessage(); err != nil {
			log.Debug().Err(err).Uint64("subscriber", sub.ID()).Msg("live connection closed")

			return
		}
	}
}
