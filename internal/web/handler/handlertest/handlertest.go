// Package handlertest builds handler dependencies on an in-memory database for tests.
package handlertest

import (
	"io"
	"net/http"
	"sync"
	"testing"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/logmonitor/logmonitor/internal/auth"
	"github.com/logmonitor/logmonitor/internal/broadcast"
	"github.com/logmonitor/logmonitor/internal/config"
	"github.com/logmonitor/logmonitor/internal/db/controller/appsettings"
	"github.com/logmonitor/logmonitor/internal/db/controller/logevent"
	"github.com/logmonitor/logmonitor/internal/db/models"
	"github.com/logmonitor/logmonitor/internal/metrics"
	"github.com/logmonitor/logmonitor/internal/retention"
	"github.com/logmonitor/logmonitor/internal/secret"
	"github.com/logmonitor/logmonitor/internal/web/handler"
)

// Fixture is a complete set of handler dependencies.
type Fixture struct {
	DB       *gorm.DB
	Deps     *handler.Deps
	Notifier *Notifier
	Views    *Views
}

// New opens a fresh database and wires every dependency to it.
func New(t *testing.T) *Fixture {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err, "failed to create test database")

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	require.NoError(t, db.AutoMigrate(models.All()...), "failed to migrate test database")

	box, err := secret.Ephemeral()
	require.NoError(t, err)

	settings, err := appsettings.New(db, box)
	require.NoError(t, err)

	counters := metrics.NewUnregistered()
	logs := logevent.New(db)
	hub := broadcast.New(8, time.Second, counters)
	notifier := &Notifier{}

	t.Cleanup(hub.Close)

	return &Fixture{
		DB: db,
		Deps: &handler.Deps{
			Cfg:      &config.Config{Title: "Log Monitor"},
			Users:    auth.NewService(db),
			Logs:     logs,
			Settings: settings,
			Hub:      hub,
			Notifier: notifier,
			Sweeper:  retention.New(settings, logs, counters),
			Counters: counters,
			Location: time.UTC,
		},
		Notifier: notifier,
		Views:    &Views{},
	}
}

// App returns a fiber app rendering through the fixture's Views.
func (f *Fixture) App() *fiber.App {
	return fiber.New(fiber.Config{Views: f.Views})
}

// User creates a user or fails the test.
func (f *Fixture) User(t *testing.T, name, email string) *models.User {
	t.Helper()

	user, err := f.Deps.Users.Create(name, email)
	require.NoError(t, err)

	return user
}

// Do runs req against app and returns status and body.
func Do(t *testing.T, app *fiber.App, req *http.Request) (int, string) {
	t.Helper()

	resp, err := app.Test(req)
	require.NoError(t, err)

	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)

	return resp.StatusCode, string(body)
}

// Dispatch records a notification request.
type Dispatch struct {
	User    models.User
	Level   string
	Message string
}

// Notifier records dispatches and optionally fails them.
type Notifier struct {
	mu    sync.Mutex
	calls []Dispatch
	Err   error
}

// Dispatch implements handler.Notifier.
func (n *Notifier) Dispatch(user models.User, level, message string) error {
	n.mu.Lock()
	defer n.mu.Unlock()

	n.calls = append(n.calls, Dispatch{User: user, Level: level, Message: message})

	return n.Err
}

// Calls returns the recorded dispatches.
func (n *Notifier) Calls() []Dispatch {
	n.mu.Lock()
	defer n.mu.Unlock()

	return append([]Dispatch(nil), n.calls...)
}

// Views is a fiber.Views that remembers the last render instead of executing templates.
type Views struct {
	mu      sync.Mutex
	Name    string
	Binding fiber.Map
}

// Load implements fiber.Views.
func (v *Views) Load() error {
	return nil
}

// Render implements fiber.Views.
func (v *Views) Render(w io.Writer, name string, binding interface{}, _ ...string) error {
	v.mu.Lock()
	defer v.mu.Unlock()

	v.Name = name
	v.Binding, _ = binding.(fiber.Map)

	_, err := io.WriteString(w, name)

	return err
}

// Last returns the last rendered template and its binding.
func (v *Views) Last() (string, fiber.Map) {
	v.mu.Lock()
	defer v.mu.Unlock()

	return v.Name, v.Binding
}
