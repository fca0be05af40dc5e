package fiber_test

import (
	"bytes"
	"encoding/json"
	"io"
	"net"
	"net/http/httptest"
	"os"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	adapter "github.com/logmonitor/logmonitor/internal/logger/adapter/fiber"

	"github.com/logmonitor/logmonitor/internal/logger"
)

type accessLine struct {
	IP     net.IP `json:"IP"`
	Status int    `json:"status"`
	URI    string `json:"URI"`
	Method string `json:"method"`
	Host   string `json:"host"`
	UserID uint64 `json:"user_id"`
}

func consoleConfig() adapter.Config {
	return adapter.Config{
		Config: logger.Log{
			EnableAccessLogToConsole: true,
			DisableCheckAlive:        true,
			Console:                  logger.Console{Enabled: true},
		},
		CheckAliveURI: "/healthz",
	}
}

func TestNew(t *testing.T) {
	tests := []struct {
		name       string
		config     adapter.Config
		targetPath string
		want       *accessLine
	}{
		{
			name:       "nothing enabled no output",
			targetPath: "/",
		},
		{
			name:       "get / to console json",
			config:     consoleConfig(),
			targetPath: "/",
			want:       &accessLine{Status: 200, URI: "/", Method: fiber.MethodGet},
		},
		{
			name:       "query string is kept",
			config:     consoleConfig(),
			targetPath: "/?user_id=3",
			want:       &accessLine{Status: 200, URI: "/?user_id=3", Method: fiber.MethodGet},
		},
		{
			name:       "unknown route",
			config:     consoleConfig(),
			targetPath: "/no_path//?x=1",
			want:       &accessLine{Status: 404, URI: "/no_path/?x=1", Method: fiber.MethodGet},
		},
		{
			name:       "health check skipped",
			config:     consoleConfig(),
			targetPath: "/healthz",
		},
		{
			name:       "ingesting user is tagged",
			config:     consoleConfig(),
			targetPath: "/log",
			want:       &accessLine{Status: 200, URI: "/log", Method: fiber.MethodGet, UserID: 42},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			output := serve(t, tt.targetPath, tt.config)

			if tt.want == nil {
				assert.Empty(t, output)
				return
			}

			var got accessLine
			require.NoError(t, json.Unmarshal([]byte(output), &got), output)

			assert.Equal(t, "example.com", got.Host)
			assert.Equal(t, tt.want.Method, got.Method)
			assert.Equal(t, tt.want.Status, got.Status)
			assert.Equal(t, net.ParseIP("0.0.0.0"), got.IP)
			assert.Equal(t, tt.want.URI, got.URI)
			assert.Equal(t, tt.want.UserID, got.UserID)
		})
	}
}

func serve(t *testing.T, targetPath string, cfg adapter.Config) string {
	t.Helper()

	stdout, stderr := os.Stdout, os.Stderr

	r, w, err := os.Pipe()
	require.NoError(t, err)

	os.Stdout = w
	os.Stderr = w

	app := fiber.New(fiber.Config{CaseSensitive: true, Immutable: true})
	app.Use(adapter.New(cfg))

	app.Get("/", func(ctx *fiber.Ctx) error {
		return ctx.SendString("hello test")
	})
	app.Get("/healthz", func(ctx *fiber.Ctx) error {
		return ctx.SendString("ok")
	})
	app.Get("/log", func(ctx *fiber.Ctx) error {
		ctx.Locals(adapter.LocalsUserID, uint64(42))
		return ctx.SendString("ok")
	})

	_, err = app.Test(httptest.NewRequest(fiber.MethodGet, targetPath, nil), 100000)

	outC := make(chan string)

	go func() {
		var buf bytes.Buffer
		_, _ = io.Copy(&buf, r)
		outC <- buf.String()
	}()

	_ = w.Close()
	os.Stdout = stdout
	os.Stderr = stderr
	out := <-outC

	require.NoError(t, err)

	return out
}
