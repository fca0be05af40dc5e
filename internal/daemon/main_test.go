package daemon

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/logmonitor/logmonitor/internal/config"
	"github.com/logmonitor/logmonitor/internal/db/controller/appsettings"
	"github.com/logmonitor/logmonitor/internal/secret"
)

func testConfig(t *testing.T) *config.Config {
	t.Helper()

	return &config.Config{
		DevMode: true,
		DB: config.DB{
			Engine: "sqlite",
			Name:   filepath.Join(t.TempDir(), "logs.db"),
		},
		Retention: config.Retention{Days: 3},
		Mail: config.Mail{
			Host:     "smtp.example.com",
			Port:     587,
			Password: "hunter2",
			UseTLS:   true,
		},
	}
}

func TestOpenSeedsOnlyAbsentSettings(t *testing.T) {
	identity, _, err := secret.Generate()
	require.NoError(t, err)

	cfg := testConfig(t)
	cfg.Secrets.Key = identity

	core, err := Open(cfg)
	require.NoError(t, err)

	days, err := core.Settings.RetentionDays()
	require.NoError(t, err)
	assert.Equal(t, 3, days)

	stored, err := core.Settings.Mail()
	require.NoError(t, err)
	assert.True(t, secret.IsSealed(stored.Password), "seeded password must be sealed")

	require.NoError(t, core.Settings.SaveRetention(appsettings.Retention{Days: 10}))
	require.NoError(t, core.Close())

	core, err = Open(cfg)
	require.NoError(t, err)

	t.Cleanup(func() { _ = core.Close() })

	days, err = core.Settings.RetentionDays()
	require.NoError(t, err)
	assert.Equal(t, 10, days, "edited value must survive a restart")

	transport, err := core.Settings.Transport()
	require.NoError(t, err)
	assert.Equal(t, "hunter2", transport.Password)
}

func TestOpenDevModeUsesEphemeralKey(t *testing.T) {
	core, err := Open(testConfig(t))
	require.NoError(t, err)

	t.Cleanup(func() { _ = core.Close() })

	user, err := core.Users.Create("alice", "")
	require.NoError(t, err)

	_, err = core.Logs.Append(user, "info", "hello", nil)
	require.NoError(t, err)

	n, err := core.Logs.Count(user.ID)
	require.NoError(t, err)
	assert.EqualValues(t, 1, n)
}

func TestOpenRequiresKeyOutsideDevMode(t *testing.T) {
	cfg := testConfig(t)
	cfg.DevMode = false

	_, err := Open(cfg)
	require.ErrorIs(t, err, secret.ErrNoKey)
}

func TestOpenNilConfig(t *testing.T) {
	_, err := Open(nil)
	require.Error(t, err)
}
