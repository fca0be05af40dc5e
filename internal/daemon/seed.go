package daemon

import (
	"github.com/logmonitor/logmonitor/internal/config"
	"github.com/logmonitor/logmonitor/internal/db/controller/appsettings"
)

// seed stores the configured retention and mail settings unless the
// database already holds values edited through the settings page.
func seed(cfg *config.Config, settings *appsettings.Store) error {
	return settings.SeedDefaults( //nolint:wrapcheck
		appsettings.Retention{Days: cfg.Retention.Days},
		appsettings.Mail{
			Enabled:       cfg.Mail.Enabled,
			Host:          cfg.Mail.Host,
			Port:          cfg.Mail.Port,
			User:          cfg.Mail.User,
			Password:      cfg.Mail.Password,
			From:          cfg.Mail.From,
			UseTLS:        cfg.Mail.UseTLS,
			AllowInsecure: cfg.Mail.AllowInsecure,
		},
	)
}
