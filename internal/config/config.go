// Package config reads the service configuration from file and environment.
package config

import (
	"bytes"
	"encoding/json"
	"strings"
	"time"

	"github.com/pkg/errors"
	"github.com/spf13/viper"
)

const (
	// EnvPrefix is prepended to every environment override, e.g. LOGMONITOR_DB_ENGINE.
	EnvPrefix = "LOGMONITOR"

	// DefaultRetentionDays is used when neither file nor env set a horizon.
	DefaultRetentionDays = 7

	// DefaultPort is the listening port of the original deployment.
	DefaultPort = 5000
)

// legacyEnv maps config keys to the variable names of existing .env deployments.
var legacyEnv = map[string]string{ //nolint:gochecknoglobals
	"db.dsn":         "DATABASE_URL",
	"webserver.port": "APP_PORT",
	"retention.days": "LOG_RETENTION_DAYS",
	"mail.enabled":   "SMTP_ENABLED",
	"mail.host":      "SMTP_HOST",
	"mail.port":      "SMTP_PORT",
	"mail.user":      "SMTP_USER",
	"mail.password":  "SMTP_PASSWORD",
	"mail.from":      "SMTP_FROM_EMAIL",
	"mail.usetls":    "SMTP_USE_TLS",
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("devmode", false)
	v.SetDefault("title", "Log Monitor")

	v.SetDefault("db.engine", "sqlite")
	v.SetDefault("db.dsn", "")
	v.SetDefault("db.extras", "")
	v.SetDefault("db.host", "")
	v.SetDefault("db.port", 0)
	v.SetDefault("db.user", "")
	v.SetDefault("db.password", "")
	v.SetDefault("db.name", "logs.db")

	v.SetDefault("log.loglevel", "info")
	v.SetDefault("log.appname", "logmonitor")
	v.SetDefault("log.servicename", "logmonitor")
	v.SetDefault("log.reportcaller", false)
	v.SetDefault("log.enableaccesslogtoconsole", false)
	v.SetDefault("log.disablecheckalive", true)
	v.SetDefault("log.console.enabled", true)
	v.SetDefault("log.console.useconsolewriter", false)
	v.SetDefault("log.file.enabled", false)
	v.SetDefault("log.file.path", "./log")

	v.SetDefault("webserver.port", DefaultPort)
	v.SetDefault("webserver.shutdowntime", 5) //nolint:mnd

	v.SetDefault("secrets.key", "")
	v.SetDefault("secrets.keyfile", "")

	v.SetDefault("retention.days", DefaultRetentionDays)
	v.SetDefault("retention.sweepinterval", time.Duration(0))

	v.SetDefault("mail.enabled", false)
	v.SetDefault("mail.host", "")
	v.SetDefault("mail.port", 587) //nolint:mnd
	v.SetDefault("mail.user", "")
	v.SetDefault("mail.password", "")
	v.SetDefault("mail.from", "")
	v.SetDefault("mail.usetls", true)
	v.SetDefault("mail.allowinsecure", false)
	v.SetDefault("mail.workers", 2)              //nolint:mnd
	v.SetDefault("mail.queuesize", 256)          //nolint:mnd
	v.SetDefault("mail.timeout", 10*time.Second) //nolint:mnd

	v.SetDefault("realtime.buffer", 64)                  //nolint:mnd
	v.SetDefault("realtime.writetimeout", 5*time.Second) //nolint:mnd

	v.SetDefault("display.timezone", "Europe/Rome")

	v.SetDefault("admin.passwordhash", "")
}

// ReadConfig from config file and environment.
// An empty path searches logmonitor.{toml,yaml,json} in ./etc/ and the working directory;
// a missing file is not an error in that case, the defaults and env still apply.
func ReadConfig(path string) (Config, error) {
	var (
		c   Config
		v   = viper.New()
		err error
	)

	setDefaults(v)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	for key, legacy := range legacyEnv {
		prefixed := EnvPrefix + "_" + strings.ToUpper(strings.ReplaceAll(key, ".", "_"))
		if err = v.BindEnv(key, prefixed, legacy); err != nil {
			return Config{}, errors.Wrap(err, "failed to bind env "+legacy)
		}
	}

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("logmonitor")
		v.AddConfigPath("./etc/")
		v.AddConfigPath(".")
	}

	if err = v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if path != "" || !errors.As(err, &notFound) {
			return Config{}, errors.Wrap(err, "failed to read config file")
		}
	}

	if err = v.Unmarshal(&c); err != nil {
		return Config{}, errors.Wrap(err, "failed to decode config")
	}

	return c, validate(&c)
}

// DumpConfigJSON config as JSON String with secrets masked.
func DumpConfigJSON(c Config) (string, error) {
	var buffer bytes.Buffer

	c.Secrets.Key = mask(c.Secrets.Key)
	c.Mail.Password = mask(c.Mail.Password)
	c.DB.Password = mask(c.DB.Password)

	j := json.NewEncoder(&buffer)
	j.SetIndent("", "  ")

	if err := j.Encode(c); err != nil {
		return "", err //nolint: wrapcheck
	}

	return buffer.String(), nil
}

func mask(s string) string {
	if s == "" {
		return ""
	}

	return "***"
}

// validate the settings the daemon can not start without.
func validate(c *Config) error {
	invalidErrMessage := "invalid config"

	if c.Webserver.Port == 0 {
		return errors.Wrap(ErrWebServerPortCanNotBeZero, invalidErrMessage)
	}

	if c.Retention.Days < 0 {
		return errors.Wrap(ErrNegativeRetention, invalidErrMessage)
	}

	switch c.DB.Engine {
	case "sqlite", "mysql", "postgres":
	default:
		return errors.Wrap(ErrUnknownDBEngine, invalidErrMessage)
	}

	if _, err := c.Display.Location(); err != nil {
		return errors.Wrap(ErrUnknownTimezone, invalidErrMessage)
	}

	if !c.DevMode {
		if c.Secrets.Key == "" && c.Secrets.KeyFile == "" {
			return errors.Wrap(ErrSecretsKeyMissing, invalidErrMessage)
		}

	}

	if c.Webserver.ShutDownTime == 0 {
		c.Webserver.ShutDownTime = 5 // set default of 5 seconds
	}

	return nil
}
