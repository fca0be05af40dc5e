// Package daemon wires the database, the pipeline and the web service together.
package daemon

import (
	"context"
	"fmt"
	"time"

	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/logmonitor/logmonitor/internal/auth"
	"github.com/logmonitor/logmonitor/internal/broadcast"
	"github.com/logmonitor/logmonitor/internal/config"
	"github.com/logmonitor/logmonitor/internal/db/controller/appsettings"
	"github.com/logmonitor/logmonitor/internal/db/controller/logevent"
	"github.com/logmonitor/logmonitor/internal/db/dsn"
	"github.com/logmonitor/logmonitor/internal/db/models"
	"github.com/logmonitor/logmonitor/internal/logger/adapter/stdlogger"
	"github.com/logmonitor/logmonitor/internal/metrics"
	"github.com/logmonitor/logmonitor/internal/notify"
	"github.com/logmonitor/logmonitor/internal/retention"
	"github.com/logmonitor/logmonitor/internal/secret"
	"github.com/logmonitor/logmonitor/internal/web"
	"github.com/logmonitor/logmonitor/internal/web/handler"
)

const slowQuery = 200 * time.Millisecond

// Core is the persistence side shared by the daemon and the CLI commands.
type Core struct {
	DB       *gorm.DB
	Users    *auth.Service
	Logs     *logevent.Store
	Settings *appsettings.Store
}

// Close releases the database connection pool.
func (c *Core) Close() error {
	sqlDB, err := c.DB.DB()
	if err != nil {
		return errors.Wrap(err, "failed to get sql.DB")
	}

	return sqlDB.Close() //nolint:wrapcheck
}

// Open connects to the configured database, migrates it and seeds the
// config store with the configured defaults.
func Open(cfg *config.Config) (*Core, error) {
	if cfg == nil {
		return nil, handler.ErrNilDeps
	}

	level := gormlogger.Warn
	if cfg.DevMode {
		level = gormlogger.Info
	}

	db, err := gorm.Open(dsn.Dialector(cfg), &gorm.Config{
		Logger: gormlogger.New(stdlogger.NewComponent("gorm"), gormlogger.Config{
			SlowThreshold:             slowQuery,
			LogLevel:                  level,
			IgnoreRecordNotFoundError: true,
		}),
	})
	if err != nil {
		return nil, errors.Wrap(err, "failed to connect database")
	}

	if err = db.AutoMigrate(models.All()...); err != nil {
		return nil, errors.Wrap(err, "failed to migrate database")
	}

	box, err := openSecrets(cfg)
	if err != nil {
		return nil, err
	}

	settings, err := appsettings.New(db, box)
	if err != nil {
		return nil, err //nolint:wrapcheck
	}

	if err = seed(cfg, settings); err != nil {
		return nil, err
	}

	if cfg.DevMode {
		logStored(settings)
	}

	log.Info().Str("engine", cfg.DB.Engine).Msg("database ready")

	return &Core{
		DB:       db,
		Users:    auth.NewService(db),
		Logs:     logevent.New(db),
		Settings: settings,
	}, nil
}

// logStored writes the stored settings blobs to the debug log.
func logStored(settings *appsettings.Store) {
	stored, err := settings.Stored()
	if err != nil {
		log.Warn().Err(err).Msg("failed to list stored settings")

		return
	}

	for name, value := range stored {
		log.Debug().Str("setting", name).RawJSON("value", value).Msg("stored setting")
	}
}

func openSecrets(cfg *config.Config) (*secret.Box, error) {
	box, err := secret.Load(cfg.Secrets.Key, cfg.Secrets.KeyFile)
	if errors.Is(err, secret.ErrNoKey) && cfg.DevMode {
		return secret.Ephemeral() //nolint:wrapcheck
	}

	if err != nil {
		return nil, errors.Wrap(err, "failed to load secrets key")
	}

	return box, nil
}

// Daemon represents the main application daemon.
type Daemon struct {
	cfg        *config.Config
	core       *Core
	hub        *broadcast.Hub
	dispatcher *notify.Dispatcher
	sweeper    *retention.Sweeper
	webService *web.Service
}

// New creates a new Daemon instance with the provided configuration.
func New(cfg *config.Config) (*Daemon, error) {
	core, err := Open(cfg)
	if err != nil {
		return nil, err
	}

	location, err := cfg.Display.Location()
	if err != nil {
		return nil, errors.Wrap(err, "invalid display timezone")
	}

	counters := metrics.New()
	hub := broadcast.New(cfg.Realtime.Buffer, cfg.Realtime.WriteTimeout, counters)

	dispatcher := notify.New(
		core.Settings,
		notify.MailSender{Timeout: cfg.Mail.Timeout},
		notify.Options{
			Workers:   cfg.Mail.Workers,
			QueueSize: cfg.Mail.QueueSize,
			Timeout:   cfg.Mail.Timeout,
		},
		counters,
	)

	sweeper := retention.New(core.Settings, core.Logs, counters)

	webService, err := web.New(cfg, &handler.Deps{
		Cfg:      cfg,
		Users:    core.Users,
		Logs:     core.Logs,
		Settings: core.Settings,
		Hub:      hub,
		Notifier: dispatcher,
		Sweeper:  sweeper,
		Counters: counters,
		Location: location,
	})
	if err != nil {
		return nil, errors.Wrap(err, "failed to init web service")
	}

	return &Daemon{
		cfg:        cfg,
		core:       core,
		hub:        hub,
		dispatcher: dispatcher,
		sweeper:    sweeper,
		webService: webService,
	}, nil
}

// Start runs the mail workers, the retention sweeper and the web service
// until SIGINT or SIGTERM, then stops them in reverse order.
func (d *Daemon) Start() error {
	d.dispatcher.Start()

	ctx, cancel := context.WithCancel(context.Background())
	sweeperDone := make(chan struct{})

	go func() {
		defer close(sweeperDone)
		d.sweeper.Run(ctx, d.cfg.Retention.SweepInterval)
	}()

	listenErr := make(chan error, 1)

	go func() {
		addr := fmt.Sprintf(":%d", d.cfg.Webserver.Port)
		log.Info().Str("addr", addr).Msg("starting http server")

		listenErr <- d.webService.Start(addr)
	}()

	stopped := make(chan struct{})

	go func() {
		d.webService.WaitShutdown()
		close(stopped)
	}()

	var err error

	select {
	case err = <-listenErr:
		if err != nil {
			log.Error().Err(err).Msg("http server failed")
		}
	case <-stopped:
		err = <-listenErr
	}

	cancel()
	<-sweeperDone

	d.hub.Close()
	d.dispatcher.Stop()

	if closeErr := d.core.Close(); closeErr != nil {
		log.Error().Err(closeErr).Msg("failed to close database")
	}

	log.Info().Msg("daemon stopped ... good bye...")

	return err
}
