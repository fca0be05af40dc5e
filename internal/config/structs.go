package config

import (
	"time"
	_ "time/tzdata" // timezone names must resolve on hosts without zoneinfo

	"github.com/logmonitor/logmonitor/internal/logger"
)

// Config overall data structure.
type Config struct {
	DevMode   bool // enable dev mode for development
	Title     string
	DB        DB
	Log       logger.Log
	Webserver Webserver
	Secrets   Secrets
	Retention Retention
	Mail      Mail
	Realtime  Realtime
	Display   Display
	Admin     Admin
}

// Webserver implement webserver settings.
type Webserver struct {
	Port         int // listening port for the webserver
	ShutDownTime int // seconds to answer 503 on /healthz before the listener stops
}

// Secrets selects the age identity used to seal secret settings.
// The identity never lives in the database next to the values it protects.
type Secrets struct {
	Key     string // AGE-SECRET-KEY-1... identity
	KeyFile string // path to a file holding the identity, used when Key is empty
}

// Retention holds the initial retention horizon and the periodic sweep schedule.
type Retention struct {
	Days          int
	SweepInterval time.Duration // 0 disables periodic sweeping
}

// Mail holds the initial outbound mail settings and the dispatcher sizing.
type Mail struct {
	Enabled       bool
	Host          string
	Port          int
	User          string
	Password      string
	From          string
	UseTLS        bool
	AllowInsecure bool // explicit opt-out of transport encryption

	Workers   int
	QueueSize int
	Timeout   time.Duration
}

// Realtime sizes the live subscriber queues.
type Realtime struct {
	Buffer       int
	WriteTimeout time.Duration
}

// Display controls how timestamps are rendered to humans and live subscribers.
type Display struct {
	Timezone string
}

// Location resolves Timezone, UTC when empty.
func (d Display) Location() (*time.Location, error) {
	if d.Timezone == "" {
		return time.UTC, nil
	}

	return time.LoadLocation(d.Timezone)
}

// Admin protects the administrative routes with HTTP basic auth.
type Admin struct {
	PasswordHash string // argon2id hash, empty disables the check
}
