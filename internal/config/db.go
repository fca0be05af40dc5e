package config

// DB holds the database configuration settings.
// DSN wins over the discrete fields when set.
type DB struct {
	Engine   string // sqlite, mysql or postgres
	DSN      string
	Extras   string
	Host     string
	Port     int
	User     string
	Password string
	Name     string
}
