// Package dsn builds database connection strings and gorm dialectors from the configuration.
package dsn

import (
	"fmt"
	"strings"

	"github.com/glebarez/sqlite"
	"gorm.io/driver/mysql"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"github.com/logmonitor/logmonitor/internal/config"
)

const (
	// EngineSQLite is the pure go sqlite driver, the default.
	EngineSQLite = "sqlite"
	// EngineMySQL selects gorm.io/driver/mysql.
	EngineMySQL = "mysql"
	// EnginePostgres selects gorm.io/driver/postgres.
	EnginePostgres = "postgres"

	sqliteForeignKeys = "_pragma=foreign_keys(1)"
)

// Create builds the Data Source Name from the configuration.
// An explicit db.dsn wins; URL style sqlite DSNs (sqlite:///logs.db) are reduced to the file path.
func Create(cfg *config.Config) string {
	db := cfg.DB

	if db.DSN != "" {
		return normalize(db.Engine, db.DSN)
	}

	switch db.Engine {
	case EngineMySQL:
		return fmt.Sprintf("%s:%s@tcp(%s:%d)/%s?%s",
			db.User, db.Password, db.Host, db.Port, db.Name, db.Extras)
	case EnginePostgres:
		out := fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s",
			db.Host, db.Port, db.User, db.Password, db.Name)
		if db.Extras != "" {
			out += " " + db.Extras
		}

		return out
	default:
		return withForeignKeys(db.Name)
	}
}

// Dialector returns the gorm dialector for the configured engine.
func Dialector(cfg *config.Config) gorm.Dialector {
	source := Create(cfg)

	switch cfg.DB.Engine {
	case EngineMySQL:
		return mysql.Open(source)
	case EnginePostgres:
		return postgres.Open(source)
	default:
		return sqlite.Open(source)
	}
}

func normalize(engine, source string) string {
	if engine != EngineSQLite && engine != "" {
		return source
	}

	for _, prefix := range []string{"sqlite:///", "sqlite://", "file:"} {
		if strings.HasPrefix(source, prefix) {
			source = strings.TrimPrefix(source, prefix)
			break
		}
	}

	return withForeignKeys(source)
}

// withForeignKeys enables cascading deletes, sqlite ships with them off.
func withForeignKeys(source string) string {
	if strings.Contains(source, "foreign_keys") {
		return source
	}

	if strings.Contains(source, "?") {
		return source + "&" + sqliteForeignKeys
	}

	return source + "?" + sqliteForeignKeys
}
