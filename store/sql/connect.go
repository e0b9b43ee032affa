package sqlstore

import (
	"database/sql"
	"fmt"
	"strings"

	persistence "github.com/goliatone/go-persistence-bun"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/dialect/sqlitedialect"

	_ "github.com/lib/pq"
	_ "github.com/mattn/go-sqlite3"
)

const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite3"
)

// Connect opens a database handle for the given driver and wraps it in a
// go-persistence-bun client with the matching bun dialect.
func Connect(cfg persistence.Config, driver string, dsn string) (*persistence.Client, error) {
	driver = strings.TrimSpace(strings.ToLower(driver))
	if strings.TrimSpace(dsn) == "" {
		return nil, fmt.Errorf("sqlstore: dsn is required")
	}

	sqlDB, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("sqlstore: open %s: %w", driver, err)
	}

	switch driver {
	case DriverPostgres:
		return persistence.New(cfg, sqlDB, pgdialect.New())
	case DriverSQLite:
		return persistence.New(cfg, sqlDB, sqlitedialect.New())
	default:
		_ = sqlDB.Close()
		return nil, fmt.Errorf("sqlstore: unsupported driver %q", driver)
	}
}
