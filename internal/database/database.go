// Package database opens the pooled connection shared by the schema
// introspector and the query executor.
package database

import (
	"context"
	"database/sql"
	"fmt"
	"net/url"
	"strings"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
	_ "github.com/marcboeker/go-duckdb/v2"
	_ "github.com/mattn/go-sqlite3"
)

type Dialect string

const (
	DialectSQLite   Dialect = "sqlite"
	DialectPostgres Dialect = "postgres"
	DialectDuckDB   Dialect = "duckdb"
)

type DBConfig struct {
	Driver          string
	DSN             string
	ReadOnly        bool
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxIdleTime time.Duration
	ConnMaxLifetime time.Duration
}

// DialectFor maps a database/sql driver name to its SQL dialect.
func DialectFor(driver string) (Dialect, error) {
	switch strings.ToLower(strings.TrimSpace(driver)) {
	case "sqlite3", "sqlite":
		return DialectSQLite, nil
	case "pgx", "postgres", "postgresql":
		return DialectPostgres, nil
	case "duckdb":
		return DialectDuckDB, nil
	default:
		return "", fmt.Errorf("unsupported database driver %q", driver)
	}
}

func driverName(dialect Dialect) string {
	switch dialect {
	case DialectSQLite:
		return "sqlite3"
	case DialectPostgres:
		return "pgx"
	default:
		return "duckdb"
	}
}

func Open(ctx context.Context, cfg DBConfig) (*sql.DB, Dialect, error) {
	if strings.TrimSpace(cfg.DSN) == "" {
		return nil, "", fmt.Errorf("database dsn is required")
	}
	dialect, err := DialectFor(cfg.Driver)
	if err != nil {
		return nil, "", err
	}

	dsn := strings.TrimSpace(cfg.DSN)
	if cfg.ReadOnly {
		dsn, err = readOnlyDSN(dialect, dsn)
		if err != nil {
			return nil, "", err
		}
	}

	db, err := sql.Open(driverName(dialect), dsn)
	if err != nil {
		return nil, "", fmt.Errorf("open database: %w", err)
	}

	if cfg.MaxOpenConns > 0 {
		db.SetMaxOpenConns(cfg.MaxOpenConns)
	}
	if cfg.MaxIdleConns > 0 {
		db.SetMaxIdleConns(cfg.MaxIdleConns)
	}
	if cfg.ConnMaxIdleTime > 0 {
		db.SetConnMaxIdleTime(cfg.ConnMaxIdleTime)
	}
	if cfg.ConnMaxLifetime > 0 {
		db.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	}

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		_ = db.Close()
		return nil, "", fmt.Errorf("ping database: %w", err)
	}

	return db, dialect, nil
}

// readOnlyDSN asks the engine itself to refuse writes on every pooled
// connection.
func readOnlyDSN(dialect Dialect, dsn string) (string, error) {
	switch dialect {
	case DialectSQLite:
		return appendQueryParam(dsn, "_query_only", "true"), nil
	case DialectDuckDB:
		if dsn == "" || strings.HasPrefix(dsn, ":memory:") {
			return "", fmt.Errorf("read-only duckdb requires a database file")
		}
		return appendQueryParam(dsn, "access_mode", "read_only"), nil
	case DialectPostgres:
		if strings.Contains(dsn, "://") {
			parsed, err := url.Parse(dsn)
			if err != nil {
				return "", fmt.Errorf("parse postgres dsn: %w", err)
			}
			query := parsed.Query()
			query.Set("default_transaction_read_only", "on")
			parsed.RawQuery = query.Encode()
			return parsed.String(), nil
		}
		return dsn + " default_transaction_read_only=on", nil
	default:
		return dsn, nil
	}
}

func appendQueryParam(dsn, key, value string) string {
	separator := "?"
	if strings.Contains(dsn, "?") {
		separator = "&"
	}
	return dsn + separator + key + "=" + value
}
