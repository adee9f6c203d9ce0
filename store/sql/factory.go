package sqlstore

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	persistence "github.com/goliatone/go-persistence-bun"
	_ "github.com/lib/pq"
	_ "github.com/mattn/go-sqlite3"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/dialect/sqlitedialect"
	"github.com/uptrace/bun/schema"
)

const (
	DriverSQLite   = "sqlite3"
	DriverPostgres = "postgres"
)

// ConnectionConfig satisfies the go-persistence-bun client config.
type ConnectionConfig struct {
	Driver         string
	DSN            string
	Debug          bool
	PingTimeout    time.Duration
	OtelIdentifier string
}

func (c ConnectionConfig) GetDebug() bool {
	return c.Debug
}

func (c ConnectionConfig) GetDriver() string {
	return c.Driver
}

func (c ConnectionConfig) GetServer() string {
	return c.DSN
}

func (c ConnectionConfig) GetPingTimeout() time.Duration {
	if c.PingTimeout <= 0 {
		return 5 * time.Second
	}
	return c.PingTimeout
}

func (c ConnectionConfig) GetOtelIdentifier() string {
	return c.OtelIdentifier
}

// Open connects to sqlite3 or postgres and wraps the connection in a
// persistence client.
func Open(cfg ConnectionConfig) (*persistence.Client, error) {
	cfg.Driver = strings.ToLower(strings.TrimSpace(cfg.Driver))
	dialect, err := dialectFor(cfg.Driver)
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(cfg.DSN) == "" {
		return nil, fmt.Errorf("sqlstore: dsn is required")
	}
	sqlDB, err := sql.Open(cfg.Driver, cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("sqlstore: open %s: %w", cfg.Driver, err)
	}
	if cfg.Driver == DriverSQLite {
		sqlDB.SetMaxOpenConns(1)
	}
	client, err := persistence.New(cfg, sqlDB, dialect)
	if err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("sqlstore: new persistence client: %w", err)
	}
	return client, nil
}

func dialectFor(driver string) (schema.Dialect, error) {
	switch driver {
	case DriverSQLite, "sqlite":
		return sqlitedialect.New(), nil
	case DriverPostgres, "pgx", "pg":
		return pgdialect.New(), nil
	default:
		return nil, fmt.Errorf("sqlstore: unsupported driver %q", driver)
	}
}

// EnsureSchema creates the session tables when they do not exist yet.
func EnsureSchema(ctx context.Context, candidate any) error {
	db, err := resolveBunDB(candidate)
	if err != nil {
		return err
	}
	models := []any{
		(*sessionRecord)(nil),
		(*sessionCacheRecord)(nil),
	}
	for _, model := range models {
		if _, err := db.NewCreateTable().Model(model).IfNotExists().Exec(ctx); err != nil {
			return fmt.Errorf("sqlstore: create table for %T: %w", model, err)
		}
	}
	return nil
}

func resolveBunDB(candidate any) (*bun.DB, error) {
	switch typed := candidate.(type) {
	case nil:
		return nil, fmt.Errorf("sqlstore: persistence client is required")
	case *bun.DB:
		return typed, nil
	case interface{ DB() *bun.DB }:
		db := typed.DB()
		if db == nil {
			return nil, fmt.Errorf("sqlstore: persistence client returned nil bun db")
		}
		return db, nil
	default:
		return nil, fmt.Errorf("sqlstore: unsupported persistence client type %T", candidate)
	}
}
