package database

import (
	"context"
	"fmt"

	"github.com/sagarc03/slotbox"
	"github.com/sagarc03/slotbox/database/postgres"
	"github.com/sagarc03/slotbox/database/sqlite"
)

// Database is a connection to an upload ledger backend.
type Database interface {
	Ping(ctx context.Context) error
	Migrate(ctx context.Context) error
	Validate(ctx context.Context) error
	GetRepo() slotbox.UploadLedger
	Close() error
}

// Config holds the configuration for connecting to a ledger backend.
type Config struct {
	// Type specifies the database type: "sqlite" or "postgres"
	Type string `mapstructure:"type" validate:"omitempty,oneof=sqlite postgres"`
	// DSN is the data source name (connection string)
	DSN    string         `mapstructure:"dsn"`
	Tables slotbox.Tables `mapstructure:"tables"`
}

// Connect opens a connection to the configured backend. The schema is
// neither created nor checked; call Migrate and Validate for that.
func Connect(ctx context.Context, cfg Config) (Database, error) {
	if err := cfg.Tables.Validate(); err != nil {
		return nil, fmt.Errorf("connect: %w", err)
	}

	var (
		db  Database
		err error
	)

	switch cfg.Type {
	case "sqlite":
		db, err = sqlite.Connect(ctx, cfg.DSN, cfg.Tables)
	case "postgres":
		db, err = postgres.Connect(ctx, cfg.DSN, cfg.Tables)
	default:
		return nil, fmt.Errorf("connect: unsupported database type: %q", cfg.Type)
	}
	if err != nil {
		return nil, err
	}

	return db, nil
}

// Open connects, migrates and validates in one step and returns the ledger
// together with a function that closes the connection.
func Open(ctx context.Context, cfg Config) (slotbox.UploadLedger, func(), error) {
	db, err := Connect(ctx, cfg)
	if err != nil {
		return nil, nil, err
	}

	if err = db.Ping(ctx); err != nil {
		_ = db.Close()
		return nil, nil, fmt.Errorf("ping %s: %w", cfg.Type, err)
	}

	if err = db.Migrate(ctx); err != nil {
		_ = db.Close()
		return nil, nil, fmt.Errorf("migrate %s: %w", cfg.Type, err)
	}

	if err = db.Validate(ctx); err != nil {
		_ = db.Close()
		return nil, nil, fmt.Errorf("validate %s schema: %w", cfg.Type, err)
	}

	cleanup := func() {
		_ = db.Close()
	}

	return db.GetRepo(), cleanup, nil
}
