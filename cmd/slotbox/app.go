package main

import (
	"context"
	"crypto/rand"
	"fmt"
	"log/slog"
	"os"

	"github.com/sagarc03/slotbox"
	"github.com/sagarc03/slotbox/config"
	"github.com/sagarc03/slotbox/database"
	"github.com/sagarc03/slotbox/filesystem"
	"github.com/sagarc03/slotbox/keybackend"
)

// app bundles what every command builds from the loaded config.
type app struct {
	cfg     *config.Config
	root    *os.Root
	service *slotbox.Service
	closers []func()
}

func (a *app) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i]()
	}
}

type appOptions struct {
	// requireSecret is set by serve; the maintenance commands never verify
	// tokens and run with a random key when none is configured.
	requireSecret bool
	// createStorage creates the storage directory when it is missing.
	createStorage bool
	// requireLedger fails when the ledger is disabled.
	requireLedger bool
}

func newApp(ctx context.Context, opts appOptions) (*app, error) {
	cfg, err := config.FromContext(ctx)
	if err != nil {
		return nil, err
	}

	a := &app{cfg: cfg}
	ok := false
	defer func() {
		if !ok {
			a.Close()
		}
	}()

	verifier, err := newVerifier(cfg.Auth, opts.requireSecret)
	if err != nil {
		return nil, err
	}

	if opts.createStorage {
		if err = os.MkdirAll(cfg.Storage.Path, 0o750); err != nil {
			return nil, fmt.Errorf("create storage directory: %w", err)
		}
	} else if _, err = os.Stat(cfg.Storage.Path); err != nil {
		return nil, fmt.Errorf("storage directory: %w", err)
	}

	a.root, err = os.OpenRoot(cfg.Storage.Path)
	if err != nil {
		return nil, fmt.Errorf("open storage root: %w", err)
	}
	a.closers = append(a.closers, func() { _ = a.root.Close() })

	var ledger slotbox.UploadLedger
	switch {
	case cfg.Ledger.Enabled:
		var closeLedger func()
		ledger, closeLedger, err = database.Open(ctx, cfg.Ledger.Config)
		if err != nil {
			return nil, fmt.Errorf("open ledger: %w", err)
		}
		a.closers = append(a.closers, closeLedger)
		slog.Info("upload ledger ready", "type", cfg.Ledger.Type, "table", cfg.Ledger.Tables.Uploads)
	case opts.requireLedger:
		return nil, fmt.Errorf("%w: set ledger.enabled or pass --ledger", slotbox.ErrNoLedger)
	}

	a.service, err = slotbox.NewService(
		verifier,
		filesystem.NewFileStorage(a.root),
		filesystem.NewSidecarStore(a.root),
		slotbox.ServiceConfig{
			Ledger:         ledger,
			EnforceSize:    cfg.Upload.EnforceSize,
			MaxUploadSize:  cfg.Server.MaxUploadSize,
			CleanupTimeout: config.Duration(cfg.Service.CleanupTimeout),
			StagingGrace:   config.Duration(cfg.Service.StagingGrace),
		},
	)
	if err != nil {
		return nil, fmt.Errorf("create service: %w", err)
	}

	ok = true
	return a, nil
}

func newVerifier(auth keybackend.SecretConfig, required bool) (*slotbox.TokenVerifier, error) {
	if !required && auth.Secret == "" && auth.SecretFile == "" {
		return slotbox.NewTokenVerifier([]byte(rand.Text())), nil
	}

	verifier, err := keybackend.NewVerifier(auth)
	if err != nil {
		return nil, fmt.Errorf("load upload secret: %w", err)
	}
	return verifier, nil
}
