package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/sagarc03/slotbox/config"
	slotboxhttp "github.com/sagarc03/slotbox/http"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP server",
	Long: `Start the slotbox HTTP server.

PUT stores a file once, authorized by a v or v2 token in the query string.
HEAD and GET serve stored files to anyone who knows the path.`,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().Int("port", 5708, "HTTP server port (env: SLOTBOX_SERVER_PORT)")
	serveCmd.Flags().String("secret-file", "", "file holding the upload secret (env: SLOTBOX_AUTH_SECRET_FILE)")

	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	a, err := newApp(ctx, appOptions{requireSecret: true, createStorage: true})
	if err != nil {
		return err
	}
	defer a.Close()

	cfg := a.cfg

	handler := slotboxhttp.NewHandler(&slotboxhttp.HandlerConfig{
		CORS:      cfg.CORS,
		AccessLog: cfg.Server.AccessLog,
	}, a.service)

	addr := fmt.Sprintf(":%d", cfg.Server.Port)

	server := &http.Server{
		Addr:              addr,
		Handler:           handler.Router(),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       config.Duration(cfg.Server.ReadTimeout),
		WriteTimeout:      config.Duration(cfg.Server.WriteTimeout),
		IdleTimeout:       config.Duration(cfg.Server.IdleTimeout),
	}

	errCh := make(chan error, 1)
	go func() {
		slog.Info("starting server",
			"addr", addr,
			"storage", cfg.Storage.Path,
			"ledger", cfg.Ledger.Enabled,
			"enforce_size", cfg.Upload.EnforceSize,
		)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err, ok := <-errCh:
		if ok {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	slog.Info("shutting down server...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), config.Duration(cfg.Service.CleanupTimeout))
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		slog.Error("server shutdown error", "err", err)
		return fmt.Errorf("shutdown: %w", err)
	}

	return nil
}
