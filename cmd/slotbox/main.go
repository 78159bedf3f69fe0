package main

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/sagarc03/slotbox/config"
)

var version = "dev"

var rootCmd = &cobra.Command{
	Version: version,
	Use:     "slotbox",
	Short:   "HTTP file upload server for XMPP clients",
	Long: `slotbox stores files uploaded with HMAC capability tokens issued by an
XMPP server (XEP-0363 HTTP File Upload) and serves them back to anyone
holding the URL.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		// configure writes the config file; it must not require one.
		if cmd.Name() == "configure" {
			setupLogging("dev", "info")
			return nil
		}

		configFiles, _ := cmd.Flags().GetStringSlice("config")
		cfg, err := config.Load(configFiles, cmd.Flags())
		if err != nil {
			return err
		}

		setupLogging(cfg.Env, cfg.Log.Level)
		cmd.SetContext(config.WithContext(cmd.Context(), cfg))
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().StringSlice("config", nil, "config file path, repeatable; later files override earlier ones (default: ./config.yaml)")
	rootCmd.PersistentFlags().String("storage-path", "", "storage directory path (default: ./data, env: SLOTBOX_STORAGE_PATH)")
	rootCmd.PersistentFlags().Bool("ledger", false, "enable the upload ledger (env: SLOTBOX_LEDGER_ENABLED)")
	rootCmd.PersistentFlags().String("ledger-type", "", "ledger database type: sqlite, postgres (default: sqlite, env: SLOTBOX_LEDGER_TYPE)")
	rootCmd.PersistentFlags().String("ledger-dsn", "", "ledger connection string (default: slotbox.db, env: SLOTBOX_LEDGER_DSN)")
	rootCmd.PersistentFlags().String("log-level", "", "log level: debug, info, warn, error (env: SLOTBOX_LOG_LEVEL)")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
