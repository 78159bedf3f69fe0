// Package config provides configuration loading and validation for slotbox.
//
// The package handles YAML configuration files, environment variables, and CLI flags
// with automatic merging and validation using go-playground/validator.
//
// # Configuration Precedence
//
// Values are loaded in this order (later sources override earlier ones):
//
//  1. Default values
//  2. Configuration file(s) - multiple files merged left-to-right
//  3. Environment variables (SLOTBOX_ prefix)
//  4. CLI flags
//
// # Usage
//
//	cfg, err := config.Load([]string{"config.yaml"}, cmd.Flags())
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	ctx = config.WithContext(ctx, cfg)
//
// # Environment Variables
//
// All config keys map to environment variables with SLOTBOX_ prefix:
//   - server.port → SLOTBOX_SERVER_PORT
//   - auth.secret_file → SLOTBOX_AUTH_SECRET_FILE
//   - ledger.enabled → SLOTBOX_LEDGER_ENABLED
//
// # Secrets
//
// auth.secret and auth.secret_file are mutually exclusive. Neither is
// required to load a config, since index, list and check never verify
// tokens; serve fails at startup when no secret resolves.
package config
