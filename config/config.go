package config

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/sagarc03/slotbox/database"
	slotboxhttp "github.com/sagarc03/slotbox/http"
	"github.com/sagarc03/slotbox/keybackend"
)

// configKey is the context key for storing the loaded configuration.
type configKey struct{}

// WithContext returns a new context with the config stored.
func WithContext(ctx context.Context, cfg *Config) context.Context {
	return context.WithValue(ctx, configKey{}, cfg)
}

// FromContext retrieves the config from context.
// Returns an error if config is not found.
func FromContext(ctx context.Context) (*Config, error) {
	cfg, ok := ctx.Value(configKey{}).(*Config)
	if !ok || cfg == nil {
		return nil, errors.New("config not found in context")
	}
	return cfg, nil
}

// Config is the root configuration struct for slotbox.
type Config struct {
	Env     string                  `mapstructure:"env" validate:"required,oneof=dev prod"`
	Server  ServerConfig            `mapstructure:"server"`
	Service ServiceConfig           `mapstructure:"service"`
	Upload  UploadConfig            `mapstructure:"upload"`
	Ledger  LedgerConfig            `mapstructure:"ledger"`
	Storage StorageConfig           `mapstructure:"storage"`
	Auth    keybackend.SecretConfig `mapstructure:"auth"`
	CORS    slotboxhttp.CORSConfig  `mapstructure:"cors"`
	Log     LogConfig               `mapstructure:"log"`
}

// ServerConfig holds HTTP server configuration. Timeouts are in seconds;
// zero disables the timeout.
type ServerConfig struct {
	Port          int   `mapstructure:"port" validate:"required,min=1,max=65535"`
	MaxUploadSize int64 `mapstructure:"max_upload_size" validate:"min=0"`
	ReadTimeout   int   `mapstructure:"read_timeout" validate:"min=0"`
	WriteTimeout  int   `mapstructure:"write_timeout" validate:"min=0"`
	IdleTimeout   int   `mapstructure:"idle_timeout" validate:"min=0"`
	AccessLog     bool  `mapstructure:"access_log"`
}

// ServiceConfig holds service-level configuration.
type ServiceConfig struct {
	CleanupTimeout int `mapstructure:"cleanup_timeout" validate:"min=1"` // seconds
	StagingGrace   int `mapstructure:"staging_grace" validate:"min=1"`   // seconds
}

// UploadConfig holds upload handling rules.
type UploadConfig struct {
	EnforceSize bool `mapstructure:"enforce_size"`
}

// LedgerConfig holds the optional upload ledger configuration. The
// connection settings are ignored unless Enabled is set.
type LedgerConfig struct {
	Enabled         bool `mapstructure:"enabled"`
	database.Config `mapstructure:",squash"`
}

// StorageConfig holds file storage configuration.
type StorageConfig struct {
	Path string `mapstructure:"path" validate:"required"`
}

// LogConfig holds logging configuration.
type LogConfig struct {
	Level string `mapstructure:"level" validate:"required,oneof=debug info warn error"`
}

// Duration converts a seconds setting to a time.Duration.
func Duration(seconds int) time.Duration {
	return time.Duration(seconds) * time.Second
}

// flagToViperKey maps CLI flag names to viper configuration keys.
var flagToViperKey = map[string]string{
	"port":         "server.port",
	"storage-path": "storage.path",
	"secret-file":  "auth.secret_file",
	"ledger":       "ledger.enabled",
	"ledger-type":  "ledger.type",
	"ledger-dsn":   "ledger.dsn",
	"log-level":    "log.level",
}

// bindFlags binds CLI flags to viper keys with custom name mapping.
func bindFlags(v *viper.Viper, flags *pflag.FlagSet) {
	flags.VisitAll(func(f *pflag.Flag) {
		viperKey := f.Name
		if mapped, ok := flagToViperKey[viperKey]; ok {
			viperKey = mapped
		}

		// Only bind if the flag was explicitly set
		if f.Changed {
			_ = v.BindPFlag(viperKey, f)
		}
	})
}

// setDefaults configures default values on the viper instance.
func setDefaults(v *viper.Viper) {
	v.SetDefault("env", "dev")

	v.SetDefault("server.port", 5708)
	v.SetDefault("server.max_upload_size", 0) // 0 means no limit
	v.SetDefault("server.read_timeout", 0)
	v.SetDefault("server.write_timeout", 0)
	v.SetDefault("server.idle_timeout", 120)
	v.SetDefault("server.access_log", true)

	v.SetDefault("service.cleanup_timeout", 30)
	v.SetDefault("service.staging_grace", 3600)

	v.SetDefault("upload.enforce_size", true)

	v.SetDefault("ledger.enabled", false)
	v.SetDefault("ledger.type", "sqlite")
	v.SetDefault("ledger.dsn", "slotbox.db")
	v.SetDefault("ledger.tables.uploads", "slotbox_uploads")

	v.SetDefault("storage.path", "./data")

	// Registered so that SLOTBOX_AUTH_SECRET and friends are picked up by
	// Unmarshal even when no file mentions them.
	v.SetDefault("auth.secret", "")
	v.SetDefault("auth.secret_file", "")

	v.SetDefault("log.level", "info")
}

// Load reads configuration and returns a validated Config struct.
// Order of precedence (highest to lowest): flags > env > config files > defaults
//
// Parameters:
//   - configFiles: list of config file paths (later files override earlier ones)
//   - flags: cobra flag set for flag binding (can be nil)
func Load(configFiles []string, flags *pflag.FlagSet) (*Config, error) {
	v := viper.New()

	setDefaults(v)

	if len(configFiles) > 0 {
		v.SetConfigFile(configFiles[0])
		if err := v.ReadInConfig(); err != nil {
			slog.Warn("error reading config file", "file", configFiles[0], "err", err)
		}

		for _, cf := range configFiles[1:] {
			v.SetConfigFile(cf)
			if err := v.MergeInConfig(); err != nil {
				slog.Warn("error merging config file", "file", cf, "err", err)
			}
		}
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")

		if err := v.ReadInConfig(); err != nil {
			var configNotFound viper.ConfigFileNotFoundError
			if !errors.As(err, &configNotFound) {
				slog.Warn("error reading config file", "err", err)
			}
		}
	}

	v.SetEnvPrefix("SLOTBOX")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if flags != nil {
		bindFlags(v, flags)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	if err := Validate(&cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Validate checks struct tags and the rules that span fields.
func Validate(cfg *Config) error {
	validate := validator.New()
	if err := validate.Struct(cfg); err != nil {
		return fmt.Errorf("validate config: %w", err)
	}

	if cfg.Auth.Secret != "" && cfg.Auth.SecretFile != "" {
		return fmt.Errorf("validate config: %w", keybackend.ErrAmbiguousSecret)
	}

	if cfg.Ledger.Enabled {
		if cfg.Ledger.Type == "" || cfg.Ledger.DSN == "" {
			return errors.New("validate config: ledger.type and ledger.dsn are required when the ledger is enabled")
		}
		if err := cfg.Ledger.Tables.Validate(); err != nil {
			return fmt.Errorf("validate config: %w", err)
		}
	}

	return nil
}
