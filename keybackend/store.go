// Package keybackend resolves the shared upload secret and builds the token
// verifier from it.
package keybackend

import (
	"fmt"

	"github.com/sagarc03/slotbox"
)

// SecretConfig holds the two mutually exclusive sources of the upload secret.
type SecretConfig struct {
	Secret     string `mapstructure:"secret"`      // Inline secret
	SecretFile string `mapstructure:"secret_file"` // Path to a file holding the secret
}

// ResolveSecret returns the secret bytes from exactly one configured source.
func ResolveSecret(cfg SecretConfig) ([]byte, error) {
	switch {
	case cfg.Secret != "" && cfg.SecretFile != "":
		return nil, ErrAmbiguousSecret
	case cfg.Secret != "":
		return []byte(cfg.Secret), nil
	case cfg.SecretFile != "":
		return LoadSecretFromFile(cfg.SecretFile)
	default:
		return nil, ErrNoSecret
	}
}

// NewVerifier resolves the secret and returns a TokenVerifier holding a copy of it.
func NewVerifier(cfg SecretConfig) (*slotbox.TokenVerifier, error) {
	secret, err := ResolveSecret(cfg)
	if err != nil {
		return nil, fmt.Errorf("new verifier: %w", err)
	}
	return slotbox.NewTokenVerifier(secret), nil
}
