package keybackend

import (
	"bytes"
	"fmt"
	"os"
)

// LoadSecretFromFile reads the shared upload secret from path.
// A single trailing newline ("\n" or "\r\n") is removed so that files written
// by editors or `echo` hold the same secret as the inline form. Any other
// whitespace is part of the secret.
func LoadSecretFromFile(path string) ([]byte, error) {
	data, err := os.ReadFile(path) //nolint:gosec // Path is from trusted config file
	if err != nil {
		return nil, fmt.Errorf("read secret file: %w", err)
	}

	if trimmed, ok := bytes.CutSuffix(data, []byte("\r\n")); ok {
		data = trimmed
	} else {
		data, _ = bytes.CutSuffix(data, []byte("\n"))
	}

	if len(data) == 0 {
		return nil, fmt.Errorf("read secret file %s: %w", path, ErrEmptySecret)
	}

	return data, nil
}
