package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// File is the subset of Config written by the configure command. Keys match
// the ones Load reads, so a saved File is a valid config file.
type File struct {
	Server  FileServer  `yaml:"server"`
	Storage FileStorage `yaml:"storage"`
	Auth    FileAuth    `yaml:"auth"`
	Ledger  *FileLedger `yaml:"ledger,omitempty"`
}

type FileServer struct {
	Port          int   `yaml:"port"`
	MaxUploadSize int64 `yaml:"max_upload_size,omitempty"`
}

type FileStorage struct {
	Path string `yaml:"path"`
}

type FileAuth struct {
	Secret     string `yaml:"secret,omitempty"`
	SecretFile string `yaml:"secret_file,omitempty"`
}

type FileLedger struct {
	Enabled bool       `yaml:"enabled"`
	Type    string     `yaml:"type"`
	DSN     string     `yaml:"dsn"`
	Tables  FileTables `yaml:"tables"`
}

type FileTables struct {
	Uploads string `yaml:"uploads"`
}

// Save writes the file to path with owner-only permissions, since it may
// hold the upload secret. The parent directory is created if needed.
func (f *File) Save(path string) error {
	cleanPath := filepath.Clean(path)

	dir := filepath.Dir(cleanPath)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return fmt.Errorf("create config directory: %w", err)
	}

	data, err := yaml.Marshal(f)
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}

	if err := os.WriteFile(cleanPath, data, 0o600); err != nil {
		return fmt.Errorf("write config file: %w", err)
	}

	return nil
}

// LoadFile reads a config file written by Save.
func LoadFile(path string) (*File, error) {
	cleanPath := filepath.Clean(path)
	data, err := os.ReadFile(cleanPath) //#nosec G304 -- path is user-provided config file
	if err != nil {
		return nil, fmt.Errorf("read config file: %w", err)
	}

	var f File
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parse config file: %w", err)
	}

	return &f, nil
}
