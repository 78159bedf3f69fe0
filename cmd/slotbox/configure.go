package main

import (
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"os"
	"strconv"

	"github.com/manifoldco/promptui"
	"github.com/spf13/cobra"

	"github.com/sagarc03/slotbox"
	"github.com/sagarc03/slotbox/config"
)

var configureOutput string

var configureCmd = &cobra.Command{
	Use:   "configure",
	Short: "Write a config file interactively",
	Long: `Prompt for the main settings and write them as a YAML config file.

You will be prompted for:
  - Storage directory
  - HTTP port
  - Upload secret (leave empty to generate one)
  - Whether to enable the upload ledger, and its database

The generated secret is printed once so it can be copied into the XMPP
server configuration.`,
	Args: cobra.NoArgs,
	RunE: runConfigure,
}

func init() {
	configureCmd.Flags().StringVarP(&configureOutput, "output", "o", "config.yaml", "path of the config file to write")
	rootCmd.AddCommand(configureCmd)
}

func runConfigure(_ *cobra.Command, _ []string) error {
	if _, err := os.Stat(configureOutput); err == nil {
		prompt := promptui.Prompt{
			Label:     fmt.Sprintf("%s already exists. Overwrite it", configureOutput),
			IsConfirm: true,
		}
		if _, promptErr := prompt.Run(); promptErr != nil {
			fmt.Println("Cancelled.")
			return nil //nolint:nilerr // User cancelled, not an error
		}
	}

	storagePrompt := promptui.Prompt{
		Label:    "Storage directory",
		Default:  "./data",
		Validate: requireValue("storage directory"),
	}
	storagePath, err := storagePrompt.Run()
	if err != nil {
		return handlePromptError(err)
	}

	portPrompt := promptui.Prompt{
		Label:    "HTTP port",
		Default:  "5708",
		Validate: validatePort,
	}
	portStr, err := portPrompt.Run()
	if err != nil {
		return handlePromptError(err)
	}
	port, _ := strconv.Atoi(portStr)

	secretPrompt := promptui.Prompt{
		Label: "Upload secret (empty to generate)",
		Mask:  '*',
	}
	secret, err := secretPrompt.Run()
	if err != nil {
		return handlePromptError(err)
	}
	generated := false
	if secret == "" {
		if secret, err = generateSecret(); err != nil {
			return err
		}
		generated = true
	}

	file := &config.File{
		Server:  config.FileServer{Port: port},
		Storage: config.FileStorage{Path: storagePath},
		Auth:    config.FileAuth{Secret: secret},
	}

	ledgerPrompt := promptui.Prompt{
		Label:     "Enable the upload ledger",
		IsConfirm: true,
	}
	if _, promptErr := ledgerPrompt.Run(); promptErr == nil {
		ledger, err := promptLedger()
		if err != nil {
			return handlePromptError(err)
		}
		file.Ledger = ledger
	} else if errors.Is(promptErr, promptui.ErrInterrupt) {
		return handlePromptError(promptErr)
	}

	if err := file.Save(configureOutput); err != nil {
		return fmt.Errorf("save config: %w", err)
	}

	fmt.Printf("Config written to %s\n", configureOutput)
	if generated {
		fmt.Printf("Generated upload secret: %s\n", secret)
		fmt.Println("Configure the same secret in your XMPP server's upload component.")
	}

	return nil
}

func promptLedger() (*config.FileLedger, error) {
	typeSelect := promptui.Select{
		Label: "Ledger database",
		Items: []string{"sqlite", "postgres"},
	}
	_, dbType, err := typeSelect.Run()
	if err != nil {
		return nil, err
	}

	dsnDefault := "slotbox.db"
	if dbType == "postgres" {
		dsnDefault = "postgres://slotbox@localhost:5432/slotbox?sslmode=disable"
	}
	dsnPrompt := promptui.Prompt{
		Label:    "Connection string",
		Default:  dsnDefault,
		Validate: requireValue("connection string"),
	}
	dsn, err := dsnPrompt.Run()
	if err != nil {
		return nil, err
	}

	tablePrompt := promptui.Prompt{
		Label:   "Table name",
		Default: "slotbox_uploads",
		Validate: func(input string) error {
			if !slotbox.IsValidTableName(input) {
				return errors.New("use lowercase letters, digits and underscores")
			}
			return nil
		},
	}
	table, err := tablePrompt.Run()
	if err != nil {
		return nil, err
	}

	return &config.FileLedger{
		Enabled: true,
		Type:    dbType,
		DSN:     dsn,
		Tables:  config.FileTables{Uploads: table},
	}, nil
}

func requireValue(name string) promptui.ValidateFunc {
	return func(input string) error {
		if input == "" {
			return fmt.Errorf("%s is required", name)
		}
		return nil
	}
}

func validatePort(input string) error {
	port, err := strconv.Atoi(input)
	if err != nil || port < 1 || port > 65535 {
		return errors.New("port must be a number between 1 and 65535")
	}
	return nil
}

// generateSecret returns 32 random bytes, hex encoded.
func generateSecret() (string, error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("generate secret: %w", err)
	}
	return hex.EncodeToString(buf), nil
}

// handlePromptError handles promptui errors.
func handlePromptError(err error) error {
	if errors.Is(err, promptui.ErrInterrupt) {
		fmt.Println("\nCancelled.")
		os.Exit(0)
	}
	if errors.Is(err, promptui.ErrAbort) {
		fmt.Println("Cancelled.")
		return nil
	}
	return err
}
