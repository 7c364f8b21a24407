package userconfig

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/stackfinder/stackfinder/internal/textutil"
)

const (
	configDirName  = "stackfinder"
	configFileName = "config.json"
)

// UserConfig is the operator's local configuration stored in
// ~/.config/stackfinder/config.json
type UserConfig struct {
	APIURL string `json:"api_url"`
}

// GetConfigPath returns the path to the user config file
func GetConfigPath() (string, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get user home directory: %w", err)
	}

	configDir := filepath.Join(homeDir, ".config", configDirName)
	return filepath.Join(configDir, configFileName), nil
}

// Load reads the user configuration file
func Load() (*UserConfig, error) {
	configPath, err := GetConfigPath()
	if err != nil {
		return nil, err
	}

	// If config doesn't exist, return empty config
	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		return &UserConfig{}, nil
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read user config file: %w", err)
	}

	var cfg UserConfig
	if err := json.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse user config file: %w", err)
	}

	return &cfg, nil
}

// Save writes the user configuration to a file
func Save(cfg *UserConfig) error {
	configPath, err := GetConfigPath()
	if err != nil {
		return err
	}

	configDir := filepath.Dir(configPath)
	if err := os.MkdirAll(configDir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal user config: %w", err)
	}

	if err := os.WriteFile(configPath, data, 0644); err != nil {
		return fmt.Errorf("failed to write user config file: %w", err)
	}

	return nil
}

// SetAPIURL normalizes and saves the backend API base URL.
func SetAPIURL(raw string) (string, error) {
	normalized, ok := textutil.NormalizeAPIBaseURL(raw)
	if !ok {
		return "", fmt.Errorf("API URL cannot be blank")
	}

	cfg, err := Load()
	if err != nil {
		return "", err
	}

	cfg.APIURL = normalized
	if err := Save(cfg); err != nil {
		return "", err
	}
	return normalized, nil
}

// ResolveAPIURL returns the backend API base URL: the STACKFINDER_API_URL
// environment variable wins, then the saved config.
func ResolveAPIURL() (string, error) {
	if normalized, ok := textutil.NormalizeAPIBaseURL(os.Getenv("STACKFINDER_API_URL")); ok {
		return normalized, nil
	}

	cfg, err := Load()
	if err != nil {
		return "", err
	}
	if cfg.APIURL == "" {
		return "", fmt.Errorf("no API URL configured. Run 'stackfinder init' or set STACKFINDER_API_URL")
	}
	return cfg.APIURL, nil
}
