package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds the global service configuration
type Config struct {
	// General configuration
	General struct {
		// DataDir is the root of all persisted state
		DataDir string `yaml:"dataDir"`

		// LogLevel is the logging level
		LogLevel string `yaml:"logLevel"`

		// Development enables development mode
		Development bool `yaml:"development"`
	} `yaml:"general"`

	// Store configuration for the shared JSON documents
	Store struct {
		// PasswordFile is the credentials document path
		PasswordFile string `yaml:"passwordFile"`

		// PasswordLockFile guards the credentials document
		PasswordLockFile string `yaml:"passwordLockFile"`

		// StateFile is the contest window document path
		StateFile string `yaml:"stateFile"`

		// StateLockFile guards the contest window document
		StateLockFile string `yaml:"stateLockFile"`

		// LockTimeoutSeconds bounds every lock acquisition
		LockTimeoutSeconds int `yaml:"lockTimeoutSeconds"`
	} `yaml:"store"`

	// Slots configuration for the submission slot trees
	Slots struct {
		// Dir is the root of the per-user slot trees
		Dir string `yaml:"dir"`

		// Count is the number of slots per user
		Count int `yaml:"count"`

		// MaxSubmissionBytes caps a single uploaded archive
		MaxSubmissionBytes int64 `yaml:"maxSubmissionBytes"`
	} `yaml:"slots"`

	// Accounts configuration
	Accounts struct {
		// GraceSeconds is the default forced-password-change grace period
		GraceSeconds int `yaml:"graceSeconds"`

		// GeneratedPasswordLength is the length of generated passwords
		GeneratedPasswordLength int `yaml:"generatedPasswordLength"`
	} `yaml:"accounts"`

	// Logging configuration
	Logging struct {
		Level       string `yaml:"level"` // "ERROR", "WARN", "INFO", "DEBUG"
		ChannelSize int    `yaml:"channelSize"`
	} `yaml:"logging"`
}

// DefaultConfig returns a default configuration
func DefaultConfig() *Config {
	c := &Config{}

	// General configuration
	c.General.DataDir = "./data"
	c.General.LogLevel = "info"
	c.General.Development = false

	// Store configuration
	c.Store.PasswordFile = "etc/passwd.json"
	c.Store.PasswordLockFile = "etc/lock.passwd.json"
	c.Store.StateFile = "etc/state.json"
	c.Store.StateLockFile = "etc/lock.state.json"
	c.Store.LockTimeoutSeconds = 13

	// Slots configuration
	c.Slots.Dir = "users"
	c.Slots.Count = 10
	c.Slots.MaxSubmissionBytes = 3999971

	// Accounts configuration
	c.Accounts.GraceSeconds = 72 * 3600
	c.Accounts.GeneratedPasswordLength = 20

	// Logging configuration defaults
	c.Logging.Level = "INFO"
	c.Logging.ChannelSize = 1000

	return c
}

// LoadConfig loads the configuration from a file
func LoadConfig(path string) (*Config, error) {
	// Check if the file exists
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return nil, fmt.Errorf("config file not found: %s", path)
	}

	// Read file
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	// Load the default configuration
	config := DefaultConfig()

	// Decode the YAML file
	if err := yaml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	// Complete relative paths
	if !filepath.IsAbs(config.General.DataDir) {
		dir, err := filepath.Abs(filepath.Dir(path))
		if err != nil {
			return nil, fmt.Errorf("failed to get absolute path: %w", err)
		}
		config.General.DataDir = filepath.Join(dir, config.General.DataDir)
	}

	if err := validateConfig(config); err != nil {
		return nil, err
	}

	return config, nil
}

// SaveConfig writes the configuration to a file
func SaveConfig(config *Config, path string) error {
	data, err := yaml.Marshal(config)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

func validateConfig(config *Config) error {
	if config.Store.LockTimeoutSeconds <= 0 {
		return fmt.Errorf("store.lockTimeoutSeconds must be positive")
	}
	if config.Slots.Count <= 0 {
		return fmt.Errorf("slots.count must be positive")
	}
	if config.Slots.MaxSubmissionBytes <= 0 {
		return fmt.Errorf("slots.maxSubmissionBytes must be positive")
	}
	if config.Accounts.GeneratedPasswordLength < 12 {
		return fmt.Errorf("accounts.generatedPasswordLength must be at least 12")
	}
	return nil
}

// resolve joins a configured path with the data directory unless it is
// already absolute.
func (c *Config) resolve(path string) string {
	if filepath.IsAbs(path) {
		return path
	}
	return filepath.Join(c.General.DataDir, path)
}

// PasswordFilePath returns the resolved credentials document path.
func (c *Config) PasswordFilePath() string { return c.resolve(c.Store.PasswordFile) }

// PasswordLockPath returns the resolved credentials lock file path.
func (c *Config) PasswordLockPath() string { return c.resolve(c.Store.PasswordLockFile) }

// StateFilePath returns the resolved contest window document path.
func (c *Config) StateFilePath() string { return c.resolve(c.Store.StateFile) }

// StateLockPath returns the resolved contest window lock file path.
func (c *Config) StateLockPath() string { return c.resolve(c.Store.StateLockFile) }

// SlotsDirPath returns the resolved root of the per-user slot trees.
func (c *Config) SlotsDirPath() string { return c.resolve(c.Slots.Dir) }

// LockTimeout returns the lock acquisition timeout as a duration.
func (c *Config) LockTimeout() time.Duration {
	return time.Duration(c.Store.LockTimeoutSeconds) * time.Second
}

// GracePeriod returns the default forced-password-change grace period.
func (c *Config) GracePeriod() time.Duration {
	return time.Duration(c.Accounts.GraceSeconds) * time.Second
}
