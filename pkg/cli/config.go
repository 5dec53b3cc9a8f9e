package cli

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/goccy/go-yaml"
	"github.com/google/uuid"
)

const (
	// DefaultBaseDir is the configuration directory name under $HOME.
	DefaultBaseDir = ".tomo"
	// DefaultConfigFile is the configuration filename.
	DefaultConfigFile = "config.yaml"
)

// Config is the tomo CLI configuration. The device id is generated on
// first load and persisted, so one machine keeps a stable identity
// across calls.
type Config struct {
	// ServerURL is the realtime websocket endpoint.
	ServerURL string `yaml:"server_url,omitempty"`

	// APIURL is the REST base URL for character and media lookups.
	APIURL string `yaml:"api_url,omitempty"`

	// DeviceID identifies this client in the auth handshake.
	DeviceID string `yaml:"device_id,omitempty"`

	// DisplayName is sent with auth for the server to address the user.
	DisplayName string `yaml:"display_name,omitempty"`

	// CharacterID selects the default character to call.
	CharacterID string `yaml:"character_id,omitempty"`

	// Location is an optional free-form locality hint.
	Location string `yaml:"location,omitempty"`

	configPath string
}

// LoadConfig loads the configuration from ~/.tomo/config.yaml, creating
// it with a fresh device id if absent.
func LoadConfig() (*Config, error) {
	return LoadConfigWithPath("")
}

// LoadConfigWithPath loads configuration from a custom path.
func LoadConfigWithPath(customPath string) (*Config, error) {
	configPath := customPath
	if configPath == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("cli: get home directory: %w", err)
		}
		configPath = filepath.Join(home, DefaultBaseDir, DefaultConfigFile)
	}

	if err := os.MkdirAll(filepath.Dir(configPath), 0755); err != nil {
		return nil, fmt.Errorf("cli: create config directory: %w", err)
	}

	cfg := &Config{configPath: configPath}

	data, err := os.ReadFile(configPath)
	if err != nil {
		if os.IsNotExist(err) {
			cfg.DeviceID = uuid.NewString()
			return cfg, cfg.Save()
		}
		return nil, fmt.Errorf("cli: read config: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("cli: parse config: %w", err)
	}
	cfg.configPath = configPath

	if cfg.DeviceID == "" {
		cfg.DeviceID = uuid.NewString()
		if err := cfg.Save(); err != nil {
			return nil, err
		}
	}
	return cfg, nil
}

// Save writes the configuration to disk.
func (c *Config) Save() error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("cli: marshal config: %w", err)
	}
	if err := os.WriteFile(c.configPath, data, 0600); err != nil {
		return fmt.Errorf("cli: write config: %w", err)
	}
	return nil
}

// Path returns the config file path.
func (c *Config) Path() string {
	return c.configPath
}

// Keys returns the settable configuration keys, sorted.
func (c *Config) Keys() []string {
	keys := []string{"server_url", "api_url", "device_id", "display_name", "character_id", "location"}
	sort.Strings(keys)
	return keys
}

// Get returns the value for a configuration key.
func (c *Config) Get(key string) (string, error) {
	switch key {
	case "server_url":
		return c.ServerURL, nil
	case "api_url":
		return c.APIURL, nil
	case "device_id":
		return c.DeviceID, nil
	case "display_name":
		return c.DisplayName, nil
	case "character_id":
		return c.CharacterID, nil
	case "location":
		return c.Location, nil
	default:
		return "", fmt.Errorf("cli: unknown config key %q", key)
	}
}

// Set updates a configuration key and saves.
func (c *Config) Set(key, value string) error {
	switch key {
	case "server_url":
		c.ServerURL = value
	case "api_url":
		c.APIURL = value
	case "device_id":
		c.DeviceID = value
	case "display_name":
		c.DisplayName = value
	case "character_id":
		c.CharacterID = value
	case "location":
		c.Location = value
	default:
		return fmt.Errorf("cli: unknown config key %q", key)
	}
	return c.Save()
}
