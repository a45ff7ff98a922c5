package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"chemclip/pkg/errors"

	"gopkg.in/yaml.v3"
)

const (
	// FormatCDX is always the first registered binary format.
	FormatCDX = "CDX"

	DefaultRetries    = 0
	DefaultRetryDelay = 250 * time.Millisecond
	DefaultLogLevel   = "info"
)

// Profile is a named set of clipboard settings for a paste target, e.g. an
// ELN that looks for "ChemDraw Interchange Format" instead of "CDX".
type Profile struct {
	Name      string          `yaml:"name"`
	Clipboard ClipboardConfig `yaml:"clipboard"`
	Default   bool            `yaml:"default,omitempty"`
}

// Config holds the complete configuration including profiles
type Config struct {
	Clipboard     ClipboardConfig `yaml:"clipboard"`
	History       HistoryConfig   `yaml:"history"`
	LogLevel      string          `yaml:"log_level,omitempty"`
	Profiles      []Profile       `yaml:"profiles,omitempty"`
	ActiveProfile string          `yaml:"active_profile,omitempty"`
}

type ClipboardConfig struct {
	// BinaryFormats are the registered names the CDX payload is published
	// under. "CDX" is always present and first.
	BinaryFormats []string      `yaml:"binary_formats,omitempty"`
	Retries       int           `yaml:"retries,omitempty"`
	RetryDelay    time.Duration `yaml:"retry_delay,omitempty"`
}

type HistoryConfig struct {
	Enabled *bool  `yaml:"enabled,omitempty"`
	Path    string `yaml:"path,omitempty"`
}

// IsEnabled defaults to true when unset.
func (h HistoryConfig) IsEnabled() bool {
	return h.Enabled == nil || *h.Enabled
}

// Load loads the configuration, optionally with a specific profile
func Load(profileName ...string) (*Config, error) {
	configPath, err := GetConfigPath()
	if err != nil {
		return nil, errors.NewWithError(errors.ExitCodeConfig, "failed to get config path", err)
	}
	return loadFromPath(configPath, profileName...)
}

// LoadFile reads the config file as written, without environment
// overrides, profile merging or defaults. Use it for configs that are
// saved back.
func LoadFile() (*Config, error) {
	configPath, err := GetConfigPath()
	if err != nil {
		return nil, errors.NewWithError(errors.ExitCodeConfig, "failed to get config path", err)
	}
	cfg := &Config{}
	if err := loadConfigFile(configPath, cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// GetConfigPath returns the path to the config file
func GetConfigPath() (string, error) {
	configDir, err := os.UserConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(configDir, "chemclip", "config.yaml"), nil
}

// DefaultHistoryPath returns the journal location under the user cache dir.
func DefaultHistoryPath() (string, error) {
	cacheDir, err := os.UserCacheDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(cacheDir, "chemclip", "history.db"), nil
}

// Save saves the configuration to file
func Save(cfg *Config) error {
	configPath, err := GetConfigPath()
	if err != nil {
		return err
	}
	return saveToPath(configPath, cfg)
}

func saveToPath(configPath string, cfg *Config) error {
	configDir := filepath.Dir(configPath)
	if err := os.MkdirAll(configDir, 0755); err != nil {
		return errors.NewWithError(errors.ExitCodeFileOperation, "failed to create config directory", err)
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return errors.NewWithError(errors.ExitCodeConfig, "failed to marshal config", err)
	}

	if err := os.WriteFile(configPath, data, 0644); err != nil {
		return errors.NewWithError(errors.ExitCodeFileOperation, "failed to write config file", err)
	}

	return nil
}

// GetProfile returns a profile by name
func (c *Config) GetProfile(name string) (*Profile, error) {
	for i := range c.Profiles {
		if c.Profiles[i].Name == name {
			return &c.Profiles[i], nil
		}
	}
	return nil, fmt.Errorf("profile '%s' not found", name)
}

// SetProfile sets the active profile
func (c *Config) SetProfile(name string) error {
	if name == "" {
		c.ActiveProfile = ""
		return nil
	}

	if _, err := c.GetProfile(name); err != nil {
		return err
	}

	c.ActiveProfile = name
	return nil
}

// AddProfile adds a new profile
func (c *Config) AddProfile(profile Profile) error {
	if _, err := c.GetProfile(profile.Name); err == nil {
		return fmt.Errorf("profile '%s' already exists", profile.Name)
	}

	c.Profiles = append(c.Profiles, profile)
	return nil
}

// RemoveProfile removes a profile
func (c *Config) RemoveProfile(name string) error {
	if c.ActiveProfile == name {
		return fmt.Errorf("cannot remove active profile '%s'", name)
	}

	for i, p := range c.Profiles {
		if p.Name == name {
			c.Profiles = append(c.Profiles[:i], c.Profiles[i+1:]...)
			return nil
		}
	}
	return fmt.Errorf("profile '%s' not found", name)
}

// ListProfiles returns a list of profile names
func (c *Config) ListProfiles() []string {
	names := make([]string, 0, len(c.Profiles))
	for _, p := range c.Profiles {
		names = append(names, p.Name)
	}
	return names
}

// IsProfileActive returns true if the given profile is active
func (c *Config) IsProfileActive(name string) bool {
	return c.ActiveProfile == name
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.Atoi(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}

func loadFromPath(configPath string, profileName ...string) (*Config, error) {
	cfg := &Config{}

	if err := loadConfigFile(configPath, cfg); err != nil {
		return nil, err
	}

	applyEnvironmentOverrides(cfg)

	// Apply profile if specified or if there's an active profile
	targetProfile := ""
	if len(profileName) > 0 && profileName[0] != "" {
		targetProfile = profileName[0]
	} else if cfg.ActiveProfile != "" {
		targetProfile = cfg.ActiveProfile
	}

	if targetProfile != "" {
		profile, err := cfg.GetProfile(targetProfile)
		if err != nil {
			return nil, errors.ConfigError(err.Error())
		}
		applyProfileConfig(cfg, profile)
	}

	applyDefaults(cfg)

	if err := validateConfig(cfg); err != nil {
		return nil, err
	}
	cfg.Clipboard.BinaryFormats = NormalizeFormats(cfg.Clipboard.BinaryFormats)

	return cfg, nil
}

func applyProfileConfig(cfg *Config, profile *Profile) {
	if len(profile.Clipboard.BinaryFormats) > 0 {
		cfg.Clipboard.BinaryFormats = profile.Clipboard.BinaryFormats
	}
	if profile.Clipboard.Retries != 0 {
		cfg.Clipboard.Retries = profile.Clipboard.Retries
	}
	if profile.Clipboard.RetryDelay != 0 {
		cfg.Clipboard.RetryDelay = profile.Clipboard.RetryDelay
	}
}

// loadConfigFile reads and parses the config file from the given path
func loadConfigFile(path string, cfg *Config) error {
	if _, err := os.Stat(path); err != nil {
		// File doesn't exist, that's okay - defaults and env vars apply
		return nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return errors.NewWithError(errors.ExitCodeFileOperation, "failed to read config file", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return errors.NewWithError(errors.ExitCodeConfig, "failed to parse config file", err)
	}

	return nil
}

// applyEnvironmentOverrides applies environment variable overrides to the config
func applyEnvironmentOverrides(cfg *Config) {
	if value := os.Getenv("CHEMCLIP_BINARY_FORMATS"); value != "" {
		cfg.Clipboard.BinaryFormats = strings.Split(value, ",")
	}
	cfg.Clipboard.Retries = getEnvInt("CHEMCLIP_RETRIES", cfg.Clipboard.Retries)
	if value := os.Getenv("CHEMCLIP_RETRY_DELAY"); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			cfg.Clipboard.RetryDelay = d
		}
	}
	cfg.History.Path = getEnv("CHEMCLIP_HISTORY_PATH", cfg.History.Path)
	if value := os.Getenv("CHEMCLIP_HISTORY_ENABLED"); value != "" {
		if enabled, err := strconv.ParseBool(value); err == nil {
			cfg.History.Enabled = &enabled
		}
	}
	cfg.LogLevel = getEnv("CHEMCLIP_LOG_LEVEL", cfg.LogLevel)

	// Profile can be overridden via environment
	if profileEnv := os.Getenv("CHEMCLIP_PROFILE"); profileEnv != "" {
		cfg.ActiveProfile = profileEnv
	}
}

func applyDefaults(cfg *Config) {
	if len(cfg.Clipboard.BinaryFormats) == 0 {
		cfg.Clipboard.BinaryFormats = []string{FormatCDX}
	}
	if cfg.Clipboard.RetryDelay == 0 {
		cfg.Clipboard.RetryDelay = DefaultRetryDelay
	}
	if cfg.LogLevel == "" {
		cfg.LogLevel = DefaultLogLevel
	}
	if cfg.History.Path == "" {
		if path, err := DefaultHistoryPath(); err == nil {
			cfg.History.Path = path
		}
	}
}

// NormalizeFormats puts FormatCDX first and drops surrounding spaces,
// blanks and duplicates.
func NormalizeFormats(names []string) []string {
	out := []string{FormatCDX}
	seen := map[string]bool{FormatCDX: true}
	for _, n := range names {
		n = strings.TrimSpace(n)
		if n == "" || seen[n] {
			continue
		}
		seen[n] = true
		out = append(out, n)
	}
	return out
}

// validateConfig ensures configured values are usable
func validateConfig(cfg *Config) error {
	if cfg.Clipboard.Retries < 0 {
		return errors.ConfigError("clipboard retries must not be negative. Fix it in the config file or CHEMCLIP_RETRIES")
	}
	if cfg.Clipboard.RetryDelay < 0 {
		return errors.ConfigError("clipboard retry delay must not be negative. Fix it in the config file or CHEMCLIP_RETRY_DELAY")
	}
	for _, name := range cfg.Clipboard.BinaryFormats {
		if strings.TrimSpace(name) == "" {
			return errors.ConfigError("clipboard binary format names must not be blank. Fix clipboard.binary_formats or CHEMCLIP_BINARY_FORMATS")
		}
		if len(name) > 255 {
			return errors.ConfigError(fmt.Sprintf("clipboard format name too long: %.32q...", name))
		}
	}
	if cfg.History.IsEnabled() && cfg.History.Path == "" {
		return errors.ConfigError("history path could not be determined. Set history.path or CHEMCLIP_HISTORY_PATH")
	}
	return nil
}
