package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"chemclip/pkg/errors"

	"gopkg.in/yaml.v3"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{
		"CHEMCLIP_BINARY_FORMATS",
		"CHEMCLIP_RETRIES",
		"CHEMCLIP_RETRY_DELAY",
		"CHEMCLIP_HISTORY_PATH",
		"CHEMCLIP_HISTORY_ENABLED",
		"CHEMCLIP_LOG_LEVEL",
		"CHEMCLIP_PROFILE",
	} {
		t.Setenv(key, "")
	}
}

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("Failed to write test config file: %v", err)
	}
	return path
}

func TestLoad_Defaults(t *testing.T) {
	clearEnv(t)

	cfg, err := loadFromPath(filepath.Join(t.TempDir(), "missing.yaml"))
	if err != nil {
		t.Fatalf("loadFromPath() failed: %v", err)
	}

	if len(cfg.Clipboard.BinaryFormats) != 1 || cfg.Clipboard.BinaryFormats[0] != FormatCDX {
		t.Errorf("BinaryFormats = %v, want [CDX]", cfg.Clipboard.BinaryFormats)
	}
	if cfg.Clipboard.Retries != DefaultRetries {
		t.Errorf("Retries = %d, want %d", cfg.Clipboard.Retries, DefaultRetries)
	}
	if cfg.Clipboard.RetryDelay != DefaultRetryDelay {
		t.Errorf("RetryDelay = %v, want %v", cfg.Clipboard.RetryDelay, DefaultRetryDelay)
	}
	if cfg.LogLevel != DefaultLogLevel {
		t.Errorf("LogLevel = %q, want %q", cfg.LogLevel, DefaultLogLevel)
	}
	if !cfg.History.IsEnabled() {
		t.Error("history should be enabled by default")
	}
	if !strings.HasSuffix(cfg.History.Path, filepath.Join("chemclip", "history.db")) {
		t.Errorf("History.Path = %q", cfg.History.Path)
	}
}

func TestLoad_File(t *testing.T) {
	clearEnv(t)
	path := writeConfig(t, `clipboard:
  binary_formats: ["CDX", "ChemDraw Interchange Format"]
  retries: 3
  retry_delay: 100ms
history:
  enabled: false
  path: /tmp/chemclip-history.db
log_level: debug
`)

	cfg, err := loadFromPath(path)
	if err != nil {
		t.Fatalf("loadFromPath() failed: %v", err)
	}

	if len(cfg.Clipboard.BinaryFormats) != 2 || cfg.Clipboard.BinaryFormats[1] != "ChemDraw Interchange Format" {
		t.Errorf("BinaryFormats = %v", cfg.Clipboard.BinaryFormats)
	}
	if cfg.Clipboard.Retries != 3 {
		t.Errorf("Retries = %d, want 3", cfg.Clipboard.Retries)
	}
	if cfg.Clipboard.RetryDelay != 100*time.Millisecond {
		t.Errorf("RetryDelay = %v, want 100ms", cfg.Clipboard.RetryDelay)
	}
	if cfg.History.IsEnabled() {
		t.Error("history should be disabled")
	}
	if cfg.History.Path != "/tmp/chemclip-history.db" {
		t.Errorf("History.Path = %q", cfg.History.Path)
	}
	if cfg.LogLevel != "debug" {
		t.Errorf("LogLevel = %q, want debug", cfg.LogLevel)
	}
}

func TestLoad_EnvironmentOverrides(t *testing.T) {
	clearEnv(t)
	path := writeConfig(t, `clipboard:
  retries: 1
`)
	t.Setenv("CHEMCLIP_BINARY_FORMATS", "CDX,ChemDraw Interchange Format")
	t.Setenv("CHEMCLIP_RETRIES", "5")
	t.Setenv("CHEMCLIP_RETRY_DELAY", "1s")
	t.Setenv("CHEMCLIP_HISTORY_ENABLED", "false")
	t.Setenv("CHEMCLIP_HISTORY_PATH", "/var/tmp/h.db")
	t.Setenv("CHEMCLIP_LOG_LEVEL", "warn")

	cfg, err := loadFromPath(path)
	if err != nil {
		t.Fatalf("loadFromPath() failed: %v", err)
	}

	if len(cfg.Clipboard.BinaryFormats) != 2 {
		t.Errorf("BinaryFormats = %v", cfg.Clipboard.BinaryFormats)
	}
	if cfg.Clipboard.Retries != 5 {
		t.Errorf("Retries = %d, want 5", cfg.Clipboard.Retries)
	}
	if cfg.Clipboard.RetryDelay != time.Second {
		t.Errorf("RetryDelay = %v, want 1s", cfg.Clipboard.RetryDelay)
	}
	if cfg.History.IsEnabled() {
		t.Error("history should be disabled by env")
	}
	if cfg.History.Path != "/var/tmp/h.db" {
		t.Errorf("History.Path = %q", cfg.History.Path)
	}
	if cfg.LogLevel != "warn" {
		t.Errorf("LogLevel = %q, want warn", cfg.LogLevel)
	}
}

func TestLoad_Profile(t *testing.T) {
	clearEnv(t)
	path := writeConfig(t, `clipboard:
  retries: 1
active_profile: eln
profiles:
  - name: eln
    clipboard:
      binary_formats: ["ChemDraw Interchange Format"]
      retries: 4
  - name: plain
    clipboard:
      retries: 2
`)

	cfg, err := loadFromPath(path)
	if err != nil {
		t.Fatalf("loadFromPath() failed: %v", err)
	}
	if cfg.Clipboard.Retries != 4 {
		t.Errorf("active profile Retries = %d, want 4", cfg.Clipboard.Retries)
	}
	if len(cfg.Clipboard.BinaryFormats) != 2 || cfg.Clipboard.BinaryFormats[1] != "ChemDraw Interchange Format" {
		t.Errorf("BinaryFormats = %v, want CDX then the profile format", cfg.Clipboard.BinaryFormats)
	}

	cfg, err = loadFromPath(path, "plain")
	if err != nil {
		t.Fatalf("loadFromPath(plain) failed: %v", err)
	}
	if cfg.Clipboard.Retries != 2 {
		t.Errorf("explicit profile Retries = %d, want 2", cfg.Clipboard.Retries)
	}

	t.Setenv("CHEMCLIP_PROFILE", "missing")
	if _, err := loadFromPath(path); !errors.IsExitCode(err, errors.ExitCodeConfig) {
		t.Errorf("unknown profile error = %v, want config error", err)
	}
}

func TestLoad_Invalid(t *testing.T) {
	clearEnv(t)
	tests := []struct {
		name    string
		content string
		code    errors.ExitCode
	}{
		{"bad yaml", "clipboard: [unterminated", errors.ExitCodeConfig},
		{"negative retries", "clipboard:\n  retries: -1\n", errors.ExitCodeConfig},
		{"blank format name", "clipboard:\n  binary_formats: [\"\", \"ChemDraw Interchange Format\"]\n", errors.ExitCodeConfig},
		{"whitespace format name", "clipboard:\n  binary_formats: [\"CDX\", \"  \"]\n", errors.ExitCodeConfig},
		{"long format name", "clipboard:\n  binary_formats: [\"" + strings.Repeat("x", 300) + "\"]\n", errors.ExitCodeConfig},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := loadFromPath(writeConfig(t, tt.content))
			if !errors.IsExitCode(err, tt.code) {
				t.Errorf("loadFromPath() error = %v, want code %d", err, tt.code)
			}
		})
	}
}

func TestProfileManagement(t *testing.T) {
	cfg := &Config{}

	if err := cfg.AddProfile(Profile{Name: "eln"}); err != nil {
		t.Fatalf("AddProfile() failed: %v", err)
	}
	if err := cfg.AddProfile(Profile{Name: "eln"}); err == nil {
		t.Error("AddProfile() should reject duplicates")
	}
	if err := cfg.SetProfile("eln"); err != nil {
		t.Fatalf("SetProfile() failed: %v", err)
	}
	if !cfg.IsProfileActive("eln") {
		t.Error("eln should be active")
	}
	if err := cfg.RemoveProfile("eln"); err == nil {
		t.Error("RemoveProfile() should refuse the active profile")
	}
	if err := cfg.SetProfile(""); err != nil {
		t.Fatalf("SetProfile(\"\") failed: %v", err)
	}
	if err := cfg.RemoveProfile("eln"); err != nil {
		t.Fatalf("RemoveProfile() failed: %v", err)
	}
	if len(cfg.ListProfiles()) != 0 {
		t.Errorf("ListProfiles() = %v, want empty", cfg.ListProfiles())
	}
	if err := cfg.SetProfile("ghost"); err == nil {
		t.Error("SetProfile() should fail for unknown profile")
	}
}

func TestSaveRoundTrip(t *testing.T) {
	clearEnv(t)
	path := filepath.Join(t.TempDir(), "nested", "config.yaml")
	disabled := false
	cfg := &Config{
		Clipboard: ClipboardConfig{BinaryFormats: []string{"CDX"}, Retries: 2, RetryDelay: time.Second},
		History:   HistoryConfig{Enabled: &disabled},
		Profiles:  []Profile{{Name: "eln"}},
	}

	if err := saveToPath(path, cfg); err != nil {
		t.Fatalf("saveToPath() failed: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile() failed: %v", err)
	}
	var raw map[string]interface{}
	if err := yaml.Unmarshal(data, &raw); err != nil {
		t.Fatalf("saved config is not valid yaml: %v", err)
	}

	loaded, err := loadFromPath(path)
	if err != nil {
		t.Fatalf("loadFromPath() failed: %v", err)
	}
	if loaded.Clipboard.Retries != 2 || loaded.Clipboard.RetryDelay != time.Second {
		t.Errorf("loaded clipboard = %+v", loaded.Clipboard)
	}
	if loaded.History.IsEnabled() {
		t.Error("history enabled flag lost")
	}
}

func TestLoad_FormatsNormalized(t *testing.T) {
	clearEnv(t)
	path := writeConfig(t, `clipboard:
  binary_formats: ["ChemDraw Interchange Format", " CDX ", "ChemDraw Interchange Format"]
`)

	cfg, err := loadFromPath(path)
	if err != nil {
		t.Fatalf("loadFromPath() failed: %v", err)
	}
	want := []string{FormatCDX, "ChemDraw Interchange Format"}
	if strings.Join(cfg.Clipboard.BinaryFormats, "|") != strings.Join(want, "|") {
		t.Errorf("BinaryFormats = %q, want %q", cfg.Clipboard.BinaryFormats, want)
	}
}

func TestLoad_BlankFormatFromEnv(t *testing.T) {
	clearEnv(t)
	t.Setenv("CHEMCLIP_BINARY_FORMATS", "CDX,,ChemDraw Interchange Format")

	_, err := loadFromPath(filepath.Join(t.TempDir(), "missing.yaml"))
	if !errors.IsExitCode(err, errors.ExitCodeConfig) {
		t.Errorf("loadFromPath() error = %v, want config error", err)
	}
}

func TestNormalizeFormats(t *testing.T) {
	tests := []struct {
		name string
		in   []string
		want []string
	}{
		{"empty", nil, []string{"CDX"}},
		{"cdx moved first", []string{"ChemDraw Interchange Format", "CDX"}, []string{"CDX", "ChemDraw Interchange Format"}},
		{"blanks and duplicates dropped", []string{"", "ChemDraw Interchange Format", " ", "ChemDraw Interchange Format"}, []string{"CDX", "ChemDraw Interchange Format"}},
		{"spaces trimmed", []string{" CDX", "Other "}, []string{"CDX", "Other"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := NormalizeFormats(tt.in)
			if strings.Join(got, "|") != strings.Join(tt.want, "|") {
				t.Errorf("NormalizeFormats(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}
