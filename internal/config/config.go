// Package config handles configuration loading, validation, and management for symlayer.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"

	"github.com/BurntSushi/toml"
)

// Version is the current configuration schema version.
const Version = 1

// ErrUnknownTemplate is returned when a first-level template name is neither
// built in nor defined by the custom tables file.
var ErrUnknownTemplate = errors.New("unknown first-level template")

// Config holds the complete keyboard configuration.
type Config struct {
	// Version is the configuration schema version for migrations.
	Version int `toml:"version" json:"version" yaml:"version"`

	// Modifiers configures the Shift/Alt/Sym gesture thresholds.
	Modifiers ModifiersConfig `toml:"modifiers" json:"modifiers" yaml:"modifiers"`

	// Multipress configures multi-tap substitution.
	Multipress MultipressConfig `toml:"multipress" json:"multipress" yaml:"multipress"`

	// Keys configures key behavior that is not tied to one modifier.
	Keys KeysConfig `toml:"keys" json:"keys" yaml:"keys"`

	// DotCtrl assigns the roles of the dot/Ctrl triple key.
	DotCtrl TripleConfig `toml:"dot_ctrl" json:"dot_ctrl" yaml:"dot_ctrl"`

	// EmojiMeta assigns the roles of the emoji/Meta triple key.
	EmojiMeta TripleConfig `toml:"emoji_meta" json:"emoji_meta" yaml:"emoji_meta"`

	// Logging configuration.
	Logging LoggingConfig `toml:"logging" json:"logging" yaml:"logging"`

	// Trace configures session recording.
	Trace TraceConfig `toml:"trace" json:"trace" yaml:"trace"`

	// mu protects concurrent access to the config.
	mu sync.RWMutex `toml:"-" json:"-" yaml:"-"`
}

// ModifiersConfig holds the modifier gesture thresholds.
type ModifiersConfig struct {
	// LockThresholdMs is the maximum gap between two presses of a modifier
	// for the second to toggle its lock.
	LockThresholdMs int `toml:"lock_threshold_ms" json:"lock_threshold_ms" yaml:"lock_threshold_ms"`

	// NextThresholdMs is the maximum tap duration that arms a modifier for
	// the next key only.
	NextThresholdMs int `toml:"next_threshold_ms" json:"next_threshold_ms" yaml:"next_threshold_ms"`
}

// MultipressConfig holds multi-tap substitution settings.
type MultipressConfig struct {
	// ThresholdMs is the multipress window.
	ThresholdMs int `toml:"threshold_ms" json:"threshold_ms" yaml:"threshold_ms"`

	// UseFirstLevel enables level-0 substitutions.
	UseFirstLevel bool `toml:"use_first_level" json:"use_first_level" yaml:"use_first_level"`

	// DotSpace turns a quick double space into ". ".
	DotSpace bool `toml:"dot_space" json:"dot_space" yaml:"dot_space"`

	// FirstLevelOnlyVowels disables level-0 substitutions on consonants.
	FirstLevelOnlyVowels bool `toml:"first_level_only_vowels" json:"first_level_only_vowels" yaml:"first_level_only_vowels"`

	// Ligatures enables "ae" → "æ" and "oe" → "œ".
	Ligatures bool `toml:"ligatures" json:"ligatures" yaml:"ligatures"`

	// FirstLevelTemplate names the level-0 table.
	FirstLevelTemplate string `toml:"first_level_template" json:"first_level_template" yaml:"first_level_template"`

	// CustomTables is an optional JSON file with extra templates.
	CustomTables string `toml:"custom_tables" json:"custom_tables" yaml:"custom_tables"`
}

// KeysConfig holds general key behavior.
type KeysConfig struct {
	// AutoCapitalize arms auto-caps at the start of sentences.
	AutoCapitalize bool `toml:"auto_capitalize" json:"auto_capitalize" yaml:"auto_capitalize"`

	// AltKeyOverride resolves Alt combinations from the printed key caps
	// instead of the system keymap.
	AltKeyOverride bool `toml:"alt_key_override" json:"alt_key_override" yaml:"alt_key_override"`

	// CyrillicLayer enables the Cyrillic layer toggled by long-pressing
	// Right Shift.
	CyrillicLayer bool `toml:"cyrillic_layer" json:"cyrillic_layer" yaml:"cyrillic_layer"`

	// ToggleLongPressMs is the hold duration that toggles the Cyrillic layer.
	ToggleLongPressMs int `toml:"toggle_long_press_ms" json:"toggle_long_press_ms" yaml:"toggle_long_press_ms"`

	// DeviceClass is "titan" or "mp01".
	DeviceClass string `toml:"device_class" json:"device_class" yaml:"device_class"`
}

// TripleConfig assigns roles to a triple key. Valid roles are none, period,
// voice, ctrl, emoji, 0 and meta.
type TripleConfig struct {
	Tap       string `toml:"tap" json:"tap" yaml:"tap"`
	LongPress string `toml:"long_press" json:"long_press" yaml:"long_press"`
	Hold      string `toml:"hold" json:"hold" yaml:"hold"`
}

// LoggingConfig holds logging configuration.
type LoggingConfig struct {
	// Level is the minimum log level: "debug", "info", "warn", "error".
	Level string `toml:"level" json:"level" yaml:"level"`

	// Format is the log format: "text" or "json".
	Format string `toml:"format" json:"format" yaml:"format"`

	// Output is the log output: "stdout", "stderr", "file", or "both".
	Output string `toml:"output" json:"output" yaml:"output"`

	// FilePath is the path to the log file.
	FilePath string `toml:"file_path" json:"file_path" yaml:"file_path"`

	// MaxSizeMB is the maximum log file size before rotation.
	MaxSizeMB int `toml:"max_size_mb" json:"max_size_mb" yaml:"max_size_mb"`

	// MaxBackups is the number of rotated files to keep.
	MaxBackups int `toml:"max_backups" json:"max_backups" yaml:"max_backups"`
}

// TraceConfig holds session recording configuration.
type TraceConfig struct {
	// Enabled records every routed event to the trace database.
	Enabled bool `toml:"enabled" json:"enabled" yaml:"enabled"`

	// Path is the SQLite database file.
	Path string `toml:"path" json:"path" yaml:"path"`
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	dir := PlatformDataDir()
	return &Config{
		Version: Version,
		Modifiers: ModifiersConfig{
			LockThresholdMs: 250,
			NextThresholdMs: 350,
		},
		Multipress: MultipressConfig{
			ThresholdMs:        750,
			UseFirstLevel:      true,
			DotSpace:           true,
			FirstLevelTemplate: "fr",
		},
		Keys: KeysConfig{
			AutoCapitalize:    true,
			ToggleLongPressMs: 500,
			DeviceClass:       "titan",
		},
		DotCtrl: TripleConfig{
			Tap:       "period",
			LongPress: "voice",
			Hold:      "ctrl",
		},
		EmojiMeta: TripleConfig{
			Tap:       "emoji",
			LongPress: "0",
			Hold:      "meta",
		},
		Logging: LoggingConfig{
			Level:      "info",
			Format:     "text",
			Output:     "stderr",
			FilePath:   filepath.Join(PlatformLogDir(), "symlayer.log"),
			MaxSizeMB:  10,
			MaxBackups: 3,
		},
		Trace: TraceConfig{
			Enabled: false,
			Path:    filepath.Join(dir, "trace.db"),
		},
	}
}

// ConfigPath returns the default configuration file path.
func ConfigPath() string {
	return filepath.Join(PlatformConfigDir(), "config.toml")
}

// Load reads configuration from the specified path.
// If the file doesn't exist, returns default configuration.
// Supports TOML, JSON, and YAML formats based on file extension.
func Load(path string) (*Config, error) {
	if path == "" {
		path = ConfigPath()
	}

	cfg, err := readFile(path)
	if err != nil {
		return nil, err
	}

	cfg.ApplyEnvOverrides()
	return cfg, nil
}

// Validate checks the configuration for errors.
func (c *Config) Validate() error {
	return ValidateConfig(c)
}

// Save writes the configuration to path as TOML, JSON or YAML depending on
// the extension.
func (c *Config) Save(path string) error {
	return SaveConfig(c, path)
}

// ApplyEnvOverrides applies environment variable overrides to the configuration.
// Environment variables are prefixed with SYMLAYER_ and use underscores.
func (c *Config) ApplyEnvOverrides() {
	c.mu.Lock()
	defer c.mu.Unlock()

	envInt("SYMLAYER_LOCK_THRESHOLD_MS", &c.Modifiers.LockThresholdMs)
	envInt("SYMLAYER_NEXT_THRESHOLD_MS", &c.Modifiers.NextThresholdMs)
	envInt("SYMLAYER_MULTIPRESS_THRESHOLD_MS", &c.Multipress.ThresholdMs)

	if v := os.Getenv("SYMLAYER_TEMPLATE"); v != "" {
		c.Multipress.FirstLevelTemplate = v
	}
	if v := os.Getenv("SYMLAYER_CUSTOM_TABLES"); v != "" {
		c.Multipress.CustomTables = v
	}
	if v := os.Getenv("SYMLAYER_DEVICE_CLASS"); v != "" {
		c.Keys.DeviceClass = v
	}
	envBool("SYMLAYER_AUTO_CAPITALIZE", &c.Keys.AutoCapitalize)
	envBool("SYMLAYER_CYRILLIC_LAYER", &c.Keys.CyrillicLayer)

	// Logging overrides
	if v := os.Getenv("SYMLAYER_LOG_LEVEL"); v != "" {
		c.Logging.Level = v
	}
	if v := os.Getenv("SYMLAYER_LOG_PATH"); v != "" {
		c.Logging.FilePath = v
	}

	// Trace overrides
	envBool("SYMLAYER_TRACE", &c.Trace.Enabled)
	if v := os.Getenv("SYMLAYER_TRACE_PATH"); v != "" {
		c.Trace.Path = v
	}
}

func envInt(name string, dst *int) {
	if v := os.Getenv(name); v != "" {
		if n, err := strconv.Atoi(strings.TrimSpace(v)); err == nil {
			*dst = n
		}
	}
}

func envBool(name string, dst *bool) {
	if v := os.Getenv(name); v != "" {
		if b, err := strconv.ParseBool(strings.TrimSpace(v)); err == nil {
			*dst = b
		}
	}
}

// Clone returns a copy of the configuration.
func (c *Config) Clone() *Config {
	c.mu.RLock()
	defer c.mu.RUnlock()

	return &Config{
		Version:    c.Version,
		Modifiers:  c.Modifiers,
		Multipress: c.Multipress,
		Keys:       c.Keys,
		DotCtrl:    c.DotCtrl,
		EmojiMeta:  c.EmojiMeta,
		Logging:    c.Logging,
		Trace:      c.Trace,
	}
}

// EncodeTOML renders the configuration as TOML.
func (c *Config) EncodeTOML() ([]byte, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	var b strings.Builder
	b.WriteString("# symlayer configuration\n")
	if err := toml.NewEncoder(&b).Encode(c); err != nil {
		return nil, fmt.Errorf("encode TOML: %w", err)
	}
	return []byte(b.String()), nil
}

// DecodeTOML parses a TOML document on top of the defaults, so keys absent
// from data keep their default values.
func DecodeTOML(data []byte) (*Config, error) {
	cfg := DefaultConfig()
	if _, err := toml.Decode(string(data), cfg); err != nil {
		return nil, fmt.Errorf("decode TOML: %w", err)
	}
	return cfg, nil
}
