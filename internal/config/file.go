package config

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"
)

// fileFormat decodes onto a Config that already holds defaults, so keys
// missing from the file keep their default values.
type fileFormat struct {
	name   string
	decode func([]byte, *Config) error
	encode func(*Config) ([]byte, error)
}

var (
	formatTOML = fileFormat{
		name: "TOML",
		decode: func(b []byte, c *Config) error {
			_, err := toml.NewDecoder(bytes.NewReader(b)).Decode(c)
			return err
		},
		encode: (*Config).EncodeTOML,
	}
	formatJSON = fileFormat{
		name:   "JSON",
		decode: func(b []byte, c *Config) error { return json.Unmarshal(b, c) },
		encode: func(c *Config) ([]byte, error) { return json.MarshalIndent(c, "", "  ") },
	}
	formatYAML = fileFormat{
		name:   "YAML",
		decode: func(b []byte, c *Config) error { return yaml.Unmarshal(b, c) },
		encode: func(c *Config) ([]byte, error) { return yaml.Marshal(c) },
	}
)

// formatFor picks the format from the file extension. ok is false for
// unknown extensions.
func formatFor(path string) (f fileFormat, ok bool) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".toml":
		return formatTOML, true
	case ".json":
		return formatJSON, true
	case ".yaml", ".yml":
		return formatYAML, true
	default:
		return formatTOML, false
	}
}

// readFile decodes path on top of the defaults. A missing file yields the
// defaults. Files without a known extension are tried as TOML, JSON and
// YAML in turn.
func readFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return DefaultConfig(), nil
	}
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	if f, ok := formatFor(path); ok {
		cfg := DefaultConfig()
		if err := f.decode(data, cfg); err != nil {
			return nil, fmt.Errorf("decode %s: %w", f.name, err)
		}
		return cfg, nil
	}
	for _, f := range []fileFormat{formatTOML, formatJSON, formatYAML} {
		cfg := DefaultConfig()
		if f.decode(data, cfg) == nil {
			return cfg, nil
		}
	}
	return nil, fmt.Errorf("%s: not TOML, JSON or YAML", path)
}

// SaveConfig writes cfg to path in the format chosen by the extension,
// TOML when there is none.
func SaveConfig(cfg *Config, path string) error {
	f, _ := formatFor(path)
	data, err := f.encode(cfg)
	if err != nil {
		return fmt.Errorf("encode config: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return fmt.Errorf("create config directory: %w", err)
	}
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	return nil
}

// LoadOrCreate loads and validates path, first writing the defaults there if
// the file does not exist. created reports whether the file was written.
func LoadOrCreate(path string) (cfg *Config, created bool, err error) {
	if path == "" {
		path = ConfigPath()
	}
	if _, err := os.Stat(path); errors.Is(err, fs.ErrNotExist) {
		cfg = DefaultConfig()
		if err := SaveConfig(cfg, path); err != nil {
			return nil, false, fmt.Errorf("create default config: %w", err)
		}
		return cfg, true, nil
	}
	cfg, err = NewLoader(path).Load()
	return cfg, false, err
}

// expandPath expands a leading ~ to the home directory.
func expandPath(path string) string {
	if path == "~" || strings.HasPrefix(path, "~/") {
		return filepath.Join(homeDir(), strings.TrimPrefix(path, "~"))
	}
	return path
}
