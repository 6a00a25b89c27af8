package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"symlayer/internal/keys"
	"symlayer/internal/multipress"
)

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0600))
	return path
}

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()
	require.NotNil(t, cfg)

	assert.Equal(t, Version, cfg.Version)
	assert.Equal(t, 250, cfg.Modifiers.LockThresholdMs)
	assert.Equal(t, 350, cfg.Modifiers.NextThresholdMs)
	assert.Equal(t, 750, cfg.Multipress.ThresholdMs)
	assert.Equal(t, "fr", cfg.Multipress.FirstLevelTemplate)
	assert.True(t, cfg.Multipress.UseFirstLevel)
	assert.True(t, cfg.Multipress.DotSpace)
	assert.True(t, cfg.Keys.AutoCapitalize)
	assert.Equal(t, "titan", cfg.Keys.DeviceClass)
	assert.Equal(t, TripleConfig{Tap: "period", LongPress: "voice", Hold: "ctrl"}, cfg.DotCtrl)
	assert.Equal(t, TripleConfig{Tap: "emoji", LongPress: "0", Hold: "meta"}, cfg.EmojiMeta)
	assert.False(t, cfg.Trace.Enabled)

	assert.NoError(t, cfg.Validate())
}

func TestConfigPath(t *testing.T) {
	path := ConfigPath()
	assert.True(t, strings.HasSuffix(path, "config.toml"), path)
	assert.Contains(t, path, appName)
}

func TestPlatformDataDirOverride(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("SYMLAYER_DATA_DIR", dir)
	assert.Equal(t, dir, PlatformDataDir())
}

func TestFindConfigFile(t *testing.T) {
	t.Setenv("SYMLAYER_CONFIG", "/etc/symlayer/custom.yaml")
	assert.Equal(t, "/etc/symlayer/custom.yaml", FindConfigFile())

	if runtime.GOOS != "linux" {
		return
	}
	t.Setenv("SYMLAYER_CONFIG", "")
	xdg := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", xdg)
	t.Chdir(t.TempDir())
	assert.Empty(t, FindConfigFile())

	writeFile(t, ".", "symlayer.yaml", "")
	assert.Equal(t, "symlayer.yaml", FindConfigFile())

	require.NoError(t, os.MkdirAll(filepath.Join(xdg, appName), 0o700))
	want := writeFile(t, filepath.Join(xdg, appName), "config.toml", "")
	assert.Equal(t, want, FindConfigFile())
}

func TestLoadNonexistent(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "missing.toml"))
	require.NoError(t, err)
	assert.Equal(t, DefaultConfig().Modifiers, cfg.Modifiers)
}

func TestLoadFormats(t *testing.T) {
	tests := []struct {
		name    string
		file    string
		content string
	}{
		{
			name: "toml",
			file: "config.toml",
			content: `
version = 1

[modifiers]
lock_threshold_ms = 300

[multipress]
first_level_template = "de"

[keys]
device_class = "mp01"

[dot_ctrl]
tap = "none"
`,
		},
		{
			name: "yaml",
			file: "config.yaml",
			content: `
modifiers:
  lock_threshold_ms: 300
multipress:
  first_level_template: de
keys:
  device_class: mp01
dot_ctrl:
  tap: none
`,
		},
		{
			name:    "json",
			file:    "config.json",
			content: `{"modifiers":{"lock_threshold_ms":300},"multipress":{"first_level_template":"de"},"keys":{"device_class":"mp01"},"dot_ctrl":{"tap":"none"}}`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := writeFile(t, t.TempDir(), tt.file, tt.content)

			cfg, err := Load(path)
			require.NoError(t, err)

			assert.Equal(t, 300, cfg.Modifiers.LockThresholdMs)
			// Unset fields keep their defaults.
			assert.Equal(t, 350, cfg.Modifiers.NextThresholdMs)
			assert.Equal(t, "de", cfg.Multipress.FirstLevelTemplate)
			assert.Equal(t, "mp01", cfg.Keys.DeviceClass)
			assert.Equal(t, "none", cfg.DotCtrl.Tap)
			assert.Equal(t, "voice", cfg.DotCtrl.LongPress)
			assert.NoError(t, cfg.Validate())
		})
	}
}

func TestLoadInvalidTOML(t *testing.T) {
	path := writeFile(t, t.TempDir(), "config.toml", "[modifiers\nlock_threshold_ms = ")
	_, err := Load(path)
	assert.Error(t, err)
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv("SYMLAYER_LOCK_THRESHOLD_MS", "400")
	t.Setenv("SYMLAYER_TEMPLATE", "es")
	t.Setenv("SYMLAYER_AUTO_CAPITALIZE", "false")
	t.Setenv("SYMLAYER_TRACE", "1")
	t.Setenv("SYMLAYER_NEXT_THRESHOLD_MS", "not-a-number")

	cfg, err := Load(filepath.Join(t.TempDir(), "none.toml"))
	require.NoError(t, err)

	assert.Equal(t, 400, cfg.Modifiers.LockThresholdMs)
	assert.Equal(t, 350, cfg.Modifiers.NextThresholdMs)
	assert.Equal(t, "es", cfg.Multipress.FirstLevelTemplate)
	assert.False(t, cfg.Keys.AutoCapitalize)
	assert.True(t, cfg.Trace.Enabled)
}

func TestValidateErrors(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Modifiers.LockThresholdMs = -1
	cfg.Multipress.FirstLevelTemplate = "klingon"
	cfg.Keys.DeviceClass = "typewriter"
	cfg.EmojiMeta.Hold = "hyper"
	cfg.Logging.Level = "chatty"

	err := cfg.Validate()
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrInvalidConfig))

	var verrs ValidationErrors
	require.True(t, errors.As(err, &verrs))
	assert.ElementsMatch(t, []string{
		"modifiers.lock_threshold_ms",
		"multipress.first_level_template",
		"keys.device_class",
		"emoji_meta.hold",
		"logging.level",
	}, verrs.Fields())
	assert.Contains(t, err.Error(), "available: de, es, fr")
}

func TestValidateMissingTemplate(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Multipress.FirstLevelTemplate = ""

	var verrs ValidationErrors
	require.True(t, errors.As(cfg.Validate(), &verrs))
	assert.Equal(t, []string{"multipress.first_level_template"}, verrs.Fields())
}

func TestValidateTraceRequiresPath(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Trace.Enabled = true
	cfg.Trace.Path = ""
	assert.Error(t, cfg.Validate())
}

func TestSaveAndReload(t *testing.T) {
	dir := t.TempDir()

	for _, name := range []string{"config.toml", "config.yaml", "config.json"} {
		t.Run(name, func(t *testing.T) {
			cfg := DefaultConfig()
			cfg.Multipress.FirstLevelTemplate = "pt"
			cfg.Keys.CyrillicLayer = true
			cfg.EmojiMeta.LongPress = "none"

			path := filepath.Join(dir, "nested", name)
			require.NoError(t, cfg.Save(path))

			info, err := os.Stat(path)
			require.NoError(t, err)
			assert.Equal(t, os.FileMode(0600), info.Mode().Perm())

			loaded, err := Load(path)
			require.NoError(t, err)
			assert.Equal(t, cfg.Multipress, loaded.Multipress)
			assert.Equal(t, cfg.Keys, loaded.Keys)
			assert.Equal(t, cfg.EmojiMeta, loaded.EmojiMeta)
		})
	}
}

func TestEncodeTOMLHeader(t *testing.T) {
	data, err := DefaultConfig().EncodeTOML()
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(data), "# symlayer configuration\n"))
	assert.Contains(t, string(data), "[multipress]")
}

func TestDecodeTOMLKeepsDefaults(t *testing.T) {
	cfg, err := DecodeTOML([]byte("[keys]\ndevice_class = \"mp01\"\n"))
	require.NoError(t, err)
	assert.Equal(t, "mp01", cfg.Keys.DeviceClass)
	assert.Equal(t, DefaultConfig().Multipress, cfg.Multipress)

	_, err = DecodeTOML([]byte("[keys"))
	assert.Error(t, err)
}

func TestLoadOrCreate(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")

	cfg, created, err := LoadOrCreate(path)
	require.NoError(t, err)
	assert.True(t, created)
	assert.FileExists(t, path)

	again, created, err := LoadOrCreate(path)
	require.NoError(t, err)
	assert.False(t, created)
	assert.Equal(t, cfg.Modifiers, again.Modifiers)
}

func TestClone(t *testing.T) {
	cfg := DefaultConfig()
	clone := cfg.Clone()
	clone.Keys.DeviceClass = "mp01"
	assert.Equal(t, "titan", cfg.Keys.DeviceClass)
}

const customTables = `{
  "version": 1,
  "templates": {
    "it": {
      "E": ["´", "` + "`" + `", "{bypass}"],
      "KEYCODE_A": ["` + "`" + `", "{bypass}"]
    },
    "fr": {
      "E": ["é"]
    }
  }
}`

func TestParseTables(t *testing.T) {
	templates, err := ParseTables([]byte(customTables))
	require.NoError(t, err)
	require.Contains(t, templates, "it")

	it := templates["it"]
	assert.Equal(t, []multipress.Directive{multipress.Dead('´'), multipress.Dead('`'), multipress.Bypass}, it[keys.CodeE])
	assert.Equal(t, []multipress.Directive{multipress.Dead('`'), multipress.Bypass}, it[keys.CodeA])
}

func TestParseTablesRejectsInvalid(t *testing.T) {
	tests := []struct {
		name string
		data string
	}{
		{"not json", `{"templates":`},
		{"missing templates", `{"version": 1}`},
		{"empty sequence", `{"templates":{"x":{"E":[]}}}`},
		{"extra field", `{"templates":{},"colour":"red"}`},
		{"wrong version", `{"version":2,"templates":{}}`},
		{"unknown key", `{"templates":{"x":{"NOPE":["a"]}}}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseTables([]byte(tt.data))
			assert.Error(t, err)
		})
	}
}

func TestCustomTemplatesOverrideBuiltins(t *testing.T) {
	path := writeFile(t, t.TempDir(), "tables.json", customTables)

	cfg := DefaultConfig()
	cfg.Multipress.CustomTables = path
	cfg.Multipress.FirstLevelTemplate = "it"
	require.NoError(t, cfg.Validate())

	templates, err := cfg.Templates()
	require.NoError(t, err)
	assert.Contains(t, templates.Names(), "it")
	assert.Contains(t, templates.Names(), "de")
	assert.Equal(t, []multipress.Directive{multipress.Lit('é')}, templates["fr"][keys.CodeE])

	lvl, err := cfg.FirstLevel()
	require.NoError(t, err)
	assert.Len(t, lvl, 2)
}

func TestFirstLevelUnknownTemplate(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Multipress.FirstLevelTemplate = "klingon"
	_, err := cfg.FirstLevel()
	assert.ErrorIs(t, err, ErrUnknownTemplate)
}

func TestBrokenCustomTablesFailValidation(t *testing.T) {
	path := writeFile(t, t.TempDir(), "tables.json", `{"templates":{"x":{"E":[]}}}`)
	cfg := DefaultConfig()
	cfg.Multipress.CustomTables = path

	var verrs ValidationErrors
	require.True(t, errors.As(cfg.Validate(), &verrs))
	assert.Equal(t, []string{"multipress.custom_tables"}, verrs.Fields())
}

func TestImportPreferences(t *testing.T) {
	res := ImportPreferences(map[string]interface{}{
		"ModifierLockThreshold": float64(300),
		"MultipressThreshold":   "600",
		"UseFirstLevel":         "false",
		"DotSpace":              false,
		"FirstLevelTemplate":    "es",
		"pref_dotctrl_tap":      "none",
		"pref_emojimeta_hold":   "ctrl",
		"ThemeColor":            "blue",
		"AutoCapitalize":        42.0,
	})

	cfg := res.Config
	assert.Equal(t, 300, cfg.Modifiers.LockThresholdMs)
	assert.Equal(t, 600, cfg.Multipress.ThresholdMs)
	assert.False(t, cfg.Multipress.UseFirstLevel)
	assert.False(t, cfg.Multipress.DotSpace)
	assert.Equal(t, "es", cfg.Multipress.FirstLevelTemplate)
	assert.Equal(t, "none", cfg.DotCtrl.Tap)
	assert.Equal(t, "ctrl", cfg.EmojiMeta.Hold)
	assert.True(t, cfg.Keys.AutoCapitalize)

	assert.Equal(t, []string{"AutoCapitalize", "ThemeColor"}, res.Ignored)
	assert.Len(t, res.Applied, 7)
	assert.NoError(t, cfg.Validate())
}

func TestImportPreferencesFile(t *testing.T) {
	path := writeFile(t, t.TempDir(), "prefs.json", `{"ModifierNextThreshold": 200, "Ligatures": true}`)
	res, err := ImportPreferencesFile(path)
	require.NoError(t, err)
	assert.Equal(t, 200, res.Config.Modifiers.NextThresholdMs)
	assert.True(t, res.Config.Multipress.Ligatures)

	_, err = ImportPreferencesFile(writeFile(t, t.TempDir(), "bad.json", "nope"))
	assert.Error(t, err)
}

func TestLoaderWatchReload(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "config.toml", "[multipress]\nfirst_level_template = \"fr\"\n")

	loader := NewLoader(path)
	loader.Debounce = 10 * time.Millisecond
	defer loader.Close()

	cfg, err := loader.Load()
	require.NoError(t, err)
	assert.Equal(t, "fr", cfg.Multipress.FirstLevelTemplate)

	changed := make(chan *Config, 1)
	loader.OnChange(func(c *Config) {
		select {
		case changed <- c:
		default:
		}
	})
	require.NoError(t, loader.Watch())

	writeFile(t, dir, "config.toml", "[multipress]\nfirst_level_template = \"de\"\n")

	select {
	case c := <-changed:
		assert.Equal(t, "de", c.Multipress.FirstLevelTemplate)
		assert.Equal(t, "de", loader.Config().Multipress.FirstLevelTemplate)
	case err := <-loader.Errors():
		t.Fatalf("reload error: %v", err)
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for reload")
	}
}

func TestLoaderKeepsConfigOnInvalidReload(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "config.toml", "[keys]\ndevice_class = \"titan\"\n")

	loader := NewLoader(path)
	loader.Debounce = 10 * time.Millisecond
	defer loader.Close()

	_, err := loader.Load()
	require.NoError(t, err)
	require.NoError(t, loader.Watch())

	writeFile(t, dir, "config.toml", "[keys]\ndevice_class = \"typewriter\"\n")

	select {
	case err := <-loader.Errors():
		assert.ErrorIs(t, err, ErrInvalidConfig)
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for reload error")
	}
	assert.Equal(t, "titan", loader.Config().Keys.DeviceClass)
}

func TestLoaderWatchesCustomTables(t *testing.T) {
	tablesDir := t.TempDir()
	tables := writeFile(t, tablesDir, "tables.json", `{"templates":{"it":{"E":["è"]}}}`)

	dir := t.TempDir()
	path := writeFile(t, dir, "config.toml", fmt.Sprintf("[multipress]\nfirst_level_template = \"it\"\ncustom_tables = %q\n", tables))

	loader := NewLoader(path)
	loader.Debounce = 10 * time.Millisecond
	defer loader.Close()

	_, err := loader.Load()
	require.NoError(t, err)

	changed := make(chan *Config, 1)
	loader.OnChange(func(c *Config) {
		select {
		case changed <- c:
		default:
		}
	})
	require.NoError(t, loader.Watch())

	writeFile(t, tablesDir, "tables.json", `{"templates":{"it":{"E":["ê"]}}}`)

	select {
	case c := <-changed:
		lvl, err := c.FirstLevel()
		require.NoError(t, err)
		assert.Equal(t, []multipress.Directive{multipress.Lit('ê')}, lvl[keys.CodeE])
	case err := <-loader.Errors():
		t.Fatalf("reload error: %v", err)
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for reload")
	}
}

func TestLoaderIgnoresUnrelatedFiles(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "config.toml", "")

	loader := NewLoader(path)
	loader.Debounce = 10 * time.Millisecond
	_, err := loader.Load()
	require.NoError(t, err)

	calls := make(chan struct{}, 1)
	loader.OnChange(func(*Config) { calls <- struct{}{} })
	require.NoError(t, loader.Watch())

	writeFile(t, dir, "notes.txt", "hello")

	select {
	case <-calls:
		t.Fatal("reloaded for an unrelated file")
	case <-time.After(200 * time.Millisecond):
	}
	require.NoError(t, loader.Close())
	require.NoError(t, loader.Close())
}
