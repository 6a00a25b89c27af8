package main

import (
	"bytes"
	"os"
	"path/filepath"
	"regexp"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"symlayer/internal/config"
	"symlayer/internal/trace"
)

const accentScript = `
name: accent cycle
config:
  keys:
    auto_capitalize: false
steps:
  - key: E
  - {key: E, after_ms: 100}
  - {key: E, after_ms: 100}
expect: "è"
`

// run executes symlayerctl with args against an isolated configuration and
// returns stdout.
func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out, errOut bytes.Buffer
	cmd := newRootCmd()
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	cfgPath := filepath.Join(t.TempDir(), "missing.toml")
	cmd.SetArgs(append([]string{"--config", cfgPath}, args...))
	err := cmd.Execute()
	return out.String(), err
}

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0600))
	return path
}

func TestSimulate(t *testing.T) {
	script := writeFile(t, "accent.yaml", accentScript)

	out, err := run(t, "simulate", script)
	require.NoError(t, err)
	assert.Equal(t, "\"è\"\n", out)

	out, err = run(t, "simulate", "-v", script)
	require.NoError(t, err)
	assert.Contains(t, out, "start-input(text)")
	assert.Contains(t, out, "#1 E down")
}

func TestSimulateExpectationFailure(t *testing.T) {
	script := writeFile(t, "wrong.yaml", "steps:\n  - key: A\nexpect: b\n")

	out, err := run(t, "simulate", script)
	require.Error(t, err)
	assert.ErrorIs(t, err, trace.ErrExpectation)
	assert.Contains(t, out, "\"A\"")
}

func TestRecordListAndReplay(t *testing.T) {
	script := writeFile(t, "accent.yaml", accentScript)
	db := filepath.Join(t.TempDir(), "trace.db")

	out, err := run(t, "simulate", "--record", db, script)
	require.NoError(t, err)
	m := regexp.MustCompile(`session ([0-9a-f-]{36})`).FindStringSubmatch(out)
	require.Len(t, m, 2, out)
	id := m[1]

	out, err = run(t, "sessions", "--db", db)
	require.NoError(t, err)
	assert.Contains(t, out, id)
	assert.Contains(t, out, "simulate")
	assert.Contains(t, out, "accent cycle")

	out, err = run(t, "sessions", "show", "--db", db, id[:8])
	require.NoError(t, err)
	assert.Contains(t, out, "start-input")

	out, err = run(t, "replay", "--db", db, id[:8])
	require.NoError(t, err)
	assert.Contains(t, out, "7 records, 0 mismatches")

	out, err = run(t, "sessions", "rm", "--db", db, id)
	require.NoError(t, err)
	assert.Contains(t, out, "deleted session "+id)

	_, err = run(t, "replay", "--db", db, id)
	assert.ErrorIs(t, err, trace.ErrSessionNotFound)
}

func TestReplayMissingDatabase(t *testing.T) {
	_, err := run(t, "replay", "--db", filepath.Join(t.TempDir(), "none.db"), "abc")
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestTables(t *testing.T) {
	out, err := run(t, "tables", "--device", "mp01")
	require.NoError(t, err)
	assert.Contains(t, out, "symbol layer (mp01)")
	assert.Contains(t, out, "Label")

	out, err = run(t, "tables", "--list")
	require.NoError(t, err)
	assert.Contains(t, out, "* fr ")

	out, err = run(t, "tables", "--multipress", "--template", "fr")
	require.NoError(t, err)
	assert.Contains(t, out, "first level (fr)")
	assert.Contains(t, out, "hold level")

	_, err = run(t, "tables", "--multipress", "--template", "xx")
	assert.ErrorIs(t, err, config.ErrUnknownTemplate)

	_, err = run(t, "tables", "--device", "nokia")
	assert.Error(t, err)
}

func TestConfigValidate(t *testing.T) {
	good := writeFile(t, "good.toml", "[multipress]\nthreshold_ms = 500\n")
	out, err := run(t, "config", "validate", good)
	require.NoError(t, err)
	assert.Contains(t, out, "ok")

	bad := writeFile(t, "bad.toml", "[modifiers]\nlock_threshold_ms = -1\n[keys]\ndevice_class = \"nokia\"\n")
	out, err = run(t, "config", "validate", bad)
	require.Error(t, err)
	assert.Contains(t, out, "modifiers.lock_threshold_ms")
	assert.Contains(t, out, "keys.device_class")

	_, err = run(t, "config", "validate", filepath.Join(t.TempDir(), "none.toml"))
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestConfigShowAndInit(t *testing.T) {
	out, err := run(t, "config", "show")
	require.NoError(t, err)
	assert.Contains(t, out, "first_level_template = \"fr\"")

	path := filepath.Join(t.TempDir(), "cfg", "config.toml")
	out, err = run(t, "config", "init", path)
	require.NoError(t, err)
	assert.Contains(t, out, "created")
	out, err = run(t, "config", "init", path)
	require.NoError(t, err)
	assert.Contains(t, out, "already exists")
}

func TestConfigImport(t *testing.T) {
	prefs := writeFile(t, "prefs.json", `{"MultipressThreshold": "600", "UseFirstLevel": false, "Unknown": 1}`)

	out, err := run(t, "config", "import", prefs)
	require.NoError(t, err)
	cfg, err := config.DecodeTOML([]byte(out))
	require.NoError(t, err)
	assert.Equal(t, 600, cfg.Multipress.ThresholdMs)
	assert.False(t, cfg.Multipress.UseFirstLevel)

	dst := filepath.Join(t.TempDir(), "imported.yaml")
	_, err = run(t, "config", "import", prefs, "-o", dst)
	require.NoError(t, err)
	loaded, err := config.Load(dst)
	require.NoError(t, err)
	assert.Equal(t, 600, loaded.Multipress.ThresholdMs)
}
