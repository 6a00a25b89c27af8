package main

import (
	"bytes"
	"errors"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"symlayer/internal/ibus"
	"symlayer/internal/router"
)

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	cmd := newRootCmd()
	cmd.SetOut(&out)
	cmd.SetErr(io.Discard)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestInstallAndUninstall(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "component")

	out, err := execute(t, "--install", "--component-dir", dir)
	require.NoError(t, err)
	assert.Contains(t, out, "ibus restart")

	data, err := os.ReadFile(filepath.Join(dir, ibus.EngineName+".xml"))
	require.NoError(t, err)
	assert.Contains(t, string(data), "--ibus</exec>")
	assert.Contains(t, string(data), ibus.BusName)

	_, err = execute(t, "--uninstall", "--component-dir", dir)
	require.NoError(t, err)
	_, err = os.Stat(filepath.Join(dir, ibus.EngineName+".xml"))
	assert.ErrorIs(t, err, os.ErrNotExist)

	_, err = execute(t, "--uninstall", "--component-dir", dir)
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestInstallUninstallExclusive(t *testing.T) {
	_, err := execute(t, "--install", "--uninstall", "--component-dir", t.TempDir())
	assert.Error(t, err)
}

func TestLauncher(t *testing.T) {
	var started [][]string
	l := &launcher{
		commands: launchCommands,
		logger:   slog.New(slog.NewTextHandler(io.Discard, nil)),
		start: func(name string, args ...string) error {
			started = append(started, append([]string{name}, args...))
			if name == "gnome-music" {
				return errors.New("not installed")
			}
			return nil
		},
	}

	l.Launch(router.UIEmojiPicker)
	l.Launch(router.UIVoiceInput)
	l.Launch(router.UIMusic)

	assert.Equal(t, [][]string{{"ibus", "emoji"}, {"gnome-music"}}, started)
}
