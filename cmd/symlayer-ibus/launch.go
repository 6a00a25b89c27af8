package main

import (
	"log/slog"
	"os"
	"os/exec"

	"symlayer/internal/router"
)

// launchCommands maps UI actions to desktop commands. Actions without an
// entry (voice input, assistant, clipboard history) are logged and dropped.
var launchCommands = map[router.UIAction][]string{
	router.UIEmojiPicker: {"ibus", "emoji"},
	router.UISettings:    {"ibus-setup"},
	router.UILaunchEmail: {"xdg-open", "mailto:"},
	router.UIBrowser:     {"xdg-open", "about:blank"},
	router.UILaunchHome:  {"xdg-open", "."},
	router.UIContacts:    {"gnome-contacts"},
	router.UICalendar:    {"gnome-calendar"},
	router.UIMusic:       {"gnome-music"},
}

// launcher starts the desktop command bound to a UI action.
type launcher struct {
	commands map[router.UIAction][]string
	logger   *slog.Logger
	start    func(name string, args ...string) error
}

func newLauncher(logger *slog.Logger) *launcher {
	return &launcher{
		commands: launchCommands,
		logger:   logger,
		start:    startDetached,
	}
}

// Launch runs the command for a. It never blocks the key event path.
func (l *launcher) Launch(a router.UIAction) {
	argv, ok := l.commands[a]
	if !ok {
		l.logger.Debug("no launcher for ui action", "action", string(a))
		return
	}
	if err := l.start(argv[0], argv[1:]...); err != nil {
		l.logger.Warn("launch failed", "action", string(a), "command", argv[0], "error", err)
	}
}

func startDetached(name string, args ...string) error {
	cmd := exec.Command(name, args...)
	if home, err := os.UserHomeDir(); err == nil {
		cmd.Dir = home
	}
	if err := cmd.Start(); err != nil {
		return err
	}
	go cmd.Wait()
	return nil
}
