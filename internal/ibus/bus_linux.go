//go:build linux

package ibus

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"strings"

	"github.com/godbus/dbus/v5"
)

// Connect opens the IBus bus. IBUS_ADDRESS wins, then the address reported
// by `ibus address`, then the session bus.
func Connect() (*dbus.Conn, error) {
	addr := os.Getenv("IBUS_ADDRESS")
	if addr == "" {
		if out, err := exec.Command("ibus", "address").Output(); err == nil {
			addr = strings.TrimSpace(string(out))
		}
	}
	if addr != "" && addr != "(null)" {
		conn, err := dbus.Connect(addr)
		if err != nil {
			return nil, fmt.Errorf("connect to ibus at %s: %w", addr, err)
		}
		return conn, nil
	}

	conn, err := dbus.SessionBus()
	if err != nil {
		return nil, fmt.Errorf("failed to connect to session bus: %w", err)
	}
	return conn, nil
}

// Serve exports the factory and blocks until ctx is done. When ownName is
// set the process requests BusName, which is what IBus expects from an
// engine it launched with --ibus.
func Serve(ctx context.Context, conn *dbus.Conn, e *Engine, ownName bool) error {
	factory := NewFactory(conn, e)
	if err := conn.Export(factory, FactoryPath, FactoryInterface); err != nil {
		return fmt.Errorf("export factory: %w", err)
	}

	if ownName {
		reply, err := conn.RequestName(BusName, dbus.NameFlagDoNotQueue)
		if err != nil {
			return fmt.Errorf("failed to request bus name: %w", err)
		}
		if reply != dbus.RequestNameReplyPrimaryOwner {
			return errors.New("bus name already taken")
		}
	}

	e.logger.Info("ibus engine started", "bus_name", BusName, "own_name", ownName)
	<-ctx.Done()
	e.logger.Info("ibus engine stopping")
	return nil
}
