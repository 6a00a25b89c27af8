//go:build !linux

package ibus

import (
	"context"
	"errors"

	"github.com/godbus/dbus/v5"
)

// ErrUnsupported is returned on platforms without IBus.
var ErrUnsupported = errors.New("ibus is only available on linux")

// Connect is not supported on this platform.
func Connect() (*dbus.Conn, error) {
	return nil, ErrUnsupported
}

// Serve is not supported on this platform.
func Serve(ctx context.Context, conn *dbus.Conn, e *Engine, ownName bool) error {
	return ErrUnsupported
}
