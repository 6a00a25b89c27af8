package ibus

import (
	"fmt"
	"sync"

	"github.com/godbus/dbus/v5"
)

// Exporter exports objects on the bus. *dbus.Conn implements it.
type Exporter interface {
	Signaler
	Export(v interface{}, path dbus.ObjectPath, iface string) error
}

// Factory implements the org.freedesktop.IBus.Factory interface. It serves
// one engine object; each CreateEngine call re-exports it at a new path.
type Factory struct {
	mu       sync.Mutex
	conn     Exporter
	engine   *Engine
	engineID uint32
}

// NewFactory creates a factory for e.
func NewFactory(conn Exporter, e *Engine) *Factory {
	return &Factory{conn: conn, engine: e}
}

// CreateEngine creates a new engine instance for IBus.
func (f *Factory) CreateEngine(engineName string) (dbus.ObjectPath, *dbus.Error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.engine.logger.Debug("create engine", "name", engineName)
	if engineName != EngineName {
		return "", dbus.NewError("org.freedesktop.IBus.NoEngine",
			[]interface{}{"Unknown engine: " + engineName})
	}

	f.engineID++
	path := dbus.ObjectPath(fmt.Sprintf(enginePathPattern, f.engineID))
	if err := f.conn.Export(f.engine, path, EngineInterface); err != nil {
		return "", dbus.MakeFailedError(err)
	}
	f.engine.Attach(f.conn, path)
	return path, nil
}
