package wpa

import (
	"sync"

	"github.com/go-errors/errors"
	"github.com/godbus/dbus/v5"
	"github.com/the-lightning-land/wifid/wifierr"
)

const (
	service     = "fi.w1.wpa_supplicant1"
	servicePath = dbus.ObjectPath("/fi/w1/wpa_supplicant1")
)

// Wpa talks to wpa_supplicant over the system bus.
type Wpa struct {
	mu   sync.Mutex
	conn *dbus.Conn
	obj  dbus.BusObject
	log  Logger
}

func New(logger Logger) *Wpa {
	wpa := &Wpa{}

	if logger != nil {
		wpa.log = logger
	} else {
		wpa.log = noopLogger{}
	}

	return wpa
}

func (w *Wpa) Start() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.conn != nil {
		return errors.Errorf("%w: already connected to the system bus", wifierr.ErrBusy)
	}

	conn, err := dbus.ConnectSystemBus()
	if err != nil {
		return errors.Errorf("%w: could not connect to system bus: %v", wifierr.ErrFault, err)
	}

	w.attach(conn)

	w.log.Debugf("Connected to system bus")

	return nil
}

// attach must be called with mu held.
func (w *Wpa) attach(conn *dbus.Conn) {
	w.conn = conn
	w.obj = conn.Object(service, servicePath)
}

// Stop closes the bus connection. Interfaces obtained before keep their
// connection and fail their calls from then on.
func (w *Wpa) Stop() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.conn == nil {
		return nil
	}

	err := w.conn.Close()
	w.conn = nil
	w.obj = nil

	if err != nil {
		return errors.Errorf("%w: could not close system bus connection: %v", wifierr.ErrFault, err)
	}

	return nil
}

// GetInterface looks up the wpa_supplicant object managing ifname.
func (w *Wpa) GetInterface(ifname string) (*Interface, error) {
	w.mu.Lock()
	conn, obj := w.conn, w.obj
	w.mu.Unlock()

	if conn == nil {
		return nil, errors.Errorf("%w: not connected to the system bus", wifierr.ErrFailedPrecondition)
	}

	var path dbus.ObjectPath

	err := obj.Call(service+".GetInterface", 0, ifname).Store(&path)
	if err != nil {
		return nil, errors.Errorf("%w: could not get interface %v: %v", wifierr.ErrNotFound, ifname, err)
	}

	return newInterface(conn, path), nil
}
