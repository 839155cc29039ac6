package wpa

import (
	"sync"

	"github.com/go-errors/errors"
	"github.com/godbus/dbus/v5"
	"github.com/the-lightning-land/wifid/wifierr"
)

const interfaceName = service + ".Interface"

type Interface struct {
	conn *dbus.Conn
	obj  dbus.BusObject
}

func newInterface(conn *dbus.Conn, path dbus.ObjectPath) *Interface {
	return &Interface{
		conn: conn,
		obj:  conn.Object(service, path),
	}
}

func (i *Interface) String() string {
	return string(i.obj.Path())
}

// State returns the supplicant state, e.g. "completed" or "disconnected".
func (i *Interface) State() (string, error) {
	v, err := i.obj.GetProperty(interfaceName + ".State")
	if err != nil {
		return "", errors.Errorf("%w: could not get state: %v", wifierr.ErrFault, err)
	}

	state, ok := v.Value().(string)
	if !ok {
		return "", errors.Errorf("%w: could not convert state: %v", wifierr.ErrFault, v)
	}

	return state, nil
}

// CurrentBSS returns the BSS the interface is associated with.
func (i *Interface) CurrentBSS() (*BSS, error) {
	v, err := i.obj.GetProperty(interfaceName + ".CurrentBSS")
	if err != nil {
		return nil, errors.Errorf("%w: could not get current bss: %v", wifierr.ErrFault, err)
	}

	path, ok := v.Value().(dbus.ObjectPath)
	if !ok {
		return nil, errors.Errorf("%w: could not convert current bss: %v", wifierr.ErrFault, v)
	}

	return i.bss(path), nil
}

func (i *Interface) bss(path dbus.ObjectPath) *BSS {
	return &BSS{
		obj: i.conn.Object(service, path),
	}
}

type PropertiesClient struct {
	Properties <-chan map[string]dbus.Variant
	Cancel     func()
}

// PropertiesChanged delivers the changed properties of the interface until
// the client is canceled.
func (i *Interface) PropertiesChanged() (*PropertiesClient, error) {
	propertiesChan := make(chan map[string]dbus.Variant)
	signalChan := make(chan *dbus.Signal, 16)
	done := make(chan struct{})

	call := i.conn.BusObject().AddMatchSignal(interfaceName, "PropertiesChanged", dbus.WithMatchObjectPath(i.obj.Path()))
	if call.Err != nil {
		return nil, errors.Errorf("%w: could not add signal: %v", wifierr.ErrFault, call.Err)
	}

	i.conn.Signal(signalChan)

	var once sync.Once

	client := &PropertiesClient{
		Properties: propertiesChan,
		Cancel: func() {
			once.Do(func() {
				i.conn.RemoveSignal(signalChan)

				_ = i.conn.BusObject().RemoveMatchSignal(interfaceName, "PropertiesChanged", dbus.WithMatchObjectPath(i.obj.Path()))

				close(done)
			})
		},
	}

	go func() {
		defer close(propertiesChan)

		for {
			select {
			case signal, ok := <-signalChan:
				if !ok {
					return
				}

				properties, ok := changedProperties(signal, i.obj.Path())
				if !ok {
					continue
				}

				select {
				case propertiesChan <- properties:
				case <-done:
					return
				}
			case <-done:
				return
			}
		}
	}()

	return client, nil
}

// changedProperties extracts the body of a PropertiesChanged signal sent by
// the object at path.
func changedProperties(signal *dbus.Signal, path dbus.ObjectPath) (map[string]dbus.Variant, bool) {
	if signal == nil || signal.Name != interfaceName+".PropertiesChanged" || signal.Path != path {
		return nil, false
	}

	if len(signal.Body) == 0 {
		return nil, false
	}

	properties, ok := signal.Body[0].(map[string]dbus.Variant)

	return properties, ok
}
