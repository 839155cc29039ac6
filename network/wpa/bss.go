package wpa

import (
	"net"

	"github.com/go-errors/errors"
	"github.com/godbus/dbus/v5"
	"github.com/the-lightning-land/wifid/wifierr"
)

type BSS struct {
	obj dbus.BusObject
}

func (b *BSS) String() string {
	return string(b.obj.Path())
}

// Bss holds the properties of a BSS the event source reports.
type Bss struct {
	Ssid   string
	Bssid  string
	Signal int16
}

func (b *BSS) GetAll() (*Bss, error) {
	call := b.obj.Call("org.freedesktop.DBus.Properties.GetAll", 0, service+".BSS")
	if call.Err != nil {
		return nil, errors.Errorf("%w: could not get all properties: %v", wifierr.ErrFault, call.Err)
	}

	var props map[string]dbus.Variant
	if err := call.Store(&props); err != nil {
		return nil, errors.Errorf("%w: could not convert properties: %v", wifierr.ErrFault, err)
	}

	return parseBss(props)
}

func parseBss(props map[string]dbus.Variant) (*Bss, error) {
	bss := Bss{}

	if val, ok := props["SSID"]; ok {
		if ssid, ok := val.Value().([]byte); ok {
			bss.Ssid = string(ssid)
		} else {
			return nil, errors.Errorf("%w: could not convert SSID to string: %v", wifierr.ErrFault, val)
		}
	} else {
		return nil, errors.Errorf("%w: mandatory property SSID was missing", wifierr.ErrFault)
	}

	if val, ok := props["BSSID"]; ok {
		if bssid, ok := val.Value().([]byte); ok {
			bss.Bssid = net.HardwareAddr(bssid).String()
		} else {
			return nil, errors.Errorf("%w: could not convert BSSID to string: %v", wifierr.ErrFault, val)
		}
	} else {
		return nil, errors.Errorf("%w: mandatory property BSSID was missing", wifierr.ErrFault)
	}

	if val, ok := props["Signal"]; ok {
		if signal, ok := val.Value().(int16); ok {
			bss.Signal = signal
		}
	}

	return &bss, nil
}
