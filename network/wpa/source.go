package wpa

import (
	"context"
	"fmt"
	"io"
	"sync"

	"github.com/godbus/dbus/v5"
	"github.com/the-lightning-land/wifid/events"
)

// check Source compliance to its interface during compile time
var _ events.Source = (*Source)(nil)

type SourceConfig struct {
	Interface string
	Logger    Logger
}

// Source turns wpa_supplicant state changes into the event stream lines of
// the adaptor script, "<if>: connected to <bssid>" and "<if>: disconnected".
type Source struct {
	ifname string
	log    Logger
}

func NewSource(config *SourceConfig) *Source {
	source := &Source{
		ifname: config.Interface,
	}

	if config.Logger != nil {
		source.log = config.Logger
	} else {
		source.log = noopLogger{}
	}

	return source
}

func (s *Source) Open(ctx context.Context) (io.ReadCloser, error) {
	w := New(s.log)

	err := w.Start()
	if err != nil {
		return nil, err
	}

	iface, err := w.GetInterface(s.ifname)
	if err != nil {
		_ = w.Stop()
		return nil, err
	}

	client, err := iface.PropertiesChanged()
	if err != nil {
		_ = w.Stop()
		return nil, err
	}

	reader, writer := io.Pipe()

	tracker := &linkTracker{
		ifname: s.ifname,
		currentBssid: func() string {
			bss, err := iface.CurrentBSS()
			if err != nil {
				s.log.Warnf("Could not get current BSS: %v", err)
				return ""
			}

			props, err := bss.GetAll()
			if err != nil {
				s.log.Warnf("Could not get properties of %v: %v", bss, err)
				return ""
			}

			return props.Bssid
		},
	}

	stream := &stream{
		PipeReader: reader,
		close: func() {
			client.Cancel()

			if err := w.Stop(); err != nil {
				s.log.Warnf("Could not close system bus connection: %v", err)
			}
		},
	}

	go func() {
		defer writer.Close()

		if state, err := iface.State(); err == nil {
			if line, ok := tracker.state(state); ok {
				if _, err := io.WriteString(writer, line); err != nil {
					return
				}
			}
		}

		for props := range client.Properties {
			line, ok := tracker.update(props)
			if !ok {
				continue
			}

			s.log.Debugf("Link state changed: %q", line)

			if _, err := io.WriteString(writer, line); err != nil {
				return
			}
		}
	}()

	context.AfterFunc(ctx, func() {
		_ = stream.Close()
	})

	return stream, nil
}

type stream struct {
	*io.PipeReader
	close func()
	once  sync.Once
}

func (s *stream) Close() error {
	s.once.Do(func() {
		_ = s.PipeReader.Close()
		s.close()
	})

	return nil
}

// linkTracker reports transitions between associated and not associated.
type linkTracker struct {
	ifname       string
	known        bool
	connected    bool
	currentBssid func() string
}

func (t *linkTracker) update(props map[string]dbus.Variant) (string, bool) {
	val, ok := props["State"]
	if !ok {
		return "", false
	}

	state, ok := val.Value().(string)
	if !ok {
		return "", false
	}

	return t.state(state)
}

func (t *linkTracker) state(state string) (string, bool) {
	var connected bool

	switch state {
	case "completed":
		connected = true
	case "disconnected", "inactive", "interface_disabled":
		connected = false
	default:
		// scanning, associating and the handshakes are not link changes
		return "", false
	}

	if t.known && t.connected == connected {
		return "", false
	}

	t.known = true
	t.connected = connected

	if !connected {
		return fmt.Sprintf("%s: disconnected\n", t.ifname), true
	}

	bssid := t.currentBssid()
	if bssid == "" {
		bssid = "unknown"
	}

	return fmt.Sprintf("%s: connected to %s\n", t.ifname, bssid), true
}
