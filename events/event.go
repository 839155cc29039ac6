package events

import (
	"strings"
)

// Event is a change of the link state reported by the event stream.
type Event int

const (
	Connected Event = iota
	Disconnected
)

func (e Event) String() string {
	switch e {
	case Connected:
		return "CONNECTED"
	case Disconnected:
		return "DISCONNECTED"
	default:
		return "INVALID EVENT"
	}
}

const (
	connectedMarker    = "connected to"
	disconnectedMarker = "disconnected"
)

// Classify maps one line of the event stream to an event. Lines mentioning
// neither marker carry no event.
func Classify(line string) (Event, bool) {
	switch {
	case strings.Contains(line, connectedMarker):
		return Connected, true
	case strings.Contains(line, disconnectedMarker):
		return Disconnected, true
	default:
		return 0, false
	}
}
