package connectivity

import (
	"context"
	"sync"

	"github.com/the-lightning-land/wifid/events"
)

type State int

const (
	Offline State = iota
	Online
)

func (s State) String() string {
	switch s {
	case Offline:
		return "OFFLINE"
	case Online:
		return "ONLINE"
	default:
		return "INVALID STATE"
	}
}

type Reporter interface {
	CurrentState() State
	WaitForStateChange(context.Context, State) bool
}

// Registrar is where the reporter listens for link events.
type Registrar interface {
	AddEventHandler(handler events.Handler, data interface{}) (events.HandlerRef, error)
}

// check LinkReporter compliance to its interface during compile time
var _ Reporter = (*LinkReporter)(nil)

// LinkReporter is online between a Connected and the next Disconnected
// event.
type LinkReporter struct {
	mu      sync.Mutex
	state   State
	changed chan struct{}
}

func NewReporter(registrar Registrar) (*LinkReporter, error) {
	reporter := &LinkReporter{
		state:   Offline,
		changed: make(chan struct{}),
	}

	_, err := registrar.AddEventHandler(reporter.handle, nil)
	if err != nil {
		return nil, err
	}

	return reporter, nil
}

func (r *LinkReporter) handle(event events.Event, _ interface{}) {
	state := Offline
	if event == events.Connected {
		state = Online
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if state == r.state {
		return
	}

	r.state = state

	close(r.changed)
	r.changed = make(chan struct{})
}

func (r *LinkReporter) CurrentState() State {
	r.mu.Lock()
	defer r.mu.Unlock()

	return r.state
}

// WaitForStateChange blocks until the state is no longer state. It reports
// false when ctx ends first.
func (r *LinkReporter) WaitForStateChange(ctx context.Context, state State) bool {
	for {
		r.mu.Lock()
		current, changed := r.state, r.changed
		r.mu.Unlock()

		if current != state {
			return true
		}

		select {
		case <-changed:
		case <-ctx.Done():
			return false
		}
	}
}
