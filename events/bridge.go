package events

import (
	"bufio"
	"context"
	"io"
	"sync"

	"github.com/go-errors/errors"
	"github.com/the-lightning-land/wifid/wifierr"
)

// Handler receives link events on the bridge's worker goroutine, together
// with the data it was registered with. A handler that blocks holds up the
// worker and therefore Stop.
type Handler func(event Event, data interface{})

// HandlerRef identifies a registered handler.
type HandlerRef uint32

type registration struct {
	ref     HandlerRef
	handler Handler
	data    interface{}
}

type nextRef struct {
	sync.Mutex
	ref HandlerRef
}

type Config struct {
	Source Source
	Logger Logger
}

// Bridge tails an event stream in a worker goroutine and publishes the
// events it classifies to every registered handler, in registration order.
type Bridge struct {
	source Source
	log    Logger

	mu      sync.Mutex
	running bool
	cancel  context.CancelFunc
	done    chan struct{}
	quit    <-chan struct{}

	handlersMtx sync.Mutex
	handlers    []*registration
	nextRef     nextRef
}

func NewBridge(config *Config) *Bridge {
	bridge := &Bridge{
		source: config.Source,
	}

	if config.Logger != nil {
		bridge.log = config.Logger
	} else {
		bridge.log = noopLogger{}
	}

	return bridge
}

// Start launches the worker. A bridge that was stopped may be started again.
func (b *Bridge) Start() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.running {
		return errors.Errorf("%w: event bridge is already running", wifierr.ErrBusy)
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})

	b.running = true
	b.cancel = cancel
	b.done = done
	b.quit = ctx.Done()

	go b.work(ctx, done)

	b.log.Infof("Started event bridge")

	return nil
}

// Stop cancels the worker and waits until it has exited and torn down its
// stream. If ctx ends first the bridge stays running and Stop may be
// called again. Stopping a bridge that is not running does nothing.
func (b *Bridge) Stop(ctx context.Context) error {
	b.mu.Lock()
	if !b.running {
		b.mu.Unlock()
		return nil
	}

	cancel, done := b.cancel, b.done
	b.mu.Unlock()

	// handlers may call back into the bridge while it is joined
	cancel()

	select {
	case <-done:
	case <-ctx.Done():
		b.log.Errorf("Event bridge worker did not terminate: %v", ctx.Err())
		return errors.Errorf("%w: could not join event bridge worker: %v", wifierr.ErrFault, ctx.Err())
	}

	b.mu.Lock()
	if b.done == done {
		b.running = false
		b.cancel = nil
		b.done = nil
		b.quit = nil

		b.log.Infof("Stopped event bridge")
	}
	b.mu.Unlock()

	return nil
}

// IsRunning reports whether a worker was started and not yet joined.
func (b *Bridge) IsRunning() bool {
	b.mu.Lock()
	defer b.mu.Unlock()

	return b.running
}

// stopping is closed once the current worker is asked to stop.
func (b *Bridge) stopping() <-chan struct{} {
	b.mu.Lock()
	defer b.mu.Unlock()

	return b.quit
}

func (b *Bridge) work(ctx context.Context, done chan struct{}) {
	defer close(done)

	stream, err := b.source.Open(ctx)
	if err != nil {
		b.log.Errorf("Could not open event stream: %v", err)
		<-ctx.Done()
		return
	}

	var once sync.Once
	teardown := func() {
		once.Do(func() {
			if err := stream.Close(); err != nil {
				b.log.Warnf("Event stream did not close cleanly: %v", err)
			}
		})
	}

	// Closing the stream unblocks a pending read.
	stop := context.AfterFunc(ctx, teardown)
	defer stop()
	defer teardown()

	reader := bufio.NewReader(stream)

	for {
		line, err := reader.ReadString('\n')
		if line != "" {
			if event, ok := Classify(line); ok {
				b.publish(ctx, event)
			}
		}

		if err != nil {
			if err != io.EOF && ctx.Err() == nil {
				b.log.Warnf("Could not read event stream: %v", err)
			}

			break
		}
	}

	teardown()

	if ctx.Err() == nil {
		b.log.Infof("Event stream ended, waiting for stop")
	}

	<-ctx.Done()
}

func (b *Bridge) publish(ctx context.Context, event Event) {
	b.handlersMtx.Lock()
	handlers := append([]*registration(nil), b.handlers...)
	b.handlersMtx.Unlock()

	b.log.Debugf("Publishing %v to %d handlers", event, len(handlers))

	for _, h := range handlers {
		if ctx.Err() != nil {
			return
		}

		h.handler(event, h.data)
	}
}

// AddEventHandler registers handler to receive every event along with data.
func (b *Bridge) AddEventHandler(handler Handler, data interface{}) (HandlerRef, error) {
	if handler == nil {
		return 0, errors.Errorf("%w: no event handler given", wifierr.ErrInvalidArgument)
	}

	b.nextRef.Lock()
	b.nextRef.ref++
	ref := b.nextRef.ref
	b.nextRef.Unlock()

	b.handlersMtx.Lock()
	b.handlers = append(b.handlers, &registration{
		ref:     ref,
		handler: handler,
		data:    data,
	})
	b.handlersMtx.Unlock()

	return ref, nil
}

func (b *Bridge) RemoveEventHandler(ref HandlerRef) error {
	b.handlersMtx.Lock()
	defer b.handlersMtx.Unlock()

	for i, h := range b.handlers {
		if h.ref == ref {
			b.handlers = append(b.handlers[:i:i], b.handlers[i+1:]...)
			return nil
		}
	}

	return errors.Errorf("%w: no event handler %d", wifierr.ErrNotFound, ref)
}
