package events

import (
	"context"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/go-errors/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/the-lightning-land/wifid/shell"
	"github.com/the-lightning-land/wifid/shell/shelltest"
	"github.com/the-lightning-land/wifid/wifierr"
)

const timeout = 2 * time.Second

// pipeSource hands out the read end of a pipe the test writes lines to.
type pipeSource struct {
	reader *io.PipeReader
	writer *io.PipeWriter
	opened chan struct{}
}

func newPipeSource() *pipeSource {
	reader, writer := io.Pipe()

	return &pipeSource{
		reader: reader,
		writer: writer,
		opened: make(chan struct{}, 1),
	}
}

func (s *pipeSource) Open(ctx context.Context) (io.ReadCloser, error) {
	s.opened <- struct{}{}
	return s.reader, nil
}

func (s *pipeSource) send(t *testing.T, line string) {
	_, err := s.writer.Write([]byte(line))
	require.NoError(t, err)
}

type failingSource struct{}

func (failingSource) Open(ctx context.Context) (io.ReadCloser, error) {
	return nil, errors.Errorf("%w: cannot spawn", wifierr.ErrFault)
}

type recorded struct {
	event Event
	data  interface{}
}

func recorder(received chan<- recorded) Handler {
	return func(event Event, data interface{}) {
		received <- recorded{event: event, data: data}
	}
}

func receive(t *testing.T, received <-chan recorded) recorded {
	select {
	case r := <-received:
		return r
	case <-time.After(timeout):
		t.Fatal("no event received")
		return recorded{}
	}
}

func stop(t *testing.T, bridge *Bridge) {
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	require.NoError(t, bridge.Stop(ctx))
}

func TestClassify(t *testing.T) {
	tests := []struct {
		line  string
		event Event
		ok    bool
	}{
		{line: "wlan0: connected to 00:11:22:33:44:55\n", event: Connected, ok: true},
		{line: "wlan0: disconnected\n", event: Disconnected, ok: true},
		{line: "wlan0: disconnected from 00:11:22:33:44:55 (reason 3)\n", event: Disconnected, ok: true},
		{line: "wlan0: new station 00:11:22:33:44:55\n", ok: false},
		{line: "\n", ok: false},
	}

	for _, test := range tests {
		event, ok := Classify(test.line)
		assert.Equal(t, test.ok, ok, "line %q", test.line)

		if test.ok {
			assert.Equal(t, test.event, event, "line %q", test.line)
		}
	}
}

func TestEventString(t *testing.T) {
	assert.Equal(t, "CONNECTED", Connected.String())
	assert.Equal(t, "DISCONNECTED", Disconnected.String())
	assert.Equal(t, "INVALID EVENT", Event(7).String())
}

func TestBridgePublishesToEveryHandler(t *testing.T) {
	source := newPipeSource()
	bridge := NewBridge(&Config{Source: source})

	first := make(chan recorded, 4)
	second := make(chan recorded, 4)

	_, err := bridge.AddEventHandler(recorder(first), "first")
	require.NoError(t, err)
	_, err = bridge.AddEventHandler(recorder(second), "second")
	require.NoError(t, err)

	require.NoError(t, bridge.Start())
	defer stop(t, bridge)

	source.send(t, "wlan0: connected to 00:11:22:33:44:55\n")

	assert.Equal(t, recorded{event: Connected, data: "first"}, receive(t, first))
	assert.Equal(t, recorded{event: Connected, data: "second"}, receive(t, second))

	source.send(t, "wlan0: scanning\n")
	source.send(t, "wlan0: disconnected\n")

	assert.Equal(t, recorded{event: Disconnected, data: "first"}, receive(t, first))
	assert.Equal(t, recorded{event: Disconnected, data: "second"}, receive(t, second))

	assert.Empty(t, first)
	assert.Empty(t, second)
}

func TestBridgeCallsHandlersInRegistrationOrder(t *testing.T) {
	source := newPipeSource()
	bridge := NewBridge(&Config{Source: source})

	var mu sync.Mutex
	var order []int
	finished := make(chan struct{})

	for i := 0; i < 3; i++ {
		i := i
		_, err := bridge.AddEventHandler(func(event Event, data interface{}) {
			mu.Lock()
			order = append(order, i)
			mu.Unlock()

			if i == 2 {
				close(finished)
			}
		}, nil)
		require.NoError(t, err)
	}

	require.NoError(t, bridge.Start())
	defer stop(t, bridge)

	source.send(t, "wlan0: connected to 00:11:22:33:44:55\n")

	select {
	case <-finished:
	case <-time.After(timeout):
		t.Fatal("handlers not called")
	}

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, []int{0, 1, 2}, order)
}

func TestBridgeStopWhileIdle(t *testing.T) {
	source := newPipeSource()
	bridge := NewBridge(&Config{Source: source})

	received := make(chan recorded, 4)
	_, err := bridge.AddEventHandler(recorder(received), nil)
	require.NoError(t, err)

	require.NoError(t, bridge.Start())

	select {
	case <-source.opened:
	case <-time.After(timeout):
		t.Fatal("source not opened")
	}

	stop(t, bridge)
	assert.False(t, bridge.IsRunning())

	// the stream was torn down, so nothing can reach the handlers any more
	_, err = source.writer.Write([]byte("wlan0: connected to 00:11:22:33:44:55\n"))
	assert.ErrorIs(t, err, io.ErrClosedPipe)
	assert.Empty(t, received)
}

func TestBridgeTearsDownOnce(t *testing.T) {
	for _, hold := range []bool{true, false} {
		runner := shelltest.New()
		runner.Output(shell.SetEvent, "wlan0: connected to 00:11:22:33:44:55\n")
		runner.Hold[shell.SetEvent] = hold

		bridge := NewBridge(&Config{Source: NewScriptSource(runner)})

		received := make(chan recorded, 4)
		_, err := bridge.AddEventHandler(recorder(received), nil)
		require.NoError(t, err)

		require.NoError(t, bridge.Start())
		assert.Equal(t, Connected, receive(t, received).event)

		stop(t, bridge)

		require.Len(t, runner.Streams(), 1)
		assert.Equal(t, 1, runner.Streams()[0].Closes(), "hold %v", hold)
		assert.Equal(t, []string{shell.SetEvent}, runner.Commands())
	}
}

func TestBridgeStartTwice(t *testing.T) {
	bridge := NewBridge(&Config{Source: newPipeSource()})

	require.NoError(t, bridge.Start())

	err := bridge.Start()
	assert.True(t, errors.Is(err, wifierr.ErrBusy))

	stop(t, bridge)
}

func TestBridgeRestart(t *testing.T) {
	runner := shelltest.New()
	runner.Hold[shell.SetEvent] = true

	bridge := NewBridge(&Config{Source: NewScriptSource(runner)})

	require.NoError(t, bridge.Start())
	stop(t, bridge)
	require.NoError(t, bridge.Start())
	stop(t, bridge)

	assert.Equal(t, []string{shell.SetEvent, shell.SetEvent}, runner.Commands())
}

func TestBridgeStopWithoutStart(t *testing.T) {
	bridge := NewBridge(&Config{Source: newPipeSource()})

	stop(t, bridge)
	assert.False(t, bridge.IsRunning())
}

func TestBridgeStopTimesOut(t *testing.T) {
	source := newPipeSource()
	bridge := NewBridge(&Config{Source: source})

	release := make(chan struct{})
	entered := make(chan struct{})

	_, err := bridge.AddEventHandler(func(event Event, data interface{}) {
		close(entered)
		<-release
	}, nil)
	require.NoError(t, err)

	require.NoError(t, bridge.Start())

	go func() {
		_, _ = source.writer.Write([]byte("wlan0: disconnected\n"))
	}()

	<-entered

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()

	err = bridge.Stop(ctx)
	assert.True(t, errors.Is(err, wifierr.ErrFault))
	assert.True(t, bridge.IsRunning())

	close(release)
	stop(t, bridge)
}

func TestBridgeSourceFailure(t *testing.T) {
	bridge := NewBridge(&Config{Source: failingSource{}})

	require.NoError(t, bridge.Start())
	assert.True(t, bridge.IsRunning())

	stop(t, bridge)
}

func TestAddEventHandlerRejectsNil(t *testing.T) {
	bridge := NewBridge(&Config{Source: newPipeSource()})

	_, err := bridge.AddEventHandler(nil, nil)
	assert.True(t, errors.Is(err, wifierr.ErrInvalidArgument))
}

func TestRemoveEventHandler(t *testing.T) {
	source := newPipeSource()
	bridge := NewBridge(&Config{Source: source})

	removed := make(chan recorded, 4)
	kept := make(chan recorded, 4)

	ref, err := bridge.AddEventHandler(recorder(removed), nil)
	require.NoError(t, err)
	_, err = bridge.AddEventHandler(recorder(kept), nil)
	require.NoError(t, err)

	require.NoError(t, bridge.RemoveEventHandler(ref))

	err = bridge.RemoveEventHandler(ref)
	assert.True(t, errors.Is(err, wifierr.ErrNotFound))

	require.NoError(t, bridge.Start())
	defer stop(t, bridge)

	source.send(t, "wlan0: connected to 00:11:22:33:44:55\n")

	assert.Equal(t, Connected, receive(t, kept).event)
	assert.Empty(t, removed)
}

func TestSubscribe(t *testing.T) {
	source := newPipeSource()
	bridge := NewBridge(&Config{Source: source})

	client := bridge.Subscribe()
	other := bridge.Subscribe()
	assert.NotEqual(t, client.Id, other.Id)
	other.Cancel()
	other.Cancel()

	require.NoError(t, bridge.Start())
	defer stop(t, bridge)

	source.send(t, "wlan0: connected to 00:11:22:33:44:55\n")

	select {
	case event := <-client.Events:
		assert.Equal(t, Connected, event)
	case <-time.After(timeout):
		t.Fatal("no event received")
	}

	client.Cancel()

	select {
	case <-client.Done():
	default:
		t.Fatal("client not done after cancel")
	}

	source.send(t, "wlan0: disconnected\n")
	assert.Empty(t, other.Events)
}

func TestBridgeStopsWithStalledSubscriber(t *testing.T) {
	source := newPipeSource()
	bridge := NewBridge(&Config{Source: source})

	client := bridge.Subscribe()
	defer client.Cancel()

	require.NoError(t, bridge.Start())

	go func() {
		for i := 0; i < 20; i++ {
			if _, err := source.writer.Write([]byte("wlan0: connected to aa\n")); err != nil {
				return
			}
		}
	}()

	// nobody reads, the buffer fills and the next delivery blocks
	require.Eventually(t, func() bool {
		return len(client.Events) == clientBuffer
	}, timeout, time.Millisecond)

	ctx, cancel := context.WithTimeout(context.Background(), 500*time.Millisecond)
	defer cancel()

	require.NoError(t, bridge.Stop(ctx))
	assert.False(t, bridge.IsRunning())
}

// contextSource records the worker context it was opened with.
type contextSource struct {
	*pipeSource
	ctx chan context.Context
}

func (s *contextSource) Open(ctx context.Context) (io.ReadCloser, error) {
	s.ctx <- ctx
	return s.pipeSource.Open(ctx)
}

func TestHandlerQueriesBridgeWhileStopping(t *testing.T) {
	source := &contextSource{pipeSource: newPipeSource(), ctx: make(chan context.Context, 1)}
	bridge := NewBridge(&Config{Source: source})

	entered := make(chan struct{})
	gate := make(chan struct{})
	running := make(chan bool, 1)

	_, err := bridge.AddEventHandler(func(event Event, data interface{}) {
		close(entered)
		<-gate
		running <- bridge.IsRunning()
	}, nil)
	require.NoError(t, err)

	require.NoError(t, bridge.Start())
	worker := <-source.ctx

	go func() {
		_, _ = source.writer.Write([]byte("wlan0: disconnected\n"))
	}()

	<-entered

	stopped := make(chan error, 1)
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()

		stopped <- bridge.Stop(ctx)
	}()

	require.Eventually(t, func() bool {
		return worker.Err() != nil
	}, timeout, time.Millisecond)

	close(gate)

	select {
	case err := <-stopped:
		assert.NoError(t, err)
	case <-time.After(timeout):
		t.Fatal("stop did not return")
	}

	assert.True(t, <-running)
	assert.False(t, bridge.IsRunning())
}
