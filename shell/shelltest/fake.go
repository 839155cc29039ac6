// Package shelltest provides a scripted shell.Runner for tests.
package shelltest

import (
	"context"
	"io"
	"strings"
	"sync"

	"github.com/go-errors/errors"
	"github.com/the-lightning-land/wifid/shell"
	"github.com/the-lightning-land/wifid/wifierr"
)

// check Fake compliance to its interface during compile time
var _ shell.Runner = (*Fake)(nil)

// Fake answers commands from tables keyed by the command name (the first
// argument). Commands without an entry succeed with no output.
type Fake struct {
	mu sync.Mutex

	// Errors returned by Run, or by Stream when spawning should fail.
	Errors map[string]error
	// Outputs streamed by Stream.
	Outputs map[string]string
	// Hold keeps a stream open after its output until it is closed, like a
	// long running process.
	Hold map[string]bool

	calls   [][]string
	streams []*Stream
}

func New() *Fake {
	return &Fake{
		Errors:  map[string]error{},
		Outputs: map[string]string{},
		Hold:    map[string]bool{},
	}
}

// Fail makes command exit with a non-zero status.
func (f *Fake) Fail(command string) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.Errors[command] = errors.Errorf("%w: command %v exited with status 1", wifierr.ErrFault, command)
}

// Succeed clears a failure set with Fail.
func (f *Fake) Succeed(command string) {
	f.mu.Lock()
	defer f.mu.Unlock()

	delete(f.Errors, command)
}

// Output sets what streaming command prints.
func (f *Fake) Output(command string, output string) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.Outputs[command] = output
}

func (f *Fake) record(args []string) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.calls = append(f.calls, append([]string(nil), args...))
}

func (f *Fake) Run(ctx context.Context, args ...string) error {
	f.record(args)

	if len(args) == 0 {
		return errors.Errorf("%w: no command given", wifierr.ErrInvalidArgument)
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	return f.Errors[args[0]]
}

func (f *Fake) Stream(ctx context.Context, args ...string) (io.ReadCloser, error) {
	f.record(args)

	if len(args) == 0 {
		return nil, errors.Errorf("%w: no command given", wifierr.ErrInvalidArgument)
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	if err := f.Errors[args[0]]; err != nil {
		return nil, err
	}

	stream := NewStream(f.Outputs[args[0]], f.Hold[args[0]])
	f.streams = append(f.streams, stream)

	return stream, nil
}

// Calls returns every recorded invocation.
func (f *Fake) Calls() [][]string {
	f.mu.Lock()
	defer f.mu.Unlock()

	calls := make([][]string, len(f.calls))
	copy(calls, f.calls)

	return calls
}

// Commands returns the command names of every recorded invocation.
func (f *Fake) Commands() []string {
	f.mu.Lock()
	defer f.mu.Unlock()

	var commands []string
	for _, call := range f.calls {
		if len(call) > 0 {
			commands = append(commands, call[0])
		}
	}

	return commands
}

// Streams returns every stream handed out so far.
func (f *Fake) Streams() []*Stream {
	f.mu.Lock()
	defer f.mu.Unlock()

	return append([]*Stream(nil), f.streams...)
}

// Stream is a fake process output.
type Stream struct {
	reader *strings.Reader
	hold   bool
	closed chan struct{}
	once   sync.Once

	mu     sync.Mutex
	closes int
}

func NewStream(output string, hold bool) *Stream {
	return &Stream{
		reader: strings.NewReader(output),
		hold:   hold,
		closed: make(chan struct{}),
	}
}

func (s *Stream) Read(b []byte) (int, error) {
	select {
	case <-s.closed:
		return 0, io.ErrClosedPipe
	default:
	}

	s.mu.Lock()
	n, err := s.reader.Read(b)
	s.mu.Unlock()

	if err == io.EOF && s.hold {
		<-s.closed
		return 0, io.ErrClosedPipe
	}

	return n, err
}

func (s *Stream) Close() error {
	s.mu.Lock()
	s.closes++
	s.mu.Unlock()

	s.once.Do(func() {
		close(s.closed)
	})

	return nil
}

// Closes reports how often Close was called.
func (s *Stream) Closes() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.closes
}

// IsClosed reports whether Close was called at least once.
func (s *Stream) IsClosed() bool {
	select {
	case <-s.closed:
		return true
	default:
		return false
	}
}
