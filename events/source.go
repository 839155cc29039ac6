package events

import (
	"context"
	"io"

	"github.com/the-lightning-land/wifid/shell"
)

// Source opens the line oriented stream the bridge tails. The stream lives
// until ctx is canceled or it is closed.
type Source interface {
	Open(ctx context.Context) (io.ReadCloser, error)
}

// check ScriptSource compliance to its interface during compile time
var _ Source = (*ScriptSource)(nil)

// ScriptSource streams the adaptor script's event command.
type ScriptSource struct {
	runner shell.Runner
}

func NewScriptSource(runner shell.Runner) *ScriptSource {
	return &ScriptSource{
		runner: runner,
	}
}

func (s *ScriptSource) Open(ctx context.Context) (io.ReadCloser, error) {
	return s.runner.Stream(ctx, shell.SetEvent)
}
