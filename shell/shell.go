package shell

import (
	"bytes"
	"context"
	"io"
	"os/exec"
	"strings"
	"sync"

	"github.com/go-errors/errors"
	"github.com/the-lightning-land/wifid/wifierr"
)

// Runner executes adaptor commands. Run waits for the command and maps its
// exit status, Stream hands back the command's stdout while it runs.
type Runner interface {
	Run(ctx context.Context, args ...string) error
	Stream(ctx context.Context, args ...string) (io.ReadCloser, error)
}

// check Script compliance to its interface during compile time
var _ Runner = (*Script)(nil)

type Config struct {
	// Path of the adaptor script, DefaultScriptPath when empty.
	Path string
	// Interface passed as first argument, DefaultInterface when empty.
	Interface string
	// Redact lists argument values that must never show up in logs.
	Redact func(arg string) bool
	Logger Logger
}

// Script runs commands through the platform adaptor shell script.
// Calls block for as long as the script runs; no timeout is applied
// unless ctx carries one.
type Script struct {
	path   string
	ifname string
	redact func(string) bool
	log    Logger
}

func New(config *Config) *Script {
	script := &Script{
		path:   config.Path,
		ifname: config.Interface,
		redact: config.Redact,
	}

	if script.path == "" {
		script.path = DefaultScriptPath
	}

	if script.ifname == "" {
		script.ifname = DefaultInterface
	}

	if config.Logger != nil {
		script.log = config.Logger
	} else {
		script.log = noopLogger{}
	}

	return script
}

func (s *Script) command(ctx context.Context, args []string) *exec.Cmd {
	cmd := exec.CommandContext(ctx, s.path, append([]string{s.ifname}, args...)...)
	configureProcess(cmd)
	return cmd
}

// describe renders args for logs, hiding redacted values.
func (s *Script) describe(args []string) string {
	shown := make([]string, len(args))
	for i, arg := range args {
		if i > 0 && s.redact != nil && s.redact(arg) {
			shown[i] = strings.Repeat("*", len(arg))
		} else {
			shown[i] = arg
		}
	}

	return strings.Join(shown, " ")
}

func (s *Script) Run(ctx context.Context, args ...string) error {
	if len(args) == 0 {
		return errors.Errorf("%w: no command given", wifierr.ErrInvalidArgument)
	}

	cmd := s.command(ctx, args)

	var output bytes.Buffer
	cmd.Stdout = &output
	cmd.Stderr = &output

	err := cmd.Run()
	if output.Len() > 0 {
		s.log.Debugf("Output of %v: %s", args[0], strings.TrimSpace(output.String()))
	}

	if err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			code := exitErr.ExitCode()
			s.log.Errorf("WiFi client command %v failed: (%d) %v", s.describe(args), code, exitReason(code))
			return errors.Errorf("%w: command %v exited with status %d: %v", wifierr.ErrFault, args[0], code, exitReason(code))
		}

		s.log.Errorf("WiFi client command %v could not run: %v", s.describe(args), err)
		return errors.Errorf("%w: could not run command %v: %v", wifierr.ErrFault, args[0], err)
	}

	s.log.Infof("WiFi client command OK: %v", s.describe(args))

	return nil
}

func (s *Script) Stream(ctx context.Context, args ...string) (io.ReadCloser, error) {
	if len(args) == 0 {
		return nil, errors.Errorf("%w: no command given", wifierr.ErrInvalidArgument)
	}

	ctx, cancel := context.WithCancel(ctx)
	cmd := s.command(ctx, args)

	stdout, err := cmd.StdoutPipe()
	if err != nil {
		cancel()
		return nil, errors.Errorf("%w: could not open output of %v: %v", wifierr.ErrFault, args[0], err)
	}

	err = cmd.Start()
	if err != nil {
		cancel()
		s.log.Errorf("Failed to run command %v: %v", s.describe(args), err)
		return nil, errors.Errorf("%w: could not start command %v: %v", wifierr.ErrFault, args[0], err)
	}

	s.log.Debugf("Streaming output of %v (pid %d)", s.describe(args), cmd.Process.Pid)

	return &process{
		name:   args[0],
		cmd:    cmd,
		stdout: stdout,
		cancel: cancel,
		log:    s.log,
	}, nil
}

// process is the stdout of a running command. Closing it terminates the
// command's process group and reaps it, exactly once.
type process struct {
	name   string
	cmd    *exec.Cmd
	stdout io.ReadCloser
	cancel context.CancelFunc
	log    Logger
	once   sync.Once
	err    error
}

func (p *process) Read(b []byte) (int, error) {
	return p.stdout.Read(b)
}

func (p *process) Close() error {
	p.once.Do(func() {
		p.cancel()

		err := p.cmd.Wait()
		if err == nil {
			return
		}

		// Terminated by us: ExitCode reports -1 for signalled processes.
		state := p.cmd.ProcessState
		if state == nil || state.ExitCode() <= 0 {
			return
		}

		p.log.Warnf("Command %v exited with status %d: %v", p.name, state.ExitCode(), exitReason(state.ExitCode()))
		p.err = errors.Errorf("%w: command %v exited with status %d", wifierr.ErrFault, p.name, state.ExitCode())
	})

	return p.err
}
