package scan

import (
	"bufio"
	"context"
	"io"
	"strconv"
	"strings"
	"sync"

	"github.com/go-errors/errors"
	"github.com/the-lightning-land/wifid/shell"
	"github.com/the-lightning-land/wifid/wifierr"
)

// SignalUnknown marks an access point whose signal line was not seen.
const SignalUnknown = 0xFFFF

// MaxSsidLength is the longest SSID kept from a scan line, in bytes.
const MaxSsidLength = 32

const (
	ssidPrefix   = "\tSSID: "
	signalPrefix = "\tsignal: "
)

// AccessPoint is one scan result.
type AccessPoint struct {
	Ssid           []byte
	SignalStrength int
}

// HasSignal reports whether a signal line was seen for the access point.
func (a *AccessPoint) HasSignal() bool {
	return a.SignalStrength != SignalUnknown
}

func (a *AccessPoint) String() string {
	return string(a.Ssid)
}

// LineKind tells what a scan output line carries.
type LineKind int

const (
	LineOther LineKind = iota
	LineSsid
	LineSignal
)

// Line is a parsed scan output line.
type Line struct {
	Kind   LineKind
	Ssid   []byte
	Signal int
}

// ParseLine reads one line of scan output. SSID lines carry the rest of the
// line minus its line ending, cut to MaxSsidLength bytes. Signal lines carry
// the leading decimal integer, so "-40.00 dBm" reads as -40.
func ParseLine(line string) Line {
	switch {
	case strings.HasPrefix(line, ssidPrefix):
		ssid := strings.TrimRight(line[len(ssidPrefix):], "\r\n")
		if len(ssid) > MaxSsidLength {
			ssid = ssid[:MaxSsidLength]
		}

		return Line{Kind: LineSsid, Ssid: []byte(ssid)}
	case strings.HasPrefix(line, signalPrefix):
		return Line{Kind: LineSignal, Signal: leadingInt(line[len(signalPrefix):])}
	default:
		return Line{Kind: LineOther}
	}
}

// leadingInt parses the optionally signed digits s starts with, 0 if none.
func leadingInt(s string) int {
	s = strings.TrimLeft(s, " \t")

	end := 0
	if end < len(s) && (s[end] == '-' || s[end] == '+') {
		end++
	}

	for end < len(s) && s[end] >= '0' && s[end] <= '9' {
		end++
	}

	n, err := strconv.Atoi(s[:end])
	if err != nil {
		return 0
	}

	return n
}

type Config struct {
	Runner shell.Runner
	Logger Logger
}

// Session is a single scan pass over the output of the scan command. At most
// one scan is open at a time.
type Session struct {
	mu      sync.Mutex
	runner  shell.Runner
	log     Logger
	stream  io.ReadCloser
	reader  *bufio.Reader
	running bool

	held     bool
	heldLine string
	heldErr  error
}

func NewSession(config *Config) *Session {
	session := &Session{
		runner: config.Runner,
	}

	if config.Logger != nil {
		session.log = config.Logger
	} else {
		session.log = noopLogger{}
	}

	return session
}

// Start opens the scan command's output. Results are read with Next and the
// scan must be closed with Done.
func (s *Session) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.log.Infof("Scanning")

	if s.running || s.stream != nil {
		s.log.Errorf("Scan is already running")
		return errors.Errorf("%w: scan is already running", wifierr.ErrBusy)
	}

	s.running = true

	stream, err := s.runner.Stream(ctx, shell.StartScan)
	if err != nil {
		s.running = false
		s.log.Errorf("Failed to run scan command: %v", err)
		return errors.Errorf("%w: could not start scan: %v", wifierr.ErrFault, err)
	}

	s.stream = stream
	s.reader = bufio.NewReader(stream)

	return nil
}

// IsRunning reports whether a scan is being read. It stays set from Start
// until Done or until the scan output is exhausted.
func (s *Session) IsRunning() bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.running
}

// Next reads until the next SSID line and returns the access point it
// completes. Signal lines seen on the way update the record. When no signal
// was seen before the SSID line, a signal line directly after it is taken
// for the same record.
func (s *Session) Next() (*AccessPoint, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.stream == nil {
		s.log.Errorf("Scan results requested before a scan was started")
		return nil, errors.Errorf("%w: scan was not started", wifierr.ErrFailedPrecondition)
	}

	ap := &AccessPoint{
		SignalStrength: SignalUnknown,
	}

	for {
		line, err := s.readLine()
		if line != "" {
			s.log.Debugf("Parsing scan line %q", line)

			parsed := ParseLine(line)
			switch parsed.Kind {
			case LineSsid:
				ap.Ssid = parsed.Ssid
				if !ap.HasSignal() {
					s.trailingSignal(ap)
				}

				s.log.Debugf("Found SSID %q, signal %d", ap.Ssid, ap.SignalStrength)
				return ap, nil
			case LineSignal:
				ap.SignalStrength = parsed.Signal
			}
		}

		if err != nil {
			if err != io.EOF {
				s.log.Warnf("Could not read scan output: %v", err)
			}

			s.running = false

			return nil, errors.Errorf("%w: no more access points", wifierr.ErrNotFound)
		}
	}
}

// readLine returns the held back line, if any, before reading the stream.
func (s *Session) readLine() (string, error) {
	if s.held {
		s.held = false
		return s.heldLine, s.heldErr
	}

	return s.reader.ReadString('\n')
}

// trailingSignal looks at the line after an SSID line. A signal line is
// applied to ap, anything else is held back for the next record.
func (s *Session) trailingSignal(ap *AccessPoint) {
	line, err := s.reader.ReadString('\n')
	if line != "" {
		parsed := ParseLine(line)
		if parsed.Kind == LineSignal {
			ap.SignalStrength = parsed.Signal
			line = ""
		}
	}

	if line == "" && err == nil {
		return
	}

	s.held = true
	s.heldLine = line
	s.heldErr = err
}

// Done closes the scan output. Calling it without an open scan is a no-op.
func (s *Session) Done() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.running = false

	if s.stream == nil {
		return nil
	}

	err := s.stream.Close()
	s.stream = nil
	s.reader = nil
	s.held = false
	s.heldLine = ""
	s.heldErr = nil

	if err != nil {
		s.log.Warnf("Scan command did not finish cleanly: %v", err)
	}

	return nil
}
