package credentials

import (
	"strings"
	"sync"

	"github.com/go-errors/errors"
	"github.com/the-lightning-land/wifid/wifierr"
)

// Maximum lengths of the stored values, in bytes.
const (
	MaxSsidLength       = 32
	MaxWepKeyLength     = 26
	MinPassphraseLength = 8
	MaxPassphraseLength = 63
	MaxPskLength        = 64
	MaxUsernameLength   = 254
	MaxPasswordLength   = 254
)

// ErrInvalidProtocol is returned for a protocol outside the enumeration.
var ErrInvalidProtocol = errors.Errorf("%w: invalid security protocol", wifierr.ErrInvalidArgument)

// Store holds the selected security protocol and the secrets used at
// connect time. A passphrase and a pre-shared key exclude each other.
type Store struct {
	mu           sync.Mutex
	protocol     Protocol
	wepKey       []byte
	passphrase   []byte
	preSharedKey []byte
	username     []byte
	password     []byte
}

func NewStore() *Store {
	return &Store{
		protocol: SecurityNone,
	}
}

// bounded copies value up to limit bytes and stops at the first NUL byte.
func bounded(value string, limit int) []byte {
	n := strings.IndexByte(value, 0)
	if n < 0 {
		n = len(value)
	}

	if n > limit {
		n = limit
	}

	b := make([]byte, n)
	copy(b, value)

	return b
}

// wipe zeroes b before it is dropped.
func wipe(b []byte) {
	for i := range b {
		b[i] = 0
	}
}

func (s *Store) SetSecurityProtocol(protocol Protocol) error {
	if !protocol.Valid() {
		return errors.Errorf("%w: %d", ErrInvalidProtocol, int(protocol))
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.protocol = protocol

	return nil
}

func (s *Store) Protocol() Protocol {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.protocol
}

func (s *Store) SetWepKey(key string) error {
	if key == "" {
		return errors.Errorf("%w: empty WEP key", wifierr.ErrInvalidArgument)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	wipe(s.wepKey)
	s.wepKey = bounded(key, MaxWepKeyLength)

	return nil
}

func (s *Store) SetPreSharedKey(psk string) error {
	if psk == "" {
		return errors.Errorf("%w: empty pre-shared key", wifierr.ErrInvalidArgument)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	wipe(s.preSharedKey)
	s.preSharedKey = bounded(psk, MaxPskLength)

	wipe(s.passphrase)
	s.passphrase = nil

	return nil
}

func (s *Store) SetPassphrase(passphrase string) error {
	if i := strings.IndexByte(passphrase, 0); i >= 0 {
		passphrase = passphrase[:i]
	}

	if passphrase == "" {
		return errors.Errorf("%w: empty passphrase", wifierr.ErrInvalidArgument)
	}

	length := len(passphrase)
	if length < MinPassphraseLength || length > MaxPassphraseLength {
		return errors.Errorf("%w: passphrase length %d outside [%d..%d]",
			wifierr.ErrInvalidArgument, length, MinPassphraseLength, MaxPassphraseLength)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	wipe(s.passphrase)
	s.passphrase = bounded(passphrase, MaxPassphraseLength)

	wipe(s.preSharedKey)
	s.preSharedKey = nil

	return nil
}

func (s *Store) SetUserCredentials(username string, password string) error {
	if username == "" {
		return errors.Errorf("%w: empty username", wifierr.ErrInvalidArgument)
	}

	if password == "" {
		return errors.Errorf("%w: empty password", wifierr.ErrInvalidArgument)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	wipe(s.username)
	s.username = bounded(username, MaxUsernameLength)

	wipe(s.password)
	s.password = bounded(password, MaxPasswordLength)

	return nil
}

// ClearAllCredentials zeroes every secret. The protocol is kept.
func (s *Store) ClearAllCredentials() {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, b := range [][]byte{s.wepKey, s.passphrase, s.preSharedKey, s.username, s.password} {
		wipe(b)
	}

	s.wepKey = nil
	s.passphrase = nil
	s.preSharedKey = nil
	s.username = nil
	s.password = nil
}

func (s *Store) WepKey() string {
	s.mu.Lock()
	defer s.mu.Unlock()

	return string(s.wepKey)
}

func (s *Store) Passphrase() string {
	s.mu.Lock()
	defer s.mu.Unlock()

	return string(s.passphrase)
}

func (s *Store) PreSharedKey() string {
	s.mu.Lock()
	defer s.mu.Unlock()

	return string(s.preSharedKey)
}

func (s *Store) UserCredentials() (username string, password string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	return string(s.username), string(s.password)
}

// IsSecret reports whether value is one of the stored secrets, so command
// logs can hide it.
func (s *Store) IsSecret(value string) bool {
	if value == "" {
		return false
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	for _, b := range [][]byte{s.wepKey, s.passphrase, s.preSharedKey, s.password} {
		if len(b) > 0 && string(b) == value {
			return true
		}
	}

	return false
}
