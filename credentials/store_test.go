package credentials

import (
	"strings"
	"testing"

	"github.com/go-errors/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/the-lightning-land/wifid/wifierr"
)

func TestSetSecurityProtocol(t *testing.T) {
	store := NewStore()
	assert.Equal(t, SecurityNone, store.Protocol())

	for p := SecurityNone; p <= SecurityWpa2EapPeap0Enterprise; p++ {
		require.NoError(t, store.SetSecurityProtocol(p))
		assert.Equal(t, p, store.Protocol())
	}

	err := store.SetSecurityProtocol(Protocol(42))
	assert.True(t, errors.Is(err, ErrInvalidProtocol))
	assert.True(t, errors.Is(err, wifierr.ErrInvalidArgument))
	assert.Equal(t, SecurityWpa2EapPeap0Enterprise, store.Protocol())

	assert.Error(t, store.SetSecurityProtocol(Protocol(-1)))
}

func TestPassphraseAndPreSharedKeyExcludeEachOther(t *testing.T) {
	store := NewStore()

	require.NoError(t, store.SetPreSharedKey(strings.Repeat("a", MaxPskLength)))
	require.NoError(t, store.SetPassphrase("correct horse"))
	assert.Equal(t, "correct horse", store.Passphrase())
	assert.Empty(t, store.PreSharedKey())

	require.NoError(t, store.SetPreSharedKey("0123456789abcdef"))
	assert.Equal(t, "0123456789abcdef", store.PreSharedKey())
	assert.Empty(t, store.Passphrase())
}

func TestSetPassphraseLengthBoundaries(t *testing.T) {
	tests := []struct {
		length int
		valid  bool
	}{
		{length: MinPassphraseLength - 1, valid: false},
		{length: MinPassphraseLength, valid: true},
		{length: 20, valid: true},
		{length: MaxPassphraseLength, valid: true},
		{length: MaxPassphraseLength + 1, valid: false},
	}

	for _, test := range tests {
		store := NewStore()
		err := store.SetPassphrase(strings.Repeat("p", test.length))

		if test.valid {
			assert.NoError(t, err, "length %d", test.length)
			assert.Len(t, store.Passphrase(), test.length)
		} else {
			assert.True(t, errors.Is(err, wifierr.ErrInvalidArgument), "length %d", test.length)
			assert.Empty(t, store.Passphrase())
		}
	}
}

func TestRejectedPassphraseKeepsPreSharedKey(t *testing.T) {
	store := NewStore()

	require.NoError(t, store.SetPreSharedKey("abc"))
	assert.Error(t, store.SetPassphrase("short"))
	assert.Equal(t, "abc", store.PreSharedKey())
}

func TestEmptyValuesAreRejected(t *testing.T) {
	store := NewStore()

	assert.True(t, errors.Is(store.SetWepKey(""), wifierr.ErrInvalidArgument))
	assert.True(t, errors.Is(store.SetPreSharedKey(""), wifierr.ErrInvalidArgument))
	assert.True(t, errors.Is(store.SetPassphrase(""), wifierr.ErrInvalidArgument))
	assert.True(t, errors.Is(store.SetUserCredentials("", "pw"), wifierr.ErrInvalidArgument))
	assert.True(t, errors.Is(store.SetUserCredentials("user", ""), wifierr.ErrInvalidArgument))

	username, password := store.UserCredentials()
	assert.Empty(t, username)
	assert.Empty(t, password)
}

func TestValuesAreBounded(t *testing.T) {
	store := NewStore()

	require.NoError(t, store.SetWepKey(strings.Repeat("k", MaxWepKeyLength+10)))
	assert.Len(t, store.WepKey(), MaxWepKeyLength)

	require.NoError(t, store.SetPreSharedKey(strings.Repeat("f", MaxPskLength+1)))
	assert.Len(t, store.PreSharedKey(), MaxPskLength)

	require.NoError(t, store.SetUserCredentials(strings.Repeat("u", 300), strings.Repeat("p", 300)))
	username, password := store.UserCredentials()
	assert.Len(t, username, MaxUsernameLength)
	assert.Len(t, password, MaxPasswordLength)

	require.NoError(t, store.SetWepKey("abc\x00def"))
	assert.Equal(t, "abc", store.WepKey())
}

func TestClearAllCredentials(t *testing.T) {
	store := NewStore()

	require.NoError(t, store.SetSecurityProtocol(SecurityWep))
	require.NoError(t, store.SetWepKey("0102030405"))
	require.NoError(t, store.SetPassphrase("a passphrase"))
	require.NoError(t, store.SetUserCredentials("user", "password"))

	store.ClearAllCredentials()

	assert.Empty(t, store.WepKey())
	assert.Empty(t, store.Passphrase())
	assert.Empty(t, store.PreSharedKey())
	username, password := store.UserCredentials()
	assert.Empty(t, username)
	assert.Empty(t, password)
	assert.Equal(t, SecurityWep, store.Protocol())
}

func TestClearWipesBuffers(t *testing.T) {
	store := NewStore()
	require.NoError(t, store.SetWepKey("secretkey"))

	buffer := store.wepKey
	store.ClearAllCredentials()

	assert.Equal(t, make([]byte, len(buffer)), buffer)
}

func TestIsSecret(t *testing.T) {
	store := NewStore()
	require.NoError(t, store.SetPassphrase("a passphrase"))
	require.NoError(t, store.SetUserCredentials("user", "password"))

	assert.True(t, store.IsSecret("a passphrase"))
	assert.True(t, store.IsSecret("password"))
	assert.False(t, store.IsSecret("user"))
	assert.False(t, store.IsSecret(""))
}

func TestParseProtocol(t *testing.T) {
	for _, name := range ProtocolNames() {
		protocol, err := ParseProtocol(name)
		require.NoError(t, err)
		assert.Equal(t, name, protocol.String())
	}

	protocol, err := ParseProtocol(" WPA2-PSK ")
	require.NoError(t, err)
	assert.Equal(t, SecurityWpa2PskPersonal, protocol)
	assert.True(t, protocol.IsPersonal())
	assert.False(t, protocol.IsEnterprise())

	_, err = ParseProtocol("wpa3")
	assert.True(t, errors.Is(err, wifierr.ErrInvalidArgument))

	assert.Equal(t, "INVALID PROTOCOL", Protocol(9).String())
}
