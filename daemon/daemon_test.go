package daemon

import (
	"context"
	"io"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/the-lightning-land/wifid/credentials"
	"github.com/the-lightning-land/wifid/network"
	"github.com/the-lightning-land/wifid/shell"
	"github.com/the-lightning-land/wifid/shell/shelltest"
)

const timeout = 2 * time.Second

type pipeSource struct {
	reader *io.PipeReader
}

func (s *pipeSource) Open(ctx context.Context) (io.ReadCloser, error) {
	return s.reader, nil
}

func newAdaptor(t *testing.T, runner *shelltest.Fake, source *pipeSource) *network.Adaptor {
	return network.New(&network.Config{
		Runner:         runner,
		Source:         source,
		SupplicantFile: filepath.Join(t.TempDir(), "wpa_supplicant.conf"),
	})
}

func contains(commands []string, command string) bool {
	for _, c := range commands {
		if c == command {
			return true
		}
	}

	return false
}

func TestRunConnectsAndShutsDown(t *testing.T) {
	runner := shelltest.New()
	reader, writer := io.Pipe()

	daemon := New(&Config{
		Adaptor: newAdaptor(t, runner, &pipeSource{reader: reader}),
		Wifi: &Wifi{
			Ssid:     "Home",
			Security: credentials.SecurityWep,
			WepKey:   "0102030405",
		},
	})

	result := make(chan error)
	go func() {
		result <- daemon.Run()
	}()

	require.Eventually(t, func() bool {
		return contains(runner.Commands(), shell.ConnectSecurityWep)
	}, timeout, time.Millisecond)

	_, err := writer.Write([]byte("wlan0: connected to 00:11:22:33:44:55\n"))
	require.NoError(t, err)

	require.Eventually(t, func() bool {
		return daemon.reporter.CurrentState().String() == "ONLINE"
	}, timeout, time.Millisecond)

	daemon.Shutdown()
	daemon.Shutdown()

	select {
	case err := <-result:
		assert.NoError(t, err)
	case <-time.After(timeout):
		t.Fatal("daemon did not shut down")
	}

	assert.Equal(t, []string{
		shell.HwStart,
		shell.WlanUp,
		shell.ConnectSecurityWep,
		shell.HwStop,
	}, runner.Commands())

	assert.Equal(t, []string{shell.ConnectSecurityWep, "Home", "0102030405"}, runner.Calls()[2])
}

func TestRunWithoutConfiguredNetwork(t *testing.T) {
	runner := shelltest.New()
	reader, _ := io.Pipe()

	daemon := New(&Config{
		Adaptor: newAdaptor(t, runner, &pipeSource{reader: reader}),
	})

	result := make(chan error)
	go func() {
		result <- daemon.Run()
	}()

	require.Eventually(t, func() bool {
		return contains(runner.Commands(), shell.WlanUp)
	}, timeout, time.Millisecond)

	daemon.Shutdown()

	select {
	case err := <-result:
		assert.NoError(t, err)
	case <-time.After(timeout):
		t.Fatal("daemon did not shut down")
	}

	assert.Equal(t, []string{shell.HwStart, shell.WlanUp, shell.HwStop}, runner.Commands())
}

func TestRunStartFailureStopsAdaptor(t *testing.T) {
	runner := shelltest.New()
	runner.Fail(shell.WlanUp)
	reader, _ := io.Pipe()

	daemon := New(&Config{
		Adaptor: newAdaptor(t, runner, &pipeSource{reader: reader}),
	})

	err := daemon.Run()
	assert.Error(t, err)

	assert.Equal(t, []string{shell.HwStart, shell.WlanUp, shell.HwStop}, runner.Commands())
}

func TestConnectFailureKeepsRunning(t *testing.T) {
	runner := shelltest.New()
	runner.Fail(shell.ConnectSecurityNone)
	reader, _ := io.Pipe()

	daemon := New(&Config{
		Adaptor: newAdaptor(t, runner, &pipeSource{reader: reader}),
		Wifi:    &Wifi{Ssid: "Cafe"},
	})

	result := make(chan error)
	go func() {
		result <- daemon.Run()
	}()

	require.Eventually(t, func() bool {
		return contains(runner.Commands(), shell.ConnectSecurityNone)
	}, timeout, time.Millisecond)

	daemon.Shutdown()

	select {
	case err := <-result:
		assert.NoError(t, err)
	case <-time.After(timeout):
		t.Fatal("daemon did not shut down")
	}
}

func TestApplyCredentials(t *testing.T) {
	runner := shelltest.New()
	adaptor := newAdaptor(t, runner, &pipeSource{})
	daemon := New(&Config{Adaptor: adaptor})

	assert.NoError(t, daemon.applyCredentials(&Wifi{Security: credentials.SecurityWpa2PskPersonal, Passphrase: "a passphrase"}))
	assert.NoError(t, daemon.applyCredentials(&Wifi{Security: credentials.SecurityWpaPskPersonal, Psk: "0123abcd"}))
	assert.NoError(t, daemon.applyCredentials(&Wifi{Security: credentials.SecurityWpa2EapPeap0Enterprise, Username: "user", Password: "secret"}))
	assert.Error(t, daemon.applyCredentials(&Wifi{Security: credentials.SecurityWpa2PskPersonal, Passphrase: "short"}))
	assert.Error(t, daemon.applyCredentials(&Wifi{Security: credentials.SecurityWep}))
	assert.Error(t, daemon.applyCredentials(&Wifi{Security: credentials.Protocol(12)}))
}
