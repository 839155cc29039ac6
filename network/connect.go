package network

import (
	"context"

	"github.com/go-errors/errors"
	"github.com/the-lightning-land/wifid/credentials"
	"github.com/the-lightning-land/wifid/shell"
	"github.com/the-lightning-land/wifid/wifierr"
)

// Connect joins ssid with the stored security protocol and credentials.
func (a *Adaptor) Connect(ctx context.Context, ssid string) error {
	if err := a.checkInitialized(); err != nil {
		return err
	}

	if ssid == "" || len(ssid) > credentials.MaxSsidLength {
		a.log.Errorf("Invalid SSID of length %d", len(ssid))
		return errors.Errorf("%w: invalid SSID length %d", wifierr.ErrFault, len(ssid))
	}

	protocol := a.credentials.Protocol()

	a.log.Infof("Connecting to %q using %v", ssid, protocol)

	switch protocol {
	case credentials.SecurityNone:
		return a.runner.Run(ctx, shell.ConnectSecurityNone, ssid)

	case credentials.SecurityWep:
		key := a.credentials.WepKey()
		if key == "" {
			a.log.Errorf("No WEP key set")
			return errors.Errorf("%w: no WEP key set", wifierr.ErrFault)
		}

		return a.runner.Run(ctx, shell.ConnectSecurityWep, ssid, key)

	case credentials.SecurityWpaPskPersonal:
		return a.connectPersonal(ctx, ssid, shell.ConnectSecurityWpaPskPersonal)

	case credentials.SecurityWpa2PskPersonal:
		return a.connectPersonal(ctx, ssid, shell.ConnectSecurityWpa2PskPersonal)

	case credentials.SecurityWpaEapPeap0Enterprise:
		return a.connectEnterprise(ctx, ssid, shell.ConnectSecurityWpaEapPeap0)

	case credentials.SecurityWpa2EapPeap0Enterprise:
		return a.connectEnterprise(ctx, ssid, shell.ConnectSecurityWpa2EapPeap0)

	default:
		a.log.Errorf("Unsupported security protocol %d", int(protocol))
		return errors.Errorf("%w: unsupported security protocol %d", wifierr.ErrFault, int(protocol))
	}
}

// connectPersonal writes the supplicant file the parameterless connect
// command reads. A stored passphrase is turned into a key first; the key is
// not kept.
func (a *Adaptor) connectPersonal(ctx context.Context, ssid string, command string) error {
	passphrase := a.credentials.Passphrase()
	psk := a.credentials.PreSharedKey()

	if passphrase == "" && psk == "" {
		a.log.Errorf("Neither passphrase nor pre-shared key set")
		return errors.Errorf("%w: neither passphrase nor pre-shared key set", wifierr.ErrFault)
	}

	if passphrase != "" {
		derived, err := a.deriver.DerivePsk(ctx, ssid, passphrase)
		if err != nil {
			a.log.Errorf("Could not derive pre-shared key: %v", err)
			return err
		}

		psk = derived
	}

	if err := a.writer.Write(ssid, psk); err != nil {
		return err
	}

	return a.runner.Run(ctx, command)
}

func (a *Adaptor) connectEnterprise(ctx context.Context, ssid string, command string) error {
	username, password := a.credentials.UserCredentials()

	if username == "" && password == "" {
		a.log.Errorf("No user credentials set")
		return errors.Errorf("%w: no user credentials set", wifierr.ErrFault)
	}

	return a.runner.Run(ctx, command, ssid, username, password)
}

// Disconnect leaves the current network.
func (a *Adaptor) Disconnect(ctx context.Context) error {
	if err := a.checkInitialized(); err != nil {
		return err
	}

	a.log.Infof("Disconnecting")

	return a.runner.Run(ctx, shell.Disconnect)
}
