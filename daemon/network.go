package daemon

import (
	"github.com/go-errors/errors"
	"github.com/the-lightning-land/wifid/credentials"
)

// maybeConnect makes a single attempt to join the configured network.
func (d *Daemon) maybeConnect() {
	if d.wifi == nil || d.wifi.Ssid == "" {
		d.log.Infof("No WiFi network configured. Not connecting.")
		return
	}

	err := d.applyCredentials(d.wifi)
	if err != nil {
		d.log.Errorf("Could not set credentials for %v: %v", d.wifi.Ssid, err)
		return
	}

	d.log.Infof("Will attempt connecting to WiFi %v.", d.wifi.Ssid)

	err = d.adaptor.Connect(d.ctx, d.wifi.Ssid)
	if err != nil {
		d.log.Warnf("Whoops, couldn't connect to WiFi: %v", err)
	}
}

// applyCredentials stores the secrets the configured protocol needs.
func (d *Daemon) applyCredentials(wifi *Wifi) error {
	err := d.adaptor.SetSecurityProtocol(wifi.Security)
	if err != nil {
		return err
	}

	switch {
	case wifi.Security == credentials.SecurityWep:
		return d.adaptor.SetWepKey(wifi.WepKey)

	case wifi.Security.IsPersonal():
		if wifi.Psk != "" {
			return d.adaptor.SetPreSharedKey(wifi.Psk)
		}

		return d.adaptor.SetPassphrase(wifi.Passphrase)

	case wifi.Security.IsEnterprise():
		return d.adaptor.SetUserCredentials(wifi.Username, wifi.Password)

	case wifi.Security == credentials.SecurityNone:
		return nil

	default:
		return errors.Errorf("unsupported security protocol %v", wifi.Security)
	}
}
