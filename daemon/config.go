package daemon

import (
	"time"

	"github.com/the-lightning-land/wifid/credentials"
)

// Wifi is the network the daemon joins when it starts. An empty Ssid skips
// the connection attempt.
type Wifi struct {
	Ssid       string
	Security   credentials.Protocol
	Passphrase string
	Psk        string
	WepKey     string
	Username   string
	Password   string
}

type Config struct {
	Adaptor Adaptor
	Wifi    *Wifi
	// StopTimeout bounds waiting for the event worker on shutdown.
	StopTimeout time.Duration
	Logger      Logger
}
