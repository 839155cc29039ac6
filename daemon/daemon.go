package daemon

import (
	"context"
	"sync"
	"time"

	"github.com/go-errors/errors"
	"github.com/the-lightning-land/wifid/connectivity"
	"github.com/the-lightning-land/wifid/credentials"
	"github.com/the-lightning-land/wifid/events"
)

const defaultStopTimeout = 5 * time.Second

// Adaptor is the part of network.Adaptor the daemon drives.
type Adaptor interface {
	Init() error
	Release() error
	Start(ctx context.Context) error
	Stop(ctx context.Context) error
	SetSecurityProtocol(protocol credentials.Protocol) error
	SetWepKey(key string) error
	SetPassphrase(passphrase string) error
	SetPreSharedKey(psk string) error
	SetUserCredentials(username string, password string) error
	Connect(ctx context.Context, ssid string) error
	AddEventHandler(handler events.Handler, data interface{}) (events.HandlerRef, error)
	Subscribe() (*events.Client, error)
}

// Daemon keeps the WiFi client running until it is shut down.
type Daemon struct {
	adaptor     Adaptor
	wifi        *Wifi
	stopTimeout time.Duration
	log         Logger
	reporter    *connectivity.LinkReporter
	ctx         context.Context
	cancel      context.CancelFunc
	done        chan struct{}
	once        sync.Once
}

func New(config *Config) *Daemon {
	ctx, cancel := context.WithCancel(context.Background())

	daemon := &Daemon{
		adaptor:     config.Adaptor,
		wifi:        config.Wifi,
		stopTimeout: config.StopTimeout,
		ctx:         ctx,
		cancel:      cancel,
		done:        make(chan struct{}),
	}

	if daemon.stopTimeout == 0 {
		daemon.stopTimeout = defaultStopTimeout
	}

	if config.Logger != nil {
		daemon.log = config.Logger
	} else {
		daemon.log = noopLogger{}
	}

	return daemon
}

// Run blocks until Shutdown is called. Failures to stop the adaptor on the
// way out are logged.
func (d *Daemon) Run() error {
	d.log.Infof("Starting WiFi client...")

	err := d.adaptor.Init()
	if err != nil {
		return errors.Errorf("could not initialize WiFi client: %v", err)
	}

	defer func() {
		err := d.adaptor.Release()
		if err != nil {
			d.log.Errorf("Could not release WiFi client: %v", err)
		} else {
			d.log.Infof("Released WiFi client.")
		}
	}()

	d.reporter, err = connectivity.NewReporter(d.adaptor)
	if err != nil {
		return errors.Errorf("could not watch connectivity: %v", err)
	}

	client, err := d.adaptor.Subscribe()
	if err != nil {
		return errors.Errorf("could not subscribe to link events: %v", err)
	}

	defer client.Cancel()

	err = d.adaptor.Start(d.ctx)

	// a failed start leaves the event worker running
	defer d.stop()

	if err != nil {
		return errors.Errorf("could not start WiFi client: %v", err)
	}

	d.log.Infof("Started WiFi client.")

	d.maybeConnect()

	for {
		select {
		case event := <-client.Events:
			d.log.Infof("Link event %v, network is %v", event, d.reporter.CurrentState())
		case <-d.done:
			return nil
		}
	}
}

func (d *Daemon) stop() {
	ctx, cancel := context.WithTimeout(context.Background(), d.stopTimeout)
	defer cancel()

	err := d.adaptor.Stop(ctx)
	if err != nil {
		d.log.Errorf("Could not properly stop WiFi client: %v", err)
	} else {
		d.log.Infof("Stopped WiFi client.")
	}
}

// Shutdown makes Run return. Commands still running are canceled.
func (d *Daemon) Shutdown() {
	d.once.Do(func() {
		d.cancel()
		close(d.done)
	})
}
