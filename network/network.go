package network

import (
	"context"
	"sync"

	"github.com/go-errors/errors"
	"github.com/the-lightning-land/wifid/credentials"
	"github.com/the-lightning-land/wifid/events"
	"github.com/the-lightning-land/wifid/scan"
	"github.com/the-lightning-land/wifid/shell"
	"github.com/the-lightning-land/wifid/supplicant"
	"github.com/the-lightning-land/wifid/wifierr"
)

type Config struct {
	Runner shell.Runner
	// Source of link events, the script's event stream when nil.
	Source events.Source
	// Deriver for WPA passphrases, the script's helper when nil.
	Deriver supplicant.Deriver
	// SupplicantFile is where the PSK connect commands expect their
	// configuration, supplicant.DefaultPath when empty.
	SupplicantFile string
	// Credentials to connect with, a new store when nil.
	Credentials *credentials.Store
	Logger      Logger
}

// Adaptor is the WiFi client platform adaptor. Public operations run on the
// caller's goroutine and block for as long as the script runs; link events
// are delivered from the event bridge's worker.
type Adaptor struct {
	log         Logger
	runner      shell.Runner
	credentials *credentials.Store
	scan        *scan.Session
	bridge      *events.Bridge
	deriver     supplicant.Deriver
	writer      *supplicant.Writer

	mu          sync.Mutex
	initialized bool
}

func New(config *Config) *Adaptor {
	adaptor := &Adaptor{
		runner:      config.Runner,
		credentials: config.Credentials,
		deriver:     config.Deriver,
	}

	if config.Logger != nil {
		adaptor.log = config.Logger
	} else {
		adaptor.log = noopLogger{}
	}

	if adaptor.credentials == nil {
		adaptor.credentials = credentials.NewStore()
	}

	source := config.Source
	if source == nil {
		source = events.NewScriptSource(config.Runner)
	}

	if adaptor.deriver == nil {
		adaptor.deriver = supplicant.NewScriptDeriver(&supplicant.ScriptDeriverConfig{
			Runner: config.Runner,
			Logger: adaptor.log,
		})
	}

	adaptor.scan = scan.NewSession(&scan.Config{
		Runner: config.Runner,
		Logger: adaptor.log,
	})

	adaptor.bridge = events.NewBridge(&events.Config{
		Source: source,
		Logger: adaptor.log,
	})

	adaptor.writer = supplicant.NewWriter(&supplicant.WriterConfig{
		Path:   config.SupplicantFile,
		Logger: adaptor.log,
	})

	return adaptor
}

// Init makes the adaptor usable. Calling it again does nothing.
func (a *Adaptor) Init() error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if !a.initialized {
		a.log.Infof("Initializing WiFi client")
	}

	a.initialized = true

	return nil
}

// Release clears the credentials and closes an open scan. The event bridge
// has to be stopped first.
func (a *Adaptor) Release() error {
	if err := a.checkInitialized(); err != nil {
		return err
	}

	if a.bridge.IsRunning() {
		return errors.Errorf("%w: WiFi client is still started", wifierr.ErrBusy)
	}

	a.credentials.ClearAllCredentials()

	if err := a.scan.Done(); err != nil {
		a.log.Warnf("Could not close scan: %v", err)
	}

	a.mu.Lock()
	a.initialized = false
	a.mu.Unlock()

	a.log.Infof("Released WiFi client")

	return nil
}

func (a *Adaptor) checkInitialized() error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if !a.initialized {
		return errors.Errorf("%w: WiFi client is not initialized", wifierr.ErrFailedPrecondition)
	}

	return nil
}

// Start launches the event bridge, then enables the hardware and brings the
// link up. A failing command leaves the bridge running; callers Stop before
// trying again.
func (a *Adaptor) Start(ctx context.Context) error {
	if err := a.checkInitialized(); err != nil {
		return err
	}

	a.log.Infof("Starting WiFi client")

	if err := a.bridge.Start(); err != nil {
		return err
	}

	if err := a.runner.Run(ctx, shell.HwStart); err != nil {
		a.log.Errorf("Could not enable WiFi hardware: %v", err)
		return err
	}

	if err := a.runner.Run(ctx, shell.WlanUp); err != nil {
		a.log.Errorf("Could not bring up WiFi link: %v", err)
		return err
	}

	return nil
}

// Stop disables the hardware and, only if that worked, stops the event
// bridge. A bridge that does not terminate before ctx ends is a Fault, with
// the hardware already off.
func (a *Adaptor) Stop(ctx context.Context) error {
	if err := a.checkInitialized(); err != nil {
		return err
	}

	a.log.Infof("Stopping WiFi client")

	if err := a.runner.Run(ctx, shell.HwStop); err != nil {
		a.log.Errorf("Could not disable WiFi hardware: %v", err)
		return err
	}

	return a.bridge.Stop(ctx)
}

func (a *Adaptor) SetSecurityProtocol(protocol credentials.Protocol) error {
	a.log.Infof("Security protocol: %v", protocol)
	return a.credentials.SetSecurityProtocol(protocol)
}

func (a *Adaptor) SetWepKey(key string) error {
	return a.credentials.SetWepKey(key)
}

func (a *Adaptor) SetPassphrase(passphrase string) error {
	return a.credentials.SetPassphrase(passphrase)
}

func (a *Adaptor) SetPreSharedKey(psk string) error {
	return a.credentials.SetPreSharedKey(psk)
}

func (a *Adaptor) SetUserCredentials(username string, password string) error {
	return a.credentials.SetUserCredentials(username, password)
}

func (a *Adaptor) ClearAllCredentials() {
	a.credentials.ClearAllCredentials()
}

func (a *Adaptor) Scan(ctx context.Context) error {
	if err := a.checkInitialized(); err != nil {
		return err
	}

	return a.scan.Start(ctx)
}

func (a *Adaptor) IsScanRunning() bool {
	return a.scan.IsRunning()
}

// GetScanResult returns the next access point of the open scan, NotFound
// once all were read.
func (a *Adaptor) GetScanResult() (*scan.AccessPoint, error) {
	if err := a.checkInitialized(); err != nil {
		return nil, err
	}

	return a.scan.Next()
}

func (a *Adaptor) ScanDone() error {
	if err := a.checkInitialized(); err != nil {
		return err
	}

	return a.scan.Done()
}

func (a *Adaptor) AddEventHandler(handler events.Handler, data interface{}) (events.HandlerRef, error) {
	if err := a.checkInitialized(); err != nil {
		return 0, err
	}

	return a.bridge.AddEventHandler(handler, data)
}

func (a *Adaptor) RemoveEventHandler(ref events.HandlerRef) error {
	if err := a.checkInitialized(); err != nil {
		return err
	}

	return a.bridge.RemoveEventHandler(ref)
}

func (a *Adaptor) Subscribe() (*events.Client, error) {
	if err := a.checkInitialized(); err != nil {
		return nil, err
	}

	return a.bridge.Subscribe(), nil
}
