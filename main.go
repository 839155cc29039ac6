package main

import (
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/jessevdk/go-flags"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
	"github.com/the-lightning-land/wifid/credentials"
	"github.com/the-lightning-land/wifid/daemon"
	"github.com/the-lightning-land/wifid/events"
	"github.com/the-lightning-land/wifid/network"
	"github.com/the-lightning-land/wifid/network/wpa"
	"github.com/the-lightning-land/wifid/shell"
	"github.com/the-lightning-land/wifid/supplicant"
	// Blank import to set up profiling HTTP handlers.
	_ "net/http/pprof"
)

var (
	// commit stores the current commit hash of this build. This should be set using -ldflags during compilation.
	Commit string
	// version stores the version string of this build. This should be set using -ldflags during compilation.
	Version string
	// date stores the date of this build. This should be set using -ldflags during compilation.
	Date string
)

// wifidMain is the true entry point for wifid. This is required since defers
// created in the top-level scope of a main method aren't executed if os.Exit() is called.
func wifidMain() error {
	log.SetOutput(os.Stdout)
	log.SetLevel(log.InfoLevel)

	// Load CLI configuration and defaults
	cfg, err := loadConfig()
	if e, ok := err.(*flags.Error); ok && e.Type == flags.ErrHelp {
		return nil
	} else if err != nil {
		return errors.Errorf("Failed parsing arguments: %v", err)
	}

	logs := newLogging(cfg)

	defer func() {
		err := logs.Close()
		if err != nil {
			log.Errorf("Could not close log file: %v", err)
		}
	}()

	if cfg.Debug {
		log.Info("Setting debug mode.")
	}

	log.Debug("Loaded config.")

	// Print version of the daemon
	log.Infof("Version %s (commit %s)", Version, Commit)
	log.Infof("Built on %s", Date)

	// Stop here if only version was requested
	if cfg.ShowVersion {
		return nil
	}

	if cfg.Profiling.Listen != "" {
		go func() {
			log.Infof("Starting profiling server on %v", cfg.Profiling.Listen)
			// Redirect the root path
			http.Handle("/", http.RedirectHandler("/debug/pprof", http.StatusSeeOther))
			// All other handlers are registered on DefaultServeMux through the import of pprof
			err := http.ListenAndServe(cfg.Profiling.Listen, nil)
			if err != nil {
				log.Errorf("Could not run profiler: %v", err)
			}
		}()
	}

	wifi, err := cfg.daemonWifi()
	if err != nil {
		return err
	}

	// Credentials live here so the script logs can hide them
	store := credentials.NewStore()

	runner := shell.New(&shell.Config{
		Path:      cfg.Script,
		Interface: cfg.Interface,
		Redact:    store.IsSecret,
		Logger:    logs.logger("shell"),
	})

	log.Infof("Using adaptor script %v on %v.", cfg.Script, cfg.Interface)

	// Where link events come from
	var source events.Source

	switch cfg.Events {
	case "script":
		source = events.NewScriptSource(runner)

		log.Info("Reading link events from the adaptor script.")
	case "dbus":
		source = wpa.NewSource(&wpa.SourceConfig{
			Interface: cfg.Interface,
			Logger:    logs.logger("wpa"),
		})

		log.Info("Reading link events from wpa_supplicant over dbus.")
	default:
		return errors.Errorf("Unknown event source %v", cfg.Events)
	}

	// How passphrases become pre-shared keys
	var deriver supplicant.Deriver

	switch cfg.PskDerivation {
	case "script":
		deriver = supplicant.NewScriptDeriver(&supplicant.ScriptDeriverConfig{
			Runner: runner,
			Logger: logs.logger("supplicant"),
		})
	case "native":
		deriver = supplicant.NewNativeDeriver()

		log.Info("Deriving pre-shared keys in process.")
	default:
		return errors.Errorf("Unknown psk derivation %v", cfg.PskDerivation)
	}

	adaptor := network.New(&network.Config{
		Runner:         runner,
		Source:         source,
		Deriver:        deriver,
		SupplicantFile: cfg.SupplicantFile,
		Credentials:    store,
		Logger:         logs.logger("network"),
	})

	log.Info("Created WiFi client.")

	// central controller keeping the WiFi client up
	d := daemon.New(&daemon.Config{
		Adaptor:     adaptor,
		Wifi:        wifi,
		StopTimeout: cfg.StopTimeout,
		Logger:      logs.logger("daemon"),
	})

	// Handle interrupt signals correctly
	go func() {
		signals := make(chan os.Signal, 1)
		signal.Notify(signals, os.Interrupt, syscall.SIGTERM)
		sig := <-signals
		log.Info(sig)
		log.Info("Received an interrupt, stopping WiFi client...")
		d.Shutdown()
	}()

	// blocks until the daemon is shut down
	err = d.Run()
	if err != nil {
		return errors.Errorf("Failed running daemon: %v", err)
	}

	// finish with no error
	return nil
}

func main() {
	// Call the "real" main in a nested manner so the defers will properly
	// be executed in the case of a graceful shutdown.
	if err := wifidMain(); err != nil {
		if e, ok := err.(*flags.Error); ok && e.Type == flags.ErrHelp {
		} else {
			log.WithError(err).Println("Failed running wifid.")
		}
		os.Exit(1)
	}
}
