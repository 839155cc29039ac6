package main

import (
	"os"
	"time"

	"github.com/jessevdk/go-flags"
	"github.com/pkg/errors"
	"github.com/the-lightning-land/wifid/credentials"
	"github.com/the-lightning-land/wifid/daemon"
	"github.com/the-lightning-land/wifid/shell"
	"github.com/the-lightning-land/wifid/supplicant"
)

const (
	defaultConfigFile  = "/etc/wifid/wifid.conf"
	defaultStopTimeout = 5 * time.Second
)

type wifiConfig struct {
	Ssid       string `long:"ssid" description:"Network to connect to on startup"`
	Security   string `long:"security" description:"Security protocol of the network (none, wep, wpa-psk, wpa2-psk, wpa-eap-peap0, wpa2-eap-peap0)"`
	Passphrase string `long:"passphrase" description:"WPA passphrase, 8 to 63 characters"`
	Psk        string `long:"psk" description:"WPA pre-shared key, used instead of the passphrase"`
	WepKey     string `long:"wepkey" description:"WEP key"`
	Username   string `long:"username" description:"EAP-PEAP0 username"`
	Password   string `long:"password" description:"EAP-PEAP0 password"`
}

type profilingConfig struct {
	Listen string `long:"listen" description:"Serve pprof on this address, e.g. localhost:6060"`
}

// config defines the configuration options for wifid.
//
// See loadConfig for further details regarding the configuration
// loading+parsing process.
type config struct {
	ConfigFile     string           `long:"configfile" description:"Path to configuration file"`
	ShowVersion    bool             `short:"V" long:"version" description:"Display version information and exit"`
	Debug          bool             `long:"debug" description:"Start in debug mode"`
	LogFile        string           `long:"logfile" description:"Write logs to this file instead of stdout, rotated by size"`
	Script         string           `long:"script" description:"Path of the WiFi adaptor script"`
	Interface      string           `long:"interface" description:"Wireless interface to control"`
	SupplicantFile string           `long:"supplicantfile" description:"Where to write the generated wpa_supplicant configuration"`
	Events         string           `long:"events" description:"Source of link events" choice:"script" choice:"dbus"`
	PskDerivation  string           `long:"pskderivation" description:"How WPA passphrases are turned into keys" choice:"script" choice:"native"`
	StopTimeout    time.Duration    `long:"stoptimeout" description:"How long to wait for the event worker on shutdown"`
	Wifi           *wifiConfig      `group:"WiFi" namespace:"wifi"`
	Profiling      *profilingConfig `group:"Profiling" namespace:"profiling"`
}

// loadConfig initializes and parses the config using a config file and command
// line options.
//
// The configuration proceeds as follows:
//  1. Start with a default config with sane settings
//  2. Pre-parse the command line to check for an alternative config file
//  3. Load configuration file overwriting defaults with any specified options
//  4. Parse CLI options and overwrite/add any specified options
func loadConfig() (*config, error) {
	defaultCfg := config{
		ConfigFile:     defaultConfigFile,
		Script:         shell.DefaultScriptPath,
		Interface:      shell.DefaultInterface,
		SupplicantFile: supplicant.DefaultPath,
		Events:         "script",
		PskDerivation:  "script",
		StopTimeout:    defaultStopTimeout,
		Wifi:           &wifiConfig{Security: credentials.SecurityNone.String()},
		Profiling:      &profilingConfig{},
	}

	// Pre-parse the command line options to pick up an alternative config
	// file.
	preCfg := defaultCfg
	if _, err := flags.NewParser(&preCfg, flags.Default).Parse(); err != nil {
		return nil, err
	}

	// Show the version and exit if the version flag was specified.
	if preCfg.ShowVersion {
		return &preCfg, nil
	}

	cfg := preCfg

	err := flags.NewIniParser(flags.NewParser(&cfg, flags.Default)).ParseFile(preCfg.ConfigFile)
	if err != nil {
		// A missing default config file is fine, a missing explicit one is not.
		if !os.IsNotExist(errors.Cause(err)) || preCfg.ConfigFile != defaultConfigFile {
			return nil, errors.Wrapf(err, "could not read config file %v", preCfg.ConfigFile)
		}
	}

	// Parse the command line options again so they win over the config file.
	if _, err := flags.NewParser(&cfg, flags.Default).Parse(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// daemonWifi turns the WiFi group into the network the daemon joins.
func (c *config) daemonWifi() (*daemon.Wifi, error) {
	security, err := credentials.ParseProtocol(c.Wifi.Security)
	if err != nil {
		return nil, errors.Wrap(err, "invalid wifi.security")
	}

	return &daemon.Wifi{
		Ssid:       c.Wifi.Ssid,
		Security:   security,
		Passphrase: c.Wifi.Passphrase,
		Psk:        c.Wifi.Psk,
		WepKey:     c.Wifi.WepKey,
		Username:   c.Wifi.Username,
		Password:   c.Wifi.Password,
	}, nil
}
