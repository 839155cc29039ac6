package main

import (
	"context"
	"fmt"
	"os"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/the-lightning-land/wifid/credentials"
	"github.com/the-lightning-land/wifid/network"
	"github.com/the-lightning-land/wifid/shell"
	"github.com/the-lightning-land/wifid/supplicant"
	"github.com/the-lightning-land/wifid/wifierr"
)

var Commit string

var flags struct {
	script         string
	iface          string
	supplicantFile string
	logLevel       string
	nativePsk      bool
}

func main() {
	Execute()
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(wifierr.ExitCode(err))
	}
}

var rootCmd = &cobra.Command{
	Use:           "wifictl",
	Short:         "Drive the WiFi client adaptor script",
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&flags.script, "script", shell.DefaultScriptPath, "path of the WiFi adaptor script")
	rootCmd.PersistentFlags().StringVarP(&flags.iface, "interface", "i", shell.DefaultInterface, "wireless interface to control")
	rootCmd.PersistentFlags().StringVar(&flags.supplicantFile, "supplicant-file", supplicant.DefaultPath, "where to write the generated wpa_supplicant configuration")
	rootCmd.PersistentFlags().StringVar(&flags.logLevel, "log-level", "warn", "log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().BoolVar(&flags.nativePsk, "native-psk", false, "derive pre-shared keys in process instead of through the script")

	rootCmd.AddCommand(versionCmd)
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version number",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Println(Commit)
	},
}

// newAdaptor builds an initialized adaptor from the persistent flags. The
// returned release func releases it again.
func newAdaptor() (*network.Adaptor, func(), error) {
	level, err := log.ParseLevel(flags.logLevel)
	if err != nil {
		return nil, nil, errors.Wrap(err, "invalid log level")
	}

	logger := log.New()
	logger.SetOutput(os.Stderr)
	logger.SetLevel(level)

	store := credentials.NewStore()

	runner := shell.New(&shell.Config{
		Path:      flags.script,
		Interface: flags.iface,
		Redact:    store.IsSecret,
		Logger:    logger.WithField("system", "shell"),
	})

	var deriver supplicant.Deriver
	if flags.nativePsk {
		deriver = supplicant.NewNativeDeriver()
	}

	adaptor := network.New(&network.Config{
		Runner:         runner,
		Deriver:        deriver,
		SupplicantFile: flags.supplicantFile,
		Credentials:    store,
		Logger:         logger.WithField("system", "network"),
	})

	if err := adaptor.Init(); err != nil {
		return nil, nil, err
	}

	release := func() {
		if err := adaptor.Release(); err != nil {
			logger.Errorf("Could not release WiFi client: %v", err)
		}
	}

	return adaptor, release, nil
}

func commandContext(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}

	return context.Background()
}
