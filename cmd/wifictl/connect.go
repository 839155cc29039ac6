package main

import (
	"github.com/spf13/cobra"
	"github.com/the-lightning-land/wifid/credentials"
)

var connectFlags struct {
	security   string
	passphrase string
	psk        string
	wepKey     string
	username   string
	password   string
}

func init() {
	connectCmd.Flags().StringVarP(&connectFlags.security, "security", "s", credentials.SecurityNone.String(), "security protocol (none, wep, wpa-psk, wpa2-psk, wpa-eap-peap0, wpa2-eap-peap0)")
	connectCmd.Flags().StringVar(&connectFlags.passphrase, "passphrase", "", "WPA passphrase")
	connectCmd.Flags().StringVar(&connectFlags.psk, "psk", "", "WPA pre-shared key")
	connectCmd.Flags().StringVar(&connectFlags.wepKey, "wep-key", "", "WEP key")
	connectCmd.Flags().StringVar(&connectFlags.username, "username", "", "EAP-PEAP0 username")
	connectCmd.Flags().StringVar(&connectFlags.password, "password", "", "EAP-PEAP0 password")

	rootCmd.AddCommand(connectCmd)
	rootCmd.AddCommand(disconnectCmd)
}

var connectCmd = &cobra.Command{
	Use:   "connect <ssid>",
	Short: "Join a network",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		security, err := credentials.ParseProtocol(connectFlags.security)
		if err != nil {
			return err
		}

		adaptor, release, err := newAdaptor()
		if err != nil {
			return err
		}
		defer release()

		if err := adaptor.SetSecurityProtocol(security); err != nil {
			return err
		}

		switch {
		case security == credentials.SecurityWep:
			err = adaptor.SetWepKey(connectFlags.wepKey)
		case security.IsPersonal() && connectFlags.psk != "":
			err = adaptor.SetPreSharedKey(connectFlags.psk)
		case security.IsPersonal():
			err = adaptor.SetPassphrase(connectFlags.passphrase)
		case security.IsEnterprise():
			err = adaptor.SetUserCredentials(connectFlags.username, connectFlags.password)
		}

		if err != nil {
			return err
		}

		return adaptor.Connect(commandContext(cmd), args[0])
	},
}

var disconnectCmd = &cobra.Command{
	Use:   "disconnect",
	Short: "Leave the current network",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		adaptor, release, err := newAdaptor()
		if err != nil {
			return err
		}
		defer release()

		return adaptor.Disconnect(commandContext(cmd))
	},
}
