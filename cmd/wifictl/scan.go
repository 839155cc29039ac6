package main

import (
	"fmt"

	"github.com/go-errors/errors"
	"github.com/spf13/cobra"
	"github.com/the-lightning-land/wifid/wifierr"
)

func init() {
	rootCmd.AddCommand(scanCmd)
}

var scanCmd = &cobra.Command{
	Use:   "scan",
	Short: "List visible access points",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		adaptor, release, err := newAdaptor()
		if err != nil {
			return err
		}
		defer release()

		if err := adaptor.Scan(commandContext(cmd)); err != nil {
			return err
		}

		defer func() {
			_ = adaptor.ScanDone()
		}()

		for {
			ap, err := adaptor.GetScanResult()
			if errors.Is(err, wifierr.ErrNotFound) {
				return nil
			} else if err != nil {
				return err
			}

			if ap.HasSignal() {
				fmt.Fprintf(cmd.OutOrStdout(), "%-32s %4d dBm\n", ap, ap.SignalStrength)
			} else {
				fmt.Fprintf(cmd.OutOrStdout(), "%-32s       ?\n", ap)
			}
		}
	},
}
