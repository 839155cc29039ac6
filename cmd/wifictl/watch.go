package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
)

var stopTimeout time.Duration

func init() {
	watchCmd.Flags().DurationVar(&stopTimeout, "stop-timeout", 5*time.Second, "how long to wait for the event worker when stopping")

	rootCmd.AddCommand(watchCmd)
}

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Start the WiFi client and print link events until interrupted",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		adaptor, release, err := newAdaptor()
		if err != nil {
			return err
		}
		defer release()

		client, err := adaptor.Subscribe()
		if err != nil {
			return err
		}
		defer client.Cancel()

		ctx, cancel := signal.NotifyContext(commandContext(cmd), os.Interrupt, syscall.SIGTERM)
		defer cancel()

		startErr := adaptor.Start(ctx)

		defer func() {
			stopCtx, stopCancel := context.WithTimeout(context.Background(), stopTimeout)
			defer stopCancel()

			if err := adaptor.Stop(stopCtx); err != nil {
				fmt.Fprintln(os.Stderr, "could not stop WiFi client:", err)
			}
		}()

		if startErr != nil {
			return startErr
		}

		for {
			select {
			case event := <-client.Events:
				fmt.Fprintf(cmd.OutOrStdout(), "%v %v\n", time.Now().Format(time.RFC3339), event)
			case <-ctx.Done():
				return nil
			}
		}
	},
}
