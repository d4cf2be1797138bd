package cmd

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"
)

func newSetIntervalCmd() *cobra.Command {
	var duration string
	c := &cobra.Command{
		Use:   "set-interval",
		Short: "Change the polling period of the running instance",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if duration == "" {
				return fmt.Errorf("usage: newsflash set-interval --duration 45s")
			}
			d, err := time.ParseDuration(duration)
			if err != nil {
				return fmt.Errorf("invalid duration: %w", err)
			}

			old, err := controlClient(cmd).SetInterval(d)
			if err != nil {
				return fmt.Errorf("could not set interval: %w", err)
			}

			out := cmd.OutOrStdout()
			if old == d {
				fmt.Fprintf(out, "Interval is already set to %s (no change)\n", d)
				return nil
			}
			fmt.Fprintf(out, "Polling interval changed from %s to %s\n", old, d)
			return nil
		},
	}
	c.Flags().StringVar(&duration, "duration", "", "polling interval (e.g. 45s, minimum 1s)")
	return c
}
