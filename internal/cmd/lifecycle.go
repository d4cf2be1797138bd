package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"newsflash/cli/control"
)

func newLifecycleCmd(use, short string, op func(*control.Client) (bool, error)) *cobra.Command {
	return &cobra.Command{
		Use:   use,
		Short: short,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			running, err := op(controlClient(cmd))
			if err != nil {
				return fmt.Errorf("%s: %w", use, err)
			}
			state := "idle"
			if running {
				state = "running"
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s: ok (polling %s)\n", use, state)
			return nil
		},
	}
}

func newStatusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show the running instance's polling state",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			st, err := controlClient(cmd).Status()
			if err != nil {
				return fmt.Errorf("could not get status: %w", err)
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Running:     %t\n", st.Running)
			fmt.Fprintf(out, "Interval:    %s\n", st.Interval)
			fmt.Fprintf(out, "Items:       %d\n", st.Items)
			if st.LastUpdate != "" {
				fmt.Fprintf(out, "Last update: %s\n", st.LastUpdate)
			}
			return nil
		},
	}
}
