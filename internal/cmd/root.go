package cmd

import (
	"github.com/spf13/cobra"

	"newsflash/cli/control"
	"newsflash/internal/config"
)

// NewRootCmd assembles the newsflash command tree.
func NewRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "newsflash",
		Short:         "Poll the flash news feed and keep a deduplicated, newest-first snapshot",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().String("control-addr", "", "control server address (default CONTROL_ADDR)")

	root.AddCommand(
		newRunCmd(),
		newLifecycleCmd("start", "Start polling in the running instance", (*control.Client).Start),
		newLifecycleCmd("stop", "Stop polling in the running instance", (*control.Client).Stop),
		newLifecycleCmd("refresh", "Poll once now, starting polling if idle", (*control.Client).Refresh),
		newLifecycleCmd("clear-cache", "Drop the snapshot, the dedup window and the persisted cache", (*control.Client).ClearCache),
		newStatusCmd(),
		newNewsCmd(),
		newSetIntervalCmd(),
	)
	return root
}

// controlClient honours --control-addr before falling back to the configured address.
func controlClient(cmd *cobra.Command) *control.Client {
	addr, _ := cmd.Flags().GetString("control-addr")
	if addr == "" {
		addr = config.Load().ControlAddr
	}
	return control.NewClient(addr)
}
