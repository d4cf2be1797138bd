package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"newsflash/app"
)

func newNewsCmd() *cobra.Command {
	var num int
	c := &cobra.Command{
		Use:   "news",
		Short: "Print the newest items held by the running instance",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if num < 0 {
				return fmt.Errorf("invalid --num: %d", num)
			}
			data, err := controlClient(cmd).News(num)
			if err != nil {
				return fmt.Errorf("could not list news: %w", err)
			}

			out := cmd.OutOrStdout()
			if len(data.Items) == 0 {
				fmt.Fprintln(out, "No news cached")
				return nil
			}
			if data.LastUpdate != "" {
				fmt.Fprintf(out, "Last update: %s\n\n", data.LastUpdate)
			}
			for _, it := range data.Items {
				if entry := app.FormatItem(it); entry != "" {
					fmt.Fprintln(out, entry)
				}
			}
			return nil
		},
	}
	c.Flags().IntVar(&num, "num", 0, "limit number of items (0 = all)")
	return c
}
