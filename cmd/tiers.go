package cmd

import (
	"fmt"
	"io"
	"text/tabwriter"

	"backersync/config"

	"github.com/spf13/cobra"
)

func newTiersCommand(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "tiers",
		Short: "Print the tier to role map in effect",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(opts, false)
			if err != nil {
				return err
			}

			tierRoles, err := cfg.TierRolesFor()
			if err != nil {
				return err
			}
			return printTiers(cmd.OutOrStdout(), tierRoles)
		},
	}
}

func printTiers(out io.Writer, tierRoles *config.TierRoles) error {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "TIER\tROLE")
	for _, entry := range tierRoles.Entries() {
		fmt.Fprintf(w, "%s\t%s\n", entry.Tier, entry.Role)
	}
	return w.Flush()
}
