package cmd

import (
	"fmt"
	"io"
	"text/tabwriter"

	"backersync/config"
	"backersync/domain/entities"
	"backersync/domain/services"
	"backersync/infrastructure/opencollective"

	"github.com/spf13/cobra"
)

func newBackersCommand(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "backers",
		Short: "List eligible backers with their extracted Discord handle and mapped role",
		Long: `Fetches the organization's backers from Open Collective and prints the ones a
sync would process, without connecting to Discord.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(opts, false)
			if err != nil {
				return err
			}

			tierRoles, err := cfg.TierRolesFor()
			if err != nil {
				return err
			}

			client := opencollective.NewClient(cfg.OpenCollectiveBaseURL, cfg.OpenCollectiveTimeout, tierRoles, nil)
			backers, err := client.FetchBackers(cmd.Context(), cfg.OrgName)
			if err != nil {
				return fmt.Errorf("failed to fetch backers: %w", err)
			}

			extractor := services.NewHandleExtractor(services.HandleMode(cfg.HandleMode))
			return printBackers(cmd.OutOrStdout(), backers, tierRoles, extractor)
		},
	}
}

// printBackers writes one row per backer in fetch order
func printBackers(out io.Writer, backers []entities.Backer, tierRoles *config.TierRoles, extractor *services.HandleExtractor) error {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tNAME\tTIER\tROLE\tDISCORD")

	for _, b := range backers {
		role, _ := tierRoles.Role(b.TierName())
		handle, ok := extractor.Extract(b.DescriptionText())
		if !ok {
			handle = "-"
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n", b.ID, b.Name, b.TierName(), role, handle)
	}

	return w.Flush()
}
