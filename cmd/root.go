package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"

	"backersync/config"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

// options holds command line overrides of the environment configuration
type options struct {
	org        string
	guildID    string
	tiersFile  string
	handleMode string
	logLevel   string
	dryRun     bool
}

// NewRootCommand builds the backersync command tree. Running the root command performs a sync.
func NewRootCommand() *cobra.Command {
	opts := &options{}

	root := &cobra.Command{
		Use:   "backersync",
		Short: "Grant Discord roles to Open Collective backers",
		Long: `backersync reads the backers of an Open Collective organization, finds the
Discord handle each backer left in their description, and grants the Discord
role mapped to their tier. It runs once and exits.`,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSyncCommand(cmd, opts)
		},
	}

	flags := root.PersistentFlags()
	flags.StringVar(&opts.org, "org", "", "Open Collective organization slug (overrides OPENCOLLECTIVE_ORG_NAME)")
	flags.StringVar(&opts.guildID, "guild", "", "Discord guild ID (overrides DISCORD_GUILD_ID)")
	flags.StringVar(&opts.tiersFile, "tiers-file", "", "YAML tier map (overrides TIER_ROLES_FILE)")
	flags.StringVar(&opts.handleMode, "handle-mode", "", "Discord handle extraction mode: strict or legacy")
	flags.StringVar(&opts.logLevel, "log-level", "", "Log level (overrides LOG_LEVEL)")
	flags.BoolVar(&opts.dryRun, "dry-run", false, "Resolve members without granting roles")

	root.AddCommand(
		&cobra.Command{
			Use:   "run",
			Short: "Sync backer roles (same as running without a subcommand)",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				return runSyncCommand(cmd, opts)
			},
		},
		newBackersCommand(opts),
		newTiersCommand(opts),
	)

	return root
}

// Execute runs the command tree with the given context
func Execute(ctx context.Context) error {
	return NewRootCommand().ExecuteContext(ctx)
}

// loadConfig reads the environment configuration and applies flag overrides.
// Commands that never contact Discord pass requireToken=false.
func loadConfig(opts *options, requireToken bool) (*config.Config, error) {
	cfg, err := config.Get()
	if err != nil && (requireToken || !errors.Is(err, config.ErrMissingToken)) {
		return nil, err
	}

	if opts.org != "" {
		cfg.OrgName = opts.org
	}
	if opts.guildID != "" {
		cfg.GuildID = opts.guildID
	}
	if opts.tiersFile != "" {
		cfg.TierRolesFile = opts.tiersFile
	}
	if opts.handleMode != "" {
		cfg.HandleMode = opts.handleMode
	}
	if opts.logLevel != "" {
		cfg.LogLevel = opts.logLevel
	}
	if opts.dryRun {
		cfg.DryRun = true
	}

	if err := cfg.Validate(); err != nil && (requireToken || !errors.Is(err, config.ErrMissingToken)) {
		return nil, err
	}

	if err := configureLogging(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// configureLogging applies the configured level and picks a formatter for the environment
func configureLogging(cfg *config.Config) error {
	level, err := log.ParseLevel(cfg.LogLevel)
	if err != nil {
		return fmt.Errorf("invalid log level %q: %w", cfg.LogLevel, err)
	}
	log.SetLevel(level)
	log.SetOutput(os.Stderr)

	if cfg.Environment == "production" {
		log.SetFormatter(&log.JSONFormatter{})
	} else {
		log.SetFormatter(&log.TextFormatter{FullTimestamp: true})
	}
	return nil
}
