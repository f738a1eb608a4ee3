package app

import (
	"context"
	"os"

	"github.com/spf13/cobra"

	"github.com/agentstation/agoraflux/cmd/agoraflux/cmd/docs"
	"github.com/agentstation/agoraflux/cmd/agoraflux/cmd/run"
	"github.com/agentstation/agoraflux/cmd/agoraflux/cmd/sources"
	"github.com/agentstation/agoraflux/cmd/agoraflux/cmd/status"
	"github.com/agentstation/agoraflux/cmd/agoraflux/cmd/version"
)

// Execute runs the agoraflux CLI application with the given arguments.
func (a *App) Execute(ctx context.Context, args []string) error {
	rootCmd := a.createRootCommand()
	rootCmd.SetArgs(args)
	rootCmd.SetOut(a.out)
	return rootCmd.ExecuteContext(ctx)
}

// createRootCommand creates the root cobra command with all subcommands.
func (a *App) createRootCommand() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:     "agoraflux",
		Short:   "Civic open data pipeline",
		Version: a.version,
		Long: `Agoraflux acquires public datasets (Paris budget, citizen participation,
national transport statistics), cleans and scores them, fuses them by
district and generates their documentation.

When a portal cannot be reached the pipeline continues on built-in
fixture data, so every command works offline.`,
		PersistentPreRunE: a.setupCommand,
		SilenceUsage:      true,
		SilenceErrors:     true,
	}

	rootCmd.AddGroup(&cobra.Group{
		ID:    "core",
		Title: "Core Commands:",
	})

	flags := rootCmd.PersistentFlags()
	flags.StringVar(&a.config.ConfigFile, "config", a.config.ConfigFile, "config file (default is $HOME/.agoraflux.yaml)")
	flags.BoolP("verbose", "v", a.config.Verbose, "verbose output (shortcut for --log-level=debug)")
	flags.BoolP("quiet", "q", a.config.Quiet, "minimal output (shortcut for --log-level=warn)")
	flags.Bool("no-color", a.config.NoColor, "disable colored output")
	flags.StringP("format", "o", "", "output format: table, json, yaml, markdown")
	flags.String("log-level", "", "log level: trace, debug, info, warn, error (overrides -v/-q)")
	flags.StringVar(&a.config.Recipe, "recipe", a.config.Recipe, "fusion recipe: civic_engagement, urban_overview")
	flags.StringVar(&a.config.StorageDriver, "storage", a.config.StorageDriver, "storage driver: memory, sqlite, files, none")
	flags.StringVar(&a.config.StorageDSN, "storage-dsn", a.config.StorageDSN, "SQLite database path")
	flags.StringVar(&a.config.StorageDir, "storage-dir", a.config.StorageDir, "directory for the files storage driver")
	flags.StringVar(&a.config.SourcesFile, "sources-file", a.config.SourcesFile, "YAML file overriding source descriptors")
	flags.StringVar(&a.config.MetricsFile, "metrics-file", a.config.MetricsFile, "write Prometheus metrics to this file on exit")

	rootCmd.SetVersionTemplate("agoraflux {{.Version}}\n")

	a.registerCommands(rootCmd)

	return rootCmd
}

// setupCommand is called before any command runs.
func (a *App) setupCommand(cmd *cobra.Command, _ []string) error {
	if cmd.Flags().Changed("config") {
		if err := a.reloadConfig(cmd); err != nil {
			return err
		}
	}

	a.config.UpdateFromFlags(
		mustGetBool(cmd, "verbose"),
		mustGetBool(cmd, "quiet"),
		mustGetBool(cmd, "no-color"),
		mustGetString(cmd, "format"),
		mustGetString(cmd, "log-level"),
	)

	logger := NewLogger(a.config)
	a.logger = &logger

	return nil
}

// reloadConfig loads the file named by --config, keeping values given as flags.
func (a *App) reloadConfig(cmd *cobra.Command) error {
	loaded, err := LoadConfig(a.config.ConfigFile)
	if err != nil {
		return err
	}
	flagged := map[string]*string{
		"recipe":       &loaded.Recipe,
		"storage":      &loaded.StorageDriver,
		"storage-dsn":  &loaded.StorageDSN,
		"storage-dir":  &loaded.StorageDir,
		"sources-file": &loaded.SourcesFile,
		"metrics-file": &loaded.MetricsFile,
	}
	for name, dst := range flagged {
		if cmd.Flags().Changed(name) {
			*dst = mustGetString(cmd, name)
		}
	}
	*a.config = *loaded
	return nil
}

// registerCommands registers all subcommands with the root command.
func (a *App) registerCommands(rootCmd *cobra.Command) {
	rootCmd.AddCommand(run.NewCommand(a))
	rootCmd.AddCommand(status.NewCommand(a))
	rootCmd.AddCommand(sources.NewCommand(a))
	rootCmd.AddCommand(docs.NewCommand(a))
	rootCmd.AddCommand(version.NewCommand(a.version, a.commit, a.date, a.builtBy))
}

// ExitOnError prints an error and exits with status 1.
func ExitOnError(err error) {
	if err != nil {
		_, _ = os.Stderr.WriteString(err.Error() + "\n")
		os.Exit(1)
	}
}

// mustGetBool retrieves a boolean flag value or panics if the flag doesn't exist.
// This should only be used for flags defined in this package.
func mustGetBool(cmd *cobra.Command, name string) bool {
	val, err := cmd.Flags().GetBool(name)
	if err != nil {
		panic("programming error: failed to get flag " + name + ": " + err.Error())
	}
	return val
}

// mustGetString retrieves a string flag value or panics if the flag doesn't exist.
// This should only be used for flags defined in this package.
func mustGetString(cmd *cobra.Command, name string) string {
	val, err := cmd.Flags().GetString(name)
	if err != nil {
		panic("programming error: failed to get flag " + name + ": " + err.Error())
	}
	return val
}
