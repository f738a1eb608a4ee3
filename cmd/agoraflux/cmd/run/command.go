// Package run provides the run command, which executes the pipeline.
package run

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/agentstation/agoraflux"
	"github.com/agentstation/agoraflux/internal/appcontext"
	"github.com/agentstation/agoraflux/internal/cmd/alerts"
	"github.com/agentstation/agoraflux/internal/cmd/output"
	"github.com/agentstation/agoraflux/internal/cmd/table"
	"github.com/agentstation/agoraflux/pkg/logging"
	"github.com/agentstation/agoraflux/pkg/sources"
)

// Flags holds the flags shared by commands that execute the pipeline.
type Flags struct {
	Sources  []string
	Fixtures bool
}

// AddFlags registers the pipeline flags on cmd.
func AddFlags(cmd *cobra.Command, f *Flags) {
	cmd.Flags().StringSliceVarP(&f.Sources, "sources", "s", nil, "comma-separated source keys to run (default: all)")
	cmd.Flags().BoolVar(&f.Fixtures, "fixtures", false, "use fixture data instead of fetching the portals")
}

// Execute runs the pipeline over the selected sources.
func Execute(cmd *cobra.Command, app appcontext.Interface, f *Flags) (*agoraflux.Result, error) {
	p, err := app.Pipeline()
	if err != nil {
		return nil, err
	}
	ctx := logging.WithLogger(cmd.Context(), app.Logger())

	if len(f.Sources) == 0 {
		return p.RunFull(ctx, f.Fixtures)
	}
	ids := make([]sources.ID, 0, len(f.Sources))
	for _, s := range f.Sources {
		ids = append(ids, sources.ID(s))
	}
	return p.RunPartial(ctx, ids, f.Fixtures)
}

// NewCommand creates the run command.
func NewCommand(app appcontext.Interface) *cobra.Command {
	var flags Flags

	cmd := &cobra.Command{
		Use:     "run",
		GroupID: "core",
		Short:   "Run the pipeline",
		Long: `Run acquires the configured sources, processes them, fuses them with
the configured recipe, documents the result and persists every
processed dataset.`,
		Example: `  agoraflux run
  agoraflux run --sources paris_budget,paris_participation
  agoraflux run --fixtures --storage sqlite --storage-dsn data.db`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			res, err := Execute(cmd, app, &flags)
			if res == nil {
				return err
			}

			format := output.Format(app.OutputFormat())
			if format != output.FormatTable {
				if ferr := output.NewFormatter(format).Format(cmd.OutOrStdout(), res.Run); ferr != nil {
					return ferr
				}
				return err
			}

			if ferr := output.NewFormatter(format).Format(cmd.OutOrStdout(), table.RunToTableData(res.Run)); ferr != nil {
				return ferr
			}
			if werr := alerts.Write(cmd.ErrOrStderr(), alerts.FromRun(res.Run), output.ColorEnabled(os.Stderr)); werr != nil {
				return werr
			}
			return err
		},
	}

	AddFlags(cmd, &flags)
	return cmd
}
