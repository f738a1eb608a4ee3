// Package docs provides the docs command, which runs the pipeline and
// prints the generated documentation.
package docs

import (
	"github.com/spf13/cobra"

	"github.com/agentstation/agoraflux/cmd/agoraflux/cmd/run"
	"github.com/agentstation/agoraflux/internal/appcontext"
	"github.com/agentstation/agoraflux/internal/cmd/output"
	"github.com/agentstation/agoraflux/internal/cmd/table"
	"github.com/agentstation/agoraflux/pkg/errors"
	"github.com/agentstation/agoraflux/pkg/sources"
)

// NewCommand creates the docs command.
func NewCommand(app appcontext.Interface) *cobra.Command {
	var (
		flags  run.Flags
		source string
	)

	cmd := &cobra.Command{
		Use:     "docs",
		GroupID: "core",
		Short:   "Run the pipeline and print the data documentation",
		Long: `Docs runs the pipeline and prints the documentation bundle: field
analysis per source, fusion lineage, the global schema and the
transformation summary. Table output renders a Markdown report, or the
field table of a single source with --source.`,
		Example: `  agoraflux docs --fixtures
  agoraflux docs --fixtures --source paris_budget
  agoraflux docs -o yaml > documentation.yaml`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			res, err := run.Execute(cmd, app, &flags)
			if err != nil {
				return err
			}
			if res.Documentation == nil {
				return errors.NewStageError("document", "", errors.New(res.Run.Stages.Document.Reason))
			}

			format := output.Format(app.OutputFormat())
			if source != "" {
				doc, ok := res.Documentation.Sources[sources.ID(source)]
				if !ok {
					return errors.NewUnknownSourceError(source)
				}
				if format == output.FormatTable {
					return output.NewFormatter(format).Format(cmd.OutOrStdout(), table.FieldsToTableData(doc))
				}
				return output.NewFormatter(format).Format(cmd.OutOrStdout(), doc)
			}
			if format == output.FormatTable {
				format = output.FormatMarkdown
			}
			return output.NewFormatter(format).Format(cmd.OutOrStdout(), res.Documentation)
		},
	}

	run.AddFlags(cmd, &flags)
	cmd.Flags().StringVar(&source, "source", "", "print the field documentation of one source")
	return cmd
}
