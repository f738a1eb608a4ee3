// Package sources provides the sources command.
package sources

import (
	"github.com/spf13/cobra"

	"github.com/agentstation/agoraflux/internal/appcontext"
	"github.com/agentstation/agoraflux/internal/cmd/output"
	"github.com/agentstation/agoraflux/internal/cmd/table"
	"github.com/agentstation/agoraflux/pkg/errors"
	pkgsources "github.com/agentstation/agoraflux/pkg/sources"
)

// NewCommand creates the sources command.
func NewCommand(app appcontext.Interface) *cobra.Command {
	return &cobra.Command{
		Use:     "sources [key]",
		GroupID: "core",
		Short:   "List configured data sources",
		Args:    cobra.MaximumNArgs(1),
		Example: `  agoraflux sources
  agoraflux sources paris_budget -o yaml`,
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := app.Pipeline()
			if err != nil {
				return err
			}
			registry := p.Registry()
			format := output.Format(app.OutputFormat())
			formatter := output.NewFormatter(format)

			if len(args) == 1 {
				desc, ok := registry.Get(pkgsources.ID(args[0]))
				if !ok {
					return errors.NewUnknownSourceError(args[0])
				}
				return formatter.Format(cmd.OutOrStdout(), desc)
			}

			if format == output.FormatTable {
				return formatter.Format(cmd.OutOrStdout(), table.SourcesToTableData(p.Status().Sources))
			}
			return formatter.Format(cmd.OutOrStdout(), registry.List())
		},
	}
}
