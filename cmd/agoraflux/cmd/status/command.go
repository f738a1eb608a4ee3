// Package status provides the status command.
package status

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/agentstation/agoraflux/internal/appcontext"
	"github.com/agentstation/agoraflux/internal/cmd/output"
	"github.com/agentstation/agoraflux/internal/cmd/table"
)

// NewCommand creates the status command.
func NewCommand(app appcontext.Interface) *cobra.Command {
	return &cobra.Command{
		Use:     "status",
		GroupID: "core",
		Short:   "Show pipeline status and configured sources",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			p, err := app.Pipeline()
			if err != nil {
				return err
			}
			status := p.Status()
			out := cmd.OutOrStdout()

			format := output.Format(app.OutputFormat())
			if format != output.FormatTable {
				return output.NewFormatter(format).Format(out, status)
			}

			state := "idle"
			if status.IsRunning {
				state = "running"
			}
			fmt.Fprintf(out, "Pipeline %s, %d sources configured, recipe %s\n\n", state, status.ConfiguredSources, p.Recipe())

			formatter := output.NewFormatter(output.FormatTable)
			if err := formatter.Format(out, table.SourcesToTableData(status.Sources)); err != nil {
				return err
			}
			if status.LastRun == nil {
				return nil
			}
			fmt.Fprintln(out)
			return formatter.Format(out, table.RunToTableData(status.LastRun))
		},
	}
}
