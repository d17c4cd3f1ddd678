package cmd

import (
	"fmt"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"
)

func reportCommand(flags *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "report",
		Short: "Run the full pipeline and write charts plus report.json",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := open(cmd, flags)
			if err != nil {
				return err
			}
			defer s.close()
			ctx, stop := signalContext(cmd)
			defer stop()

			state, err := s.app.Report(ctx)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "run %s: %s incidents, %d charts\n",
				state.RunID, humanize.Comma(int64(len(state.Incidents))), len(state.Charts))
			for _, path := range state.Charts {
				fmt.Fprintln(out, path)
			}
			if state.ReportPath != "" {
				fmt.Fprintln(out, state.ReportPath)
			}
			return nil
		},
	}
}
