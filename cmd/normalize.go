package cmd

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"shooting_stats/internal/incident"
	"shooting_stats/internal/pipeline"
)

func normalizeCommand(flags *globalFlags) *cobra.Command {
	var output string
	cmd := &cobra.Command{
		Use:   "normalize",
		Short: "Write the normalised incident table as CSV",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := open(cmd, flags)
			if err != nil {
				return err
			}
			defer s.close()
			ctx, stop := signalContext(cmd)
			defer stop()

			state, err := s.app.RunUntil(ctx, pipeline.StageNormalize)
			if err != nil {
				return err
			}
			if output == "" || output == "-" {
				return writeIncidents(cmd.OutOrStdout(), state.Incidents)
			}
			f, err := os.Create(output)
			if err != nil {
				return err
			}
			if err := writeIncidents(f, state.Incidents); err != nil {
				f.Close()
				return err
			}
			if err := f.Close(); err != nil {
				return err
			}
			fmt.Fprintf(cmd.ErrOrStderr(), "wrote %d incidents to %s\n", len(state.Incidents), output)
			return nil
		},
	}
	cmd.Flags().StringVarP(&output, "output", "o", "", "destination file, stdout when empty or -")
	return cmd
}

func writeIncidents(w io.Writer, incidents []incident.Incident) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(incident.CSVHeader()); err != nil {
		return err
	}
	for _, inc := range incidents {
		if err := cw.Write(inc.CSVRow()); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}
