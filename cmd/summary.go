package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"shooting_stats/internal/pipeline"
	"shooting_stats/internal/report"
	"shooting_stats/internal/stats"
)

func summaryCommand(flags *globalFlags) *cobra.Command {
	var measure string
	var geocode bool
	cmd := &cobra.Command{
		Use:   "summary",
		Short: "Print the aggregate tables without rendering charts",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			m, err := stats.ParseMeasure(measure)
			if err != nil {
				return err
			}
			s, err := open(cmd, flags)
			if err != nil {
				return err
			}
			defer s.close()
			ctx, stop := signalContext(cmd)
			defer stop()

			last := pipeline.StageAggregate
			if geocode {
				last = pipeline.StageGeocode
			}
			state, err := s.app.RunUntil(ctx, last)
			if err != nil {
				return err
			}
			fmt.Fprint(cmd.OutOrStdout(), report.Summary(state.Report, m))
			return nil
		},
	}
	cmd.Flags().StringVarP(&measure, "measure", "m", stats.Count.String(), "count, fatalities, injured or total_victims")
	cmd.Flags().BoolVar(&geocode, "geocode", false, "also place states and list the ones left off the point map")
	return cmd
}
