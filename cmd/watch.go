package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"shooting_stats/internal/events"
	"shooting_stats/internal/pipeline"
)

func watchCommand(flags *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "watch",
		Short: "Rebuild the report whenever the input CSV changes",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := open(cmd, flags)
			if err != nil {
				return err
			}
			defer s.close()
			ctx, stop := signalContext(cmd)
			defer stop()

			sub := s.app.Bus().Subscribe()
			defer s.app.Bus().Unsubscribe(sub)
			go logEvents(s.log, sub)

			out := cmd.OutOrStdout()
			s.log.Info("watching", zap.String("path", s.cfg.DataPath))
			return s.app.Watch(ctx, func(state *pipeline.State, err error) {
				if err != nil {
					fmt.Fprintf(out, "run %s failed: %v\n", state.RunID, err)
					return
				}
				fmt.Fprintf(out, "run %s: %d incidents -> %s\n", state.RunID, len(state.Incidents), state.ReportPath)
			})
		},
	}
}

func logEvents(log *zap.Logger, ch <-chan events.Event) {
	for ev := range ch {
		fields := []zap.Field{
			zap.String("run", ev.RunID),
			zap.String("stage", ev.Stage),
			zap.String("status", ev.Status),
		}
		if ev.Duration > 0 {
			fields = append(fields, zap.Duration("elapsed", ev.Duration))
		}
		if ev.Err != nil {
			log.Warn("stage event", append(fields, zap.Error(ev.Err))...)
			continue
		}
		log.Debug("stage event", fields...)
	}
}
