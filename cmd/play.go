package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/kilianp07/warehouse/core/model"
	"github.com/kilianp07/warehouse/core/playback"
	"github.com/kilianp07/warehouse/core/report"
	"github.com/kilianp07/warehouse/core/scheduler"
	"github.com/kilianp07/warehouse/infra/logger"
	"github.com/kilianp07/warehouse/pkg/export"
	"github.com/kilianp07/warehouse/qa/scenarios"
)

var playOpts struct {
	world    string
	schedule string
	scenario string
	format   string
	fetch    bool
}

var playCmd = &cobra.Command{
	Use:   "play",
	Short: "Play a schedule on a warehouse and print the run report",
	Long: `Play a schedule on a warehouse snapshot and print the report.

The world and schedule are read from --world and --schedule, or both from a
--scenario file. With --fetch the schedule is computed by the scheduler
service instead. A scenario with expectations exits non-zero on mismatch.`,
	RunE: runPlay,
}

func init() {
	f := playCmd.Flags()
	f.StringVar(&playOpts.world, "world", "", "warehouse snapshot (json or yaml)")
	f.StringVar(&playOpts.schedule, "schedule", "", "schedule (json or yaml)")
	f.StringVar(&playOpts.scenario, "scenario", "", "scenario file holding world, schedule and expectations")
	f.StringVar(&playOpts.format, "format", "text", "report format: text, json or csv")
	f.BoolVar(&playOpts.fetch, "fetch", false, "ask the scheduler service for the schedule")
	rootCmd.AddCommand(playCmd)
}

func runPlay(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	logger.SetLevel(cfg.Logging.Level)
	opts := []playback.Option{playback.WithLogger(logger.New("playback"))}

	if playOpts.scenario != "" {
		sc, err := scenarios.Load(playOpts.scenario)
		if err != nil {
			return err
		}
		out, err := scenarios.Run(ctx, sc, cfg.Playback, opts...)
		if err != nil {
			return err
		}
		if out.Refused != nil {
			fmt.Fprintf(cmd.ErrOrStderr(), "run refused: %v\n", out.Refused)
		} else if err := export.Write(cmd.OutOrStdout(), playOpts.format, report.Summarize(out.Result)); err != nil {
			return err
		}
		if diffs := scenarios.Check(sc, out); len(diffs) > 0 {
			for _, d := range diffs {
				fmt.Fprintf(cmd.ErrOrStderr(), "%s: %s\n", sc.Name, d)
			}
			return fmt.Errorf("scenario %s: %d expectation(s) failed", sc.Name, len(diffs))
		}
		return nil
	}

	if playOpts.world == "" {
		return errors.New("--world or --scenario is required")
	}
	world, err := scheduler.LoadWorld(playOpts.world)
	if err != nil {
		return fmt.Errorf("load world: %w", err)
	}
	schedule, err := playSchedule(ctx, cfg.Scheduler, world)
	if err != nil {
		return err
	}

	eng := playback.NewEngine(cfg.Playback, opts...)
	defer eng.Close()
	results, err := eng.Run(ctx, &world, schedule)
	if err != nil {
		return err
	}
	res := <-results
	return export.Write(cmd.OutOrStdout(), playOpts.format, report.Summarize(res))
}

func playSchedule(ctx context.Context, cfg scheduler.Config, world model.World) (model.Schedule, error) {
	switch {
	case playOpts.fetch:
		return scheduler.NewClient(cfg, logger.New("scheduler")).Fetch(ctx, world)
	case playOpts.schedule != "":
		s, err := scheduler.LoadSchedule(playOpts.schedule)
		if err != nil {
			return nil, fmt.Errorf("load schedule: %w", err)
		}
		return s, nil
	default:
		return nil, errors.New("--schedule or --fetch is required")
	}
}
