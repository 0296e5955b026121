package cmd

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/kilianp07/warehouse/core/scheduler"
	"github.com/kilianp07/warehouse/infra/logger"
)

var scheduleWorld string

var scheduleCmd = &cobra.Command{
	Use:   "schedule",
	Short: "Ask the scheduler service for a schedule and print it",
	RunE:  runSchedule,
}

func init() {
	scheduleCmd.Flags().StringVar(&scheduleWorld, "world", "", "warehouse snapshot (json or yaml)")
	_ = scheduleCmd.MarkFlagRequired("world")
	rootCmd.AddCommand(scheduleCmd)
}

func runSchedule(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	world, err := scheduler.LoadWorld(scheduleWorld)
	if err != nil {
		return fmt.Errorf("load world: %w", err)
	}
	s, err := scheduler.NewClient(cfg.Scheduler, logger.New("scheduler")).Fetch(cmd.Context(), world)
	if err != nil {
		return err
	}
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(s)
}
