package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/kilianp07/warehouse/app"
	"github.com/kilianp07/warehouse/config"
	"github.com/kilianp07/warehouse/core/scheduler"
	"github.com/kilianp07/warehouse/infra/logger"
)

var cfgPath string

var rootCmd = &cobra.Command{
	Use:   "warehouse",
	Short: "Warehouse robot schedule playback",
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the playback API, stream and metrics",
	RunE:  serve,
}

var serveWorld string

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgPath, "config", "c", "", "configuration file (defaults apply when empty)")
	serveCmd.Flags().StringVar(&serveWorld, "world", "", "warehouse snapshot to load at startup")
	rootCmd.AddCommand(serveCmd)
	rootCmd.RunE = serve
}

// Execute runs the CLI.
func Execute() error { return rootCmd.Execute() }

func loadConfig() (*config.Config, error) {
	if cfgPath == "" {
		return config.Default(), nil
	}
	cfg, err := config.Load(cfgPath)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	return cfg, nil
}

func serve(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	svc, err := app.New(cfg)
	if err != nil {
		return err
	}
	defer func() {
		if err := svc.Close(); err != nil {
			logger.New("main").Errorf("service close: %v", err)
		}
	}()
	if serveWorld != "" {
		w, err := scheduler.LoadWorld(serveWorld)
		if err != nil {
			return fmt.Errorf("load world: %w", err)
		}
		if err := svc.Engine.Load(w); err != nil {
			return err
		}
	}
	return svc.Run(ctx)
}
