package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/kilianp07/batterysim/app"
	"github.com/kilianp07/batterysim/config"
	"github.com/kilianp07/batterysim/infra/logger"
)

var cfgPath string

var rootCmd = &cobra.Command{
	Use:   "batterysim",
	Short: "EV battery telemetry simulator",
	RunE:  run,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgPath, "config", "c", "config.yaml", "configuration file")
}

// Execute runs the CLI.
func Execute() error { return rootCmd.Execute() }

func run(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load(cfgPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	log := logger.New("main")
	summaries, err := app.New(cfg, log).Run(ctx)
	if err != nil {
		return err
	}
	for _, s := range summaries {
		fmt.Printf("%s (%s, %d days): %d records, %d charge sessions, %d anomalies, SoC %.1f-%.1f%% (mean %.1f%%)\n",
			s.VehicleID, s.Profile, s.Days,
			s.Records, s.ChargeSessions, s.AnomalyEvents,
			s.MinSoC, s.MaxSoC, s.MeanSoC)
	}
	return nil
}
