package main

import (
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
)

func daemonCmd() *cobra.Command {
	var interval time.Duration
	var owner string

	cmd := &cobra.Command{
		Use:   "daemon",
		Short: "Run ingestion cycles on a timer",
		Long: `Continuously run the ingestion pipeline on a timer.
Designed for running inside a Docker container or as a background service.
Handles SIGINT/SIGTERM for graceful shutdown (finishes the current cycle).`,
		RunE: func(cmd *cobra.Command, args []string) error {
			engine, err := openEngine()
			if err != nil {
				return err
			}
			defer engine.Close()

			sig := make(chan os.Signal, 1)
			signal.Notify(sig, os.Interrupt, syscall.SIGTERM)

			logger.Info().Dur("interval", interval).Msg("daemon starting")

			cycle := 1
			for {
				logger.Info().Int("cycle", cycle).Msg("cycle starting")

				// Each cycle is bounded by the configured run timeout and
				// skipped when the previous one is still in flight.
				if !engine.TriggerRun(owner) {
					logger.Warn().Int("cycle", cycle).Msg("previous run still in flight, skipping")
				}
				cycle++

				// Wait for the next tick or a shutdown signal.
				timer := time.NewTimer(interval)
				select {
				case <-sig:
					timer.Stop()
					logger.Info().Msg("received shutdown signal, waiting for running cycle")
					engine.WaitForRuns()
					return nil
				case <-timer.C:
				}
			}
		},
	}

	cmd.Flags().DurationVarP(&interval, "interval", "i", 30*time.Minute, "duration between ingestion cycles (e.g. 5m, 30s, 1h)")
	cmd.Flags().StringVarP(&owner, "owner", "u", "", "run against this user's keywords (default: global approved set)")
	return cmd
}
