package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/djh20/lfs-leaderboard/internal/config"
)

// Version information set at build time.
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

// @title lfsboard API
// @version 1.0
// @description Client status, fastest-lap leaderboards and a live lap feed for Live for Speed simulators.

// @host localhost:8081
// @BasePath /

func main() {
	rootCmd := &cobra.Command{
		Use:   "lfsboard",
		Short: "Live for Speed lap leaderboard",
		Long: `lfsboard connects to one or more Live for Speed simulators over InSim,
records the local driver's lap times and draws the fastest laps for the
current track on screen.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.AddCommand(
		runCmd(),
		migrateCmd(),
		exportCmd(),
		versionCmd(),
	)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %s\n", err)
		os.Exit(1)
	}
}

func newLogger(cfg *config.Config) *zap.Logger {
	if cfg.IsProduction() && !cfg.Debug {
		return zap.Must(zap.NewProduction())
	}
	return zap.Must(zap.NewDevelopment())
}
