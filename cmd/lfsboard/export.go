package main

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"os"

	"github.com/spf13/cobra"

	"github.com/djh20/lfs-leaderboard/internal/config"
	"github.com/djh20/lfs-leaderboard/internal/service"
)

func exportCmd() *cobra.Command {
	var (
		trackCode   string
		vehicleCode string
		out         string
	)

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export the laps of a track to an Excel workbook",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := config.Load()

			db, err := openDatabase(cfg)
			if err != nil {
				return err
			}
			if db == nil {
				return errors.New("DATABASE_URL is not set")
			}

			var vehicle *string
			if vehicleCode != "" {
				vehicle = &vehicleCode
			}

			ctx := context.Background()
			laps, err := service.NewLapService(db).FindOrdered(ctx, trackCode, vehicle, 0)
			if err != nil {
				return fmt.Errorf("query laps: %w", err)
			}

			if out == "" {
				out = fmt.Sprintf("laps-%s.xlsx", trackCode)
			}
			f, err := os.Create(out)
			if err != nil {
				return err
			}
			defer f.Close()

			logger := newLogger(cfg)
			defer logger.Sync()

			if err := service.ExportLaps(ctx, f, laps, service.NewVehicleService(db, nil, logger)); err != nil {
				return err
			}

			fmt.Printf("Exported %d laps to %s\n", len(laps), out)
			return nil
		},
	}

	cmd.Flags().StringVarP(&trackCode, "track", "t", "", "Track code, e.g. BL1")
	cmd.Flags().StringVarP(&vehicleCode, "vehicle", "v", "", "Only laps in this vehicle")
	cmd.Flags().StringVarP(&out, "out", "o", "", "Output file (default laps-<track>.xlsx)")
	cmd.MarkFlagRequired("track")

	return cmd
}

// redactURL hides the password of a connection URL for logging
func redactURL(raw string) string {
	u, err := url.Parse(raw)
	if err != nil {
		return "<invalid>"
	}
	return u.Redacted()
}
