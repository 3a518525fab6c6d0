package main

import (
	"context"
	"errors"
	"fmt"
	"os/signal"
	"syscall"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/djh20/lfs-leaderboard/internal/client"
	"github.com/djh20/lfs-leaderboard/internal/config"
	"github.com/djh20/lfs-leaderboard/internal/metrics"
	"github.com/djh20/lfs-leaderboard/internal/server"
	"github.com/djh20/lfs-leaderboard/internal/service"
)

func runCmd() *cobra.Command {
	var configPath string

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Connect to the configured simulators and draw leaderboards",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := config.Load()
			if configPath != "" {
				cfg.ConfigPath = configPath
			}
			return run(cfg)
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "", "Path to the clients file (default $CONFIG_PATH or config.json)")

	return cmd
}

func run(cfg *config.Config) error {
	logger := newLogger(cfg)
	defer logger.Sync()

	logger.Info("Starting lfsboard", zap.String("version", version))

	if err := cfg.LoadClients(); err != nil {
		if errors.Is(err, config.ErrConfigCreated) {
			logger.Warn("Config file did not exist and was created with defaults. Edit it and run again.",
				zap.String("path", cfg.ConfigPath))
			return nil
		}
		return err
	}
	logger.Info("Configuration loaded", zap.String("path", cfg.ConfigPath), zap.Int("clients", len(cfg.Clients)))

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	d, err := connectDeps(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer d.Close()

	if d.db != nil {
		if err := migrate(d.db); err != nil {
			return err
		}
	}

	instance := uuid.NewString()
	m := metrics.New(prometheus.DefaultRegisterer)
	laps := d.lapStore()
	vehicles := service.NewVehicleService(d.db, d.redis, logger.With(zap.String("component", "vehicles")))
	lapBus := d.lapBus(logger)

	var registry *client.Registry
	if d.redis != nil {
		registry = client.NewRegistry(d.redis, instance, logger)
	}

	clients := make([]*client.Client, 0, len(cfg.Clients))
	for _, target := range cfg.Clients {
		clients = append(clients, client.New(client.Options{
			Name:           target.DisplayName(),
			Address:        target.Address(),
			Password:       target.Password,
			ProgramName:    cfg.ProgramName,
			Origin:         fmt.Sprintf("%s/%s", instance, target.DisplayName()),
			ReconnectDelay: cfg.ReconnectDelay,
			DialTimeout:    cfg.DialTimeout,
			ReadTimeout:    cfg.ReadTimeout,
			WriteTimeout:   cfg.WriteTimeout,
		}, laps, vehicles, lapBus, registry, m, logger))
	}
	manager := client.NewManager(clients, logger)

	if cfg.HTTPPort > 0 {
		srv := server.New(server.Options{
			Port:     cfg.HTTPPort,
			Instance: instance,
			Sessions: manager,
			Registry: registry,
			Laps:     laps,
			Vehicles: vehicles,
			Bus:      lapBus,
			Logger:   logger,
		})
		go func() {
			if err := srv.Run(ctx); err != nil {
				logger.Error("HTTP server error", zap.Error(err))
			}
		}()
	}

	err = manager.Run(ctx)
	logger.Info("Shutting down")
	return err
}
