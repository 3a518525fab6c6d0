package main

import (
	"context"
	"fmt"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/djh20/lfs-leaderboard/internal/bus"
	"github.com/djh20/lfs-leaderboard/internal/client"
	"github.com/djh20/lfs-leaderboard/internal/config"
	"github.com/djh20/lfs-leaderboard/internal/model"
	"github.com/djh20/lfs-leaderboard/internal/service"
)

// deps holds the optional backing services. Each is nil when not configured.
type deps struct {
	db    *gorm.DB
	redis *redis.Client
	nats  *nats.Conn
}

func (d *deps) Close() {
	if d.nats != nil {
		d.nats.Close()
	}
	if d.redis != nil {
		d.redis.Close()
	}
	if d.db != nil {
		if sqlDB, err := d.db.DB(); err == nil {
			sqlDB.Close()
		}
	}
}

func openDatabase(cfg *config.Config) (*gorm.DB, error) {
	if cfg.DatabaseURL == "" {
		return nil, nil
	}

	db, err := gorm.Open(postgres.Open(cfg.DatabaseURL), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Warn),
	})
	if err != nil {
		return nil, fmt.Errorf("connect to database: %w", err)
	}
	return db, nil
}

func connectDeps(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*deps, error) {
	d := &deps{}

	db, err := openDatabase(cfg)
	if err != nil {
		return nil, err
	}
	if db != nil {
		d.db = db
		logger.Info("Connected to database")
	} else {
		logger.Info("No DATABASE_URL set, laps are kept in memory")
	}

	if cfg.RedisURL != "" {
		opts, err := redis.ParseURL(cfg.RedisURL)
		if err != nil {
			opts = &redis.Options{Addr: cfg.RedisURL}
		}
		redisClient := redis.NewClient(opts)

		pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
		defer cancel()
		if err := redisClient.Ping(pingCtx).Err(); err != nil {
			d.Close()
			return nil, fmt.Errorf("connect to redis: %w", err)
		}
		d.redis = redisClient
		logger.Info("Connected to Redis")
	}

	if cfg.NATSURL != "" {
		natsConn, err := nats.Connect(cfg.NATSURL, nats.Name(cfg.ProgramName))
		if err != nil {
			d.Close()
			return nil, fmt.Errorf("connect to nats: %w", err)
		}
		d.nats = natsConn
		logger.Info("Connected to NATS")
	}

	return d, nil
}

func (d *deps) lapStore() client.LapStore {
	if d.db == nil {
		return service.NewMemoryLapStore()
	}
	return service.NewLapService(d.db)
}

func (d *deps) lapBus(logger *zap.Logger) bus.Bus {
	if d.nats == nil {
		return bus.NewLocal()
	}
	return bus.NewNATS(d.nats, logger)
}

func migrate(db *gorm.DB) error {
	if err := db.AutoMigrate(model.All()...); err != nil {
		return fmt.Errorf("auto migrate: %w", err)
	}
	return nil
}
