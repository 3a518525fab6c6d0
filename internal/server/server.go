// Package server exposes client status, leaderboards, metrics and a live lap
// feed over HTTP.
package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"

	_ "github.com/djh20/lfs-leaderboard/docs"
	"github.com/djh20/lfs-leaderboard/internal/bus"
	"github.com/djh20/lfs-leaderboard/internal/client"
	"github.com/djh20/lfs-leaderboard/internal/leaderboard"
	"github.com/djh20/lfs-leaderboard/internal/track"
)

const maxLeaderboardLimit = 100

// SessionLister reports the status of the local clients
type SessionLister interface {
	Sessions() []client.Status
}

// Options configures the server
type Options struct {
	Port     int
	Instance string
	Sessions SessionLister
	Registry *client.Registry
	Laps     leaderboard.LapFinder
	Vehicles leaderboard.NameResolver
	Bus      bus.Bus
	Gatherer prometheus.Gatherer
	Logger   *zap.Logger
}

// Server represents the HTTP server
type Server struct {
	opts   Options
	router *gin.Engine
	hub    *Hub
	logger *zap.Logger
}

// LeaderboardEntry is one row of the leaderboard API
type LeaderboardEntry struct {
	Rank        int    `json:"rank"`
	PlayerName  string `json:"player_name"`
	Time        string `json:"time"`
	TimeMs      uint32 `json:"time_ms"`
	VehicleCode string `json:"vehicle_code"`
	VehicleName string `json:"vehicle_name"`
}

// New creates a server and its routes
func New(opts Options) *Server {
	if opts.Gatherer == nil {
		opts.Gatherer = prometheus.DefaultGatherer
	}

	s := &Server{
		opts:   opts,
		hub:    NewHub(opts.Bus, opts.Logger),
		logger: opts.Logger.With(zap.String("component", "http")),
	}
	s.setupRouter()
	return s
}

// Handler returns the HTTP handler
func (s *Server) Handler() http.Handler {
	return s.router
}

// Hub returns the live lap feed hub
func (s *Server) Hub() *Hub {
	return s.hub
}

func (s *Server) setupRouter() {
	s.router = gin.New()
	s.router.Use(gin.Recovery(), s.requestLogger())

	s.router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	s.router.GET("/health", s.handleHealth)
	s.router.GET("/sessions", s.handleSessions)
	s.router.GET("/metrics", gin.WrapH(promhttp.HandlerFor(s.opts.Gatherer, promhttp.HandlerOpts{})))
	s.router.GET("/ws", s.handleFeed)

	api := s.router.Group("/api/v1")
	{
		api.GET("/leaderboard/:track", s.handleLeaderboard)
	}
}

// Run serves until ctx is cancelled
func (s *Server) Run(ctx context.Context) error {
	go func() {
		if err := s.hub.Run(ctx); err != nil {
			s.logger.Error("Lap feed stopped", zap.Error(err))
		}
	}()

	addr := fmt.Sprintf(":%d", s.opts.Port)
	server := &http.Server{
		Addr:              addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("HTTP server listening", zap.String("addr", addr))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return server.Shutdown(shutdownCtx)
}

func (s *Server) requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		s.logger.Debug("Request",
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("latency", time.Since(start)),
		)
	}
}

// handleHealth reports liveness and connection counts
// @Summary Health check
// @Tags Status
// @Produce json
// @Success 200 {object} map[string]interface{}
// @Router /health [get]
func (s *Server) handleHealth(c *gin.Context) {
	connected := 0
	sessions := s.opts.Sessions.Sessions()
	for _, session := range sessions {
		if session.Connected {
			connected++
		}
	}

	c.JSON(http.StatusOK, gin.H{
		"status":    "ok",
		"instance":  s.opts.Instance,
		"clients":   len(sessions),
		"connected": connected,
		"feed":      s.hub.ClientCount(),
	})
}

// handleSessions lists the local clients and, with Redis, the whole cluster
// @Summary List InSim sessions
// @Tags Status
// @Produce json
// @Success 200 {object} map[string]interface{}
// @Router /sessions [get]
func (s *Server) handleSessions(c *gin.Context) {
	resp := gin.H{
		"instance": s.opts.Instance,
		"sessions": s.opts.Sessions.Sessions(),
	}

	if s.opts.Registry != nil {
		cluster, err := s.opts.Registry.List(c.Request.Context())
		if err != nil {
			s.logger.Warn("Failed to list cluster sessions", zap.Error(err))
		} else {
			resp["cluster"] = cluster
		}
	}

	c.JSON(http.StatusOK, resp)
}

// handleLeaderboard returns the fastest laps on a track
// @Summary Track leaderboard
// @Description Fastest laps on a track, optionally for one vehicle
// @Tags Leaderboard
// @Produce json
// @Param track path string true "Track code, e.g. BL1"
// @Param vehicle query string false "Vehicle code, e.g. XRG"
// @Param limit query int false "Number of laps (1-100)" default(10)
// @Success 200 {object} map[string]interface{}
// @Failure 400 {object} map[string]string
// @Failure 500 {object} map[string]string
// @Router /api/v1/leaderboard/{track} [get]
func (s *Server) handleLeaderboard(c *gin.Context) {
	trackCode := c.Param("track")

	limit := 10
	if v := c.Query("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 || n > maxLeaderboardLimit {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid limit"})
			return
		}
		limit = n
	}

	var vehicle *string
	if v := c.Query("vehicle"); v != "" {
		vehicle = &v
	}

	ctx := c.Request.Context()
	laps, err := s.opts.Laps.FindOrdered(ctx, trackCode, vehicle, limit)
	if err != nil {
		s.logger.Warn("Failed to query leaderboard", zap.String("track", trackCode), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to query laps"})
		return
	}

	entries := make([]LeaderboardEntry, len(laps))
	for i, lap := range laps {
		entries[i] = LeaderboardEntry{
			Rank:        i + 1,
			PlayerName:  lap.PlayerName,
			Time:        leaderboard.FormatLapTime(lap.TimeMs),
			TimeMs:      lap.TimeMs,
			VehicleCode: lap.VehicleCode,
			VehicleName: s.opts.Vehicles.NameFor(ctx, lap.VehicleCode),
		}
	}

	c.JSON(http.StatusOK, gin.H{
		"track":      trackCode,
		"track_name": track.NameFor(trackCode),
		"vehicle":    c.Query("vehicle"),
		"laps":       entries,
	})
}

func (s *Server) handleFeed(c *gin.Context) {
	s.hub.Serve(c.Writer, c.Request, c.Query("track"))
}
