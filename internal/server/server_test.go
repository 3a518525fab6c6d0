package server

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/djh20/lfs-leaderboard/internal/bus"
	"github.com/djh20/lfs-leaderboard/internal/client"
	"github.com/djh20/lfs-leaderboard/internal/metrics"
	"github.com/djh20/lfs-leaderboard/internal/model"
	"github.com/djh20/lfs-leaderboard/internal/service"
)

type fakeSessions []client.Status

func (f fakeSessions) Sessions() []client.Status { return f }

type testServer struct {
	*Server
	store *service.MemoryLapStore
	bus   *bus.Local
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	gin.SetMode(gin.TestMode)

	store := service.NewMemoryLapStore()
	ctx := context.Background()
	for _, lap := range []model.Lap{
		{PlayerName: "Alice", VehicleCode: "XRG", TrackCode: "BL1", TimeMs: 83456},
		{PlayerName: "Bob", VehicleCode: "FBM", TrackCode: "BL1", TimeMs: 70000},
		{PlayerName: "Carl", VehicleCode: "XRG", TrackCode: "BL1", TimeMs: 90000},
	} {
		lap := lap
		require.NoError(t, store.Append(ctx, &lap))
	}

	reg := prometheus.NewRegistry()
	m := metrics.New(reg)
	m.SetConnected("rig", true)

	lapBus := bus.NewLocal()
	s := New(Options{
		Port:     0,
		Instance: "test",
		Sessions: fakeSessions{{Name: "rig", Address: "127.0.0.1:29999", Connected: true, Phase: "racing"}},
		Laps:     store,
		Vehicles: service.NewVehicleService(nil, nil, zap.NewNop()),
		Bus:      lapBus,
		Gatherer: reg,
		Logger:   zap.NewNop(),
	})
	return &testServer{Server: s, store: store, bus: lapBus}
}

func (s *testServer) get(t *testing.T, path string) *httptest.ResponseRecorder {
	t.Helper()
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	s.Handler().ServeHTTP(w, req)
	return w
}

func TestHealth(t *testing.T) {
	s := newTestServer(t)
	w := s.get(t, "/health")
	require.Equal(t, http.StatusOK, w.Code)

	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "ok", body["status"])
	assert.Equal(t, "test", body["instance"])
	assert.EqualValues(t, 1, body["connected"])
}

func TestSessions(t *testing.T) {
	s := newTestServer(t)
	w := s.get(t, "/sessions")
	require.Equal(t, http.StatusOK, w.Code)

	var body struct {
		Sessions []client.Status `json:"sessions"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	require.Len(t, body.Sessions, 1)
	assert.Equal(t, "rig", body.Sessions[0].Name)
	assert.True(t, body.Sessions[0].Connected)
}

func TestLeaderboard(t *testing.T) {
	s := newTestServer(t)

	var body struct {
		TrackName string             `json:"track_name"`
		Laps      []LeaderboardEntry `json:"laps"`
	}

	w := s.get(t, "/api/v1/leaderboard/BL1")
	require.Equal(t, http.StatusOK, w.Code)
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "Blackwood GP", body.TrackName)
	require.Len(t, body.Laps, 3)
	assert.Equal(t, LeaderboardEntry{Rank: 1, PlayerName: "Bob", Time: "1:10.00", TimeMs: 70000, VehicleCode: "FBM", VehicleName: "FORMULA BMW FB02"}, body.Laps[0])

	w = s.get(t, "/api/v1/leaderboard/BL1?vehicle=XRG&limit=1")
	require.Equal(t, http.StatusOK, w.Code)
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	require.Len(t, body.Laps, 1)
	assert.Equal(t, "Alice", body.Laps[0].PlayerName)

	w = s.get(t, "/api/v1/leaderboard/BL1?limit=abc")
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestMetricsEndpoint(t *testing.T) {
	s := newTestServer(t)
	w := s.get(t, "/metrics")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `lfsboard_connected{client="rig"} 1`)
}

func TestLapFeed(t *testing.T) {
	s := newTestServer(t)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go s.Hub().Run(ctx)

	srv := httptest.NewServer(s.Handler())
	defer srv.Close()

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws?track=BL1"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	defer conn.Close()

	require.Eventually(t, func() bool { return s.Hub().ClientCount() == 1 }, 3*time.Second, 10*time.Millisecond)

	// other tracks are filtered out
	require.NoError(t, s.bus.Publish(ctx, bus.NewLapEvent("x", model.Lap{PlayerName: "Zed", TrackCode: "SO1", TimeMs: 1})))
	require.NoError(t, s.bus.Publish(ctx, bus.NewLapEvent("x", model.Lap{PlayerName: "Dana", TrackCode: "BL1", TimeMs: 65000})))

	conn.SetReadDeadline(time.Now().Add(3 * time.Second))
	_, data, err := conn.ReadMessage()
	require.NoError(t, err)

	var msg struct {
		Type string       `json:"type"`
		Data bus.LapEvent `json:"data"`
	}
	require.NoError(t, json.Unmarshal(data, &msg))
	assert.Equal(t, "lap", msg.Type)
	assert.Equal(t, "Dana", msg.Data.Lap.PlayerName)
}

func TestDroppedSubscriberKeepsReading(t *testing.T) {
	s := newTestServer(t)
	hub := s.Hub()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go hub.Run(ctx)

	// unbuffered and never drained, so the first lap overflows it
	var feed *FeedClient
	registered := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		feed = &FeedClient{ID: "slow", Conn: conn, Send: make(chan []byte), Hub: hub}
		hub.register <- feed
		close(registered)
		go feed.ReadPump()
	}))
	defer srv.Close()

	conn, _, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(srv.URL, "http"), nil)
	require.NoError(t, err)
	defer conn.Close()
	<-registered
	require.Eventually(t, func() bool { return hub.ClientCount() == 1 }, 3*time.Second, 10*time.Millisecond)

	require.NoError(t, s.bus.Publish(ctx, bus.NewLapEvent("x", model.Lap{PlayerName: "Dana", TrackCode: "BL1", TimeMs: 65000})))
	require.Eventually(t, func() bool { return hub.ClientCount() == 0 }, 3*time.Second, 10*time.Millisecond)

	require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte(`{"type":"ping"}`)))
	require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte(`{"type":"subscribe","track":"SO1"}`)))
	require.Eventually(t, func() bool { return feed.track() == "SO1" }, 3*time.Second, 10*time.Millisecond)
	assert.False(t, feed.enqueue([]byte(`{}`)))
}

func TestSwaggerDoc(t *testing.T) {
	s := newTestServer(t)

	w := s.get(t, "/swagger/doc.json")
	require.Equal(t, http.StatusOK, w.Code)

	var doc struct {
		Info struct {
			Title string `json:"title"`
		} `json:"info"`
		Paths map[string]json.RawMessage `json:"paths"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &doc))
	assert.Equal(t, "lfsboard API", doc.Info.Title)
	assert.Contains(t, doc.Paths, "/api/v1/leaderboard/{track}")
	assert.Contains(t, doc.Paths, "/sessions")
}
