package client

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/djh20/lfs-leaderboard/internal/bus"
	"github.com/djh20/lfs-leaderboard/internal/service"
)

func TestManagerRunsClients(t *testing.T) {
	simA, simB := newFakeSim(t), newFakeSim(t)
	store := service.NewMemoryLapStore()
	vehicles := service.NewVehicleService(nil, nil, zap.NewNop())
	lapBus := bus.NewLocal()

	var clients []*Client
	for _, addr := range []string{simA.addr(), simB.addr()} {
		clients = append(clients, New(Options{Address: addr, ReconnectDelay: 10 * time.Millisecond}, store, vehicles, lapBus, nil, nil, zap.NewNop()))
	}
	m := NewManager(clients, zap.NewNop())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- m.Run(ctx) }()

	simA.accept(t).handshake()
	simB.accept(t).handshake()

	require.Eventually(t, func() bool {
		for _, s := range m.Sessions() {
			if !s.Connected {
				return false
			}
		}
		return true
	}, 3*time.Second, 10*time.Millisecond)

	sessions := m.Sessions()
	require.Len(t, sessions, 2)
	assert.Equal(t, simA.addr(), sessions[0].Name)
	assert.Equal(t, "idle", sessions[0].Phase)

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(3 * time.Second):
		t.Fatal("manager did not stop")
	}
}
