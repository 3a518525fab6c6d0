package bus

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/djh20/lfs-leaderboard/internal/model"
)

func TestLocalFanOut(t *testing.T) {
	b := NewLocal()

	var mu sync.Mutex
	got := map[string][]LapEvent{}
	subscribe := func(name string) func() {
		unsubscribe, err := b.Subscribe(func(e LapEvent) {
			mu.Lock()
			got[name] = append(got[name], e)
			mu.Unlock()
		})
		require.NoError(t, err)
		return unsubscribe
	}

	subscribe("a")
	unsubscribeB := subscribe("b")

	first := NewLapEvent("proc/a", model.Lap{PlayerName: "Alice", TimeMs: 80000})
	require.NoError(t, b.Publish(context.Background(), first))

	unsubscribeB()
	unsubscribeB()

	second := NewLapEvent("proc/a", model.Lap{PlayerName: "Alice", TimeMs: 79000})
	require.NoError(t, b.Publish(context.Background(), second))

	assert.Equal(t, []LapEvent{first, second}, got["a"])
	assert.Equal(t, []LapEvent{first}, got["b"])
	assert.NotEqual(t, first.ID, second.ID)
}

func TestPublishWithoutSubscribers(t *testing.T) {
	assert.NoError(t, NewLocal().Publish(context.Background(), NewLapEvent("x", model.Lap{})))
}
