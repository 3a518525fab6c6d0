package service

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newModServer(t *testing.T, hits *int32) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(hits, 1)
		if !strings.HasSuffix(r.URL.Path, "/5F3A21") {
			http.NotFound(w, r)
			return
		}
		fmt.Fprint(w, `<html><body><div class="head"><div id="modName"> Super Kart </div></div></body></html>`)
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestVehicleNameOfficial(t *testing.T) {
	s := NewVehicleService(nil, nil, zap.NewNop())
	assert.Equal(t, "XR GT", s.NameFor(context.Background(), "XRG"))
	assert.Equal(t, "BMW SAUBER F1.06", s.NameFor(context.Background(), "BF1"))
	assert.Equal(t, "5F3A21", s.NameFor(context.Background(), "5F3A21"))
}

func TestVehicleRefreshFetchesMod(t *testing.T) {
	var hits int32
	srv := newModServer(t, &hits)

	s := NewVehicleService(nil, nil, zap.NewNop())
	s.SetModURL(srv.URL + "/files/vehmods/")

	ctx := context.Background()
	require.NoError(t, s.Refresh(ctx, "5F3A21"))
	assert.Equal(t, "Super Kart", s.NameFor(ctx, "5F3A21"))
	assert.EqualValues(t, 1, atomic.LoadInt32(&hits))

	// fresh entries are not refetched
	require.NoError(t, s.Refresh(ctx, "5F3A21"))
	assert.EqualValues(t, 1, atomic.LoadInt32(&hits))

	// stale entries are
	s.now = func() time.Time { return time.Now().Add(49 * time.Hour) }
	require.NoError(t, s.Refresh(ctx, "5F3A21"))
	assert.EqualValues(t, 2, atomic.LoadInt32(&hits))
}

func TestVehicleRefreshSkipsOfficial(t *testing.T) {
	var hits int32
	srv := newModServer(t, &hits)

	s := NewVehicleService(nil, nil, zap.NewNop())
	s.SetModURL(srv.URL + "/")

	require.NoError(t, s.Refresh(context.Background(), "FBM"))
	assert.Zero(t, atomic.LoadInt32(&hits))
}

func TestVehicleRefreshFailure(t *testing.T) {
	var hits int32
	srv := newModServer(t, &hits)

	s := NewVehicleService(nil, nil, zap.NewNop())
	s.SetModURL(srv.URL + "/")

	err := s.Refresh(context.Background(), "ABCDEF")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "404")
	assert.Equal(t, "ABCDEF", s.NameFor(context.Background(), "ABCDEF"))
}

func TestParseModName(t *testing.T) {
	name, err := ParseModName(strings.NewReader(`<div id="modName">Kart <b>GT</b></div>`))
	require.NoError(t, err)
	assert.Equal(t, "Kart GT", name)

	_, err = ParseModName(strings.NewReader(`<div id="other">x</div>`))
	assert.ErrorIs(t, err, ErrModNameNotFound)

	_, err = ParseModName(strings.NewReader(`<div id="modName">   </div>`))
	assert.ErrorIs(t, err, ErrModNameNotFound)
}
