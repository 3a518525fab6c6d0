package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadFileCreatesDefault(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")

	_, err := LoadFile(path)
	require.ErrorIs(t, err, ErrConfigCreated)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.JSONEq(t, `{"clients":[{"host":"localhost"}]}`, string(data))

	file, err := LoadFile(path)
	require.NoError(t, err)
	require.Len(t, file.Clients, 1)
	assert.Equal(t, "localhost:29999", file.Clients[0].Address())
}

func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"clients":[
		{"host":"10.0.0.2","port":30000,"password":"secret","name":"rig-2"},
		{"host":"10.0.0.3"}
	]}`), 0o644))

	file, err := LoadFile(path)
	require.NoError(t, err)
	require.Len(t, file.Clients, 2)

	assert.Equal(t, "10.0.0.2:30000", file.Clients[0].Address())
	assert.Equal(t, "rig-2", file.Clients[0].DisplayName())
	assert.Equal(t, "secret", file.Clients[0].Password)
	assert.Equal(t, "10.0.0.3:29999", file.Clients[1].DisplayName())
}

func TestLoadFileInvalid(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{"malformed", `{"clients":`},
		{"empty", `{"clients":[]}`},
		{"no host", `{"clients":[{"port":1}]}`},
		{"bad port", `{"clients":[{"host":"x","port":70000}]}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "config.json")
			require.NoError(t, os.WriteFile(path, []byte(tt.content), 0o644))

			_, err := LoadFile(path)
			assert.Error(t, err)
			assert.NotErrorIs(t, err, ErrConfigCreated)
		})
	}
}

func TestLoadEnv(t *testing.T) {
	t.Setenv("APP_ENV", "development")
	t.Setenv("HTTP_PORT", "9090")
	t.Setenv("RECONNECT_DELAY", "250ms")
	t.Setenv("READ_TIMEOUT", "not-a-duration")
	t.Setenv("WRITE_TIMEOUT", "3s")
	t.Setenv("DEBUG", "true")

	cfg := Load()
	assert.False(t, cfg.IsProduction())
	assert.Equal(t, 9090, cfg.HTTPPort)
	assert.Equal(t, 250*time.Millisecond, cfg.ReconnectDelay)
	assert.Equal(t, 90*time.Second, cfg.ReadTimeout)
	assert.Equal(t, 2*time.Second, cfg.DialTimeout)
	assert.Equal(t, 3*time.Second, cfg.WriteTimeout)
	assert.True(t, cfg.Debug)
	assert.Equal(t, "LFS Leaderboard", cfg.ProgramName)
}
