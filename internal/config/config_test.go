package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultValues(t *testing.T) {
	cfg := Default()

	assert.Equal(t, "local", cfg.Env)
	assert.Equal(t, ":3000", cfg.HTTP.Address)

	assert.Equal(t, 5, cfg.Room.Capacity)
	assert.Equal(t, 50, cfg.Room.HistoryLimit)
	assert.Equal(t, 5*time.Second, cfg.Room.ReconnectGrace())
	assert.Equal(t, 500*time.Millisecond, cfg.Room.ActionRateLimit())
	assert.Equal(t, 500*time.Millisecond, cfg.Room.ChatRateLimit())
	assert.Equal(t, 500*time.Millisecond, cfg.Room.KickCloseDelay())

	assert.Equal(t, 8192, cfg.Limits.MaxMessageBytes)
	assert.Equal(t, 15, cfg.Limits.MaxUsername)
	assert.Equal(t, 50, cfg.Limits.MaxPassword)
	assert.Equal(t, 20, cfg.Limits.MaxRoomID)
	assert.Equal(t, 2048, cfg.Limits.MaxURL)
	assert.Equal(t, 300, cfg.Limits.MaxChatMessage)
	assert.Equal(t, 150, cfg.Limits.MaxPollQuestion)
	assert.Equal(t, 50, cfg.Limits.MaxPollOption)
	assert.Equal(t, 5, cfg.Limits.MaxPollOptions)
	assert.Equal(t, 150, cfg.Limits.MaxSuperchat)
}

func TestMustLoadPath(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.yaml")
	data := []byte(`env: dev
http:
  address: ":8080"
room:
  capacity: 10
  reconnect_grace_ms: 1000
limits:
  max_username: 20
`)
	require.NoError(t, os.WriteFile(path, data, 0o644))

	cfg := MustLoadPath(path)

	assert.Equal(t, "dev", cfg.Env)
	assert.Equal(t, ":8080", cfg.HTTP.Address)
	assert.Equal(t, 10, cfg.Room.Capacity)
	assert.Equal(t, time.Second, cfg.Room.ReconnectGrace())
	assert.Equal(t, 20, cfg.Limits.MaxUsername)

	// values absent from the file keep their defaults
	assert.Equal(t, 50, cfg.Room.HistoryLimit)
	assert.Equal(t, 8192, cfg.Limits.MaxMessageBytes)
}

func TestMustLoadPathMissingFile(t *testing.T) {
	assert.Panics(t, func() {
		MustLoadPath(filepath.Join(t.TempDir(), "nope.yaml"))
	})
}
