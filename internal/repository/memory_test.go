package repository

import (
	"testing"

	"github.com/immxrtalbeast/watchparty/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInMemoryRoomRegistry(t *testing.T) {
	reg := NewInMemoryRoomRegistry()

	room := domain.NewRoom("room-abc", "", 50)
	require.NoError(t, reg.Create(room))
	assert.Equal(t, 1, reg.Len())

	got, ok := reg.Get("room-abc")
	require.True(t, ok)
	assert.Equal(t, room, got)

	_, ok = reg.Get("room-missing")
	assert.False(t, ok)

	reg.Delete("room-abc")
	assert.Equal(t, 0, reg.Len())
	_, ok = reg.Get("room-abc")
	assert.False(t, ok)
}

func TestInMemoryRoomRegistryRejectsDuplicateToken(t *testing.T) {
	reg := NewInMemoryRoomRegistry()

	require.NoError(t, reg.Create(domain.NewRoom("room-abc", "", 50)))

	err := reg.Create(domain.NewRoom("room-abc", "", 50))
	assert.ErrorIs(t, err, ErrRoomTokenExists)
	assert.Equal(t, 1, reg.Len())
}

func TestInMemoryRoomRegistryList(t *testing.T) {
	reg := NewInMemoryRoomRegistry()

	require.NoError(t, reg.Create(domain.NewRoom("room-a", "", 50)))
	require.NoError(t, reg.Create(domain.NewRoom("room-b", "", 50)))

	assert.Len(t, reg.List(), 2)
}
