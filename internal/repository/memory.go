package repository

import (
	"errors"
	"sync"

	"github.com/immxrtalbeast/watchparty/internal/domain"
)

var ErrRoomTokenExists = errors.New("room token already exists")

type InMemoryRoomRegistry struct {
	mu    sync.RWMutex
	rooms map[string]*domain.Room
}

func NewInMemoryRoomRegistry() *InMemoryRoomRegistry {
	return &InMemoryRoomRegistry{
		rooms: make(map[string]*domain.Room),
	}
}

func (r *InMemoryRoomRegistry) Create(room *domain.Room) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.rooms[room.ID]; ok {
		return ErrRoomTokenExists
	}

	r.rooms[room.ID] = room
	return nil
}

func (r *InMemoryRoomRegistry) Get(id string) (*domain.Room, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	room, ok := r.rooms[id]
	return room, ok
}

func (r *InMemoryRoomRegistry) Delete(id string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	delete(r.rooms, id)
}

func (r *InMemoryRoomRegistry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return len(r.rooms)
}

func (r *InMemoryRoomRegistry) List() []*domain.Room {
	r.mu.RLock()
	defer r.mu.RUnlock()

	result := make([]*domain.Room, 0, len(r.rooms))
	for _, room := range r.rooms {
		result = append(result, room)
	}
	return result
}
