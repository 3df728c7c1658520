package repository

import "github.com/immxrtalbeast/watchparty/internal/domain"

// RoomRegistry holds every live room. Rooms exist only while they have
// members or pending disconnect timers; nothing survives a process restart.
type RoomRegistry interface {
	Create(room *domain.Room) error
	Get(id string) (*domain.Room, bool)
	Delete(id string)
	Len() int
	List() []*domain.Room
}
