package service

import (
	"encoding/json"
	"log/slog"
	"sync"

	"github.com/immxrtalbeast/watchparty/internal/domain"
	"github.com/immxrtalbeast/watchparty/lib/logger/sl"
)

// Sender is the transport half of one connection. Send must not block;
// implementations queue into a bounded buffer and report failure when full
// or closed.
type Sender interface {
	Send(data []byte) error
	Close(code int, reason string)
}

// Dispatcher fans events out to the senders registered for a room's
// members. Delivery is best-effort, at most once per open connection; a
// failure on one sender never affects the others.
type Dispatcher struct {
	mu    sync.RWMutex
	conns map[domain.ConnID]Sender
	log   *slog.Logger
}

func NewDispatcher(log *slog.Logger) *Dispatcher {
	if log == nil {
		log = slog.Default()
	}
	return &Dispatcher{
		conns: make(map[domain.ConnID]Sender),
		log:   log,
	}
}

func (d *Dispatcher) Register(conn domain.ConnID, s Sender) {
	d.mu.Lock()
	d.conns[conn] = s
	d.mu.Unlock()
}

func (d *Dispatcher) Unregister(conn domain.ConnID) {
	d.mu.Lock()
	delete(d.conns, conn)
	d.mu.Unlock()
}

func (d *Dispatcher) sender(conn domain.ConnID) Sender {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.conns[conn]
}

func (d *Dispatcher) Unicast(conn domain.ConnID, event domain.Event) {
	s := d.sender(conn)
	if s == nil {
		return
	}

	data, err := json.Marshal(event)
	if err != nil {
		d.log.Error("failed to marshal event", slog.String("type", event.Type), sl.Err(err))
		return
	}

	if err := s.Send(data); err != nil {
		d.log.Debug("dropping event", slog.String("type", event.Type), sl.Err(err))
	}
}

// Broadcast serializes the event once and sends the identical bytes to every
// member of the room except exclude.
func (d *Dispatcher) Broadcast(room *domain.Room, event domain.Event, exclude domain.ConnID) {
	data, err := json.Marshal(event)
	if err != nil {
		d.log.Error("failed to marshal event", slog.String("type", event.Type), sl.Err(err))
		return
	}

	for _, c := range room.Users() {
		if c.Conn == exclude {
			continue
		}
		s := d.sender(c.Conn)
		if s == nil {
			continue
		}
		if err := s.Send(data); err != nil {
			d.log.Debug("dropping broadcast event",
				slog.String("peer", c.ID),
				slog.String("type", event.Type),
			)
		}
	}
}

// Close terminates the underlying connection bound to conn, if still open.
func (d *Dispatcher) Close(conn domain.ConnID, code int, reason string) {
	if s := d.sender(conn); s != nil {
		s.Close(code, reason)
	}
}
