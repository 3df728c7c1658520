package service

import (
	"encoding/json"
	"io"
	"log/slog"
	"testing"

	"github.com/immxrtalbeast/watchparty/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestDispatcher() *Dispatcher {
	return NewDispatcher(slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func TestUnicastToUnknownConnIsNoop(t *testing.T) {
	d := newTestDispatcher()
	d.Unicast("ghost", domain.Event{Type: domain.EventSystemToast, Payload: domain.ToastPayload{Message: "hi"}})
}

func TestBroadcastExcludesOneConn(t *testing.T) {
	d := newTestDispatcher()

	room := domain.NewRoom("room-test", "", 50)
	a := &fakeSender{}
	b := &fakeSender{}
	d.Register("conn-a", a)
	d.Register("conn-b", b)
	room.AddClient(domain.NewClient("conn-a", "alice"))
	room.AddClient(domain.NewClient("conn-b", "bob"))

	d.Broadcast(room, domain.Event{Type: domain.EventSystemToast, Payload: domain.ToastPayload{Message: "hi"}}, "conn-a")

	assert.Empty(t, a.events(t))
	require.Len(t, b.events(t), 1)
	assert.Equal(t, domain.EventSystemToast, b.events(t)[0].Type)
}

func TestBroadcastSkipsUnregisteredMembers(t *testing.T) {
	d := newTestDispatcher()

	room := domain.NewRoom("room-test", "", 50)
	b := &fakeSender{}
	d.Register("conn-b", b)
	room.AddClient(domain.NewClient("conn-a", "alice")) // never registered
	room.AddClient(domain.NewClient("conn-b", "bob"))

	d.Broadcast(room, domain.Event{Type: domain.EventSystemToast, Payload: domain.ToastPayload{Message: "hi"}}, "")

	require.Len(t, b.events(t), 1)
}

func TestBroadcastSerializesOnce(t *testing.T) {
	d := newTestDispatcher()

	room := domain.NewRoom("room-test", "", 50)
	a := &fakeSender{}
	b := &fakeSender{}
	d.Register("conn-a", a)
	d.Register("conn-b", b)
	room.AddClient(domain.NewClient("conn-a", "alice"))
	room.AddClient(domain.NewClient("conn-b", "bob"))

	d.Broadcast(room, domain.Event{Type: domain.EventUpdateUsers, Payload: domain.UsersPayload{Users: room.Users()}}, "")

	require.Len(t, a.frames, 1)
	require.Len(t, b.frames, 1)
	assert.Equal(t, a.frames[0], b.frames[0])
}

func TestUnregisterStopsDelivery(t *testing.T) {
	d := newTestDispatcher()

	a := &fakeSender{}
	d.Register("conn-a", a)
	d.Unregister("conn-a")

	d.Unicast("conn-a", domain.Event{Type: domain.EventSystemToast, Payload: domain.ToastPayload{Message: "hi"}})
	assert.Empty(t, a.events(t))

	d.Close("conn-a", 1000, "bye")
	closed, _ := a.isClosed()
	assert.False(t, closed)
}

func TestEnvelopeRoundTrip(t *testing.T) {
	data, err := json.Marshal(domain.Event{Type: domain.EventPollUpdate, Payload: nil})
	require.NoError(t, err)

	var env domain.Envelope
	require.NoError(t, json.Unmarshal(data, &env))
	assert.Equal(t, domain.EventPollUpdate, env.Type)
	assert.Equal(t, "null", string(env.Payload))
}
