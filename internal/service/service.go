package service

import (
	"encoding/json"

	"github.com/immxrtalbeast/watchparty/internal/domain"
)

// RoomInteractor is everything the transport layer needs from the room
// engine. One call handles one inbound event to completion.
type RoomInteractor interface {
	HandleJoin(conn domain.ConnID, p domain.JoinPayload) error
	HandleEvent(conn domain.ConnID, eventType string, payload json.RawMessage) error
	HandleDisconnect(conn domain.ConnID)
}
