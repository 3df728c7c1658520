package domain

import (
	"time"

	"github.com/google/uuid"
)

// ConnID is an opaque token naming one live connection. The transport layer
// owns the mapping from token to the actual socket; core state never holds
// a network handle.
type ConnID string

// Client is a per-room membership record. The ID survives reconnection
// within the grace period; the Conn token is rebound on rejoin.
type Client struct {
	ID       string `json:"id"`
	Username string `json:"username"`
	IsHost   bool   `json:"isHost"`

	Conn       ConnID    `json:"-"`
	LastAction time.Time `json:"-"`
}

func NewClient(conn ConnID, username string) *Client {
	return &Client{
		ID:       uuid.NewString(),
		Username: username,
		Conn:     conn,
	}
}

type TypingUser struct {
	UserID   string `json:"userId"`
	Username string `json:"username"`
}
