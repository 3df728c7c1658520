package http

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/immxrtalbeast/watchparty/internal/config"
	"github.com/immxrtalbeast/watchparty/internal/domain"
	"github.com/immxrtalbeast/watchparty/internal/service"
	"github.com/immxrtalbeast/watchparty/lib/logger/sl"
)

const (
	writeWait      = 10 * time.Second
	sendBufferSize = 32
)

var errSendBufferFull = errors.New("send buffer full")

type RoomController struct {
	rooms      service.RoomInteractor
	dispatcher *service.Dispatcher
	limits     config.LimitsConfig
	log        *slog.Logger
	upgrader   websocket.Upgrader
}

func NewRoomController(rooms service.RoomInteractor, dispatcher *service.Dispatcher, limits config.LimitsConfig, log *slog.Logger) *RoomController {
	if log == nil {
		log = slog.Default()
	}
	return &RoomController{
		rooms:      rooms,
		dispatcher: dispatcher,
		limits:     limits,
		log:        log,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				return true
			},
		},
	}
}

// wsConn adapts one gorilla connection to the dispatcher's Sender. Writes go
// through a buffered channel drained by a single writer goroutine; a full
// buffer drops the frame instead of blocking the room engine.
type wsConn struct {
	id     domain.ConnID
	socket *websocket.Conn
	events chan []byte
	done   chan struct{}

	closeOnce   sync.Once
	closeCode   int
	closeReason string
}

func newWSConn(socket *websocket.Conn) *wsConn {
	return &wsConn{
		id:     domain.ConnID(uuid.NewString()),
		socket: socket,
		events: make(chan []byte, sendBufferSize),
		done:   make(chan struct{}),
	}
}

func (c *wsConn) Send(data []byte) error {
	select {
	case <-c.done:
		return net.ErrClosed
	default:
	}

	select {
	case c.events <- data:
		return nil
	default:
		return errSendBufferFull
	}
}

func (c *wsConn) Close(code int, reason string) {
	c.closeOnce.Do(func() {
		c.closeCode = code
		c.closeReason = reason
		close(c.done)
	})
}

func (c *wsConn) writeLoop() {
	defer c.socket.Close()

	for {
		select {
		case data := <-c.events:
			if err := c.socket.WriteMessage(websocket.TextMessage, data); err != nil {
				return
			}
		case <-c.done:
			c.flush()
			return
		}
	}
}

// flush drains frames queued before Close so notices reach the client, then
// writes the close frame.
func (c *wsConn) flush() {
	for {
		select {
		case data := <-c.events:
			if err := c.socket.WriteMessage(websocket.TextMessage, data); err != nil {
				return
			}
		default:
			msg := websocket.FormatCloseMessage(c.closeCode, c.closeReason)
			_ = c.socket.WriteControl(websocket.CloseMessage, msg, time.Now().Add(writeWait))
			return
		}
	}
}

// Serve upgrades the request and runs the connection's read loop until it
// drops. One malformed message never terminates the connection.
func (c *RoomController) Serve(ctx *gin.Context) {
	const op = "api.room.serve"

	socket, err := c.upgrader.Upgrade(ctx.Writer, ctx.Request, nil)
	if err != nil {
		c.log.Warn("failed to upgrade connection", slog.String("op", op), sl.Err(err))
		return
	}

	conn := newWSConn(socket)
	go conn.writeLoop()
	c.dispatcher.Register(conn.id, conn)

	defer func() {
		c.rooms.HandleDisconnect(conn.id)
		c.dispatcher.Unregister(conn.id)
		conn.Close(websocket.CloseNormalClosure, "")
	}()

	joined := false

	for {
		_, data, err := socket.ReadMessage()
		if err != nil {
			return
		}

		if len(data) > c.limits.MaxMessageBytes {
			c.sendError(conn, "Message too large.", false)
			continue
		}

		var env domain.Envelope
		if err := json.Unmarshal(data, &env); err != nil {
			c.log.Warn("malformed message, ignoring", slog.String("op", op), sl.Err(err))
			continue
		}

		if env.Type == domain.EventJoinRoom {
			if c.handleJoin(conn, env.Payload) {
				joined = true
			}
			continue
		}

		if !joined {
			c.log.Warn("event before join, ignoring",
				slog.String("op", op),
				slog.String("type", env.Type),
			)
			continue
		}

		if err := c.rooms.HandleEvent(conn.id, env.Type, env.Payload); err != nil {
			c.handleEventError(env.Type, err)
		}
	}
}

func (c *RoomController) handleJoin(conn *wsConn, payload json.RawMessage) bool {
	var p domain.JoinPayload
	if err := json.Unmarshal(payload, &p); err != nil {
		c.log.Warn("malformed join payload, ignoring", sl.Err(err))
		return false
	}

	if err := c.rooms.HandleJoin(conn.id, p); err != nil {
		c.sendJoinError(conn, err, p.Rejoin)
		return false
	}
	return true
}

func (c *RoomController) sendJoinError(conn *wsConn, err error, rejoin bool) {
	switch {
	case errors.Is(err, service.ErrInvalidUsername):
		c.sendError(conn, "Invalid username.", false)
	case errors.Is(err, service.ErrRoomNotFound):
		c.sendError(conn, "Room ID not found.", false)
	case errors.Is(err, service.ErrSessionExpired):
		c.sendError(conn, "Session not found, please join again.", true)
	case errors.Is(err, service.ErrRoomFull):
		c.sendError(conn, "Room is full.", false)
	case errors.Is(err, service.ErrBadPassword):
		c.sendError(conn, "Wrong password.", false)
	default:
		c.log.Error("join failed", sl.Err(err))
		c.sendError(conn, "Failed to join room.", rejoin)
	}
}

// handleEventError maps outcome kinds to transport behavior. Unauthorized,
// rate-limited and missing-target outcomes are deliberately silent: the UI
// never offers those actions to clients that would trigger them.
func (c *RoomController) handleEventError(eventType string, err error) {
	switch {
	case errors.Is(err, service.ErrUnauthorized),
		errors.Is(err, service.ErrRateLimited),
		errors.Is(err, service.ErrNotFound):
		c.log.Debug("event dropped", slog.String("type", eventType), sl.Err(err))
	case errors.Is(err, service.ErrMalformedPayload):
		c.log.Warn("malformed payload, ignoring", slog.String("type", eventType))
	default:
		c.log.Error("event failed", slog.String("type", eventType), sl.Err(err))
	}
}

func (c *RoomController) sendError(conn *wsConn, message string, reconnect bool) {
	c.dispatcher.Unicast(conn.id, domain.Event{
		Type:    domain.EventError,
		Payload: domain.ErrorPayload{Message: message, Reconnect: reconnect},
	})
}
