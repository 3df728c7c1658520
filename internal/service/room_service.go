package service

import (
	"encoding/json"
	"errors"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/immxrtalbeast/watchparty/internal/config"
	"github.com/immxrtalbeast/watchparty/internal/domain"
	"github.com/immxrtalbeast/watchparty/internal/repository"
	"github.com/immxrtalbeast/watchparty/lib/logger/sl"
)

var (
	ErrInvalidUsername  = errors.New("invalid username")
	ErrRoomNotFound     = errors.New("room not found")
	ErrRoomFull         = errors.New("room is full")
	ErrBadPassword      = errors.New("wrong password")
	ErrSessionExpired   = errors.New("session expired")
	ErrUnauthorized     = errors.New("not allowed")
	ErrNotFound         = errors.New("target not found")
	ErrRateLimited      = errors.New("rate limited")
	ErrMalformedPayload = errors.New("malformed payload")
)

// websocket normal-closure status, kept as a plain constant so the core
// stays free of transport imports.
const closeNormal = 1000

const roomTokenLength = 8

// RoomService is the room lifecycle manager: membership, host authority and
// succession, reconnection grace periods, rate limiting, and dispatch of
// every room-scoped action.
//
// A single mutex serializes every entry point (inbound event, disconnect
// notification, timer fire), so each handler runs to completion before the
// next one starts and room state needs no locking of its own.
type RoomService struct {
	registry   repository.RoomRegistry
	dispatcher *Dispatcher
	scheduler  Scheduler
	cfg        *config.Config
	log        *slog.Logger
	now        func() time.Time

	mu         sync.Mutex
	roomByConn map[domain.ConnID]string
}

func NewRoomService(registry repository.RoomRegistry, dispatcher *Dispatcher, scheduler Scheduler, cfg *config.Config, log *slog.Logger) *RoomService {
	if log == nil {
		log = slog.Default()
	}
	return &RoomService{
		registry:   registry,
		dispatcher: dispatcher,
		scheduler:  scheduler,
		cfg:        cfg,
		log:        log,
		now:        time.Now,
		roomByConn: make(map[domain.ConnID]string),
	}
}

// HandleJoin covers the three shapes of the joinRoom event: room creation,
// a fresh join, and a rejoin after an abrupt disconnect.
func (s *RoomService) HandleJoin(conn domain.ConnID, p domain.JoinPayload) error {
	const op = "service.room.join"

	s.mu.Lock()
	defer s.mu.Unlock()

	log := s.log.With(slog.String("op", op))

	if _, ok := s.roomByConn[conn]; ok {
		log.Warn("join from a connection that is already in a room, ignoring")
		return nil
	}

	username := truncate(strings.TrimSpace(p.Username), s.cfg.Limits.MaxUsername)
	password := truncate(p.Password, s.cfg.Limits.MaxPassword)
	if username == "" {
		return ErrInvalidUsername
	}

	var (
		room   *domain.Room
		client *domain.Client
	)

	if p.Create {
		room = s.createRoom(password)
		client = domain.NewClient(conn, username)
		client.IsHost = true
		room.AddClient(client)
		room.HostConn = conn
	} else {
		roomID := truncate(p.RoomID, s.cfg.Limits.MaxRoomID)

		var ok bool
		room, ok = s.registry.Get(roomID)
		if !ok {
			if p.Rejoin {
				return ErrSessionExpired
			}
			return ErrRoomNotFound
		}

		if room.Size() >= s.cfg.Room.Capacity && !p.Rejoin {
			return ErrRoomFull
		}
		if room.Password != "" && room.Password != password {
			return ErrBadPassword
		}

		if p.Rejoin && p.UserID != "" {
			client = s.rejoin(room, conn, p.UserID, username)
		} else {
			client = domain.NewClient(conn, username)
			room.AddClient(client)
		}
	}

	s.roomByConn[conn] = room.ID

	role := domain.RoleViewer
	if client.IsHost {
		role = domain.RoleHost
	}

	s.dispatcher.Unicast(conn, domain.Event{Type: domain.EventJoinedRoom, Payload: domain.JoinedRoomPayload{RoomID: room.ID}})
	s.dispatcher.Unicast(conn, domain.Event{Type: domain.EventAssignIdentity, Payload: domain.IdentityPayload{UserID: client.ID, Role: role}})
	s.dispatcher.Unicast(conn, domain.Event{Type: domain.EventChatHistory, Payload: room.History()})
	s.dispatcher.Unicast(conn, domain.Event{Type: domain.EventRoomState, Payload: roomState(room)})

	if !p.Rejoin {
		notice := domain.SystemNotice(username + " joined the room.")
		room.AppendHistory(notice)
		s.dispatcher.Broadcast(room, chatEvent(notice), conn)
	}
	s.broadcastUsers(room)

	log.Info("client joined",
		slog.String("room_id", room.ID),
		slog.String("user_id", client.ID),
		slog.String("role", role),
		slog.Bool("rejoin", p.Rejoin),
	)
	return nil
}

// rejoin cancels a pending grace timer and transplants the surviving
// identity onto the new connection. When the identity is already gone the
// caller is treated as a fresh, non-host member.
func (s *RoomService) rejoin(room *domain.Room, conn domain.ConnID, userID, username string) *domain.Client {
	room.CancelDisconnectTimer(userID)

	existing := room.ClientByUserID(userID)
	if existing == nil {
		c := domain.NewClient(conn, username)
		room.AddClient(c)
		return c
	}

	oldConn := existing.Conn
	room.Rebind(oldConn, conn)
	existing.LastAction = time.Time{}
	if room.HostConn == oldConn {
		room.HostConn = conn
	}
	delete(s.roomByConn, oldConn)

	return existing
}

// HandleEvent dispatches one post-join event from conn. Errors returned here
// are outcome kinds; the transport decides which ones become user-visible.
func (s *RoomService) HandleEvent(conn domain.ConnID, eventType string, payload json.RawMessage) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	room, client := s.lookup(conn)
	if room == nil || client == nil {
		return nil
	}

	if s.limited(eventType, client) {
		return ErrRateLimited
	}

	isHost := room.HostConn == conn

	switch eventType {
	case domain.EventLeaveRoom:
		s.leave(room, conn, client, isHost)
		return nil

	case domain.EventUpdatePlaylist:
		var p domain.PlaylistActionPayload
		if err := json.Unmarshal(payload, &p); err != nil {
			return ErrMalformedPayload
		}
		return s.updatePlaylist(room, isHost, p)

	case domain.EventSync:
		var p domain.SyncPayload
		if err := json.Unmarshal(payload, &p); err != nil {
			return ErrMalformedPayload
		}
		if !isHost {
			return ErrUnauthorized
		}
		if room.VideoState == nil || p.Time == nil {
			return nil
		}
		room.VideoState.Time = *p.Time
		s.dispatcher.Broadcast(room, domain.Event{Type: domain.EventSync, Payload: p}, conn)
		return nil

	case domain.EventRequestSync:
		if isHost {
			return ErrUnauthorized
		}
		if room.VideoState == nil {
			return nil
		}
		s.dispatcher.Unicast(conn, domain.Event{Type: domain.EventLoadVideo, Payload: room.VideoState})
		s.dispatcher.Unicast(conn, domain.Event{Type: domain.EventSystemToast, Payload: domain.ToastPayload{Message: "Video synced with the host."}})
		return nil

	case domain.EventChatMessage:
		var p domain.ChatPayload
		if err := json.Unmarshal(payload, &p); err != nil {
			return ErrMalformedPayload
		}
		text := truncate(p.Text, s.cfg.Limits.MaxChatMessage)
		if text == "" {
			return nil
		}
		entry := domain.UserMessage(client, text, isHost)
		room.AppendHistory(entry)
		s.dispatcher.Broadcast(room, chatEvent(entry), "")
		return nil

	case domain.EventHostAnnouncement:
		var p domain.AnnouncementPayload
		if err := json.Unmarshal(payload, &p); err != nil {
			return ErrMalformedPayload
		}
		if !isHost {
			return ErrUnauthorized
		}
		text := truncate(p.Text, s.cfg.Limits.MaxSuperchat)
		gifURL := truncate(p.GifURL, s.cfg.Limits.MaxURL)
		if text == "" && gifURL == "" {
			return nil
		}
		s.dispatcher.Broadcast(room, domain.Event{
			Type:    domain.EventHostAnnouncement,
			Payload: domain.AnnouncementEventPayload{Username: client.Username, Text: text, GifURL: gifURL},
		}, "")
		return nil

	case domain.EventStartTyping:
		room.SetTyping(client.ID, client.Username)
		s.broadcastTyping(room)
		return nil

	case domain.EventStopTyping:
		room.ClearTyping(client.ID)
		s.broadcastTyping(room)
		return nil

	case domain.EventEmojiReaction:
		var p domain.ReactionPayload
		if err := json.Unmarshal(payload, &p); err != nil {
			return ErrMalformedPayload
		}
		s.dispatcher.Broadcast(room, domain.Event{Type: domain.EventShowReaction, Payload: domain.ReactionEventPayload{Emoji: p.Emoji}}, "")
		return nil

	case domain.EventDelegateHost:
		var p domain.TargetPayload
		if err := json.Unmarshal(payload, &p); err != nil {
			return ErrMalformedPayload
		}
		if !isHost {
			return ErrUnauthorized
		}
		return s.delegateHost(room, client, p.TargetUserID)

	case domain.EventCreatePoll:
		var p domain.CreatePollPayload
		if err := json.Unmarshal(payload, &p); err != nil {
			return ErrMalformedPayload
		}
		if !isHost {
			return ErrUnauthorized
		}
		return s.createPoll(room, p)

	case domain.EventVote:
		var p domain.VotePayload
		if err := json.Unmarshal(payload, &p); err != nil {
			return ErrMalformedPayload
		}
		if room.ActivePoll == nil || p.OptionIndex == nil {
			return nil
		}
		if !room.ActivePoll.Vote(client.ID, *p.OptionIndex) {
			return nil
		}
		s.dispatcher.Broadcast(room, domain.Event{Type: domain.EventPollUpdate, Payload: room.ActivePoll}, "")
		return nil

	case domain.EventEndPoll:
		if !isHost {
			return ErrUnauthorized
		}
		room.ActivePoll = nil
		s.dispatcher.Broadcast(room, domain.Event{Type: domain.EventPollUpdate, Payload: nil}, "")
		return nil

	case domain.EventKickUser:
		var p domain.TargetPayload
		if err := json.Unmarshal(payload, &p); err != nil {
			return ErrMalformedPayload
		}
		if !isHost {
			return ErrUnauthorized
		}
		return s.kick(room, client, p.TargetUserID)

	case domain.EventWebRTCOffer, domain.EventWebRTCAnswer, domain.EventWebRTCCandidate:
		var p domain.SignalPayload
		if err := json.Unmarshal(payload, &p); err != nil {
			return ErrMalformedPayload
		}
		s.relay(room, client, eventType, p)
		return nil

	default:
		s.log.Warn("unsupported event type, ignoring", slog.String("type", eventType))
		return nil
	}
}

// HandleDisconnect reacts to an abrupt connection loss: the member is kept
// in the room and a grace timer is armed so a rejoin can resume the same
// identity.
func (s *RoomService) HandleDisconnect(conn domain.ConnID) {
	const op = "service.room.disconnect"

	s.mu.Lock()
	defer s.mu.Unlock()

	roomID, ok := s.roomByConn[conn]
	delete(s.roomByConn, conn)
	if !ok {
		return
	}

	room, ok := s.registry.Get(roomID)
	if !ok {
		return
	}
	client := room.ClientByConn(conn)
	if client == nil {
		return
	}

	s.dispatcher.Broadcast(room, domain.Event{Type: domain.EventUserLeftWebRTC, Payload: domain.UserLeftPayload{UserID: client.ID}}, conn)

	if room.ClearTyping(client.ID) {
		s.broadcastTyping(room)
	}

	userID := client.ID
	cancel := s.scheduler.Schedule(s.cfg.Room.ReconnectGrace(), func() {
		s.expireDisconnect(roomID, userID, conn)
	})
	room.SetDisconnectTimer(userID, cancel)

	s.log.Info("grace period armed",
		slog.String("op", op),
		slog.String("room_id", roomID),
		slog.String("user_id", userID),
	)
}

// expireDisconnect fires when the grace period elapses. The room and the
// membership are re-validated: both may have changed while the timer was
// pending.
func (s *RoomService) expireDisconnect(roomID, userID string, conn domain.ConnID) {
	s.mu.Lock()
	defer s.mu.Unlock()

	room, ok := s.registry.Get(roomID)
	if !ok {
		return
	}
	room.DropDisconnectTimer(userID)

	// A rejoin can land while this fire was already in flight; the identity
	// then lives on a new connection and must not be evicted.
	if c := room.ClientByUserID(userID); c != nil && c.Conn != conn {
		return
	}

	client := room.RemoveConn(conn)
	if client == nil {
		return
	}

	if room.Size() == 0 {
		s.registry.Delete(room.ID)
		s.log.Info("room deleted", slog.String("room_id", room.ID))
		return
	}

	var notice domain.ChatEntry
	if room.HostConn == conn {
		newHost := s.electHost(room)
		notice = domain.SystemNotice(client.Username + " (host) left the room. " + newHost + " is the new host.")
	} else {
		notice = domain.SystemNotice(client.Username + " left the room.")
	}
	room.AppendHistory(notice)
	s.dispatcher.Broadcast(room, chatEvent(notice), "")
	s.broadcastUsers(room)
}

func (s *RoomService) leave(room *domain.Room, conn domain.ConnID, client *domain.Client, isHost bool) {
	room.RemoveConn(conn)
	delete(s.roomByConn, conn)

	var notice domain.ChatEntry
	if isHost {
		if newHost := s.electHost(room); newHost != "" {
			notice = domain.SystemNotice(client.Username + " (host) left the room. " + newHost + " is the new host.")
		} else {
			notice = domain.SystemNotice(client.Username + " (host) left the room.")
		}
	} else {
		notice = domain.SystemNotice(client.Username + " left the room.")
	}

	if room.Size() == 0 {
		s.registry.Delete(room.ID)
		s.log.Info("room deleted", slog.String("room_id", room.ID))
	} else {
		room.AppendHistory(notice)
		s.dispatcher.Broadcast(room, chatEvent(notice), "")
		s.broadcastUsers(room)
	}

	s.dispatcher.Close(conn, closeNormal, "user left voluntarily")
}

func (s *RoomService) kick(room *domain.Room, host *domain.Client, targetID string) error {
	if targetID == "" || targetID == host.ID {
		return nil
	}

	target := room.ClientByUserID(targetID)
	if target == nil {
		return ErrNotFound
	}

	conn := target.Conn
	s.dispatcher.Unicast(conn, domain.Event{Type: domain.EventKicked, Payload: domain.ToastPayload{Message: "You were removed from the room by the host."}})

	room.RemoveConn(conn)
	delete(s.roomByConn, conn)

	notice := domain.SystemNotice(target.Username + " was removed by the host.")
	room.AppendHistory(notice)
	s.dispatcher.Broadcast(room, chatEvent(notice), "")
	s.broadcastUsers(room)

	// delayed close so the kicked notice can flush first
	s.scheduler.Schedule(s.cfg.Room.KickCloseDelay(), func() {
		s.dispatcher.Close(conn, closeNormal, "kicked by host")
	})

	s.log.Info("client kicked",
		slog.String("room_id", room.ID),
		slog.String("user_id", targetID),
		slog.String("by", host.ID),
	)
	return nil
}

func (s *RoomService) delegateHost(room *domain.Room, host *domain.Client, targetID string) error {
	target := room.ClientByUserID(targetID)
	if target == nil {
		return ErrNotFound
	}

	host.IsHost = false
	target.IsHost = true
	room.HostConn = target.Conn

	s.dispatcher.Unicast(host.Conn, domain.Event{Type: domain.EventRoleAssign, Payload: domain.RolePayload{Role: domain.RoleViewer, Users: room.Users()}})
	s.dispatcher.Unicast(target.Conn, domain.Event{Type: domain.EventRoleAssign, Payload: domain.RolePayload{Role: domain.RoleHost, Users: room.Users()}})

	notice := domain.SystemNotice(host.Username + " made " + target.Username + " the new host.")
	room.AppendHistory(notice)
	s.dispatcher.Broadcast(room, chatEvent(notice), "")
	s.broadcastUsers(room)
	return nil
}

func (s *RoomService) updatePlaylist(room *domain.Room, isHost bool, p domain.PlaylistActionPayload) error {
	if !isHost {
		return ErrUnauthorized
	}

	switch p.Action {
	case "add":
		if p.URL != "" {
			url := truncate(p.URL, s.cfg.Limits.MaxURL)
			room.Playlist = append(room.Playlist, &domain.PlaylistItem{URL: url})
		}
	case "remove":
		if p.Index != nil && *p.Index >= 0 && *p.Index < len(room.Playlist) {
			i := *p.Index
			room.Playlist = append(room.Playlist[:i], room.Playlist[i+1:]...)
		}
	case "play":
		if p.Index != nil && *p.Index >= 0 && *p.Index < len(room.Playlist) {
			item := room.Playlist[*p.Index]
			for _, it := range room.Playlist {
				it.IsPlaying = false
			}
			item.IsPlaying = true
			room.VideoState = domain.ClassifyVideo(item.URL)
			// classification is server-authoritative, so the host gets it too
			s.dispatcher.Broadcast(room, domain.Event{Type: domain.EventLoadVideo, Payload: room.VideoState}, "")
		}
	}

	s.dispatcher.Broadcast(room, domain.Event{Type: domain.EventUpdatePlaylist, Payload: room.Playlist}, "")
	return nil
}

func (s *RoomService) createPoll(room *domain.Room, p domain.CreatePollPayload) error {
	if room.ActivePoll != nil {
		return nil
	}

	question := truncate(strings.TrimSpace(p.Question), s.cfg.Limits.MaxPollQuestion)

	options := make([]string, 0, len(p.Options))
	for _, opt := range p.Options {
		opt = strings.TrimSpace(opt)
		if opt == "" {
			continue
		}
		options = append(options, truncate(opt, s.cfg.Limits.MaxPollOption))
		if len(options) == s.cfg.Limits.MaxPollOptions {
			break
		}
	}

	if question == "" || len(options) < 2 {
		return nil
	}

	room.ActivePoll = domain.NewPoll(question, options)
	s.dispatcher.Broadcast(room, domain.Event{Type: domain.EventPollUpdate, Payload: room.ActivePoll}, "")
	return nil
}

// relay forwards an opaque negotiation payload to exactly one member.
// Fire-and-forget: a missing or unknown target is dropped without a reply.
func (s *RoomService) relay(room *domain.Room, from *domain.Client, eventType string, p domain.SignalPayload) {
	if p.TargetUserID == "" {
		s.log.Warn("signal without target, dropping",
			slog.String("type", eventType),
			slog.String("from", from.ID),
		)
		return
	}

	target := room.ClientByUserID(p.TargetUserID)
	if target == nil {
		s.log.Warn("signal target not in room, dropping",
			slog.String("type", eventType),
			slog.String("target", p.TargetUserID),
			slog.String("room_id", room.ID),
		)
		return
	}

	p.FromUserID = from.ID
	s.dispatcher.Unicast(target.Conn, domain.Event{Type: eventType, Payload: p})
}

// electHost promotes the earliest-joined remaining member and returns its
// username, or "" when the room is empty.
func (s *RoomService) electHost(room *domain.Room) string {
	next := room.First()
	if next == nil {
		room.HostConn = ""
		return ""
	}

	next.IsHost = true
	room.HostConn = next.Conn
	s.dispatcher.Unicast(next.Conn, domain.Event{Type: domain.EventRoleAssign, Payload: domain.RolePayload{Role: domain.RoleHost, Users: room.Users()}})
	return next.Username
}

// limited applies the per-identity action gate. Typing and signaling events
// are exempt; everything else shares one timestamp, so a burst inside the
// window is silently debounced.
func (s *RoomService) limited(eventType string, c *domain.Client) bool {
	if eventType == domain.EventStartTyping || eventType == domain.EventStopTyping || strings.HasPrefix(eventType, "webrtc") {
		return false
	}

	limit := s.cfg.Room.ActionRateLimit()
	if eventType == domain.EventChatMessage {
		limit = s.cfg.Room.ChatRateLimit()
	}

	now := s.now()
	if now.Sub(c.LastAction) < limit {
		return true
	}
	c.LastAction = now
	return false
}

func (s *RoomService) createRoom(password string) *domain.Room {
	for {
		token := newRoomToken()
		room := domain.NewRoom(token, password, s.cfg.Room.HistoryLimit)
		if err := s.registry.Create(room); err != nil {
			if errors.Is(err, repository.ErrRoomTokenExists) {
				continue
			}
			s.log.Error("failed to register room", sl.Err(err))
			continue
		}
		s.log.Info("room created", slog.String("room_id", token))
		return room
	}
}

func (s *RoomService) lookup(conn domain.ConnID) (*domain.Room, *domain.Client) {
	roomID, ok := s.roomByConn[conn]
	if !ok {
		return nil, nil
	}
	room, ok := s.registry.Get(roomID)
	if !ok {
		return nil, nil
	}
	return room, room.ClientByConn(conn)
}

func (s *RoomService) broadcastUsers(room *domain.Room) {
	s.dispatcher.Broadcast(room, domain.Event{Type: domain.EventUpdateUsers, Payload: domain.UsersPayload{Users: room.Users()}}, "")
}

func (s *RoomService) broadcastTyping(room *domain.Room) {
	s.dispatcher.Broadcast(room, domain.Event{Type: domain.EventTypingUpdate, Payload: domain.TypingPayload{TypingUsers: room.TypingUsers()}}, "")
}

func roomState(room *domain.Room) domain.RoomStatePayload {
	return domain.RoomStatePayload{
		Users:      room.Users(),
		Playlist:   room.Playlist,
		VideoState: room.VideoState,
		ActivePoll: room.ActivePoll,
	}
}

func chatEvent(e domain.ChatEntry) domain.Event {
	return domain.Event{Type: domain.EventChatMessage, Payload: e}
}

func newRoomToken() string {
	raw := strings.ReplaceAll(uuid.NewString(), "-", "")
	return "room-" + raw[:roomTokenLength]
}

func truncate(s string, limit int) string {
	if limit <= 0 {
		return s
	}
	runes := []rune(s)
	if len(runes) <= limit {
		return s
	}
	return string(runes[:limit])
}
