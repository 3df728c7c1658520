package domain

import (
	"encoding/json"

	"github.com/pion/webrtc/v3"
)

// Inbound event types (client -> server).
const (
	EventJoinRoom         = "joinRoom"
	EventLeaveRoom        = "leaveRoom"
	EventUpdatePlaylist   = "updatePlaylist"
	EventSync             = "sync"
	EventRequestSync      = "requestSync"
	EventChatMessage      = "chatMessage"
	EventHostAnnouncement = "hostAnnouncement"
	EventStartTyping      = "startTyping"
	EventStopTyping       = "stopTyping"
	EventEmojiReaction    = "emojiReaction"
	EventDelegateHost     = "delegateHost"
	EventCreatePoll       = "createPoll"
	EventVote             = "vote"
	EventEndPoll          = "endPoll"
	EventKickUser         = "kickUser"
	EventWebRTCOffer      = "webrtc-offer"
	EventWebRTCAnswer     = "webrtc-answer"
	EventWebRTCCandidate  = "webrtc-candidate"
)

// Outbound event types (server -> client).
const (
	EventJoinedRoom     = "joinedRoom"
	EventAssignIdentity = "assignIdentity"
	EventChatHistory    = "chatHistory"
	EventRoomState      = "roomState"
	EventUpdateUsers    = "updateUsers"
	EventRoleAssign     = "roleAssign"
	EventLoadVideo      = "loadVideo"
	EventTypingUpdate   = "typingUpdate"
	EventShowReaction   = "showReaction"
	EventPollUpdate     = "pollUpdate"
	EventKicked         = "kicked"
	EventUserLeftWebRTC = "user-left-for-webrtc"
	EventSystemToast    = "systemToast"
	EventError          = "error"
)

const (
	RoleHost   = "host"
	RoleViewer = "viewer"
)

// Envelope is the raw inbound frame; the payload is decoded per event type.
type Envelope struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

// Event is an outbound frame carrying an already-typed payload.
type Event struct {
	Type    string `json:"type"`
	Payload any    `json:"payload"`
}

type JoinPayload struct {
	Username string `json:"username"`
	RoomID   string `json:"roomId"`
	Password string `json:"password"`
	Rejoin   bool   `json:"rejoin"`
	UserID   string `json:"userId"`
	Create   bool   `json:"create"`
}

type PlaylistActionPayload struct {
	Action string `json:"action"`
	URL    string `json:"url"`
	Index  *int   `json:"index"`
}

type SyncPayload struct {
	Time *float64 `json:"time"`
}

type ChatPayload struct {
	Text string `json:"text"`
}

type AnnouncementPayload struct {
	Text   string `json:"text"`
	GifURL string `json:"gifUrl"`
}

type ReactionPayload struct {
	Emoji string `json:"emoji"`
}

type TargetPayload struct {
	TargetUserID string `json:"targetUserId"`
}

type CreatePollPayload struct {
	Question string   `json:"question"`
	Options  []string `json:"options"`
}

type VotePayload struct {
	OptionIndex *int `json:"optionIndex"`
}

// SignalPayload carries peer negotiation data. The sdp and candidate fields
// are relayed verbatim, never inspected.
type SignalPayload struct {
	TargetUserID string                     `json:"targetUserId"`
	FromUserID   string                     `json:"fromUserId,omitempty"`
	SDP          *webrtc.SessionDescription `json:"sdp,omitempty"`
	Candidate    *webrtc.ICECandidateInit   `json:"candidate,omitempty"`
	Payload      map[string]any             `json:"payload,omitempty"`
}

type JoinedRoomPayload struct {
	RoomID string `json:"roomId"`
}

type IdentityPayload struct {
	UserID string `json:"userId"`
	Role   string `json:"role"`
}

type RoomStatePayload struct {
	Users      []*Client       `json:"users"`
	Playlist   []*PlaylistItem `json:"playlist"`
	VideoState *VideoState     `json:"videoState"`
	ActivePoll *Poll           `json:"activePoll"`
}

type UsersPayload struct {
	Users []*Client `json:"users"`
}

type RolePayload struct {
	Role  string    `json:"role"`
	Users []*Client `json:"users"`
}

type TypingPayload struct {
	TypingUsers []TypingUser `json:"typingUsers"`
}

type ReactionEventPayload struct {
	Emoji string `json:"emoji"`
}

type AnnouncementEventPayload struct {
	Username string `json:"username"`
	Text     string `json:"text"`
	GifURL   string `json:"gifUrl"`
}

type UserLeftPayload struct {
	UserID string `json:"userId"`
}

type ToastPayload struct {
	Message string `json:"message"`
}

type ErrorPayload struct {
	Message   string `json:"message"`
	Reconnect bool   `json:"reconnect,omitempty"`
}
