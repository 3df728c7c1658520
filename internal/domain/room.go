package domain

import "sort"

// Room groups a bounded set of connections sharing playlist, video, poll and
// chat state. Membership keeps join order: host succession always promotes
// the longest-standing remaining member.
//
// Room performs no locking of its own; the lifecycle manager serializes all
// access.
type Room struct {
	ID       string
	Password string

	// HostConn names the connection holding host authority. It always
	// references a present member except transiently during succession.
	HostConn ConnID

	Playlist   []*PlaylistItem
	VideoState *VideoState
	ActivePoll *Poll

	clients []*Client
	byConn  map[ConnID]*Client

	typing map[string]TypingUser

	history      []ChatEntry
	historyLimit int

	disconnects map[string]func()
}

func NewRoom(id, password string, historyLimit int) *Room {
	return &Room{
		ID:           id,
		Password:     password,
		Playlist:     make([]*PlaylistItem, 0),
		byConn:       make(map[ConnID]*Client),
		typing:       make(map[string]TypingUser),
		history:      make([]ChatEntry, 0, historyLimit),
		historyLimit: historyLimit,
		disconnects:  make(map[string]func()),
	}
}

func (r *Room) AddClient(c *Client) {
	r.clients = append(r.clients, c)
	r.byConn[c.Conn] = c
}

// RemoveConn deletes the member bound to conn, preserving the join order of
// the rest. Returns the removed client, or nil when conn is not a member.
func (r *Room) RemoveConn(conn ConnID) *Client {
	c, ok := r.byConn[conn]
	if !ok {
		return nil
	}

	delete(r.byConn, conn)
	for i, cur := range r.clients {
		if cur == c {
			r.clients = append(r.clients[:i], r.clients[i+1:]...)
			break
		}
	}

	return c
}

func (r *Room) ClientByConn(conn ConnID) *Client {
	return r.byConn[conn]
}

func (r *Room) ClientByUserID(id string) *Client {
	for _, c := range r.clients {
		if c.ID == id {
			return c
		}
	}
	return nil
}

// Rebind transplants the identity on old to a new connection token, keeping
// its place in the join order.
func (r *Room) Rebind(old, replacement ConnID) *Client {
	c, ok := r.byConn[old]
	if !ok {
		return nil
	}

	delete(r.byConn, old)
	c.Conn = replacement
	r.byConn[replacement] = c

	return c
}

// First returns the earliest-joined remaining member.
func (r *Room) First() *Client {
	if len(r.clients) == 0 {
		return nil
	}
	return r.clients[0]
}

func (r *Room) Size() int {
	return len(r.clients)
}

// Users returns the membership snapshot in join order.
func (r *Room) Users() []*Client {
	out := make([]*Client, 0, len(r.clients))
	out = append(out, r.clients...)
	return out
}

func (r *Room) AppendHistory(e ChatEntry) {
	r.history = append(r.history, e)
	if r.historyLimit > 0 && len(r.history) > r.historyLimit {
		r.history = r.history[1:]
	}
}

func (r *Room) History() []ChatEntry {
	out := make([]ChatEntry, len(r.history))
	copy(out, r.history)
	return out
}

func (r *Room) SetTyping(userID, username string) {
	r.typing[userID] = TypingUser{UserID: userID, Username: username}
}

func (r *Room) ClearTyping(userID string) bool {
	if _, ok := r.typing[userID]; !ok {
		return false
	}
	delete(r.typing, userID)
	return true
}

func (r *Room) TypingUsers() []TypingUser {
	out := make([]TypingUser, 0, len(r.typing))
	for _, u := range r.typing {
		out = append(out, u)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].UserID < out[j].UserID })
	return out
}

func (r *Room) SetDisconnectTimer(userID string, cancel func()) {
	r.disconnects[userID] = cancel
}

// CancelDisconnectTimer cancels and forgets a pending grace timer. Reports
// whether one was armed.
func (r *Room) CancelDisconnectTimer(userID string) bool {
	cancel, ok := r.disconnects[userID]
	if !ok {
		return false
	}
	delete(r.disconnects, userID)
	cancel()
	return true
}

// DropDisconnectTimer forgets a timer that already fired.
func (r *Room) DropDisconnectTimer(userID string) {
	delete(r.disconnects, userID)
}

func (r *Room) PendingDisconnects() int {
	return len(r.disconnects)
}
