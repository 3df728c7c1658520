package domain

// ChatEntry is either a system notice (System true, only Text set) or a user
// message.
type ChatEntry struct {
	System   bool   `json:"system,omitempty"`
	UserID   string `json:"userId,omitempty"`
	Username string `json:"username,omitempty"`
	Text     string `json:"text"`
	IsHost   bool   `json:"isHost,omitempty"`
}

func SystemNotice(text string) ChatEntry {
	return ChatEntry{System: true, Text: text}
}

func UserMessage(c *Client, text string, isHost bool) ChatEntry {
	return ChatEntry{
		UserID:   c.ID,
		Username: c.Username,
		Text:     text,
		IsHost:   isHost,
	}
}
