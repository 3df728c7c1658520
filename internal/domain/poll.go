package domain

type PollOption struct {
	Text  string `json:"text"`
	Votes int    `json:"votes"`
}

// Poll is the single active poll of a room. Voters holds the userIds that
// already voted; one vote per identity.
type Poll struct {
	Question string          `json:"question"`
	Options  []PollOption    `json:"options"`
	Voters   map[string]bool `json:"voters"`
}

func NewPoll(question string, options []string) *Poll {
	opts := make([]PollOption, 0, len(options))
	for _, text := range options {
		opts = append(opts, PollOption{Text: text})
	}
	return &Poll{
		Question: question,
		Options:  opts,
		Voters:   make(map[string]bool),
	}
}

// Vote records one vote for option by userID. Reports false without any
// state change when the voter already voted or the index is out of bounds.
func (p *Poll) Vote(userID string, option int) bool {
	if p.Voters[userID] {
		return false
	}
	if option < 0 || option >= len(p.Options) {
		return false
	}

	p.Options[option].Votes++
	p.Voters[userID] = true
	return true
}
