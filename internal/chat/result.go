package chat

import "github.com/eleven-am/videochat/internal/conversation"

// Delta is the exchange a Generate call added to the conversation.
type Delta struct {
	Query  string `json:"query"`
	Reply  string `json:"reply"`
	Frames int    `json:"frames"`
}

type Result struct {
	Text  string
	State *conversation.Conversation
	Delta Delta
}

// Commit writes the reply into the pending assistant turn.
func (r Result) Commit() error {
	return r.State.Commit(r.Text)
}
