package conversation

import "strings"

// ImagePlaceholder marks where one sampled frame is spliced into the prompt.
const ImagePlaceholder = "<image>"

type Template struct {
	Name   string         `json:"name"`
	System string         `json:"system"`
	Roles  [2]string      `json:"roles"`
	Style  SeparatorStyle `json:"sep_style"`
	Sep    string         `json:"sep"`
	Sep2   string         `json:"sep2,omitempty"`
}

// StopString is the terminator the model emits at the end of its turn.
func (t Template) StopString() string {
	if t.Style == SeparatorTwo {
		return t.Sep2
	}
	return t.Sep
}

func (t Template) Validate() error {
	if t.Name == "" {
		return ErrInvalidTemplate
	}
	if !t.Style.Valid() {
		return ErrUnknownStyle
	}
	if (t.Style == SeparatorTwo || t.Style == SeparatorLlama2) && t.Sep2 == "" {
		return ErrInvalidTemplate
	}
	return nil
}

type Turn struct {
	Role    string  `json:"role"`
	Message *string `json:"message"`
}

func (t Turn) Text() string {
	if t.Message == nil {
		return ""
	}
	return *t.Message
}

type Conversation struct {
	Template Template `json:"template"`
	Turns    []Turn   `json:"turns"`
}

func New(t Template) *Conversation {
	return &Conversation{Template: t}
}

func (c *Conversation) UserRole() string      { return c.Template.Roles[0] }
func (c *Conversation) AssistantRole() string { return c.Template.Roles[1] }

func (c *Conversation) StopString() string {
	return c.Template.StopString()
}

func (c *Conversation) AppendMessage(role string, message *string) {
	c.Turns = append(c.Turns, Turn{Role: role, Message: message})
}

// AppendTurn adds the user query and an unresolved assistant turn.
func (c *Conversation) AppendTurn(query string) error {
	if c.Pending() {
		return ErrTurnPending
	}
	c.AppendMessage(c.UserRole(), &query)
	c.AppendMessage(c.AssistantRole(), nil)
	return nil
}

func (c *Conversation) Pending() bool {
	n := len(c.Turns)
	return n > 0 && n%2 == 0 && c.Turns[n-1].Message == nil
}

func (c *Conversation) Commit(reply string) error {
	if !c.Pending() {
		return ErrNoPendingTurn
	}
	c.Turns[len(c.Turns)-1].Message = &reply
	return nil
}

func (c *Conversation) Rollback() error {
	if !c.Pending() {
		return ErrNoPendingTurn
	}
	c.Turns = c.Turns[:len(c.Turns)-2]
	return nil
}

func (c *Conversation) Reset() {
	c.Turns = nil
}

// PendingQuery returns the user text of the unresolved exchange.
func (c *Conversation) PendingQuery() (string, bool) {
	if !c.Pending() {
		return "", false
	}
	return c.Turns[len(c.Turns)-2].Text(), true
}

func (c *Conversation) Clone() *Conversation {
	out := &Conversation{Template: c.Template, Turns: make([]Turn, len(c.Turns))}
	for i, t := range c.Turns {
		out.Turns[i].Role = t.Role
		if t.Message != nil {
			msg := *t.Message
			out.Turns[i].Message = &msg
		}
	}
	return out
}

func (c *Conversation) Exchanges() int {
	return len(c.Turns) / 2
}

func CountPlaceholders(s string) int {
	return strings.Count(s, ImagePlaceholder)
}
