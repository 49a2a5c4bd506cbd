package conversation

import "strings"

const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Message is a turn with the template role names replaced by
// chat-completion roles.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

func (c *Conversation) Messages() []Message {
	out := make([]Message, 0, len(c.Turns))
	for i, t := range c.Turns {
		if t.Message == nil {
			continue
		}
		role := RoleUser
		if i%2 == 1 {
			role = RoleAssistant
		}
		out = append(out, Message{Role: role, Content: *t.Message})
	}
	return out
}

// Prompt serializes the system prompt and every turn. A turn with no text
// leaves the speaker's role open for the model to complete.
func (c *Conversation) Prompt() (string, error) {
	t := c.Template
	var b strings.Builder

	switch t.Style {
	case SeparatorSingle:
		b.WriteString(t.System + t.Sep)
		for _, turn := range c.Turns {
			if msg := turn.Text(); msg != "" {
				b.WriteString(turn.Role + ": " + msg + t.Sep)
			} else {
				b.WriteString(turn.Role + ":")
			}
		}

	case SeparatorTwo:
		seps := [2]string{t.Sep, t.Sep2}
		b.WriteString(t.System + seps[0])
		for i, turn := range c.Turns {
			if msg := turn.Text(); msg != "" {
				b.WriteString(turn.Role + ": " + msg + seps[i%2])
			} else {
				b.WriteString(turn.Role + ":")
			}
		}

	case SeparatorMPT, SeparatorLlama3:
		b.WriteString(t.System + t.Sep)
		for _, turn := range c.Turns {
			if msg := turn.Text(); msg != "" {
				b.WriteString(turn.Role + msg + t.Sep)
			} else {
				b.WriteString(turn.Role)
			}
		}

	case SeparatorLlama2:
		if len(c.Turns) > 0 && c.Turns[0].Text() == "" {
			return "", ErrFirstTurnNotUser
		}
		for i, turn := range c.Turns {
			msg := turn.Text()
			if msg == "" {
				continue
			}
			if i == 0 {
				msg = wrapSystem(t.System) + msg
			}
			if i%2 == 0 {
				b.WriteString(t.Sep + "[INST] " + msg + " [/INST]")
			} else {
				b.WriteString(" " + msg + " " + t.Sep2)
			}
		}
		return strings.TrimLeft(b.String(), t.Sep), nil

	case SeparatorPlain:
		seps := [2]string{t.Sep, t.Sep2}
		b.WriteString(t.System)
		for i, turn := range c.Turns {
			if msg := turn.Text(); msg != "" {
				b.WriteString(msg + seps[i%2])
			}
		}

	default:
		return "", ErrUnknownStyle
	}

	return b.String(), nil
}

func wrapSystem(system string) string {
	if system == "" {
		return ""
	}
	return "<<SYS>>\n" + system + "\n<</SYS>>\n\n"
}
