package workflow

import (
	"context"
	"strings"

	"github.com/roach88/blackbox/internal/domain"
	"github.com/roach88/blackbox/internal/insight"
)

// Chat is a harm-reduction conversation with the facilitator. The
// transcript lives in memory only and is never written to the journal.
type Chat struct {
	advisor  *insight.Advisor
	messages []insight.Message
}

// NewChat opens a conversation that starts with the facilitator's
// greeting. A nil advisor behaves as a disabled backend.
func NewChat(advisor *insight.Advisor) *Chat {
	if advisor == nil {
		advisor = insight.NewAdvisor(nil)
	}
	return &Chat{
		advisor:  advisor,
		messages: []insight.Message{{Role: insight.RoleModel, Text: insight.ChatGreeting}},
	}
}

// Send asks the facilitator about text and records both turns. Blank text
// is rejected and leaves the transcript untouched.
func (c *Chat) Send(ctx context.Context, text string) (string, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return "", domain.Validation("chat", "text", "message is empty")
	}
	reply := c.advisor.Chat(ctx, c.Messages(), text)
	c.messages = append(c.messages,
		insight.Message{Role: insight.RoleUser, Text: text},
		insight.Message{Role: insight.RoleModel, Text: reply},
	)
	return reply, nil
}

// Clear drops the conversation and starts over.
func (c *Chat) Clear() {
	c.messages = []insight.Message{{Role: insight.RoleModel, Text: insight.ChatCleared}}
}

// Messages returns a copy of the transcript.
func (c *Chat) Messages() []insight.Message {
	return append([]insight.Message(nil), c.messages...)
}
