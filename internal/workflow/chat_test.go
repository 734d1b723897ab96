package workflow

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/blackbox/internal/domain"
	"github.com/roach88/blackbox/internal/insight"
)

func TestChatSendRecordsBothTurns(t *testing.T) {
	fake := &insight.Fake{ChatText: "Have a sober sitter."}
	c := NewChat(insight.NewAdvisor(fake))

	reply, err := c.Send(context.Background(), "  First time, any tips?  ")
	require.NoError(t, err)
	assert.Equal(t, "Have a sober sitter.", reply)

	assert.Equal(t, []insight.Message{
		{Role: insight.RoleModel, Text: insight.ChatGreeting},
		{Role: insight.RoleUser, Text: "First time, any tips?"},
		{Role: insight.RoleModel, Text: "Have a sober sitter."},
	}, c.Messages())

	_, err = c.Send(context.Background(), "And the dose?")
	require.NoError(t, err)
	require.Len(t, fake.LastChat, 4, "earlier turns are sent as history")
	assert.Equal(t, "And the dose?", fake.LastChat[3].Text)
}

func TestChatRejectsBlankText(t *testing.T) {
	fake := &insight.Fake{ChatText: "never"}
	c := NewChat(insight.NewAdvisor(fake))

	_, err := c.Send(context.Background(), " \t ")
	require.Error(t, err)
	assert.True(t, domain.IsValidation(err))
	assert.Zero(t, fake.ChatCalls)
	assert.Len(t, c.Messages(), 1)
}

func TestChatFailureIsRecordedAsReply(t *testing.T) {
	c := NewChat(insight.NewAdvisor(&insight.Fake{Err: errors.New("down")}))

	reply, err := c.Send(context.Background(), "hello")
	require.NoError(t, err)
	assert.Equal(t, insight.ChatUnavailable, reply)
	assert.Equal(t, insight.ChatUnavailable, c.Messages()[2].Text)
}

func TestChatClear(t *testing.T) {
	c := NewChat(insight.NewAdvisor(&insight.Fake{ChatText: "ok"}))
	_, err := c.Send(context.Background(), "hello")
	require.NoError(t, err)

	c.Clear()
	assert.Equal(t, []insight.Message{{Role: insight.RoleModel, Text: insight.ChatCleared}}, c.Messages())
}

func TestChatMessagesIsACopy(t *testing.T) {
	c := NewChat(nil)
	m := c.Messages()
	m[0].Text = "changed"
	assert.Equal(t, insight.ChatGreeting, c.Messages()[0].Text)
}
