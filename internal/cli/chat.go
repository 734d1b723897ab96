package cli

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/roach88/blackbox/internal/insight"
	"github.com/roach88/blackbox/internal/workflow"
)

// ChatView is the output of `chat`. Reply is set for a single question.
type ChatView struct {
	Reply    string            `json:"reply,omitempty"`
	Messages []insight.Message `json:"messages"`
}

// NewChatCommand creates the chat command.
func NewChatCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:     "chat [message]",
		Aliases: []string{"facilitator"},
		Short:   "Ask the harm-reduction facilitator",
		Long: `Talk to FacilitatorAI about safety, set and setting, and integration.

With a message, ask one question and print the reply. Without one, read
questions from stdin line by line: /clear starts over and /quit ends the
conversation. The transcript is kept in memory only and never stored.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(opts, cmd, func(ctx context.Context, a *app) error {
				chat := workflow.NewChat(a.advisor)
				if len(args) == 0 {
					return a.chatLoop(ctx, cmd.InOrStdin(), chat)
				}

				reply, err := chat.Send(ctx, args[0])
				if err != nil {
					return err
				}
				v := ChatView{Reply: reply, Messages: chat.Messages()}
				return a.out.Render(v, func(w io.Writer) error {
					_, err := fmt.Fprintln(w, reply)
					return err
				})
			})
		},
	}
}

// chatLoop runs an interactive conversation over in. Text mode prints each
// reply as it arrives; json mode prints the whole transcript at the end.
func (a *app) chatLoop(ctx context.Context, in io.Reader, chat *workflow.Chat) error {
	text := a.out.Format != "json"
	w := a.out.Writer
	prompt := func() {
		if text && isTerminal(in) {
			fmt.Fprint(w, "> ")
		}
	}
	say := func(s string) {
		if text {
			fmt.Fprintln(w, s)
		}
	}

	say(insight.ChatGreeting)
	scanner := bufio.NewScanner(in)
loop:
	for prompt(); scanner.Scan(); prompt() {
		line := strings.TrimSpace(scanner.Text())
		switch line {
		case "":
			continue
		case "/quit", "/exit":
			break loop
		case "/clear":
			chat.Clear()
			say(insight.ChatCleared)
			continue
		}

		reply, err := chat.Send(ctx, line)
		if err != nil {
			return err
		}
		say(reply)
	}
	if err := scanner.Err(); err != nil {
		return WrapExitError(ExitCommandError, "failed to read chat input", err)
	}

	if !text {
		return a.out.Success(ChatView{Messages: chat.Messages()})
	}
	return nil
}
