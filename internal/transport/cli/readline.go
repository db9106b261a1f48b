package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/chzyer/readline"
	"github.com/saxil/mareen/internal/core"
	"github.com/saxil/mareen/internal/service/agent"
	"github.com/saxil/mareen/internal/service/ui"
	"github.com/saxil/mareen/pkg/conv"
	"github.com/saxil/mareen/pkg/log"
)

// Chatter is the conversation the loop drives.
type Chatter interface {
	Handle(ctx context.Context, input string) (agent.Reply, error)
	Reset(ctx context.Context) error
}

type ReadLine struct {
	agent  Chatter
	router core.CmdRouter
	rl     *readline.Instance
	done   chan struct{}
}

func NewReadLine(chat Chatter, router core.CmdRouter, runtimePath string) (*ReadLine, error) {
	if err := os.MkdirAll(runtimePath, 0755); err != nil {
		return nil, fmt.Errorf("failed to create runtime directory: %w", err)
	}

	rl, err := readline.NewEx(&readline.Config{
		Prompt:          ui.UserStyle.Render("you") + " › ",
		HistoryFile:     filepath.Join(runtimePath, "input_history"),
		InterruptPrompt: "^C",
		EOFPrompt:       "exit",
	})
	if err != nil {
		return nil, err
	}

	return newReadLine(chat, router, rl), nil
}

func newReadLine(chat Chatter, router core.CmdRouter, rl *readline.Instance) *ReadLine {
	return &ReadLine{
		agent:  chat,
		router: router,
		rl:     rl,
		done:   make(chan struct{}),
	}
}

// Done is closed once the user leaves the chat.
func (r *ReadLine) Done() <-chan struct{} {
	return r.done
}

// Start runs the chat loop until exit, EOF or Ctrl+C and then ends the
// session.
func (r *ReadLine) Start(ctx context.Context) error {
	defer close(r.done)

	ctx = log.WithComponent(ctx, "cli")
	logger := log.FromCtx(ctx)
	logger.Debug().Msg("chat loop started")

	fmt.Fprintln(r.rl.Stdout(), ui.DescStyle.Render("Type /help for commands, 'exit' to quit."))

	err := r.loop(ctx)

	// the session is ended even when ctx was cancelled by a signal
	if resetErr := r.agent.Reset(context.WithoutCancel(ctx)); resetErr != nil {
		logger.Error().Err(resetErr).Msg("failed to end session")
	}
	return err
}

func (r *ReadLine) loop(ctx context.Context) error {
	out := r.rl.Stdout()

	for {
		select {
		case <-ctx.Done():
			return nil
		default:
		}

		line, err := r.rl.Readline()
		if err != nil {
			if errors.Is(err, readline.ErrInterrupt) {
				if len(line) == 0 {
					return nil
				}
				continue
			} else if errors.Is(err, io.EOF) {
				return nil
			}
			return err
		}

		line = strings.TrimSpace(line)
		if line == "exit" || line == "quit" {
			return nil
		}
		if line == "" {
			continue
		}

		fmt.Fprint(out, r.respond(ctx, line))
	}
}

// respond renders the answer to a single line of input.
func (r *ReadLine) respond(ctx context.Context, line string) string {
	if r.router != nil {
		if result, ok := r.router.Execute(ctx, line); ok {
			return result
		}
	}

	reply, err := r.agent.Handle(ctx, line)
	if err != nil {
		log.FromCtx(ctx).Error().Err(err).Msg("turn failed")
		return ui.Error(err)
	}

	var b strings.Builder
	b.WriteString(ui.AgentStyle.Render(core.AppName) + " › ")
	switch {
	case reply.Rejected:
		b.WriteString(ui.WarnStyle.Render(reply.Text))
	default:
		b.WriteString(render(reply.Text))
	}
	if reply.Duration > 0 && !reply.Rejected {
		b.WriteString(" " + ui.RenderDuration(reply.Duration))
	}
	b.WriteString("\n")
	return b.String()
}

func (r *ReadLine) Shutdown(ctx context.Context) error {
	if r.rl != nil {
		return r.rl.Close()
	}
	return nil
}

// render lays out markdown from the model; text that fails to convert is
// shown as is.
func render(reply string) string {
	text, err := conv.MarkdownToText(reply)
	if err != nil || text == "" {
		return reply
	}
	return text
}
