package core

import "context"

// CmdRouter dispatches slash commands typed into a chat.
type CmdRouter interface {
	Execute(ctx context.Context, input string) (string, bool)
	ListCommands() []Command
}

type Command interface {
	Name() string
	Description() string
	Execute(ctx context.Context, args []string) (string, error)
}
