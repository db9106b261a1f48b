package command

import (
	"context"
	"fmt"
	"slices"
	"strings"

	"github.com/saxil/mareen/internal/core"
	"github.com/saxil/mareen/internal/service/ui"
)

type Router struct {
	commands map[string]core.Command
}

func New(commands []core.Command) *Router {
	c := &Router{
		commands: make(map[string]core.Command),
	}

	for _, cmd := range commands {
		c.commands[cmd.Name()] = cmd
	}
	return c
}

// Execute runs input when it is a slash command. The second return value
// reports whether input was consumed.
func (c *Router) Execute(ctx context.Context, input string) (string, bool) {
	if !strings.HasPrefix(input, "/") {
		return "", false
	}

	parts := strings.Fields(input)
	name := strings.TrimPrefix(parts[0], "/")
	args := parts[1:]

	if name == "help" {
		return c.help(), true
	}

	cmd, ok := c.commands[name]
	if !ok {
		return ui.Warning(fmt.Sprintf("Unknown command: /%s (try /help)", name)), true
	}

	result, err := cmd.Execute(ctx, args)
	if err != nil {
		return ui.Error(err), true
	}
	return result, true
}

func (c *Router) ListCommands() []core.Command {
	res := make([]core.Command, 0, len(c.commands))
	for _, cmd := range c.commands {
		res = append(res, cmd)
	}
	slices.SortFunc(res, func(a, b core.Command) int {
		return strings.Compare(a.Name(), b.Name())
	})
	return res
}

func (c *Router) help() string {
	var b strings.Builder
	b.WriteString(ui.Title("Commands"))
	for _, cmd := range c.ListCommands() {
		b.WriteString(helpLine("/"+cmd.Name(), cmd.Description()))
	}
	b.WriteString(helpLine("exit", "End the session and quit"))
	return b.String()
}

func helpLine(name, desc string) string {
	return "  " + ui.UsageStyle.Render(fmt.Sprintf("%-10s", name)) + " " + ui.DescStyle.Render(desc) + "\n"
}
