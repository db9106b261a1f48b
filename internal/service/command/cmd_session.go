package command

import (
	"context"
	"fmt"

	"github.com/saxil/mareen/internal/service/ui"
)

type NewSessionCommand struct {
	session Resetter
}

func NewNewSessionCommand(session Resetter) *NewSessionCommand {
	return &NewSessionCommand{session: session}
}

func (c *NewSessionCommand) Name() string {
	return "new"
}

func (c *NewSessionCommand) Description() string {
	return "End this session and start a fresh one"
}

func (c *NewSessionCommand) Execute(ctx context.Context, args []string) (string, error) {
	if err := c.session.Reset(ctx); err != nil {
		return "", fmt.Errorf("failed to end session: %w", err)
	}
	return ui.Success("Session closed. The next message starts a new one."), nil
}

type VerifyCommand struct {
	guard IdentityGuard
}

func NewVerifyCommand(guard IdentityGuard) *VerifyCommand {
	return &VerifyCommand{guard: guard}
}

func (c *VerifyCommand) Name() string {
	return "verify"
}

func (c *VerifyCommand) Description() string {
	return "Check the identity file for changes"
}

func (c *VerifyCommand) Execute(ctx context.Context, args []string) (string, error) {
	status := ui.Success("Identity unchanged.")
	if !c.guard.VerifyIntegrity(ctx) {
		status = ui.Warning("Identity file changed on disk; the new content is now in use.")
	}
	return status + "\n" + ui.RenderGuardStats(c.guard.Stats(ctx)), nil
}

type CacheCommand struct {
	cache EmbeddingCache
}

func NewCacheCommand(cache EmbeddingCache) *CacheCommand {
	return &CacheCommand{cache: cache}
}

func (c *CacheCommand) Name() string {
	return "cache"
}

func (c *CacheCommand) Description() string {
	return "Show the embedding cache, or empty it: /cache [clear]"
}

func (c *CacheCommand) Execute(ctx context.Context, args []string) (string, error) {
	if len(args) == 0 {
		return ui.RenderCacheStats(c.cache.Stats()), nil
	}

	switch args[0] {
	case "clear":
		if err := c.cache.Clear(ctx); err != nil {
			return "", fmt.Errorf("failed to clear cache: %w", err)
		}
		return ui.Success("Embedding cache cleared."), nil
	default:
		return usage("/cache [clear]"), nil
	}
}

type ModelsCommand struct {
	models ModelLister
}

func NewModelsCommand(models ModelLister) *ModelsCommand {
	return &ModelsCommand{models: models}
}

func (c *ModelsCommand) Name() string {
	return "models"
}

func (c *ModelsCommand) Description() string {
	return "List models offered by the chat backend"
}

func (c *ModelsCommand) Execute(ctx context.Context, args []string) (string, error) {
	models, err := c.models.Models(ctx)
	if err != nil {
		return "", fmt.Errorf("failed to list models: %w", err)
	}

	out := ui.Title("Models") + ui.Label("Current", c.models.Model())
	for _, m := range models {
		marker := "  "
		if m.ID == c.models.Model() {
			marker = ui.OKStyle.Render("* ")
		}
		out += marker + m.ID + "\n"
	}
	return out, nil
}
