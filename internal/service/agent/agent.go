package agent

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/saxil/mareen/internal/core"
	"github.com/saxil/mareen/internal/service/memory"
	"github.com/saxil/mareen/pkg/log"
)

// Apology is returned and recorded when the generation backend fails.
const Apology = "Sorry, I couldn't reach my language model just now. Please try again in a moment."

type Guard interface {
	Detect(input string) (bool, string)
	RejectResponse(pattern string) string
	SystemPrompt() string
}

type Store interface {
	LogMessage(ctx context.Context, speaker core.Speaker, text string, opts ...memory.MessageOption) (core.Message, error)
	EndSession(ctx context.Context) error
}

type ContextBuilder interface {
	BuildContextPrompt(ctx context.Context, query string, topK int, exclude ...int64) string
}

type Config struct {
	ContextTopK int
	TokenBudget int
	CountTokens func(string) int
}

// Reply is the outcome of one turn.
type Reply struct {
	Text     string
	Rejected bool
	Pattern  string
	Failed   bool
	Duration time.Duration
}

// Agent runs one conversation: guard, persist, retrieve, generate, persist.
type Agent struct {
	guard   Guard
	store   Store
	context ContextBuilder
	ai      core.AIProvider
	cfg     Config

	mu      sync.Mutex
	history []core.ChatMessage
}

func NewAgent(guard Guard, store Store, cb ContextBuilder, ai core.AIProvider, cfg Config) *Agent {
	if cfg.CountTokens == nil {
		cfg.CountTokens = CountTokens
	}
	return &Agent{
		guard:   guard,
		store:   store,
		context: cb,
		ai:      ai,
		cfg:     cfg,
	}
}

// Handle processes one user input. Inputs matching an injection pattern are
// answered with a canned refusal and never reach the model or the store.
func (a *Agent) Handle(ctx context.Context, input string) (Reply, error) {
	logger := log.FromCtx(ctx)

	if hit, pattern := a.guard.Detect(input); hit {
		logger.Warn().Str("pattern", pattern).Msg("prompt injection attempt blocked")
		return Reply{Text: a.guard.RejectResponse(pattern), Rejected: true, Pattern: pattern}, nil
	}

	a.mu.Lock()
	defer a.mu.Unlock()

	userMsg, err := a.store.LogMessage(ctx, core.SpeakerUser, input, memory.WithIntent(core.IntentChat))
	if err != nil {
		return Reply{}, err
	}

	prompt := input
	if block := a.context.BuildContextPrompt(ctx, input, a.cfg.ContextTopK, userMsg.ID); block != "" {
		prompt = block + "\n\n" + input
		logger.Debug().Int("context_chars", len(block)).Msg("retrieved context attached")
	}

	messages := a.window(core.ChatMessage{Role: core.RoleUser, Content: prompt})

	start := time.Now()
	resp, err := a.ai.Chat(ctx, messages)
	elapsed := time.Since(start)

	if err != nil {
		logger.Error().Err(err).Msg("generation failed")
		if _, logErr := a.store.LogMessage(ctx, core.SpeakerAgent, Apology,
			memory.WithIntent(core.IntentError), memory.WithResponseTime(elapsed)); logErr != nil {
			logger.Error().Err(logErr).Msg("failed to record apology")
		}
		return Reply{Text: Apology, Failed: true, Duration: elapsed}, nil
	}

	text := strings.TrimSpace(resp.Content)

	// The live turn keeps only what the user actually said.
	a.history = append(a.history,
		core.ChatMessage{Role: core.RoleUser, Content: input},
		core.ChatMessage{Role: core.RoleAssistant, Content: text},
	)

	if _, err := a.store.LogMessage(ctx, core.SpeakerAgent, text,
		memory.WithIntent(core.IntentChat), memory.WithResponseTime(elapsed)); err != nil {
		return Reply{Text: text, Duration: elapsed}, err
	}

	return Reply{Text: text, Duration: elapsed}, nil
}

// Reset ends the current session and forgets the live conversation.
func (a *Agent) Reset(ctx context.Context) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	a.history = nil
	return a.store.EndSession(ctx)
}

// History returns a copy of the live conversation without the system prompt.
func (a *Agent) History() []core.ChatMessage {
	a.mu.Lock()
	defer a.mu.Unlock()
	return append([]core.ChatMessage(nil), a.history...)
}

// window assembles system prompt, prior turns and current turn, dropping the
// oldest prior turns until the token budget fits. The system prompt and the
// current turn are always kept.
func (a *Agent) window(current core.ChatMessage) []core.ChatMessage {
	system := core.ChatMessage{Role: core.RoleSystem, Content: a.guard.SystemPrompt()}

	prior := a.history
	if a.cfg.TokenBudget > 0 {
		used := a.cost(system) + a.cost(current)
		keep := 0
		for i := len(prior) - 1; i >= 0; i-- {
			c := a.cost(prior[i])
			if used+c > a.cfg.TokenBudget {
				break
			}
			used += c
			keep = len(prior) - i
		}
		if keep < len(prior) {
			start := len(prior) - keep
			// never open the window on an assistant turn
			for start < len(prior) && prior[start].Role != core.RoleUser {
				start++
			}
			prior = prior[start:]
		}
	}

	out := make([]core.ChatMessage, 0, len(prior)+2)
	out = append(out, system)
	out = append(out, prior...)
	out = append(out, current)
	return out
}

func (a *Agent) cost(m core.ChatMessage) int {
	return a.cfg.CountTokens(m.Content) + messageOverhead
}
