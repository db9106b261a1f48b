package installer

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/saxil/mareen/internal/config"
)

type choice struct {
	id    string
	label string
}

// choiceStep is a cursor menu that stores the chosen id under envKey.
type choiceStep struct {
	prompt  string
	envKey  string
	choices []choice
	cursor  int
}

func (s *choiceStep) Init() tea.Cmd {
	return nil
}

func (s *choiceStep) Update(msg tea.Msg, state *InstallState, width, height int) (Step, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "up", "k":
			if s.cursor > 0 {
				s.cursor--
			}
		case "down", "j":
			if s.cursor < len(s.choices)-1 {
				s.cursor++
			}
		case "enter":
			state.EnvVars[s.envKey] = s.choices[s.cursor].id
			return nil, nil
		}
	}
	return s, nil
}

func (s *choiceStep) View(state *InstallState) string {
	var b strings.Builder
	b.WriteString(s.prompt + "\n\n")
	for i, c := range s.choices {
		if s.cursor == i {
			b.WriteString(selStyle.Render(fmt.Sprintf("❯ %s", c.label)) + "\n")
		} else {
			b.WriteString(itemStyle.Render(fmt.Sprintf("  %s", c.label)) + "\n")
		}
	}
	b.WriteString("\n(press ctrl+c to quit)\n")
	return b.String()
}

// NewProviderStep selects the chat backend.
func NewProviderStep() Step {
	return &choiceStep{
		prompt: "Select the chat model provider:",
		envKey: envLLMProvider,
		choices: []choice{
			{config.LLMProviderOllama, "Ollama (local)"},
			{config.LLMProviderOpenAI, "OpenAI"},
			{config.LLMProviderOpenRouter, "OpenRouter"},
			{config.LLMProviderCustom, "Custom OpenAI-compatible endpoint"},
		},
	}
}

// NewEmbeddingStep selects the embedding backend used by retrieval.
func NewEmbeddingStep() Step {
	return &choiceStep{
		prompt: "Select the embedding provider for semantic memory:",
		envKey: envEmbeddingProvider,
		choices: []choice{
			{config.EmbeddingProviderOllama, "Ollama (nomic-embed-text)"},
			{config.EmbeddingProviderOpenAI, "OpenAI (text-embedding-3-small)"},
			{config.EmbeddingProviderNone, "None, match words only"},
		},
	}
}
