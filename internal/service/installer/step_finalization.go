package installer

import (
	tea "github.com/charmbracelet/bubbletea"
	"github.com/saxil/mareen/internal/config"
)

// FinalizationStep computes derived values and final env var formatting
type FinalizationStep struct{}

func NewFinalizationStep() Step {
	return &FinalizationStep{}
}

func (s *FinalizationStep) Init() tea.Cmd {
	return nil
}

func (s *FinalizationStep) Update(msg tea.Msg, state *InstallState, width, height int) (Step, tea.Cmd) {
	finalize(state)
	return nil, nil
}

func (s *FinalizationStep) View(state *InstallState) string {
	return "Finalizing configuration...\n"
}

// finalize lets the embedding backend reuse what was entered for chat when
// both point at the same service.
func finalize(state *InstallState) {
	env := state.EnvVars

	switch env[envEmbeddingProvider] {
	case config.EmbeddingProviderOllama:
		if state.provider() == config.LLMProviderOllama && env[envLLMBaseURL] != "" {
			env[envEmbeddingBaseURL] = env[envLLMBaseURL]
		}
	case config.EmbeddingProviderOpenAI:
		if state.provider() == config.LLMProviderOpenAI && env[envLLMAPIKey] != "" {
			env[envEmbeddingAPIKey] = env[envLLMAPIKey]
		}
	}

	if env[envDebug] == "" {
		env[envDebug] = "0"
	}
}
