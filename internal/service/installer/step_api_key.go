package installer

import (
	"fmt"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/saxil/mareen/internal/config"
)

const defaultOllamaURL = "http://localhost:11434"

// BaseURLStep asks for the endpoint of Ollama or a custom server. Hosted
// providers skip it.
type BaseURLStep struct {
	input    textinput.Model
	ready    bool
	required bool
}

func NewBaseURLStep() Step {
	return &BaseURLStep{}
}

func (s *BaseURLStep) Init() tea.Cmd { return nil }

func (s *BaseURLStep) Update(msg tea.Msg, state *InstallState, width, height int) (Step, tea.Cmd) {
	if !s.ready {
		switch state.provider() {
		case config.LLMProviderOllama:
			s.input = textinput.New()
			s.input.Placeholder = defaultOllamaURL
		case config.LLMProviderCustom:
			s.input = textinput.New()
			s.input.Placeholder = "https://my-server/api"
			s.required = true
		default:
			return nil, nil
		}
		s.input.Focus()
		s.ready = true
		return s, textinput.Blink
	}

	var cmd tea.Cmd
	s.input, cmd = s.input.Update(msg)

	if key, ok := msg.(tea.KeyMsg); ok && key.String() == "enter" {
		val := s.input.Value()
		if val == "" {
			if s.required {
				return s, cmd
			}
			val = s.input.Placeholder
		}
		state.EnvVars[envLLMBaseURL] = val
		return nil, nil
	}

	return s, cmd
}

func (s *BaseURLStep) View(state *InstallState) string {
	return "Enter the base URL of the chat server:\n\n" + s.input.View() + "\n\n(press enter to confirm)\n"
}

// APIKeyStep collects the provider key. It is optional for Ollama and
// custom servers.
type APIKeyStep struct {
	input      textinput.Model
	title      string
	isOptional bool
	ready      bool
}

func NewAPIKeyStep() Step {
	return &APIKeyStep{}
}

func (s *APIKeyStep) Init() tea.Cmd {
	return nil
}

func (s *APIKeyStep) initProvider(state *InstallState) {
	s.input = textinput.New()
	s.input.Focus()
	s.input.CharLimit = 255
	s.input.Width = 40
	s.input.EchoMode = textinput.EchoPassword
	s.input.EchoCharacter = '•'

	switch state.provider() {
	case config.LLMProviderOpenAI:
		s.title = "OpenAI API Key"
		s.input.Placeholder = "sk-..."
	case config.LLMProviderOpenRouter:
		s.title = "OpenRouter API Key"
		s.input.Placeholder = "sk-or-v1-..."
	default:
		s.title = "API Key"
		s.isOptional = true
		s.input.Placeholder = "Optional - press Enter to skip"
		s.input.EchoMode = textinput.EchoNormal
	}
	s.ready = true
}

func (s *APIKeyStep) Update(msg tea.Msg, state *InstallState, width, height int) (Step, tea.Cmd) {
	if !s.ready {
		s.initProvider(state)
		return s, textinput.Blink
	}

	var cmd tea.Cmd
	s.input, cmd = s.input.Update(msg)

	if key, ok := msg.(tea.KeyMsg); ok && key.String() == "enter" {
		if s.input.Value() == "" && !s.isOptional {
			return s, cmd
		}
		if s.input.Value() != "" {
			state.EnvVars[envLLMAPIKey] = s.input.Value()
		}
		return nil, nil
	}
	return s, cmd
}

func (s *APIKeyStep) View(state *InstallState) string {
	optionalHint := ""
	if s.isOptional {
		optionalHint = " (optional - press Enter to skip)"
	}

	return fmt.Sprintf("Enter your %s%s:\n\n%s\n\n(press enter to confirm)\n",
		s.title, optionalHint, s.input.View())
}
