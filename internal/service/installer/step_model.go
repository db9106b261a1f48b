package installer

import (
	"context"
	"time"

	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/saxil/mareen/internal/config"
	"github.com/saxil/mareen/internal/providers/llm"
	"github.com/saxil/mareen/pkg/log"
)

const modelsTimeout = 30 * time.Second

// ModelStep lists the models the chosen backend offers.
type ModelStep struct {
	list     list.Model
	loading  bool
	fetching bool // ensures we only trigger the API call once
	err      error
}

func NewModelStep() Step {
	l := list.New([]list.Item{}, list.NewDefaultDelegate(), 0, 0)
	l.Title = "Select Chat Model"
	l.SetShowStatusBar(true)
	l.SetFilteringEnabled(true)
	l.Styles.Title = titleStyle

	return &ModelStep{
		list:    l,
		loading: true,
	}
}

func (s *ModelStep) Init() tea.Cmd {
	return nil
}

func llmConfig(state *InstallState) *config.LLMConfig {
	cfg := &config.LLMConfig{
		Provider: state.provider(),
		BaseURL:  state.EnvVars[envLLMBaseURL],
		APIKey:   state.EnvVars[envLLMAPIKey],
		Timeout:  modelsTimeout,
	}
	if cfg.BaseURL == "" && cfg.Provider == config.LLMProviderOllama {
		cfg.BaseURL = defaultOllamaURL
	}
	return cfg
}

func fetchModels(cfg *config.LLMConfig) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), modelsTimeout)
		defer cancel()

		p, err := llm.NewProvider(log.WithComponent(ctx, "installer"), cfg)
		if err != nil {
			return errMsg(err)
		}
		models, err := p.Models(ctx)
		if err != nil {
			return errMsg(err)
		}

		items := make([]list.Item, 0, len(models))
		for _, mod := range models {
			items = append(items, item{id: mod.ID, title: mod.Name, desc: "ID: " + mod.ID})
		}
		return modelsMsg(items)
	}
}

func (s *ModelStep) Update(msg tea.Msg, state *InstallState, width, height int) (Step, tea.Cmd) {
	if s.loading && !s.fetching {
		s.fetching = true
		return s, fetchModels(llmConfig(state))
	}

	s.list.SetSize(width, height-4)

	var cmd tea.Cmd
	switch msg := msg.(type) {
	case modelsMsg:
		s.list.SetItems(msg)
		s.loading = false
		s.fetching = false
		return s, nil

	case errMsg:
		s.loading = false
		s.fetching = false
		s.err = msg
		return s, nil

	case tea.KeyMsg:
		if s.err != nil {
			switch msg.String() {
			case "enter":
				s.err = nil
				s.loading = true
				s.fetching = false
				return s, nil
			case "s":
				// keep the provider's default model
				return nil, nil
			}
			return s, nil
		}

		if msg.String() == "enter" {
			wasFiltering := s.list.FilterState() == list.Filtering
			s.list, cmd = s.list.Update(msg)

			if wasFiltering || s.list.FilterState() == list.Filtering {
				return s, cmd
			}

			if i, ok := s.list.SelectedItem().(item); ok {
				state.EnvVars[envLLMModel] = i.id
				return nil, nil
			}
			return s, cmd
		}
	}

	s.list, cmd = s.list.Update(msg)
	return s, cmd
}

func (s *ModelStep) View(state *InstallState) string {
	if s.err != nil {
		return errorStyle.Render("Error fetching models: "+s.err.Error()) +
			"\n\nCheck the server address and API key.\n\n(press enter to retry, s to skip, ctrl+c to quit)\n"
	}
	if s.loading {
		return "Fetching models from " + state.provider() + "...\n"
	}
	return s.list.View()
}
