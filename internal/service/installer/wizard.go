package installer

import (
	"fmt"

	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/progress"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

const (
	envLLMProvider       = "MAREEN_LLM_PROVIDER"
	envLLMBaseURL        = "MAREEN_LLM_BASE_URL"
	envLLMAPIKey         = "MAREEN_LLM_API_KEY"
	envLLMModel          = "MAREEN_LLM_MODEL"
	envEmbeddingProvider = "MAREEN_EMBEDDING_PROVIDER"
	envEmbeddingBaseURL  = "MAREEN_EMBEDDING_BASE_URL"
	envEmbeddingAPIKey   = "MAREEN_EMBEDDING_API_KEY"
	envDebug             = "MAREEN_DEBUG"
)

var (
	titleStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("2")).Bold(true)
	itemStyle  = lipgloss.NewStyle().PaddingLeft(2)
	selStyle   = lipgloss.NewStyle().PaddingLeft(2).Foreground(lipgloss.Color("5"))
	errorStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("1")).Bold(true)
)

// Step represents a single step in the setup wizard
type Step interface {
	Init() tea.Cmd
	Update(msg tea.Msg, state *InstallState, width, height int) (Step, tea.Cmd)
	View(state *InstallState) string
}

func getSteps() []Step {
	return []Step{
		NewProviderStep(),
		NewBaseURLStep(),
		NewAPIKeyStep(),
		NewModelStep(),
		NewEmbeddingStep(),
		NewFinalizationStep(),
		NewSaveEnvStep(),
		NewInitializeFilesStep(),
	}
}

type item struct {
	id    string
	title string
	desc  string
}

func (i item) Title() string       { return i.title }
func (i item) Description() string { return i.desc }
func (i item) FilterValue() string { return i.id }

type modelsMsg []list.Item
type errMsg error
type nextMsg struct{}

// wizard drives the steps in order and owns the shared state.
type wizard struct {
	steps     []Step
	current   int
	state     *InstallState
	progress  progress.Model
	cancelled bool
	width     int
	height    int
}

func newWizard(runtimePath string) wizard {
	return wizard{
		steps:    getSteps(),
		state:    NewInstallState(runtimePath),
		progress: progress.New(progress.WithDefaultGradient(), progress.WithWidth(40)),
	}
}

func (w wizard) done() bool { return w.current >= len(w.steps) }

func (w wizard) Init() tea.Cmd {
	if w.done() {
		return nil
	}
	return w.steps[0].Init()
}

func (w wizard) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		w.width, w.height = msg.Width, msg.Height
	case tea.KeyMsg:
		if msg.Type == tea.KeyCtrlC {
			w.cancelled = true
			return w, tea.Quit
		}
	}
	if w.done() {
		return w, tea.Quit
	}

	step, cmd := w.steps[w.current].Update(msg, w.state, w.width, w.height)
	if step != nil {
		w.steps[w.current] = step
		return w, cmd
	}

	w.current++
	if w.done() {
		return w, tea.Quit
	}
	// steps that need no input finish on their first update
	return w, tea.Batch(w.steps[w.current].Init(), next)
}

func next() tea.Msg { return nextMsg{} }

func (w wizard) View() string {
	switch {
	case w.cancelled:
		return "Setup cancelled.\n"
	case w.done():
		return "Configuration complete!\n"
	}

	header := fmt.Sprintf("%s  %s %d/%d",
		titleStyle.Render("Setting up Mareen"),
		w.progress.ViewAs(float64(w.current)/float64(len(w.steps))),
		w.current+1, len(w.steps))
	return header + "\n\n" + w.steps[w.current].View(w.state)
}

// RunWizard starts the TUI and writes the runtime directory at runtimePath.
func RunWizard(runtimePath string) (*InstallState, error) {
	final, err := tea.NewProgram(newWizard(runtimePath), tea.WithAltScreen()).Run()
	if err != nil {
		return nil, err
	}

	w := final.(wizard)
	if w.cancelled {
		return nil, fmt.Errorf("mareen setup interrupted")
	}
	return w.state, nil
}
