package ui

import (
	"context"
	"fmt"

	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/saxil/mareen/internal/core"
)

// SessionSource is the read side of the session store.
type SessionSource interface {
	ListSessions(ctx context.Context, limit int) ([]core.Session, error)
	GetSession(ctx context.Context, sessionID string) (core.Session, error)
	History(ctx context.Context, sessionID string, limit int) ([]core.Message, error)
}

type sessionItem struct {
	session core.Session
}

func (i sessionItem) Title() string { return i.session.ID }
func (i sessionItem) Description() string {
	return fmt.Sprintf("%s | %s", i.session.StartTime.Local().Format(timeLayout), sessionSummary(i.session))
}
func (i sessionItem) FilterValue() string { return i.session.ID }

type sessionsMsg []list.Item
type transcriptMsg string
type errMsg error

// browser lists sessions and opens a transcript on enter.
type browser struct {
	ctx   context.Context
	src   SessionSource
	limit int

	list     list.Model
	view     viewport.Model
	loading  bool
	reading  bool
	err      error
	quitting bool
}

func newBrowser(ctx context.Context, src SessionSource, limit int) *browser {
	l := list.New([]list.Item{}, list.NewDefaultDelegate(), 0, 0)
	l.Title = "Sessions"
	l.SetShowStatusBar(true)
	l.SetFilteringEnabled(true)
	l.Styles.Title = TitleStyle

	return &browser{
		ctx:     ctx,
		src:     src,
		limit:   limit,
		list:    l,
		view:    viewport.New(0, 0),
		loading: true,
	}
}

func (b *browser) Init() tea.Cmd {
	return b.loadSessions
}

func (b *browser) loadSessions() tea.Msg {
	sessions, err := b.src.ListSessions(b.ctx, b.limit)
	if err != nil {
		return errMsg(err)
	}

	items := make([]list.Item, 0, len(sessions))
	for _, s := range sessions {
		items = append(items, sessionItem{session: s})
	}
	return sessionsMsg(items)
}

func (b *browser) loadTranscript(id string) tea.Cmd {
	return func() tea.Msg {
		s, err := b.src.GetSession(b.ctx, id)
		if err != nil {
			return errMsg(err)
		}
		msgs, err := b.src.History(b.ctx, id, 0)
		if err != nil {
			return errMsg(err)
		}
		return transcriptMsg(RenderMessages(s, msgs))
	}
}

func (b *browser) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		b.list.SetSize(msg.Width, msg.Height-2)
		b.view.Width = msg.Width
		b.view.Height = msg.Height - 2
		return b, nil

	case sessionsMsg:
		b.list.SetItems(msg)
		b.loading = false
		return b, nil

	case transcriptMsg:
		b.view.SetContent(string(msg))
		b.view.GotoTop()
		b.reading = true
		return b, nil

	case errMsg:
		b.loading = false
		b.err = msg
		return b, nil

	case tea.KeyMsg:
		if msg.String() == "ctrl+c" {
			b.quitting = true
			return b, tea.Quit
		}
		if b.err != nil {
			return b, nil
		}

		if b.reading {
			switch msg.String() {
			case "esc", "q", "backspace":
				b.reading = false
				return b, nil
			}
			b.view, cmd = b.view.Update(msg)
			return b, cmd
		}

		if msg.String() == "enter" && b.list.FilterState() != list.Filtering {
			if i, ok := b.list.SelectedItem().(sessionItem); ok {
				return b, b.loadTranscript(i.session.ID)
			}
			return b, nil
		}
	}

	if b.reading {
		b.view, cmd = b.view.Update(msg)
		return b, cmd
	}
	b.list, cmd = b.list.Update(msg)
	return b, cmd
}

func (b *browser) View() string {
	if b.quitting {
		return ""
	}
	if b.err != nil {
		return ErrorStyle.Render(fmt.Sprintf("Error: %v", b.err)) + "\n\n(press ctrl+c to quit)\n"
	}
	if b.loading {
		return "Loading sessions...\n"
	}
	if b.reading {
		return b.view.View() + "\n" + DescStyle.Render("↑/↓ scroll • esc back • ctrl+c quit")
	}
	return b.list.View()
}

// RunBrowser opens the interactive session browser and blocks until the user
// quits.
func RunBrowser(ctx context.Context, src SessionSource, limit int) error {
	p := tea.NewProgram(newBrowser(ctx, src, limit), tea.WithAltScreen(), tea.WithContext(ctx))
	_, err := p.Run()
	return err
}
