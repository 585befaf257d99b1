// Package tui provides an interactive chat view over an already-indexed
// repository, built on the bubbletea/bubbles/lipgloss/glamour stack.
package tui

import (
	tea "github.com/charmbracelet/bubbletea"

	"codelore/internal/queryengine"
)

// Config holds what the chat view needs: which repository to ask about
// and the wired QueryEngine to ask it through.
type Config struct {
	RepoName   string
	Query      *queryengine.QueryEngine
	MaxResults int
}

// Model is the top-level Bubble Tea model. Unlike the onboarding-heavy
// model this package once had, there is only one view: chat opens
// directly against a repository the caller has already indexed.
type Model struct {
	chat   chatModel
	width  int
	height int
}

func New(cfg Config) Model {
	maxResults := cfg.MaxResults
	if maxResults <= 0 {
		maxResults = 5
	}
	return Model{chat: newChatModel(cfg.Query, cfg.RepoName, maxResults)}
}

func (m Model) Init() tea.Cmd {
	return nil
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
	case tea.KeyMsg:
		if msg.String() == "ctrl+c" {
			return m, tea.Quit
		}
	}

	var cmd tea.Cmd
	m.chat, cmd = m.chat.Update(msg)
	return m, cmd
}

func (m Model) View() string {
	return m.chat.View()
}

// Run starts the TUI chat program and blocks until the user exits.
func Run(cfg Config) error {
	p := tea.NewProgram(New(cfg), tea.WithAltScreen())
	_, err := p.Run()
	return err
}
