package tui

import (
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/marcin-skalski/gh-monitor/internal/monitor"
)

type Model struct {
	provider        Provider
	view            monitor.View
	refreshInterval time.Duration
	width           int
	height          int
	scrollOffset    int
}

type tickMsg time.Time

func NewModel(provider Provider, refreshInterval time.Duration) Model {
	return Model{
		provider:        provider,
		view:            provider.Snapshot(),
		refreshInterval: refreshInterval,
	}
}

func (m Model) Init() tea.Cmd {
	return tickCmd(m.refreshInterval)
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			return m, tea.Quit
		case "r":
			m.provider.RequestRefresh()
			m.view = m.provider.Snapshot()
		case "up", "k":
			if m.scrollOffset > 0 {
				m.scrollOffset--
			}
		case "down", "j":
			m.scrollOffset = min(m.scrollOffset+1, m.maxOffset())
		case "home", "g":
			m.scrollOffset = 0
		case "end", "G":
			m.scrollOffset = m.maxOffset()
		}

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.scrollOffset = min(m.scrollOffset, m.maxOffset())

	case tickMsg:
		m.view = m.provider.Snapshot()
		m.scrollOffset = min(m.scrollOffset, m.maxOffset())
		return m, tickCmd(m.refreshInterval)
	}

	return m, nil
}

func (m Model) View() string {
	content := Render(m.view, m.width)
	if m.height <= 0 {
		return content
	}
	lines := strings.Split(content, "\n")
	offset := min(m.scrollOffset, max(0, len(lines)-m.height))
	end := min(offset+m.height, len(lines))
	return strings.Join(lines[offset:end], "\n")
}

func (m Model) maxOffset() int {
	if m.height <= 0 {
		return 0
	}
	lines := strings.Count(Render(m.view, m.width), "\n") + 1
	return max(0, lines-m.height)
}

func tickCmd(interval time.Duration) tea.Cmd {
	return tea.Tick(interval, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}
