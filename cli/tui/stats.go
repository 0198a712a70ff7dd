package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/lodeworks/stockpipe/types"
)

// maxRecentRows limits the recent-outcome list in the stats view.
const maxRecentRows = 10

// RunStats aggregates outcome counts for the stats view.
type RunStats struct {
	Total      int `json:"total"`
	Succeeded  int `json:"succeeded"`
	NoData     int `json:"no_data"`
	Failed     int `json:"failed"`
	RowsLoaded int `json:"rows_loaded"`

	Recent []types.RunOutcome `json:"recent,omitempty"`
}

// ComputeStats aggregates stored outcomes into view counts.
// Outcomes are expected newest-first; Recent keeps the head.
func ComputeStats(outcomes []types.RunOutcome) *RunStats {
	stats := &RunStats{}
	for _, o := range outcomes {
		stats.Total++
		switch o.Status {
		case types.OutcomeSuccess:
			stats.Succeeded++
			stats.RowsLoaded += o.RowsLoaded
		case types.OutcomeNoData:
			stats.NoData++
		case types.OutcomeFailed:
			stats.Failed++
		}
	}
	if len(outcomes) > maxRecentRows {
		stats.Recent = outcomes[:maxRecentRows]
	} else {
		stats.Recent = outcomes
	}
	return stats
}

// keyMap defines key bindings.
type keyMap struct {
	Quit key.Binding
}

var keys = keyMap{
	Quit: key.NewBinding(
		key.WithKeys("q", "ctrl+c"),
		key.WithHelp("q", "quit"),
	),
}

// StatsModel is the Bubble Tea model for the stats view.
type StatsModel struct {
	stats    *RunStats
	width    int
	height   int
	quitting bool
}

// NewStatsModel creates a stats model.
func NewStatsModel(stats *RunStats) StatsModel {
	return StatsModel{stats: stats}
}

// Init implements tea.Model.
func (m StatsModel) Init() tea.Cmd {
	return nil
}

// Update implements tea.Model.
func (m StatsModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil

	case tea.KeyMsg:
		if key.Matches(msg, keys.Quit) {
			m.quitting = true
			return m, tea.Quit
		}
	}

	return m, nil
}

// View implements tea.Model.
func (m StatsModel) View() string {
	if m.quitting {
		return ""
	}

	var b strings.Builder
	b.WriteString(TitleStyle.Render("Pipeline Run Statistics"))
	b.WriteString("\n\n")

	boxes := []string{
		m.renderStatBox("Symbols", m.stats.Total, highlightColor),
		m.renderStatBox("Succeeded", m.stats.Succeeded, successColor),
		m.renderStatBox("No Data", m.stats.NoData, warningColor),
		m.renderStatBox("Failed", m.stats.Failed, errorColor),
	}
	b.WriteString(lipgloss.JoinHorizontal(lipgloss.Top, boxes...))

	b.WriteString("\n")
	b.WriteString(fmt.Sprintf("%s %s\n",
		LabelStyle.Render("Rows Loaded:"),
		ValueStyle.Render(fmt.Sprintf("%d", m.stats.RowsLoaded))))

	if len(m.stats.Recent) > 0 {
		b.WriteString("\n")
		b.WriteString(TitleStyle.Render("Recent Outcomes"))
		b.WriteString("\n")
		for _, o := range m.stats.Recent {
			b.WriteString(fmt.Sprintf("%s  %-8s %s  %d rows\n",
				ValueStyle.Render(o.RunID),
				o.Symbol,
				StatusStyle(string(o.Status)).Render(string(o.Status)),
				o.RowsLoaded))
		}
	}

	help := HelpStyle.Render("Press q or Ctrl+C to quit")
	return b.String() + "\n" + help
}

func (m StatsModel) renderStatBox(label string, value int, color lipgloss.Color) string {
	boxStyle := StatBoxStyle.BorderForeground(color)

	valueStr := StatValueStyle.Foreground(color).Render(fmt.Sprintf("%d", value))
	labelStr := StatLabelStyle.Render(label)

	content := lipgloss.JoinVertical(lipgloss.Center, valueStr, labelStr)

	return boxStyle.Render(content)
}

// Run starts the stats TUI.
func Run(stats *RunStats) error {
	p := tea.NewProgram(NewStatsModel(stats), tea.WithAltScreen())
	_, err := p.Run()
	return err
}

// RenderStatic renders the stats view without the interactive program.
func RenderStatic(stats *RunStats) string {
	model := NewStatsModel(stats)
	model.width = 80
	model.height = 24
	return lipgloss.NewStyle().Padding(1, 2).Render(model.View())
}
