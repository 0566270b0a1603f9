// Package summary renders the closing screen of a wizard.
package summary

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/julianstephens/tandem/internal/models"
)

var (
	labelStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("241")).
			Width(16)

	valueStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("252")).
			Bold(true)

	outcomeStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("240")).
			Italic(true)
)

// Data is what the summary shows. It is filled from the wizard state.
type Data struct {
	Flow       models.Flow
	Week       string
	TasksAdded int
	RolledOver int
	Accepted   int
	Rating     *int
	Note       string
	Mode       models.ReviewMode
	Completion int
	Streak     int
	Tasks      []models.Task
	Outcomes   map[string]models.TaskStatus
}

type Model struct {
	viewport viewport.Model
	data     *Data
}

func New(width, height int) Model {
	return Model{viewport: viewport.New(width, height)}
}

func (m Model) Init() tea.Cmd {
	return nil
}

func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	var cmd tea.Cmd
	m.viewport, cmd = m.viewport.Update(msg)
	return m, cmd
}

func (m Model) View() string {
	if m.data == nil {
		return "Nothing to summarize yet."
	}
	if m.viewport.Height == 0 {
		return Render(*m.data)
	}
	return m.viewport.View()
}

func (m *Model) SetSize(width, height int) {
	m.viewport.Width = width
	m.viewport.Height = height
	m.Render()
}

func (m *Model) SetData(d Data) {
	m.data = &d
	m.Render()
}

func (m *Model) Render() {
	if m.data == nil {
		m.viewport.SetContent("")
		return
	}
	m.viewport.SetContent(Render(*m.data))
}

// Render formats d without a viewport.
func Render(d Data) string {
	var b strings.Builder
	row := func(label, value string) {
		fmt.Fprintf(&b, "%s %s\n", labelStyle.Render(label), valueStyle.Render(value))
	}

	row("Week", d.Week)
	if d.Flow == models.FlowPlanning {
		row("New tasks", fmt.Sprint(d.TasksAdded))
		row("Rolled over", fmt.Sprint(d.RolledOver))
		row("Accepted", fmt.Sprint(d.Accepted))
	} else {
		rating := "-"
		if d.Rating != nil {
			rating = strings.Repeat("★", *d.Rating) + strings.Repeat("☆", 5-*d.Rating)
		}
		row("Rating", rating)
		if d.Note != "" {
			row("Note", d.Note)
		}
		if d.Mode != "" {
			row("Mode", string(d.Mode))
		}
		row("Completion", fmt.Sprintf("%d%%", d.Completion))
		for _, t := range d.Tasks {
			outcome := string(d.Outcomes[t.ID])
			if outcome == "" {
				outcome = string(t.Status)
			}
			fmt.Fprintf(&b, "  %s %s\n", t.Title, outcomeStyle.Render(outcome))
		}
	}
	row("Streak", fmt.Sprintf("%d week(s)", d.Streak))
	return b.String()
}
