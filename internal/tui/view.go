package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/julianstephens/tandem/internal/models"
)

var stepTitles = map[models.Step]string{
	models.StepRollover:        "Roll over",
	models.StepAddTasks:        "Add tasks",
	models.StepPartnerRequests: "Requests",
	models.StepConfirmation:    "Done",
	models.StepModeSelect:      "Mode",
	models.StepRating:          "Rating",
	models.StepTaskReview:      "Tasks",
	models.StepSummary:         "Summary",
}

func (m Model) View() string {
	if m.quitting {
		return ""
	}

	var content string
	switch m.state.Step {
	case models.StepRollover:
		content = m.viewRollover()
	case models.StepAddTasks:
		content = m.viewAddTasks()
	case models.StepPartnerRequests:
		content = m.viewRequests()
	case models.StepModeSelect:
		content = m.viewModeSelect()
	case models.StepRating:
		content = m.viewRating()
	case models.StepTaskReview:
		content = m.viewTaskReview()
	case models.StepConfirmation, models.StepSummary:
		content = m.viewSummary()
	}

	return lipgloss.JoinVertical(
		lipgloss.Left,
		m.viewSteps(),
		docStyle.Render(content),
		m.viewStatus(),
		m.help.View(m),
	)
}

func (m Model) viewSteps() string {
	var steps []string
	for _, step := range m.state.Sequence {
		title := stepTitles[step]
		if step == m.state.Step {
			steps = append(steps, activeStepStyle.Render(title))
		} else {
			steps = append(steps, inactiveStepStyle.Render(title))
		}
	}
	flow := "Planning"
	if m.state.Flow == models.FlowReview {
		flow = "Review"
	}
	header := mutedStyle.Render(fmt.Sprintf(" %s %s ", flow, m.state.WeekID))
	return lipgloss.JoinHorizontal(lipgloss.Top, append([]string{header}, steps...)...)
}

func (m Model) viewStatus() string {
	switch {
	case m.err != "":
		return dangerStyle.Render(m.err)
	case m.status != "":
		return successStyle.Render(m.status)
	}
	return ""
}

func (m Model) progress() string {
	return mutedStyle.Render(fmt.Sprintf("%d of %d", min(m.state.Index+1, len(m.state.Items())), len(m.state.Items())))
}

func (m Model) viewRollover() string {
	task, ok := m.state.Item()
	if !ok {
		return m.items.View()
	}
	return lipgloss.JoinVertical(lipgloss.Left,
		titleStyle.Render("Unfinished from last week"),
		m.progress(),
		"",
		itemStyle.Render(task.Title),
		"",
		"Bring it into this week? [y] yes  [n] no",
		"",
		m.items.View(),
	)
}

func (m Model) viewAddTasks() string {
	owner := ""
	if m.state.HasPartner {
		owner = mutedStyle.Render(fmt.Sprintf("owner: %s (tab to change)", ownerKinds[m.owner]))
	}
	return lipgloss.JoinVertical(lipgloss.Left,
		titleStyle.Render("What's on for this week?"),
		m.input.View(),
		owner,
		"",
		mutedStyle.Render(fmt.Sprintf("%d added so far. ctrl+d when you're done.", m.state.TasksAdded)),
	)
}

func (m Model) viewRequests() string {
	task, ok := m.state.Item()
	if !ok {
		return m.items.View()
	}
	return lipgloss.JoinVertical(lipgloss.Left,
		titleStyle.Render("Your partner asked"),
		m.progress(),
		"",
		itemStyle.Render(task.Title),
		mutedStyle.Render(task.Notes),
		"",
		"[a] accept  [d] talk about it  [x] decline",
	)
}

func (m Model) viewModeSelect() string {
	return lipgloss.JoinVertical(lipgloss.Left,
		titleStyle.Render(fmt.Sprintf("Reviewing %s", m.state.WeekID)),
		"Are you reviewing on your own or together?",
		"",
		"[s] solo  [t] together",
	)
}

func (m Model) viewRating() string {
	rating := "not rated yet"
	if m.state.Rating != nil {
		rating = strings.Repeat("★", *m.state.Rating) + strings.Repeat("☆", 5-*m.state.Rating)
	}
	lines := []string{
		titleStyle.Render("How did the week go?"),
		itemStyle.Render(rating),
		"",
	}
	switch {
	case m.editing:
		lines = append(lines, m.input.View())
	case m.state.Note != "":
		lines = append(lines, mutedStyle.Render(m.state.Note))
	}
	return lipgloss.JoinVertical(lipgloss.Left, lines...)
}

func (m Model) viewTaskReview() string {
	task, ok := m.state.Item()
	if !ok {
		return m.items.View()
	}
	lines := []string{
		titleStyle.Render("How did it go?"),
		m.progress(),
		"",
		itemStyle.Render(task.Title),
		"",
		"[c] completed  [t] tried  [s] skipped",
	}
	if m.editing || m.input.Value() != "" {
		lines = append(lines, "", m.input.View())
	}
	return lipgloss.JoinVertical(lipgloss.Left, lines...)
}

func (m Model) viewSummary() string {
	title := "Saving..."
	if m.state.Completed {
		title = "All set"
	}
	return lipgloss.JoinVertical(lipgloss.Left,
		titleStyle.Render(title),
		m.summary.View(),
		mutedStyle.Render("esc to close"),
	)
}
