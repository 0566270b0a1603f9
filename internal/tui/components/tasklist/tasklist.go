// Package tasklist renders the tasks a wizard step walks through, with the
// current item highlighted and decisions shown alongside.
package tasklist

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/julianstephens/tandem/internal/models"
)

type Item struct {
	Task models.Task
	// Mark is the decision or outcome recorded for the task, if any.
	Mark string
}

func (i Item) Title() string {
	if i.Mark != "" {
		return fmt.Sprintf("%s  [%s]", i.Task.Title, i.Mark)
	}
	return i.Task.Title
}

func (i Item) Description() string {
	parts := []string{string(i.Task.OwnerKind)}
	if i.Task.IsRollover() {
		parts = append(parts, "rolled over")
	}
	if i.Task.Notes != "" {
		parts = append(parts, i.Task.Notes)
	}
	return strings.Join(parts, " | ")
}

func (i Item) FilterValue() string { return i.Task.Title }

type Model struct {
	list list.Model
}

func New(width, height int) Model {
	l := list.New(nil, list.NewDefaultDelegate(), width, height)
	l.SetShowTitle(false)
	l.SetShowHelp(false) // help is rendered by the main model
	l.SetShowStatusBar(false)
	l.SetFilteringEnabled(false)
	l.DisableQuitKeybindings()
	return Model{list: l}
}

// SetTasks replaces the items and moves the cursor to index.
func (m *Model) SetTasks(tasks []models.Task, marks map[string]string, index int) {
	items := make([]list.Item, len(tasks))
	for i, t := range tasks {
		items[i] = Item{Task: t, Mark: marks[t.ID]}
	}
	m.list.SetItems(items)
	if index >= 0 && index < len(items) {
		m.list.Select(index)
	}
}

func (m Model) Len() int {
	return len(m.list.Items())
}

func (m Model) Init() tea.Cmd {
	return nil
}

// Update only forwards window-size messages; the wizard owns the cursor.
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	if _, ok := msg.(tea.WindowSizeMsg); !ok {
		return m, nil
	}
	var cmd tea.Cmd
	m.list, cmd = m.list.Update(msg)
	return m, cmd
}

func (m Model) View() string {
	if len(m.list.Items()) == 0 {
		return "\n  Nothing to go through."
	}
	return m.list.View()
}

func (m *Model) SetSize(width, height int) {
	m.list.SetSize(width, height)
}
