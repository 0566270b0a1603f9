package tui

import (
	"errors"
	"strconv"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/julianstephens/tandem/internal/models"
	"github.com/julianstephens/tandem/internal/wizard"
)

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.help.Width = msg.Width
		m.items.SetSize(msg.Width-4, max(msg.Height-10, 3))
		m.summary.SetSize(msg.Width-4, max(msg.Height-8, 3))
		return m, nil

	case stateMsg:
		m.setState(wizard.State(msg))
		return m, m.waitForState()

	case effectMsg:
		return m.handleEffect(msg.effect)

	case effectsClosed:
		m.quitting = true
		return m, tea.Quit

	case dispatchedMsg:
		// Validation and store failures also arrive as effects with a friendlier message.
		var verr *wizard.ValidationError
		var serr *wizard.StoreError
		if msg.err != nil && !errors.As(msg.err, &verr) && !errors.As(msg.err, &serr) && !errors.Is(msg.err, wizard.ErrInvalidEvent) {
			m.err = msg.err.Error()
		}
		return m, nil

	case tea.KeyMsg:
		return m.handleKey(msg)
	}

	if m.input.Focused() {
		var cmd tea.Cmd
		m.input, cmd = m.input.Update(msg)
		return m, cmd
	}
	return m, nil
}

func (m Model) handleEffect(e wizard.Effect) (tea.Model, tea.Cmd) {
	next := m.waitForEffect()
	switch e := e.(type) {
	case wizard.EffectNavigate:
		m.err = ""
		m.status = ""
	case wizard.EffectError:
		m.err = e.Message
		if e.Retryable {
			m.err += " (ctrl+r to retry)"
		}
	case wizard.EffectMessage:
		m.err = ""
		m.status = e.Text
	case wizard.EffectExit:
		m.Completed = e.Completed
		m.quitting = true
		return m, tea.Quit
	}
	return m, next
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	k := m.keys
	switch {
	case key.Matches(msg, k.Quit), key.Matches(msg, k.Save):
		return m, m.dispatch(wizard.ExitWithSave{})
	case key.Matches(msg, k.Discard):
		return m, m.dispatch(wizard.Discard{})
	case key.Matches(msg, k.Retry) && m.state.CanRetry:
		m.err = ""
		return m, m.dispatch(wizard.Retry{})
	}

	if m.editing {
		return m.handleNoteKey(msg)
	}
	if m.state.Step == models.StepAddTasks {
		return m.handleAddTaskKey(msg)
	}

	switch {
	case key.Matches(msg, k.Help):
		m.help.ShowAll = !m.help.ShowAll
		return m, nil
	case key.Matches(msg, k.Back):
		return m, m.dispatch(wizard.Back{})
	case key.Matches(msg, k.Note) && (m.state.Step == models.StepRating || m.state.Step == models.StepTaskReview):
		m.editing = true
		if m.state.Step == models.StepRating {
			m.input.SetValue(m.state.Note)
		}
		m.input.Placeholder = "Add a note"
		return m, m.input.Focus()
	}

	if ev := eventFor(m.state, msg, m.keys, m.input.Value()); ev != nil {
		if m.state.Step == models.StepTaskReview {
			m.input.Reset()
		}
		return m, m.dispatch(ev)
	}
	return m, nil
}

func (m Model) handleAddTaskKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	k := m.keys
	switch {
	case key.Matches(msg, k.Back) && m.input.Value() == "":
		return m, m.dispatch(wizard.Back{})
	case key.Matches(msg, k.Back):
		m.input.Reset()
		return m, nil
	case key.Matches(msg, k.Done):
		return m, m.dispatch(wizard.DoneAddingTasks{})
	case key.Matches(msg, k.Owner) && m.state.HasPartner:
		m.owner = (m.owner + 1) % len(ownerKinds)
		return m, nil
	case key.Matches(msg, k.Enter):
		ev := wizard.TaskSubmitted{Title: m.input.Value(), OwnerKind: ownerKinds[m.owner]}
		if strings.TrimSpace(ev.Title) != "" {
			m.input.Reset()
		}
		return m, m.dispatch(ev)
	}
	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m Model) handleNoteKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.CancelEdit):
		m.editing = false
		m.input.Reset()
		m.input.Blur()
		return m, nil
	case key.Matches(msg, m.keys.Enter):
		m.editing = false
		m.input.Blur()
		if m.state.Step == models.StepRating {
			note := m.input.Value()
			m.input.Reset()
			return m, m.dispatch(wizard.NoteChanged{Note: note})
		}
		// Task notes ride along with the next outcome.
		return m, nil
	}
	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

// eventFor maps a key press on a non-text step to a wizard event.
func eventFor(s wizard.State, msg tea.KeyMsg, k KeyMap, note string) wizard.Event {
	if s.Flow == models.FlowReview && !s.Completed && s.Step != models.StepSummary && key.Matches(msg, k.QuickSkip) {
		return wizard.QuickFinish{}
	}

	switch s.Step {
	case models.StepRollover:
		switch {
		case key.Matches(msg, k.Accept):
			return wizard.RolloverAccepted{}
		case key.Matches(msg, k.Skip):
			return wizard.RolloverSkipped{}
		}
	case models.StepPartnerRequests:
		switch {
		case key.Matches(msg, k.AcceptRequest):
			return wizard.RequestAccepted{}
		case key.Matches(msg, k.Discuss):
			return wizard.RequestDiscussed{}
		case key.Matches(msg, k.Decline):
			return wizard.RequestDeclined{}
		}
	case models.StepModeSelect:
		switch {
		case key.Matches(msg, k.Solo):
			return wizard.ModeSelected{Mode: models.ReviewModeSolo}
		case key.Matches(msg, k.Together):
			return wizard.ModeSelected{Mode: models.ReviewModeTogether}
		}
	case models.StepRating:
		switch {
		case key.Matches(msg, k.Rate):
			n, err := strconv.Atoi(msg.String())
			if err != nil {
				return nil
			}
			return wizard.RatingSelected{Rating: n}
		case key.Matches(msg, k.Enter):
			return wizard.RatingConfirmed{}
		}
	case models.StepTaskReview:
		switch {
		case key.Matches(msg, k.Completed):
			return wizard.OutcomeSelected{Status: models.TaskStatusCompleted, Note: note}
		case key.Matches(msg, k.Tried):
			return wizard.OutcomeSelected{Status: models.TaskStatusTried, Note: note}
		case key.Matches(msg, k.Skipped):
			return wizard.OutcomeSelected{Status: models.TaskStatusSkipped, Note: note}
		}
	}
	return nil
}
