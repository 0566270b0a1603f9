// Package tui is the terminal shell around a wizard session. It renders the
// session state, turns key presses into wizard events, and reacts to effects.
package tui

import (
	"context"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/julianstephens/tandem/internal/models"
	"github.com/julianstephens/tandem/internal/tui/components/summary"
	"github.com/julianstephens/tandem/internal/tui/components/tasklist"
	"github.com/julianstephens/tandem/internal/wizard"
)

// Session is the part of *wizard.Controller the shell drives.
type Session interface {
	Dispatch(ctx context.Context, ev wizard.Event) error
	State() wizard.State
	Effects() <-chan wizard.Effect
	Subscribe(fn func(wizard.State)) (cancel func())
}

type (
	stateMsg      wizard.State
	effectMsg     struct{ effect wizard.Effect }
	effectsClosed struct{}
	dispatchedMsg struct{ err error }
)

var ownerKinds = []models.OwnerKind{models.OwnerSelf, models.OwnerPartner, models.OwnerShared}

type Model struct {
	ctx     context.Context
	session Session
	states  chan wizard.State
	cancel  func()

	state    wizard.State
	keys     KeyMap
	help     help.Model
	input    textinput.Model
	items    tasklist.Model
	summary  summary.Model
	owner    int
	editing  bool
	status   string
	err      string
	quitting bool
	// Completed reports how the session ended.
	Completed bool
	width     int
	height    int
}

func New(ctx context.Context, s Session) Model {
	ti := textinput.New()
	ti.Placeholder = "What needs doing this week?"
	ti.CharLimit = 200

	m := Model{
		ctx:     ctx,
		session: s,
		states:  make(chan wizard.State, 1),
		keys:    DefaultKeyMap(),
		help:    help.New(),
		input:   ti,
		items:   tasklist.New(0, 0),
		summary: summary.New(0, 0),
	}
	m.cancel = s.Subscribe(m.push)
	m.setState(s.State())
	return m
}

// push keeps only the newest state; the shell always renders the latest one.
func (m Model) push(s wizard.State) {
	for {
		select {
		case m.states <- s:
			return
		default:
		}
		select {
		case <-m.states:
		default:
		}
	}
}

func (m Model) Init() tea.Cmd {
	return tea.Batch(textinput.Blink, m.waitForState(), m.waitForEffect())
}

func (m Model) waitForState() tea.Cmd {
	return func() tea.Msg {
		select {
		case s := <-m.states:
			return stateMsg(s)
		case <-m.ctx.Done():
			return nil
		}
	}
}

func (m Model) waitForEffect() tea.Cmd {
	effects := m.session.Effects()
	return func() tea.Msg {
		e, ok := <-effects
		if !ok {
			return effectsClosed{}
		}
		return effectMsg{effect: e}
	}
}

func (m Model) dispatch(ev wizard.Event) tea.Cmd {
	return func() tea.Msg {
		return dispatchedMsg{err: m.session.Dispatch(m.ctx, ev)}
	}
}

func (m *Model) setState(s wizard.State) {
	prevStep := m.state.Step
	m.state = s
	m.items.SetTasks(s.Items(), marks(s), s.Index)
	if s.Step != prevStep {
		m.editing = false
		m.input.Reset()
	}
	if s.Step == models.StepAddTasks {
		m.input.Focus()
	} else if !m.editing {
		m.input.Blur()
	}
	m.summary.SetData(summary.Data{
		Flow:       s.Flow,
		Week:       s.WeekID.String(),
		TasksAdded: s.TasksAdded,
		RolledOver: s.RolledOver,
		Accepted:   s.Accepted,
		Rating:     s.Rating,
		Note:       s.Note,
		Mode:       s.Mode,
		Completion: s.Completion,
		Streak:     s.Streak,
		Tasks:      s.Tasks,
		Outcomes:   s.Outcomes,
	})
}

func marks(s wizard.State) map[string]string {
	out := make(map[string]string, len(s.Decisions)+len(s.Outcomes))
	for id, d := range s.Decisions {
		out[id] = string(d)
	}
	for id, o := range s.Outcomes {
		out[id] = string(o)
	}
	return out
}

func (m Model) ShortHelp() []key.Binding {
	k := m.keys
	var keys []key.Binding
	switch m.state.Step {
	case models.StepRollover:
		keys = []key.Binding{k.Accept, k.Skip}
	case models.StepAddTasks:
		keys = []key.Binding{k.Enter, k.Done}
		if m.state.HasPartner {
			keys = append(keys, k.Owner)
		}
	case models.StepPartnerRequests:
		keys = []key.Binding{k.AcceptRequest, k.Discuss, k.Decline}
	case models.StepModeSelect:
		keys = []key.Binding{k.Solo, k.Together}
	case models.StepRating:
		keys = []key.Binding{k.Rate, k.Note, k.Enter}
	case models.StepTaskReview:
		keys = []key.Binding{k.Completed, k.Tried, k.Skipped, k.Note}
	}
	if m.state.Flow == models.FlowReview && m.state.Step != models.StepSummary && !m.state.Completed {
		keys = append(keys, k.QuickSkip)
	}
	if m.state.CanRetry {
		keys = append(keys, k.Retry)
	}
	return append(keys, k.Back, k.Save, k.Help)
}

func (m Model) FullHelp() [][]key.Binding {
	k := m.keys
	return [][]key.Binding{
		m.ShortHelp(),
		{k.Back, k.Save, k.Discard, k.Quit},
	}
}

// Run drives s in a full-screen program until the session exits. It reports
// whether the flow was completed.
func Run(ctx context.Context, s Session) (bool, error) {
	m := New(ctx, s)
	defer m.cancel()

	final, err := tea.NewProgram(m, tea.WithAltScreen(), tea.WithContext(ctx)).Run()
	if err != nil {
		return false, err
	}
	if fm, ok := final.(Model); ok {
		return fm.Completed, nil
	}
	return false, nil
}
