package tui

import "github.com/charmbracelet/bubbles/key"

type KeyMap struct {
	Quit    key.Binding
	Help    key.Binding
	Back    key.Binding
	Save    key.Binding
	Discard key.Binding
	Retry   key.Binding
	Enter   key.Binding

	// Rollover
	Accept key.Binding
	Skip   key.Binding

	// Add tasks
	Owner key.Binding
	Done  key.Binding

	// Partner requests
	AcceptRequest key.Binding
	Discuss       key.Binding
	Decline       key.Binding

	// Review
	Solo       key.Binding
	Together   key.Binding
	Rate       key.Binding
	Note       key.Binding
	Completed  key.Binding
	Tried      key.Binding
	Skipped    key.Binding
	QuickSkip  key.Binding
	CancelEdit key.Binding
}

func DefaultKeyMap() KeyMap {
	return KeyMap{
		Quit: key.NewBinding(
			key.WithKeys("ctrl+c"),
			key.WithHelp("ctrl+c", "save & quit"),
		),
		Help: key.NewBinding(
			key.WithKeys("?"),
			key.WithHelp("?", "toggle help"),
		),
		Back: key.NewBinding(
			key.WithKeys("esc"),
			key.WithHelp("esc", "back"),
		),
		Save: key.NewBinding(
			key.WithKeys("ctrl+s"),
			key.WithHelp("ctrl+s", "save & exit"),
		),
		Discard: key.NewBinding(
			key.WithKeys("ctrl+x"),
			key.WithHelp("ctrl+x", "start over"),
		),
		Retry: key.NewBinding(
			key.WithKeys("ctrl+r"),
			key.WithHelp("ctrl+r", "retry"),
		),
		Enter: key.NewBinding(
			key.WithKeys("enter"),
			key.WithHelp("enter", "confirm"),
		),
		Accept: key.NewBinding(
			key.WithKeys("y", "enter"),
			key.WithHelp("y", "roll over"),
		),
		Skip: key.NewBinding(
			key.WithKeys("n"),
			key.WithHelp("n", "leave behind"),
		),
		Owner: key.NewBinding(
			key.WithKeys("tab"),
			key.WithHelp("tab", "change owner"),
		),
		Done: key.NewBinding(
			key.WithKeys("ctrl+d"),
			key.WithHelp("ctrl+d", "done adding"),
		),
		AcceptRequest: key.NewBinding(
			key.WithKeys("a"),
			key.WithHelp("a", "accept"),
		),
		Discuss: key.NewBinding(
			key.WithKeys("d"),
			key.WithHelp("d", "discuss"),
		),
		Decline: key.NewBinding(
			key.WithKeys("x"),
			key.WithHelp("x", "decline"),
		),
		Solo: key.NewBinding(
			key.WithKeys("s"),
			key.WithHelp("s", "solo"),
		),
		Together: key.NewBinding(
			key.WithKeys("t"),
			key.WithHelp("t", "together"),
		),
		Rate: key.NewBinding(
			key.WithKeys("1", "2", "3", "4", "5"),
			key.WithHelp("1-5", "rate"),
		),
		Note: key.NewBinding(
			key.WithKeys("n"),
			key.WithHelp("n", "add note"),
		),
		Completed: key.NewBinding(
			key.WithKeys("c"),
			key.WithHelp("c", "completed"),
		),
		Tried: key.NewBinding(
			key.WithKeys("t"),
			key.WithHelp("t", "tried"),
		),
		Skipped: key.NewBinding(
			key.WithKeys("s"),
			key.WithHelp("s", "skipped"),
		),
		QuickSkip: key.NewBinding(
			key.WithKeys("f"),
			key.WithHelp("f", "skip the rest"),
		),
		CancelEdit: key.NewBinding(
			key.WithKeys("esc"),
			key.WithHelp("esc", "cancel note"),
		),
	}
}
