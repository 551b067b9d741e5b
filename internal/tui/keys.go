package tui

import "github.com/charmbracelet/bubbles/key"

type keyMap struct {
	Up       key.Binding
	Down     key.Binding
	Left     key.Binding
	Right    key.Binding
	New      key.Binding
	Delete   key.Binding
	Toggle   key.Binding
	Approve  key.Binding
	Reject   key.Binding
	MovePend key.Binding
	MoveProg key.Binding
	MoveDone key.Binding
	Enter    key.Binding
	Back     key.Binding
	TabBoard key.Binding
	TabProj  key.Binding
	TabRep   key.Binding
	TabAgnd  key.Binding
	Tab      key.Binding
	Help     key.Binding
	Quit     key.Binding
}

var keys = keyMap{
	Up:       key.NewBinding(key.WithKeys("up", "k"), key.WithHelp("↑/k", "up")),
	Down:     key.NewBinding(key.WithKeys("down", "j"), key.WithHelp("↓/j", "down")),
	Left:     key.NewBinding(key.WithKeys("left", "h"), key.WithHelp("←/h", "prev column")),
	Right:    key.NewBinding(key.WithKeys("right", "l"), key.WithHelp("→/l", "next column")),
	New:      key.NewBinding(key.WithKeys("n"), key.WithHelp("n", "new")),
	Delete:   key.NewBinding(key.WithKeys("d"), key.WithHelp("d", "delete")),
	Toggle:   key.NewBinding(key.WithKeys("c"), key.WithHelp("c", "toggle complete")),
	Approve:  key.NewBinding(key.WithKeys("a"), key.WithHelp("a", "approve")),
	Reject:   key.NewBinding(key.WithKeys("x"), key.WithHelp("x", "reject")),
	MovePend: key.NewBinding(key.WithKeys("1"), key.WithHelp("1", "→ pending")),
	MoveProg: key.NewBinding(key.WithKeys("2"), key.WithHelp("2", "→ progress")),
	MoveDone: key.NewBinding(key.WithKeys("3"), key.WithHelp("3", "→ completed")),
	Enter:    key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "open")),
	Back:     key.NewBinding(key.WithKeys("esc"), key.WithHelp("esc", "back")),
	TabBoard: key.NewBinding(key.WithKeys("b"), key.WithHelp("b", "board")),
	TabProj:  key.NewBinding(key.WithKeys("p"), key.WithHelp("p", "projects")),
	TabRep:   key.NewBinding(key.WithKeys("r"), key.WithHelp("r", "reports")),
	TabAgnd:  key.NewBinding(key.WithKeys("g"), key.WithHelp("g", "agenda")),
	Tab:      key.NewBinding(key.WithKeys("tab"), key.WithHelp("tab", "next view")),
	Help:     key.NewBinding(key.WithKeys("?"), key.WithHelp("?", "help")),
	Quit:     key.NewBinding(key.WithKeys("q", "ctrl+c"), key.WithHelp("q", "quit")),
}

func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Left, k.Right, k.Up, k.Down, k.MoveDone, k.New, k.Help, k.Quit}
}

func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Up, k.Down, k.Left, k.Right, k.Enter, k.Back},
		{k.New, k.Delete, k.Toggle, k.MovePend, k.MoveProg, k.MoveDone},
		{k.Approve, k.Reject},
		{k.TabBoard, k.TabProj, k.TabRep, k.TabAgnd, k.Tab, k.Quit},
	}
}
