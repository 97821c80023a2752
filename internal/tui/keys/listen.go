package keys

import "github.com/charmbracelet/bubbles/key"

// ListenKeys are the bindings of the listen screen.
type ListenKeys struct {
	Quit    key.Binding
	Help    key.Binding
	Restart key.Binding
	Stop    key.Binding
	Clear   key.Binding
	Up      key.Binding
	Down    key.Binding
}

func NewListenKeys() ListenKeys {
	return ListenKeys{
		Quit: key.NewBinding(
			key.WithKeys("q", "Q", "ctrl+c"),
			key.WithHelp("q/ctrl+c", "quit"),
		),
		Help: key.NewBinding(
			key.WithKeys("?"),
			key.WithHelp("?", "toggle help"),
		),
		Restart: key.NewBinding(
			key.WithKeys("r"),
			key.WithHelp("r", "restart bridge"),
		),
		Stop: key.NewBinding(
			key.WithKeys("s"),
			key.WithHelp("s", "stop bridge"),
		),
		Clear: key.NewBinding(
			key.WithKeys("c"),
			key.WithHelp("c", "clear scans"),
		),
		Up: key.NewBinding(
			key.WithKeys("up", "k"),
			key.WithHelp("↑/k", "previous scan"),
		),
		Down: key.NewBinding(
			key.WithKeys("down", "j"),
			key.WithHelp("↓/j", "next scan"),
		),
	}
}

func (k ListenKeys) ShortHelp() []key.Binding {
	return []key.Binding{k.Help, k.Restart, k.Stop, k.Quit}
}

func (k ListenKeys) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Restart, k.Stop, k.Clear},
		{k.Up, k.Down},
		{k.Help, k.Quit},
	}
}
