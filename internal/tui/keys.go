package tui

import "github.com/charmbracelet/bubbles/key"

type keyMap struct {
	Analyze     key.Binding
	Rewrite     key.Binding
	Focus       key.Binding
	SwitchTab   key.Binding
	Up          key.Binding
	Down        key.Binding
	Category    key.Binding
	NextCat     key.Binding
	PrevCat     key.Binding
	UseOptim    key.Binding
	CopyCode    key.Binding
	CopyOptim   key.Binding
	ClosePanel  key.Binding
	Sample      key.Binding
	NextLang    key.Binding
	PrevLang    key.Binding
	Clear       key.Binding
	ClearHist   key.Binding
	RefreshHist key.Binding
	Help        key.Binding
	Quit        key.Binding
	ForceQuit   key.Binding
}

var keys = keyMap{
	Analyze: key.NewBinding(
		key.WithKeys("ctrl+r", "f5"),
		key.WithHelp("ctrl+r", "analyze"),
	),
	Rewrite: key.NewBinding(
		key.WithKeys("ctrl+o", "f6"),
		key.WithHelp("ctrl+o", "optimize"),
	),
	Focus: key.NewBinding(
		key.WithKeys("esc"),
		key.WithHelp("esc", "editor/results"),
	),
	SwitchTab: key.NewBinding(
		key.WithKeys("ctrl+t", "f2"),
		key.WithHelp("ctrl+t", "analyze/history"),
	),
	Up: key.NewBinding(
		key.WithKeys("up", "k"),
		key.WithHelp("↑/k", "up"),
	),
	Down: key.NewBinding(
		key.WithKeys("down", "j"),
		key.WithHelp("↓/j", "down"),
	),
	Category: key.NewBinding(
		key.WithKeys("1", "2", "3", "4", "5"),
		key.WithHelp("1-5", "category"),
	),
	NextCat: key.NewBinding(
		key.WithKeys("tab", "l"),
		key.WithHelp("tab", "next category"),
	),
	PrevCat: key.NewBinding(
		key.WithKeys("shift+tab", "h"),
		key.WithHelp("S-tab", "prev category"),
	),
	UseOptim: key.NewBinding(
		key.WithKeys("u"),
		key.WithHelp("u", "use optimized"),
	),
	CopyCode: key.NewBinding(
		key.WithKeys("y"),
		key.WithHelp("y", "copy code"),
	),
	CopyOptim: key.NewBinding(
		key.WithKeys("Y"),
		key.WithHelp("Y", "copy optimized"),
	),
	ClosePanel: key.NewBinding(
		key.WithKeys("x"),
		key.WithHelp("x", "close optimized"),
	),
	Sample: key.NewBinding(
		key.WithKeys("s"),
		key.WithHelp("s", "load sample"),
	),
	NextLang: key.NewBinding(
		key.WithKeys("]"),
		key.WithHelp("]", "next language"),
	),
	PrevLang: key.NewBinding(
		key.WithKeys("["),
		key.WithHelp("[", "prev language"),
	),
	Clear: key.NewBinding(
		key.WithKeys("ctrl+x"),
		key.WithHelp("ctrl+x", "clear"),
	),
	ClearHist: key.NewBinding(
		key.WithKeys("c"),
		key.WithHelp("c", "clear history"),
	),
	RefreshHist: key.NewBinding(
		key.WithKeys("r"),
		key.WithHelp("r", "reload history"),
	),
	Help: key.NewBinding(
		key.WithKeys("?"),
		key.WithHelp("?", "help"),
	),
	Quit: key.NewBinding(
		key.WithKeys("q"),
		key.WithHelp("q", "quit"),
	),
	ForceQuit: key.NewBinding(
		key.WithKeys("ctrl+c"),
		key.WithHelp("ctrl+c", "quit"),
	),
}
