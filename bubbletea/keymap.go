package bubbletea

import "github.com/charmbracelet/bubbles/key"

// KeyMap defines the key bindings for the workbench.
type KeyMap struct {
	// Scrolling
	Up           key.Binding
	Down         key.Binding
	HalfPageUp   key.Binding
	HalfPageDown key.Binding
	GotoTop      key.Binding
	GotoBottom   key.Binding

	// Navigation
	NextSection key.Binding
	PrevSection key.Binding
	JumpSection key.Binding

	// Actions
	Open     key.Binding
	Run      key.Binding
	Download key.Binding
	Copy     key.Binding

	// Form
	Method       key.Binding
	NextGroup    key.Binding
	PrevGroup    key.Binding
	NextMetric   key.Binding
	PrevMetric   key.Binding
	ChartTheme   key.Binding
	ToggleSimple key.Binding
	ChartCursor  key.Binding
	ToggleChart  key.Binding

	// Images
	ViewImage key.Binding
	PrevImage key.Binding
	NextImage key.Binding

	Close key.Binding
	Help  key.Binding
	Quit  key.Binding
}

// DefaultKeyMap returns the default vim-style key bindings.
func DefaultKeyMap() KeyMap {
	return KeyMap{
		Up: key.NewBinding(
			key.WithKeys("k", "up"),
			key.WithHelp("k/↑", "up"),
		),
		Down: key.NewBinding(
			key.WithKeys("j", "down"),
			key.WithHelp("j/↓", "down"),
		),
		HalfPageUp: key.NewBinding(
			key.WithKeys("ctrl+u"),
			key.WithHelp("ctrl+u", "half page up"),
		),
		HalfPageDown: key.NewBinding(
			key.WithKeys("ctrl+d"),
			key.WithHelp("ctrl+d", "half page down"),
		),
		GotoTop: key.NewBinding(
			key.WithKeys("g"),
			key.WithHelp("gg", "go to top"),
		),
		GotoBottom: key.NewBinding(
			key.WithKeys("G"),
			key.WithHelp("G", "go to bottom"),
		),
		NextSection: key.NewBinding(
			key.WithKeys("tab"),
			key.WithHelp("tab", "next section"),
		),
		PrevSection: key.NewBinding(
			key.WithKeys("shift+tab"),
			key.WithHelp("shift+tab", "previous section"),
		),
		JumpSection: key.NewBinding(
			key.WithKeys("1", "2", "3", "4", "5"),
			key.WithHelp("1-5", "go to tab"),
		),
		Open: key.NewBinding(
			key.WithKeys("o"),
			key.WithHelp("o", "open csv"),
		),
		Run: key.NewBinding(
			key.WithKeys("enter", "r"),
			key.WithHelp("enter", "run"),
		),
		Download: key.NewBinding(
			key.WithKeys("d"),
			key.WithHelp("d", "download images"),
		),
		Copy: key.NewBinding(
			key.WithKeys("y"),
			key.WithHelp("y", "copy"),
		),
		Method: key.NewBinding(
			key.WithKeys("m"),
			key.WithHelp("m", "outlier method"),
		),
		NextGroup: key.NewBinding(
			key.WithKeys("c"),
			key.WithHelp("c/C", "group column"),
		),
		PrevGroup: key.NewBinding(
			key.WithKeys("C"),
		),
		NextMetric: key.NewBinding(
			key.WithKeys("v"),
			key.WithHelp("v/V", "metric"),
		),
		PrevMetric: key.NewBinding(
			key.WithKeys("V"),
		),
		ChartTheme: key.NewBinding(
			key.WithKeys("t"),
			key.WithHelp("t", "chart theme"),
		),
		ToggleSimple: key.NewBinding(
			key.WithKeys("s"),
			key.WithHelp("s", "simple mode"),
		),
		ChartCursor: key.NewBinding(
			key.WithKeys("x"),
			key.WithHelp("x", "next chart type"),
		),
		ToggleChart: key.NewBinding(
			key.WithKeys(" "),
			key.WithHelp("space", "toggle chart type"),
		),
		ViewImage: key.NewBinding(
			key.WithKeys("i"),
			key.WithHelp("i", "view images"),
		),
		PrevImage: key.NewBinding(
			key.WithKeys("h", "left"),
			key.WithHelp("h/←", "previous image"),
		),
		NextImage: key.NewBinding(
			key.WithKeys("l", "right"),
			key.WithHelp("l/→", "next image"),
		),
		Close: key.NewBinding(
			key.WithKeys("esc"),
			key.WithHelp("esc", "close"),
		),
		Help: key.NewBinding(
			key.WithKeys("?"),
			key.WithHelp("?", "more keys"),
		),
		Quit: key.NewBinding(
			key.WithKeys("q", "ctrl+c"),
			key.WithHelp("q", "quit"),
		),
	}
}

// ShortHelp implements help.KeyMap.
func (k KeyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Open, k.Run, k.NextSection, k.ViewImage, k.Download, k.Help, k.Quit}
}

// FullHelp implements help.KeyMap.
func (k KeyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Open, k.Run, k.Download, k.Copy},
		{k.NextSection, k.PrevSection, k.JumpSection},
		{k.Method, k.NextGroup, k.NextMetric, k.ChartTheme, k.ToggleSimple},
		{k.ChartCursor, k.ToggleChart, k.ViewImage},
		{k.Up, k.Down, k.GotoTop, k.GotoBottom},
		{k.Help, k.Quit},
	}
}
