package tui

import "github.com/charmbracelet/bubbles/key"

type keyMap struct {
	Ask         key.Binding
	Open        key.Binding
	Reset       key.Binding
	ToggleCtx   key.Binding
	MoreContext key.Binding
	LessContext key.Binding
	ScrollUp    key.Binding
	ScrollDown  key.Binding
	Back        key.Binding
	Quit        key.Binding
}

func defaultKeyMap() keyMap {
	return keyMap{
		Ask:         key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "ask")),
		Open:        key.NewBinding(key.WithKeys("ctrl+o"), key.WithHelp("ctrl+o", "open document")),
		Reset:       key.NewBinding(key.WithKeys("ctrl+r"), key.WithHelp("ctrl+r", "clear chat")),
		ToggleCtx:   key.NewBinding(key.WithKeys("ctrl+t"), key.WithHelp("ctrl+t", "toggle sources")),
		MoreContext: key.NewBinding(key.WithKeys("ctrl+n"), key.WithHelp("ctrl+n", "k+1")),
		LessContext: key.NewBinding(key.WithKeys("ctrl+p"), key.WithHelp("ctrl+p", "k-1")),
		ScrollUp:    key.NewBinding(key.WithKeys("pgup"), key.WithHelp("pgup", "scroll up")),
		ScrollDown:  key.NewBinding(key.WithKeys("pgdown"), key.WithHelp("pgdn", "scroll down")),
		Back:        key.NewBinding(key.WithKeys("esc"), key.WithHelp("esc", "back")),
		Quit:        key.NewBinding(key.WithKeys("ctrl+c", "ctrl+d"), key.WithHelp("ctrl+c", "quit")),
	}
}

func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Ask, k.Open, k.Reset, k.ToggleCtx, k.MoreContext, k.LessContext, k.Quit}
}

func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Ask, k.Open, k.Reset},
		{k.ToggleCtx, k.MoreContext, k.LessContext},
		{k.ScrollUp, k.ScrollDown, k.Back, k.Quit},
	}
}
