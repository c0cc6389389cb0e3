package tui

import "github.com/charmbracelet/bubbles/key"

type keyMap struct {
	Check        key.Binding
	PrevLesson   key.Binding
	NextLesson   key.Binding
	PrevExercise key.Binding
	NextExercise key.Binding
	ToggleEditor key.Binding
	ScrollUp     key.Binding
	ScrollDown   key.Binding
	Dismiss      key.Binding
	Quit         key.Binding
}

func defaultKeyMap() keyMap {
	return keyMap{
		Check:        key.NewBinding(key.WithKeys("f5", "ctrl+r"), key.WithHelp("f5", "check")),
		PrevLesson:   key.NewBinding(key.WithKeys("f2"), key.WithHelp("f2/f3", "lesson")),
		NextLesson:   key.NewBinding(key.WithKeys("f3")),
		PrevExercise: key.NewBinding(key.WithKeys("f7"), key.WithHelp("f7/f8", "exercise")),
		NextExercise: key.NewBinding(key.WithKeys("f8")),
		ToggleEditor: key.NewBinding(key.WithKeys("esc"), key.WithHelp("esc", "edit/view")),
		ScrollUp:     key.NewBinding(key.WithKeys("pgup"), key.WithHelp("pgup/pgdn", "results")),
		ScrollDown:   key.NewBinding(key.WithKeys("pgdown")),
		Dismiss:      key.NewBinding(key.WithKeys("enter", "esc"), key.WithHelp("enter", "dismiss")),
		Quit:         key.NewBinding(key.WithKeys("ctrl+c"), key.WithHelp("ctrl+c", "quit")),
	}
}

// ShortHelp implements help.KeyMap.
func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Check, k.PrevLesson, k.PrevExercise, k.ToggleEditor, k.ScrollUp, k.Quit}
}

// FullHelp implements help.KeyMap.
func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{k.ShortHelp()}
}
