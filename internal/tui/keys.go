package tui

import "charm.land/bubbles/v2/key"

// KeyMap holds the global key bindings.
type KeyMap struct {
	Quit key.Binding
}

// DefaultKeyMap returns the default global key bindings.
func DefaultKeyMap() KeyMap {
	return KeyMap{
		Quit: key.NewBinding(
			key.WithKeys("ctrl+c"),
			key.WithHelp("ctrl+c", "quit"),
		),
	}
}
