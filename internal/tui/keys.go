package tui

import (
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/verte-zerg/keydrill/internal/engine"
)

type keyMap struct {
	Quit     key.Binding
	Restart  key.Binding
	Continue key.Binding
}

func defaultKeyMap() keyMap {
	return keyMap{
		Quit:     key.NewBinding(key.WithKeys("ctrl+c"), key.WithHelp("ctrl+c", "quit")),
		Restart:  key.NewBinding(key.WithKeys("esc"), key.WithHelp("esc", "restart")),
		Continue: key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "continue")),
	}
}

// keyNames maps a terminal key event to engine key names. Pasted text and
// unknown keys map to nothing.
func keyNames(msg tea.KeyMsg) []string {
	if msg.Paste || msg.Alt {
		return nil
	}
	switch msg.Type {
	case tea.KeyBackspace, tea.KeyDelete:
		return []string{engine.KeyBackspace}
	case tea.KeySpace:
		return []string{" "}
	case tea.KeyEnter:
		return []string{engine.KeyEnter}
	case tea.KeyTab:
		return []string{engine.KeyTab}
	case tea.KeyRunes:
		out := make([]string, 0, len(msg.Runes))
		for _, r := range msg.Runes {
			out = append(out, string(r))
		}
		return out
	default:
		return nil
	}
}
