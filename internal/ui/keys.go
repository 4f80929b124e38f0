package ui

import (
	"strings"

	"github.com/charmbracelet/bubbles/key"

	"github.com/intelliplan/planboard/internal/config"
)

type keyMap struct {
	up        key.Binding
	down      key.Binding
	next      key.Binding
	prev      key.Binding
	nextWeek  key.Binding
	prevWeek  key.Binding
	today     key.Binding
	viewDay   key.Binding
	viewWeek  key.Binding
	viewMonth key.Binding
	refresh   key.Binding
	help      key.Binding
	quit      key.Binding
}

func binding(cfg *config.Config, action, desc string) key.Binding {
	keys := cfg.Keys(action)
	if len(keys) == 0 {
		return key.NewBinding(key.WithDisabled())
	}
	return key.NewBinding(key.WithKeys(keys...), key.WithHelp(strings.Join(keys, "/"), desc))
}

func newKeyMap(cfg *config.Config) keyMap {
	return keyMap{
		up:        binding(cfg, "up", "up"),
		down:      binding(cfg, "down", "down"),
		next:      binding(cfg, "next", "next"),
		prev:      binding(cfg, "prev", "previous"),
		nextWeek:  binding(cfg, "next_week", "next week"),
		prevWeek:  binding(cfg, "prev_week", "previous week"),
		today:     binding(cfg, "today", "today"),
		viewDay:   binding(cfg, "view_day", "day view"),
		viewWeek:  binding(cfg, "view_week", "week view"),
		viewMonth: binding(cfg, "view_month", "month view"),
		refresh:   binding(cfg, "refresh", "refresh"),
		help:      binding(cfg, "help", "help"),
		quit:      binding(cfg, "quit", "quit"),
	}
}

func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.prev, k.next, k.today, k.help, k.quit}
}

func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.up, k.down, k.prev, k.next, k.prevWeek, k.nextWeek},
		{k.today, k.viewDay, k.viewWeek, k.viewMonth},
		{k.refresh, k.help, k.quit},
	}
}
