package list

import (
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
)

func TestIdentityList_Empty(t *testing.T) {
	l := NewIdentityList(nil)

	assert.Equal(t, "", l.SelectedItem())
	assert.Contains(t, l.View(), "No artifacts")
}

func TestIdentityList_Navigation(t *testing.T) {
	l := NewIdentityList(nil)
	l.SetItems([]string{"A", "B", "C"})

	l.MoveUp()
	assert.Equal(t, 0, l.Selected())

	l, _ = l.Update(tea.KeyMsg{Type: tea.KeyDown})
	l, _ = l.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'j'}})
	assert.Equal(t, "C", l.SelectedItem())

	l.MoveDown()
	assert.Equal(t, 2, l.Selected())

	l, _ = l.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'k'}})
	assert.Equal(t, "B", l.SelectedItem())
}

func TestIdentityList_SetItemsKeepsSelection(t *testing.T) {
	l := NewIdentityList(nil)
	l.SetItems([]string{"A", "B", "C"})
	l.MoveDown()

	l.SetItems([]string{"0", "A", "B"})
	assert.Equal(t, "B", l.SelectedItem())

	l.SetItems([]string{"X"})
	assert.Equal(t, "X", l.SelectedItem())
}

func TestIdentityList_ViewWindowsAroundSelection(t *testing.T) {
	l := NewIdentityList(nil)
	l.SetDimensions(20, 4)
	l.SetItems([]string{"A1", "A2", "A3", "A4", "A5"})
	for range 4 {
		l.MoveDown()
	}

	view := l.View()

	assert.Contains(t, view, "Artifacts (5)")
	assert.Contains(t, view, "A5")
	assert.NotContains(t, view, "A1")
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "short", truncate("short", 10))
	assert.Equal(t, "Regi…", truncate("Registry", 5))
}
