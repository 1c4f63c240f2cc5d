// Package list provides list display components for the monitor.
package list

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/frods/trufflepig/internal/adapters/driving/tui/styles"
)

// IdentityList displays artifact identities in a navigable list.
type IdentityList struct {
	items    []string
	selected int
	styles   *styles.Styles
	width    int
	height   int
}

// NewIdentityList creates an empty identity list.
func NewIdentityList(s *styles.Styles) *IdentityList {
	if s == nil {
		s = styles.DefaultStyles()
	}
	return &IdentityList{styles: s, width: 30, height: 10}
}

// Update handles navigation keys.
func (l *IdentityList) Update(msg tea.Msg) (*IdentityList, tea.Cmd) {
	if msg, ok := msg.(tea.KeyMsg); ok {
		switch msg.String() {
		case "up", "k":
			l.MoveUp()
		case "down", "j":
			l.MoveDown()
		}
	}
	return l, nil
}

// View renders the visible window of identities around the selection.
func (l *IdentityList) View() string {
	header := l.styles.Subtitle.Render(fmt.Sprintf("Artifacts (%d)", len(l.items)))
	if len(l.items) == 0 {
		return header + "\n\n" + l.styles.Muted.Render("No artifacts")
	}

	visible := max(l.height-2, 1)
	start := 0
	if l.selected >= visible {
		start = l.selected - visible + 1
	}
	end := min(start+visible, len(l.items))

	lines := make([]string, 0, end-start+2)
	lines = append(lines, header, "")
	for i := start; i < end; i++ {
		name := truncate(l.items[i], l.width-2)
		if i == l.selected {
			lines = append(lines, l.styles.Selected.Render("> "+name))
		} else {
			lines = append(lines, l.styles.Normal.Render("  "+name))
		}
	}
	return strings.Join(lines, "\n")
}

func truncate(s string, n int) string {
	n = max(n, 4)
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}

// SetItems replaces the identities, keeping the selection on the same
// identity when it is still present.
func (l *IdentityList) SetItems(items []string) {
	current := l.SelectedItem()
	l.items = items
	l.selected = 0
	for i, item := range items {
		if item == current {
			l.selected = i
			break
		}
	}
}

// Items returns the identities.
func (l *IdentityList) Items() []string {
	return l.items
}

// Selected returns the index of the selected identity.
func (l *IdentityList) Selected() int {
	return l.selected
}

// SelectedItem returns the selected identity, or "" when empty.
func (l *IdentityList) SelectedItem() string {
	if l.selected < 0 || l.selected >= len(l.items) {
		return ""
	}
	return l.items[l.selected]
}

// MoveUp moves selection up.
func (l *IdentityList) MoveUp() {
	if l.selected > 0 {
		l.selected--
	}
}

// MoveDown moves selection down.
func (l *IdentityList) MoveDown() {
	if l.selected < len(l.items)-1 {
		l.selected++
	}
}

// SetDimensions sets the component dimensions.
func (l *IdentityList) SetDimensions(width, height int) {
	l.width = width
	l.height = height
}
