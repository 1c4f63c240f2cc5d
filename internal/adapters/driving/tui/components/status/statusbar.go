// Package status provides the status bar for the monitor.
package status

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/frods/trufflepig/internal/adapters/driving/tui/keymap"
	"github.com/frods/trufflepig/internal/adapters/driving/tui/styles"
	"github.com/frods/trufflepig/internal/core/domain"
)

// State represents the monitor state for display.
type State string

const (
	StateLive        State = "live"
	StateReconciling State = "reconciling"
	StateError       State = "error"
	StateClosed      State = "closed"
)

// Bar displays cache statistics and keybinding hints.
type Bar struct {
	styles  *styles.Styles
	keymap  *keymap.KeyMap
	state   State
	message string
	stats   domain.CacheStats
	width   int
}

// NewBar creates a new status bar component.
func NewBar(s *styles.Styles, km *keymap.KeyMap) *Bar {
	if s == nil {
		s = styles.DefaultStyles()
	}
	if km == nil {
		km = keymap.DefaultKeyMap()
	}
	return &Bar{
		styles: s,
		keymap: km,
		state:  StateLive,
		width:  80,
	}
}

// View renders the status bar.
func (b *Bar) View() string {
	style := b.styles.StatusBar
	inner := b.width - style.GetHorizontalPadding()

	left := b.renderLeft()
	right := b.renderRight(inner - lipgloss.Width(left) - 1)

	padding := max(inner-lipgloss.Width(left)-lipgloss.Width(right), 1)
	return style.Width(b.width).MaxHeight(1).Render(left + strings.Repeat(" ", padding) + right)
}

func (b *Bar) renderLeft() string {
	counts := fmt.Sprintf("%d artifacts, %d files", b.stats.Identities, b.stats.Records)
	if b.stats.Dropped > 0 {
		counts += fmt.Sprintf(", %d dropped", b.stats.Dropped)
	}

	switch b.state {
	case StateReconciling:
		return b.styles.Warning.Render("Rescanning...") + " " + b.styles.Muted.Render(counts)
	case StateError:
		msg := "Error"
		if b.message != "" {
			msg = "Error: " + b.message
		}
		return b.styles.Error.Render(msg)
	case StateClosed:
		return b.styles.Error.Render("Cache closed")
	default:
		return b.styles.Success.Render("Live") + " " + b.styles.Normal.Render(counts)
	}
}

// renderRight renders key hints no wider than avail, dropping the
// leading hints first.
func (b *Bar) renderRight(avail int) string {
	bindings := b.keymap.ShortHelp()
	hints := make([]string, 0, len(bindings))
	for _, binding := range bindings {
		h := binding.Help()
		hints = append(hints, fmt.Sprintf("%s: %s", h.Key, h.Desc))
	}
	for len(hints) > 0 && lipgloss.Width(strings.Join(hints, " | ")) > avail {
		hints = hints[1:]
	}
	return b.styles.Muted.Render(strings.Join(hints, " | "))
}

// SetState sets the current state and clears the message.
func (b *Bar) SetState(state State) {
	b.state = state
	b.message = ""
}

// SetError switches to the error state with a message.
func (b *Bar) SetError(err error) {
	b.state = StateError
	b.message = err.Error()
}

// State returns the current state.
func (b *Bar) State() State {
	return b.state
}

// Message returns the current message.
func (b *Bar) Message() string {
	return b.message
}

// SetStats sets the cache statistics shown.
func (b *Bar) SetStats(stats domain.CacheStats) {
	b.stats = stats
}

// SetWidth sets the status bar width.
func (b *Bar) SetWidth(width int) {
	b.width = width
}
