// Package feed renders the live notification feed.
package feed

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/frods/trufflepig/internal/adapters/driving/tui/styles"
	"github.com/frods/trufflepig/internal/core/domain"
)

// DefaultCapacity is the number of notifications kept by NewFeed.
const DefaultCapacity = 200

// Feed keeps the most recent notifications, newest first.
type Feed struct {
	items    []domain.Notification
	capacity int
	styles   *styles.Styles
	width    int
	height   int
}

// NewFeed creates a feed keeping up to capacity notifications.
func NewFeed(s *styles.Styles, capacity int) *Feed {
	if s == nil {
		s = styles.DefaultStyles()
	}
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	return &Feed{capacity: capacity, styles: s, width: 80, height: 10}
}

// Push adds a notification at the top, evicting the oldest when full.
// A notification already present is ignored.
func (f *Feed) Push(n domain.Notification) {
	if n.ID != "" {
		for _, existing := range f.items {
			if existing.ID == n.ID {
				return
			}
		}
	}
	f.items = append([]domain.Notification{n}, f.items...)
	if len(f.items) > f.capacity {
		f.items = f.items[:f.capacity]
	}
}

// Seed appends older notifications, given newest first, below the
// current ones.
func (f *Feed) Seed(older []domain.Notification) {
	for _, n := range older {
		if len(f.items) >= f.capacity {
			return
		}
		dup := false
		for _, existing := range f.items {
			if n.ID != "" && existing.ID == n.ID {
				dup = true
				break
			}
		}
		if !dup {
			f.items = append(f.items, n)
		}
	}
}

// Items returns the notifications, newest first.
func (f *Feed) Items() []domain.Notification {
	return f.items
}

// Len returns the number of notifications held.
func (f *Feed) Len() int {
	return len(f.items)
}

// View renders as many notifications as fit in the height.
func (f *Feed) View() string {
	header := f.styles.Subtitle.Render(fmt.Sprintf("Events (%d)", len(f.items)))
	if len(f.items) == 0 {
		return header + "\n\n" + f.styles.Muted.Render("Waiting for changes...")
	}

	n := min(max(f.height-2, 1), len(f.items))
	lines := make([]string, 0, n+2)
	lines = append(lines, header, "")
	for _, item := range f.items[:n] {
		lines = append(lines, f.renderItem(item))
	}
	return strings.Join(lines, "\n")
}

func (f *Feed) renderItem(n domain.Notification) string {
	ts := f.styles.Muted.Render(n.Time.Local().Format("15:04:05"))
	kind := f.styles.Kind(n.Kind).Render(fmt.Sprintf("%-7s", n.Kind))

	subject := n.Identity
	if subject == "" {
		subject = filepath.Base(n.Path)
	}
	line := fmt.Sprintf("%s %s %s", ts, kind, f.styles.Normal.Render(subject))
	if n.Kind == domain.NotifyError && n.Reason != "" {
		line += " " + f.styles.Muted.Render(n.Reason)
	}
	return line
}

// SetDimensions sets the component dimensions.
func (f *Feed) SetDimensions(width, height int) {
	f.width = width
	f.height = height
}
