package tui

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/charmbracelet/bubbles/help"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/frods/trufflepig/internal/adapters/driving/tui/components/feed"
	"github.com/frods/trufflepig/internal/adapters/driving/tui/components/list"
	"github.com/frods/trufflepig/internal/adapters/driving/tui/components/status"
	"github.com/frods/trufflepig/internal/adapters/driving/tui/keymap"
	"github.com/frods/trufflepig/internal/adapters/driving/tui/messages"
	"github.com/frods/trufflepig/internal/adapters/driving/tui/styles"
	"github.com/frods/trufflepig/internal/core/domain"
	"github.com/frods/trufflepig/internal/core/ports/driving"
)

// historyLimit is how many recorded notifications seed the feed.
const historyLimit = 50

// listWidth is the width of the identity pane.
const listWidth = 32

// App is the monitor following the Elm architecture.
// It implements tea.Model for use with Bubbletea.
type App struct {
	ports *Ports
	ctx   context.Context
	sub   driving.Subscription

	styles *styles.Styles
	keymap *keymap.KeyMap
	help   help.Model

	list *list.IdentityList
	feed *feed.Feed
	bar  *status.Bar

	roots       []domain.RootStatus
	currentView messages.ViewType

	width  int
	height int
	ready  bool
}

// Ensure App implements tea.Model.
var _ tea.Model = (*App)(nil)

// NewApp creates a monitor and subscribes to the cache.
// Close releases the subscription.
func NewApp(ports *Ports) (*App, error) {
	if err := ports.Validate(); err != nil {
		return nil, fmt.Errorf("creating app: %w", err)
	}

	s := styles.DefaultStyles()
	km := keymap.DefaultKeyMap()

	return &App{
		ports:       ports,
		ctx:         context.Background(),
		sub:         ports.Cache.Subscribe(0),
		styles:      s,
		keymap:      km,
		help:        help.New(),
		list:        list.NewIdentityList(s),
		feed:        feed.NewFeed(s, feed.DefaultCapacity),
		bar:         status.NewBar(s, km),
		currentView: messages.ViewArtifacts,
	}, nil
}

// WithContext sets the context for the app.
func (a *App) WithContext(ctx context.Context) *App {
	a.ctx = ctx
	return a
}

// Close ends the cache subscription. Idempotent.
func (a *App) Close() {
	a.sub.Close()
}

// Init implements tea.Model.
func (a *App) Init() tea.Cmd {
	return tea.Batch(
		tea.SetWindowTitle("trufflepig monitor"),
		a.loadSnapshot(),
		a.loadHistory(),
		a.waitForNotification(),
	)
}

func (a *App) loadSnapshot() tea.Cmd {
	cache := a.ports.Cache
	return func() tea.Msg {
		return messages.SnapshotLoaded{
			Identities: cache.ListIdentities(),
			Roots:      cache.Roots(),
			Stats:      cache.Stats(),
		}
	}
}

func (a *App) loadHistory() tea.Cmd {
	if a.ports.History == nil {
		return nil
	}
	history, ctx := a.ports.History, a.ctx
	return func() tea.Msg {
		notes, err := history.Recent(ctx, historyLimit)
		return messages.HistoryLoaded{Notifications: notes, Err: err}
	}
}

func (a *App) waitForNotification() tea.Cmd {
	ch := a.sub.C()
	return func() tea.Msg {
		n, ok := <-ch
		if !ok {
			return messages.SubscriptionClosed{}
		}
		return messages.NotificationReceived{Notification: n}
	}
}

func (a *App) reconcile() tea.Cmd {
	cache, ctx := a.ports.Cache, a.ctx
	return func() tea.Msg {
		return messages.ReconcileCompleted{Err: cache.Reconcile(ctx)}
	}
}

// Update implements tea.Model.
func (a *App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		a.SetDimensions(msg.Width, msg.Height)
		return a, nil

	case tea.KeyMsg:
		return a.handleKey(msg)

	case messages.NotificationReceived:
		a.feed.Push(msg.Notification)
		return a, tea.Batch(a.loadSnapshot(), a.waitForNotification())

	case messages.SubscriptionClosed:
		a.bar.SetState(status.StateClosed)
		return a, nil

	case messages.SnapshotLoaded:
		a.list.SetItems(msg.Identities)
		a.roots = msg.Roots
		a.bar.SetStats(msg.Stats)
		return a, nil

	case messages.HistoryLoaded:
		if msg.Err != nil {
			a.bar.SetError(msg.Err)
			return a, nil
		}
		a.feed.Seed(msg.Notifications)
		return a, nil

	case messages.ReconcileCompleted:
		if msg.Err != nil {
			a.bar.SetError(msg.Err)
		} else if a.bar.State() == status.StateReconciling {
			a.bar.SetState(status.StateLive)
		}
		return a, a.loadSnapshot()
	}

	return a, nil
}

func (a *App) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	key := msg.String()

	switch {
	case keymap.Matches(key, a.keymap.Quit):
		a.Close()
		return a, tea.Quit
	case keymap.Matches(key, a.keymap.Help):
		if a.currentView == messages.ViewHelp {
			a.currentView = messages.ViewArtifacts
		} else {
			a.currentView = messages.ViewHelp
		}
	case keymap.Matches(key, a.keymap.Back):
		a.currentView = messages.ViewArtifacts
	case keymap.Matches(key, a.keymap.SwitchView):
		if a.currentView == messages.ViewArtifacts {
			a.currentView = messages.ViewEvents
		} else {
			a.currentView = messages.ViewArtifacts
		}
	case keymap.Matches(key, a.keymap.Reconcile):
		if a.bar.State() == status.StateClosed {
			return a, nil
		}
		a.bar.SetState(status.StateReconciling)
		return a, a.reconcile()
	default:
		if a.currentView == messages.ViewArtifacts {
			a.list, _ = a.list.Update(msg)
		}
	}
	return a, nil
}

// View implements tea.Model.
func (a *App) View() string {
	if !a.ready {
		return "Initialising..."
	}

	var body string
	switch a.currentView {
	case messages.ViewEvents:
		body = a.feed.View()
	case messages.ViewHelp:
		body = a.viewHelp()
	default:
		body = a.viewArtifacts()
	}

	return lipgloss.JoinVertical(lipgloss.Left,
		a.viewHeader(),
		body,
		a.bar.View(),
	)
}

func (a *App) viewHeader() string {
	lines := []string{a.styles.Title.Render("trufflepig")}
	for _, r := range a.roots {
		line := fmt.Sprintf("  %s %s", a.styles.State(r.State).Render(fmt.Sprintf("%-11s", r.State)), r.Path)
		if r.Error != "" {
			line += " " + a.styles.Muted.Render(r.Error)
		}
		lines = append(lines, line)
	}
	return strings.Join(lines, "\n") + "\n"
}

func (a *App) viewArtifacts() string {
	left := a.styles.Panel.Width(listWidth).Render(a.list.View())
	right := a.styles.Panel.Width(max(a.width-listWidth-6, 20)).Render(a.viewDetail())
	return lipgloss.JoinHorizontal(lipgloss.Top, left, right)
}

// viewDetail renders the selected artifact.
func (a *App) viewDetail() string {
	identity := a.list.SelectedItem()
	if identity == "" {
		return a.styles.Muted.Render("Nothing selected")
	}
	rec, ok := a.ports.Cache.Artifact(identity)
	if !ok {
		return a.styles.Muted.Render(identity + " is no longer indexed")
	}

	lines := []string{
		a.styles.Subtitle.Render(rec.Identity),
		"",
		a.styles.Muted.Render("file   ") + rec.SourcePath,
		a.styles.Muted.Render("format ") + rec.Format,
	}
	if len(rec.Digest) >= 12 {
		lines = append(lines, a.styles.Muted.Render("digest ")+rec.Digest[:12])
	}

	lines = append(lines, "")
	if !rec.Deployments.Declared() {
		lines = append(lines, a.styles.Muted.Render("No deployments"))
	} else {
		lines = append(lines, a.styles.Subtitle.Render("Deployments"))
		rec.Deployments.Each(func(network string, info domain.DeploymentInfo) bool {
			lines = append(lines, fmt.Sprintf("  %-10s %s%s", network, info.Address, extraFields(info)))
			return true
		})
	}
	return strings.Join(lines, "\n")
}

// extraFields lists the network entry keys other than the address.
func extraFields(info domain.DeploymentInfo) string {
	keys := make([]string, 0, len(info.Fields))
	for k := range info.Fields {
		if k != domain.AddressField {
			keys = append(keys, k)
		}
	}
	if len(keys) == 0 {
		return ""
	}
	sort.Strings(keys)
	return " (" + strings.Join(keys, ", ") + ")"
}

func (a *App) viewHelp() string {
	return a.styles.Subtitle.Render("Keys") + "\n\n" + a.help.FullHelpView(a.keymap.FullHelp())
}

// CurrentView returns the current view type.
func (a *App) CurrentView() messages.ViewType {
	return a.currentView
}

// Ready returns whether the app has received its dimensions.
func (a *App) Ready() bool {
	return a.ready
}

// SetDimensions sets the terminal dimensions.
func (a *App) SetDimensions(width, height int) {
	a.width = width
	a.height = height
	a.ready = true

	headerLines := len(a.roots) + 2
	bodyHeight := max(height-headerLines-3, 3)
	a.list.SetDimensions(listWidth, bodyHeight)
	a.feed.SetDimensions(width, bodyHeight)
	a.bar.SetWidth(width)
	a.help.Width = width
}
