package services

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"golang.org/x/time/rate"

	"github.com/frods/trufflepig/internal/core/domain"
	"github.com/frods/trufflepig/internal/core/ports/driving"
	"github.com/frods/trufflepig/internal/logger"
)

// Ensure subscription implements the interface.
var _ driving.Subscription = (*subscription)(nil)

// Notifier fans cache notifications out to subscribers.
// Publish never blocks: a notification that does not fit in a
// subscriber's buffer is dropped for that subscriber and counted.
type Notifier struct {
	mu     sync.RWMutex
	subs   map[string]*subscription
	closed bool

	buffer  int
	dropped atomic.Uint64
	warn    *rate.Limiter
	now     func() time.Time
}

// NewNotifier creates a notifier whose subscriptions default to buffer slots.
func NewNotifier(buffer int) *Notifier {
	if buffer <= 0 {
		buffer = domain.DefaultNotifyBuffer
	}
	return &Notifier{
		subs:   make(map[string]*subscription),
		buffer: buffer,
		// One overflow warning per five seconds is enough to flag a slow consumer.
		warn: rate.NewLimiter(rate.Every(5*time.Second), 1),
		now:  time.Now,
	}
}

// Subscribe registers a subscriber. A non-positive buffer uses the default.
// Subscribing to a closed notifier returns an already closed subscription.
func (n *Notifier) Subscribe(buffer int) driving.Subscription {
	if buffer <= 0 {
		buffer = n.buffer
	}
	sub := &subscription{
		id:       uuid.New().String(),
		ch:       make(chan domain.Notification, buffer),
		notifier: n,
	}

	n.mu.Lock()
	defer n.mu.Unlock()
	if n.closed {
		close(sub.ch)
		return sub
	}
	n.subs[sub.id] = sub
	return sub
}

// Publish stamps the notification and offers it to every subscriber.
func (n *Notifier) Publish(note domain.Notification) domain.Notification {
	if note.ID == "" {
		note.ID = uuid.New().String()
	}
	if note.Time.IsZero() {
		note.Time = n.now()
	}

	n.mu.RLock()
	defer n.mu.RUnlock()
	for _, sub := range n.subs {
		select {
		case sub.ch <- note:
		default:
			total := n.dropped.Add(1)
			if n.warn.Allow() {
				logger.Warn("Notification buffer full for subscriber %s, dropping (%d dropped so far)", sub.id, total)
			}
		}
	}
	return note
}

// Dropped returns how many deliveries were dropped.
func (n *Notifier) Dropped() uint64 {
	return n.dropped.Load()
}

// Subscribers returns the number of open subscriptions.
func (n *Notifier) Subscribers() int {
	n.mu.RLock()
	defer n.mu.RUnlock()
	return len(n.subs)
}

// Close ends every subscription. Later subscriptions start closed.
func (n *Notifier) Close() {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.closed {
		return
	}
	n.closed = true
	for id, sub := range n.subs {
		close(sub.ch)
		delete(n.subs, id)
	}
}

func (n *Notifier) unsubscribe(id string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	sub, ok := n.subs[id]
	if !ok {
		return
	}
	delete(n.subs, id)
	close(sub.ch)
}

type subscription struct {
	id       string
	ch       chan domain.Notification
	notifier *Notifier
}

func (s *subscription) ID() string                    { return s.id }
func (s *subscription) C() <-chan domain.Notification { return s.ch }
func (s *subscription) Close()                        { s.notifier.unsubscribe(s.id) }
