// Package notify provides the process-wide notification list and global
// loading state observed by presentation layers.
package notify

import (
	"strconv"
	"sync"
	"time"
)

// Kind is the severity of a notification.
type Kind string

const (
	KindSuccess Kind = "success"
	KindError   Kind = "error"
	KindWarning Kind = "warning"
	KindInfo    Kind = "info"
)

// DefaultAutoDismiss is applied when a notification does not set its own
// dismissal horizon. Sticky means the notification stays until dismissed.
const (
	DefaultAutoDismiss = 5 * time.Second
	Sticky             = time.Duration(-1)
)

// Notification is a user-facing toast. AutoDismiss zero means "use the
// default", Sticky means never auto-remove.
type Notification struct {
	ID          string
	Kind        Kind
	Title       string
	Message     string
	AutoDismiss time.Duration
}

// EventType describes a change to the notification list.
type EventType string

const (
	EventPublished EventType = "published"
	EventDismissed EventType = "dismissed"
)

// Event is delivered to subscribers on every list change.
type Event struct {
	Type         EventType
	Notification Notification
}

// Center is the notification and loading sink. Construct one per process
// (or per test) and pass it by reference; there is no package-level state.
type Center struct {
	mu            sync.Mutex
	notifications []Notification
	timers        map[string]*time.Timer
	subscribers   []chan Event
	nextID        uint64

	active         int
	loading        bool
	loadingMessage string
}

// NewCenter creates an empty notification center.
func NewCenter() *Center {
	return &Center{
		timers: make(map[string]*time.Timer),
	}
}

// Publish assigns a unique id, appends the notification and schedules its
// automatic removal. It returns the assigned id.
func (c *Center) Publish(n Notification) string {
	c.mu.Lock()
	c.nextID++
	n.ID = "n" + strconv.FormatUint(c.nextID, 10)
	if n.AutoDismiss == 0 {
		n.AutoDismiss = DefaultAutoDismiss
	}
	c.notifications = append(c.notifications, n)

	if n.AutoDismiss != Sticky {
		id := n.ID
		c.timers[id] = time.AfterFunc(n.AutoDismiss, func() {
			c.Dismiss(id)
		})
	}
	c.mu.Unlock()

	c.broadcast(Event{Type: EventPublished, Notification: n})
	return n.ID
}

// Dismiss removes a notification by id. It is idempotent.
func (c *Center) Dismiss(id string) {
	c.mu.Lock()
	if timer, ok := c.timers[id]; ok {
		timer.Stop()
		delete(c.timers, id)
	}
	var removed *Notification
	for i, n := range c.notifications {
		if n.ID == id {
			removed = &n
			c.notifications = append(c.notifications[:i], c.notifications[i+1:]...)
			break
		}
	}
	c.mu.Unlock()

	if removed != nil {
		c.broadcast(Event{Type: EventDismissed, Notification: *removed})
	}
}

// Notifications returns a snapshot of the current list in publish order.
func (c *Center) Notifications() []Notification {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]Notification, len(c.notifications))
	copy(out, c.notifications)
	return out
}

// Subscribe returns a channel receiving every publish and dismiss event.
// Slow subscribers drop events rather than blocking publishers.
func (c *Center) Subscribe() <-chan Event {
	c.mu.Lock()
	defer c.mu.Unlock()
	ch := make(chan Event, 64)
	c.subscribers = append(c.subscribers, ch)
	return ch
}

func (c *Center) broadcast(ev Event) {
	c.mu.Lock()
	subs := make([]chan Event, len(c.subscribers))
	copy(subs, c.subscribers)
	c.mu.Unlock()

	for _, ch := range subs {
		select {
		case ch <- ev:
		default:
		}
	}
}

// IncrementActive records the start of a tracked request.
func (c *Center) IncrementActive() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.active++
}

// DecrementActive records a settled request. Mismatched calls clamp at zero.
func (c *Center) DecrementActive() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.active > 0 {
		c.active--
	}
}

// Active returns the number of requests currently in flight.
func (c *Center) Active() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.active
}

// SetLoading sets the explicit loading flag and message.
func (c *Center) SetLoading(loading bool, message string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.loading = loading
	c.loadingMessage = message
}

// IsLoading reports whether a loading indicator should be visible: any
// request in flight, or the explicit flag set.
func (c *Center) IsLoading() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.active > 0 || c.loading
}

// LoadingMessage returns the current explicit loading message.
func (c *Center) LoadingMessage() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.loadingMessage
}
