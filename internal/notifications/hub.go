// Package notifications delivers user-facing messages (toasts) produced by the controller
// components. Presentation is up to the subscriber.
package notifications

import (
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/charlesng35/rasconsole/pkg/errors"
	"github.com/charlesng35/rasconsole/pkg/logger"
)

// Level classifies a notification.
type Level string

const (
	LevelInfo    Level = "info"
	LevelSuccess Level = "success"
	LevelWarning Level = "warning"
	LevelError   Level = "error"
)

// Notification is one message for the user.
type Notification struct {
	Level   Level     `json:"level"`
	Message string    `json:"message"`
	Time    time.Time `json:"time"`
}

func (n Notification) String() string {
	return fmt.Sprintf("[%s] %s", n.Level, n.Message)
}

// Notifier accepts notifications.
type Notifier interface {
	Notify(n Notification)
}

// Infof sends an info notification.
func Infof(n Notifier, format string, args ...any) { send(n, LevelInfo, format, args...) }

// Successf sends a success notification.
func Successf(n Notifier, format string, args ...any) { send(n, LevelSuccess, format, args...) }

// Warnf sends a warning notification.
func Warnf(n Notifier, format string, args ...any) { send(n, LevelWarning, format, args...) }

// Failure sends an error notification carrying the user-facing text of err.
func Failure(n Notifier, err error) {
	if err == nil {
		return
	}
	send(n, LevelError, "%s", errors.UserMessage(err))
}

func send(n Notifier, level Level, format string, args ...any) {
	if n == nil {
		return
	}
	n.Notify(Notification{Level: level, Message: fmt.Sprintf(format, args...), Time: time.Now()})
}

// Hub fans notifications out to subscribers and mirrors them to the log.
type Hub struct {
	mu          sync.RWMutex
	subscribers map[*subscriber]struct{}
	log         *zap.Logger
}

type subscriber struct {
	send chan Notification
}

// NewHub constructs a notification hub.
func NewHub() *Hub {
	return &Hub{
		subscribers: make(map[*subscriber]struct{}),
		log:         logger.WithModule("notifications"),
	}
}

// Subscribe registers a subscriber with a buffer of size notifications. The returned
// function unsubscribes and closes the channel.
func (h *Hub) Subscribe(size int) (<-chan Notification, func()) {
	if size <= 0 {
		size = 16
	}
	sub := &subscriber{send: make(chan Notification, size)}

	h.mu.Lock()
	h.subscribers[sub] = struct{}{}
	h.mu.Unlock()

	var once sync.Once
	return sub.send, func() {
		once.Do(func() {
			h.mu.Lock()
			delete(h.subscribers, sub)
			h.mu.Unlock()
			close(sub.send)
		})
	}
}

// Notify implements Notifier.
func (h *Hub) Notify(n Notification) {
	if n.Time.IsZero() {
		n.Time = time.Now()
	}
	h.log.Debug("notification", zap.String("level", string(n.Level)), zap.String("message", n.Message))

	h.mu.RLock()
	defer h.mu.RUnlock()
	for sub := range h.subscribers {
		select {
		case sub.send <- n:
		default:
			// Drop if buffer full to avoid blocking the controller.
		}
	}
}

// Recorder keeps every notification; used by tests and batch commands.
type Recorder struct {
	mu    sync.Mutex
	items []Notification
}

// Notify implements Notifier.
func (r *Recorder) Notify(n Notification) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.items = append(r.items, n)
}

// All returns the recorded notifications.
func (r *Recorder) All() []Notification {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Notification(nil), r.items...)
}

// Last returns the most recent notification.
func (r *Recorder) Last() (Notification, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.items) == 0 {
		return Notification{}, false
	}
	return r.items[len(r.items)-1], true
}
