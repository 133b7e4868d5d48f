// Package alert keeps the user-facing messages raised by automation runs,
// settings saves and picker rejections until the shell displays them.
package alert

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/garyjia/invoicedesk/internal/application/dispatcher"
	"github.com/garyjia/invoicedesk/internal/domain/event"
)

// Level is the severity of an alert
type Level string

const (
	LevelInfo  Level = "info"
	LevelError Level = "error"
)

// DefaultCapacity bounds how many alerts the feed retains
const DefaultCapacity = 100

// Alert is one message shown to the user
type Alert struct {
	ID        string    `json:"id"`
	Seq       int64     `json:"seq"`
	Level     Level     `json:"level"`
	Title     string    `json:"title,omitempty"`
	Message   string    `json:"message"`
	CreatedAt time.Time `json:"created_at"`
}

// Text is what a dialog would show: the title, if any, then the message
func (a Alert) Text() string {
	if a.Title == "" {
		return a.Message
	}
	return a.Title + ": " + a.Message
}

// Feed is a bounded, ordered alert buffer. Readers poll with the last
// sequence number they have seen.
type Feed struct {
	mu       sync.Mutex
	alerts   []Alert
	capacity int
	nextSeq  int64
}

// NewFeed creates a feed keeping at most capacity alerts
func NewFeed(capacity int) *Feed {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	return &Feed{capacity: capacity, nextSeq: 1}
}

// Raise appends an alert, dropping the oldest when full
func (f *Feed) Raise(level Level, title, message string) Alert {
	f.mu.Lock()
	defer f.mu.Unlock()

	a := Alert{
		ID:        uuid.NewString(),
		Seq:       f.nextSeq,
		Level:     level,
		Title:     title,
		Message:   message,
		CreatedAt: time.Now(),
	}
	f.nextSeq++

	f.alerts = append(f.alerts, a)
	if over := len(f.alerts) - f.capacity; over > 0 {
		f.alerts = append([]Alert(nil), f.alerts[over:]...)
	}
	return a
}

// Since returns alerts with a sequence number greater than after, oldest first
func (f *Feed) Since(after int64) []Alert {
	f.mu.Lock()
	defer f.mu.Unlock()

	out := make([]Alert, 0)
	for _, a := range f.alerts {
		if a.Seq > after {
			out = append(out, a)
		}
	}
	return out
}

// Subscribe wires the feed to every event type that carries a user message
func (f *Feed) Subscribe(d dispatcher.Dispatcher) {
	for _, t := range []event.Type{
		event.TypeAutomationSucceeded,
		event.TypeAutomationFailed,
		event.TypeSettingsSaved,
		event.TypePreviewFailed,
		event.TypePickRejected,
		event.TypeNotice,
	} {
		d.SubscribeNamed(t, "alert-feed", f.handle)
	}
}

func (f *Feed) handle(_ context.Context, evt *event.Event) error {
	level := Level(evt.GetPayloadString(event.KeyLevel))
	if level == "" {
		level = LevelInfo
		if evt.Type == event.TypeAutomationFailed || evt.Type == event.TypePreviewFailed || evt.Type == event.TypePickRejected {
			level = LevelError
		}
	}
	f.Raise(level, evt.GetPayloadString(event.KeyTitle), evt.GetPayloadString(event.KeyMessage))
	return nil
}
