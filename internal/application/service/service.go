// Package service holds the use cases behind the shell pages: running
// automation actions, editing settings and previewing the data file.
package service

import (
	"context"
	"errors"

	"github.com/garyjia/invoicedesk/internal/application/alert"
	"github.com/garyjia/invoicedesk/internal/application/dispatcher"
	"github.com/garyjia/invoicedesk/internal/domain/event"
)

// ErrNoDataFile is returned when the preview is requested without a data file configured
var ErrNoDataFile = errors.New("no data file configured")

// Logger interface for minimal logging dependency
type Logger interface {
	Info(msg string, keysAndValues ...interface{})
	Error(msg string, keysAndValues ...interface{})
}

// Notice is the alert an operation raised, returned to the caller so the
// page that triggered it can show it directly
type Notice struct {
	Level   alert.Level `json:"level"`
	Title   string      `json:"title,omitempty"`
	Message string      `json:"message"`
}

// Text joins title and message the way the alert feed does
func (n *Notice) Text() string {
	if n == nil {
		return ""
	}
	return alert.Alert{Title: n.Title, Message: n.Message}.Text()
}

// notifier publishes notices as events so the alert feed sees them too
type notifier struct {
	dispatcher dispatcher.Dispatcher
	logger     Logger
}

func (n notifier) notify(ctx context.Context, t event.Type, notice *Notice, payload map[string]interface{}) *Notice {
	if payload == nil {
		payload = map[string]interface{}{}
	}
	payload[event.KeyLevel] = string(notice.Level)
	payload[event.KeyTitle] = notice.Title
	payload[event.KeyMessage] = notice.Message

	if err := n.dispatcher.Dispatch(ctx, event.NewEvent(t, payload)); err != nil {
		n.logger.Error("Failed to dispatch event", "type", t.String(), "error", err)
	}
	return notice
}

func infoNotice(message string) *Notice {
	return &Notice{Level: alert.LevelInfo, Message: message}
}

func errorNotice(message string) *Notice {
	return &Notice{Level: alert.LevelError, Message: message}
}
