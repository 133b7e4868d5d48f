package dispatcher

import (
	"context"

	"github.com/garyjia/invoicedesk/internal/domain/event"
)

// Handler processes domain events
type Handler func(ctx context.Context, evt *event.Event) error

// registration is a handler with the name used in logs
type registration struct {
	name    string
	handler Handler
}
