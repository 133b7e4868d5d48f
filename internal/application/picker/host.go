package picker

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"go.uber.org/zap"

	"github.com/garyjia/invoicedesk/internal/application/dispatcher"
	"github.com/garyjia/invoicedesk/internal/domain/event"
)

// Dialog shows a native selection dialog. ok is false when the user cancels.
type Dialog interface {
	Open(ctx context.Context, opts DialogOptions) (path string, ok bool, err error)
}

// Host consumes intents from a bridge, shows the dialog and resolves the
// request. Each intent is handled on its own goroutine.
type Host struct {
	bridge     *Bridge
	dialog     Dialog
	dispatcher dispatcher.Dispatcher
	logger     *zap.Logger

	mu        sync.Mutex
	isRunning bool
	cancel    context.CancelFunc
	wg        sync.WaitGroup
}

// NewHost creates the host side of the bridge. dispatcher may be nil.
func NewHost(bridge *Bridge, dialog Dialog, d dispatcher.Dispatcher, logger *zap.Logger) *Host {
	return &Host{bridge: bridge, dialog: dialog, dispatcher: d, logger: logger}
}

// Name returns the worker name for identification
func (h *Host) Name() string {
	return "PickerHost"
}

// Start begins serving intents until ctx ends or Stop is called
func (h *Host) Start(ctx context.Context) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.isRunning {
		return fmt.Errorf("picker host is already running")
	}

	runCtx, cancel := context.WithCancel(ctx)
	h.cancel = cancel
	h.isRunning = true

	h.wg.Add(1)
	go h.serve(runCtx)
	return nil
}

// Stop cancels open dialogs and waits for handlers to finish
func (h *Host) Stop() error {
	h.mu.Lock()
	if !h.isRunning {
		h.mu.Unlock()
		return nil
	}
	h.isRunning = false
	h.cancel()
	h.mu.Unlock()

	h.wg.Wait()
	return nil
}

func (h *Host) serve(ctx context.Context) {
	defer h.wg.Done()
	for {
		select {
		case <-ctx.Done():
			return
		case intent := <-h.bridge.Intents():
			h.wg.Add(1)
			go func() {
				defer h.wg.Done()
				h.handle(ctx, intent)
			}()
		}
	}
}

// handle shows the dialog for one intent and resolves it
func (h *Host) handle(ctx context.Context, intent Intent) {
	res := h.pick(ctx, intent)
	if err := h.bridge.Resolve(res); err != nil && !errors.Is(err, ErrUnknownRequest) {
		h.logger.Error("Failed to resolve pick", zap.String("request_id", intent.RequestID), zap.Error(err))
	} else if err != nil {
		// caller gave up before the dialog closed
		h.logger.Debug("Pick result dropped", zap.String("request_id", intent.RequestID))
	}
}

func (h *Host) pick(ctx context.Context, intent Intent) Result {
	res := Result{RequestID: intent.RequestID}

	path, ok, err := h.dialog.Open(ctx, intent.Options)
	if err != nil {
		h.logger.Error("Dialog failed", zap.String("kind", string(intent.Kind)), zap.Error(err))
		res.Err = fmt.Errorf("open dialog: %w", err)
		return res
	}
	if !ok || path == "" {
		res.Err = ErrPickCancelled
		return res
	}

	// the native filter is advisory on some platforms
	if intent.Kind == KindEmailFile && !IsTextFile(path) {
		h.logger.Info("Rejected non-text email file", zap.String("path", path))
		h.publishRejection(ctx, intent.RequestID, path)
		res.Err = ErrInvalidFileType
		return res
	}

	res.Path = &path
	return res
}

func (h *Host) publishRejection(ctx context.Context, requestID, path string) {
	if h.dispatcher == nil {
		return
	}
	evt := event.NewEventWithCorrelation(event.TypePickRejected, map[string]interface{}{
		event.KeyTitle:   TitleInvalidFileType,
		event.KeyMessage: MsgInvalidFileType,
		event.KeyPath:    path,
	}, requestID)
	if err := h.dispatcher.Dispatch(ctx, evt); err != nil {
		h.logger.Error("Failed to publish pick rejection", zap.Error(err))
	}
}
