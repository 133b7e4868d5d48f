// Package picker relays "pick a file or folder" intents to the host dialog
// and hands the chosen path back to the caller that asked for it.
package picker

import (
	"context"
	"runtime"
	"sync"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Intent asks the host to show a dialog
type Intent struct {
	RequestID string
	Kind      Kind
	Options   DialogOptions
}

// Result answers an intent. A nil Path is the "null" result.
type Result struct {
	RequestID string
	Path      *string
	Err       error
}

// Bridge correlates intents and results by request id, so any number of
// picks may be outstanding at once without crossing.
type Bridge struct {
	intents chan Intent
	goos    string
	logger  *zap.Logger

	mu      sync.Mutex
	pending map[string]chan Result
}

// Option configures the bridge
type Option func(*Bridge)

// WithGOOS overrides the OS used to choose dialog options
func WithGOOS(goos string) Option {
	return func(b *Bridge) {
		b.goos = goos
	}
}

// NewBridge creates a bridge; the host reads from Intents
func NewBridge(logger *zap.Logger, opts ...Option) *Bridge {
	b := &Bridge{
		intents: make(chan Intent),
		goos:    runtime.GOOS,
		logger:  logger,
		pending: make(map[string]chan Result),
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Intents is the stream the host consumes
func (b *Bridge) Intents() <-chan Intent {
	return b.intents
}

// Pick sends an intent and waits for its result. The wait ends with ctx; the
// pending entry is always removed on return.
func (b *Bridge) Pick(ctx context.Context, kind Kind) (string, error) {
	opts, err := OptionsFor(kind, b.goos)
	if err != nil {
		return "", err
	}

	id := uuid.NewString()
	ch := make(chan Result, 1)

	// register before sending so a fast host cannot answer into the void
	b.mu.Lock()
	b.pending[id] = ch
	b.mu.Unlock()
	defer func() {
		b.mu.Lock()
		delete(b.pending, id)
		b.mu.Unlock()
	}()

	b.logger.Debug("Sending pick intent", zap.String("request_id", id), zap.String("kind", string(kind)))

	select {
	case b.intents <- Intent{RequestID: id, Kind: kind, Options: opts}:
	case <-ctx.Done():
		return "", ctx.Err()
	}

	select {
	case res := <-ch:
		if res.Err != nil {
			return "", res.Err
		}
		if res.Path == nil {
			return "", ErrPickCancelled
		}
		return *res.Path, nil
	case <-ctx.Done():
		b.logger.Info("Pick request abandoned", zap.String("request_id", id), zap.Error(ctx.Err()))
		return "", ctx.Err()
	}
}

// Resolve delivers a result to the caller waiting on its request id
func (b *Bridge) Resolve(res Result) error {
	b.mu.Lock()
	ch, ok := b.pending[res.RequestID]
	if ok {
		delete(b.pending, res.RequestID)
	}
	b.mu.Unlock()

	if !ok {
		return ErrUnknownRequest
	}
	ch <- res
	return nil
}

// Pending reports how many picks are waiting for a result
func (b *Bridge) Pending() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.pending)
}

// PickFile lets the user choose a data file
func (b *Bridge) PickFile(ctx context.Context) (string, error) {
	return b.Pick(ctx, KindFile)
}

// PickEmailFile lets the user choose a .txt list of email addresses
func (b *Bridge) PickEmailFile(ctx context.Context) (string, error) {
	return b.Pick(ctx, KindEmailFile)
}

// PickDirectory lets the user choose a folder
func (b *Bridge) PickDirectory(ctx context.Context) (string, error) {
	return b.Pick(ctx, KindDirectory)
}
