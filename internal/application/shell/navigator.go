// Package shell drives the page region of the UI: it loads a page fragment,
// runs the page's initializer and tracks which page is showing.
package shell

import (
	"bytes"
	"context"
	"errors"
	"html/template"
	"sync"

	"go.uber.org/zap"

	"github.com/garyjia/invoicedesk/internal/domain/navigation"
)

// ErrorFragment replaces the content region when a page fails to load
const ErrorFragment template.HTML = "<p>Error loading page.</p>"

// ErrFragmentNotFound is returned by a FragmentSource for an unknown page
var ErrFragmentNotFound = errors.New("page fragment not found")

// FragmentSource provides the markup template of a page
type FragmentSource interface {
	Load(ctx context.Context, page string) (*template.Template, error)
}

// Initializer prepares the data a page is rendered with
type Initializer func(ctx context.Context) (any, error)

// View is what the content region shows after a navigation
type View struct {
	Page  string           `json:"page"`
	State navigation.State `json:"state"`
	HTML  template.HTML    `json:"html"`
}

// Navigator loads pages one at a time
type Navigator struct {
	source       FragmentSource
	initializers map[string]Initializer
	logger       *zap.Logger

	navMu   sync.Mutex // serializes navigations
	mu      sync.RWMutex
	machine navigation.StateMachine
	current string
}

// NewNavigator creates a navigator with no page loaded
func NewNavigator(source FragmentSource, logger *zap.Logger) *Navigator {
	return &Navigator{
		source:       source,
		initializers: make(map[string]Initializer),
		logger:       logger,
		machine:      navigation.NewShellMachine(),
	}
}

// Register sets the initializer run after the page's fragment loads
func (n *Navigator) Register(page navigation.Page, init Initializer) {
	n.navMu.Lock()
	defer n.navMu.Unlock()
	n.initializers[string(page)] = init
}

// Start shows the dashboard, as on application launch
func (n *Navigator) Start(ctx context.Context) (*View, error) {
	return n.Navigate(ctx, string(navigation.PageDashboard))
}

// Navigate loads page into the content region. A load failure shows
// ErrorFragment and moves the shell to ERROR; there is no retry.
func (n *Navigator) Navigate(ctx context.Context, page string) (*View, error) {
	n.navMu.Lock()
	defer n.navMu.Unlock()

	tmpl, err := n.source.Load(ctx, page)
	if err != nil {
		return n.fail(page, err)
	}

	var data any
	if init, ok := n.initializers[page]; ok {
		data, err = init(ctx)
		if err != nil {
			// the page still shows, with whatever the initializer could not fill
			n.logger.Error("Page initializer failed", zap.String("page", page), zap.Error(err))
		}
	} else {
		n.logger.Warn("No matching page initializer found.", zap.String("page", page))
	}

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return n.fail(page, err)
	}

	n.mu.Lock()
	defer n.mu.Unlock()

	if p, perr := navigation.ParsePage(page); perr == nil {
		if err := n.machine.Fire(p.Trigger()); err != nil {
			n.logger.Error("Navigation rejected", zap.String("page", page), zap.Error(err))
			return nil, err
		}
	}
	n.current = page

	n.logger.Debug("Page loaded", zap.String("page", page), zap.String("state", n.machine.State().String()))
	return &View{Page: page, State: n.machine.State(), HTML: template.HTML(buf.String())}, nil
}

func (n *Navigator) fail(page string, cause error) (*View, error) {
	n.logger.Error("Error fetching the page", zap.String("page", page), zap.Error(cause))

	n.mu.Lock()
	defer n.mu.Unlock()

	if err := n.machine.Fire(navigation.TriggerLoadFailed); err != nil {
		n.logger.Error("Failed to enter error state", zap.Error(err))
	}
	n.current = ""
	return &View{Page: page, State: n.machine.State(), HTML: ErrorFragment}, cause
}

// Current returns the page showing and the shell state
func (n *Navigator) Current() (string, navigation.State) {
	n.mu.RLock()
	defer n.mu.RUnlock()
	return n.current, n.machine.State()
}

// IsShowing reports whether page is the one currently loaded
func (n *Navigator) IsShowing(page navigation.Page) bool {
	n.mu.RLock()
	defer n.mu.RUnlock()
	return n.current == string(page) && n.machine.State() == page.State()
}
