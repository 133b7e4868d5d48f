// Package web embeds the shell page and the page fragments it loads.
package web

import (
	"context"
	"embed"
	"fmt"
	"html/template"

	"github.com/garyjia/invoicedesk/internal/application/shell"
)

//go:embed index.html pages/*.html
var assets embed.FS

// Fragments serves the embedded page templates, parsed once
type Fragments struct {
	pages *template.Template
}

// NewFragments parses every page fragment
func NewFragments() (*Fragments, error) {
	pages, err := template.ParseFS(assets, "pages/*.html")
	if err != nil {
		return nil, fmt.Errorf("parse page fragments: %w", err)
	}
	return &Fragments{pages: pages}, nil
}

// Load returns the fragment of page
func (f *Fragments) Load(ctx context.Context, page string) (*template.Template, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	t := f.pages.Lookup(page + ".html")
	if t == nil {
		return nil, fmt.Errorf("%w: %s", shell.ErrFragmentNotFound, page)
	}
	return t, nil
}

// Index returns the shell document
func Index() ([]byte, error) {
	return assets.ReadFile("index.html")
}
