package port

import (
	"context"

	"github.com/garyjia/invoicedesk/internal/domain/settings"
)

// SettingsStore persists the single settings document.
// Load returns an error wrapping settings.ErrSettingsNotFound when the file is absent.
type SettingsStore interface {
	Load(ctx context.Context) (*settings.Settings, error)
	Save(ctx context.Context, s *settings.Settings) error
	Path() string
}
