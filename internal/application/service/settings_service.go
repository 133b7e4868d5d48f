package service

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sync"

	"github.com/garyjia/invoicedesk/internal/application/alert"
	"github.com/garyjia/invoicedesk/internal/application/dispatcher"
	"github.com/garyjia/invoicedesk/internal/application/picker"
	"github.com/garyjia/invoicedesk/internal/application/port"
	"github.com/garyjia/invoicedesk/internal/domain/event"
	"github.com/garyjia/invoicedesk/internal/domain/settings"
)

// User-facing messages of the settings page
const (
	MsgInvalidEmail     = "Please enter a valid email address."
	MsgEmailsLoaded     = "Emails loaded successfully!"
	MsgNoValidEmails    = "No valid emails found in the file."
	MsgEmailFileFailed  = "Failed to load emails from file. Please check the file and try again."
	MsgNoFileSelected   = "No file selected. Please choose a valid file."
	MsgSettingsSaved    = "Settings saved successfully!"
	MsgSettingsNotSaved = "Failed to save settings. Please check the logs for details."
)

// SettingsService edits an in-memory draft of the settings and persists it
// on explicit save. Every edit replaces the draft with a new value.
type SettingsService interface {
	Draft(ctx context.Context) (settings.Settings, error)
	Reload(ctx context.Context) (settings.Settings, error)
	Update(ctx context.Context, form settings.Form) (settings.Settings, error)
	AddManagerEmail(ctx context.Context, email string) (settings.Settings, *Notice, error)
	RemoveManagerEmail(ctx context.Context, index int) (settings.Settings, error)
	ImportManagerEmails(ctx context.Context) (settings.Settings, *Notice, error)
	ImportManagerEmailsFromFile(ctx context.Context, path string) (settings.Settings, *Notice, error)
	PickPath(ctx context.Context, field settings.Field) (settings.Settings, *Notice, error)
	Save(ctx context.Context, form *settings.Form) (settings.Settings, *Notice, error)
}

type settingsServiceImpl struct {
	store  port.SettingsStore
	picker port.Picker
	notifier

	mu     sync.Mutex
	draft  settings.Settings
	loaded bool
}

// NewSettingsService creates a new SettingsService
func NewSettingsService(store port.SettingsStore, p port.Picker, d dispatcher.Dispatcher, logger Logger) SettingsService {
	return &settingsServiceImpl{
		store:    store,
		picker:   p,
		notifier: notifier{dispatcher: d, logger: logger},
	}
}

func (s *settingsServiceImpl) Draft(ctx context.Context) (settings.Settings, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.ensureLoaded(ctx); err != nil {
		return settings.Settings{}, err
	}
	return s.draft.Clone(), nil
}

// Reload discards the draft and reads the stored settings again, falling back
// to defaults when the file does not exist
func (s *settingsServiceImpl) Reload(ctx context.Context) (settings.Settings, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.loaded = false
	if err := s.ensureLoaded(ctx); err != nil {
		return settings.Settings{}, err
	}
	return s.draft.Clone(), nil
}

func (s *settingsServiceImpl) ensureLoaded(ctx context.Context) error {
	if s.loaded {
		return nil
	}

	loaded, err := s.store.Load(ctx)
	switch {
	case errors.Is(err, settings.ErrSettingsNotFound):
		s.logger.Info("Settings file not found. Loading defaults.", "path", s.store.Path())
		s.draft = settings.Defaults()
	case err != nil:
		s.logger.Error("Failed to load settings", "path", s.store.Path(), "error", err)
		return fmt.Errorf("load settings: %w", err)
	default:
		s.draft = loaded.Clone()
	}
	s.loaded = true
	return nil
}

// edit applies fn to the current draft and keeps the result on success
func (s *settingsServiceImpl) edit(ctx context.Context, fn func(settings.Settings) (settings.Settings, error)) (settings.Settings, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.ensureLoaded(ctx); err != nil {
		return settings.Settings{}, err
	}

	next, err := fn(s.draft)
	if err != nil {
		return s.draft.Clone(), err
	}
	s.draft = next
	return next.Clone(), nil
}

func (s *settingsServiceImpl) Update(ctx context.Context, form settings.Form) (settings.Settings, error) {
	return s.edit(ctx, func(cur settings.Settings) (settings.Settings, error) {
		return cur.ApplyForm(form)
	})
}

func (s *settingsServiceImpl) AddManagerEmail(ctx context.Context, email string) (settings.Settings, *Notice, error) {
	out, err := s.edit(ctx, func(cur settings.Settings) (settings.Settings, error) {
		return cur.AddManagerEmail(email)
	})
	if errors.Is(err, settings.ErrInvalidEmail) {
		return out, s.notify(ctx, event.TypeNotice, errorNotice(MsgInvalidEmail), nil), err
	}
	return out, nil, err
}

func (s *settingsServiceImpl) RemoveManagerEmail(ctx context.Context, index int) (settings.Settings, error) {
	return s.edit(ctx, func(cur settings.Settings) (settings.Settings, error) {
		return cur.RemoveManagerEmailAt(index)
	})
}

// ImportManagerEmails asks the host for a .txt file and appends its valid
// addresses. A rejected file type was already alerted by the picker host.
func (s *settingsServiceImpl) ImportManagerEmails(ctx context.Context) (settings.Settings, *Notice, error) {
	path, err := s.picker.PickEmailFile(ctx)
	if err != nil {
		if !errors.Is(err, picker.ErrPickCancelled) && !errors.Is(err, picker.ErrInvalidFileType) {
			s.logger.Error("Email file pick failed", "error", err)
		}
		cur, derr := s.Draft(ctx)
		if derr != nil {
			return cur, nil, derr
		}
		return cur, nil, err
	}
	return s.ImportManagerEmailsFromFile(ctx, path)
}

func (s *settingsServiceImpl) ImportManagerEmailsFromFile(ctx context.Context, path string) (settings.Settings, *Notice, error) {
	if !picker.IsTextFile(path) {
		cur, _ := s.Draft(ctx)
		return cur, s.notify(ctx, event.TypePickRejected, &Notice{Level: alert.LevelError, Title: picker.TitleInvalidFileType, Message: picker.MsgInvalidFileType}, map[string]interface{}{event.KeyPath: path}), picker.ErrInvalidFileType
	}

	data, err := os.ReadFile(path)
	if err != nil {
		s.logger.Error("Error reading email file", "path", path, "error", err)
		cur, _ := s.Draft(ctx)
		return cur, s.notify(ctx, event.TypeNotice, errorNotice(MsgEmailFileFailed), map[string]interface{}{event.KeyPath: path}), fmt.Errorf("read email file: %w", err)
	}

	added := 0
	out, err := s.edit(ctx, func(cur settings.Settings) (settings.Settings, error) {
		next, n, err := cur.AppendManagerEmailsFromText(string(data))
		added = n
		return next, err
	})
	if errors.Is(err, settings.ErrNoValidEmails) {
		return out, s.notify(ctx, event.TypeNotice, errorNotice(MsgNoValidEmails), map[string]interface{}{event.KeyPath: path}), err
	}
	if err != nil {
		return out, nil, err
	}

	s.logger.Info("Manager emails imported", "path", path, "count", added)
	return out, s.notify(ctx, event.TypeNotice, infoNotice(MsgEmailsLoaded), map[string]interface{}{event.KeyPath: path}), nil
}

// PickPath fills a folder or data file setting from the host picker. A
// cancelled folder pick leaves the draft untouched without a notice.
func (s *settingsServiceImpl) PickPath(ctx context.Context, field settings.Field) (settings.Settings, *Notice, error) {
	if !field.IsValid() {
		cur, _ := s.Draft(ctx)
		return cur, nil, fmt.Errorf("%w: %s", settings.ErrUnknownField, field)
	}

	var path string
	var err error
	if field.IsDirectory() {
		path, err = s.picker.PickDirectory(ctx)
	} else {
		path, err = s.picker.PickFile(ctx)
	}

	if err != nil {
		cur, derr := s.Draft(ctx)
		if derr != nil {
			return cur, nil, derr
		}
		if errors.Is(err, picker.ErrPickCancelled) && !field.IsDirectory() {
			return cur, s.notify(ctx, event.TypeNotice, errorNotice(MsgNoFileSelected), nil), err
		}
		return cur, nil, err
	}

	out, err := s.edit(ctx, func(cur settings.Settings) (settings.Settings, error) {
		return cur.WithPath(field, path)
	})
	return out, nil, err
}

// Save writes the draft, with the form's text fields applied first when
// given, and announces the result
func (s *settingsServiceImpl) Save(ctx context.Context, form *settings.Form) (settings.Settings, *Notice, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.ensureLoaded(ctx); err != nil {
		return settings.Settings{}, nil, err
	}

	next := s.draft
	if form != nil {
		applied, err := s.draft.ApplyForm(*form)
		if err != nil {
			return s.draft.Clone(), nil, err
		}
		next = applied
	}

	if err := s.store.Save(ctx, &next); err != nil {
		s.logger.Error("Error saving settings", "path", s.store.Path(), "error", err)
		return s.draft.Clone(), s.notify(ctx, event.TypeNotice, errorNotice(MsgSettingsNotSaved), nil), err
	}

	s.draft = next
	return next.Clone(), s.notify(ctx, event.TypeSettingsSaved, infoNotice(MsgSettingsSaved), map[string]interface{}{event.KeyPath: s.store.Path()}), nil
}
