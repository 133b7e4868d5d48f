package storage

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"path/filepath"

	"go.uber.org/zap"

	"github.com/garyjia/invoicedesk/internal/domain/settings"
)

// JSONSettingsStore keeps the settings as one pretty-printed JSON object.
// Last write wins; there is no lock file and no schema validation.
type JSONSettingsStore struct {
	path   string
	files  *LocalFileStorage
	logger *zap.Logger
}

// NewJSONSettingsStore creates a store for the file at path
func NewJSONSettingsStore(path string, logger *zap.Logger) *JSONSettingsStore {
	return &JSONSettingsStore{
		path:   path,
		files:  NewLocalFileStorage(filepath.Dir(path), logger),
		logger: logger,
	}
}

// Path returns the settings file location
func (s *JSONSettingsStore) Path() string {
	return s.path
}

// Load reads the settings file. An absent file is reported with
// settings.ErrSettingsNotFound; missing keys decode to zero values.
func (s *JSONSettingsStore) Load(ctx context.Context) (*settings.Settings, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	data, err := s.files.ReadFile(s.path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("%w: %s", settings.ErrSettingsNotFound, s.path)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read settings: %w", err)
	}

	var out settings.Settings
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, fmt.Errorf("failed to decode settings %s: %w", s.path, err)
	}
	return &out, nil
}

// LoadOrDefault returns the stored settings, or the defaults when the file
// does not exist yet. The absence is logged, never surfaced.
func (s *JSONSettingsStore) LoadOrDefault(ctx context.Context) (*settings.Settings, error) {
	loaded, err := s.Load(ctx)
	if errors.Is(err, settings.ErrSettingsNotFound) {
		s.logger.Info("Settings file not found. Loading defaults.", zap.String("path", s.path))
		defaults := settings.Defaults()
		return &defaults, nil
	}
	return loaded, err
}

// Save writes the settings with two-space indentation, replacing the file
// atomically.
func (s *JSONSettingsStore) Save(ctx context.Context, st *settings.Settings) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	if err := enc.Encode(st); err != nil {
		return fmt.Errorf("failed to encode settings: %w", err)
	}

	if err := s.files.SaveFile(s.path, bytes.TrimRight(buf.Bytes(), "\n")); err != nil {
		return fmt.Errorf("failed to save settings: %w", err)
	}

	s.logger.Info("Settings saved", zap.String("path", s.path))
	return nil
}
