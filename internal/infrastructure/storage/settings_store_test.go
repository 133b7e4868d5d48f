package storage

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/garyjia/invoicedesk/internal/domain/settings"
)

func sampleSettings() *settings.Settings {
	return &settings.Settings{
		InvoicesFolder: "/data/invoices",
		ReportsFolder:  "/data/reports",
		FilePath:       "/data/clients.xlsx",
		EmailServer:    "smtp.example.com",
		EmailUser:      "office@example.com",
		EmailPassword:  "secret",
		ScheduleTime:   "08:30",
		ManagerEmails:  []string{"a@b.co", "c@d.org", "a@b.co"},
	}
}

func TestJSONSettingsStore_RoundTrip(t *testing.T) {
	ctx := context.Background()
	store := NewJSONSettingsStore(filepath.Join(t.TempDir(), "settings.json"), zap.NewNop())

	want := sampleSettings()
	require.NoError(t, store.Save(ctx, want))

	got, err := store.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, want, got)
}

func TestJSONSettingsStore_SaveFormat(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "settings.json")
	store := NewJSONSettingsStore(path, zap.NewNop())

	require.NoError(t, store.Save(ctx, sampleSettings()))

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	text := string(raw)
	assert.True(t, strings.HasPrefix(text, "{\n  \"invoicesFolder\": \"/data/invoices\""), text)
	assert.Contains(t, text, "\n  \"managerEmails\": [\n    \"a@b.co\",")
}

func TestJSONSettingsStore_Load(t *testing.T) {
	ctx := context.Background()

	t.Run("missing file", func(t *testing.T) {
		store := NewJSONSettingsStore(filepath.Join(t.TempDir(), "settings.json"), zap.NewNop())

		_, err := store.Load(ctx)
		assert.ErrorIs(t, err, settings.ErrSettingsNotFound)

		got, err := store.LoadOrDefault(ctx)
		require.NoError(t, err)
		assert.Equal(t, settings.Defaults(), *got)
	})

	t.Run("missing keys decode to zero values", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "settings.json")
		require.NoError(t, os.WriteFile(path, []byte(`{"emailUser":"x@y.com"}`), 0644))

		got, err := NewJSONSettingsStore(path, zap.NewNop()).Load(ctx)
		require.NoError(t, err)
		assert.Equal(t, "x@y.com", got.EmailUser)
		assert.Empty(t, got.ScheduleTime)
		assert.Empty(t, got.ManagerEmails)
	})

	t.Run("truncated file is a decode error", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "settings.json")
		require.NoError(t, os.WriteFile(path, []byte(`{"invoicesFolder": "/da`), 0644))

		_, err := NewJSONSettingsStore(path, zap.NewNop()).Load(ctx)
		require.Error(t, err)
		assert.NotErrorIs(t, err, settings.ErrSettingsNotFound)
	})

	t.Run("leftover temp file does not shadow the document", func(t *testing.T) {
		dir := t.TempDir()
		path := filepath.Join(dir, "settings.json")
		store := NewJSONSettingsStore(path, zap.NewNop())
		require.NoError(t, store.Save(ctx, sampleSettings()))

		// An interrupted save leaves only a partial temp file.
		partial := filepath.Join(dir, ".settings.json.123.tmp")
		require.NoError(t, os.WriteFile(partial, []byte(`{"invoicesFolder": "/ne`), 0644))

		got, err := store.Load(ctx)
		require.NoError(t, err)
		assert.Equal(t, sampleSettings(), got)
	})

	t.Run("cancelled context", func(t *testing.T) {
		cctx, cancel := context.WithCancel(ctx)
		cancel()

		store := NewJSONSettingsStore(filepath.Join(t.TempDir(), "settings.json"), zap.NewNop())
		_, err := store.Load(cctx)
		assert.ErrorIs(t, err, context.Canceled)
		assert.ErrorIs(t, store.Save(cctx, sampleSettings()), context.Canceled)
	})
}
