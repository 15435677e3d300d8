package page

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	domain "github.com/kasu-devops/sitekeeper/internal/domain/page"
)

// TestFileRepository_NotFound verifies Load returns ErrNotFound for missing file.
func TestFileRepository_NotFound(t *testing.T) {
	t.Parallel()
	repo := NewFileRepository(filepath.Join(t.TempDir(), "missing.json"))
	doc, err := repo.Load(context.Background())
	require.ErrorIs(t, err, ErrNotFound)
	require.Nil(t, doc)
}

// TestFileRepository_SaveLoad_Roundtrip ensures Save followed by Load returns an equal document.
func TestFileRepository_SaveLoad_Roundtrip(t *testing.T) {
	t.Parallel()
	file := filepath.Join(t.TempDir(), "page.json")
	repo := NewFileRepository(file)

	dismissed := time.Now().UTC().Truncate(time.Second)
	want := &domain.Document{
		CapturedAt: dismissed.Add(-time.Minute),
		Alerts: []*domain.Alert{
			{ID: "a1", Position: 0, Severity: "success", Message: "Login successful!", HasDismissControl: true, DismissedAt: &dismissed},
			{ID: "a2", Position: 1, Severity: "error", Message: "Invalid username or password"},
		},
	}

	require.NoError(t, repo.Save(context.Background(), want))

	got, err := repo.Load(context.Background())
	require.NoError(t, err)
	require.Len(t, got.Alerts, 2)
	require.Equal(t, want.Alerts[0].ID, got.Alerts[0].ID)
	require.True(t, got.Alerts[0].Dismissed())
	require.False(t, got.Alerts[1].Dismissed())
	require.Equal(t, want.Alerts[0].DismissedAt.Unix(), got.Alerts[0].DismissedAt.Unix())

	_, err = os.Stat(file)
	require.NoError(t, err)
}
