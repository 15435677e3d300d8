package sweeper

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/kasu-devops/sitekeeper/internal/config"
	repo "github.com/kasu-devops/sitekeeper/internal/repository/page"
)

// TestRun_SweepsAndPersists drives the public entry point against real
// config and snapshot files and verifies dismissals are written back.
func TestRun_SweepsAndPersists(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	cfgPath := filepath.Join(dir, config.DefaultConfigFilename)
	pagePath := filepath.Join(dir, "page.json")

	require.NoError(t, config.Save(cfgPath, &config.Config{PageFile: pagePath}))

	repository := repo.NewFileRepository(pagePath)
	require.NoError(t, repository.Save(context.Background(), newTestDocument()))

	err := Run(context.Background(), &Options{
		ConfigPath:   cfgPath,
		DismissDelay: 20 * time.Millisecond,
	})
	require.NoError(t, err)

	persisted, err := repository.Load(context.Background())
	require.NoError(t, err)
	require.True(t, persisted.Alert("a1").Dismissed())
	require.False(t, persisted.Alert("a2").Dismissed())
	require.True(t, persisted.Alert("a3").Dismissed())
}

// TestRun_MissingSnapshot surfaces a load failure for an absent page file.
func TestRun_MissingSnapshot(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	cfgPath := filepath.Join(dir, config.DefaultConfigFilename)
	cfg := &config.Config{PageFile: filepath.Join(dir, "missing.json")}
	require.NoError(t, config.Save(cfgPath, cfg))

	err := Run(context.Background(), &Options{ConfigPath: cfgPath})
	require.ErrorIs(t, err, repo.ErrNotFound)
}
