package page

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/kasu-devops/sitekeeper/internal/config"
	domain "github.com/kasu-devops/sitekeeper/internal/domain/page"
)

// Repository defines persistence operations for a page snapshot.
type Repository interface {
	Load(ctx context.Context) (*domain.Document, error)
	Save(ctx context.Context, doc *domain.Document) error
}

// FileRepository persists the page snapshot to a JSON file on disk.
// The server-rendered page is exported once; the sweeper reads it,
// dismisses what it can and writes the result back.
type FileRepository struct {
	// path is the filesystem location of the JSON snapshot file.
	path string
	// mu protects concurrent access to the snapshot file.
	mu sync.Mutex
}

// ErrNotFound is returned when the snapshot file does not exist yet.
var ErrNotFound = errors.New("page snapshot not found")

// NewFileRepository creates a repository that reads/writes JSON at the provided path.
func NewFileRepository(path string) *FileRepository {
	return &FileRepository{
		path: filepath.Clean(path),
	}
}

// Load reads the page snapshot from disk.
func (r *FileRepository) Load(_ context.Context) (*domain.Document, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	contents, err := os.ReadFile(r.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, ErrNotFound
		}

		return nil, fmt.Errorf("read page snapshot: %w", err)
	}

	var doc domain.Document
	if err = json.Unmarshal(contents, &doc); err != nil {
		return nil, fmt.Errorf("decode page snapshot: %w", err)
	}

	return &doc, nil
}

// Save writes the page snapshot to disk using JSON representation.
func (r *FileRepository) Save(_ context.Context, doc *domain.Document) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return fmt.Errorf("encode page snapshot: %w", err)
	}

	if err = os.WriteFile(r.path, data, config.DefaultFilePermissions); err != nil {
		return fmt.Errorf("write page snapshot: %w", err)
	}

	return nil
}
