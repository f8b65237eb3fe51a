package canvas

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
)

// FileStore keeps each canvas as a JSON file in a directory. It is the
// default for the CLI, so canvases saved by one command are visible to the
// next.
type FileStore struct {
	mu      sync.RWMutex
	baseDir string
}

// NewFileStore creates a file-based store in baseDir, creating it if needed.
func NewFileStore(baseDir string) (*FileStore, error) {
	if baseDir == "" {
		return nil, errors.New("canvas dir is required")
	}
	if err := os.MkdirAll(baseDir, 0o700); err != nil {
		return nil, fmt.Errorf("create canvas dir: %w", err)
	}
	return &FileStore{baseDir: baseDir}, nil
}

// Dir returns the directory canvases are stored in.
func (s *FileStore) Dir() string { return s.baseDir }

func (s *FileStore) canvasPath(id string) string {
	return filepath.Join(s.baseDir, id+".json")
}

func (s *FileStore) List(ctx context.Context) ([]Summary, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	entries, err := os.ReadDir(s.baseDir)
	if err != nil {
		return nil, fmt.Errorf("read canvas dir: %w", err)
	}

	list := make([]Summary, 0, len(entries))
	for _, e := range entries {
		id, ok := strings.CutSuffix(e.Name(), ".json")
		if e.IsDir() || !ok || !validID(id) {
			continue
		}
		c, err := s.read(id)
		if err != nil {
			// Skip files removed or corrupted since ReadDir.
			continue
		}
		list = append(list, c.Summary())
	}
	sortSummaries(list)
	return list, nil
}

func (s *FileStore) Get(ctx context.Context, id string) (*Canvas, error) {
	if !validID(id) {
		return nil, ErrNotFound
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.read(id)
}

func (s *FileStore) Create(ctx context.Context, name string, drawings []json.RawMessage) (*Canvas, error) {
	c, err := newCanvas(name, drawings)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.write(c); err != nil {
		return nil, err
	}
	return c, nil
}

func (s *FileStore) Replace(ctx context.Context, id, name string, drawings []json.RawMessage) error {
	if !validID(id) {
		return ErrNotFound
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	c, err := s.read(id)
	if err != nil {
		return err
	}
	if err := c.apply(name, drawings); err != nil {
		return err
	}
	return s.write(c)
}

func (s *FileStore) Delete(ctx context.Context, id string) error {
	if !validID(id) {
		return ErrNotFound
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	err := os.Remove(s.canvasPath(id))
	if os.IsNotExist(err) {
		return ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("remove canvas file: %w", err)
	}
	return nil
}

// Close does nothing for the file store.
func (s *FileStore) Close() error { return nil }

func (s *FileStore) read(id string) (*Canvas, error) {
	data, err := os.ReadFile(s.canvasPath(id))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("read canvas file: %w", err)
	}

	var c Canvas
	if err := json.Unmarshal(data, &c); err != nil {
		return nil, fmt.Errorf("parse canvas %s: %w", id, err)
	}
	return &c, nil
}

// write replaces the canvas file atomically via a temp file and rename.
func (s *FileStore) write(c *Canvas) error {
	data, err := json.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshal canvas: %w", err)
	}

	tmp, err := os.CreateTemp(s.baseDir, ".canvas-*.tmp")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("write canvas file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("write canvas file: %w", err)
	}
	if err := os.Rename(tmp.Name(), s.canvasPath(c.ID)); err != nil {
		return fmt.Errorf("write canvas file: %w", err)
	}
	return nil
}

var _ Store = (*FileStore)(nil)
