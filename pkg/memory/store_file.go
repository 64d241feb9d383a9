package memory

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/vikasprajapat2/nexa/pkg/logger"
)

// FileStore keeps the model as a JSON document on disk. Saves go through a
// temp file and rename so a failed write never truncates the previous model.
type FileStore struct {
	path string
}

func NewFileStore(path string) (*FileStore, error) {
	if path == "" {
		return nil, fmt.Errorf("knowledge file path is required")
	}
	return &FileStore{path: path}, nil
}

func (s *FileStore) Describe() string { return "file:" + s.path }

func (s *FileStore) Load(ctx context.Context) (*KnowledgeModel, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	data, err := os.ReadFile(s.path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return NewKnowledgeModel(), nil
		}
		return nil, fmt.Errorf("%w: read %s: %w", ErrStorage, s.path, err)
	}
	m, err := decodeModel(data)
	if errors.Is(err, ErrUnreadableModel) {
		s.setAside()
	}
	return m, err
}

// setAside renames an undecodable document so the next Save cannot
// overwrite it.
func (s *FileStore) setAside() {
	aside := fmt.Sprintf("%s.corrupt-%s", s.path, time.Now().Format("20060102-150405"))
	if err := os.Rename(s.path, aside); err != nil {
		logger.WarnCF("memory", "Could not move unreadable knowledge file aside", map[string]interface{}{
			"path":  s.path,
			"error": err.Error(),
		})
		return
	}
	logger.WarnCF("memory", "Moved unreadable knowledge file aside", map[string]interface{}{
		"path":  s.path,
		"moved": aside,
	})
}

func (s *FileStore) Save(ctx context.Context, m *KnowledgeModel) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	data, err := encodeModel(m)
	if err != nil {
		return err
	}
	return writeFileAtomic(s.path, data)
}

func (s *FileStore) Close() error { return nil }

func writeFileAtomic(path string, data []byte) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("%w: create dir %s: %w", ErrStorage, dir, err)
	}

	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("%w: create temp file: %w", ErrStorage, err)
	}
	tmpName := tmp.Name()
	cleanup := func() { _ = os.Remove(tmpName) }

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		cleanup()
		return fmt.Errorf("%w: write %s: %w", ErrStorage, tmpName, err)
	}
	if err := tmp.Sync(); err != nil {
		_ = tmp.Close()
		cleanup()
		return fmt.Errorf("%w: sync %s: %w", ErrStorage, tmpName, err)
	}
	if err := tmp.Close(); err != nil {
		cleanup()
		return fmt.Errorf("%w: close %s: %w", ErrStorage, tmpName, err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		cleanup()
		return fmt.Errorf("%w: replace %s: %w", ErrStorage, path, err)
	}
	return nil
}
