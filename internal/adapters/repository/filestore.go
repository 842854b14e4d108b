package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"

	"github.com/okian/commitwatch/internal/domain/snapshot"
	"github.com/okian/commitwatch/pkg/logger"
	"github.com/okian/commitwatch/pkg/metrics"
)

const indent = "    "

// FileStore keeps the baseline as an indented JSON document on disk.
// Writes go to a temporary file in the same directory which is fsynced and
// renamed into place, so readers never observe a partial document.
type FileStore struct {
	mu   sync.Mutex
	path string
	mode os.FileMode
	log  logger.Logger
}

// NewFileStore creates a store backed by the file at path.
func NewFileStore(path string, opts ...Option) (*FileStore, error) {
	if path == "" {
		return nil, ErrEmptyPath
	}
	s := &FileStore{
		path: path,
		mode: 0o644,
		log:  logger.Get().Named("baseline"),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Path returns the baseline file location.
func (s *FileStore) Path() string { return s.path }

// Load implements Store. A missing file yields no baseline. A malformed
// file is logged, removed, and also yields no baseline.
func (s *FileStore) Load(ctx context.Context, registrySize int) (snapshot.Snapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	doc, err := s.read()
	switch {
	case err == nil:
	case errors.Is(err, fs.ErrNotExist):
		return nil, nil
	case errors.Is(err, ErrMalformedBaseline):
		return nil, s.discard(ctx, err)
	default:
		return nil, err
	}

	snap, err := snapshot.FromDocument(doc, registrySize)
	if err != nil {
		return nil, s.discard(ctx, fmt.Errorf("%w: %w", ErrMalformedBaseline, err))
	}
	return snap, nil
}

// Save implements Store.
func (s *FileStore) Save(_ context.Context, snap snapshot.Snapshot) error {
	data, err := json.MarshalIndent(snapshot.ToDocument(snap), "", indent)
	if err != nil {
		return fmt.Errorf("marshaling baseline: %w", err)
	}
	data = append(data, '\n')

	s.mu.Lock()
	defer s.mu.Unlock()
	return s.write(data)
}

func (s *FileStore) read() (snapshot.Document, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		return nil, err
	}
	var doc snapshot.Document
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("%w: parsing %s: %w", ErrMalformedBaseline, s.path, err)
	}
	return doc, nil
}

// discard removes the baseline file after a failed parse.
func (s *FileStore) discard(ctx context.Context, cause error) error {
	s.log.Warn(ctx, "discarding malformed baseline",
		logger.String("path", s.path),
		logger.Error(cause),
	)
	metrics.RecordBaselineDiscarded()
	if err := os.Remove(s.path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("removing baseline: %w", err)
	}
	return nil
}

func (s *FileStore) write(data []byte) error {
	temporaryPath := s.path + ".tmp"

	file, err := os.OpenFile(temporaryPath, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, s.mode)
	if err != nil {
		return fmt.Errorf("creating temporary baseline file: %w", err)
	}

	// Write, sync, close. On failure remove the temporary file and report
	// the first error.
	if _, err := file.Write(data); err != nil {
		_ = file.Close()
		_ = os.Remove(temporaryPath)
		return fmt.Errorf("writing temporary baseline file: %w", err)
	}
	if err := file.Sync(); err != nil {
		_ = file.Close()
		_ = os.Remove(temporaryPath)
		return fmt.Errorf("syncing temporary baseline file: %w", err)
	}
	if err := file.Close(); err != nil {
		_ = os.Remove(temporaryPath)
		return fmt.Errorf("closing temporary baseline file: %w", err)
	}

	if err := os.Rename(temporaryPath, s.path); err != nil {
		_ = os.Remove(temporaryPath)
		return fmt.Errorf("renaming baseline file into place: %w", err)
	}

	// Make the rename durable.
	if dir, err := os.Open(filepath.Dir(s.path)); err == nil {
		_ = dir.Sync()
		_ = dir.Close()
	}
	return nil
}
