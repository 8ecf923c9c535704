package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/ajkula/GoSubmit/domain/model"
	"github.com/ajkula/GoSubmit/domain/port/outbound"
)

// DocumentStore persists a single JSON document with multi-process
// mutual exclusion and crash-safe replace semantics. Load never takes
// the write lock: readers may see a slightly stale document but never a
// partial one, because writers publish through an atomic rename.
//
// Update serializes all writers on the document's lock file, re-reads
// the on-disk state under the lock, applies the caller's transform, and
// replaces the document via temp-file-then-rename. A crash mid-write
// leaves an orphaned temp file and the original document intact.
type DocumentStore[T any] struct {
	path     string
	lockPath string
	broker   outbound.LockBroker
	logger   outbound.Logger
	timeout  time.Duration
	initFn   func() *T
	validate func(*T) error
}

func NewDocumentStore[T any](
	path, lockPath string,
	broker outbound.LockBroker,
	logger outbound.Logger,
	timeout time.Duration,
	initFn func() *T,
	validate func(*T) error,
) (*DocumentStore[T], error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("failed to create document directory: %w", err)
	}

	return &DocumentStore[T]{
		path:     path,
		lockPath: lockPath,
		broker:   broker,
		logger:   logger,
		timeout:  timeout,
		initFn:   initFn,
		validate: validate,
	}, nil
}

// Load reads the current persisted document. A document that was never
// written yields the initial document.
func (s *DocumentStore[T]) Load() (*T, error) {
	return s.readDoc()
}

// Update applies fn to the on-disk document under the document lock and
// atomically replaces it. fn mutates the document in place; its error
// aborts the update with no write. The lock is released only after the
// rename has succeeded.
func (s *DocumentStore[T]) Update(ctx context.Context, fn func(*T) error) (*T, error) {
	handle, err := s.broker.Acquire(ctx, s.lockPath, s.timeout)
	if err != nil {
		return nil, err
	}
	defer handle.Release()

	// re-read under the lock: any snapshot taken before acquisition
	// could be stale
	doc, err := s.readDoc()
	if err != nil {
		return nil, err
	}

	if err := fn(doc); err != nil {
		return nil, err
	}

	if err := s.writeDoc(doc); err != nil {
		return nil, err
	}

	return doc, nil
}

// Exists reports whether the document has ever been written.
func (s *DocumentStore[T]) Exists() bool {
	_, err := os.Stat(s.path)
	return !os.IsNotExist(err)
}

// Path returns the document path.
func (s *DocumentStore[T]) Path() string {
	return s.path
}

func (s *DocumentStore[T]) readDoc() (*T, error) {
	data, err := os.ReadFile(s.path)
	if os.IsNotExist(err) {
		return s.initFn(), nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read document %s: %w", s.path, err)
	}

	doc := new(T)
	if err := json.Unmarshal(data, doc); err != nil {
		s.logger.Error("Document does not decode", "path", s.path, "error", err)
		return nil, fmt.Errorf("%w: %s: %v", model.ErrStoreCorrupted, s.path, err)
	}

	if s.validate != nil {
		if err := s.validate(doc); err != nil {
			s.logger.Error("Document fails shape validation", "path", s.path, "error", err)
			return nil, fmt.Errorf("%w: %s: %v", model.ErrStoreCorrupted, s.path, err)
		}
	}

	return doc, nil
}

// writeDoc publishes a new document revision: temp file in the same
// directory, flush to storage, then atomic rename over the original.
func (s *DocumentStore[T]) writeDoc(doc *T) error {
	data, err := json.MarshalIndent(doc, "", "    ")
	if err != nil {
		return fmt.Errorf("failed to marshal document: %w", err)
	}
	data = append(data, '\n')

	tmp, err := os.CreateTemp(filepath.Dir(s.path), filepath.Base(s.path)+".tmp-*")
	if err != nil {
		return fmt.Errorf("failed to create temp document: %w", err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("failed to write temp document: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("failed to flush temp document: %w", err)
	}
	if err := tmp.Chmod(0600); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("failed to chmod temp document: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("failed to close temp document: %w", err)
	}

	if err := os.Rename(tmpName, s.path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("failed to replace document %s: %w", s.path, err)
	}

	return nil
}
