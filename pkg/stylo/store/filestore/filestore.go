// Package filestore keeps each model table in its own text file named
// {model}_{table} inside a directory. Writers take an exclusive file lock on
// the directory and readers a shared one, so several processes can share a
// model directory.
package filestore

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"sync"
	"time"

	"github.com/gofrs/flock"

	"github.com/cognicore/stylo/pkg/stylo/classify"
	"github.com/cognicore/stylo/pkg/stylo/codec"
	"github.com/cognicore/stylo/pkg/stylo/internalerr"
	"github.com/cognicore/stylo/pkg/stylo/model"
	"github.com/cognicore/stylo/pkg/stylo/store"
)

const (
	decisionsFile = "decisions.jsonl"
	lockFile      = ".stylo.lock"
	lockRetry     = 20 * time.Millisecond
)

var _ store.Store = (*Store)(nil)

// Store is a directory-backed store.Store.
type Store struct {
	dir    string
	logger *slog.Logger
	lock   *flock.Flock

	// mu serializes use of lock within the process.
	mu sync.Mutex
}

// Open prepares dir for use, creating it if needed.
func Open(dir string, logger *slog.Logger) (*Store, error) {
	if dir == "" {
		return nil, fmt.Errorf("filestore: directory is required: %w", internalerr.ErrInvalidConfig)
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("filestore: %v: %w", err, internalerr.ErrStoreUnavailable)
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Store{
		dir:    dir,
		logger: logger.With("component", "filestore"),
		lock:   flock.New(filepath.Join(dir, lockFile)),
	}, nil
}

// lockDir takes the directory lock, shared for readers. Callers hold s.mu.
func (s *Store) lockDir(ctx context.Context, shared bool) (func(), error) {
	var ok bool
	var err error
	if shared {
		ok, err = s.lock.TryRLockContext(ctx, lockRetry)
	} else {
		ok, err = s.lock.TryLockContext(ctx, lockRetry)
	}
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		return nil, fmt.Errorf("lock %s: %v: %w", s.dir, err, internalerr.ErrStoreUnavailable)
	}
	if !ok {
		return nil, fmt.Errorf("lock %s: %w", s.dir, internalerr.ErrStoreUnavailable)
	}
	return func() {
		if err := s.lock.Unlock(); err != nil {
			s.logger.Warn("failed to release directory lock", "error", err)
		}
	}, nil
}

// Close releases the lock file handle.
func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lock.Close()
}

// Dir returns the backing directory.
func (s *Store) Dir() string { return s.dir }

func (s *Store) path(key string) string {
	return filepath.Join(s.dir, key)
}

// SaveModel writes the five table files. Each file is replaced atomically.
func (s *Store) SaveModel(ctx context.Context, m *model.Model) error {
	blobs, err := store.EncodeModel(m)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	unlock, err := s.lockDir(ctx, false)
	if err != nil {
		return err
	}
	defer unlock()

	for _, ch := range model.Channels() {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := writeAtomic(s.path(codec.Key(m.Name, ch)), blobs[ch]); err != nil {
			return fmt.Errorf("save %s: %w", codec.Key(m.Name, ch), err)
		}
	}
	s.logger.Debug("model saved", "model", m.Name, "dir", s.dir)
	return nil
}

// writeAtomic writes data to a temp file and renames it into place so a
// crash never leaves a half-written table behind.
func writeAtomic(path string, data []byte) error {
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return err
	}
	return os.Rename(tmp, path)
}

// LoadModel reads all five table files. If any is missing or corrupt no
// model is returned.
func (s *Store) LoadModel(ctx context.Context, name string) (*model.Model, error) {
	if err := store.ValidateName(name); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	unlock, err := s.lockDir(ctx, true)
	if err != nil {
		return nil, err
	}
	defer unlock()

	blobs := make(map[model.Channel][]byte, len(model.Channels()))
	for _, ch := range model.Channels() {
		data, err := os.ReadFile(s.path(codec.Key(name, ch)))
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("load %s: %w", codec.Key(name, ch), internalerr.ErrNotFound)
		}
		if err != nil {
			return nil, fmt.Errorf("load %s: %v: %w", codec.Key(name, ch), err, internalerr.ErrStoreUnavailable)
		}
		blobs[ch] = data
	}
	return store.DecodeModel(name, blobs)
}

// ListModels returns every model with a words table in the directory.
func (s *Store) ListModels(ctx context.Context) ([]string, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return nil, fmt.Errorf("list models: %v: %w", err, internalerr.ErrStoreUnavailable)
	}
	var names []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		if name, ch, ok := store.NameFromKey(e.Name()); ok && ch == model.Words {
			names = append(names, name)
		}
	}
	slices.Sort(names)
	return names, nil
}

// DeleteModel removes every table file of the model.
func (s *Store) DeleteModel(ctx context.Context, name string) error {
	if err := store.ValidateName(name); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	unlock, err := s.lockDir(ctx, false)
	if err != nil {
		return err
	}
	defer unlock()

	found := false
	for _, ch := range model.Channels() {
		err := os.Remove(s.path(codec.Key(name, ch)))
		switch {
		case err == nil:
			found = true
		case errors.Is(err, os.ErrNotExist):
		default:
			return fmt.Errorf("delete %s: %w", codec.Key(name, ch), err)
		}
	}
	if !found {
		return fmt.Errorf("delete %s: %w", name, internalerr.ErrNotFound)
	}
	return nil
}

// RecordDecision appends one JSON line to the decision log.
func (s *Store) RecordDecision(ctx context.Context, d classify.Decision) error {
	line, err := json.Marshal(d)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	unlock, err := s.lockDir(ctx, false)
	if err != nil {
		return err
	}
	defer unlock()

	f, err := os.OpenFile(s.path(decisionsFile), os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("record decision: %w", err)
	}
	defer f.Close()

	if _, err := f.Write(append(line, '\n')); err != nil {
		return fmt.Errorf("record decision: %w", err)
	}
	return nil
}

// Decisions reads the decision log, newest first. Malformed lines are
// skipped with a warning.
func (s *Store) Decisions(ctx context.Context, limit int) ([]classify.Decision, error) {
	if limit <= 0 {
		limit = store.DefaultDecisionLimit
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	unlock, err := s.lockDir(ctx, true)
	if err != nil {
		return nil, err
	}
	defer unlock()

	f, err := os.Open(s.path(decisionsFile))
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read decisions: %w", err)
	}
	defer f.Close()

	var all []classify.Decision
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		if len(scanner.Bytes()) == 0 {
			continue
		}
		var d classify.Decision
		if err := json.Unmarshal(scanner.Bytes(), &d); err != nil {
			s.logger.Warn("skipping malformed decision", "line", lineNo, "error", err)
			continue
		}
		all = append(all, d)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read decisions: %w", err)
	}

	slices.Reverse(all)
	if len(all) > limit {
		all = all[:limit]
	}
	return all, nil
}
