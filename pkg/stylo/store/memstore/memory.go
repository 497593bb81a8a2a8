package memstore

import (
	"context"
	"fmt"
	"slices"
	"sync"

	"github.com/cognicore/stylo/pkg/stylo/classify"
	"github.com/cognicore/stylo/pkg/stylo/codec"
	"github.com/cognicore/stylo/pkg/stylo/internalerr"
	"github.com/cognicore/stylo/pkg/stylo/model"
	"github.com/cognicore/stylo/pkg/stylo/store"
)

var _ store.Store = (*Store)(nil)

// Store is an in-memory implementation of store.Store for tests.
// Tables are kept in their encoded form so loads go through the codec.
type Store struct {
	mu        sync.RWMutex
	tables    map[string][]byte
	decisions []classify.Decision
}

// New creates a new in-memory store.
func New() *Store {
	return &Store{
		tables: make(map[string][]byte),
	}
}

// Close implements store.Store.
func (s *Store) Close() error { return nil }

// SaveModel stores all five tables of m.
func (s *Store) SaveModel(ctx context.Context, m *model.Model) error {
	blobs, err := store.EncodeModel(m)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	for ch, data := range blobs {
		s.tables[codec.Key(m.Name, ch)] = data
	}
	return nil
}

// LoadModel rebuilds a model from its stored tables.
func (s *Store) LoadModel(ctx context.Context, name string) (*model.Model, error) {
	if err := store.ValidateName(name); err != nil {
		return nil, err
	}

	s.mu.RLock()
	blobs := make(map[model.Channel][]byte, len(model.Channels()))
	for _, ch := range model.Channels() {
		if data, ok := s.tables[codec.Key(name, ch)]; ok {
			blobs[ch] = slices.Clone(data)
		}
	}
	s.mu.RUnlock()

	return store.DecodeModel(name, blobs)
}

// ListModels returns the names of all stored models, sorted.
func (s *Store) ListModels(ctx context.Context) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var names []string
	for key := range s.tables {
		if name, ch, ok := store.NameFromKey(key); ok && ch == model.Words {
			names = append(names, name)
		}
	}
	slices.Sort(names)
	return names, nil
}

// DeleteModel removes every table of the named model.
func (s *Store) DeleteModel(ctx context.Context, name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	found := false
	for _, ch := range model.Channels() {
		key := codec.Key(name, ch)
		if _, ok := s.tables[key]; ok {
			found = true
			delete(s.tables, key)
		}
	}
	if !found {
		return fmt.Errorf("delete %s: %w", name, internalerr.ErrNotFound)
	}
	return nil
}

// SetTable overwrites one raw table. Tests use it to simulate corruption.
func (s *Store) SetTable(key string, data []byte) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tables[key] = slices.Clone(data)
}

// RecordDecision appends a decision to the history.
func (s *Store) RecordDecision(ctx context.Context, d classify.Decision) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.decisions = append(s.decisions, d)
	return nil
}

// Decisions returns up to limit decisions, newest first.
func (s *Store) Decisions(ctx context.Context, limit int) ([]classify.Decision, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if limit <= 0 {
		limit = store.DefaultDecisionLimit
	}
	out := make([]classify.Decision, 0, min(limit, len(s.decisions)))
	for i := len(s.decisions) - 1; i >= 0 && len(out) < limit; i-- {
		out = append(out, s.decisions[i])
	}
	return out, nil
}
