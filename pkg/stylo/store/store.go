package store

import (
	"context"
	"fmt"
	"strings"

	"github.com/cognicore/stylo/pkg/stylo/classify"
	"github.com/cognicore/stylo/pkg/stylo/codec"
	"github.com/cognicore/stylo/pkg/stylo/internalerr"
	"github.com/cognicore/stylo/pkg/stylo/model"
)

// Store is the main interface for persisting models and classification history
type Store interface {
	Close() error

	// Models. Each of the five tables is stored under codec.Key(name, channel).
	SaveModel(ctx context.Context, m *model.Model) error
	// LoadModel rebuilds a model from all five tables. A missing table yields
	// internalerr.ErrNotFound, an unparseable one internalerr.ErrMalformedModel.
	LoadModel(ctx context.Context, name string) (*model.Model, error)
	ListModels(ctx context.Context) ([]string, error)
	DeleteModel(ctx context.Context, name string) error

	// Decisions, newest first.
	RecordDecision(ctx context.Context, d classify.Decision) error
	Decisions(ctx context.Context, limit int) ([]classify.Decision, error)
}

// DefaultDecisionLimit applies when Decisions is called with limit <= 0.
const DefaultDecisionLimit = 20

// ValidateName rejects model names that cannot be used as storage keys.
func ValidateName(name string) error {
	if strings.TrimSpace(name) == "" {
		return fmt.Errorf("model name is required: %w", internalerr.ErrInvalidInput)
	}
	if strings.ContainsAny(name, `/\`) || name == "." || name == ".." {
		return fmt.Errorf("model name %q contains a path separator: %w", name, internalerr.ErrInvalidInput)
	}
	return nil
}

// EncodeModel renders every table of m with the codec.
func EncodeModel(m *model.Model) (map[model.Channel][]byte, error) {
	if err := ValidateName(m.Name); err != nil {
		return nil, err
	}
	out := make(map[model.Channel][]byte, len(model.Channels()))
	for _, ch := range model.Channels() {
		data, err := codec.Encode(ch, m.Table(ch))
		if err != nil {
			return nil, fmt.Errorf("encode %s: %w", codec.Key(m.Name, ch), err)
		}
		out[ch] = data
	}
	return out, nil
}

// DecodeModel parses all five persisted tables into a fresh model. Either
// every table parses or no model is returned.
func DecodeModel(name string, blobs map[model.Channel][]byte) (*model.Model, error) {
	tables := make(map[model.Channel]model.Table, len(blobs))
	for _, ch := range model.Channels() {
		data, ok := blobs[ch]
		if !ok {
			return nil, fmt.Errorf("load %s: %w", codec.Key(name, ch), internalerr.ErrNotFound)
		}
		t, err := codec.Decode(ch, data)
		if err != nil {
			return nil, fmt.Errorf("load %s: %w", codec.Key(name, ch), err)
		}
		tables[ch] = t
	}

	m := model.New(name)
	if err := m.Replace(tables); err != nil {
		return nil, fmt.Errorf("load %s: %v: %w", name, err, internalerr.ErrMalformedModel)
	}
	return m, nil
}

// NameFromKey splits a table key into model name and channel.
func NameFromKey(key string) (string, model.Channel, bool) {
	var (
		best    model.Channel
		bestLen int
	)
	for _, ch := range model.Channels() {
		suffix := "_" + ch.String()
		if strings.HasSuffix(key, suffix) && len(suffix) > bestLen && len(key) > len(suffix) {
			best, bestLen = ch, len(suffix)
		}
	}
	if bestLen == 0 {
		return "", 0, false
	}
	return key[:len(key)-bestLen], best, true
}
