// Package stylo attributes an unknown text to one of two candidate authors
// by comparing stylometric frequency profiles.
//
// An Engine ties together the ingestion pipeline, the classifier and a
// model store:
//
//	eng := stylo.New(stylo.Options{Store: st})
//	m, _ := eng.NewModel("austen")
//	eng.AddFile(m, "pride.txt")
//	eng.Save(ctx, m)
package stylo

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"runtime"

	"golang.org/x/sync/errgroup"

	"github.com/cognicore/stylo/internal/textsrc"
	"github.com/cognicore/stylo/pkg/stylo/classify"
	"github.com/cognicore/stylo/pkg/stylo/ingest"
	"github.com/cognicore/stylo/pkg/stylo/internalerr"
	"github.com/cognicore/stylo/pkg/stylo/logger"
	"github.com/cognicore/stylo/pkg/stylo/model"
	"github.com/cognicore/stylo/pkg/stylo/store"
)

// Engine is the main attribution facade
type Engine struct {
	store      store.Store
	pipeline   *ingest.Pipeline
	classifier *classify.Classifier
	logger     *slog.Logger
}

// Options configures an Engine. Nil fields other than Store get defaults.
type Options struct {
	Store      store.Store
	Pipeline   *ingest.Pipeline
	Classifier *classify.Classifier
	Logger     *slog.Logger
}

// New creates an Engine with the given dependencies
func New(opts Options) *Engine {
	e := &Engine{
		store:      opts.Store,
		pipeline:   opts.Pipeline,
		classifier: opts.Classifier,
		logger:     opts.Logger,
	}
	if e.pipeline == nil {
		e.pipeline = ingest.NewPipeline(nil)
	}
	if e.classifier == nil {
		e.classifier = classify.New(classify.Options{})
	}
	if e.logger == nil {
		e.logger = logger.WithComponent("stylo")
	}
	return e
}

// Close releases the store.
func (e *Engine) Close() error {
	if e.store == nil {
		return nil
	}
	return e.store.Close()
}

func (e *Engine) requireStore() error {
	if e.store == nil {
		return fmt.Errorf("no store configured: %w", internalerr.ErrStoreUnavailable)
	}
	return nil
}

// NewModel returns an empty model. The name must be usable as a storage key.
func (e *Engine) NewModel(name string) (*model.Model, error) {
	if err := store.ValidateName(name); err != nil {
		return nil, err
	}
	return model.New(name), nil
}

// AddText accumulates text into m.
func (e *Engine) AddText(m *model.Model, text string) {
	e.pipeline.Ingest(m, text)
}

// AddFile reads path and accumulates its text into m. If the source cannot
// be read the chunk is skipped, m is left unchanged and the error is
// returned for the caller to report.
func (e *Engine) AddFile(m *model.Model, path string) error {
	text, err := textsrc.LoadFile(path)
	if err != nil {
		if errors.Is(err, internalerr.ErrSourceUnavailable) {
			e.logger.Warn("skipping unavailable source", "model", m.Name, "path", path, "error", err)
		}
		return err
	}
	e.AddText(m, text)
	e.logger.Debug("source added", "model", m.Name, "path", path)
	return nil
}

// AddFiles reads and tokenizes paths concurrently, then accumulates them
// into m in path order. Unavailable sources are skipped and returned in
// skipped. Any other error leaves m unchanged.
func (e *Engine) AddFiles(ctx context.Context, m *model.Model, paths []string) (added int, skipped []string, err error) {
	features := make([]*ingest.Features, len(paths))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(max(1, min(runtime.GOMAXPROCS(0), len(paths))))
	for i, path := range paths {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			text, err := textsrc.LoadFile(path)
			if errors.Is(err, internalerr.ErrSourceUnavailable) {
				e.logger.Warn("skipping unavailable source", "model", m.Name, "path", path, "error", err)
				return nil
			}
			if err != nil {
				return err
			}
			f := e.pipeline.Process(text)
			features[i] = &f
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return 0, nil, err
	}

	for i, f := range features {
		if f == nil {
			skipped = append(skipped, paths[i])
			continue
		}
		ingest.Accumulate(m, *f)
		added++
	}
	e.logger.Debug("sources added", "model", m.Name, "added", added, "skipped", len(skipped))
	return added, skipped, nil
}

// AddCorpus accumulates every record of a JSONL corpus whose author matches
// m.Name and returns how many were added.
func (e *Engine) AddCorpus(m *model.Model, path string) (int, error) {
	records, err := textsrc.LoadJSONL(path, e.logger)
	if err != nil {
		if errors.Is(err, internalerr.ErrSourceUnavailable) {
			e.logger.Warn("skipping unavailable corpus", "model", m.Name, "path", path, "error", err)
		}
		return 0, err
	}

	texts := textsrc.ByAuthor(records)[m.Name]
	for _, text := range texts {
		e.AddText(m, text)
	}
	e.logger.Debug("corpus added", "model", m.Name, "path", path, "records", len(texts))
	return len(texts), nil
}

// Save persists all five tables of m.
func (e *Engine) Save(ctx context.Context, m *model.Model) error {
	if err := e.requireStore(); err != nil {
		return err
	}
	if err := e.store.SaveModel(ctx, m); err != nil {
		return fmt.Errorf("save model %s: %w", m.Name, err)
	}
	e.logger.Info("model saved", "model", m.Name)
	return nil
}

// Load reads a model back from the store.
func (e *Engine) Load(ctx context.Context, name string) (*model.Model, error) {
	if err := e.requireStore(); err != nil {
		return nil, err
	}
	m, err := e.store.LoadModel(ctx, name)
	if err != nil {
		return nil, fmt.Errorf("load model %s: %w", name, err)
	}
	return m, nil
}

// Models lists the stored model names.
func (e *Engine) Models(ctx context.Context) ([]string, error) {
	if err := e.requireStore(); err != nil {
		return nil, err
	}
	return e.store.ListModels(ctx)
}

// Delete removes a stored model.
func (e *Engine) Delete(ctx context.Context, name string) error {
	if err := e.requireStore(); err != nil {
		return err
	}
	return e.store.DeleteModel(ctx, name)
}

// Classify decides which source unknown most likely came from and records
// the decision. A failure to record is logged and does not affect the
// returned decision.
func (e *Engine) Classify(ctx context.Context, unknown, source1, source2 *model.Model) classify.Decision {
	d := e.classifier.Classify(unknown, source1, source2)

	e.logger.Info("classified",
		"id", d.ID,
		"unknown", d.Unknown,
		"winner", d.Winner,
		"weighted1", d.Weighted1,
		"weighted2", d.Weighted2,
		"votes", fmt.Sprintf("%d/%d", d.Votes1, d.Votes2),
		"tie", d.Tie,
	)

	if e.store != nil {
		if err := e.store.RecordDecision(ctx, d); err != nil {
			e.logger.Error("failed to record decision", "id", d.ID, "error", err)
		}
	}
	return d
}

// ClassifyNames loads the three named models and classifies them.
func (e *Engine) ClassifyNames(ctx context.Context, unknown, source1, source2 string) (classify.Decision, error) {
	models := make([]*model.Model, 3)
	for i, name := range []string{unknown, source1, source2} {
		m, err := e.Load(ctx, name)
		if err != nil {
			return classify.Decision{}, err
		}
		models[i] = m
	}
	return e.Classify(ctx, models[0], models[1], models[2]), nil
}

// Report returns the per-channel similarity of self to other.
func (e *Engine) Report(self, other *model.Model) classify.Report {
	return e.classifier.Report(self, other)
}

// History returns up to limit recorded decisions, newest first.
func (e *Engine) History(ctx context.Context, limit int) ([]classify.Decision, error) {
	if err := e.requireStore(); err != nil {
		return nil, err
	}
	return e.store.Decisions(ctx, limit)
}
