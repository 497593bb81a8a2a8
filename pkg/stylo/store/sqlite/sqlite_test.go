package sqlite

import (
	"context"
	"errors"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/cognicore/stylo/pkg/stylo/classify"
	"github.com/cognicore/stylo/pkg/stylo/codec"
	"github.com/cognicore/stylo/pkg/stylo/ingest"
	"github.com/cognicore/stylo/pkg/stylo/internalerr"
	"github.com/cognicore/stylo/pkg/stylo/model"
	"github.com/cognicore/stylo/pkg/stylo/store/sqlstore"
)

func openTemp(t *testing.T) *sqlstore.Store {
	t.Helper()
	st, err := OpenSQLite(context.Background(), filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("OpenSQLite: %v", err)
	}
	t.Cleanup(func() { st.Close() })
	return st
}

func sampleModel(name, text string) *model.Model {
	m := model.New(name)
	ingest.NewPipeline(nil).Ingest(m, text)
	return m
}

// TestSQLiteRoundTrip tests save and reload of all five tables
func TestSQLiteRoundTrip(t *testing.T) {
	ctx := context.Background()
	st := openTemp(t)

	m := sampleModel("dickens", `It was the best of times; it was the worst of times. "What?" said he -- (twice)!`)
	if err := st.SaveModel(ctx, m); err != nil {
		t.Fatalf("SaveModel: %v", err)
	}

	got, err := st.LoadModel(ctx, "dickens")
	if err != nil {
		t.Fatalf("LoadModel: %v", err)
	}
	if !got.Equal(m) {
		t.Error("reloaded model should equal the saved one")
	}
	if got.Name != "dickens" {
		t.Errorf("Name = %q", got.Name)
	}
}

// TestSQLiteResaveReplaces tests that saving again replaces, not merges
func TestSQLiteResaveReplaces(t *testing.T) {
	ctx := context.Background()
	st := openTemp(t)

	if err := st.SaveModel(ctx, sampleModel("m", "alpha beta.")); err != nil {
		t.Fatal(err)
	}
	second := sampleModel("m", "gamma!")
	if err := st.SaveModel(ctx, second); err != nil {
		t.Fatal(err)
	}

	got, err := st.LoadModel(ctx, "m")
	if err != nil {
		t.Fatal(err)
	}
	if !got.Equal(second) {
		t.Errorf("expected only the second save, got %v", got.Tables())
	}
}

func TestSQLiteLoadMissing(t *testing.T) {
	st := openTemp(t)
	if _, err := st.LoadModel(context.Background(), "ghost"); !errors.Is(err, internalerr.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestSQLiteLoadCorrupt(t *testing.T) {
	ctx := context.Background()
	st := openTemp(t)
	if err := st.SaveModel(ctx, sampleModel("m", "one two.")); err != nil {
		t.Fatal(err)
	}

	_, err := st.DB().ExecContext(ctx, `UPDATE model_tables SET body = ? WHERE table_key = ?`,
		"[not, a, mapping]", codec.Key("m", model.WordLengths))
	if err != nil {
		t.Fatal(err)
	}

	if _, err := st.LoadModel(ctx, "m"); !errors.Is(err, internalerr.ErrMalformedModel) {
		t.Errorf("expected ErrMalformedModel, got %v", err)
	}
}

func TestSQLiteListAndDelete(t *testing.T) {
	ctx := context.Background()
	st := openTemp(t)
	for _, name := range []string{"twain", "austen"} {
		if err := st.SaveModel(ctx, sampleModel(name, "words here.")); err != nil {
			t.Fatal(err)
		}
	}

	names, err := st.ListModels(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(names) != 2 || names[0] != "austen" || names[1] != "twain" {
		t.Errorf("ListModels = %v", names)
	}

	if err := st.DeleteModel(ctx, "twain"); err != nil {
		t.Fatal(err)
	}
	if err := st.DeleteModel(ctx, "twain"); !errors.Is(err, internalerr.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestSQLiteDecisions(t *testing.T) {
	ctx := context.Background()
	st := openTemp(t)

	c := classify.New(classify.Options{})
	unknown := sampleModel("u", "The sea is calm tonight.")
	a := sampleModel("a", "The sea was calm. The tide is full.")
	b := sampleModel("b", "Order! Order in the court!")

	var ids []string
	for i := 0; i < 3; i++ {
		d := c.Classify(unknown, a, b)
		if err := st.RecordDecision(ctx, d); err != nil {
			t.Fatalf("RecordDecision: %v", err)
		}
		ids = append(ids, d.ID)
	}

	got, err := st.Decisions(ctx, 2)
	if err != nil {
		t.Fatalf("Decisions: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("expected 2 decisions, got %d", len(got))
	}
	if got[0].ID != ids[2] || got[1].ID != ids[1] {
		t.Errorf("expected newest first, got %s, %s", got[0].ID, got[1].ID)
	}

	want := c.Classify(unknown, a, b)
	if got[0].Scores1 != want.Scores1 || got[0].Weighted2 != want.Weighted2 {
		t.Errorf("scores not preserved: %+v", got[0])
	}
	if got[0].Winner != want.Winner || got[0].Unknown != "u" {
		t.Errorf("names not preserved: %+v", got[0])
	}
	if time.Since(got[0].DecidedAt) > time.Minute {
		t.Errorf("DecidedAt not preserved: %v", got[0].DecidedAt)
	}
}

// TestSQLiteConcurrentSaves tests that parallel saves never mix tables
func TestSQLiteConcurrentSaves(t *testing.T) {
	ctx := context.Background()
	st := openTemp(t)

	texts := []string{"alpha alpha.", "beta beta beta!", "gamma?"}
	var wg sync.WaitGroup
	for i := 0; i < 9; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			if err := st.SaveModel(ctx, sampleModel("shared", texts[i%len(texts)])); err != nil {
				t.Errorf("SaveModel: %v", err)
			}
		}(i)
	}
	wg.Wait()

	got, err := st.LoadModel(ctx, "shared")
	if err != nil {
		t.Fatal(err)
	}
	matched := false
	for _, text := range texts {
		if got.Equal(sampleModel("shared", text)) {
			matched = true
		}
	}
	if !matched {
		t.Errorf("loaded model should equal one complete save, got %v", got.Tables())
	}
}
