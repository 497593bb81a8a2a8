package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/cognicore/stylo/pkg/stylo/classify"
	"github.com/cognicore/stylo/pkg/stylo/internalerr"
)

const (
	seaText = `The sea was calm. The waves rolled slowly onto the shore, and the sailors
watched the horizon. Ships drifted past the harbour; gulls cried overhead.`
	courtText = `Order! The court shall hear the evidence, said the judge (sternly).
Counsel objected -- twice -- and the jury listened... Was the witness lying?`
	mysteryText = `The tide was low. Sailors walked along the shore and watched the ships
drift toward the harbour, while the waves rolled on.`
)

type cliTestEnv struct {
	dir     string
	sources map[string]string
}

func setupCLITestEnv(t *testing.T) *cliTestEnv {
	t.Helper()
	for _, k := range []string{
		"STYLO_STORE_DRIVER", "STYLO_STORE_PATH", "STYLO_STORE_DSN",
		"STYLO_LOG_LEVEL", "STYLO_LOG_FORMAT",
	} {
		t.Setenv(k, "")
	}
	t.Setenv("STYLO_LOG_LEVEL", "error")

	base := t.TempDir()
	env := &cliTestEnv{dir: filepath.Join(base, "models"), sources: map[string]string{}}
	for name, text := range map[string]string{"sea": seaText, "court": courtText, "mystery": mysteryText} {
		path := filepath.Join(base, name+".txt")
		if err := os.WriteFile(path, []byte(text), 0644); err != nil {
			t.Fatal(err)
		}
		env.sources[name] = path
	}
	return env
}

func (e *cliTestEnv) run(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	err := execute(append([]string{"--path", e.dir}, args...), &stdout, &stderr)
	return stdout.String(), stderr.String(), err
}

func (e *cliTestEnv) trainAll(t *testing.T) {
	t.Helper()
	for _, name := range []string{"sea", "court", "mystery"} {
		out, _, err := e.run(t, "train", name, e.sources[name])
		if err != nil {
			t.Fatalf("train %s: %v", name, err)
		}
		if !strings.Contains(out, "text model name: "+name) {
			t.Errorf("train output should include the summary, got %q", out)
		}
	}
}

func TestTrainListClassify(t *testing.T) {
	env := setupCLITestEnv(t)
	env.trainAll(t)

	out, _, err := env.run(t, "list")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	for _, name := range []string{"sea", "court", "mystery"} {
		if !strings.Contains(out, name) {
			t.Errorf("list output missing %s: %q", name, out)
		}
	}

	out, _, err = env.run(t, "classify", "mystery", "sea", "court")
	if err != nil {
		t.Fatalf("classify: %v", err)
	}
	if !strings.Contains(out, "mystery most likely came from sea") {
		t.Errorf("unexpected classify output: %q", out)
	}
	if !strings.Contains(out, "sentence_lengths") {
		t.Errorf("classify output should list every channel: %q", out)
	}

	out, _, err = env.run(t, "classify", "--json", "mystery", "court", "sea")
	if err != nil {
		t.Fatalf("classify --json: %v", err)
	}
	var d classify.Decision
	if err := json.Unmarshal([]byte(out), &d); err != nil {
		t.Fatalf("classify --json output is not a decision: %v\n%s", err, out)
	}
	if d.Winner != "sea" || d.WinnerIndex != 2 {
		t.Errorf("json decision winner = %s (%d)", d.Winner, d.WinnerIndex)
	}

	out, _, err = env.run(t, "history", "--json")
	if err != nil {
		t.Fatalf("history: %v", err)
	}
	var history []classify.Decision
	if err := json.Unmarshal([]byte(out), &history); err != nil {
		t.Fatalf("history --json: %v", err)
	}
	if len(history) != 2 || history[0].ID != d.ID {
		t.Errorf("history should list both decisions newest first, got %d", len(history))
	}
}

func TestReportAndShow(t *testing.T) {
	env := setupCLITestEnv(t)
	env.trainAll(t)

	out, _, err := env.run(t, "report", "mystery", "sea")
	if err != nil {
		t.Fatalf("report: %v", err)
	}
	if !strings.Contains(out, "mystery vs sea") || !strings.Contains(out, "overall") {
		t.Errorf("unexpected report output: %q", out)
	}

	out, _, err = env.run(t, "show", "sea", "--top", "3")
	if err != nil {
		t.Fatalf("show: %v", err)
	}
	if !strings.Contains(out, "number of words:") {
		t.Errorf("show should print the summary: %q", out)
	}
	// "the" is the most frequent word of the sea text.
	if !strings.Contains(out, "the") {
		t.Errorf("show should list top words: %q", out)
	}
}

func TestTrainSkipsMissingSource(t *testing.T) {
	env := setupCLITestEnv(t)

	missing := filepath.Join(t.TempDir(), "missing.txt")
	out, stderr, err := env.run(t, "train", "sea", env.sources["sea"], missing)
	if err != nil {
		t.Fatalf("train should skip a missing source, got %v", err)
	}
	if !strings.Contains(stderr, "skipped") {
		t.Errorf("missing source should be reported: %q", stderr)
	}
	if !strings.Contains(out, "from 1 source(s)") {
		t.Errorf("unexpected train output: %q", out)
	}
}

func TestTrainWithoutReadableSourcesKeepsStoredModel(t *testing.T) {
	env := setupCLITestEnv(t)

	if _, _, err := env.run(t, "train", "sea", env.sources["sea"]); err != nil {
		t.Fatalf("train: %v", err)
	}
	before, _, err := env.run(t, "show", "sea")
	if err != nil {
		t.Fatalf("show: %v", err)
	}

	missing := filepath.Join(t.TempDir(), "typo.txt")
	out, _, err := env.run(t, "train", "sea", missing)
	if !errors.Is(err, internalerr.ErrSourceUnavailable) {
		t.Fatalf("expected ErrSourceUnavailable, got %v", err)
	}
	if strings.Contains(out, "Trained") {
		t.Errorf("nothing should be reported as trained: %q", out)
	}

	after, _, err := env.run(t, "show", "sea")
	if err != nil {
		t.Fatalf("show: %v", err)
	}
	if after != before {
		t.Errorf("stored model changed:\nbefore:\n%s\nafter:\n%s", before, after)
	}
}

func TestStoreClosedAfterFailedCommand(t *testing.T) {
	setupCLITestEnv(t)
	db := filepath.Join(t.TempDir(), "stylo.db")

	ctx := newCommandContext()
	var stdout, stderr bytes.Buffer
	err := executeWith(ctx, []string{"--store", "sqlite", "--path", db, "classify", "a", "b", "c"}, &stdout, &stderr)
	if !errors.Is(err, internalerr.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if ctx.engine == nil {
		t.Fatal("engine should have been opened")
	}
	if _, err := ctx.engine.Models(context.Background()); err == nil {
		t.Error("store should be closed after a failed command")
	}
	if err := ctx.close(); err != nil {
		t.Errorf("second close should be a no-op, got %v", err)
	}
}

func TestTrainAppend(t *testing.T) {
	env := setupCLITestEnv(t)

	if _, _, err := env.run(t, "train", "sea", env.sources["sea"]); err != nil {
		t.Fatalf("train: %v", err)
	}
	if _, _, err := env.run(t, "train", "--append", "sea", env.sources["mystery"]); err != nil {
		t.Fatalf("train --append: %v", err)
	}
	out, _, err := env.run(t, "show", "sea", "--top", "0")
	if err != nil {
		t.Fatalf("show: %v", err)
	}
	if strings.Contains(out, "number of words: 0") {
		t.Errorf("appended model should not be empty: %q", out)
	}
}

func TestMissingModelFails(t *testing.T) {
	env := setupCLITestEnv(t)
	_, _, err := env.run(t, "classify", "a", "b", "c")
	if !errors.Is(err, internalerr.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestDelete(t *testing.T) {
	env := setupCLITestEnv(t)
	env.trainAll(t)

	if _, _, err := env.run(t, "delete", "court"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	out, _, err := env.run(t, "list")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if strings.Contains(out, "court") {
		t.Errorf("deleted model still listed: %q", out)
	}
}

func TestSQLiteStore(t *testing.T) {
	env := setupCLITestEnv(t)
	env.dir = filepath.Join(t.TempDir(), "stylo.db")

	for _, name := range []string{"sea", "court", "mystery"} {
		if _, _, err := env.run(t, "--store", "sqlite", "train", name, env.sources[name]); err != nil {
			t.Fatalf("train %s: %v", name, err)
		}
	}
	out, _, err := env.run(t, "--store", "sqlite", "classify", "mystery", "sea", "court")
	if err != nil {
		t.Fatalf("classify: %v", err)
	}
	if !strings.Contains(out, "came from sea") {
		t.Errorf("unexpected output: %q", out)
	}
}

func TestTopEntries(t *testing.T) {
	got := topEntries(map[string]int{"b": 2, "a": 2, "c": 5, "d": 1}, 3)
	want := []entry{{"c", 5}, {"a", 2}, {"b", 2}}
	if len(got) != len(want) {
		t.Fatalf("topEntries = %v", got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("topEntries[%d] = %v, want %v", i, got[i], want[i])
		}
	}
}

func TestRenderDecisionPlain(t *testing.T) {
	d := classify.Decision{
		Unknown: "mystery", Source1: "a", Source2: "b",
		Winner: "b", WinnerIndex: 2, Tie: true,
	}
	out := renderDecision(d, false)
	if !strings.Contains(out, "mystery most likely came from b (tie, second source preferred)") {
		t.Errorf("unexpected verdict: %q", out)
	}
	if strings.Contains(out, "\x1b[") {
		t.Errorf("plain rendering must not contain escape codes: %q", out)
	}
	if shouldColorize(&bytes.Buffer{}) {
		t.Error("a buffer is never a terminal")
	}
}

func TestTableFooterKeepsCase(t *testing.T) {
	tbl := newTable("Channel", "Score").alignRight(2)
	tbl.scoreRow("words", -1.5)
	tbl.scoreFooter("weighted", -0.25)
	out := tbl.String()
	for _, want := range []string{"CHANNEL", "words", "-1.5000", "weighted", "-0.2500"} {
		if !strings.Contains(out, want) {
			t.Errorf("table missing %q:\n%s", want, out)
		}
	}
	if strings.Contains(out, "WEIGHTED") {
		t.Errorf("footer label should keep its case:\n%s", out)
	}
}
