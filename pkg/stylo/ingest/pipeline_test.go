package ingest

import (
	"reflect"
	"testing"

	"github.com/cognicore/stylo/pkg/stylo/model"
)

func TestPunctuation(t *testing.T) {
	got := string(Punctuation("Wait... really?!"))
	if got != "...?!" {
		t.Errorf("Punctuation = %q, want %q", got, "...?!")
	}

	got = string(Punctuation(`"(a) [b] {c}: d; e-f, g'h"`))
	want := `"()[]{}:;-,'"`
	if got != want {
		t.Errorf("Punctuation = %q, want %q", got, want)
	}

	if len(Punctuation("no marks here")) != 0 {
		t.Error("letters should never be extracted")
	}
	if len(Punctuation("@#$%^&*")) != 0 {
		t.Error("symbols outside the mark set should be ignored")
	}
}

func TestPipelineProcess(t *testing.T) {
	pipeline := NewPipeline(nil)

	f := pipeline.Process("Hi there. How are you?")

	if want := []int{2, 3}; !reflect.DeepEqual(f.SentenceLengths, want) {
		t.Errorf("SentenceLengths = %v, want %v", f.SentenceLengths, want)
	}
	if want := []string{"hi", "there", "how", "are", "you"}; !reflect.DeepEqual(f.Words, want) {
		t.Errorf("Words = %v, want %v", f.Words, want)
	}
	if want := []int{2, 5, 3, 3, 3}; !reflect.DeepEqual(f.WordLengths, want) {
		t.Errorf("WordLengths = %v, want %v", f.WordLengths, want)
	}
	if want := []string{"hi", "ther", "how", "are", "you"}; !reflect.DeepEqual(f.Stems, want) {
		t.Errorf("Stems = %v, want %v", f.Stems, want)
	}
	if string(f.Punctuation) != ".?" {
		t.Errorf("Punctuation = %q, want %q", string(f.Punctuation), ".?")
	}
}

func TestPipelineEmptyText(t *testing.T) {
	pipeline := NewPipeline(NewTokenizer())

	f := pipeline.Process("")

	if len(f.Words) != 0 || len(f.Stems) != 0 || len(f.WordLengths) != 0 {
		t.Errorf("empty text should produce no words, got %+v", f)
	}
	if len(f.SentenceLengths) != 0 {
		t.Errorf("empty text should produce no sentences, got %v", f.SentenceLengths)
	}
	if len(f.Punctuation) != 0 {
		t.Errorf("empty text should produce no punctuation, got %v", f.Punctuation)
	}
}

func TestIngestSentenceTable(t *testing.T) {
	pipeline := NewPipeline(nil)
	m := model.New("greeting")

	pipeline.Ingest(m, "Hi there. How are you?")

	sentences := m.Table(model.SentenceLengths)
	want := model.Table{"2": 1, "3": 1}
	if !sentences.Equal(want) {
		t.Errorf("sentence_lengths = %v, want %v", sentences, want)
	}
	if m.Table(model.Punctuations)["."] != 1 || m.Table(model.Punctuations)["?"] != 1 {
		t.Errorf("punctuations = %v", m.Table(model.Punctuations))
	}
	if m.Table(model.WordLengths)["3"] != 3 {
		t.Errorf("word_lengths[3] = %d, want 3", m.Table(model.WordLengths)["3"])
	}
}

func TestIngestTwiceDoublesCounts(t *testing.T) {
	pipeline := NewPipeline(nil)
	text := `It was the best of times, it was the worst of times... "Really?!" she asked (again).`

	once := model.New("once")
	pipeline.Ingest(once, text)

	twice := model.New("twice")
	pipeline.Ingest(twice, text)
	pipeline.Ingest(twice, text)

	for _, ch := range model.Channels() {
		single := once.Table(ch)
		double := twice.Table(ch)
		if len(single) == 0 {
			t.Errorf("channel %s should not be empty", ch)
		}
		if len(single) != len(double) {
			t.Errorf("channel %s: key sets differ (%d vs %d)", ch, len(single), len(double))
		}
		for k, n := range single {
			if double[k] != 2*n {
				t.Errorf("channel %s key %q: got %d, want %d", ch, k, double[k], 2*n)
			}
		}
	}
}

func TestIngestEllipsisCountsThreePeriods(t *testing.T) {
	m := model.New("wait")
	NewPipeline(nil).Ingest(m, "Wait... really?!")

	p := m.Table(model.Punctuations)
	if p["."] != 3 || p["?"] != 1 || p["!"] != 1 || len(p) != 3 {
		t.Errorf("punctuations = %v", p)
	}
	// "Wait..." closes the first sentence, "really?!" the second.
	if !m.Table(model.SentenceLengths).Equal(model.Table{"1": 2}) {
		t.Errorf("sentence_lengths = %v", m.Table(model.SentenceLengths))
	}
}

func TestAccumulateStemsFollowWords(t *testing.T) {
	m := model.New("runners")
	NewPipeline(nil).Ingest(m, "running runner runs")

	stems := m.Table(model.Stems)
	if stems["runn"] != 2 {
		t.Errorf("stems[runn] = %d, want 2", stems["runn"])
	}
	if stems["run"] != 1 {
		t.Errorf("stems[run] = %d, want 1", stems["run"])
	}
	if m.Table(model.Words).Total() != m.Table(model.Stems).Total() {
		t.Error("every word should produce exactly one stem")
	}
	if m.Table(model.Words).Total() != m.Table(model.WordLengths).Total() {
		t.Error("every word should produce exactly one length")
	}
}
