package ingest

import (
	"unicode/utf8"

	"github.com/cognicore/stylo/pkg/stylo/model"
)

// Pipeline orchestrates feature extraction:
// text → sentences → cleaned words → lengths → stems → punctuation
// A Pipeline is safe for concurrent use.
type Pipeline struct {
	tokenizer *Tokenizer
	stem      func(string) string
}

// NewPipeline creates a pipeline around the given tokenizer.
// A nil tokenizer falls back to NewTokenizer().
func NewPipeline(tokenizer *Tokenizer) *Pipeline {
	if tokenizer == nil {
		tokenizer = NewTokenizer()
	}
	return &Pipeline{
		tokenizer: tokenizer,
		stem:      Stem,
	}
}

// Features holds the raw observations extracted from one text chunk.
type Features struct {
	Words           []string
	WordLengths     []int
	Stems           []string
	SentenceLengths []int
	Punctuation     []rune
}

// Process extracts all five feature channels from a text chunk
func (p *Pipeline) Process(text string) Features {
	// 1. Sentences from raw whitespace tokens
	sentences := p.tokenizer.SentenceLengths(text)

	// 2. Cleaned words, their lengths and stems
	words := p.tokenizer.Clean(text)
	lengths := make([]int, len(words))
	stems := make([]string, len(words))
	for i, w := range words {
		lengths[i] = utf8.RuneCountInString(w)
		stems[i] = p.stem(w)
	}

	// 3. Punctuation from the untouched text
	return Features{
		Words:           words,
		WordLengths:     lengths,
		Stems:           stems,
		SentenceLengths: sentences,
		Punctuation:     Punctuation(text),
	}
}

// Ingest processes text and accumulates its features into m.
// Repeated calls add to the existing counts.
func (p *Pipeline) Ingest(m *model.Model, text string) {
	Accumulate(m, p.Process(text))
}

// Accumulate adds previously extracted features to m.
func Accumulate(m *model.Model, f Features) {
	for _, n := range f.SentenceLengths {
		m.AddLength(model.SentenceLengths, n)
	}
	for _, w := range f.Words {
		m.Add(model.Words, w)
	}
	for _, n := range f.WordLengths {
		m.AddLength(model.WordLengths, n)
	}
	for _, s := range f.Stems {
		m.Add(model.Stems, s)
	}
	for _, r := range f.Punctuation {
		m.Add(model.Punctuations, string(r))
	}
}
