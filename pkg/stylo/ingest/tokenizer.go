package ingest

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

// cleanChars are removed from text before it is split into words.
const cleanChars = `.,?"'!;:()-[]{}`

// sentenceEnders close a sentence when they end a raw token.
const sentenceEnders = ".?!"

// Tokenizer splits text into raw tokens, cleaned words and sentences.
type Tokenizer struct {
	strip     map[rune]struct{}
	terminals map[rune]struct{}
}

// NewTokenizer creates a tokenizer with the standard cleaning and
// sentence-terminator sets.
func NewTokenizer() *Tokenizer {
	return &Tokenizer{
		strip:     runeSet(cleanChars),
		terminals: runeSet(sentenceEnders),
	}
}

// isSeparator reports whether r splits tokens. Besides Unicode white space
// this includes the ASCII information separators U+001C to U+001F.
func isSeparator(r rune) bool {
	return unicode.IsSpace(r) || (r >= 0x1c && r <= 0x1f)
}

func fields(s string) []string {
	return strings.FieldsFunc(s, isSeparator)
}

func runeSet(chars string) map[rune]struct{} {
	set := make(map[rune]struct{}, len(chars))
	for _, r := range chars {
		set[r] = struct{}{}
	}
	return set
}

// RawTokens splits text on whitespace without any normalization.
// These tokens are only used to find sentence boundaries.
func (t *Tokenizer) RawTokens(text string) []string {
	return fields(text)
}

// Clean removes punctuation, lowercases, and splits text into words.
// Empty strings never appear in the result.
func (t *Tokenizer) Clean(text string) []string {
	stripped := strings.Map(func(r rune) rune {
		if _, ok := t.strip[r]; ok {
			return -1
		}
		return r
	}, text)
	return fields(strings.ToLower(stripped))
}

// SentenceLengths returns the word count of every sentence in text.
// A sentence ends at a raw token whose last character is '.', '?' or '!'.
// Trailing words without a terminator form one final sentence.
func (t *Tokenizer) SentenceLengths(text string) []int {
	var lengths []int
	count := 0
	for _, tok := range t.RawTokens(text) {
		count++
		last, _ := utf8.DecodeLastRuneInString(tok)
		if _, ok := t.terminals[last]; ok {
			lengths = append(lengths, count)
			count = 0
		}
	}
	if count > 0 {
		lengths = append(lengths, count)
	}
	return lengths
}
