package ingest

import (
	"strings"
	"unicode/utf8"
)

// suffixes are tried in this order, not by length. "ness" comes after
// "iness" so that "happiness" loses the longer ending.
var suffixes = []string{
	"iness", "ness", "ment", "ing", "ers", "est",
	"er", "es", "ed", "ly", "s", "y", "e",
}

// Stem strips the first matching suffix from word.
//
// Words of three characters or fewer are returned unchanged. A suffix only
// matches when at least two characters remain after removing it. This is a
// heuristic: "runner" and "running" do not share a stem.
func Stem(word string) string {
	n := utf8.RuneCountInString(word)
	if n <= 3 {
		return word
	}
	for _, suf := range suffixes {
		if n > len(suf)+1 && strings.HasSuffix(word, suf) {
			return word[:len(word)-len(suf)]
		}
	}
	return word
}
