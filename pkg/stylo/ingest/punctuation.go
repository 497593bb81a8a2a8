package ingest

import "strings"

// punctuationMarks is the set of characters counted by the punctuation channel.
const punctuationMarks = `,.'"?!-()[]{}:;`

// Punctuation returns every punctuation mark in text, in order and with
// duplicates. An ellipsis yields three separate periods.
func Punctuation(text string) []rune {
	var marks []rune
	for _, r := range text {
		if strings.ContainsRune(punctuationMarks, r) {
			marks = append(marks, r)
		}
	}
	return marks
}
