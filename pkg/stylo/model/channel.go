package model

import (
	"fmt"

	"github.com/cognicore/stylo/pkg/stylo/internalerr"
)

// Channel identifies one of the five feature tables of a Model.
type Channel int

const (
	Words Channel = iota
	WordLengths
	Stems
	SentenceLengths
	Punctuations
)

var channelNames = [...]string{
	Words:           "words",
	WordLengths:     "word_lengths",
	Stems:           "stems",
	SentenceLengths: "sentence_lengths",
	Punctuations:    "punctuations",
}

// Channels returns every channel in canonical order.
// Scores, weights and persisted artifacts all follow this order.
func Channels() []Channel {
	return []Channel{Words, WordLengths, Stems, SentenceLengths, Punctuations}
}

// String returns the table name used as the persistence suffix.
func (c Channel) String() string {
	if c < 0 || int(c) >= len(channelNames) {
		return fmt.Sprintf("channel(%d)", int(c))
	}
	return channelNames[c]
}

// Numeric reports whether the channel is keyed by integers.
func (c Channel) Numeric() bool {
	return c == WordLengths || c == SentenceLengths
}

// Valid reports whether c is one of the five known channels.
func (c Channel) Valid() bool {
	return c >= Words && c <= Punctuations
}

// ParseChannel maps a table name back to its channel.
func ParseChannel(name string) (Channel, error) {
	for i, n := range channelNames {
		if n == name {
			return Channel(i), nil
		}
	}
	return 0, fmt.Errorf("unknown channel %q: %w", name, internalerr.ErrInvalidInput)
}
