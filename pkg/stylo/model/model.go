// Package model holds the stylometric fingerprint of a body of text: five
// accumulating frequency tables keyed by feature channel.
package model

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/cognicore/stylo/pkg/stylo/internalerr"
)

// Table maps a feature value to its number of occurrences.
// Integer-valued features (lengths) are keyed by their decimal string.
type Table map[string]int

// LengthKey returns the table key for an integer feature value.
func LengthKey(n int) string {
	return strconv.Itoa(n)
}

// Total returns the sum of all counts.
func (t Table) Total() int {
	total := 0
	for _, n := range t {
		total += n
	}
	return total
}

// Clone returns an independent copy of the table.
func (t Table) Clone() Table {
	out := make(Table, len(t))
	for k, v := range t {
		out[k] = v
	}
	return out
}

// Equal reports whether both tables have the same keys and counts.
func (t Table) Equal(other Table) bool {
	if len(t) != len(other) {
		return false
	}
	for k, v := range t {
		if ov, ok := other[k]; !ok || ov != v {
			return false
		}
	}
	return true
}

// Model is the fingerprint of one text corpus. The name doubles as the
// persistence key. A Model is not safe for concurrent mutation.
type Model struct {
	Name   string
	tables map[Channel]Table
}

// New creates an empty model.
func New(name string) *Model {
	m := &Model{Name: name, tables: make(map[Channel]Table, len(channelNames))}
	for _, ch := range Channels() {
		m.tables[ch] = make(Table)
	}
	return m
}

// Table returns the live table for a channel. Callers must treat it as read-only.
func (m *Model) Table(ch Channel) Table {
	return m.tables[ch]
}

// Add records one occurrence of key in the channel.
func (m *Model) Add(ch Channel, key string) {
	t, ok := m.tables[ch]
	if !ok {
		t = make(Table)
		m.tables[ch] = t
	}
	t[key]++
}

// AddLength records one occurrence of an integer feature value.
func (m *Model) AddLength(ch Channel, n int) {
	m.Add(ch, LengthKey(n))
}

// Replace swaps in a complete set of tables. Every channel must be present
// and every count positive; on error the model is left untouched.
func (m *Model) Replace(tables map[Channel]Table) error {
	next := make(map[Channel]Table, len(channelNames))
	for _, ch := range Channels() {
		t, ok := tables[ch]
		if !ok {
			return fmt.Errorf("replace %s: missing %s table: %w", m.Name, ch, internalerr.ErrInvalidInput)
		}
		for k, v := range t {
			if v <= 0 {
				return fmt.Errorf("replace %s: %s[%q] = %d: %w", m.Name, ch, k, v, internalerr.ErrInvalidInput)
			}
			if ch.Numeric() {
				if _, err := strconv.Atoi(k); err != nil {
					return fmt.Errorf("replace %s: %s key %q is not an integer: %w", m.Name, ch, k, internalerr.ErrInvalidInput)
				}
			}
		}
		next[ch] = t.Clone()
	}
	m.tables = next
	return nil
}

// Tables returns a deep copy of all five tables.
func (m *Model) Tables() map[Channel]Table {
	out := make(map[Channel]Table, len(m.tables))
	for _, ch := range Channels() {
		out[ch] = m.Table(ch).Clone()
	}
	return out
}

// Equal reports whether both models carry identical tables. Names are ignored.
func (m *Model) Equal(other *Model) bool {
	for _, ch := range Channels() {
		if !m.Table(ch).Equal(other.Table(ch)) {
			return false
		}
	}
	return true
}

// Empty reports whether nothing has been ingested yet.
func (m *Model) Empty() bool {
	for _, t := range m.tables {
		if len(t) > 0 {
			return false
		}
	}
	return true
}

// Summary holds the number of distinct keys per channel.
type Summary struct {
	Name     string
	Distinct map[Channel]int
}

// Summary reports how many distinct keys each table holds.
func (m *Model) Summary() Summary {
	s := Summary{Name: m.Name, Distinct: make(map[Channel]int, len(channelNames))}
	for _, ch := range Channels() {
		s.Distinct[ch] = len(m.Table(ch))
	}
	return s
}

func (s Summary) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "text model name: %s\n", s.Name)
	for _, ch := range Channels() {
		fmt.Fprintf(&b, "  number of %s: %d\n", strings.ReplaceAll(ch.String(), "_", " "), s.Distinct[ch])
	}
	return b.String()
}
