// Package likelihood scores how probable one frequency table is under the
// empirical distribution of another.
package likelihood

import (
	"maps"
	"math"
	"slices"

	"github.com/cognicore/stylo/pkg/stylo/model"
)

// Defaults for Config.
const (
	DefaultSentinel = -50.0
	DefaultUnseen   = 0.5
)

// Config controls the smoothing of the log-likelihood score.
type Config struct {
	// Sentinel is returned when the reference table is empty.
	Sentinel float64 `yaml:"sentinel"`
	// Unseen is the pseudo-count for keys missing from the reference.
	// It is divided by the reference total, not renormalized by vocabulary size.
	Unseen float64 `yaml:"unseen"`
}

// DefaultConfig returns the standard sentinel and unseen pseudo-count.
func DefaultConfig() Config {
	return Config{Sentinel: DefaultSentinel, Unseen: DefaultUnseen}
}

// Calculator computes log-likelihood similarity scores
type Calculator struct {
	sentinel float64
	unseen   float64
}

// NewCalculator creates a calculator from cfg. A non-positive Unseen falls
// back to the default since log(0) is undefined.
func NewCalculator(cfg Config) *Calculator {
	if cfg.Unseen <= 0 {
		cfg.Unseen = DefaultUnseen
	}
	return &Calculator{sentinel: cfg.Sentinel, unseen: cfg.Unseen}
}

var defaultCalculator = NewCalculator(DefaultConfig())

// Similarity scores query against reference using the default configuration.
func Similarity(reference, query model.Table) float64 {
	return defaultCalculator.Similarity(reference, query)
}

// Similarity returns the log-likelihood of query under reference:
//
//	Σ_k query[k] · log(p(k)),  p(k) = reference[k]/total  or  unseen/total
//
// The score is asymmetric and never positive; closer to zero means more
// similar. Keys only present in reference do not contribute.
func (c *Calculator) Similarity(reference, query model.Table) float64 {
	if len(reference) == 0 {
		return c.sentinel
	}

	total := float64(reference.Total())
	unseen := math.Log(c.unseen / total)

	// Sorted keys keep the floating point sum reproducible.
	score := 0.0
	for _, key := range slices.Sorted(maps.Keys(query)) {
		n := query[key]
		if ref, ok := reference[key]; ok {
			score += math.Log(float64(ref)/total) * float64(n)
		} else {
			score += unseen * float64(n)
		}
	}
	return score
}

// Scores holds one similarity score per channel, in model.Channels() order.
type Scores [5]float64

// Get returns the score for ch.
func (s Scores) Get(ch model.Channel) float64 {
	return s[ch]
}

// Sum returns the unweighted total over all channels.
func (s Scores) Sum() float64 {
	total := 0.0
	for _, v := range s {
		total += v
	}
	return total
}

// Scores compares self against other channel by channel. other is always the
// reference and self the query.
func (c *Calculator) Scores(self, other *model.Model) Scores {
	var out Scores
	for _, ch := range model.Channels() {
		out[ch] = c.Similarity(other.Table(ch), self.Table(ch))
	}
	return out
}
