// Package classify decides which of two candidate source models more likely
// produced an unknown text.
package classify

import (
	"crypto/rand"
	"fmt"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/cognicore/stylo/pkg/stylo/internalerr"
	"github.com/cognicore/stylo/pkg/stylo/likelihood"
	"github.com/cognicore/stylo/pkg/stylo/model"
)

// Weights holds one weight per channel, in model.Channels() order.
type Weights [5]float64

// DefaultWeights favours vocabulary: words and stems dominate the decision.
func DefaultWeights() Weights {
	return Weights{0.3, 0.1, 0.3, 0.2, 0.1}
}

// Validate rejects negative weights and an all-zero vector.
func (w Weights) Validate() error {
	sum := 0.0
	for i, v := range w {
		if v < 0 {
			return fmt.Errorf("weight for %s is negative: %w", model.Channel(i), internalerr.ErrInvalidConfig)
		}
		sum += v
	}
	if sum == 0 {
		return fmt.Errorf("all weights are zero: %w", internalerr.ErrInvalidConfig)
	}
	return nil
}

// Apply returns the weighted sum of scores.
func (w Weights) Apply(s likelihood.Scores) float64 {
	total := 0.0
	for i := range s {
		total += s[i] * w[i]
	}
	return total
}

// Decision is the outcome of one classification.
type Decision struct {
	ID        string            `json:"id"`
	Unknown   string            `json:"unknown"`
	Source1   string            `json:"source1"`
	Source2   string            `json:"source2"`
	Scores1   likelihood.Scores `json:"scores1"`
	Scores2   likelihood.Scores `json:"scores2"`
	Weighted1 float64           `json:"weighted1"`
	Weighted2 float64           `json:"weighted2"`
	Votes1    int               `json:"votes1"`
	Votes2    int               `json:"votes2"`
	// WinnerIndex is 1 or 2.
	WinnerIndex int    `json:"winner_index"`
	Winner      string `json:"winner"`
	// Tie is set when the weighted sums were exactly equal and the
	// second source won by default.
	Tie       bool      `json:"tie"`
	DecidedAt time.Time `json:"decided_at"`
}

// Report lists the per-channel scores of one model pair.
type Report struct {
	Self    string
	Other   string
	Scores  likelihood.Scores
	Overall float64
}

// Classifier compares an unknown model against two candidate sources
type Classifier struct {
	calc    *likelihood.Calculator
	weights Weights
	now     func() time.Time

	mu      sync.Mutex
	entropy *ulid.MonotonicEntropy
}

// Options configures a Classifier. Zero values select the defaults.
type Options struct {
	Calculator *likelihood.Calculator
	Weights    *Weights
	Now        func() time.Time
}

// New creates a classifier.
func New(opts Options) *Classifier {
	c := &Classifier{
		calc:    opts.Calculator,
		weights: DefaultWeights(),
		now:     opts.Now,
		entropy: ulid.Monotonic(rand.Reader, 0),
	}
	if c.calc == nil {
		c.calc = likelihood.NewCalculator(likelihood.DefaultConfig())
	}
	if opts.Weights != nil {
		c.weights = *opts.Weights
	}
	if c.now == nil {
		c.now = time.Now
	}
	return c
}

// Weights returns the channel weights in use.
func (c *Classifier) Weights() Weights {
	return c.weights
}

// Classify scores unknown against both sources. The source with the greater
// weighted sum wins; on an exact tie source2 wins. The per-channel vote is
// reported but never affects the outcome.
func (c *Classifier) Classify(unknown, source1, source2 *model.Model) Decision {
	scores1 := c.calc.Scores(unknown, source1)
	scores2 := c.calc.Scores(unknown, source2)

	d := Decision{
		Unknown:   unknown.Name,
		Source1:   source1.Name,
		Source2:   source2.Name,
		Scores1:   scores1,
		Scores2:   scores2,
		Weighted1: c.weights.Apply(scores1),
		Weighted2: c.weights.Apply(scores2),
	}
	d.Votes1, d.Votes2 = Votes(scores1, scores2)

	// TODO: decide whether a tie should be reported as undecided instead of
	// defaulting to source2; kept for compatibility with existing decisions.
	if d.Weighted1 > d.Weighted2 {
		d.WinnerIndex, d.Winner = 1, source1.Name
	} else {
		d.WinnerIndex, d.Winner = 2, source2.Name
		d.Tie = d.Weighted1 == d.Weighted2
	}

	now := c.now()
	d.DecidedAt = now.UTC()
	d.ID = c.newID(now)
	return d
}

// Votes awards one vote per channel to the strictly greater score.
func Votes(scores1, scores2 likelihood.Scores) (votes1, votes2 int) {
	for i := range scores1 {
		switch {
		case scores1[i] > scores2[i]:
			votes1++
		case scores1[i] < scores2[i]:
			votes2++
		}
	}
	return votes1, votes2
}

// Report scores self against other without making a decision.
func (c *Classifier) Report(self, other *model.Model) Report {
	scores := c.calc.Scores(self, other)
	return Report{
		Self:    self.Name,
		Other:   other.Name,
		Scores:  scores,
		Overall: scores.Sum(),
	}
}

func (c *Classifier) newID(t time.Time) string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return ulid.MustNew(ulid.Timestamp(t), c.entropy).String()
}
