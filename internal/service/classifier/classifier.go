// Package classifier defines the interface for zero-shot text classifiers.
package classifier

import (
	"context"
	"errors"
	"fmt"
	"sort"
)

var (
	// ErrNoLabels is returned when a classification carries no labels.
	ErrNoLabels = errors.New("classification returned no labels")

	// ErrUnexpectedLabel is returned when the top label is not a candidate.
	ErrUnexpectedLabel = errors.New("classification returned a label outside the candidate set")
)

// Classification is the result of a zero-shot classification. Labels and
// Scores are parallel and sorted by descending score.
type Classification struct {
	Sequence string    `json:"sequence"`
	Labels   []string  `json:"labels"`
	Scores   []float64 `json:"scores"`
}

// Classifier assigns candidate labels to text without task-specific training.
type Classifier interface {
	// Classify ranks candidateLabels for text.
	Classify(ctx context.Context, text string, candidateLabels []string) (*Classification, error)

	// Ready reports whether the underlying model can serve requests.
	Ready(ctx context.Context) error

	// Name identifies the provider in logs and metrics.
	Name() string
}

// Sort orders labels by descending score. Labels without a score keep their
// relative order after all scored labels.
func (c *Classification) Sort() {
	idx := make([]int, len(c.Labels))
	for i := range idx {
		idx[i] = i
	}
	score := func(i int) float64 {
		if i < len(c.Scores) {
			return c.Scores[i]
		}
		return -1
	}
	sort.SliceStable(idx, func(a, b int) bool {
		return score(idx[a]) > score(idx[b])
	})

	labels := make([]string, len(c.Labels))
	scores := make([]float64, 0, len(c.Scores))
	for i, j := range idx {
		labels[i] = c.Labels[j]
		if j < len(c.Scores) {
			scores = append(scores, c.Scores[j])
		}
	}
	c.Labels = labels
	c.Scores = scores
}

// Top returns the top-ranked label, checking that it is one of candidates.
func (c *Classification) Top(candidates []string) (string, error) {
	if c == nil || len(c.Labels) == 0 {
		return "", ErrNoLabels
	}
	top := c.Labels[0]
	for _, cand := range candidates {
		if cand == top {
			return top, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrUnexpectedLabel, top)
}
