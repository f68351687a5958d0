// Package mock provides a deterministic keyword classifier for running the
// service without a model server. It scores each candidate label by counting
// vocabulary hits and ranks labels the same way a zero-shot model would.
package mock

import (
	"context"
	"strings"
	"unicode"

	"clinical-transcript-service/internal/service/classifier"
)

// DefaultVocabulary maps candidate labels to the cue words that suggest them.
var DefaultVocabulary = map[string][]string{
	"Doctor": {
		"prescribe", "prescription", "diagnosis", "diagnose", "recommend",
		"examine", "exam", "test", "tests", "dose", "dosage", "mg", "tablet",
		"tablets", "symptoms", "history", "allergies", "allergic", "follow",
		"take", "should", "let's", "lets", "how", "when", "what", "where",
		"any", "describe", "scan", "x-ray", "blood", "pressure", "refer",
	},
	"Patient": {
		"i", "i'm", "im", "i've", "ive", "my", "me", "mine", "hurts", "hurt",
		"pain", "ache", "aching", "feel", "feeling", "felt", "sick", "tired",
		"dizzy", "cough", "coughing", "fever", "since", "yesterday", "week",
		"days", "thank", "thanks", "okay", "yes", "no",
	},
}

// Classifier implements classifier.Classifier with keyword scoring.
type Classifier struct {
	vocabulary map[string]map[string]struct{}
}

// New creates a mock classifier with DefaultVocabulary.
func New() *Classifier {
	return NewWithVocabulary(DefaultVocabulary)
}

// NewWithVocabulary creates a mock classifier with a custom vocabulary.
func NewWithVocabulary(vocab map[string][]string) *Classifier {
	c := &Classifier{vocabulary: make(map[string]map[string]struct{}, len(vocab))}
	for label, words := range vocab {
		set := make(map[string]struct{}, len(words))
		for _, w := range words {
			set[strings.ToLower(w)] = struct{}{}
		}
		c.vocabulary[label] = set
	}
	return c
}

// Name implements classifier.Classifier.
func (c *Classifier) Name() string {
	return "mock"
}

// Ready implements classifier.Classifier; the mock is always ready.
func (c *Classifier) Ready(ctx context.Context) error {
	return ctx.Err()
}

// Classify scores every candidate label by vocabulary hits. Scores are
// normalized to sum to 1; with no hits at all, a question leans Doctor and
// anything else leans Patient.
func (c *Classifier) Classify(ctx context.Context, text string, candidateLabels []string) (*classifier.Classification, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	tokens := tokenize(text)
	hits := make([]float64, len(candidateLabels))
	var total float64
	for i, label := range candidateLabels {
		set := c.vocabulary[label]
		for _, tok := range tokens {
			if _, ok := set[tok]; ok {
				hits[i]++
			}
		}
		total += hits[i]
	}

	if total == 0 {
		lean := "Patient"
		if strings.HasSuffix(strings.TrimSpace(text), "?") {
			lean = "Doctor"
		}
		for i, label := range candidateLabels {
			if label == lean {
				hits[i] = 1
				total = 1
			}
		}
	}

	scores := make([]float64, len(candidateLabels))
	for i := range hits {
		switch {
		case total > 0:
			scores[i] = hits[i] / total
		case len(candidateLabels) > 0:
			scores[i] = 1 / float64(len(candidateLabels))
		}
	}

	result := &classifier.Classification{
		Sequence: text,
		Labels:   append([]string(nil), candidateLabels...),
		Scores:   scores,
	}
	result.Sort()
	return result, nil
}

func tokenize(text string) []string {
	return strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r) && r != '\'' && r != '-'
	})
}
