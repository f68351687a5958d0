// Package stt defines the interface for Speech-to-Text recognizers.
package stt

import (
	"context"
	"errors"
	"strings"
)

// ErrNoAudio is returned when a recognizer is given no audio.
var ErrNoAudio = errors.New("no audio content")

// Result is one recognized segment of speech.
type Result struct {
	Transcript string
	Confidence float64
}

// Recognizer transcribes a complete audio clip (Google, mock, etc.).
type Recognizer interface {
	// Recognize returns one result per recognized segment, in order.
	Recognize(ctx context.Context, audio []byte) ([]Result, error)

	// Name identifies the provider in logs and metrics.
	Name() string

	// Close releases provider resources.
	Close() error
}

// JoinTranscripts joins result transcripts with newlines, one line per result,
// the format the transcript processor reads.
func JoinTranscripts(results []Result) string {
	lines := make([]string, 0, len(results))
	for _, r := range results {
		lines = append(lines, r.Transcript)
	}
	return strings.Join(lines, "\n")
}
