// Package mock provides a mock STT recognizer for running without cloud
// credentials. It returns a scripted consultation, one result per turn.
package mock

import (
	"context"
	"sync"

	"clinical-transcript-service/internal/service/stt"
)

// DefaultConsultation provides sample recognized turns.
var DefaultConsultation = []stt.Result{
	{Transcript: "Good morning, what brings you in today?", Confidence: 0.95},
	{Transcript: "I've had a sore throat and a fever since Monday.", Confidence: 0.92},
	{Transcript: "Any difficulty swallowing or shortness of breath?", Confidence: 0.90},
	{Transcript: "It hurts to swallow but breathing is fine.", Confidence: 0.93},
	{Transcript: "I'll prescribe a course of antibiotics and we'll follow up next week.", Confidence: 0.91},
}

// Adapter implements stt.Recognizer with scripted results.
type Adapter struct {
	mu       sync.Mutex
	results  []stt.Result
	requests int
	closed   bool
}

// New creates a mock recognizer returning DefaultConsultation.
func New() *Adapter {
	return NewWithResults(DefaultConsultation)
}

// NewWithResults creates a mock recognizer returning results.
func NewWithResults(results []stt.Result) *Adapter {
	return &Adapter{results: append([]stt.Result(nil), results...)}
}

// Name implements stt.Recognizer.
func (a *Adapter) Name() string {
	return "mock"
}

// Recognize returns the scripted results for any non-empty audio.
func (a *Adapter) Recognize(ctx context.Context, audio []byte) ([]stt.Result, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if len(audio) == 0 {
		return nil, stt.ErrNoAudio
	}

	a.mu.Lock()
	defer a.mu.Unlock()
	a.requests++
	return append([]stt.Result(nil), a.results...), nil
}

// Requests returns how many clips were recognized.
func (a *Adapter) Requests() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.requests
}

// Close ends the mock session.
func (a *Adapter) Close() error {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.closed = true
	return nil
}
