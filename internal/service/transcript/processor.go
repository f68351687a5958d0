// Package transcript turns raw conversation transcripts into speaker-labelled
// records using a zero-shot classifier.
package transcript

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"
	"unicode/utf8"

	"clinical-transcript-service/internal/models"
	"clinical-transcript-service/internal/observability/logging"
	"clinical-transcript-service/internal/observability/metrics"
	"clinical-transcript-service/internal/schema"
	"clinical-transcript-service/internal/service/classifier"
	"clinical-transcript-service/internal/store"
)

// ErrTranscriptNotFound is returned when the input transcript does not exist.
var ErrTranscriptNotFound = errors.New("input file not found")

// ErrInvalidEncoding is returned when a transcript is not valid UTF-8.
var ErrInvalidEncoding = errors.New("transcript is not valid UTF-8")

// OutputIndent is the indentation of structured transcript files.
const OutputIndent = "    "

// Processor classifies transcript lines one at a time. Each line is sent to
// the classifier on its own; no context from neighbouring lines is used.
type Processor struct {
	classifier classifier.Classifier
	uploads    *store.Uploads
	validator  *schema.Validator
	metrics    *metrics.Metrics
}

// Option configures a Processor.
type Option func(*Processor)

// WithValidator checks output against the structured transcript schema
// before it is written.
func WithValidator(v *schema.Validator) Option {
	return func(p *Processor) { p.validator = v }
}

// WithMetrics overrides the metrics sink.
func WithMetrics(m *metrics.Metrics) Option {
	return func(p *Processor) { p.metrics = m }
}

// NewProcessor creates a Processor reading from and writing to uploads.
func NewProcessor(c classifier.Classifier, uploads *store.Uploads, opts ...Option) *Processor {
	p := &Processor{
		classifier: c,
		uploads:    uploads,
		metrics:    metrics.DefaultMetrics,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Structure classifies every non-blank line of raw, in order. The first
// classifier error aborts and is returned.
func (p *Processor) Structure(ctx context.Context, raw string) (models.StructuredTranscript, error) {
	structured := models.StructuredTranscript{}

	for i, line := range strings.Split(raw, "\n") {
		text := strings.TrimSpace(line)
		if text == "" {
			p.metrics.RecordBlankLine()
			continue
		}

		speaker, err := p.classify(ctx, text)
		if err != nil {
			return nil, fmt.Errorf("failed to classify line %d: %w", i+1, err)
		}

		p.metrics.RecordUtterance(speaker)
		structured = append(structured, models.Utterance{
			Speaker: models.Speaker(speaker),
			Text:    text,
		})
	}

	return structured, nil
}

func (p *Processor) classify(ctx context.Context, text string) (string, error) {
	start := time.Now()
	result, err := p.classifier.Classify(ctx, text, models.CandidateLabels)
	p.metrics.RecordClassification(p.classifier.Name(), err, time.Since(start).Seconds())
	if err != nil {
		return "", err
	}
	return result.Top(models.CandidateLabels)
}

// Result describes a processed transcript file.
type Result struct {
	InputPath  string
	OutputPath string
	Records    models.StructuredTranscript
}

// ProcessFile reads inputName from the uploads directory, structures it and
// writes the records to outputName, or to <input-stem>_structured.json when
// outputName is empty. It returns the output path.
func (p *Processor) ProcessFile(ctx context.Context, inputName, outputName string) (string, error) {
	res, err := p.Process(ctx, inputName, outputName)
	if err != nil {
		return "", err
	}
	return res.OutputPath, nil
}

// Process is ProcessFile returning the records as well.
func (p *Processor) Process(ctx context.Context, inputName, outputName string) (*Result, error) {
	inputPath := p.uploads.Path(inputName)
	if _, err := os.Stat(inputPath); errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("%w: %s", ErrTranscriptNotFound, inputPath)
	}

	raw, err := p.uploads.Read(inputName)
	if err != nil {
		return nil, fmt.Errorf("failed to read transcript: %w", err)
	}
	if !utf8.Valid(raw) {
		return nil, fmt.Errorf("%w: %s", ErrInvalidEncoding, inputPath)
	}

	structured, err := p.Structure(ctx, string(raw))
	if err != nil {
		return nil, err
	}

	if p.validator != nil {
		if err := p.validator.Validate(structured); err != nil {
			return nil, err
		}
	}

	if outputName == "" {
		outputName = store.StructuredName(inputName)
	}

	outputPath, err := p.uploads.WriteJSON(outputName, structured, OutputIndent)
	if err != nil {
		return nil, fmt.Errorf("failed to write structured transcript: %w", err)
	}
	p.metrics.RecordStructured()

	logger := logging.WithTranscript("transcript-processor", store.Stem(inputName))
	logger.Info().
		Str("input", inputPath).
		Str("output", outputPath).
		Int("utterances", len(structured)).
		Msg("Structured transcript saved")

	return &Result{
		InputPath:  inputPath,
		OutputPath: outputPath,
		Records:    structured,
	}, nil
}
