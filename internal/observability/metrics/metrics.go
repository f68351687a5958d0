// Package metrics provides Prometheus metrics for observability.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "clinical_transcript"

// Metrics holds all Prometheus metrics for the service.
type Metrics struct {
	// Upload metrics
	UploadsTotal   *prometheus.CounterVec
	UploadDuration prometheus.Histogram

	// Structuring metrics
	TranscriptsStructured prometheus.Counter
	Utterances            *prometheus.CounterVec
	BlankLinesSkipped     prometheus.Counter

	// Classifier metrics
	ClassifierLatency *prometheus.HistogramVec
	ClassifierErrors  *prometheus.CounterVec

	// Event publish metrics
	EventPublishTotal   *prometheus.CounterVec
	EventPublishErrors  *prometheus.CounterVec
	EventPublishLatency *prometheus.HistogramVec

	// Mirror metrics
	MirrorErrors *prometheus.CounterVec

	// Transcription metrics
	TranscriptionsTotal *prometheus.CounterVec
	STTLatency          *prometheus.HistogramVec

	// Saved live conversations
	ConversationsSaved prometheus.Counter

	// gRPC metrics
	GRPCRequests *prometheus.CounterVec
	GRPCLatency  *prometheus.HistogramVec
}

// DefaultMetrics is the global metrics instance.
var DefaultMetrics = NewMetrics(prometheus.DefaultRegisterer)

// NewMetrics creates all Prometheus metrics and registers them with reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)

	return &Metrics{
		UploadsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "uploads_total",
			Help:      "Total number of transcript uploads by outcome",
		}, []string{"outcome"}),
		UploadDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "upload_duration_seconds",
			Help:      "Time to store, structure and return an uploaded transcript",
			Buckets:   []float64{0.1, 0.5, 1, 2, 5, 10, 30, 60, 120, 300},
		}),

		TranscriptsStructured: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "transcripts_structured_total",
			Help:      "Total number of transcripts written as structured JSON",
		}),
		Utterances: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "utterances_total",
			Help:      "Total number of utterances classified, by speaker",
		}, []string{"speaker"}),
		BlankLinesSkipped: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "blank_lines_skipped_total",
			Help:      "Total number of blank transcript lines dropped",
		}),

		ClassifierLatency: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "classifier_latency_seconds",
			Help:      "Zero-shot classification latency per line in seconds",
			Buckets:   []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2, 5},
		}, []string{"provider"}),
		ClassifierErrors: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "classifier_errors_total",
			Help:      "Total number of classifier errors",
		}, []string{"provider"}),

		EventPublishTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "event_publish_total",
			Help:      "Total number of events published",
		}, []string{"backend", "event_type"}),
		EventPublishErrors: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "event_publish_errors_total",
			Help:      "Total number of event publish errors",
		}, []string{"backend", "event_type"}),
		EventPublishLatency: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "event_publish_latency_seconds",
			Help:      "Event publish latency in seconds",
			Buckets:   []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1},
		}, []string{"backend"}),

		MirrorErrors: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "mirror_errors_total",
			Help:      "Total number of Redis mirror errors",
		}, []string{"operation"}),

		TranscriptionsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "transcriptions_total",
			Help:      "Total number of audio transcription requests by outcome",
		}, []string{"provider", "outcome"}),
		STTLatency: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "stt_latency_seconds",
			Help:      "Speech-to-text recognition latency in seconds",
			Buckets:   []float64{0.1, 0.25, 0.5, 1, 2, 5, 10, 30},
		}, []string{"provider"}),

		ConversationsSaved: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "conversations_saved_total",
			Help:      "Total number of live conversations saved",
		}),

		GRPCRequests: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "grpc_requests_total",
			Help:      "Total number of gRPC calls by method and status code",
		}, []string{"method", "code"}),
		GRPCLatency: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "grpc_latency_seconds",
			Help:      "gRPC call duration in seconds",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method"}),
	}
}

// RecordUpload records a finished upload request.
func (m *Metrics) RecordUpload(outcome string, durationSeconds float64) {
	m.UploadsTotal.WithLabelValues(outcome).Inc()
	m.UploadDuration.Observe(durationSeconds)
}

// RecordUtterance records one classified line.
func (m *Metrics) RecordUtterance(speaker string) {
	m.Utterances.WithLabelValues(speaker).Inc()
}

// RecordBlankLine records a dropped blank line.
func (m *Metrics) RecordBlankLine() {
	m.BlankLinesSkipped.Inc()
}

// RecordStructured records a structured transcript written to disk.
func (m *Metrics) RecordStructured() {
	m.TranscriptsStructured.Inc()
}

// RecordClassification records a classifier call.
func (m *Metrics) RecordClassification(provider string, err error, latencySeconds float64) {
	m.ClassifierLatency.WithLabelValues(provider).Observe(latencySeconds)
	if err != nil {
		m.ClassifierErrors.WithLabelValues(provider).Inc()
	}
}

// RecordEventPublish records an event publish attempt.
func (m *Metrics) RecordEventPublish(backend, eventType string, err error, latencySeconds float64) {
	m.EventPublishTotal.WithLabelValues(backend, eventType).Inc()
	m.EventPublishLatency.WithLabelValues(backend).Observe(latencySeconds)
	if err != nil {
		m.EventPublishErrors.WithLabelValues(backend, eventType).Inc()
	}
}

// RecordMirrorError records a failed Redis mirror operation.
func (m *Metrics) RecordMirrorError(operation string) {
	m.MirrorErrors.WithLabelValues(operation).Inc()
}

// RecordTranscription records an audio transcription request.
func (m *Metrics) RecordTranscription(provider string, err error, latencySeconds float64) {
	outcome := "success"
	if err != nil {
		outcome = "error"
	}
	m.TranscriptionsTotal.WithLabelValues(provider, outcome).Inc()
	m.STTLatency.WithLabelValues(provider).Observe(latencySeconds)
}

// RecordConversationSaved records a saved live conversation.
func (m *Metrics) RecordConversationSaved() {
	m.ConversationsSaved.Inc()
}

// RecordGRPCCall records a finished gRPC call.
func (m *Metrics) RecordGRPCCall(method, code string, durationSeconds float64) {
	m.GRPCRequests.WithLabelValues(method, code).Inc()
	m.GRPCLatency.WithLabelValues(method).Observe(durationSeconds)
}
