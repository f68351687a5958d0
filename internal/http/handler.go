package http

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime"
	"mime/multipart"
	"net/http"
	"path/filepath"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"clinical-transcript-service/internal/events"
	"clinical-transcript-service/internal/models"
	"clinical-transcript-service/internal/observability/logging"
	"clinical-transcript-service/internal/observability/metrics"
	"clinical-transcript-service/internal/schema"
	"clinical-transcript-service/internal/service/stt"
	"clinical-transcript-service/internal/service/transcript"
	"clinical-transcript-service/internal/store"
)

// Upload outcomes recorded in metrics.
const (
	outcomeSuccess  = "success"
	outcomeRejected = "rejected"
	outcomeError    = "error"
)

// Handler serves the transcript API.
type Handler struct {
	processor  *transcript.Processor
	uploads    *store.Uploads
	mirror     *store.Mirror
	sink       events.Sink
	recognizer stt.Recognizer
	validator  *schema.Validator
	metrics    *metrics.Metrics
	logger     zerolog.Logger
}

// HandlerDeps are the collaborators of Handler. Mirror, Sink and Recognizer
// may be nil.
type HandlerDeps struct {
	Processor  *transcript.Processor
	Uploads    *store.Uploads
	Mirror     *store.Mirror
	Sink       events.Sink
	Recognizer stt.Recognizer
	Validator  *schema.Validator
	Metrics    *metrics.Metrics
}

// NewHandler creates the API handler.
func NewHandler(deps HandlerDeps) *Handler {
	h := &Handler{
		processor:  deps.Processor,
		uploads:    deps.Uploads,
		mirror:     deps.Mirror,
		sink:       deps.Sink,
		recognizer: deps.Recognizer,
		validator:  deps.Validator,
		metrics:    deps.Metrics,
		logger:     logging.WithComponent("http-handler"),
	}
	if h.mirror == nil {
		h.mirror = &store.Mirror{}
	}
	if h.sink == nil {
		h.sink = events.New(nil)
	}
	if h.metrics == nil {
		h.metrics = metrics.DefaultMetrics
	}
	return h
}

// UploadTranscript handles POST /api/upload-transcript.
func (h *Handler) UploadTranscript(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	outcome := outcomeError
	defer func() {
		h.metrics.RecordUpload(outcome, time.Since(start).Seconds())
	}()

	part, err := filePart(r)
	if err != nil {
		outcome = outcomeRejected
		writeError(w, http.StatusBadRequest, "No file provided")
		return
	}
	defer part.Close()

	filename := part.FileName()
	if filename == "" {
		outcome = outcomeRejected
		writeError(w, http.StatusBadRequest, "Empty filename")
		return
	}

	logger := h.logger.With().
		Str("requestId", middleware.GetReqID(r.Context())).
		Str("filename", filename).
		Logger()

	if _, err := h.uploads.Save(filename, part); err != nil {
		logger.Error().Err(err).Msg("Failed to store upload")
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	res, err := h.processor.Process(r.Context(), filename, "")
	if err != nil {
		logger.Error().Err(err).Msg("Failed to process transcript")
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	structured, err := h.uploads.Read(filepath.Base(res.OutputPath))
	if err != nil {
		logger.Error().Err(err).Msg("Failed to read structured transcript")
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	h.announce(r.Context(), logger, filename, res)

	outcome = outcomeSuccess
	writeJSON(w, http.StatusOK, UploadResponse{
		Message:        "File processed successfully",
		StructuredJSON: string(structured),
	})
}

// filePart returns the multipart file part named "file". A "file" part
// without a filename parameter is a plain form field and is skipped.
func filePart(r *http.Request) (*multipart.Part, error) {
	mr, err := r.MultipartReader()
	if err != nil {
		return nil, err
	}
	for {
		p, err := mr.NextPart()
		if err != nil {
			if errors.Is(err, io.EOF) {
				return nil, http.ErrMissingFile
			}
			return nil, err
		}
		if p.FormName() == "file" && hasFilename(p) {
			return p, nil
		}
		p.Close()
	}
}

// hasFilename reports whether the part's Content-Disposition carries a
// filename parameter, empty or not.
func hasFilename(p *multipart.Part) bool {
	_, params, err := mime.ParseMediaType(p.Header.Get("Content-Disposition"))
	if err != nil {
		return false
	}
	_, ok := params["filename"]
	return ok
}

// announce mirrors the records and publishes the structured event. Failures
// are logged and never reach the caller.
func (h *Handler) announce(ctx context.Context, logger zerolog.Logger, filename string, res *transcript.Result) {
	stem := store.Stem(filename)

	if err := h.mirror.Put(ctx, stem, res.Records); err != nil {
		h.metrics.RecordMirrorError("put")
		logger.Warn().Err(err).Msg("Failed to mirror structured transcript")
	}

	doctor, patient := res.Records.Counts()
	ev := models.StructuredTranscriptEvent{
		EventType:      models.EventTypeStructured,
		EventID:        uuid.NewString(),
		TranscriptID:   stem,
		Source:         filepath.Base(res.InputPath),
		Output:         filepath.Base(res.OutputPath),
		UtteranceCount: len(res.Records),
		DoctorCount:    doctor,
		PatientCount:   patient,
		Utterances:     res.Records,
		Timestamp:      time.Now().UnixMilli(),
	}
	if err := h.sink.PublishStructured(ctx, stem, ev); err != nil {
		logger.Warn().Err(err).Msg("Failed to publish structured transcript event")
	}
}

// GetTranscript handles GET /api/transcripts/{name}.
func (h *Handler) GetTranscript(w http.ResponseWriter, r *http.Request) {
	stem := chi.URLParam(r, "name")

	records, err := h.mirror.Get(r.Context(), stem)
	if err == nil {
		writeJSON(w, http.StatusOK, records)
		return
	}
	if !errors.Is(err, store.ErrNotFound) {
		h.metrics.RecordMirrorError("get")
		h.logger.Warn().Err(err).Str("transcript", stem).Msg("Mirror read failed, falling back to disk")
	}

	data, err := h.uploads.Read(stem + store.StructuredSuffix)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "transcript not found")
			return
		}
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}

// Schema handles GET /api/schema/structured-transcript.
func (h *Handler) Schema(w http.ResponseWriter, _ *http.Request) {
	if h.validator == nil {
		writeError(w, http.StatusNotFound, "schema not available")
		return
	}
	w.Header().Set("Content-Type", "application/schema+json")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(h.validator.Schema())
}

// SaveTranscriptRequest is the body of POST /api/save-transcript.
type SaveTranscriptRequest struct {
	Room        string                     `json:"room"`
	Transcripts []models.ConversationEntry `json:"transcripts"`
	SavedAt     string                     `json:"savedAt"`
}

// SaveTranscript handles POST /api/save-transcript.
func (h *Handler) SaveTranscript(w http.ResponseWriter, r *http.Request) {
	var req SaveTranscriptRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.logger.Error().Err(err).Msg("Failed to decode save-transcript request")
		writeError(w, http.StatusInternalServerError, "Failed to save transcript")
		return
	}

	room := req.Room
	if room == "" {
		room = "default"
	}
	fileName := fmt.Sprintf("transcript-%s-%d.json", room, time.Now().UnixMilli())

	conv := models.SavedConversation{
		Room:         req.Room,
		SavedAt:      req.SavedAt,
		Conversation: req.Transcripts,
	}
	path, err := h.uploads.WriteJSON(fileName, conv, "  ")
	if err != nil {
		h.logger.Error().Err(err).Msg("Failed to save transcript")
		writeError(w, http.StatusInternalServerError, "Failed to save transcript")
		return
	}
	h.metrics.RecordConversationSaved()

	writeJSON(w, http.StatusOK, SaveTranscriptResponse{
		Message: "Transcript saved successfully",
		File:    filepath.Base(path),
	})
}

// TranscribeRequest is the body of POST /api/transcribe.
type TranscribeRequest struct {
	AudioContent string `json:"audioContent"`
}

// Transcribe handles POST /api/transcribe.
func (h *Handler) Transcribe(w http.ResponseWriter, r *http.Request) {
	var req TranscribeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.AudioContent == "" {
		writeError(w, http.StatusBadRequest, "No audio content provided.")
		return
	}

	audio, err := base64.StdEncoding.DecodeString(req.AudioContent)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid audio content.")
		return
	}

	if h.recognizer == nil {
		writeError(w, http.StatusInternalServerError, "Failed to transcribe audio")
		return
	}

	start := time.Now()
	results, err := h.recognizer.Recognize(r.Context(), audio)
	h.metrics.RecordTranscription(h.recognizer.Name(), err, time.Since(start).Seconds())
	if err != nil {
		h.logger.Error().Err(err).Str("provider", h.recognizer.Name()).Msg("Transcription error")
		writeError(w, http.StatusInternalServerError, "Failed to transcribe audio")
		return
	}

	writeJSON(w, http.StatusOK, TranscribeResponse{Transcript: stt.JoinTranscripts(results)})
}
