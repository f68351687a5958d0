package http

import (
	"encoding/json"
	"net/http"

	"github.com/rs/zerolog/log"
)

// ErrorResponse is the body of every error reply.
type ErrorResponse struct {
	Error string `json:"error"`
}

// UploadResponse is the body of a successful transcript upload. StructuredJSON
// carries the structured transcript file verbatim.
type UploadResponse struct {
	Message        string `json:"message"`
	StructuredJSON string `json:"structured_json"`
}

// SaveTranscriptResponse is the body of a successful save-transcript call.
type SaveTranscriptResponse struct {
	Message string `json:"message"`
	File    string `json:"file"`
}

// TranscribeResponse is the body of a successful transcription.
type TranscribeResponse struct {
	Transcript string `json:"transcript"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		log.Error().Err(err).Msg("Failed to write response")
	}
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, ErrorResponse{Error: message})
}
