package http

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"clinical-transcript-service/internal/models"
	"clinical-transcript-service/internal/observability/metrics"
	"clinical-transcript-service/internal/schema"
	"clinical-transcript-service/internal/service/classifier"
	"clinical-transcript-service/internal/service/stt"
	sttmock "clinical-transcript-service/internal/service/stt/mock"
	"clinical-transcript-service/internal/service/transcript"
	"clinical-transcript-service/internal/store"
)

// questionClassifier labels questions Doctor and everything else Patient.
type questionClassifier struct {
	err error
}

func (c *questionClassifier) Classify(_ context.Context, text string, _ []string) (*classifier.Classification, error) {
	if c.err != nil {
		return nil, c.err
	}
	if strings.HasSuffix(text, "?") {
		return &classifier.Classification{Sequence: text, Labels: []string{"Doctor", "Patient"}, Scores: []float64{0.9, 0.1}}, nil
	}
	return &classifier.Classification{Sequence: text, Labels: []string{"Patient", "Doctor"}, Scores: []float64{0.8, 0.2}}, nil
}

func (c *questionClassifier) Ready(context.Context) error { return c.err }
func (c *questionClassifier) Name() string               { return "question" }

// recordingSink captures published events.
type recordingSink struct {
	mu     sync.Mutex
	keys   []string
	events []any
	err    error
}

func (s *recordingSink) PublishStructured(_ context.Context, key string, event any) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.keys = append(s.keys, key)
	s.events = append(s.events, event)
	return s.err
}

func (s *recordingSink) Close() error { return nil }

// failingRecognizer always fails.
type failingRecognizer struct{}

func (failingRecognizer) Recognize(context.Context, []byte) ([]stt.Result, error) {
	return nil, errors.New("quota exceeded")
}
func (failingRecognizer) Name() string { return "failing" }
func (failingRecognizer) Close() error { return nil }

type fixture struct {
	router  http.Handler
	uploads *store.Uploads
	sink    *recordingSink
}

func newFixture(t *testing.T, c classifier.Classifier, rec stt.Recognizer) *fixture {
	t.Helper()

	uploads, err := store.NewUploads(t.TempDir())
	require.NoError(t, err)
	v, err := schema.New()
	require.NoError(t, err)
	m := metrics.NewMetrics(prometheus.NewRegistry())

	sink := &recordingSink{}
	h := NewHandler(HandlerDeps{
		Processor:  transcript.NewProcessor(c, uploads, transcript.WithValidator(v), transcript.WithMetrics(m)),
		Uploads:    uploads,
		Sink:       sink,
		Recognizer: rec,
		Validator:  v,
		Metrics:    m,
	})

	return &fixture{
		router:  NewRouter(h, c.Ready),
		uploads: uploads,
		sink:    sink,
	}
}

func multipartBody(t *testing.T, field, filename, content string) (*bytes.Buffer, string) {
	t.Helper()
	body := &bytes.Buffer{}
	mw := multipart.NewWriter(body)
	fw, err := mw.CreateFormFile(field, filename)
	require.NoError(t, err)
	_, err = fw.Write([]byte(content))
	require.NoError(t, err)
	require.NoError(t, mw.Close())
	return body, mw.FormDataContentType()
}

func (f *fixture) do(req *http.Request) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	f.router.ServeHTTP(w, req)
	return w
}

func TestUploadTranscript_Success(t *testing.T) {
	f := newFixture(t, &questionClassifier{}, sttmock.New())

	body, contentType := multipartBody(t, "file", "conversation.txt",
		"What seems to be the problem?\n\n  My chest feels tight.  \nSince when?\n")
	req := httptest.NewRequest(http.MethodPost, "/api/upload-transcript", body)
	req.Header.Set("Content-Type", contentType)

	w := f.do(req)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "application/json", w.Header().Get("Content-Type"))

	var resp UploadResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "File processed successfully", resp.Message)

	var records []models.Utterance
	require.NoError(t, json.Unmarshal([]byte(resp.StructuredJSON), &records))
	assert.Equal(t, []models.Utterance{
		{Speaker: models.SpeakerDoctor, Text: "What seems to be the problem?"},
		{Speaker: models.SpeakerPatient, Text: "My chest feels tight."},
		{Speaker: models.SpeakerDoctor, Text: "Since when?"},
	}, records)

	assert.FileExists(t, filepath.Join(f.uploads.Dir(), "conversation.txt"))
	written, err := os.ReadFile(filepath.Join(f.uploads.Dir(), "conversation_structured.json"))
	require.NoError(t, err)
	assert.Equal(t, string(written), resp.StructuredJSON)
	assert.False(t, strings.HasSuffix(resp.StructuredJSON, "\n"))

	require.Len(t, f.sink.events, 1)
	assert.Equal(t, "conversation", f.sink.keys[0])
	ev, ok := f.sink.events[0].(models.StructuredTranscriptEvent)
	require.True(t, ok)
	assert.Equal(t, models.EventTypeStructured, ev.EventType)
	assert.Equal(t, 3, ev.UtteranceCount)
	assert.Equal(t, 2, ev.DoctorCount)
	assert.Equal(t, 1, ev.PatientCount)
	assert.Equal(t, "conversation_structured.json", ev.Output)
	assert.NotEmpty(t, ev.EventID)
}

func TestUploadTranscript_NoFile(t *testing.T) {
	f := newFixture(t, &questionClassifier{}, nil)

	t.Run("multipart without file field", func(t *testing.T) {
		body := &bytes.Buffer{}
		mw := multipart.NewWriter(body)
		require.NoError(t, mw.WriteField("note", "hello"))
		require.NoError(t, mw.Close())

		req := httptest.NewRequest(http.MethodPost, "/api/upload-transcript", body)
		req.Header.Set("Content-Type", mw.FormDataContentType())
		w := f.do(req)

		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.JSONEq(t, `{"error":"No file provided"}`, w.Body.String())
	})

	t.Run("file under another field name", func(t *testing.T) {
		body, contentType := multipartBody(t, "transcript", "a.txt", "hello")
		req := httptest.NewRequest(http.MethodPost, "/api/upload-transcript", body)
		req.Header.Set("Content-Type", contentType)
		w := f.do(req)

		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.JSONEq(t, `{"error":"No file provided"}`, w.Body.String())
	})

	t.Run("file field without filename", func(t *testing.T) {
		body := &bytes.Buffer{}
		mw := multipart.NewWriter(body)
		require.NoError(t, mw.WriteField("file", "Doctor: hello"))
		require.NoError(t, mw.Close())

		req := httptest.NewRequest(http.MethodPost, "/api/upload-transcript", body)
		req.Header.Set("Content-Type", mw.FormDataContentType())
		w := f.do(req)

		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.JSONEq(t, `{"error":"No file provided"}`, w.Body.String())
	})

	t.Run("not multipart", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/api/upload-transcript", strings.NewReader(`{}`))
		req.Header.Set("Content-Type", "application/json")
		w := f.do(req)

		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.JSONEq(t, `{"error":"No file provided"}`, w.Body.String())
	})

	assert.Empty(t, f.sink.events)
}

func TestUploadTranscript_EmptyFilename(t *testing.T) {
	f := newFixture(t, &questionClassifier{}, nil)

	body, contentType := multipartBody(t, "file", "", "")
	req := httptest.NewRequest(http.MethodPost, "/api/upload-transcript", body)
	req.Header.Set("Content-Type", contentType)

	w := f.do(req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.JSONEq(t, `{"error":"Empty filename"}`, w.Body.String())
}

func TestUploadTranscript_ClassifierFailure(t *testing.T) {
	f := newFixture(t, &questionClassifier{err: errors.New("model not loaded")}, nil)

	body, contentType := multipartBody(t, "file", "visit.txt", "Hello there\n")
	req := httptest.NewRequest(http.MethodPost, "/api/upload-transcript", body)
	req.Header.Set("Content-Type", contentType)

	w := f.do(req)

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	var resp ErrorResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Contains(t, resp.Error, "model not loaded")
	assert.Empty(t, f.sink.events)
	assert.NoFileExists(t, filepath.Join(f.uploads.Dir(), "visit_structured.json"))
}

func TestUploadTranscript_SinkFailureIsNotSurfaced(t *testing.T) {
	f := newFixture(t, &questionClassifier{}, nil)
	f.sink.err = errors.New("broker down")

	body, contentType := multipartBody(t, "file", "visit.txt", "How are you?\nFine.\n")
	req := httptest.NewRequest(http.MethodPost, "/api/upload-transcript", body)
	req.Header.Set("Content-Type", contentType)

	w := f.do(req)

	assert.Equal(t, http.StatusOK, w.Code)
}

func TestGetTranscript(t *testing.T) {
	f := newFixture(t, &questionClassifier{}, nil)

	_, err := f.uploads.WriteJSON("visit_structured.json", models.StructuredTranscript{
		{Speaker: models.SpeakerPatient, Text: "I slept badly."},
	}, "    ")
	require.NoError(t, err)

	t.Run("found on disk", func(t *testing.T) {
		w := f.do(httptest.NewRequest(http.MethodGet, "/api/transcripts/visit", nil))

		assert.Equal(t, http.StatusOK, w.Code)
		assert.JSONEq(t, `[{"speaker":"Patient","text":"I slept badly."}]`, w.Body.String())
	})

	t.Run("not found", func(t *testing.T) {
		w := f.do(httptest.NewRequest(http.MethodGet, "/api/transcripts/missing", nil))

		assert.Equal(t, http.StatusNotFound, w.Code)
		assert.JSONEq(t, `{"error":"transcript not found"}`, w.Body.String())
	})
}

func TestSchemaEndpoint(t *testing.T) {
	f := newFixture(t, &questionClassifier{}, nil)

	w := f.do(httptest.NewRequest(http.MethodGet, "/api/schema/structured-transcript", nil))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "application/schema+json", w.Header().Get("Content-Type"))
	var doc map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &doc))
	assert.Equal(t, "array", doc["type"])
}

func TestSaveTranscript(t *testing.T) {
	f := newFixture(t, &questionClassifier{}, nil)

	t.Run("saves conversation", func(t *testing.T) {
		payload := `{"room":"room42","savedAt":"2024-05-01T10:00:00Z","transcripts":[{"speaker":"Doctor","message":"Hello"},{"speaker":"Patient","message":"Hi"}]}`
		req := httptest.NewRequest(http.MethodPost, "/api/save-transcript", strings.NewReader(payload))
		req.Header.Set("Content-Type", "application/json")

		w := f.do(req)

		require.Equal(t, http.StatusOK, w.Code)
		var resp SaveTranscriptResponse
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		assert.Equal(t, "Transcript saved successfully", resp.Message)
		assert.True(t, strings.HasPrefix(resp.File, "transcript-room42-"))
		assert.True(t, strings.HasSuffix(resp.File, ".json"))

		data, err := os.ReadFile(filepath.Join(f.uploads.Dir(), resp.File))
		require.NoError(t, err)
		var saved models.SavedConversation
		require.NoError(t, json.Unmarshal(data, &saved))
		assert.Equal(t, "room42", saved.Room)
		assert.Equal(t, "2024-05-01T10:00:00Z", saved.SavedAt)
		assert.Equal(t, []models.ConversationEntry{
			{Speaker: "Doctor", Message: "Hello"},
			{Speaker: "Patient", Message: "Hi"},
		}, saved.Conversation)
	})

	t.Run("default room", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/api/save-transcript", strings.NewReader(`{"transcripts":[]}`))
		w := f.do(req)

		require.Equal(t, http.StatusOK, w.Code)
		var resp SaveTranscriptResponse
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		assert.True(t, strings.HasPrefix(resp.File, "transcript-default-"))
	})

	t.Run("malformed body", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/api/save-transcript", strings.NewReader(`{`))
		w := f.do(req)

		assert.Equal(t, http.StatusInternalServerError, w.Code)
		assert.JSONEq(t, `{"error":"Failed to save transcript"}`, w.Body.String())
	})
}

func TestTranscribe(t *testing.T) {
	audio := base64.StdEncoding.EncodeToString([]byte("webm-bytes"))

	t.Run("success", func(t *testing.T) {
		rec := sttmock.NewWithResults([]stt.Result{
			{Transcript: "What brings you in?"},
			{Transcript: "My knee hurts."},
		})
		f := newFixture(t, &questionClassifier{}, rec)

		req := httptest.NewRequest(http.MethodPost, "/api/transcribe", strings.NewReader(`{"audioContent":"`+audio+`"}`))
		w := f.do(req)

		require.Equal(t, http.StatusOK, w.Code)
		assert.JSONEq(t, `{"transcript":"What brings you in?\nMy knee hurts."}`, w.Body.String())
		assert.Equal(t, 1, rec.Requests())
	})

	t.Run("missing audio", func(t *testing.T) {
		f := newFixture(t, &questionClassifier{}, sttmock.New())

		w := f.do(httptest.NewRequest(http.MethodPost, "/api/transcribe", strings.NewReader(`{}`)))

		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.JSONEq(t, `{"error":"No audio content provided."}`, w.Body.String())
	})

	t.Run("invalid base64", func(t *testing.T) {
		f := newFixture(t, &questionClassifier{}, sttmock.New())

		w := f.do(httptest.NewRequest(http.MethodPost, "/api/transcribe", strings.NewReader(`{"audioContent":"%%%"}`)))

		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("recognizer failure", func(t *testing.T) {
		f := newFixture(t, &questionClassifier{}, failingRecognizer{})

		req := httptest.NewRequest(http.MethodPost, "/api/transcribe", strings.NewReader(`{"audioContent":"`+audio+`"}`))
		w := f.do(req)

		assert.Equal(t, http.StatusInternalServerError, w.Code)
		assert.JSONEq(t, `{"error":"Failed to transcribe audio"}`, w.Body.String())
	})
}

func TestUploadTranscript_InvalidEncoding(t *testing.T) {
	f := newFixture(t, &questionClassifier{}, nil)

	body, contentType := multipartBody(t, "file", "latin1.txt", "Caf\xe9 pain since yesterday\n")
	req := httptest.NewRequest(http.MethodPost, "/api/upload-transcript", body)
	req.Header.Set("Content-Type", contentType)

	w := f.do(req)

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	var resp ErrorResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Contains(t, resp.Error, "not valid UTF-8")
	assert.Empty(t, f.sink.events)
	assert.NoFileExists(t, filepath.Join(f.uploads.Dir(), "latin1_structured.json"))
}

func TestTranscribe_RecognizerUnavailable(t *testing.T) {
	f := newFixture(t, &questionClassifier{}, nil)

	audio := base64.StdEncoding.EncodeToString([]byte("webm-bytes"))
	w := f.do(httptest.NewRequest(http.MethodPost, "/api/transcribe", strings.NewReader(`{"audioContent":"`+audio+`"}`)))

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.JSONEq(t, `{"error":"Failed to transcribe audio"}`, w.Body.String())
}
