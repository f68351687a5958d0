package app

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"clinical-transcript-service/internal/config"
)

func TestNewClassifier(t *testing.T) {
	tests := []struct {
		provider string
		wantName string
		wantErr  bool
	}{
		{provider: "", wantName: "mock"},
		{provider: "mock", wantName: "mock"},
		{provider: "zeroshot", wantName: "zeroshot"},
		{provider: "openai", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.provider, func(t *testing.T) {
			c, err := NewClassifier(config.ClassifierConfig{
				Provider: tt.provider,
				URL:      "http://localhost:8080",
				Model:    "facebook/bart-large-mnli",
				Timeout:  time.Second,
			})
			if tt.wantErr {
				if err == nil {
					t.Fatal("expected error for unknown provider")
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if c.Name() != tt.wantName {
				t.Errorf("expected %q, got %q", tt.wantName, c.Name())
			}
		})
	}
}

func TestNewRecognizer(t *testing.T) {
	r, err := NewRecognizer(context.Background(), config.STTConfig{Provider: "mock"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	defer r.Close()
	if r.Name() != "mock" {
		t.Errorf("expected mock recognizer, got %q", r.Name())
	}

	if _, err := NewRecognizer(context.Background(), config.STTConfig{Provider: "whisper"}); err == nil {
		t.Error("expected error for unknown provider")
	}
}

func TestNewRecognizer_GoogleFailureReturnsNilInterface(t *testing.T) {
	t.Setenv("GOOGLE_APPLICATION_CREDENTIALS", filepath.Join(t.TempDir(), "missing.json"))

	r, err := NewRecognizer(context.Background(), config.STTConfig{
		Provider:      "google",
		LanguageCode:  "en-US",
		SampleRateHz:  48000,
		AudioEncoding: "WEBM_OPUS",
	})
	if err == nil {
		r.Close()
		t.Skip("speech client created without credentials")
	}
	if r != nil {
		t.Fatalf("expected nil recognizer on error, got %#v", r)
	}
}
