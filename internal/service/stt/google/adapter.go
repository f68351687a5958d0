// Package google provides a Google Cloud Speech-to-Text recognizer.
package google

import (
	"context"
	"fmt"

	speech "cloud.google.com/go/speech/apiv1"
	"cloud.google.com/go/speech/apiv1/speechpb"

	"clinical-transcript-service/internal/service/stt"
)

// Config holds recognition settings.
type Config struct {
	LanguageCode  string
	SampleRateHz  int32
	AudioEncoding string
}

// DefaultConfig matches browser MediaRecorder output.
func DefaultConfig() Config {
	return Config{
		LanguageCode:  "en-US",
		SampleRateHz:  48000,
		AudioEncoding: "WEBM_OPUS",
	}
}

// Adapter implements stt.Recognizer using Google Cloud Speech-to-Text.
type Adapter struct {
	client *speech.Client
	cfg    Config
}

// New creates a new Google recognizer.
// Requires GOOGLE_APPLICATION_CREDENTIALS environment variable to be set.
func New(ctx context.Context, cfg Config) (*Adapter, error) {
	c, err := speech.NewClient(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to create speech client: %w", err)
	}
	return &Adapter{client: c, cfg: cfg}, nil
}

// Name implements stt.Recognizer.
func (a *Adapter) Name() string {
	return "google"
}

// Recognize sends the clip for synchronous recognition and returns the top
// alternative of every result.
func (a *Adapter) Recognize(ctx context.Context, audio []byte) ([]stt.Result, error) {
	if len(audio) == 0 {
		return nil, stt.ErrNoAudio
	}

	resp, err := a.client.Recognize(ctx, buildRequest(a.cfg, audio))
	if err != nil {
		return nil, fmt.Errorf("speech recognize failed: %w", err)
	}

	results := make([]stt.Result, 0, len(resp.Results))
	for _, r := range resp.Results {
		if len(r.Alternatives) == 0 {
			continue
		}
		alt := r.Alternatives[0]
		results = append(results, stt.Result{
			Transcript: alt.Transcript,
			Confidence: float64(alt.Confidence),
		})
	}
	return results, nil
}

// Close releases the speech client.
func (a *Adapter) Close() error {
	if a.client != nil {
		return a.client.Close()
	}
	return nil
}

func buildRequest(cfg Config, audio []byte) *speechpb.RecognizeRequest {
	return &speechpb.RecognizeRequest{
		Config: &speechpb.RecognitionConfig{
			Encoding:        parseAudioEncoding(cfg.AudioEncoding),
			SampleRateHertz: cfg.SampleRateHz,
			LanguageCode:    cfg.LanguageCode,
		},
		Audio: &speechpb.RecognitionAudio{
			AudioSource: &speechpb.RecognitionAudio_Content{Content: audio},
		},
	}
}

// parseAudioEncoding maps an encoding name to its enum, falling back to
// WEBM_OPUS for unknown names.
func parseAudioEncoding(name string) speechpb.RecognitionConfig_AudioEncoding {
	if v, ok := speechpb.RecognitionConfig_AudioEncoding_value[name]; ok &&
		speechpb.RecognitionConfig_AudioEncoding(v) != speechpb.RecognitionConfig_ENCODING_UNSPECIFIED {
		return speechpb.RecognitionConfig_AudioEncoding(v)
	}
	return speechpb.RecognitionConfig_WEBM_OPUS
}
