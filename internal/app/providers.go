package app

import (
	"context"
	"fmt"

	"clinical-transcript-service/internal/config"
	"clinical-transcript-service/internal/service/classifier"
	classifiermock "clinical-transcript-service/internal/service/classifier/mock"
	"clinical-transcript-service/internal/service/classifier/zeroshot"
	"clinical-transcript-service/internal/service/stt"
	"clinical-transcript-service/internal/service/stt/google"
	sttmock "clinical-transcript-service/internal/service/stt/mock"
)

// NewClassifier builds the speaker classifier named by cfg.Provider.
func NewClassifier(cfg config.ClassifierConfig) (classifier.Classifier, error) {
	switch cfg.Provider {
	case "zeroshot":
		return zeroshot.New(zeroshot.Config{
			BaseURL:  cfg.URL,
			Model:    cfg.Model,
			APIToken: cfg.APIToken,
			Timeout:  cfg.Timeout,
		}), nil
	case "mock", "":
		return classifiermock.New(), nil
	default:
		return nil, fmt.Errorf("unknown classifier provider %q", cfg.Provider)
	}
}

// NewRecognizer builds the speech-to-text recognizer named by cfg.Provider.
func NewRecognizer(ctx context.Context, cfg config.STTConfig) (stt.Recognizer, error) {
	switch cfg.Provider {
	case "google":
		a, err := google.New(ctx, google.Config{
			LanguageCode:  cfg.LanguageCode,
			SampleRateHz:  cfg.SampleRateHz,
			AudioEncoding: cfg.AudioEncoding,
		})
		if err != nil {
			// untyped nil, so callers can compare against nil
			return nil, err
		}
		return a, nil
	case "mock", "":
		return sttmock.New(), nil
	default:
		return nil, fmt.Errorf("unknown stt provider %q", cfg.Provider)
	}
}
