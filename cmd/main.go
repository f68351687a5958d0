package main

import (
	"context"
	"errors"
	"net"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"

	grpcapi "clinical-transcript-service/internal/api/grpc"
	"clinical-transcript-service/internal/app"
	"clinical-transcript-service/internal/config"
	"clinical-transcript-service/internal/events"
	httpapi "clinical-transcript-service/internal/http"
	"clinical-transcript-service/internal/observability"
	"clinical-transcript-service/internal/observability/metrics"
	"clinical-transcript-service/internal/schema"
	"clinical-transcript-service/internal/service/transcript"
	"clinical-transcript-service/internal/store"
)

func main() {
	cfg := config.Load()

	application := app.New(cfg)
	if err := application.Start(); err != nil {
		log.Fatal().Err(err).Msg("Failed to start application")
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	uploads, err := store.NewUploads(cfg.Service.UploadsDir)
	if err != nil {
		log.Fatal().Err(err).Str("dir", cfg.Service.UploadsDir).Msg("Failed to prepare uploads directory")
	}

	clf, err := app.NewClassifier(cfg.Classifier)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create classifier")
	}
	readyCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	if err := clf.Ready(readyCtx); err != nil {
		log.Warn().Err(err).Str("provider", clf.Name()).Msg("Classifier not ready yet")
	}
	cancel()

	validator, err := schema.New()
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to compile structured transcript schema")
	}

	processor := transcript.NewProcessor(clf, uploads,
		transcript.WithValidator(validator),
		transcript.WithMetrics(metrics.DefaultMetrics),
	)

	// Structured transcripts are announced on the configured broker
	sink := events.NewSink(cfg.Events)
	defer sink.Close()

	mirror, err := store.NewMirror(ctx, &store.MirrorConfig{
		Enabled:  cfg.Redis.Enabled,
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	if err != nil {
		log.Warn().Err(err).Msg("Continuing without Redis mirror")
	}
	defer mirror.Close()

	recognizer, err := app.NewRecognizer(ctx, cfg.STT)
	if err != nil {
		log.Warn().Err(err).Str("provider", cfg.STT.Provider).Msg("Speech-to-text unavailable")
		recognizer = nil
	} else {
		defer recognizer.Close()
	}

	handler := httpapi.NewHandler(httpapi.HandlerDeps{
		Processor:  processor,
		Uploads:    uploads,
		Mirror:     mirror,
		Sink:       sink,
		Recognizer: recognizer,
		Validator:  validator,
		Metrics:    metrics.DefaultMetrics,
	})

	// Start observability HTTP server (metrics, health)
	obsServer := observability.NewServer(":"+cfg.Observability.MetricsPort, clf.Ready)
	obsServer.Start()

	// gRPC health checks follow the classifier
	grpcServer := grpcapi.New(clf.Ready, metrics.DefaultMetrics)
	lis, err := net.Listen("tcp", ":"+cfg.Service.GRPCPort)
	if err != nil {
		log.Fatal().Err(err).Str("port", cfg.Service.GRPCPort).Msg("Failed to listen for gRPC")
	}
	go grpcServer.Watch(ctx, 15*time.Second)
	go func() {
		if err := grpcServer.Serve(lis); err != nil {
			log.Error().Err(err).Msg("gRPC serve failed")
		}
	}()

	httpServer := &http.Server{
		Addr:              ":" + cfg.Service.HTTPPort,
		Handler:           httpapi.NewRouter(handler, clf.Ready),
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		log.Info().Str("addr", httpServer.Addr).Msg("Clinical transcript API started")
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error().Err(err).Msg("HTTP server error")
			stop()
		}
	}()

	<-ctx.Done()

	log.Info().Msg("Shutting down servers")
	shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancelShutdown()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("HTTP server shutdown error")
	}
	grpcServer.Stop()
	if err := obsServer.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Observability server shutdown error")
	}
	application.Shutdown()
}
