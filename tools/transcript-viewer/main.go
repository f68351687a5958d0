// Transcript Viewer shows structured clinical transcripts as they are announced.
// Consumes the structured transcript topic from Kafka and pushes each event to
// the browser over WebSocket.
package main

import (
	"context"
	"embed"
	"encoding/json"
	"flag"
	"io/fs"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/segmentio/kafka-go"
)

//go:embed static/*
var staticFiles embed.FS

func decodeEvent(value []byte) (StructuredEvent, error) {
	var event StructuredEvent
	err := json.Unmarshal(value, &event)
	return event, err
}

func consumeKafka(ctx context.Context, hub *Hub, brokers, topic string, since time.Duration) {
	// Partition reader without consumer group (works better through port-forward)
	reader := kafka.NewReader(kafka.ReaderConfig{
		Brokers:   strings.Split(brokers, ","),
		Topic:     topic,
		Partition: 0,
		MinBytes:  1,
		MaxBytes:  10e6,
	})
	defer reader.Close()

	if err := reader.SetOffsetAt(ctx, time.Now().Add(-since)); err != nil {
		log.Warn().Err(err).Msg("Failed to rewind reader, starting at latest")
	}

	log.Info().Str("topic", topic).Dur("since", since).Msg("Consuming structured transcripts")

	for {
		msg, err := reader.ReadMessage(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			log.Warn().Err(err).Str("topic", topic).Msg("Kafka read error")
			time.Sleep(time.Second)
			continue
		}

		event, err := decodeEvent(msg.Value)
		if err != nil {
			log.Warn().Err(err).Msg("JSON unmarshal error")
			continue
		}

		log.Info().
			Str("transcriptId", event.TranscriptID).
			Int("utterances", event.UtteranceCount).
			Int("doctor", event.DoctorCount).
			Int("patient", event.PatientCount).
			Msg("Received structured transcript")
		hub.broadcast <- event
	}
}

func main() {
	port := flag.String("port", "8081", "HTTP server port")
	brokers := flag.String("brokers", "localhost:9092", "Kafka brokers (comma-separated)")
	topic := flag.String("topic", "clinical.transcript.structured", "Structured transcript topic")
	since := flag.Duration("since", time.Hour, "Replay events newer than this on start")
	flag.Parse()

	log.Logger = zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.Kitchen}).
		With().Timestamp().Logger()

	hub := newHub()
	go hub.run()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	go consumeKafka(ctx, hub, *brokers, *topic, *since)

	mux := http.NewServeMux()
	staticFS, _ := fs.Sub(staticFiles, "static")
	mux.Handle("/", http.FileServer(http.FS(staticFS)))
	mux.HandleFunc("/ws", wsHandler(hub))

	srv := &http.Server{Addr: ":" + *port, Handler: mux, ReadHeaderTimeout: 10 * time.Second}
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	log.Info().
		Str("url", "http://localhost:"+*port).
		Str("brokers", *brokers).
		Str("topic", *topic).
		Msg("Transcript Viewer starting")

	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Fatal().Err(err).Msg("Server error")
	}
}
