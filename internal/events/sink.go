package events

import (
	"github.com/rs/zerolog/log"

	"clinical-transcript-service/internal/config"
)

// Backend names accepted by NewSink.
const (
	BackendKafka    = "kafka"
	BackendRabbitMQ = "rabbitmq"
	BackendNone     = "none"
)

// NewSink builds the sink selected by cfg.Backend. An unreachable RabbitMQ
// or an unknown backend falls back to the log-only publisher.
func NewSink(cfg config.EventsConfig) Sink {
	switch cfg.Backend {
	case BackendKafka:
		return New(&Config{
			Enabled:   true,
			Brokers:   cfg.Brokers,
			Topic:     cfg.Topic,
			Principal: cfg.Principal,
		})
	case BackendRabbitMQ:
		p, err := NewAMQP(&AMQPConfig{
			URL:       cfg.AMQPURL,
			Exchange:  cfg.Exchange,
			Principal: cfg.Principal,
		})
		if err != nil {
			log.Warn().Err(err).Msg("RabbitMQ unavailable, using log-only mode")
			break
		}
		return p
	case BackendNone, "":
	default:
		log.Warn().Str("backend", cfg.Backend).Msg("Unknown events backend")
	}

	return New(&Config{
		Enabled:   false,
		Topic:     cfg.Topic,
		Principal: cfg.Principal,
	})
}
