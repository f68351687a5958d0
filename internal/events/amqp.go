package events

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/rs/zerolog/log"

	"clinical-transcript-service/internal/observability/metrics"
)

// RoutingKeyStructured routes structured transcript events on the exchange.
const RoutingKeyStructured = "structured"

// AMQPConfig holds RabbitMQ publisher configuration.
type AMQPConfig struct {
	URL       string
	Exchange  string
	Principal string
}

// AMQPPublisher publishes structured transcript events to a RabbitMQ direct
// exchange.
type AMQPPublisher struct {
	conn      *amqp.Connection
	mu        sync.Mutex // guards ch; channels are not safe for concurrent publish
	ch        *amqp.Channel
	exchange  string
	principal string
	metrics   *metrics.Metrics
}

// NewAMQP connects to RabbitMQ and declares the exchange.
func NewAMQP(cfg *AMQPConfig) (*AMQPPublisher, error) {
	conn, err := amqp.Dial(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to rabbitmq: %w", err)
	}

	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to open channel: %w", err)
	}

	if err := ch.ExchangeDeclare(cfg.Exchange, "direct", true, false, false, false, nil); err != nil {
		ch.Close()
		conn.Close()
		return nil, fmt.Errorf("failed to declare exchange %s: %w", cfg.Exchange, err)
	}

	log.Info().
		Str("exchange", cfg.Exchange).
		Str("principal", cfg.Principal).
		Msg("RabbitMQ publisher initialized")

	return &AMQPPublisher{
		conn:      conn,
		ch:        ch,
		exchange:  cfg.Exchange,
		principal: cfg.Principal,
		metrics:   metrics.DefaultMetrics,
	}, nil
}

// PublishStructured publishes a structured transcript event.
func (p *AMQPPublisher) PublishStructured(ctx context.Context, key string, event any) error {
	start := time.Now()

	payload, err := json.Marshal(event)
	if err != nil {
		log.Error().Err(err).Str("exchange", p.exchange).Msg("Failed to marshal event")
		return err
	}

	msg := amqp.Publishing{
		ContentType:   "application/json",
		DeliveryMode:  amqp.Persistent,
		MessageId:     messageID(event),
		CorrelationId: key,
		Timestamp:     start,
		Headers: amqp.Table{
			"principal": p.principal,
		},
		Body: payload,
	}

	p.mu.Lock()
	err = p.ch.PublishWithContext(ctx, p.exchange, RoutingKeyStructured, false, false, msg)
	p.mu.Unlock()

	p.metrics.RecordEventPublish("rabbitmq", p.exchange, err, time.Since(start).Seconds())
	if err != nil {
		log.Error().
			Err(err).
			Str("exchange", p.exchange).
			Str("key", key).
			Msg("Failed to publish to RabbitMQ")
		return err
	}

	log.Debug().
		Str("exchange", p.exchange).
		Str("key", key).
		Msg("Published event")
	return nil
}

// Close closes the channel and connection.
func (p *AMQPPublisher) Close() error {
	var err error
	if p.ch != nil {
		if e := p.ch.Close(); e != nil {
			log.Error().Err(e).Msg("Error closing RabbitMQ channel")
			err = e
		}
	}
	if p.conn != nil {
		if e := p.conn.Close(); e != nil {
			log.Error().Err(e).Msg("Error closing RabbitMQ connection")
			err = e
		}
	}
	return err
}
