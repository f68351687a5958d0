package store

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"

	"clinical-transcript-service/internal/models"
)

const keyPrefix = "transcript:"

// Mirror keeps a best-effort copy of structured transcripts in Redis, one
// list per transcript stem. A disabled Mirror is a no-op.
type Mirror struct {
	client  redis.UniversalClient
	enabled bool
}

// MirrorConfig holds Redis connection settings.
type MirrorConfig struct {
	Enabled  bool
	Addr     string
	Password string
	DB       int
}

// NewMirror connects to Redis when enabled. A failed ping returns an error
// and callers may continue with a disabled mirror.
func NewMirror(ctx context.Context, cfg *MirrorConfig) (*Mirror, error) {
	if cfg == nil || !cfg.Enabled {
		log.Info().Msg("Redis mirror disabled")
		return &Mirror{}, nil
	}

	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return &Mirror{}, fmt.Errorf("failed to connect to redis at %s: %w", cfg.Addr, err)
	}

	log.Info().Str("addr", cfg.Addr).Int("db", cfg.DB).Msg("Redis mirror connected")
	return NewMirrorWithClient(client), nil
}

// NewMirrorWithClient wraps an existing client.
func NewMirrorWithClient(client redis.UniversalClient) *Mirror {
	return &Mirror{client: client, enabled: client != nil}
}

// Enabled reports whether the mirror writes to Redis.
func (m *Mirror) Enabled() bool {
	return m.enabled
}

// Key returns the Redis key for a transcript stem.
func Key(stem string) string {
	return keyPrefix + stem
}

// Put replaces the stored records for stem.
func (m *Mirror) Put(ctx context.Context, stem string, records models.StructuredTranscript) error {
	if !m.enabled {
		return nil
	}

	values := make([]any, 0, len(records))
	for _, r := range records {
		b, err := json.Marshal(r)
		if err != nil {
			return fmt.Errorf("failed to marshal utterance: %w", err)
		}
		values = append(values, b)
	}

	key := Key(stem)
	_, err := m.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Del(ctx, key)
		if len(values) > 0 {
			pipe.RPush(ctx, key, values...)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to mirror %s: %w", key, err)
	}
	return nil
}

// Get returns the stored records for stem. A missing key yields ErrNotFound.
func (m *Mirror) Get(ctx context.Context, stem string) (models.StructuredTranscript, error) {
	if !m.enabled {
		return nil, ErrNotFound
	}

	key := Key(stem)
	vals, err := m.client.LRange(ctx, key, 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", key, err)
	}
	if len(vals) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, key)
	}

	records := make(models.StructuredTranscript, 0, len(vals))
	for _, v := range vals {
		var u models.Utterance
		if err := json.Unmarshal([]byte(v), &u); err != nil {
			return nil, fmt.Errorf("failed to decode utterance in %s: %w", key, err)
		}
		records = append(records, u)
	}
	return records, nil
}

// Close releases the Redis connection.
func (m *Mirror) Close() error {
	if m.client == nil {
		return nil
	}
	return m.client.Close()
}
