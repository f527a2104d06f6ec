package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/brightstay/hotel-bookings/internal/domain"
)

// Store backs the idempotency middleware's response cache and keeps a
// short-lived cache of settled payment sessions so repeated status polls
// of a terminal session do not hit the processor again.
type Store struct {
	client *redis.Client
}

func NewStore(url, password string, db int) (*Store, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	if password != "" {
		opts.Password = password
	}
	opts.DB = db

	return &Store{client: redis.NewClient(opts)}, nil
}

func (s *Store) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}

func (s *Store) Close() error {
	return s.client.Close()
}

// Get and Set satisfy middleware.IdempotencyStore.

func (s *Store) Get(ctx context.Context, key string) (string, error) {
	val, err := s.client.Get(ctx, key).Result()
	if err == redis.Nil {
		return "", nil
	}
	return val, err
}

func (s *Store) Set(ctx context.Context, key, value string, ttl time.Duration) error {
	return s.client.Set(ctx, key, value, ttl).Err()
}

const sessionStatusTTL = 24 * time.Hour

func sessionKey(sessionID string) string {
	return "payment_session:" + sessionID
}

// GetSessionStatus returns the cached terminal result for a payment
// session, or nil when none has been recorded.
func (s *Store) GetSessionStatus(ctx context.Context, sessionID string) (*domain.PaymentStatusRes, error) {
	val, err := s.client.Get(ctx, sessionKey(sessionID)).Result()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	var res domain.PaymentStatusRes
	if err := json.Unmarshal([]byte(val), &res); err != nil {
		return nil, fmt.Errorf("decode cached session status: %w", err)
	}
	return &res, nil
}

func (s *Store) SetSessionStatus(ctx context.Context, sessionID string, res *domain.PaymentStatusRes) error {
	payload, err := json.Marshal(res)
	if err != nil {
		return fmt.Errorf("encode session status: %w", err)
	}
	return s.client.Set(ctx, sessionKey(sessionID), payload, sessionStatusTTL).Err()
}
