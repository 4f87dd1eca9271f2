package broker

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	tickKeyPrefix = "derbit:tick:"
	lastTickKey   = "derbit:tick:last"
	lockKey       = "derbit:tick:lock"

	// Per-tick results expire after a day.
	resultTTL = 24 * time.Hour
)

// Tick states, mirroring the task states the worker runtime reports.
const (
	StateStarted = "STARTED"
	StateSuccess = "SUCCESS"
	StateFailure = "FAILURE"
)

// TickResult is the stored record of one scheduler tick.
type TickResult struct {
	Task       string    `json:"task"`
	State      string    `json:"state"`
	StartedAt  time.Time `json:"started_at"`
	FinishedAt time.Time `json:"finished_at,omitzero"`
	DurationMS int64     `json:"duration_ms,omitempty"`
	PriceIDs   []int64   `json:"price_ids,omitempty"`
	Error      string    `json:"error,omitempty"`
}

// Redis is the point-to-point transport the worker records tick state in:
// a result store plus a lock preventing concurrent scheduler instances.
type Redis struct {
	client *redis.Client
}

// Connect parses a redis:// URL, connects and pings.
func Connect(ctx context.Context, brokerURL string) (*Redis, error) {
	opts, err := redis.ParseURL(brokerURL)
	if err != nil {
		return nil, fmt.Errorf("parse broker url: %w", err)
	}

	client := redis.NewClient(opts)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("connect to broker: %w", err)
	}

	return &Redis{client: client}, nil
}

func (b *Redis) Close() error {
	return b.client.Close()
}

// RecordTick stores the result under a per-tick key and updates the
// last-tick pointer.
func (b *Redis) RecordTick(ctx context.Context, res TickResult) error {
	payload, err := json.Marshal(res)
	if err != nil {
		return fmt.Errorf("marshal tick result: %w", err)
	}

	key := TickKey(res.StartedAt)
	if err := b.client.Set(ctx, key, payload, resultTTL).Err(); err != nil {
		return fmt.Errorf("store tick result: %w", err)
	}
	return b.client.Set(ctx, lastTickKey, payload, resultTTL).Err()
}

// LastTick returns the most recently recorded tick, or nil when none exists.
func (b *Redis) LastTick(ctx context.Context) (*TickResult, error) {
	payload, err := b.client.Get(ctx, lastTickKey).Bytes()
	if err != nil {
		if err == redis.Nil {
			return nil, nil
		}
		return nil, err
	}

	var res TickResult
	if err := json.Unmarshal(payload, &res); err != nil {
		return nil, fmt.Errorf("unmarshal tick result: %w", err)
	}
	return &res, nil
}

// AcquireTickLock takes the scheduler lock for ttl. It returns false when
// another scheduler instance holds it.
func (b *Redis) AcquireTickLock(ctx context.Context, ttl time.Duration) (bool, error) {
	return b.client.SetNX(ctx, lockKey, time.Now().UTC().Format(time.RFC3339), ttl).Result()
}

// ReleaseTickLock drops the scheduler lock early.
func (b *Redis) ReleaseTickLock(ctx context.Context) error {
	return b.client.Del(ctx, lockKey).Err()
}

// TickKey names the result entry for a tick started at t.
func TickKey(t time.Time) string {
	return tickKeyPrefix + t.UTC().Format("20060102T150405")
}
