package pipeline

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/signalhouse/triage/internal/analysis"
)

// Queue carries ingested messages from the HTTP surface to the workers.
type Queue interface {
	Enqueue(ctx context.Context, msg analysis.Message) error
	Dequeue(ctx context.Context) (analysis.Message, error)
}

// RedisQueue is a Queue backed by a Redis list. Enqueue pushes to the head,
// Dequeue blocks on the tail, so messages are processed in arrival order.
type RedisQueue struct {
	client  *redis.Client
	key     string
	popWait time.Duration
}

// NewRedisQueue creates a Redis-backed queue on the given list key.
func NewRedisQueue(client *redis.Client, key string) *RedisQueue {
	if client == nil {
		panic("pipeline: redis client required")
	}
	if key == "" {
		key = "triage:ingest"
	}
	return &RedisQueue{client: client, key: key, popWait: 5 * time.Second}
}

// Enqueue pushes one message onto the queue.
func (q *RedisQueue) Enqueue(ctx context.Context, msg analysis.Message) error {
	body, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("pipeline: encode message: %w", err)
	}
	if err := q.client.LPush(ctx, q.key, body).Err(); err != nil {
		return fmt.Errorf("pipeline: enqueue message: %w", err)
	}
	return nil
}

// Dequeue blocks until a message is available or ctx is done. A pop timeout
// returns redis.Nil so callers can poll in a loop and notice cancellation.
func (q *RedisQueue) Dequeue(ctx context.Context) (analysis.Message, error) {
	res, err := q.client.BRPop(ctx, q.popWait, q.key).Result()
	if err != nil {
		return analysis.Message{}, err
	}
	// BRPOP returns [key, value].
	var msg analysis.Message
	if err := json.Unmarshal([]byte(res[1]), &msg); err != nil {
		return analysis.Message{}, fmt.Errorf("pipeline: decode message: %w", err)
	}
	return msg, nil
}

// MemoryQueue is a Queue backed by a buffered channel, used when
// USE_MEMORY_QUEUE=true and in tests.
type MemoryQueue struct {
	ch chan analysis.Message
}

// NewMemoryQueue creates a MemoryQueue with the provided buffer capacity.
func NewMemoryQueue(buffer int) *MemoryQueue {
	if buffer <= 0 {
		buffer = 128
	}
	return &MemoryQueue{ch: make(chan analysis.Message, buffer)}
}

// Enqueue adds a message or blocks until ctx is done.
func (q *MemoryQueue) Enqueue(ctx context.Context, msg analysis.Message) error {
	select {
	case q.ch <- msg:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Dequeue blocks until a message is available or ctx is done.
func (q *MemoryQueue) Dequeue(ctx context.Context) (analysis.Message, error) {
	select {
	case msg := <-q.ch:
		return msg, nil
	case <-ctx.Done():
		return analysis.Message{}, ctx.Err()
	}
}
