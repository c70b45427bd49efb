package mail

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
)

// ErrQueueFull is returned when the in-process queue cannot take more work.
var ErrQueueFull = errors.New("mail queue is full")

// Queue buffers messages between the services and the worker.
type Queue interface {
	Push(ctx context.Context, msg Message) error
	// Pop blocks until a message is available or ctx is done.
	Pop(ctx context.Context) (Message, error)
}

// RedisQueue stores JSON messages in a Redis list.
type RedisQueue struct {
	client  *redis.Client
	key     string
	timeout time.Duration
}

// NewRedisQueue creates a queue on the list named key.
func NewRedisQueue(client *redis.Client, key string) *RedisQueue {
	return &RedisQueue{client: client, key: key, timeout: 5 * time.Second}
}

// Push appends msg to the list head.
func (q *RedisQueue) Push(ctx context.Context, msg Message) error {
	payload, err := json.Marshal(msg)
	if err != nil {
		return err
	}
	return q.client.LPush(ctx, q.key, payload).Err()
}

// Pop takes from the list tail, waiting in short BRPOP rounds so that
// cancellation is observed.
func (q *RedisQueue) Pop(ctx context.Context) (Message, error) {
	for {
		if err := ctx.Err(); err != nil {
			return Message{}, err
		}
		res, err := q.client.BRPop(ctx, q.timeout, q.key).Result()
		if errors.Is(err, redis.Nil) {
			continue
		}
		if err != nil {
			return Message{}, err
		}
		// res is [key, value]
		var msg Message
		if err := json.Unmarshal([]byte(res[1]), &msg); err != nil {
			return Message{}, err
		}
		return msg, nil
	}
}

// MemoryQueue is a bounded in-process queue used when Redis is unavailable.
type MemoryQueue struct {
	ch chan Message
}

// NewMemoryQueue creates a queue holding up to size messages.
func NewMemoryQueue(size int) *MemoryQueue {
	if size <= 0 {
		size = 256
	}
	return &MemoryQueue{ch: make(chan Message, size)}
}

// Push enqueues without blocking.
func (q *MemoryQueue) Push(ctx context.Context, msg Message) error {
	select {
	case q.ch <- msg:
		return nil
	default:
		return ErrQueueFull
	}
}

// Pop waits for the next message.
func (q *MemoryQueue) Pop(ctx context.Context) (Message, error) {
	select {
	case msg := <-q.ch:
		return msg, nil
	case <-ctx.Done():
		return Message{}, ctx.Err()
	}
}

// Len reports buffered messages.
func (q *MemoryQueue) Len() int {
	return len(q.ch)
}
