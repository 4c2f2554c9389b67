package queue

import (
	"context"
	"errors"
	"time"

	"github.com/joshjon/relay/internal/notification"
	"github.com/redis/go-redis/v9"
)

const (
	pendingKey    = "relay:queue:pending"
	processingKey = "relay:queue:processing"
)

// Redis is a durable Queue backed by a Redis list, grounded on the
// BRPopLPush-based "pending → processing" move shown by the retrieved
// knok-fm queue repository. Unlike that repository, this queue is only a
// hint source for workers: actual claim arbitration is the Task Store's
// CompareAndSetStatus, and lost liveness is recovered by the recovery
// sweeper reading the Task Store directly, not by reconciling this list. So
// PopBlocking moves the popped id into processingKey only transiently, to
// preserve the at-least-once pop semantics across a client crash between
// the BRPopLPush call and our own ack, then immediately acks by removing it.
type Redis struct {
	client *redis.Client
}

// NewRedis constructs a Queue backed by the given client.
func NewRedis(client *redis.Client) *Redis {
	return &Redis{client: client}
}

// Push inserts id at the head of the pending list; PopBlocking takes from the
// tail, so ids come out in push order.
func (r *Redis) Push(ctx context.Context, id notification.TaskID) error {
	return r.client.LPush(ctx, pendingKey, id.String()).Err()
}

// PopBlocking moves the next id from pending to processing, blocking up to
// timeout, then acknowledges it by removing it from processing.
func (r *Redis) PopBlocking(ctx context.Context, timeout time.Duration) (notification.TaskID, bool, error) {
	s, err := r.client.BRPopLPush(ctx, pendingKey, processingKey, timeout).Result()
	if errors.Is(err, redis.Nil) {
		return notification.TaskID{}, false, nil
	}
	if err != nil {
		return notification.TaskID{}, false, err
	}
	r.client.LRem(ctx, processingKey, 1, s)

	id, err := notification.ParseTaskID(s)
	if err != nil {
		return notification.TaskID{}, false, nil
	}
	return id, true, nil
}

// Size reports the number of entries waiting in the pending list.
func (r *Redis) Size(ctx context.Context) (int, error) {
	n, err := r.client.LLen(ctx, pendingKey).Result()
	return int(n), err
}
