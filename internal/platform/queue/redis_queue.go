// Package queue hands background work to workers through Redis lists.
package queue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	portssvc "github.com/ritsnep/HimalytixNew-sub007/internal/core/ports/services"
	"github.com/redis/go-redis/v9"
)

// RedisTaskQueue pushes tasks onto a Redis list. Workers pop from the other end.
type RedisTaskQueue struct {
	rdb  redis.Cmdable
	name string
}

var _ portssvc.TaskQueue = (*RedisTaskQueue)(nil)

// NewRedisTaskQueue returns a queue writing to the list called name.
func NewRedisTaskQueue(rdb redis.Cmdable, name string) (*RedisTaskQueue, error) {
	if rdb == nil {
		return nil, errors.New("redis client is nil")
	}
	if name == "" {
		return nil, errors.New("queue name is required")
	}
	return &RedisTaskQueue{rdb: rdb, name: name}, nil
}

func (q *RedisTaskQueue) Enqueue(ctx context.Context, task portssvc.AsyncTask) (string, error) {
	if task.TaskID == "" {
		task.TaskID = uuid.NewString()
	}
	body, err := json.Marshal(task)
	if err != nil {
		return "", fmt.Errorf("encode task %s: %w", task.Name, err)
	}
	if err := q.rdb.LPush(ctx, q.name, body).Err(); err != nil {
		return "", fmt.Errorf("enqueue task %s: %w", task.Name, err)
	}
	return task.TaskID, nil
}

// Dequeue blocks up to timeout for the oldest task. It returns nil when the
// queue stayed empty.
func (q *RedisTaskQueue) Dequeue(ctx context.Context, timeout time.Duration) (*portssvc.AsyncTask, error) {
	res, err := q.rdb.BRPop(ctx, timeout, q.name).Result()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("dequeue from %s: %w", q.name, err)
	}
	var task portssvc.AsyncTask
	if err := json.Unmarshal([]byte(res[1]), &task); err != nil {
		return nil, fmt.Errorf("decode task: %w", err)
	}
	return &task, nil
}
