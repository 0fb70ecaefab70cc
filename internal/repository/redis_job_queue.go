package repository

import (
	"context"
	"errors"

	"SentimentDesk/internal/domain/models"
	"SentimentDesk/internal/domain/repository"
	"SentimentDesk/pkg/queue"
)

// RedisJobQueue adapts the Redis work queue to the domain JobQueue.
type RedisJobQueue struct {
	q queue.Enqueuer
}

func NewRedisJobQueue(q queue.Enqueuer) *RedisJobQueue {
	return &RedisJobQueue{q: q}
}

func (r *RedisJobQueue) Enqueue(ctx context.Context, jobType string, payload interface{}) (string, error) {
	return r.q.Enqueue(ctx, jobType, payload)
}

func (r *RedisJobQueue) Status(ctx context.Context, id string) (models.JobStatus, error) {
	st, err := r.q.Status(ctx, id)
	if err != nil {
		if errors.Is(err, queue.ErrJobNotFound) {
			return "", repository.ErrJobNotFound
		}
		return "", err
	}
	return models.JobStatus(st), nil
}
