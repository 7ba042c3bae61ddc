// Package queue reads the state of the Bull job queues kept in Redis.
package queue

import (
	"context"
	"errors"
)

// ErrUnknownQueue is returned for a queue name that is not configured
var ErrUnknownQueue = errors.New("queue: unknown queue")

// Counts is the number of jobs in each Bull state
type Counts struct {
	Waiting   int64 `json:"waiting"`
	Active    int64 `json:"active"`
	Paused    int64 `json:"paused"`
	Delayed   int64 `json:"delayed"`
	Completed int64 `json:"completed"`
	Failed    int64 `json:"failed"`
}

// Total sums every state
func (c Counts) Total() int64 {
	return c.Waiting + c.Active + c.Paused + c.Delayed + c.Completed + c.Failed
}

// Summary is one queue and its per-state counts
type Summary struct {
	Name   string `json:"name"`
	Counts Counts `json:"counts"`
}

// FailedJob is the part of a failed Bull job shown on the dashboard
type FailedJob struct {
	ID           string `json:"id"`
	Name         string `json:"name"`
	FailedReason string `json:"failedReason"`
	Timestamp    int64  `json:"timestamp"`
}

// Inspector lists queues and their failed jobs
type Inspector interface {
	Queues(ctx context.Context) ([]Summary, error)
	FailedJobs(ctx context.Context, queue string, limit int) ([]FailedJob, error)
}
