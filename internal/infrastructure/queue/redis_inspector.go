package queue

import (
	"context"
	"fmt"
	"slices"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

// Config holds the connection and the queues to enumerate
type Config struct {
	URL    string
	Prefix string
	Names  []string
}

// RedisInspector implements Inspector against Bull's Redis key layout:
// <prefix>:<queue>:wait|active|paused are lists, delayed|completed|failed
// are sorted sets and each job is a hash at <prefix>:<queue>:<id>.
type RedisInspector struct {
	client *redis.Client
	prefix string
	names  []string
}

var _ Inspector = (*RedisInspector)(nil)

// NewClient creates a Redis client from a redis:// or rediss:// URL.
// It does not connect; the first command does.
func NewClient(url string) (*redis.Client, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("invalid redis url: %w", err)
	}
	opts.DialTimeout = 5 * time.Second
	opts.ReadTimeout = 3 * time.Second
	opts.WriteTimeout = 3 * time.Second
	opts.MaxRetries = 1
	return redis.NewClient(opts), nil
}

// NewRedisInspector creates an inspector with its own client for cfg.URL
func NewRedisInspector(cfg Config) (*RedisInspector, error) {
	client, err := NewClient(cfg.URL)
	if err != nil {
		return nil, err
	}
	return NewRedisInspectorWithClient(client, cfg.Prefix, cfg.Names), nil
}

// NewRedisInspectorWithClient creates an inspector with an existing Redis client
func NewRedisInspectorWithClient(client *redis.Client, prefix string, names []string) *RedisInspector {
	if prefix == "" {
		prefix = "bull"
	}
	return &RedisInspector{
		client: client,
		prefix: prefix,
		names:  slices.Clone(names),
	}
}

// Names returns the configured queue names
func (i *RedisInspector) Names() []string {
	return slices.Clone(i.names)
}

// Ping checks the Redis connection
func (i *RedisInspector) Ping(ctx context.Context) error {
	return i.client.Ping(ctx).Err()
}

// Close releases the client's connections
func (i *RedisInspector) Close() error {
	return i.client.Close()
}

// Queues counts the jobs in every state of every configured queue in one round trip
func (i *RedisInspector) Queues(ctx context.Context) ([]Summary, error) {
	type pending struct {
		waiting, active, paused, delayed, completed, failed *redis.IntCmd
	}

	cmds := make([]pending, len(i.names))
	_, err := i.client.Pipelined(ctx, func(p redis.Pipeliner) error {
		for n, name := range i.names {
			cmds[n] = pending{
				waiting:   p.LLen(ctx, i.key(name, "wait")),
				active:    p.LLen(ctx, i.key(name, "active")),
				paused:    p.LLen(ctx, i.key(name, "paused")),
				delayed:   p.ZCard(ctx, i.key(name, "delayed")),
				completed: p.ZCard(ctx, i.key(name, "completed")),
				failed:    p.ZCard(ctx, i.key(name, "failed")),
			}
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("queue: count jobs: %w", err)
	}

	summaries := make([]Summary, len(i.names))
	for n, name := range i.names {
		c := cmds[n]
		summaries[n] = Summary{
			Name: name,
			Counts: Counts{
				Waiting:   c.waiting.Val(),
				Active:    c.active.Val(),
				Paused:    c.paused.Val(),
				Delayed:   c.delayed.Val(),
				Completed: c.completed.Val(),
				Failed:    c.failed.Val(),
			},
		}
	}
	return summaries, nil
}

// FailedJobs returns the most recently failed jobs of a queue, newest first
func (i *RedisInspector) FailedJobs(ctx context.Context, queue string, limit int) ([]FailedJob, error) {
	if !slices.Contains(i.names, queue) {
		return nil, fmt.Errorf("%w: %s", ErrUnknownQueue, queue)
	}
	if limit <= 0 {
		limit = 50
	}

	ids, err := i.client.ZRevRange(ctx, i.key(queue, "failed"), 0, int64(limit-1)).Result()
	if err != nil {
		return nil, fmt.Errorf("queue: list failed jobs: %w", err)
	}
	if len(ids) == 0 {
		return []FailedJob{}, nil
	}

	hashes := make([]*redis.MapStringStringCmd, len(ids))
	_, err = i.client.Pipelined(ctx, func(p redis.Pipeliner) error {
		for n, id := range ids {
			hashes[n] = p.HGetAll(ctx, i.key(queue, id))
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("queue: load failed jobs: %w", err)
	}

	jobs := make([]FailedJob, 0, len(ids))
	for n, id := range ids {
		fields := hashes[n].Val()
		if len(fields) == 0 {
			// removed between the two reads
			continue
		}
		ts, _ := strconv.ParseInt(fields["timestamp"], 10, 64)
		jobs = append(jobs, FailedJob{
			ID:           id,
			Name:         fields["name"],
			FailedReason: fields["failedReason"],
			Timestamp:    ts,
		})
	}
	return jobs, nil
}

func (i *RedisInspector) key(queue, suffix string) string {
	return i.prefix + ":" + queue + ":" + suffix
}
