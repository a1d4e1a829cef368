package journal

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

// Client provides namespaced Redis operations for the run journal.
// All keys and channels are automatically prefixed with the namespace.
// The client is safe for concurrent use.
type Client struct {
	rdb       *redis.Client
	namespace string
	now       func() time.Time
}

// NewClient creates a journal client for namespace.
//
// Parameters:
//   - redisOpts: Redis connection options (address, password, DB, etc.)
//   - namespace: journal namespace, usually the wiki name (must not be empty)
func NewClient(redisOpts *redis.Options, namespace string) (*Client, error) {
	if namespace == "" {
		return nil, fmt.Errorf("namespace cannot be empty")
	}

	return &Client{
		rdb:       redis.NewClient(redisOpts),
		namespace: namespace,
		now:       time.Now,
	}, nil
}

// Namespace returns the namespace the client writes under.
func (c *Client) Namespace() string {
	return c.namespace
}

// Close closes the Redis connection. Implements io.Closer.
func (c *Client) Close() error {
	return c.rdb.Close()
}

// Ping verifies Redis connectivity.
func (c *Client) Ping(ctx context.Context) error {
	return c.rdb.Ping(ctx).Err()
}

// SaveRun writes a run, indexes it by creation time and publishes a run event.
// CreatedAtMs and UpdatedAtMs are filled in when zero.
// Saving the same run twice replaces it.
func (c *Client) SaveRun(ctx context.Context, r *Run) error {
	nowMs := c.now().UnixMilli()
	if r.CreatedAtMs == 0 {
		r.CreatedAtMs = nowMs
	}
	if r.UpdatedAtMs == 0 {
		r.UpdatedAtMs = r.CreatedAtMs
	}

	if err := r.Validate(); err != nil {
		return fmt.Errorf("invalid run: %w", err)
	}

	hash, err := RunToHash(r)
	if err != nil {
		return fmt.Errorf("failed to serialize run: %w", err)
	}

	pipe := c.rdb.TxPipeline()
	pipe.HSet(ctx, RunKey(c.namespace, r.ID), hash)
	pipe.ZAdd(ctx, RunsIndexKey(c.namespace), redis.Z{Score: float64(r.CreatedAtMs), Member: r.ID})
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to write run to Redis: %w", err)
	}

	return c.publishRunEvent(ctx, r)
}

// GetRun retrieves a run by ID.
// Returns (nil, redis.Nil) if the run doesn't exist. Use IsNotFound() to check.
func (c *Client) GetRun(ctx context.Context, runID string) (*Run, error) {
	hashData, err := c.rdb.HGetAll(ctx, RunKey(c.namespace, runID)).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to read run from Redis: %w", err)
	}

	// HGetAll returns an empty map for missing keys
	if len(hashData) == 0 {
		return nil, redis.Nil
	}

	run, err := HashToRun(hashData)
	if err != nil {
		return nil, fmt.Errorf("failed to deserialize run: %w", err)
	}
	return run, nil
}

// RunIDs returns every run ID, oldest first.
func (c *Client) RunIDs(ctx context.Context) ([]string, error) {
	ids, err := c.rdb.ZRange(ctx, RunsIndexKey(c.namespace), 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to read run index: %w", err)
	}
	return ids, nil
}

// ListRuns returns every run, oldest first. Index entries whose hash has
// gone missing are skipped.
func (c *Client) ListRuns(ctx context.Context) ([]*Run, error) {
	ids, err := c.RunIDs(ctx)
	if err != nil {
		return nil, err
	}

	runs := make([]*Run, 0, len(ids))
	for _, id := range ids {
		run, err := c.GetRun(ctx, id)
		if IsNotFound(err) {
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("failed to load run %s: %w", id, err)
		}
		runs = append(runs, run)
	}
	return runs, nil
}

// UpdateStatus changes the status of an existing run and publishes a run event.
// cause is stored as the run error; pass "" to clear it.
func (c *Client) UpdateStatus(ctx context.Context, runID string, status RunStatus, cause string) error {
	if err := status.Validate(); err != nil {
		return err
	}

	run, err := c.GetRun(ctx, runID)
	if err != nil {
		return err
	}

	run.Status = status
	run.Error = cause
	run.UpdatedAtMs = c.now().UnixMilli()

	fields := map[string]interface{}{
		"status":        string(run.Status),
		"error":         run.Error,
		"updated_at_ms": run.UpdatedAtMs,
	}
	if err := c.rdb.HSet(ctx, RunKey(c.namespace, runID), fields).Err(); err != nil {
		return fmt.Errorf("failed to update run status: %w", err)
	}

	return c.publishRunEvent(ctx, run)
}

// PublishOutcome publishes one per-page outcome. Outcomes are not stored;
// the saved run carries them.
func (c *Client) PublishOutcome(ctx context.Context, ev *OutcomeEvent) error {
	if ev.AtMs == 0 {
		ev.AtMs = c.now().UnixMilli()
	}
	data, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("failed to marshal outcome event: %w", err)
	}
	if err := c.rdb.Publish(ctx, OutcomeEventsChannel(c.namespace), data).Err(); err != nil {
		return fmt.Errorf("failed to publish outcome event: %w", err)
	}
	return nil
}

func (c *Client) publishRunEvent(ctx context.Context, r *Run) error {
	data, err := json.Marshal(RunEvent{
		RunID:   r.ID,
		Kind:    r.Kind,
		Status:  r.Status,
		Changed: r.Changed,
		AtMs:    r.UpdatedAtMs,
	})
	if err != nil {
		return fmt.Errorf("failed to marshal run event: %w", err)
	}
	if err := c.rdb.Publish(ctx, RunEventsChannel(c.namespace), data).Err(); err != nil {
		return fmt.Errorf("failed to publish run event: %w", err)
	}
	return nil
}

// Subscription represents an active Pub/Sub subscription.
// Caller must call Close() when done to clean up resources.
type Subscription[T any] struct {
	events <-chan *T
	errors <-chan error
	cancel func()
	once   sync.Once
}

// Events returns the channel of decoded events.
// The channel is closed when the subscription is closed or the context is cancelled.
func (s *Subscription[T]) Events() <-chan *T {
	return s.events
}

// Errors returns the channel of decode errors. The subscription keeps
// running after an error; the bad message is skipped.
func (s *Subscription[T]) Errors() <-chan error {
	return s.errors
}

// Close stops the subscription. Implements io.Closer.
// Safe to call multiple times.
func (s *Subscription[T]) Close() error {
	s.once.Do(s.cancel)
	return nil
}

// SubscribeOutcomes subscribes to per-page outcome events.
// Events are delivered on a buffered channel (size 10). Redis Pub/Sub is
// at-most-once: a slow subscriber may miss events.
func (c *Client) SubscribeOutcomes(ctx context.Context) (*Subscription[OutcomeEvent], error) {
	return subscribe[OutcomeEvent](ctx, c.rdb, OutcomeEventsChannel(c.namespace), "outcome")
}

// SubscribeRuns subscribes to run status events.
func (c *Client) SubscribeRuns(ctx context.Context) (*Subscription[RunEvent], error) {
	return subscribe[RunEvent](ctx, c.rdb, RunEventsChannel(c.namespace), "run")
}

func subscribe[T any](ctx context.Context, rdb *redis.Client, channel, name string) (*Subscription[T], error) {
	pubsub := rdb.Subscribe(ctx, channel)

	// Wait for the subscription to be confirmed so no event published
	// after this call returns is lost.
	if _, err := pubsub.Receive(ctx); err != nil {
		pubsub.Close()
		return nil, fmt.Errorf("failed to subscribe to %s events: %w", name, err)
	}

	eventsChan := make(chan *T, 10)
	errorsChan := make(chan error, 10)
	subCtx, cancelFunc := context.WithCancel(ctx)

	go func() {
		defer close(eventsChan)
		defer close(errorsChan)
		defer pubsub.Close()

		ch := pubsub.Channel()
		for {
			select {
			case <-subCtx.Done():
				return
			case msg, ok := <-ch:
				if !ok {
					return
				}

				var ev T
				if err := json.Unmarshal([]byte(msg.Payload), &ev); err != nil {
					select {
					case errorsChan <- fmt.Errorf("failed to unmarshal %s event: %w", name, err):
					case <-subCtx.Done():
						return
					}
					continue
				}

				select {
				case eventsChan <- &ev:
				case <-subCtx.Done():
					return
				}
			}
		}
	}()

	return &Subscription[T]{
		events: eventsChan,
		errors: errorsChan,
		cancel: cancelFunc,
	}, nil
}

// IsNotFound returns true if the error is a Redis "key not found" error (redis.Nil).
func IsNotFound(err error) bool {
	return errors.Is(err, redis.Nil)
}
