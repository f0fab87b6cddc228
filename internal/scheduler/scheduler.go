// Package scheduler provides durable delayed-task execution on Redis sorted
// sets. A due task is claimed by moving it to an in-flight set and removed
// only after its handler succeeds; tasks claimed by a run that died are
// returned to the queue on the next startup. Delivery is therefore at least
// once, and handlers are expected to check their own preconditions and treat
// stale deliveries as no-ops.
package scheduler

import (
	"context"
	"encoding/json"
	"log"
	"strconv"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const (
	queueKey    = "scheduler:tasks"
	inflightKey = "scheduler:tasks:inflight"
)

// HandlerFunc processes one delivered task payload.
type HandlerFunc func(ctx context.Context, payload json.RawMessage) error

// Task is the serialized form stored in Redis. The ID makes each scheduled
// task a distinct sorted-set member, so identical payloads never collapse
// into one entry.
type Task struct {
	ID      string          `json:"id"`
	Op      string          `json:"op"`
	Payload json.RawMessage `json:"payload"`
}

// zsetClient is the slice of the Redis API the scheduler uses.
type zsetClient interface {
	ZAdd(ctx context.Context, key string, members ...redis.Z) *redis.IntCmd
	ZRem(ctx context.Context, key string, members ...interface{}) *redis.IntCmd
	ZRangeByScore(ctx context.Context, key string, opt *redis.ZRangeBy) *redis.StringSliceCmd
	ZRangeByScoreWithScores(ctx context.Context, key string, opt *redis.ZRangeBy) *redis.ZSliceCmd
}

// Scheduler stores delayed tasks in a Redis ZSET scored by due time and
// dispatches them from a polling loop.
type Scheduler struct {
	client zsetClient

	mu       sync.RWMutex
	handlers map[string]HandlerFunc

	pollInterval time.Duration
}

// New creates a scheduler polling at the given interval.
func New(client *redis.Client, pollInterval time.Duration) *Scheduler {
	return &Scheduler{
		client:       client,
		handlers:     make(map[string]HandlerFunc),
		pollInterval: pollInterval,
	}
}

// Register binds an operation name to its handler. Must be called before Run.
func (s *Scheduler) Register(op string, h HandlerFunc) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.handlers[op] = h
}

// Schedule enqueues op to fire at or after delay. Fire-and-forget: there is
// no cancellation once a task is armed.
func (s *Scheduler) Schedule(ctx context.Context, delay time.Duration, op string, payload interface{}) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return err
	}

	task := Task{
		ID:      uuid.New().String(),
		Op:      op,
		Payload: data,
	}
	member, err := json.Marshal(task)
	if err != nil {
		return err
	}

	dueAt := time.Now().Add(delay)
	return s.client.ZAdd(ctx, queueKey, redis.Z{
		Score:  float64(dueAt.UnixMilli()),
		Member: string(member),
	}).Err()
}

// Run recovers tasks orphaned by a previous run, then polls for due tasks
// until ctx is cancelled.
func (s *Scheduler) Run(ctx context.Context) {
	s.requeueInflight(ctx)

	ticker := time.NewTicker(s.pollInterval)
	defer ticker.Stop()

	log.Printf("[Scheduler] running, poll interval %v", s.pollInterval)

	for {
		select {
		case <-ticker.C:
			s.dispatchDue(ctx)
		case <-ctx.Done():
			log.Println("[Scheduler] stopped")
			return
		}
	}
}

func (s *Scheduler) dispatchDue(ctx context.Context) {
	now := time.Now().UnixMilli()

	members, err := s.client.ZRangeByScore(ctx, queueKey, &redis.ZRangeBy{
		Min: "-inf",
		Max: formatScore(now),
	}).Result()
	if err != nil {
		log.Printf("[Scheduler] poll error: %v", err)
		return
	}

	for _, member := range members {
		if !s.claim(ctx, member) {
			continue
		}

		var task Task
		if err := json.Unmarshal([]byte(member), &task); err != nil {
			log.Printf("[Scheduler] dropping malformed task: %v", err)
			s.ack(ctx, member)
			continue
		}

		go func(member string, task Task) {
			// Acknowledged only on success; a failed or interrupted handler
			// leaves the member in-flight for redelivery on the next startup.
			if err := s.dispatch(ctx, task); err != nil {
				log.Printf("[Scheduler] op %q task %s failed: %v", task.Op, task.ID, err)
				return
			}
			s.ack(ctx, member)
		}(member, task)
	}
}

// claim takes ownership of a due member by copying it to the in-flight set
// before removing it from the queue. Either write can be interrupted by a
// crash without losing the task: the member then still exists in at least
// one of the two sets. Returns false when another poller won the removal.
func (s *Scheduler) claim(ctx context.Context, member string) bool {
	err := s.client.ZAdd(ctx, inflightKey, redis.Z{
		Score:  float64(time.Now().UnixMilli()),
		Member: member,
	}).Err()
	if err != nil {
		log.Printf("[Scheduler] claim error: %v", err)
		return false
	}

	removed, err := s.client.ZRem(ctx, queueKey, member).Result()
	if err != nil {
		log.Printf("[Scheduler] claim error: %v", err)
		return false
	}
	return removed > 0
}

// ack discharges a delivered member from the in-flight set.
func (s *Scheduler) ack(ctx context.Context, member string) {
	if err := s.client.ZRem(ctx, inflightKey, member).Err(); err != nil {
		log.Printf("[Scheduler] ack error: %v", err)
	}
}

// requeueInflight moves members claimed but never acknowledged by a previous
// run back onto the queue. Members are unique, so re-adding one that also
// survived in the queue cannot duplicate it; the worst case is a second
// delivery, which handlers tolerate.
func (s *Scheduler) requeueInflight(ctx context.Context) {
	entries, err := s.client.ZRangeByScoreWithScores(ctx, inflightKey, &redis.ZRangeBy{
		Min: "-inf",
		Max: "+inf",
	}).Result()
	if err != nil {
		log.Printf("[Scheduler] recovery error: %v", err)
		return
	}

	for _, entry := range entries {
		member, ok := entry.Member.(string)
		if !ok {
			continue
		}
		if err := s.client.ZAdd(ctx, queueKey, redis.Z{Score: entry.Score, Member: member}).Err(); err != nil {
			log.Printf("[Scheduler] recovery error: %v", err)
			continue
		}
		s.ack(ctx, member)
	}

	if len(entries) > 0 {
		log.Printf("[Scheduler] requeued %d unacknowledged tasks", len(entries))
	}
}

func (s *Scheduler) dispatch(ctx context.Context, task Task) error {
	s.mu.RLock()
	h, ok := s.handlers[task.Op]
	s.mu.RUnlock()

	if !ok {
		log.Printf("[Scheduler] no handler for op %q, dropping task %s", task.Op, task.ID)
		return nil
	}

	return h(ctx, task.Payload)
}

func formatScore(ms int64) string {
	return strconv.FormatInt(ms, 10)
}
