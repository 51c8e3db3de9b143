package main

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

// JournalQueue is the single queue carrying every change event, so the
// journal receives them in the order they happened.
const JournalQueue = "journal"

// Change event kinds.
const (
	CreateEvent = "creation"
	UpdateEvent = "updating"
	DeleteEvent = "deletion"
	SaveEvent   = "saving"
)

var (
	// ErrQueueFull is returned by the in-memory queue when its buffer is exhausted.
	ErrQueueFull = errors.New("queue is full")

	// ErrQueueEmpty is returned when a pop call waited without receiving any event.
	ErrQueueEmpty = errors.New("queue is empty")
)

// redisPopTimeout bounds each BLPOP call so the consumer can observe cancellation.
const redisPopTimeout = time.Second

// Ensure queues implement Queuer.
var (
	_ Queuer = (*redisQueue)(nil)
	_ Queuer = (*memoryQueue)(nil)
)

// ChangeEvent describes one change of the catalog during a session.
type ChangeEvent struct {
	ID       string    `json:"id"`
	Kind     string    `json:"kind"` // one of the change event kinds
	ISBN     string    `json:"isbn,omitempty"`
	Book     *Book     `json:"book,omitempty"`
	Previous *Book     `json:"previous,omitempty"`
	Count    int       `json:"count"`
	At       time.Time `json:"at"`
}

// Queuer describes a queue of change events.
type Queuer interface {
	Push(ctx context.Context, qid string, event ChangeEvent) error
	Pop(ctx context.Context, qids ...string) (string, ChangeEvent, error)
}

// redisQueue represents a redis lists based queue.
type redisQueue struct {
	client *redis.Client
	prefix string
}

func NewRedisQueue(client *redis.Client, prefix string) Queuer {
	return &redisQueue{client: client, prefix: prefix}
}

func (q *redisQueue) key(qid string) string {
	if q.prefix == "" {
		return qid
	}
	return q.prefix + ":" + qid
}

// Push enqueues an event onto the queue identified by qid.
func (q *redisQueue) Push(ctx context.Context, qid string, event ChangeEvent) error {
	eventBytes, err := json.Marshal(event)
	if err != nil {
		return err
	}
	return q.client.RPush(ctx, q.key(qid), eventBytes).Err()
}

// Pop returns the first dequeued event from the list of queue ids. It
// returns ErrQueueEmpty when nothing arrived within the pop timeout.
func (q *redisQueue) Pop(ctx context.Context, qids ...string) (string, ChangeEvent, error) {
	var event ChangeEvent
	keys := make([]string, len(qids))
	byKey := make(map[string]string, len(qids))
	for i, qid := range qids {
		keys[i] = q.key(qid)
		byKey[keys[i]] = qid
	}

	infos, err := q.client.BLPop(ctx, redisPopTimeout, keys...).Result()
	if errors.Is(err, redis.Nil) {
		return "", event, ErrQueueEmpty
	}
	if err != nil {
		return "", event, err
	}

	if err = json.Unmarshal([]byte(infos[1]), &event); err != nil {
		return "", event, err
	}
	return byKey[infos[0]], event, nil
}

// memoryQueue is an in-process bounded queue. It is used when
// no redis server is configured.
type memoryQueue struct {
	mu     sync.Mutex
	items  map[string][]ChangeEvent
	size   int
	max    int
	notify chan struct{}
}

func NewMemoryQueue(max int) Queuer {
	return &memoryQueue{
		items:  make(map[string][]ChangeEvent),
		max:    max,
		notify: make(chan struct{}, 1),
	}
}

// Push enqueues an event onto the queue identified by qid.
func (q *memoryQueue) Push(_ context.Context, qid string, event ChangeEvent) error {
	q.mu.Lock()
	if q.size >= q.max {
		q.mu.Unlock()
		return ErrQueueFull
	}
	q.items[qid] = append(q.items[qid], event)
	q.size++
	q.mu.Unlock()
	q.signal()
	return nil
}

// Pop blocks until an event is available on one of the queue ids, checked in
// the given order, or until the context is done.
func (q *memoryQueue) Pop(ctx context.Context, qids ...string) (string, ChangeEvent, error) {
	for {
		if qid, event, ok := q.take(qids); ok {
			return qid, event, nil
		}
		select {
		case <-ctx.Done():
			return "", ChangeEvent{}, ctx.Err()
		case <-q.notify:
		}
	}
}

func (q *memoryQueue) take(qids []string) (string, ChangeEvent, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()
	for _, qid := range qids {
		if events := q.items[qid]; len(events) > 0 {
			q.items[qid] = events[1:]
			q.size--
			if q.size > 0 {
				q.signal()
			}
			return qid, events[0], true
		}
	}
	return "", ChangeEvent{}, false
}

func (q *memoryQueue) signal() {
	select {
	case q.notify <- struct{}{}:
	default:
	}
}
