// README: Push sources of driver fixes: an in-process hub and a Redis pub/sub feed.
package location

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/redis/go-redis/v9"

	"chauffeur/internal/logger"
	"chauffeur/internal/types"
)

// Source delivers fixes for one booking until the returned cancel func is called.
type Source interface {
	Subscribe(ctx context.Context, id types.ID) (<-chan Fix, func(), error)
}

// Publisher accepts fixes pushed by drivers.
type Publisher interface {
	Publish(ctx context.Context, id types.ID, fix Fix) error
}

const subscriberBuffer = 16

// Hub fans fixes out to in-process subscribers. A slow subscriber loses its
// oldest queued fix rather than blocking the publisher.
type Hub struct {
	mu     sync.Mutex
	nextID int
	subs   map[types.ID]map[int]chan Fix
}

func NewHub() *Hub {
	return &Hub{subs: make(map[types.ID]map[int]chan Fix)}
}

func (h *Hub) Subscribe(_ context.Context, id types.ID) (<-chan Fix, func(), error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	ch := make(chan Fix, subscriberBuffer)
	subID := h.nextID
	h.nextID++
	if h.subs[id] == nil {
		h.subs[id] = make(map[int]chan Fix)
	}
	h.subs[id][subID] = ch

	var once sync.Once
	cancel := func() {
		once.Do(func() {
			h.mu.Lock()
			defer h.mu.Unlock()
			delete(h.subs[id], subID)
			if len(h.subs[id]) == 0 {
				delete(h.subs, id)
			}
			close(ch)
		})
	}
	return ch, cancel, nil
}

func (h *Hub) Publish(_ context.Context, id types.ID, fix Fix) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	for _, ch := range h.subs[id] {
		select {
		case ch <- fix:
		default:
			select {
			case <-ch:
			default:
			}
			select {
			case ch <- fix:
			default:
			}
		}
	}
	return nil
}

// Subscribers reports how many subscriptions are open for id.
func (h *Hub) Subscribers(id types.ID) int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.subs[id])
}

// RedisFeed carries fixes over Redis pub/sub so a fix received by any API
// instance reaches the instance tracking the journey.
type RedisFeed struct {
	rdb *redis.Client
	log logger.ILogger
}

func NewRedisFeed(rdb *redis.Client, log logger.ILogger) *RedisFeed {
	if log == nil {
		log = logger.NewNop()
	}
	return &RedisFeed{rdb: rdb, log: log}
}

func fixChannel(id types.ID) string {
	return fmt.Sprintf("journey:fixes:%s", id)
}

func (f *RedisFeed) Publish(ctx context.Context, id types.ID, fix Fix) error {
	payload, err := json.Marshal(fix)
	if err != nil {
		return err
	}
	return f.rdb.Publish(ctx, fixChannel(id), payload).Err()
}

func (f *RedisFeed) Subscribe(ctx context.Context, id types.ID) (<-chan Fix, func(), error) {
	pubsub := f.rdb.Subscribe(ctx, fixChannel(id))
	// Wait for the subscription confirmation so no fix published after
	// Subscribe returns is missed.
	if _, err := pubsub.Receive(ctx); err != nil {
		_ = pubsub.Close()
		return nil, nil, fmt.Errorf("subscribe %s: %w", fixChannel(id), err)
	}

	out := make(chan Fix, subscriberBuffer)
	done := make(chan struct{})
	go func() {
		defer close(out)
		msgs := pubsub.Channel()
		for {
			select {
			case <-done:
				return
			case msg, ok := <-msgs:
				if !ok {
					return
				}
				var fix Fix
				if err := json.Unmarshal([]byte(msg.Payload), &fix); err != nil {
					f.log.Warning("drop malformed fix",
						logger.String("request_id", string(id)), logger.Error(err))
					continue
				}
				select {
				case out <- fix:
				case <-done:
					return
				}
			}
		}
	}()

	var once sync.Once
	cancel := func() {
		once.Do(func() {
			close(done)
			_ = pubsub.Close()
		})
	}
	return out, cancel, nil
}
