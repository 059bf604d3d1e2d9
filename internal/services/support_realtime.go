package services

import (
	"context"
	"encoding/json"
	"log"
	"sync"
	"time"

	"github.com/align-alt-therapy/align-backend/internal/database"
	"github.com/align-alt-therapy/align-backend/internal/models"
)

// Support event types broadcast over Redis and WebSocket.
const (
	EventTypeReply         = "reply"
	EventTypeStatusChanged = "status_changed"
	EventTypeError         = "error"
)

// SupportEvent is the payload broadcast when a question thread changes.
type SupportEvent struct {
	Type       string               `json:"type"`
	QuestionID string               `json:"question_id"`
	Status     string               `json:"status,omitempty"`
	Reply      *models.ServiceReply `json:"reply,omitempty"`
	Error      string               `json:"error,omitempty"`
	Timestamp  time.Time            `json:"timestamp"`
}

const supportChannelPrefix = "support:question:"

// supportHub fans Redis-delivered events out to local WebSocket subscribers,
// keyed by question id.
type supportHub struct {
	mu          sync.RWMutex
	subscribers map[string]map[chan SupportEvent]struct{}
}

var (
	defaultSupportHub = &supportHub{subscribers: make(map[string]map[chan SupportEvent]struct{})}
	supportSubStarted sync.Once
)

// SubscribeSupportEvents registers a local subscriber for a question thread.
// The returned function must be called to unsubscribe.
func SubscribeSupportEvents(questionID string) (<-chan SupportEvent, func()) {
	ch := make(chan SupportEvent, 16)

	defaultSupportHub.mu.Lock()
	subs, ok := defaultSupportHub.subscribers[questionID]
	if !ok {
		subs = make(map[chan SupportEvent]struct{})
		defaultSupportHub.subscribers[questionID] = subs
	}
	subs[ch] = struct{}{}
	defaultSupportHub.mu.Unlock()

	unsubscribe := func() {
		defaultSupportHub.mu.Lock()
		if subs, ok := defaultSupportHub.subscribers[questionID]; ok {
			delete(subs, ch)
			if len(subs) == 0 {
				delete(defaultSupportHub.subscribers, questionID)
			}
		}
		defaultSupportHub.mu.Unlock()
		close(ch)
	}

	return ch, unsubscribe
}

func (h *supportHub) fanOut(event SupportEvent) {
	if event.QuestionID == "" {
		return
	}

	h.mu.RLock()
	defer h.mu.RUnlock()

	for ch := range h.subscribers[event.QuestionID] {
		// Best-effort: drop the event for slow consumers rather than block
		select {
		case ch <- event:
		default:
		}
	}
}

// StartSupportSubscriber ensures a single shared Redis listener per instance.
func StartSupportSubscriber(ctx context.Context) {
	supportSubStarted.Do(func() {
		go runSupportSubscriber(ctx)
	})
}

func runSupportSubscriber(ctx context.Context) {
	client := database.RedisClient
	if client == nil {
		log.Println("Redis client not initialized; support subscriber not started")
		return
	}

	backoff := time.Second

	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		func() {
			pubsub := client.PSubscribe(ctx, supportChannelPrefix+"*")
			defer pubsub.Close()

			log.Println("✅ Support Redis subscriber started (pattern: support:question:*)")

			for {
				msg, err := pubsub.ReceiveMessage(ctx)
				if err != nil {
					log.Printf("Redis subscriber error: %v", err)
					time.Sleep(backoff)
					backoff *= 2
					if backoff > 30*time.Second {
						backoff = 30 * time.Second
					}
					return
				}

				backoff = time.Second

				var event SupportEvent
				if err := json.Unmarshal([]byte(msg.Payload), &event); err != nil {
					log.Printf("failed to unmarshal support event: %v", err)
					continue
				}

				defaultSupportHub.fanOut(event)
			}
		}()
	}
}

// PublishSupportEvent publishes a thread event to Redis so every instance can
// fan it out to its local WebSocket connections.
func PublishSupportEvent(ctx context.Context, event SupportEvent) error {
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now().UTC()
	}
	data, err := json.Marshal(event)
	if err != nil {
		return err
	}

	return database.RedisClient.Publish(ctx, supportChannelPrefix+event.QuestionID, data).Err()
}
