package events

import (
	"context"
	"sync"

	"github.com/rs/zerolog/log"

	"github.com/arogya-hms/backend/internal/domain/entities"
	"github.com/arogya-hms/backend/internal/domain/providers"
)

// LocalEventBus implements the EventBus interface entirely in-process. It is
// the fallback when Redis is unavailable: events only reach subscribers in
// the same process, so a multi-instance deployment should use the Redis bus.
type LocalEventBus struct {
	subscribers map[string]map[chan *entities.QueueEvent]struct{}
	mu          sync.RWMutex
	closed      bool
}

// NewLocalEventBus creates a new in-process event bus
func NewLocalEventBus() providers.EventBus {
	return &LocalEventBus{
		subscribers: make(map[string]map[chan *entities.QueueEvent]struct{}),
	}
}

// Publish delivers a queue event to all in-process subscribers of a channel
func (b *LocalEventBus) Publish(ctx context.Context, channel string, event *entities.QueueEvent) error {
	b.mu.RLock()
	defer b.mu.RUnlock()

	if b.closed {
		return nil
	}

	for subscriber := range b.subscribers[channel] {
		select {
		case subscriber <- event:
		default:
			// Subscriber buffer full; at-most-once delivery, drop.
			log.Debug().Str("channel", channel).Str("event_id", event.ID).
				Msg("subscriber buffer full, dropping event")
		}
	}

	return nil
}

// Subscribe subscribes to events on a channel until ctx is done
func (b *LocalEventBus) Subscribe(ctx context.Context, channel string) (<-chan *entities.QueueEvent, error) {
	b.mu.Lock()
	if b.subscribers[channel] == nil {
		b.subscribers[channel] = make(map[chan *entities.QueueEvent]struct{})
	}

	eventChan := make(chan *entities.QueueEvent, 100)
	b.subscribers[channel][eventChan] = struct{}{}
	b.mu.Unlock()

	go func() {
		<-ctx.Done()
		b.removeSubscriber(channel, eventChan)
	}()

	return eventChan, nil
}

func (b *LocalEventBus) removeSubscriber(channel string, eventChan chan *entities.QueueEvent) {
	b.mu.Lock()
	defer b.mu.Unlock()

	subscribers, exists := b.subscribers[channel]
	if !exists {
		return
	}

	if _, ok := subscribers[eventChan]; !ok {
		return
	}

	delete(subscribers, eventChan)
	close(eventChan)

	if len(subscribers) == 0 {
		delete(b.subscribers, channel)
	}
}

// Unsubscribe closes every subscriber of a channel
func (b *LocalEventBus) Unsubscribe(ctx context.Context, channel string) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	for subscriber := range b.subscribers[channel] {
		close(subscriber)
	}
	delete(b.subscribers, channel)
	return nil
}

// Close closes the event bus and all subscriptions
func (b *LocalEventBus) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return nil
	}
	b.closed = true

	for channel, subscribers := range b.subscribers {
		for subscriber := range subscribers {
			close(subscriber)
		}
		delete(b.subscribers, channel)
	}

	return nil
}
