package event_bus

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/klokku/prayer-sync/internal/utils"
	log "github.com/sirupsen/logrus"
)

// Topic identifies a kind of sync event.
type Topic string

// Event is the envelope passed to handlers. Data carries one of the payloads
// from events.go.
type Event struct {
	ctx       context.Context
	Topic     Topic
	Timestamp time.Time
	Data      any
}

// Context returns the context the event was published with.
func (e Event) Context() context.Context {
	if e.ctx == nil {
		return context.Background()
	}
	return e.ctx
}

// EventT is the envelope seen by typed handlers.
type EventT[T any] struct {
	Event
	Data T
}

type subscription struct {
	id uint64
	h  func(Event) error
}

// EventBus dispatches events synchronously, in subscription order.
type EventBus struct {
	mu          sync.RWMutex
	clock       utils.Clock
	subscribers map[Topic][]subscription
	nextID      uint64
}

func NewEventBus(clock utils.Clock) *EventBus {
	if clock == nil {
		clock = utils.SystemClock{}
	}
	return &EventBus{
		clock:       clock,
		subscribers: make(map[Topic][]subscription),
	}
}

// Subscribe registers h for topic. The returned function removes it again.
func (eb *EventBus) Subscribe(topic Topic, h func(Event) error) (unsubscribe func()) {
	eb.mu.Lock()
	eb.nextID++
	id := eb.nextID
	eb.subscribers[topic] = append(eb.subscribers[topic], subscription{id: id, h: h})
	eb.mu.Unlock()

	return func() {
		eb.mu.Lock()
		defer eb.mu.Unlock()
		subs := eb.subscribers[topic]
		for i, s := range subs {
			if s.id == id {
				eb.subscribers[topic] = append(subs[:i:i], subs[i+1:]...)
				break
			}
		}
		if len(eb.subscribers[topic]) == 0 {
			delete(eb.subscribers, topic)
		}
	}
}

// SubscribeTyped registers a handler for payloads of type T. Events on topic
// carrying another payload type are ignored.
//
//	event_bus.SubscribeTyped(bus, event_bus.TopicEventCreated,
//	    func(e event_bus.EventT[event_bus.EventCreated]) error {
//	        log.Infof("created %s", e.Data.Summary)
//	        return nil
//	    })
func SubscribeTyped[T any](eb *EventBus, topic Topic, h func(EventT[T]) error) (unsubscribe func()) {
	return eb.Subscribe(topic, func(e Event) error {
		payload, ok := e.Data.(T)
		if !ok {
			log.Debugf("EventBus: type mismatch for %s: expected %T, got %T", topic, *new(T), e.Data)
			return nil
		}
		return h(EventT[T]{Event: e, Data: payload})
	})
}

// Publish runs every handler of topic before returning. Handler errors and
// panics are collected, a cancelled context stops the dispatch.
func (eb *EventBus) Publish(ctx context.Context, topic Topic, data any) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("event %s: context cancelled before publish: %w", topic, err)
	}
	e := Event{ctx: ctx, Topic: topic, Timestamp: eb.clock.Now(), Data: data}

	eb.mu.RLock()
	subs := append([]subscription(nil), eb.subscribers[topic]...)
	eb.mu.RUnlock()

	var errs []error
	for _, s := range subs {
		if err := ctx.Err(); err != nil {
			errs = append(errs, fmt.Errorf("context cancelled during event processing: %w", err))
			break
		}
		if err := eb.dispatch(s, e); err != nil {
			log.Errorf("EventBus: handler error (ID %d) for event %s: %v", s.id, topic, err)
			errs = append(errs, err)
		}
	}
	if len(errs) > 0 {
		return fmt.Errorf("event %s: %d handler(s) failed: %w", topic, len(errs), errors.Join(errs...))
	}
	return nil
}

func (eb *EventBus) dispatch(s subscription, e Event) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("handler panic (ID %d) for event %s: %v", s.id, e.Topic, r)
		}
	}()
	return s.h(e)
}
