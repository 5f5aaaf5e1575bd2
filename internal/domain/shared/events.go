// Package shared contains common domain types, errors and events
// that are used across all domain packages.
package shared

import (
	"encoding/json"
	"strconv"
	"time"
)

// EventType represents the type of domain event.
type EventType string

// Domain event types. Each event represents something significant
// that happened to a roulette and that other components may react to.
const (
	// Roulette events
	EventRouletteCreated    EventType = "roulette.created"
	EventMatchingsFinalized EventType = "roulette.matchings_finalized"

	// User events
	EventUserRegistered EventType = "user.registered"
)

// Event is the base interface for all domain events.
type Event interface {
	// EventType returns the type of the event.
	EventType() EventType

	// OccurredAt returns when the event occurred.
	OccurredAt() time.Time

	// AggregateID returns the ID of the aggregate that produced this event.
	AggregateID() string

	// Payload returns the event data as a map for serialization.
	Payload() map[string]interface{}
}

// BaseEvent provides common event functionality.
type BaseEvent struct {
	Type          EventType `json:"type"`
	Timestamp     time.Time `json:"timestamp"`
	AggregateId   string    `json:"aggregate_id"`
	Version       int       `json:"version"`
	CorrelationID string    `json:"correlation_id,omitempty"`
}

// EventType implements Event interface.
func (e BaseEvent) EventType() EventType {
	return e.Type
}

// OccurredAt implements Event interface.
func (e BaseEvent) OccurredAt() time.Time {
	return e.Timestamp
}

// AggregateID implements Event interface.
func (e BaseEvent) AggregateID() string {
	return e.AggregateId
}

// NewBaseEvent creates a new base event.
func NewBaseEvent(eventType EventType, aggregateID string) BaseEvent {
	return BaseEvent{
		Type:        eventType,
		Timestamp:   time.Now(),
		AggregateId: aggregateID,
		Version:     1,
	}
}

// WithCorrelationID sets the correlation ID for tracing.
func (e BaseEvent) WithCorrelationID(id string) BaseEvent {
	e.CorrelationID = id
	return e
}

// ═══════════════════════════════════════════════════════════════════════════
// Roulette Events
// ═══════════════════════════════════════════════════════════════════════════

// RouletteCreatedEvent is emitted when a new roulette round is opened for voting.
type RouletteCreatedEvent struct {
	BaseEvent
	RouletteID     int64     `json:"roulette_id"`
	VoteDeadline   time.Time `json:"vote_deadline"`
	CoffeeDeadline time.Time `json:"coffee_deadline"`
}

// Payload implements Event interface.
func (e RouletteCreatedEvent) Payload() map[string]interface{} {
	return map[string]interface{}{
		"roulette_id":     e.RouletteID,
		"vote_deadline":   e.VoteDeadline.Format(time.RFC3339),
		"coffee_deadline": e.CoffeeDeadline.Format(time.RFC3339),
	}
}

// NewRouletteCreatedEvent creates a new RouletteCreatedEvent.
func NewRouletteCreatedEvent(rouletteID int64, voteDeadline, coffeeDeadline time.Time) RouletteCreatedEvent {
	return RouletteCreatedEvent{
		BaseEvent:      NewBaseEvent(EventRouletteCreated, strconv.FormatInt(rouletteID, 10)),
		RouletteID:     rouletteID,
		VoteDeadline:   voteDeadline,
		CoffeeDeadline: coffeeDeadline,
	}
}

// MatchingsFinalizedEvent is emitted once, after the transaction that
// persisted the matches of a roulette has committed.
type MatchingsFinalizedEvent struct {
	BaseEvent
	RouletteID     int64              `json:"roulette_id"`
	CoffeeDeadline time.Time          `json:"coffee_deadline"`
	Groups         map[string][]int64 `json:"groups"` // group key -> user IDs
}

// Payload implements Event interface.
func (e MatchingsFinalizedEvent) Payload() map[string]interface{} {
	return map[string]interface{}{
		"roulette_id":     e.RouletteID,
		"coffee_deadline": e.CoffeeDeadline.Format(time.RFC3339),
		"groups":          e.Groups,
	}
}

// NewMatchingsFinalizedEvent creates a new MatchingsFinalizedEvent.
func NewMatchingsFinalizedEvent(rouletteID int64, coffeeDeadline time.Time, groups map[string][]int64) MatchingsFinalizedEvent {
	return MatchingsFinalizedEvent{
		BaseEvent:      NewBaseEvent(EventMatchingsFinalized, strconv.FormatInt(rouletteID, 10)),
		RouletteID:     rouletteID,
		CoffeeDeadline: coffeeDeadline,
		Groups:         groups,
	}
}

// UserRegisteredEvent is emitted when a new participant is added.
type UserRegisteredEvent struct {
	BaseEvent
	UserID int64  `json:"user_id"`
	Name   string `json:"name"`
	Email  string `json:"email"`
}

// Payload implements Event interface.
func (e UserRegisteredEvent) Payload() map[string]interface{} {
	return map[string]interface{}{
		"user_id": e.UserID,
		"name":    e.Name,
		"email":   e.Email,
	}
}

// NewUserRegisteredEvent creates a new UserRegisteredEvent.
func NewUserRegisteredEvent(userID int64, name, email string) UserRegisteredEvent {
	return UserRegisteredEvent{
		BaseEvent: NewBaseEvent(EventUserRegistered, strconv.FormatInt(userID, 10)),
		UserID:    userID,
		Name:      name,
		Email:     email,
	}
}

// DecodePayload re-reads the generic payload of an event into dst.
// Events received from a remote bus only carry a map, so consumers
// decode through JSON regardless of the concrete event type.
func DecodePayload(event Event, dst interface{}) error {
	raw, err := json.Marshal(event.Payload())
	if err != nil {
		return err
	}
	return json.Unmarshal(raw, dst)
}

// ═══════════════════════════════════════════════════════════════════════════
// Event Envelope (for serialization and transport)
// ═══════════════════════════════════════════════════════════════════════════

// EventEnvelope wraps an event for transport/storage.
type EventEnvelope struct {
	ID            string          `json:"id"`
	Type          EventType       `json:"type"`
	AggregateID   string          `json:"aggregate_id"`
	Timestamp     time.Time       `json:"timestamp"`
	Version       int             `json:"version"`
	CorrelationID string          `json:"correlation_id,omitempty"`
	Payload       json.RawMessage `json:"payload"`
}

// EventHandler is a function that handles an event.
type EventHandler func(event Event) error

// EventPublisher defines the interface for publishing events.
type EventPublisher interface {
	// Publish sends an event to subscribers.
	Publish(event Event) error
}

// EventSubscriber defines the interface for subscribing to events.
type EventSubscriber interface {
	// Subscribe registers a handler for an event type.
	Subscribe(eventType EventType, handler EventHandler) error

	// SubscribeAll registers a handler for all events.
	SubscribeAll(handler EventHandler) error
}

// EventBus combines publishing and subscribing.
type EventBus interface {
	EventPublisher
	EventSubscriber
}
