package events

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
)

const (
	ReviewCreated         = "review.created"
	ReviewUpdated         = "review.updated"
	ReviewDeleted         = "review.deleted"
	MovieCreated          = "movie.created"
	MovieUpdated          = "movie.updated"
	MovieDeleted          = "movie.deleted"
	MovieRatingRecomputed = "movie.rating_recomputed"
	UserRegistered        = "user.registered"
)

type Event struct {
	ID         string    `json:"id"`
	Name       string    `json:"name"`
	OccurredAt time.Time `json:"occurred_at"`
	Payload    any       `json:"payload"`
}

// Message is an encoded event as handed to a broker.
type Message struct {
	ID         string
	Name       string
	OccurredAt time.Time
	Body       []byte
}

type Broker interface {
	Publish(ctx context.Context, msg Message) error
	Close() error
}

// Publisher is fire-and-forget: failures are logged, never returned,
// since events go out after the data change is already committed.
// A nil *Publisher or one without a broker drops everything.
type Publisher struct {
	log     *slog.Logger
	broker  Broker
	timeout time.Duration
	now     func() time.Time
}

func NewPublisher(log *slog.Logger, broker Broker) *Publisher {
	return &Publisher{
		log:     log,
		broker:  broker,
		timeout: 3 * time.Second,
		now:     time.Now,
	}
}

func (p *Publisher) encode(name string, payload any) (Message, error) {
	event := Event{
		ID:         uuid.NewString(),
		Name:       name,
		OccurredAt: p.now().UTC(),
		Payload:    payload,
	}
	body, err := json.Marshal(event)
	if err != nil {
		return Message{}, fmt.Errorf("encode event %s: %w", name, err)
	}
	return Message{ID: event.ID, Name: name, OccurredAt: event.OccurredAt, Body: body}, nil
}

func (p *Publisher) Publish(ctx context.Context, name string, payload any) {
	if p == nil || p.broker == nil {
		return
	}
	log := p.log.With("event", name)
	msg, err := p.encode(name, payload)
	if err != nil {
		log.Warn("failed to encode event", "err", err)
		return
	}
	// the request context may be cancelled right after the response is written
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), p.timeout)
	defer cancel()
	if err := p.broker.Publish(ctx, msg); err != nil {
		log.Warn("failed to publish event", "event_id", msg.ID, "err", err)
		return
	}
	log.Debug("event published", "event_id", msg.ID)
}

func (p *Publisher) Close() error {
	if p == nil || p.broker == nil {
		return nil
	}
	return p.broker.Close()
}
