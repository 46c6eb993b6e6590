package natsadapter

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"

	"github.com/nats-io/nats.go"

	"github.com/samirrijal/ridekit/internal/core/domain"
)

// Subscriber implements ports.EventSubscriber on top of the round-trip
// JetStream stream. With an empty consumer name every subscription is an
// ephemeral consumer that only sees new messages, so each API replica gets
// the full stream.
type Subscriber struct {
	js       nats.JetStreamContext
	consumer string

	mu   sync.Mutex
	subs []*nats.Subscription
}

// NewSubscriber binds to JetStream on an existing connection. The caller
// keeps ownership of conn.
func NewSubscriber(conn *nats.Conn, consumer string) (*Subscriber, error) {
	js, err := conn.JetStream()
	if err != nil {
		return nil, fmt.Errorf("jetstream: %w", err)
	}
	return &Subscriber{js: js, consumer: consumer}, nil
}

func (s *Subscriber) options(kind string) []nats.SubOpt {
	opts := []nats.SubOpt{nats.ManualAck(), nats.MaxDeliver(3)}
	if s.consumer == "" {
		return append(opts, nats.DeliverNew())
	}
	return append(opts, nats.Durable(s.consumer+"-"+kind))
}

// decode unmarshals into T before handing off. Poison messages are
// terminated; handler failures are redelivered.
func decode[T any](ctx context.Context, subject string, fn func(context.Context, *T) error) nats.MsgHandler {
	return func(msg *nats.Msg) {
		var event T
		if err := json.Unmarshal(msg.Data, &event); err != nil {
			slog.Warn("dropping undecodable event", "subject", msg.Subject, "error", err)
			_ = msg.Term()
			return
		}
		if err := fn(ctx, &event); err != nil {
			slog.Debug("event handler failed", "subject", subject, "error", err)
			_ = msg.Nak()
			return
		}
		_ = msg.Ack()
	}
}

func (s *Subscriber) add(subject, kind string, cb nats.MsgHandler) error {
	sub, err := s.js.Subscribe(subject, cb, s.options(kind)...)
	if err != nil {
		return fmt.Errorf("subscribe %s: %w", subject, err)
	}
	s.mu.Lock()
	s.subs = append(s.subs, sub)
	s.mu.Unlock()
	return nil
}

// SubscribeRoundTripAttempts delivers every synthesis attempt of every round trip.
func (s *Subscriber) SubscribeRoundTripAttempts(ctx context.Context, fn func(context.Context, *domain.RoundTripAttemptEvent) error) error {
	subject := SubjectRoundTripAttempt("*")
	return s.add(subject, "attempts", decode(ctx, subject, fn))
}

// SubscribeRoundTripOutcomes delivers the final status of every round trip.
func (s *Subscriber) SubscribeRoundTripOutcomes(ctx context.Context, fn func(context.Context, *domain.RoundTripOutcomeEvent) error) error {
	subject := SubjectRoundTripOutcome("*")
	return s.add(subject, "outcomes", decode(ctx, subject, fn))
}

// Close removes the subscriptions. Ephemeral consumers are deleted by the
// server; durable ones keep their position.
func (s *Subscriber) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, sub := range s.subs {
		if s.consumer == "" {
			_ = sub.Unsubscribe()
		} else {
			_ = sub.Drain()
		}
	}
	s.subs = nil
}
