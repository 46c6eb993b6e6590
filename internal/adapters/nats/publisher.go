package natsadapter

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/nats-io/nats.go"

	"github.com/samirrijal/ridekit/internal/core/domain"
)

// Publisher implements ports.EventPublisher on JetStream.
type Publisher struct {
	conn *nats.Conn
	js   nats.JetStreamContext
}

// NewPublisher connects, then creates or updates the streams.
func NewPublisher(url string) (*Publisher, error) {
	conn, err := RawConn(url)
	if err != nil {
		return nil, fmt.Errorf("nats connect: %w", err)
	}
	js, err := conn.JetStream()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("jetstream: %w", err)
	}
	if err := ensureStreams(js); err != nil {
		conn.Close()
		return nil, fmt.Errorf("ensure streams: %w", err)
	}
	return &Publisher{conn: conn, js: js}, nil
}

func (p *Publisher) publish(ctx context.Context, subject, msgID string, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encode %s: %w", subject, err)
	}
	opts := []nats.PubOpt{nats.Context(ctx)}
	if msgID != "" {
		opts = append(opts, nats.MsgId(msgID))
	}
	if _, err := p.js.Publish(subject, data, opts...); err != nil {
		return fmt.Errorf("publish %s: %w", subject, err)
	}
	return nil
}

func (p *Publisher) PublishSurfaceAnalyzed(ctx context.Context, e *domain.SurfaceAnalyzedEvent) error {
	return p.publish(ctx, SubjectSurfaceAnalyzed, "", e)
}

func (p *Publisher) PublishPOISearched(ctx context.Context, e *domain.POISearchedEvent) error {
	return p.publish(ctx, SubjectPOISearched, "", e)
}

func (p *Publisher) PublishRoundTripAttempt(ctx context.Context, e *domain.RoundTripAttemptEvent) error {
	return p.publish(ctx, SubjectRoundTripAttempt(e.RoundTripID), attemptMsgID(e.RoundTripID, e.Attempt), e)
}

func (p *Publisher) PublishRoundTripOutcome(ctx context.Context, e *domain.RoundTripOutcomeEvent) error {
	return p.publish(ctx, SubjectRoundTripOutcome(e.RoundTripID), outcomeMsgID(e.RoundTripID), e)
}

// Close flushes pending publishes and closes the connection.
func (p *Publisher) Close() { _ = p.conn.Drain() }

// RawConn dials NATS with unlimited reconnects. Used directly by the
// websocket relay, the progress follower and the CLI watch command.
func RawConn(url string) (*nats.Conn, error) {
	return nats.Connect(url,
		nats.Name("ridekit"),
		nats.RetryOnFailedConnect(true),
		nats.MaxReconnects(-1),
		nats.ReconnectWait(2*time.Second),
	)
}
