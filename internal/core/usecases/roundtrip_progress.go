package usecases

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"

	"github.com/samirrijal/ridekit/internal/core/domain"
	"github.com/samirrijal/ridekit/internal/core/ports"
)

// RoundTripProgress remembers the latest synthesis attempt of each running
// asynchronous round trip, as reported on the event stream. Entries are
// dropped when the outcome arrives or the TTL passes. Finished ids are
// remembered for the same TTL so late redeliveries do not revive them.
type RoundTripProgress struct {
	mu       sync.Mutex
	latest   *expirable.LRU[string, domain.RoundTripAttemptEvent]
	finished *expirable.LRU[string, struct{}]
}

func NewRoundTripProgress(size int, ttl time.Duration) *RoundTripProgress {
	if ttl <= 0 {
		ttl = time.Hour
	}
	return &RoundTripProgress{
		latest:   newLRU[domain.RoundTripAttemptEvent](size, ttl),
		finished: newLRU[struct{}](size, ttl),
	}
}

// Follow subscribes to attempt and outcome events.
func (p *RoundTripProgress) Follow(ctx context.Context, sub ports.EventSubscriber) error {
	if err := sub.SubscribeRoundTripAttempts(ctx, p.recordAttempt); err != nil {
		return fmt.Errorf("follow attempts: %w", err)
	}
	if err := sub.SubscribeRoundTripOutcomes(ctx, p.recordOutcome); err != nil {
		return fmt.Errorf("follow outcomes: %w", err)
	}
	return nil
}

func (p *RoundTripProgress) recordAttempt(_ context.Context, e *domain.RoundTripAttemptEvent) error {
	if e.RoundTripID == "" {
		return nil
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.finished.Contains(e.RoundTripID) {
		return nil
	}
	// Redeliveries can arrive out of order.
	if prev, ok := p.latest.Get(e.RoundTripID); ok && prev.Attempt >= e.Attempt {
		return nil
	}
	p.latest.Add(e.RoundTripID, *e)
	return nil
}

func (p *RoundTripProgress) recordOutcome(_ context.Context, e *domain.RoundTripOutcomeEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.finished.Add(e.RoundTripID, struct{}{})
	p.latest.Remove(e.RoundTripID)
	return nil
}

// Latest returns the most recent attempt seen for id.
func (p *RoundTripProgress) Latest(id string) (domain.RoundTripAttemptEvent, bool) {
	return p.latest.Get(id)
}
