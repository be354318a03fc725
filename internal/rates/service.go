package rates

import (
	"context"
	"time"

	"github.com/okapi-vault/okapi_vault/internal/events"
	"github.com/okapi-vault/okapi_vault/internal/ledger"
)

// Service wraps rate control over the ledger. The ledger itself enforces that
// the rate never increases; the service adds event emission.
type Service struct {
	ledger   ledger.Ledger
	notifier events.Notifier
}

// NewService constructs a rate control service.
func NewService(ledgerBackend ledger.Ledger, notifier events.Notifier) *Service {
	return &Service{ledger: ledgerBackend, notifier: notifier}
}

// Current returns the global rate applied to new rate locks.
func (s *Service) Current(ctx context.Context) (uint64, error) {
	return s.ledger.CurrentRate(ctx)
}

// Set lowers (or keeps) the global rate and emits a rate-changed event on
// success. Existing accounts keep their locked rates.
func (s *Service) Set(ctx context.Context, newRate uint64) error {
	if err := s.ledger.SetRate(ctx, newRate); err != nil {
		return err
	}
	if s.notifier != nil {
		_ = s.notifier.Send(ctx, events.Event{
			Kind: events.KindRateChanged,
			Rate: newRate,
			At:   time.Now().UTC(),
		})
	}
	return nil
}
