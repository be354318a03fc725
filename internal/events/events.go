package events

import (
	"context"
	"log/slog"
	"time"
)

const (
	// KindRateChanged signals a successful global rate change.
	KindRateChanged = "rate_changed"
	// KindDeposit signals a vault deposit minted into the ledger.
	KindDeposit = "deposit"
	// KindWithdrawal signals a vault withdrawal burned from the ledger.
	KindWithdrawal = "withdrawal"
	// KindTransfer signals a balance move between two accounts.
	KindTransfer = "transfer"
)

// Event describes a ledger-level occurrence published to downstream systems.
type Event struct {
	Kind         string    `json:"kind"`
	Account      string    `json:"account,omitempty"`
	Counterparty string    `json:"counterparty,omitempty"`
	Amount       uint64    `json:"amount,omitempty"`
	Rate         uint64    `json:"rate,omitempty"`
	At           time.Time `json:"at"`
}

// Notifier delivers events to downstream systems.
type Notifier interface {
	Send(ctx context.Context, event Event) error
}

// LoggerNotifier writes events to the structured logger. It is the fallback
// when no message broker is configured.
type LoggerNotifier struct {
	logger *slog.Logger
}

// NewLoggerNotifier constructs a logging notifier.
func NewLoggerNotifier(logger *slog.Logger) *LoggerNotifier {
	return &LoggerNotifier{logger: logger}
}

// Send writes the event to the structured logger.
func (n *LoggerNotifier) Send(_ context.Context, event Event) error {
	if n == nil || n.logger == nil {
		return nil
	}
	n.logger.Info("ledger event",
		"kind", event.Kind,
		"account", event.Account,
		"counterparty", event.Counterparty,
		"amount", event.Amount,
		"rate", event.Rate,
	)
	return nil
}
