// Package notification delivers side effects that follow a committed ledger
// operation. Delivery is best-effort: a failed notification never undoes the
// balance change that triggered it.
package notification

import (
	"context"
	"time"

	"orusbank/internal/money"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// TopUpEvent describes a committed airtime top-up.
type TopUpEvent struct {
	ID            uuid.UUID    `json:"id"`
	AccountNumber string       `json:"accountNumber"`
	Phone         string       `json:"phone"`
	Amount        money.Amount `json:"amount"`
	Balance       money.Amount `json:"balance"`
	Timestamp     time.Time    `json:"timestamp"`
}

// NewTopUpEvent stamps an event with a fresh id and the current time.
func NewTopUpEvent(accountNumber, phone string, amount, balance money.Amount) TopUpEvent {
	return TopUpEvent{
		ID:            uuid.New(),
		AccountNumber: accountNumber,
		Phone:         phone,
		Amount:        amount,
		Balance:       balance,
		Timestamp:     time.Now().UTC(),
	}
}

// TopUpNotifier is told about every successful top-up.
type TopUpNotifier interface {
	NotifyTopUp(ctx context.Context, event TopUpEvent) error
}

// LogNotifier simulates the airtime provider by logging the event.
type LogNotifier struct {
	log logrus.FieldLogger
}

func NewLogNotifier(log logrus.FieldLogger) *LogNotifier {
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &LogNotifier{log: log}
}

func (n *LogNotifier) NotifyTopUp(_ context.Context, event TopUpEvent) error {
	n.log.WithFields(logrus.Fields{
		"event_id":       event.ID,
		"account_number": event.AccountNumber,
		"phone":          event.Phone,
		"amount":         event.Amount.String(),
	}).Info("airtime top-up sent")
	return nil
}
