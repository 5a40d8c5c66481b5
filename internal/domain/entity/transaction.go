package entity

import (
	"time"
)

// Transaction represents a single fund transfer between two accounts
type Transaction struct {
	ID         string    `json:"transaction_id" validate:"required"`
	SenderID   string    `json:"sender_id" validate:"required"`
	ReceiverID string    `json:"receiver_id" validate:"required"`
	Amount     float64   `json:"amount" validate:"gt=0"`
	Timestamp  time.Time `json:"timestamp" validate:"required"`
}

// IsSelfTransfer reports whether sender and receiver are the same account
func (t Transaction) IsSelfTransfer() bool {
	return t.SenderID == t.ReceiverID
}

// TimeRange is a half-open [From, To) interval used to select transactions
type TimeRange struct {
	From time.Time `json:"from"`
	To   time.Time `json:"to"`
}

// Contains reports whether ts falls inside the range
func (r TimeRange) Contains(ts time.Time) bool {
	return !ts.Before(r.From) && ts.Before(r.To)
}
