package models

import "time"

// Transaction is an immutable historical record, append-only from the
// client's perspective.
type Transaction struct {
	ID            string        `json:"id"`
	Time          time.Time     `json:"time"`
	User          Principal     `json:"user"`
	MatchID       string        `json:"match_id"`
	Amount        int64         `json:"amount"`
	PaymentStatus PaymentStatus `json:"payment_status"`
	RefundStatus  string        `json:"refund_status,omitempty"`
}
