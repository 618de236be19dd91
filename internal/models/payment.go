package models

import "time"

type PaymentStatus string

const (
	PaymentPending  PaymentStatus = "pending"
	PaymentApproved PaymentStatus = "approved"
	PaymentRejected PaymentStatus = "rejected"
)

// Payment is the active payment record for a (user, match) pair. The
// authority holds at most one non-terminal payment per pair; the client's
// duplicate-join check is advisory only.
type Payment struct {
	Status         PaymentStatus `json:"status"`
	SubmissionTime time.Time     `json:"submission_time"`
	ProofURL       string        `json:"proof_url,omitempty"`
	Amount         int64         `json:"amount"`
}
