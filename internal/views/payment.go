package views

import (
	"context"
	"fmt"

	"github.com/caffeinepub/ace8win-3/internal/authority"
	"github.com/caffeinepub/ace8win-3/internal/blob"
	"github.com/caffeinepub/ace8win-3/internal/identity"
	"github.com/caffeinepub/ace8win-3/internal/models"
	"github.com/caffeinepub/ace8win-3/internal/policy"
	"github.com/caffeinepub/ace8win-3/internal/services"
)

// PaymentFlow is the entry-fee screen: UPI instructions, the duplicate-join
// confirmation step, and proof submission.
type PaymentFlow struct {
	queries   *services.Queries
	mutations *services.Mutations
	upiID     string
}

func NewPaymentFlow(queries *services.Queries, mutations *services.Mutations, upiID string) *PaymentFlow {
	return &PaymentFlow{queries: queries, mutations: mutations, upiID: upiID}
}

type PaymentDetails struct {
	Match  models.Match `json:"match"`
	UpiID  string       `json:"upi_id"`
	Amount int64        `json:"amount"`
}

// Render shows the payment instructions for a match.
func (f *PaymentFlow) Render(ctx context.Context, matchID string) Outcome {
	p := identity.PrincipalFrom(ctx)
	if p.IsAnonymous() {
		return Empty()
	}
	match, err := f.queries.MatchByID(ctx, matchID)
	if err != nil {
		return Failed(err)
	}
	if match == nil {
		return Failed(fmt.Errorf("match %s: %w", matchID, authority.ErrNotFound))
	}
	return Content(PaymentDetails{
		Match:  *match,
		UpiID:  f.upiID,
		Amount: match.PaymentAmount,
	})
}

// Join runs the duplicate-join check and, when clear (or explicitly
// confirmed), records the join. The check is advisory: confirmed repeat
// joins proceed to another payment.
func (f *PaymentFlow) Join(ctx context.Context, matchID string, confirmed bool) (needsConfirmation bool, err error) {
	match, err := f.queries.MatchByID(ctx, matchID)
	if err != nil {
		return false, err
	}
	if match == nil {
		return false, fmt.Errorf("match %s: %w", matchID, authority.ErrNotFound)
	}
	if policy.NeedsJoinConfirmation(match, identity.PrincipalFrom(ctx)) && !confirmed {
		return true, nil
	}
	return false, f.mutations.JoinMatch(ctx, matchID)
}

// SubmitProof uploads the payment proof. The amount is taken from the match,
// not the client, and the submission fails locally before any remote call if
// the proof is missing.
func (f *PaymentFlow) SubmitProof(ctx context.Context, matchID string, proof *blob.Blob) error {
	match, err := f.queries.MatchByID(ctx, matchID)
	if err != nil {
		return err
	}
	if match == nil {
		return fmt.Errorf("match %s: %w", matchID, authority.ErrNotFound)
	}
	return f.mutations.SubmitPayment(ctx, matchID, match.PaymentAmount, proof)
}
