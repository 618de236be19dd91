package views

import (
	"context"

	"github.com/caffeinepub/ace8win-3/internal/identity"
	"github.com/caffeinepub/ace8win-3/internal/services"
)

// Transactions is the payment history screen.
type Transactions struct {
	queries *services.Queries
}

func NewTransactions(queries *services.Queries) *Transactions {
	return &Transactions{queries: queries}
}

func (t *Transactions) Render(ctx context.Context) Outcome {
	p := identity.PrincipalFrom(ctx)
	if p.IsAnonymous() {
		return Empty()
	}
	txs, err := t.queries.Transactions(ctx, p)
	if err != nil {
		return Failed(err)
	}
	if len(txs) == 0 {
		return Empty()
	}
	return Content(txs)
}
