// Package identity carries the caller's verified principal through the
// request context. Authority calls are implicitly scoped to this principal;
// the core never passes the caller credential as an explicit argument.
package identity

import (
	"context"

	"github.com/caffeinepub/ace8win-3/internal/models"
)

type contextKey struct{}

func WithPrincipal(ctx context.Context, p models.Principal) context.Context {
	return context.WithValue(ctx, contextKey{}, p)
}

// PrincipalFrom returns the caller principal, or the anonymous principal if
// the context carries none.
func PrincipalFrom(ctx context.Context) models.Principal {
	if p, ok := ctx.Value(contextKey{}).(models.Principal); ok {
		return p
	}
	return ""
}
