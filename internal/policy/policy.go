// Package policy holds the pure workflow decisions of the client: given a
// cached snapshot and an intended action, can it proceed and does it need
// confirmation. Nothing in this package performs I/O or mutates state.
package policy

import (
	"fmt"

	"github.com/caffeinepub/ace8win-3/internal/models"
)

// ValidationError is a local pre-flight failure. It blocks submission before
// any remote call is made and never reaches the authority.
type ValidationError struct {
	Field string
	Msg   string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Msg)
}

// NeedsJoinConfirmation reports whether joining match m would be a repeat
// join for p. Advisory only: a repeat payment is allowed, the caller just
// has to confirm it explicitly first. Independent of match status.
func NeedsJoinConfirmation(m *models.Match, p models.Principal) bool {
	if m == nil || p.IsAnonymous() {
		return false
	}
	return m.HasParticipant(p)
}

// RoleDecision is the outcome of the admin role gate.
type RoleDecision int

const (
	// RolePending means the role query has not resolved; the view shows a
	// neutral loading state, never the admin content and never a denial.
	RolePending RoleDecision = iota
	RoleGrant
	RoleDeny
)

func (d RoleDecision) String() string {
	switch d {
	case RoleGrant:
		return "grant"
	case RoleDeny:
		return "deny"
	default:
		return "pending"
	}
}

// GateAdmin decides access to admin-only views. resolved is whether the
// is-admin query has actually completed; an unresolved query always yields
// RolePending regardless of any previously cached value.
func GateAdmin(resolved, isAdmin bool) RoleDecision {
	if !resolved {
		return RolePending
	}
	if isAdmin {
		return RoleGrant
	}
	return RoleDeny
}

// ShowRegistrationPrompt is true iff the caller is authenticated, the
// profile query has confirmed its answer, and that answer is "no profile".
// A profile that is merely absent because the fetch hasn't completed must
// not trigger the prompt.
func ShowRegistrationPrompt(identityPresent, profileFetched bool, profile *models.UserProfile) bool {
	return identityPresent && profileFetched && profile == nil
}

// ValidatePhoneNumber mirrors the authority's rule: exactly 10 digits with a
// leading 7, 8 or 9. A mirror, not a substitute, for server validation.
func ValidatePhoneNumber(phoneNumber string) error {
	if len(phoneNumber) != 10 {
		return &ValidationError{Field: "phone_number", Msg: "must be exactly 10 digits"}
	}
	for _, c := range phoneNumber {
		if c < '0' || c > '9' {
			return &ValidationError{Field: "phone_number", Msg: "must contain only digits"}
		}
	}
	switch phoneNumber[0] {
	case '7', '8', '9':
		return nil
	}
	return &ValidationError{Field: "phone_number", Msg: "must start with 7, 8 or 9"}
}

// ValidateRegistration is the full registration-form pre-flight.
func ValidateRegistration(gameUID, gameName, phoneNumber string, refundQr []byte) error {
	if gameUID == "" {
		return &ValidationError{Field: "game_uid", Msg: "is required"}
	}
	if gameName == "" {
		return &ValidationError{Field: "game_name", Msg: "is required"}
	}
	if len(refundQr) == 0 {
		return &ValidationError{Field: "refund_qr", Msg: "upload is required"}
	}
	return ValidatePhoneNumber(phoneNumber)
}
