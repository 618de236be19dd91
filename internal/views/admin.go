package views

import (
	"context"
	"strings"

	"github.com/caffeinepub/ace8win-3/internal/models"
	"github.com/caffeinepub/ace8win-3/internal/policy"
	"github.com/caffeinepub/ace8win-3/internal/services"
)

// Admin composes the role-gated back-office screens. Every screen resolves
// the role gate before touching any data: an unresolved role query renders
// loading, never the admin content and never a premature denial.
type Admin struct {
	queries *services.Queries
}

func NewAdmin(queries *services.Queries) *Admin {
	return &Admin{queries: queries}
}

// Authorize resolves the role gate. ok is true only on an explicit grant;
// otherwise the returned outcome is the screen to render instead.
func (a *Admin) Authorize(ctx context.Context) (Outcome, bool) {
	isAdmin, resolved, err := a.queries.IsAdmin(ctx)
	if err != nil {
		return Failed(err), false
	}
	switch policy.GateAdmin(resolved, isAdmin) {
	case policy.RoleGrant:
		return Outcome{}, true
	case policy.RoleDeny:
		return AccessDenied(), false
	default:
		return Loading(), false
	}
}

// MatchOverview is one row of the payment management screen.
type MatchOverview struct {
	Match            models.Match `json:"match"`
	ParticipantCount int          `json:"participant_count"`
}

func (a *Admin) PaymentsOverview(ctx context.Context) Outcome {
	if outcome, ok := a.Authorize(ctx); !ok {
		return outcome
	}
	matches, err := a.queries.Matches(ctx)
	if err != nil {
		return Failed(err)
	}
	if len(matches) == 0 {
		return Empty()
	}
	rows := make([]MatchOverview, 0, len(matches))
	for _, m := range matches {
		rows = append(rows, MatchOverview{Match: m, ParticipantCount: len(m.Participants)})
	}
	return Content(rows)
}

// ParticipantRow joins a player to the payment standing an admin reviews.
type ParticipantRow struct {
	Player        models.PlayerInfo    `json:"player"`
	PaymentStatus models.PaymentStatus `json:"payment_status,omitempty"`
	ContactURL    string               `json:"contact_url"`
}

func (a *Admin) Participants(ctx context.Context, matchID string) Outcome {
	if outcome, ok := a.Authorize(ctx); !ok {
		return outcome
	}
	players, err := a.queries.Participants(ctx, matchID)
	if err != nil {
		return Failed(err)
	}
	if len(players) == 0 {
		return Empty()
	}
	rows := make([]ParticipantRow, 0, len(players))
	for _, player := range players {
		row := ParticipantRow{
			Player:     player,
			ContactURL: models.WhatsAppURL(player.RegistrationDetails.PhoneNumber),
		}
		if status, err := a.queries.PaymentStatus(ctx, models.Principal(player.PlayerID)); err == nil {
			row.PaymentStatus = status
		}
		rows = append(rows, row)
	}
	return Content(rows)
}

// UserRow is one entry of the user management table. The owning principal is
// carried alongside the profile so update and delete target a real account.
type UserRow struct {
	User       models.Principal   `json:"user"`
	Profile    models.UserProfile `json:"profile"`
	ContactURL string             `json:"contact_url"`
}

// Users lists registered profiles, optionally filtered by name, game UID or
// phone number.
func (a *Admin) Users(ctx context.Context, search string) Outcome {
	if outcome, ok := a.Authorize(ctx); !ok {
		return outcome
	}
	records, err := a.queries.AllProfiles(ctx)
	if err != nil {
		return Failed(err)
	}
	search = strings.ToLower(search)
	rows := make([]UserRow, 0, len(records))
	for _, record := range records {
		if search != "" && !matchesSearch(record.Profile, search) {
			continue
		}
		rows = append(rows, UserRow{
			User:       record.User,
			Profile:    record.Profile,
			ContactURL: models.WhatsAppURL(record.Profile.PhoneNumber),
		})
	}
	if len(rows) == 0 {
		return Empty()
	}
	return Content(rows)
}

func matchesSearch(profile models.UserProfile, search string) bool {
	return strings.Contains(strings.ToLower(profile.GameName), search) ||
		strings.Contains(strings.ToLower(profile.GameUID), search) ||
		strings.Contains(profile.PhoneNumber, search)
}
