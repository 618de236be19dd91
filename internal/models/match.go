package models

import "time"

type MatchStatus string

const (
	MatchUpcoming MatchStatus = "upcoming"
	MatchLive     MatchStatus = "live"
	MatchFinished MatchStatus = "finished"
)

// Match is owned by the authority. Status transitions are authority-driven;
// the client only observes them. Participants is monotonically non-decreasing
// between syncs from the client's point of view.
type Match struct {
	ID            string        `json:"id"`
	Name          string        `json:"name"`
	StartTime     time.Time     `json:"start_time"`
	Duration      time.Duration `json:"duration"`
	PaymentAmount int64         `json:"payment_amount"`
	Status        MatchStatus   `json:"status"`
	Participants  []Principal   `json:"participants"`
	JoinedPlayers []PlayerInfo  `json:"joined_players"`
}

// HasParticipant reports whether p already appears in the match's participant
// set. Used by the duplicate-join pre-flight check.
func (m *Match) HasParticipant(p Principal) bool {
	for _, existing := range m.Participants {
		if existing == p {
			return true
		}
	}
	return false
}
