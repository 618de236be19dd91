package models

// UserProfile is the registration record held by the authority. RefundQr is
// the raw bytes of the user's refund QR image.
type UserProfile struct {
	GameUID     string `json:"game_uid"`
	GameName    string `json:"game_name"`
	PhoneNumber string `json:"phone_number"`
	RefundQr    []byte `json:"refund_qr,omitempty"`
}

// ProfileRecord joins a profile to its owning principal so admin flows
// (update, delete, promote) can target the real account rather than a
// display-only row.
type ProfileRecord struct {
	User    Principal   `json:"user"`
	Profile UserProfile `json:"profile"`
}

// PlayerInfo is a participant entry of a match as the authority reports it.
type PlayerInfo struct {
	PlayerID            string      `json:"player_id"`
	RegistrationDetails UserProfile `json:"registration_details"`
}
