package services

type Broadcaster interface {
	BroadcastMatchesChanged()
	BroadcastParticipantsChanged(matchID string)
}
