package models

import "time"

// UserSession is the ephemeral login record kept in redis. Durable platform
// state lives only in the remote authority.
type UserSession struct {
	Principal    Principal `json:"principal"`
	SessionID    string    `json:"session_id"`
	CreatedAt    time.Time `json:"created_at"`
	LastAccessed time.Time `json:"last_accessed"`
}
