package domain

import "time"

// SessionToken describes an issued access token handed back on sign-in.
type SessionToken struct {
	Token     string
	ExpiresAt time.Time
}
