package domain

import "time"

// TicketAccessToken is a bearer credential granting a guest access to exactly
// one ticket. Only the hash of the raw token is ever persisted; the raw value
// is disclosed once, at creation.
type TicketAccessToken struct {
	ID        string
	TicketID  string
	TokenHash string
	ExpiresAt time.Time
	CreatedAt time.Time
}

// Expired reports whether the token is past its expiry at the given instant.
func (t *TicketAccessToken) Expired(now time.Time) bool {
	return !now.Before(t.ExpiresAt)
}
