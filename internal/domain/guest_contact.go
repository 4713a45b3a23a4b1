package domain

import (
	"strings"
	"time"
)

// GuestContact is the identity proxy for unauthenticated submitters, keyed by
// normalized email. Created lazily on the first guest ticket for that email
// and reused afterwards.
type GuestContact struct {
	ID        string
	Email     string
	Name      *string
	CreatedAt time.Time
}

// NormalizeEmail applies the canonical form used for guest deduplication.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
