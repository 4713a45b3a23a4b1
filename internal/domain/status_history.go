package domain

import "time"

// TicketStatusEntry is an append-only audit record for a committed status
// transition. Exactly one entry exists per accepted transition; no-op
// transitions write nothing.
type TicketStatusEntry struct {
	ID               string
	TicketID         string
	OldStatus        TicketStatus
	NewStatus        TicketStatus
	ChangedByStaffID string
	Remarks          *string
	CreatedAt        time.Time
}
