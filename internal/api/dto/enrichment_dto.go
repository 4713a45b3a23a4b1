package dto

// ReprocessRequest bounds an administrative enrichment batch.
type ReprocessRequest struct {
	TicketIDs []string `json:"ticket_ids"`
	Limit     int      `json:"limit"`
}
