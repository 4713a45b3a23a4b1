package domain

import "time"

// TicketType distinguishes complaints from general feedback.
type TicketType string

const (
	TicketTypeComplaint TicketType = "COMPLAINT"
	TicketTypeFeedback  TicketType = "FEEDBACK"
)

// TicketStatus enumerates lifecycle states for tickets.
type TicketStatus string

const (
	TicketStatusUnderReview     TicketStatus = "UNDER_REVIEW"
	TicketStatusInProgress      TicketStatus = "IN_PROGRESS"
	TicketStatusPendingCustomer TicketStatus = "PENDING_CUSTOMER"
	TicketStatusResolved        TicketStatus = "RESOLVED"
	TicketStatusClosed          TicketStatus = "CLOSED"
)

// TicketPriority enumerates urgency levels.
type TicketPriority string

const (
	TicketPriorityLow    TicketPriority = "LOW"
	TicketPriorityMedium TicketPriority = "MEDIUM"
	TicketPriorityHigh   TicketPriority = "HIGH"
)

// Ticket is the aggregate for submitted complaints and feedback.
// Exactly one of CustomerID and GuestContactID is set. Sentiment, Intent and
// IssueType are written only by the enrichment pipeline.
type Ticket struct {
	ID              string
	TicketNumber    string
	Type            TicketType
	Status          TicketStatus
	Priority        *TicketPriority
	Title           string
	Description     string
	CategoryID      string
	CustomerID      *string
	GuestContactID  *string
	AssignedStaffID *string
	Sentiment       *string
	Intent          *string
	IssueType       *string
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// ValidStatus reports whether s is one of the five lifecycle states.
func ValidStatus(s TicketStatus) bool {
	switch s {
	case TicketStatusUnderReview, TicketStatusInProgress, TicketStatusPendingCustomer,
		TicketStatusResolved, TicketStatusClosed:
		return true
	}
	return false
}

// ValidType reports whether t is a known ticket type.
func ValidType(t TicketType) bool {
	return t == TicketTypeComplaint || t == TicketTypeFeedback
}

// ParsePriority normalizes free-form priority text into the enum.
func ParsePriority(raw string) (TicketPriority, bool) {
	switch TicketPriority(normalizeEnum(raw)) {
	case TicketPriorityLow:
		return TicketPriorityLow, true
	case TicketPriorityMedium:
		return TicketPriorityMedium, true
	case TicketPriorityHigh:
		return TicketPriorityHigh, true
	}
	return "", false
}
