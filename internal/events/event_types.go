package events

import (
	"time"

	"github.com/insighta/complaints-service/internal/domain"
)

// EventType enumerates supported event identifiers.
type EventType string

const (
	EventTicketCreated       EventType = "ticket_created"
	EventTicketStatusChanged EventType = "ticket_status_changed"
	EventTicketAssigned      EventType = "ticket_assigned"
	EventTicketEnriched      EventType = "ticket_enriched"
)

// Actor encapsulates actor metadata for an event.
type Actor struct {
	Type       domain.SubjectType `json:"type"`
	CustomerID *string            `json:"customer_id,omitempty"`
	StaffID    *string            `json:"staff_id,omitempty"`
}

// Event represents a domain event emitted by services.
type Event struct {
	ID        string      `json:"id"`
	Type      EventType   `json:"type"`
	TicketID  string      `json:"ticket_id"`
	Actor     Actor       `json:"actor"`
	Timestamp time.Time   `json:"timestamp"`
	Payload   interface{} `json:"payload"`
}

// TicketCreatedPayload carries what the enrichment trigger needs.
type TicketCreatedPayload struct {
	TicketNumber          string            `json:"ticket_number"`
	Type                  domain.TicketType `json:"ticket_type"`
	Text                  string            `json:"text"`
	AllowCategoryOverride bool              `json:"allow_category_override"`
	FallbackCategoryID    string            `json:"fallback_category_id"`
}

// TicketStatusChangedPayload payload.
type TicketStatusChangedPayload struct {
	TicketNumber string              `json:"ticket_number"`
	OldStatus    domain.TicketStatus `json:"old_status"`
	NewStatus    domain.TicketStatus `json:"new_status"`
	Remarks      string              `json:"remarks,omitempty"`
}

// TicketAssignedPayload payload.
type TicketAssignedPayload struct {
	AssignedStaffID string `json:"assigned_staff_id"`
}

// TicketEnrichedPayload payload.
type TicketEnrichedPayload struct {
	FieldsUpdated   bool `json:"fields_updated"`
	CategoryUpdated bool `json:"category_updated"`
}
