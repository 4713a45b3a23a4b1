package dto

import (
	"time"

	"github.com/insighta/complaints-service/internal/domain"
)

// CreateTicketRequest payload. CustomerID is present only to reject it:
// authenticated identity comes from the session, never the body.
type CreateTicketRequest struct {
	Title        string  `json:"title"`
	Description  string  `json:"description"`
	Type         *string `json:"type"`
	CategoryID   *string `json:"category_id"`
	CategoryName *string `json:"category_name"`
	GuestEmail   *string `json:"guest_email"`
	CustomerID   *string `json:"customer_id"`
}

// CreateTicketResponse returns the creation result. AccessToken is present
// only for guest submissions and is the single disclosure of the raw token.
type CreateTicketResponse struct {
	ID           string                 `json:"id"`
	TicketNumber string                 `json:"ticket_number"`
	Status       domain.TicketStatus    `json:"status"`
	Priority     *domain.TicketPriority `json:"priority"`
	CreatedAt    time.Time              `json:"created_at"`
	AccessToken  string                 `json:"access_token,omitempty"`
}

// TicketSummary response.
type TicketSummary struct {
	ID              string                 `json:"id"`
	TicketNumber    string                 `json:"ticket_number"`
	Type            domain.TicketType      `json:"type"`
	Status          domain.TicketStatus    `json:"status"`
	Priority        *domain.TicketPriority `json:"priority"`
	Title           string                 `json:"title"`
	CategoryID      string                 `json:"category_id"`
	AssignedStaffID *string                `json:"assigned_staff_id"`
	CreatedAt       time.Time              `json:"created_at"`
	UpdatedAt       time.Time              `json:"updated_at"`
}

// TicketDetailResponse provides full ticket info for staff and submitters.
type TicketDetailResponse struct {
	TicketSummary
	Description string               `json:"description"`
	Sentiment   *string              `json:"sentiment,omitempty"`
	Intent      *string              `json:"intent,omitempty"`
	IssueType   *string              `json:"issue_type,omitempty"`
	History     []StatusHistoryEntry `json:"history,omitempty"`
}

// StatusHistoryEntry is one audit record.
type StatusHistoryEntry struct {
	ID               string              `json:"id"`
	OldStatus        domain.TicketStatus `json:"old_status"`
	NewStatus        domain.TicketStatus `json:"new_status"`
	ChangedByStaffID string              `json:"changed_by_staff_id"`
	Remarks          *string             `json:"remarks,omitempty"`
	CreatedAt        time.Time           `json:"created_at"`
}

// UpdateStatusRequest payload.
type UpdateStatusRequest struct {
	Status  string  `json:"status"`
	Remarks *string `json:"remarks"`
}
