package service

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/insighta/complaints-service/internal/domain"
	"github.com/insighta/complaints-service/internal/events"
	"github.com/insighta/complaints-service/internal/repository"
	apperrors "github.com/insighta/complaints-service/pkg/util"
)

// AssignmentService governs who may claim a ticket.
type AssignmentService struct {
	tickets    repository.TicketRepository
	dispatcher events.Dispatcher
	logger     *zap.Logger
}

// NewAssignmentService creates the service.
func NewAssignmentService(tickets repository.TicketRepository, dispatcher events.Dispatcher, logger *zap.Logger) *AssignmentService {
	return &AssignmentService{tickets: tickets, dispatcher: dispatcher, logger: logger}
}

// AssignResult reports a self-assignment. AlreadyYours is true when the
// ticket was assigned to the same staff member before this call.
type AssignResult struct {
	Ticket       *domain.Ticket
	AlreadyYours bool
}

// SelfAssign claims an unassigned ticket for the staff member. The claim is a
// single conditional update on "no assignee at write time", so two staff
// members can never both believe they own the same ticket. When the predicate
// misses, a re-read disambiguates: the same staff member gets idempotent
// success, anyone else gets a conflict they must not blindly retry.
func (s *AssignmentService) SelfAssign(ctx context.Context, staff *domain.StaffMember, ticketID string) (*AssignResult, error) {
	if staff == nil {
		return nil, apperrors.NewUnauthorized("staff required")
	}

	matched, err := s.tickets.AssignIfUnassigned(ctx, ticketID, staff.ID)
	if err != nil {
		return nil, apperrors.MapError(err)
	}

	ticket, err := s.tickets.GetByID(ctx, ticketID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperrors.NewNotFound("ticket", map[string]any{"ticket_id": ticketID})
		}
		return nil, apperrors.MapError(err)
	}

	if matched {
		s.publishAssigned(ctx, staff.ID, ticket.ID)
		return &AssignResult{Ticket: ticket}, nil
	}

	if ticket.AssignedStaffID != nil && *ticket.AssignedStaffID == staff.ID {
		return &AssignResult{Ticket: ticket, AlreadyYours: true}, nil
	}
	return nil, apperrors.NewConflict("ticket already assigned", map[string]any{
		"ticket_id": ticketID,
	})
}

func (s *AssignmentService) publishAssigned(ctx context.Context, staffID, ticketID string) {
	if s.dispatcher == nil {
		return
	}
	event := events.Event{
		ID:        uuid.NewString(),
		Type:      events.EventTicketAssigned,
		TicketID:  ticketID,
		Actor:     staffActor(staffID),
		Timestamp: time.Now(),
		Payload: events.TicketAssignedPayload{
			AssignedStaffID: staffID,
		},
	}
	_ = s.dispatcher.Publish(ctx, event)
}
