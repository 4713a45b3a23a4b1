package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/insighta/complaints-service/internal/domain"
	"github.com/insighta/complaints-service/internal/enrichment"
	"github.com/insighta/complaints-service/internal/events"
	"github.com/insighta/complaints-service/internal/repository"
	"github.com/insighta/complaints-service/internal/sequence"
	apperrors "github.com/insighta/complaints-service/pkg/util"
)

// TicketService coordinates ticket creation and the status state machine.
type TicketService struct {
	tickets    repository.TicketRepository
	history    repository.StatusHistoryRepository
	allocator  *sequence.Allocator
	categories *CategoryResolver
	submitters *SubmitterService
	dispatcher events.Dispatcher
	logger     *zap.Logger
}

// TicketDependencies bundles collaborators for the ticket service.
type TicketDependencies struct {
	TicketRepo  repository.TicketRepository
	HistoryRepo repository.StatusHistoryRepository
	Allocator   *sequence.Allocator
	Categories  *CategoryResolver
	Submitters  *SubmitterService
	Dispatcher  events.Dispatcher
	Logger      *zap.Logger
}

// TicketCreateInput describes a ticket creation payload. CustomerID is the
// verified session identity; GuestEmail is the anonymous alternative.
type TicketCreateInput struct {
	Title        string
	Description  string
	Type         domain.TicketType
	CategoryID   *string
	CategoryName *string
	CustomerID   *string
	GuestEmail   *string
}

// CreatedTicket is the creation result. AccessToken is set only for guest
// submissions and carries the raw token exactly once.
type CreatedTicket struct {
	Ticket      *domain.Ticket
	AccessToken string
}

// StatusUpdateResult reports a status transition. Changed is false for the
// idempotent same-status no-op, which writes no history row.
type StatusUpdateResult struct {
	Ticket  *domain.Ticket
	Changed bool
}

// NewTicketService constructs the service.
func NewTicketService(deps TicketDependencies) *TicketService {
	return &TicketService{
		tickets:    deps.TicketRepo,
		history:    deps.HistoryRepo,
		allocator:  deps.Allocator,
		categories: deps.Categories,
		submitters: deps.Submitters,
		dispatcher: deps.Dispatcher,
		logger:     deps.Logger,
	}
}

// CreateTicket resolves submitter and category, allocates a ticket number
// under contention and inserts the row. The number allocation does not trust
// its own read: a competing writer surfaces as a duplicate on insert, which
// re-reads and retries up to sequence.MaxAttempts before giving up with a
// conflict. No partial ticket state survives a failed creation.
func (s *TicketService) CreateTicket(ctx context.Context, input TicketCreateInput) (*CreatedTicket, error) {
	description := strings.TrimSpace(input.Description)
	if description == "" {
		return nil, apperrors.NewValidationError("description required", nil)
	}
	ticketType := input.Type
	if ticketType == "" {
		ticketType = domain.TicketTypeComplaint
	}
	if !domain.ValidType(ticketType) {
		return nil, apperrors.NewValidationError("unknown ticket type", map[string]any{"type": ticketType})
	}

	category, fellBack, err := s.categories.Resolve(ctx, input.CategoryID, input.CategoryName)
	if err != nil {
		return nil, err
	}

	submitter, err := s.submitters.Resolve(ctx, input.CustomerID, input.GuestEmail)
	if err != nil {
		return nil, err
	}

	ticket := &domain.Ticket{
		Type:           ticketType,
		Status:         domain.TicketStatusUnderReview,
		Title:          strings.TrimSpace(input.Title),
		Description:    description,
		CategoryID:     category.ID,
		CustomerID:     submitter.CustomerID,
		GuestContactID: submitter.GuestContactID,
	}

	if err := s.insertWithNumber(ctx, ticket); err != nil {
		return nil, err
	}

	result := &CreatedTicket{Ticket: ticket}
	if submitter.GuestContactID != nil {
		raw, err := s.submitters.IssueAccessToken(ctx, ticket.ID)
		if err != nil {
			// Creation already succeeded; access degrades to "no token
			// issued" and recovery happens out of band.
			s.logger.Error("guest access token issuance failed",
				zap.String("ticket_id", ticket.ID),
				zap.Error(err))
		} else {
			result.AccessToken = raw
		}
	}

	s.publishEvent(ctx, events.Event{
		Type:     events.EventTicketCreated,
		TicketID: ticket.ID,
		Actor:    creationActor(submitter),
		Payload: events.TicketCreatedPayload{
			TicketNumber:          ticket.TicketNumber,
			Type:                  ticket.Type,
			Text:                  enrichment.CombineText(ticket.Title, ticket.Description),
			AllowCategoryOverride: fellBack,
			FallbackCategoryID:    category.ID,
		},
	})
	return result, nil
}

func (s *TicketService) insertWithNumber(ctx context.Context, ticket *domain.Ticket) error {
	for attempt := 1; attempt <= sequence.MaxAttempts; attempt++ {
		number, err := s.allocator.Next(ctx)
		if err != nil {
			return apperrors.MapError(err)
		}
		ticket.TicketNumber = number

		err = s.tickets.Create(ctx, ticket)
		if err == nil {
			return nil
		}
		if !errors.Is(err, repository.ErrDuplicate) {
			return apperrors.MapError(err)
		}
		// A competing writer just claimed this number; the re-read on the
		// next attempt picks up their advance.
		s.logger.Debug("ticket number collision, retrying",
			zap.String("ticket_number", number),
			zap.Int("attempt", attempt))
	}
	return apperrors.NewConflict("could not allocate a ticket number under contention", nil)
}

// UpdateStatus performs a staff status transition. Any of the five statuses
// may be targeted; a same-status request succeeds as a no-op and writes no
// history row. Every committed transition appends exactly one audit entry.
// Concurrent edits to different target statuses are last-write-wins; the
// history log remains the authoritative transition sequence.
func (s *TicketService) UpdateStatus(ctx context.Context, staff *domain.StaffMember, ticketID string, newStatus domain.TicketStatus, remarks *string) (*StatusUpdateResult, error) {
	if staff == nil {
		return nil, apperrors.NewUnauthorized("staff required")
	}
	if !domain.ValidStatus(newStatus) {
		return nil, apperrors.NewValidationError("unknown status", map[string]any{"status": newStatus})
	}

	ticket, err := s.tickets.GetByID(ctx, ticketID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperrors.NewNotFound("ticket", map[string]any{"ticket_id": ticketID})
		}
		return nil, apperrors.MapError(err)
	}

	if ticket.Status == newStatus {
		return &StatusUpdateResult{Ticket: ticket, Changed: false}, nil
	}

	oldStatus := ticket.Status
	if err := s.tickets.UpdateStatus(ctx, ticket.ID, newStatus); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperrors.NewNotFound("ticket", map[string]any{"ticket_id": ticketID})
		}
		return nil, apperrors.MapError(err)
	}
	ticket.Status = newStatus

	entry := &domain.TicketStatusEntry{
		TicketID:         ticket.ID,
		OldStatus:        oldStatus,
		NewStatus:        newStatus,
		ChangedByStaffID: staff.ID,
		Remarks:          remarks,
	}
	if err := s.history.Create(ctx, entry); err != nil {
		return nil, apperrors.MapError(err)
	}

	var remarksText string
	if remarks != nil {
		remarksText = *remarks
	}
	s.publishEvent(ctx, events.Event{
		Type:     events.EventTicketStatusChanged,
		TicketID: ticket.ID,
		Actor:    staffActor(staff.ID),
		Payload: events.TicketStatusChangedPayload{
			TicketNumber: ticket.TicketNumber,
			OldStatus:    oldStatus,
			NewStatus:    newStatus,
			Remarks:      remarksText,
		},
	})
	return &StatusUpdateResult{Ticket: ticket, Changed: true}, nil
}

// GetTicketForCustomer fetches a ticket ensuring ownership.
func (s *TicketService) GetTicketForCustomer(ctx context.Context, customerID, ticketID string) (*domain.Ticket, error) {
	ticket, err := s.getTicket(ctx, ticketID)
	if err != nil {
		return nil, err
	}
	if ticket.CustomerID == nil || *ticket.CustomerID != customerID {
		return nil, apperrors.NewForbidden("access denied")
	}
	return ticket, nil
}

// GetTicketForGuest fetches the ticket a verified guest token resolved to.
func (s *TicketService) GetTicketForGuest(ctx context.Context, ticketID string) (*domain.Ticket, error) {
	return s.getTicket(ctx, ticketID)
}

// GetTicketForStaff fetches a ticket with its status history.
func (s *TicketService) GetTicketForStaff(ctx context.Context, ticketID string) (*domain.Ticket, []domain.TicketStatusEntry, error) {
	ticket, err := s.getTicket(ctx, ticketID)
	if err != nil {
		return nil, nil, err
	}
	history, err := s.history.ListByTicket(ctx, ticket.ID)
	if err != nil {
		return nil, nil, apperrors.MapError(err)
	}
	return ticket, history, nil
}

// ListCustomerTickets returns paginated tickets for a customer.
func (s *TicketService) ListCustomerTickets(ctx context.Context, customerID string, limit, offset int) ([]domain.Ticket, error) {
	filter := repository.TicketFilter{
		CustomerID: &customerID,
		Limit:      limit,
		Offset:     offset,
	}
	tickets, err := s.tickets.ListWithFilter(ctx, filter)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	return tickets, nil
}

// ListStaffTickets returns the staff queue with filters applied.
func (s *TicketService) ListStaffTickets(ctx context.Context, filter repository.TicketFilter) ([]domain.Ticket, error) {
	tickets, err := s.tickets.ListWithFilter(ctx, filter)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	return tickets, nil
}

func (s *TicketService) getTicket(ctx context.Context, ticketID string) (*domain.Ticket, error) {
	ticket, err := s.tickets.GetByID(ctx, ticketID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperrors.NewNotFound("ticket", map[string]any{"ticket_id": ticketID})
		}
		return nil, apperrors.MapError(err)
	}
	return ticket, nil
}

func (s *TicketService) publishEvent(ctx context.Context, event events.Event) {
	if s.dispatcher == nil {
		return
	}
	if event.ID == "" {
		event.ID = uuid.NewString()
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}
	_ = s.dispatcher.Publish(ctx, event)
}

func creationActor(submitter Submitter) events.Actor {
	if submitter.CustomerID != nil {
		return events.Actor{Type: domain.SubjectTypeCustomer, CustomerID: submitter.CustomerID}
	}
	return events.Actor{Type: domain.SubjectTypeCustomer}
}

func staffActor(staffID string) events.Actor {
	return events.Actor{Type: domain.SubjectTypeStaff, StaffID: &staffID}
}
