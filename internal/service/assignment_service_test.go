package service

import (
	"context"
	"testing"

	"go.uber.org/zap"

	"github.com/insighta/complaints-service/internal/domain"
	"github.com/insighta/complaints-service/internal/events"
	apperrors "github.com/insighta/complaints-service/pkg/util"
)

func newAssignmentFixture(t *testing.T) (*AssignmentService, *fakeTicketRepo, *recordingDispatcher) {
	t.Helper()
	tickets := newFakeTicketRepo()
	dispatcher := &recordingDispatcher{}
	return NewAssignmentService(tickets, dispatcher, zap.NewNop()), tickets, dispatcher
}

func seedTicket(t *testing.T, repo *fakeTicketRepo) *domain.Ticket {
	t.Helper()
	ticket := &domain.Ticket{
		TicketNumber: "TKT-00001",
		Type:         domain.TicketTypeComplaint,
		Status:       domain.TicketStatusUnderReview,
		Description:  "unassigned",
		CategoryID:   defaultCatID,
	}
	if err := repo.Create(context.Background(), ticket); err != nil {
		t.Fatalf("seed ticket: %v", err)
	}
	return ticket
}

func TestSelfAssignClaimsUnassignedTicket(t *testing.T) {
	svc, tickets, dispatcher := newAssignmentFixture(t)
	ticket := seedTicket(t, tickets)
	staff := &domain.StaffMember{ID: "staff-1", Role: domain.StaffRoleAgent, Active: true}

	result, err := svc.SelfAssign(context.Background(), staff, ticket.ID)
	if err != nil {
		t.Fatalf("SelfAssign: %v", err)
	}
	if result.AlreadyYours {
		t.Fatalf("fresh claim must not report AlreadyYours")
	}
	if result.Ticket.AssignedStaffID == nil || *result.Ticket.AssignedStaffID != "staff-1" {
		t.Fatalf("assignee = %v, want staff-1", result.Ticket.AssignedStaffID)
	}

	published := dispatcher.published()
	if len(published) != 1 || published[0].Type != events.EventTicketAssigned {
		t.Fatalf("expected one ticket_assigned event, got %v", published)
	}
}

func TestSelfAssignConflictsForSecondStaff(t *testing.T) {
	svc, tickets, _ := newAssignmentFixture(t)
	ticket := seedTicket(t, tickets)
	ctx := context.Background()

	first := &domain.StaffMember{ID: "staff-1", Active: true}
	second := &domain.StaffMember{ID: "staff-2", Active: true}

	if _, err := svc.SelfAssign(ctx, first, ticket.ID); err != nil {
		t.Fatalf("first claim: %v", err)
	}
	_, err := svc.SelfAssign(ctx, second, ticket.ID)
	if err == nil {
		t.Fatalf("second staff member must get a conflict")
	}
	if code := apperrors.ToDomainError(err).Code; code != "CONFLICT" {
		t.Fatalf("error code = %q, want CONFLICT", code)
	}

	// The losing claim must not have displaced the winner.
	if stored := tickets.stored(ticket.ID); *stored.AssignedStaffID != "staff-1" {
		t.Fatalf("assignee = %q, want staff-1", *stored.AssignedStaffID)
	}
}

func TestSelfAssignIsIdempotentForOwner(t *testing.T) {
	svc, tickets, dispatcher := newAssignmentFixture(t)
	ticket := seedTicket(t, tickets)
	ctx := context.Background()
	staff := &domain.StaffMember{ID: "staff-1", Active: true}

	if _, err := svc.SelfAssign(ctx, staff, ticket.ID); err != nil {
		t.Fatalf("first claim: %v", err)
	}
	result, err := svc.SelfAssign(ctx, staff, ticket.ID)
	if err != nil {
		t.Fatalf("repeat claim: %v", err)
	}
	if !result.AlreadyYours {
		t.Fatalf("repeat claim by the owner must report AlreadyYours")
	}
	if got := len(dispatcher.published()); got != 1 {
		t.Fatalf("repeat claim must not publish another event, got %d", got)
	}
}

func TestSelfAssignUnknownTicket(t *testing.T) {
	svc, _, _ := newAssignmentFixture(t)
	staff := &domain.StaffMember{ID: "staff-1", Active: true}

	_, err := svc.SelfAssign(context.Background(), staff, "missing")
	if err == nil {
		t.Fatalf("expected not found")
	}
	if code := apperrors.ToDomainError(err).Code; code != "NOT_FOUND" {
		t.Fatalf("error code = %q, want NOT_FOUND", code)
	}
}
