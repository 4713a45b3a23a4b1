package service

import (
	"context"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/insighta/complaints-service/internal/auth"
	"github.com/insighta/complaints-service/internal/domain"
	"github.com/insighta/complaints-service/internal/events"
	"github.com/insighta/complaints-service/internal/repository"
	"github.com/insighta/complaints-service/internal/sequence"
	apperrors "github.com/insighta/complaints-service/pkg/util"
)

type ticketServiceFixture struct {
	service    *TicketService
	tickets    *fakeTicketRepo
	history    *fakeHistoryRepo
	guests     *fakeGuestRepo
	tokens     *fakeTokenRepo
	dispatcher *recordingDispatcher
}

func newTicketServiceFixture(t *testing.T) *ticketServiceFixture {
	t.Helper()
	tickets := newFakeTicketRepo()
	history := &fakeHistoryRepo{}
	guests := &fakeGuestRepo{}
	tokens := &fakeTokenRepo{}
	dispatcher := &recordingDispatcher{}
	logger := zap.NewNop()

	categories := &fakeCategoryRepo{categories: []domain.Category{
		{ID: "11111111-1111-1111-1111-111111111111", Name: domain.DefaultCategoryName, IsActive: true},
		{ID: "22222222-2222-2222-2222-222222222222", Name: "Billing", IsActive: true},
		{ID: "33333333-3333-3333-3333-333333333333", Name: "Legacy", IsActive: false},
	}}

	svc := NewTicketService(TicketDependencies{
		TicketRepo:  tickets,
		HistoryRepo: history,
		Allocator:   sequence.NewAllocator(tickets),
		Categories:  NewCategoryResolver(categories, nil, logger),
		Submitters:  NewSubmitterService(guests, tokens, 30*24*time.Hour, logger),
		Dispatcher:  dispatcher,
		Logger:      logger,
	})
	return &ticketServiceFixture{
		service:    svc,
		tickets:    tickets,
		history:    history,
		guests:     guests,
		tokens:     tokens,
		dispatcher: dispatcher,
	}
}

func strPtr(s string) *string { return &s }

func TestCreateTicketForCustomer(t *testing.T) {
	fx := newTicketServiceFixture(t)

	created, err := fx.service.CreateTicket(context.Background(), TicketCreateInput{
		Title:       "Broken invoice",
		Description: "The invoice total is wrong.",
		CustomerID:  strPtr("customer-1"),
	})
	if err != nil {
		t.Fatalf("CreateTicket: %v", err)
	}

	ticket := created.Ticket
	if ticket.TicketNumber != "TKT-00001" {
		t.Fatalf("ticket number = %q, want TKT-00001", ticket.TicketNumber)
	}
	if ticket.Status != domain.TicketStatusUnderReview {
		t.Fatalf("status = %q, want UNDER_REVIEW", ticket.Status)
	}
	if ticket.Type != domain.TicketTypeComplaint {
		t.Fatalf("type = %q, want default COMPLAINT", ticket.Type)
	}
	if ticket.CustomerID == nil || *ticket.CustomerID != "customer-1" {
		t.Fatalf("customer id not recorded: %v", ticket.CustomerID)
	}
	if ticket.GuestContactID != nil {
		t.Fatalf("unexpected guest contact on customer ticket")
	}
	if created.AccessToken != "" {
		t.Fatalf("customer submission must not receive a guest token")
	}

	published := fx.dispatcher.published()
	if len(published) != 1 || published[0].Type != events.EventTicketCreated {
		t.Fatalf("expected one ticket_created event, got %v", published)
	}
	payload, ok := published[0].Payload.(events.TicketCreatedPayload)
	if !ok {
		t.Fatalf("unexpected payload type %T", published[0].Payload)
	}
	if !payload.AllowCategoryOverride {
		t.Fatalf("fallback categorization must permit enrichment override")
	}
}

func TestCreateTicketSequenceIncrements(t *testing.T) {
	fx := newTicketServiceFixture(t)
	ctx := context.Background()

	for i, want := range []string{"TKT-00001", "TKT-00002", "TKT-00003"} {
		created, err := fx.service.CreateTicket(ctx, TicketCreateInput{
			Description: "again",
			CustomerID:  strPtr("customer-1"),
		})
		if err != nil {
			t.Fatalf("CreateTicket #%d: %v", i+1, err)
		}
		if created.Ticket.TicketNumber != want {
			t.Fatalf("ticket #%d number = %q, want %q", i+1, created.Ticket.TicketNumber, want)
		}
	}
}

func TestCreateTicketRetriesOnNumberCollision(t *testing.T) {
	fx := newTicketServiceFixture(t)

	collided := false
	fx.tickets.createHook = func(ticket *domain.Ticket) error {
		if collided {
			return nil
		}
		// A competing writer claims the same number just before our insert.
		collided = true
		fx.tickets.numbers[ticket.TicketNumber] = "someone-else"
		return repository.ErrDuplicate
	}

	created, err := fx.service.CreateTicket(context.Background(), TicketCreateInput{
		Description: "contended",
		CustomerID:  strPtr("customer-1"),
	})
	if err != nil {
		t.Fatalf("CreateTicket: %v", err)
	}
	if created.Ticket.TicketNumber != "TKT-00002" {
		t.Fatalf("ticket number = %q, want TKT-00002 after retry", created.Ticket.TicketNumber)
	}
}

func TestCreateTicketGivesUpAfterRepeatedCollisions(t *testing.T) {
	fx := newTicketServiceFixture(t)

	attempts := 0
	fx.tickets.createHook = func(ticket *domain.Ticket) error {
		attempts++
		fx.tickets.numbers[ticket.TicketNumber] = "someone-else"
		return repository.ErrDuplicate
	}

	_, err := fx.service.CreateTicket(context.Background(), TicketCreateInput{
		Description: "hopeless",
		CustomerID:  strPtr("customer-1"),
	})
	if err == nil {
		t.Fatalf("expected conflict after exhausted retries")
	}
	if code := apperrors.ToDomainError(err).Code; code != "CONFLICT" {
		t.Fatalf("error code = %q, want CONFLICT", code)
	}
	if attempts != sequence.MaxAttempts {
		t.Fatalf("attempts = %d, want %d", attempts, sequence.MaxAttempts)
	}
}

func TestCreateTicketGuestGetsAccessToken(t *testing.T) {
	fx := newTicketServiceFixture(t)

	created, err := fx.service.CreateTicket(context.Background(), TicketCreateInput{
		Description: "no account",
		GuestEmail:  strPtr("  Guest@Example.COM "),
	})
	if err != nil {
		t.Fatalf("CreateTicket: %v", err)
	}
	if created.AccessToken == "" {
		t.Fatalf("guest submission must return a raw access token")
	}
	if created.Ticket.GuestContactID == nil {
		t.Fatalf("guest contact not linked")
	}
	if created.Ticket.CustomerID != nil {
		t.Fatalf("guest ticket must not carry a customer id")
	}

	// Only the hash is stored, and it verifies against the raw token.
	if len(fx.tokens.tokens) != 1 {
		t.Fatalf("stored tokens = %d, want 1", len(fx.tokens.tokens))
	}
	stored := fx.tokens.tokens[0]
	if stored.TokenHash == created.AccessToken {
		t.Fatalf("raw token must not be persisted")
	}
	if stored.TokenHash != auth.HashGuestToken(created.AccessToken) {
		t.Fatalf("stored hash does not match raw token")
	}
	if stored.TicketID != created.Ticket.ID {
		t.Fatalf("token bound to %q, want %q", stored.TicketID, created.Ticket.ID)
	}

	// The contact email is normalized for dedup.
	if got := fx.guests.contacts[0].Email; got != "guest@example.com" {
		t.Fatalf("guest email = %q, want normalized form", got)
	}
}

func TestCreateTicketGuestReusesContact(t *testing.T) {
	fx := newTicketServiceFixture(t)
	ctx := context.Background()

	first, err := fx.service.CreateTicket(ctx, TicketCreateInput{
		Description: "first",
		GuestEmail:  strPtr("repeat@example.com"),
	})
	if err != nil {
		t.Fatalf("first CreateTicket: %v", err)
	}
	second, err := fx.service.CreateTicket(ctx, TicketCreateInput{
		Description: "second",
		GuestEmail:  strPtr("REPEAT@example.com"),
	})
	if err != nil {
		t.Fatalf("second CreateTicket: %v", err)
	}
	if *first.Ticket.GuestContactID != *second.Ticket.GuestContactID {
		t.Fatalf("same email must resolve to the same guest contact")
	}
	if len(fx.guests.contacts) != 1 {
		t.Fatalf("guest contacts = %d, want 1", len(fx.guests.contacts))
	}
}

func TestCreateTicketGuestContactInsertRace(t *testing.T) {
	fx := newTicketServiceFixture(t)
	fx.guests.failFirstCreate = true

	created, err := fx.service.CreateTicket(context.Background(), TicketCreateInput{
		Description: "racy",
		GuestEmail:  strPtr("race@example.com"),
	})
	if err != nil {
		t.Fatalf("CreateTicket: %v", err)
	}
	if created.Ticket.GuestContactID == nil {
		t.Fatalf("race recovery must still link the winning contact")
	}
	if len(fx.guests.contacts) != 1 {
		t.Fatalf("guest contacts = %d, want 1", len(fx.guests.contacts))
	}
}

func TestCreateTicketTokenFailureDoesNotFailCreation(t *testing.T) {
	fx := newTicketServiceFixture(t)
	fx.tokens.err = repository.ErrNotFound

	created, err := fx.service.CreateTicket(context.Background(), TicketCreateInput{
		Description: "token storage down",
		GuestEmail:  strPtr("degraded@example.com"),
	})
	if err != nil {
		t.Fatalf("CreateTicket: %v", err)
	}
	if created.AccessToken != "" {
		t.Fatalf("no token should be returned when issuance fails")
	}
	if created.Ticket.ID == "" {
		t.Fatalf("ticket must still be persisted")
	}
}

func TestCreateTicketValidation(t *testing.T) {
	fx := newTicketServiceFixture(t)
	ctx := context.Background()

	cases := []struct {
		name  string
		input TicketCreateInput
	}{
		{"empty description", TicketCreateInput{Description: "   ", CustomerID: strPtr("customer-1")}},
		{"unknown type", TicketCreateInput{Description: "x", Type: "RANT", CustomerID: strPtr("customer-1")}},
		{"both identities", TicketCreateInput{Description: "x", CustomerID: strPtr("customer-1"), GuestEmail: strPtr("g@example.com")}},
		{"neither identity", TicketCreateInput{Description: "x"}},
		{"bad guest email", TicketCreateInput{Description: "x", GuestEmail: strPtr("not-an-email")}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := fx.service.CreateTicket(ctx, tc.input)
			if err == nil {
				t.Fatalf("expected validation error")
			}
			if code := apperrors.ToDomainError(err).Code; code != "VALIDATION_FAILED" {
				t.Fatalf("error code = %q, want VALIDATION_FAILED", code)
			}
		})
	}
}

func TestCreateTicketExplicitCategorySuppressesOverride(t *testing.T) {
	fx := newTicketServiceFixture(t)

	created, err := fx.service.CreateTicket(context.Background(), TicketCreateInput{
		Description:  "billing dispute",
		CustomerID:   strPtr("customer-1"),
		CategoryName: strPtr("billing"),
	})
	if err != nil {
		t.Fatalf("CreateTicket: %v", err)
	}
	if created.Ticket.CategoryID != "22222222-2222-2222-2222-222222222222" {
		t.Fatalf("category = %q, want Billing", created.Ticket.CategoryID)
	}
	payload := fx.dispatcher.published()[0].Payload.(events.TicketCreatedPayload)
	if payload.AllowCategoryOverride {
		t.Fatalf("explicit category choice must block enrichment override")
	}
}

func TestUpdateStatusTransition(t *testing.T) {
	fx := newTicketServiceFixture(t)
	ctx := context.Background()
	staff := &domain.StaffMember{ID: "staff-1", Role: domain.StaffRoleAgent, Active: true}

	created, err := fx.service.CreateTicket(ctx, TicketCreateInput{
		Description: "needs work",
		CustomerID:  strPtr("customer-1"),
	})
	if err != nil {
		t.Fatalf("CreateTicket: %v", err)
	}

	remarks := "picking this up"
	result, err := fx.service.UpdateStatus(ctx, staff, created.Ticket.ID, domain.TicketStatusInProgress, &remarks)
	if err != nil {
		t.Fatalf("UpdateStatus: %v", err)
	}
	if !result.Changed {
		t.Fatalf("expected Changed=true for a real transition")
	}
	if result.Ticket.Status != domain.TicketStatusInProgress {
		t.Fatalf("status = %q, want IN_PROGRESS", result.Ticket.Status)
	}

	if len(fx.history.entries) != 1 {
		t.Fatalf("history entries = %d, want 1", len(fx.history.entries))
	}
	entry := fx.history.entries[0]
	if entry.OldStatus != domain.TicketStatusUnderReview || entry.NewStatus != domain.TicketStatusInProgress {
		t.Fatalf("history transition %q -> %q unexpected", entry.OldStatus, entry.NewStatus)
	}
	if entry.ChangedByStaffID != "staff-1" {
		t.Fatalf("history actor = %q, want staff-1", entry.ChangedByStaffID)
	}
	if entry.Remarks == nil || *entry.Remarks != remarks {
		t.Fatalf("history remarks not recorded")
	}
}

func TestUpdateStatusSameStatusIsNoOp(t *testing.T) {
	fx := newTicketServiceFixture(t)
	ctx := context.Background()
	staff := &domain.StaffMember{ID: "staff-1", Role: domain.StaffRoleAgent, Active: true}

	created, err := fx.service.CreateTicket(ctx, TicketCreateInput{
		Description: "steady",
		CustomerID:  strPtr("customer-1"),
	})
	if err != nil {
		t.Fatalf("CreateTicket: %v", err)
	}
	eventsBefore := len(fx.dispatcher.published())

	result, err := fx.service.UpdateStatus(ctx, staff, created.Ticket.ID, domain.TicketStatusUnderReview, nil)
	if err != nil {
		t.Fatalf("UpdateStatus: %v", err)
	}
	if result.Changed {
		t.Fatalf("same-status update must report Changed=false")
	}
	if len(fx.history.entries) != 0 {
		t.Fatalf("no-op must not write history, got %d entries", len(fx.history.entries))
	}
	if got := len(fx.dispatcher.published()); got != eventsBefore {
		t.Fatalf("no-op must not publish events")
	}
}

func TestUpdateStatusUnknownStatus(t *testing.T) {
	fx := newTicketServiceFixture(t)
	staff := &domain.StaffMember{ID: "staff-1", Active: true}

	_, err := fx.service.UpdateStatus(context.Background(), staff, "ticket-1", "ARCHIVED", nil)
	if err == nil {
		t.Fatalf("expected validation error")
	}
	if code := apperrors.ToDomainError(err).Code; code != "VALIDATION_FAILED" {
		t.Fatalf("error code = %q, want VALIDATION_FAILED", code)
	}
}

func TestUpdateStatusTicketNotFound(t *testing.T) {
	fx := newTicketServiceFixture(t)
	staff := &domain.StaffMember{ID: "staff-1", Active: true}

	_, err := fx.service.UpdateStatus(context.Background(), staff, "missing", domain.TicketStatusClosed, nil)
	if err == nil {
		t.Fatalf("expected not found")
	}
	if code := apperrors.ToDomainError(err).Code; code != "NOT_FOUND" {
		t.Fatalf("error code = %q, want NOT_FOUND", code)
	}
}

func TestGetTicketForCustomerEnforcesOwnership(t *testing.T) {
	fx := newTicketServiceFixture(t)
	ctx := context.Background()

	created, err := fx.service.CreateTicket(ctx, TicketCreateInput{
		Description: "mine",
		CustomerID:  strPtr("customer-1"),
	})
	if err != nil {
		t.Fatalf("CreateTicket: %v", err)
	}

	if _, err := fx.service.GetTicketForCustomer(ctx, "customer-1", created.Ticket.ID); err != nil {
		t.Fatalf("owner read: %v", err)
	}
	_, err = fx.service.GetTicketForCustomer(ctx, "customer-2", created.Ticket.ID)
	if err == nil {
		t.Fatalf("foreign customer must be rejected")
	}
	if code := apperrors.ToDomainError(err).Code; code != "FORBIDDEN" {
		t.Fatalf("error code = %q, want FORBIDDEN", code)
	}
}
