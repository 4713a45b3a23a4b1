package service

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/insighta/complaints-service/internal/domain"
	"github.com/insighta/complaints-service/internal/events"
	"github.com/insighta/complaints-service/internal/repository"
)

type fakeTicketRepo struct {
	mu      sync.Mutex
	tickets map[string]*domain.Ticket
	numbers map[string]string
	nextID  int

	// createHook runs before each Create and may reject the insert, which is
	// how tests simulate a competing writer claiming a ticket number.
	createHook func(ticket *domain.Ticket) error
}

func newFakeTicketRepo() *fakeTicketRepo {
	return &fakeTicketRepo{
		tickets: make(map[string]*domain.Ticket),
		numbers: make(map[string]string),
	}
}

func (r *fakeTicketRepo) Create(ctx context.Context, ticket *domain.Ticket) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.createHook != nil {
		if err := r.createHook(ticket); err != nil {
			return err
		}
	}
	if _, taken := r.numbers[ticket.TicketNumber]; taken {
		return repository.ErrDuplicate
	}
	r.nextID++
	ticket.ID = fmt.Sprintf("ticket-%d", r.nextID)
	copied := *ticket
	r.tickets[ticket.ID] = &copied
	r.numbers[ticket.TicketNumber] = ticket.ID
	return nil
}

func (r *fakeTicketRepo) GetByID(ctx context.Context, id string) (*domain.Ticket, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	ticket, ok := r.tickets[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	copied := *ticket
	return &copied, nil
}

func (r *fakeTicketRepo) GetByIDs(ctx context.Context, ids []string) ([]domain.Ticket, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []domain.Ticket
	for _, id := range ids {
		if ticket, ok := r.tickets[id]; ok {
			out = append(out, *ticket)
		}
	}
	return out, nil
}

func (r *fakeTicketRepo) LatestNumber(ctx context.Context) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	latest := ""
	for number := range r.numbers {
		if number > latest {
			latest = number
		}
	}
	return latest, nil
}

func (r *fakeTicketRepo) UpdateStatus(ctx context.Context, id string, status domain.TicketStatus) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	ticket, ok := r.tickets[id]
	if !ok {
		return repository.ErrNotFound
	}
	ticket.Status = status
	return nil
}

func (r *fakeTicketRepo) AssignIfUnassigned(ctx context.Context, id, staffID string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	ticket, ok := r.tickets[id]
	if !ok {
		return false, nil
	}
	if ticket.AssignedStaffID != nil {
		return false, nil
	}
	assigned := staffID
	ticket.AssignedStaffID = &assigned
	return true, nil
}

func (r *fakeTicketRepo) UpdateCategoryIf(ctx context.Context, id, newCategoryID, expectedCategoryID string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	ticket, ok := r.tickets[id]
	if !ok || ticket.CategoryID != expectedCategoryID {
		return false, nil
	}
	ticket.CategoryID = newCategoryID
	return true, nil
}

func (r *fakeTicketRepo) UpdateEnrichment(ctx context.Context, id string, fields repository.EnrichmentFields) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	ticket, ok := r.tickets[id]
	if !ok {
		return repository.ErrNotFound
	}
	if fields.Sentiment != nil {
		ticket.Sentiment = fields.Sentiment
	}
	if fields.Intent != nil {
		ticket.Intent = fields.Intent
	}
	if fields.IssueType != nil {
		ticket.IssueType = fields.IssueType
	}
	if fields.Priority != nil {
		ticket.Priority = fields.Priority
	}
	return nil
}

func (r *fakeTicketRepo) ListMissingEnrichment(ctx context.Context, limit int) ([]domain.Ticket, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []domain.Ticket
	for _, ticket := range r.tickets {
		if ticket.Sentiment == nil || ticket.Intent == nil || ticket.IssueType == nil {
			out = append(out, *ticket)
		}
		if len(out) == limit {
			break
		}
	}
	return out, nil
}

func (r *fakeTicketRepo) ListWithFilter(ctx context.Context, filter repository.TicketFilter) ([]domain.Ticket, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []domain.Ticket
	for _, ticket := range r.tickets {
		if filter.CustomerID != nil {
			if ticket.CustomerID == nil || *ticket.CustomerID != *filter.CustomerID {
				continue
			}
		}
		out = append(out, *ticket)
	}
	return out, nil
}

func (r *fakeTicketRepo) stored(id string) *domain.Ticket {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.tickets[id]
}

type fakeHistoryRepo struct {
	mu      sync.Mutex
	entries []domain.TicketStatusEntry
}

func (r *fakeHistoryRepo) Create(ctx context.Context, entry *domain.TicketStatusEntry) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	entry.ID = fmt.Sprintf("entry-%d", len(r.entries)+1)
	r.entries = append(r.entries, *entry)
	return nil
}

func (r *fakeHistoryRepo) ListByTicket(ctx context.Context, ticketID string) ([]domain.TicketStatusEntry, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []domain.TicketStatusEntry
	for _, entry := range r.entries {
		if entry.TicketID == ticketID {
			out = append(out, entry)
		}
	}
	return out, nil
}

type fakeCategoryRepo struct {
	categories []domain.Category
}

func (r *fakeCategoryRepo) GetByID(ctx context.Context, id string) (*domain.Category, error) {
	for i := range r.categories {
		if r.categories[i].ID == id {
			return &r.categories[i], nil
		}
	}
	return nil, repository.ErrNotFound
}

func (r *fakeCategoryRepo) ListActive(ctx context.Context) ([]domain.Category, error) {
	var active []domain.Category
	for _, cat := range r.categories {
		if cat.IsActive {
			active = append(active, cat)
		}
	}
	return active, nil
}

type fakeGuestRepo struct {
	mu       sync.Mutex
	contacts []domain.GuestContact
	nextID   int

	// failFirstCreate makes the first Create return ErrDuplicate and insert
	// a contact as if a concurrent request won the race.
	failFirstCreate bool
}

func (r *fakeGuestRepo) Create(ctx context.Context, contact *domain.GuestContact) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.failFirstCreate {
		r.failFirstCreate = false
		r.nextID++
		r.contacts = append(r.contacts, domain.GuestContact{
			ID:    fmt.Sprintf("guest-%d", r.nextID),
			Email: contact.Email,
		})
		return repository.ErrDuplicate
	}
	for _, existing := range r.contacts {
		if strings.EqualFold(existing.Email, contact.Email) {
			return repository.ErrDuplicate
		}
	}
	r.nextID++
	contact.ID = fmt.Sprintf("guest-%d", r.nextID)
	r.contacts = append(r.contacts, *contact)
	return nil
}

func (r *fakeGuestRepo) FindOldestByEmail(ctx context.Context, email string) (*domain.GuestContact, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i := range r.contacts {
		if r.contacts[i].Email == email {
			return &r.contacts[i], nil
		}
	}
	return nil, repository.ErrNotFound
}

func (r *fakeGuestRepo) GetByID(ctx context.Context, id string) (*domain.GuestContact, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i := range r.contacts {
		if r.contacts[i].ID == id {
			return &r.contacts[i], nil
		}
	}
	return nil, repository.ErrNotFound
}

type fakeTokenRepo struct {
	mu     sync.Mutex
	tokens []domain.TicketAccessToken
	err    error
}

func (r *fakeTokenRepo) Create(ctx context.Context, token *domain.TicketAccessToken) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return r.err
	}
	token.ID = fmt.Sprintf("token-%d", len(r.tokens)+1)
	r.tokens = append(r.tokens, *token)
	return nil
}

func (r *fakeTokenRepo) FindValidByHash(ctx context.Context, hash string) (*domain.TicketAccessToken, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i := range r.tokens {
		if r.tokens[i].TokenHash == hash {
			return &r.tokens[i], nil
		}
	}
	return nil, repository.ErrNotFound
}

type recordingDispatcher struct {
	mu     sync.Mutex
	events []events.Event
}

func (d *recordingDispatcher) Publish(ctx context.Context, event events.Event) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.events = append(d.events, event)
	return nil
}

func (d *recordingDispatcher) Subscribe(eventType events.EventType, handler events.EventHandler) {}

func (d *recordingDispatcher) published() []events.Event {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]events.Event{}, d.events...)
}
