package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/insighta/complaints-service/internal/domain"
)

// TicketFilter captures staff queue search parameters.
type TicketFilter struct {
	CustomerID      *string
	GuestContactID  *string
	AssignedStaffID *string
	CategoryID      *string
	Statuses        []domain.TicketStatus
	Priorities      []domain.TicketPriority
	SearchTerm      *string
	Limit           int
	Offset          int
}

// EnrichmentFields carries the classifier-owned columns. Nil fields are left
// untouched by UpdateEnrichment.
type EnrichmentFields struct {
	Sentiment *string
	Intent    *string
	IssueType *string
	Priority  *domain.TicketPriority
}

// Empty reports whether no field would be written.
func (f EnrichmentFields) Empty() bool {
	return f.Sentiment == nil && f.Intent == nil && f.IssueType == nil && f.Priority == nil
}

// TicketRepository encapsulates ticket persistence. All mutations against the
// ticket row pass through here; the conditional methods return a matched flag
// instead of an error when their predicate misses.
type TicketRepository interface {
	Create(ctx context.Context, ticket *domain.Ticket) error
	GetByID(ctx context.Context, id string) (*domain.Ticket, error)
	GetByIDs(ctx context.Context, ids []string) ([]domain.Ticket, error)
	LatestNumber(ctx context.Context) (string, error)
	UpdateStatus(ctx context.Context, id string, status domain.TicketStatus) error
	AssignIfUnassigned(ctx context.Context, id, staffID string) (bool, error)
	UpdateCategoryIf(ctx context.Context, id, newCategoryID, expectedCategoryID string) (bool, error)
	UpdateEnrichment(ctx context.Context, id string, fields EnrichmentFields) error
	ListMissingEnrichment(ctx context.Context, limit int) ([]domain.Ticket, error)
	ListWithFilter(ctx context.Context, filter TicketFilter) ([]domain.Ticket, error)
}

type ticketRepository struct {
	pool *pgxpool.Pool
}

// NewTicketRepository instantiates repository.
func NewTicketRepository(pool *pgxpool.Pool) TicketRepository {
	return &ticketRepository{pool: pool}
}

const ticketColumns = `id, ticket_number, type, status, priority, title, description, category_id,
               customer_id, guest_contact_id, assigned_staff_id, sentiment, intent, issue_type,
               created_at, updated_at`

func (r *ticketRepository) Create(ctx context.Context, ticket *domain.Ticket) error {
	const query = `
        INSERT INTO tickets (ticket_number, type, status, priority, title, description, category_id, customer_id, guest_contact_id)
        VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)
        RETURNING id, created_at, updated_at`
	err := r.pool.QueryRow(ctx, query,
		ticket.TicketNumber,
		ticket.Type,
		ticket.Status,
		ticket.Priority,
		ticket.Title,
		ticket.Description,
		ticket.CategoryID,
		ticket.CustomerID,
		ticket.GuestContactID,
	).Scan(&ticket.ID, &ticket.CreatedAt, &ticket.UpdatedAt)
	return translateError(err)
}

func (r *ticketRepository) GetByID(ctx context.Context, id string) (*domain.Ticket, error) {
	query := `SELECT ` + ticketColumns + ` FROM tickets WHERE id=$1`
	var ticket domain.Ticket
	if err := scanTicket(r.pool.QueryRow(ctx, query, id), &ticket); err != nil {
		return nil, translateError(err)
	}
	return &ticket, nil
}

func (r *ticketRepository) GetByIDs(ctx context.Context, ids []string) ([]domain.Ticket, error) {
	if len(ids) == 0 {
		return []domain.Ticket{}, nil
	}
	query := `SELECT ` + ticketColumns + ` FROM tickets WHERE id = ANY($1) ORDER BY created_at ASC`
	rows, err := r.pool.Query(ctx, query, ids)
	if err != nil {
		return nil, translateError(err)
	}
	defer rows.Close()
	return scanTickets(rows)
}

// LatestNumber returns the most recently issued ticket number, or "" when no
// ticket exists yet. Ordered by creation with id as tiebreaker so concurrent
// inserts with equal timestamps still resolve deterministically.
func (r *ticketRepository) LatestNumber(ctx context.Context) (string, error) {
	const query = `SELECT ticket_number FROM tickets ORDER BY created_at DESC, id DESC LIMIT 1`
	var number string
	err := r.pool.QueryRow(ctx, query).Scan(&number)
	if err != nil {
		if errors.Is(translateError(err), ErrNotFound) {
			return "", nil
		}
		return "", translateError(err)
	}
	return number, nil
}

func (r *ticketRepository) UpdateStatus(ctx context.Context, id string, status domain.TicketStatus) error {
	const query = `UPDATE tickets SET status=$1, updated_at=NOW() WHERE id=$2`
	cmd, err := r.pool.Exec(ctx, query, status, id)
	if err != nil {
		return translateError(err)
	}
	if cmd.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// AssignIfUnassigned claims the ticket for staffID only when no assignee
// exists at write time. Returns false without error when the predicate
// misses; the caller disambiguates by re-reading.
func (r *ticketRepository) AssignIfUnassigned(ctx context.Context, id, staffID string) (bool, error) {
	const query = `
        UPDATE tickets SET assigned_staff_id=$1, updated_at=NOW()
        WHERE id=$2 AND assigned_staff_id IS NULL`
	cmd, err := r.pool.Exec(ctx, query, staffID, id)
	if err != nil {
		return false, translateError(err)
	}
	return cmd.RowsAffected() > 0, nil
}

// UpdateCategoryIf swaps the category only while it still equals the expected
// prior value, so a human recategorization in the interim wins.
func (r *ticketRepository) UpdateCategoryIf(ctx context.Context, id, newCategoryID, expectedCategoryID string) (bool, error) {
	const query = `
        UPDATE tickets SET category_id=$1, updated_at=NOW()
        WHERE id=$2 AND category_id=$3`
	cmd, err := r.pool.Exec(ctx, query, newCategoryID, id, expectedCategoryID)
	if err != nil {
		return false, translateError(err)
	}
	return cmd.RowsAffected() > 0, nil
}

func (r *ticketRepository) UpdateEnrichment(ctx context.Context, id string, fields EnrichmentFields) error {
	if fields.Empty() {
		return nil
	}
	sets := []string{}
	args := []any{}
	appendSet := func(column string, value any) {
		args = append(args, value)
		sets = append(sets, fmt.Sprintf("%s=$%d", column, len(args)))
	}
	if fields.Sentiment != nil {
		appendSet("sentiment", *fields.Sentiment)
	}
	if fields.Intent != nil {
		appendSet("intent", *fields.Intent)
	}
	if fields.IssueType != nil {
		appendSet("issue_type", *fields.IssueType)
	}
	if fields.Priority != nil {
		appendSet("priority", *fields.Priority)
	}
	args = append(args, id)
	query := fmt.Sprintf(`UPDATE tickets SET %s, updated_at=NOW() WHERE id=$%d`,
		strings.Join(sets, ", "), len(args))
	cmd, err := r.pool.Exec(ctx, query, args...)
	if err != nil {
		return translateError(err)
	}
	if cmd.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *ticketRepository) ListMissingEnrichment(ctx context.Context, limit int) ([]domain.Ticket, error) {
	query := `SELECT ` + ticketColumns + ` FROM tickets
             WHERE sentiment IS NULL OR intent IS NULL OR issue_type IS NULL
             ORDER BY created_at ASC LIMIT $1`
	rows, err := r.pool.Query(ctx, query, limit)
	if err != nil {
		return nil, translateError(err)
	}
	defer rows.Close()
	return scanTickets(rows)
}

func (r *ticketRepository) ListWithFilter(ctx context.Context, filter TicketFilter) ([]domain.Ticket, error) {
	clauses := []string{"1=1"}
	args := []any{}

	if filter.CustomerID != nil {
		args = append(args, *filter.CustomerID)
		clauses = append(clauses, fmt.Sprintf("customer_id=$%d", len(args)))
	}
	if filter.GuestContactID != nil {
		args = append(args, *filter.GuestContactID)
		clauses = append(clauses, fmt.Sprintf("guest_contact_id=$%d", len(args)))
	}
	if filter.AssignedStaffID != nil {
		args = append(args, *filter.AssignedStaffID)
		clauses = append(clauses, fmt.Sprintf("assigned_staff_id=$%d", len(args)))
	}
	if filter.CategoryID != nil {
		args = append(args, *filter.CategoryID)
		clauses = append(clauses, fmt.Sprintf("category_id=$%d", len(args)))
	}
	if len(filter.Statuses) > 0 {
		placeholders := make([]string, len(filter.Statuses))
		for i, status := range filter.Statuses {
			args = append(args, status)
			placeholders[i] = fmt.Sprintf("$%d", len(args))
		}
		clauses = append(clauses, fmt.Sprintf("status IN (%s)", strings.Join(placeholders, ",")))
	}
	if len(filter.Priorities) > 0 {
		placeholders := make([]string, len(filter.Priorities))
		for i, pr := range filter.Priorities {
			args = append(args, pr)
			placeholders[i] = fmt.Sprintf("$%d", len(args))
		}
		clauses = append(clauses, fmt.Sprintf("priority IN (%s)", strings.Join(placeholders, ",")))
	}
	if filter.SearchTerm != nil && strings.TrimSpace(*filter.SearchTerm) != "" {
		search := "%" + strings.ToLower(strings.TrimSpace(*filter.SearchTerm)) + "%"
		args = append(args, search)
		placeholder := fmt.Sprintf("$%d", len(args))
		clauses = append(clauses, fmt.Sprintf("(LOWER(title) LIKE %s OR LOWER(description) LIKE %s OR LOWER(ticket_number) LIKE %s)", placeholder, placeholder, placeholder))
	}

	limit := filter.Limit
	if limit <= 0 {
		limit = 20
	}
	offset := filter.Offset
	if offset < 0 {
		offset = 0
	}

	query := fmt.Sprintf(`SELECT %s FROM tickets WHERE %s ORDER BY updated_at DESC LIMIT %d OFFSET %d`,
		ticketColumns, strings.Join(clauses, " AND "), limit, offset)

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, translateError(err)
	}
	defer rows.Close()
	return scanTickets(rows)
}

func scanTicket(row pgx.Row, ticket *domain.Ticket) error {
	return row.Scan(
		&ticket.ID,
		&ticket.TicketNumber,
		&ticket.Type,
		&ticket.Status,
		&ticket.Priority,
		&ticket.Title,
		&ticket.Description,
		&ticket.CategoryID,
		&ticket.CustomerID,
		&ticket.GuestContactID,
		&ticket.AssignedStaffID,
		&ticket.Sentiment,
		&ticket.Intent,
		&ticket.IssueType,
		&ticket.CreatedAt,
		&ticket.UpdatedAt,
	)
}

func scanTickets(rows pgx.Rows) ([]domain.Ticket, error) {
	var result []domain.Ticket
	for rows.Next() {
		var ticket domain.Ticket
		if err := scanTicket(rows, &ticket); err != nil {
			return nil, err
		}
		result = append(result, ticket)
	}
	return result, rows.Err()
}
