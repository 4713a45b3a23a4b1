package repository

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/insighta/complaints-service/internal/domain"
)

// StatusHistoryRepository stores append-only status audit entries.
type StatusHistoryRepository interface {
	Create(ctx context.Context, entry *domain.TicketStatusEntry) error
	ListByTicket(ctx context.Context, ticketID string) ([]domain.TicketStatusEntry, error)
}

type statusHistoryRepository struct {
	pool *pgxpool.Pool
}

// NewStatusHistoryRepository builds repository.
func NewStatusHistoryRepository(pool *pgxpool.Pool) StatusHistoryRepository {
	return &statusHistoryRepository{pool: pool}
}

func (r *statusHistoryRepository) Create(ctx context.Context, entry *domain.TicketStatusEntry) error {
	const query = `
        INSERT INTO ticket_status_history (ticket_id, old_status, new_status, changed_by_staff_id, remarks)
        VALUES ($1,$2,$3,$4,$5)
        RETURNING id, created_at`
	err := r.pool.QueryRow(ctx, query,
		entry.TicketID,
		entry.OldStatus,
		entry.NewStatus,
		entry.ChangedByStaffID,
		entry.Remarks,
	).Scan(&entry.ID, &entry.CreatedAt)
	return translateError(err)
}

func (r *statusHistoryRepository) ListByTicket(ctx context.Context, ticketID string) ([]domain.TicketStatusEntry, error) {
	const query = `
        SELECT id, ticket_id, old_status, new_status, changed_by_staff_id, remarks, created_at
        FROM ticket_status_history WHERE ticket_id=$1 ORDER BY created_at ASC`
	rows, err := r.pool.Query(ctx, query, ticketID)
	if err != nil {
		return nil, translateError(err)
	}
	defer rows.Close()

	var result []domain.TicketStatusEntry
	for rows.Next() {
		var entry domain.TicketStatusEntry
		if err := rows.Scan(
			&entry.ID,
			&entry.TicketID,
			&entry.OldStatus,
			&entry.NewStatus,
			&entry.ChangedByStaffID,
			&entry.Remarks,
			&entry.CreatedAt,
		); err != nil {
			return nil, err
		}
		result = append(result, entry)
	}
	return result, rows.Err()
}
