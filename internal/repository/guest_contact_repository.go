package repository

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/insighta/complaints-service/internal/domain"
)

// GuestContactRepository stores deduplicated guest identities.
type GuestContactRepository interface {
	Create(ctx context.Context, contact *domain.GuestContact) error
	FindOldestByEmail(ctx context.Context, email string) (*domain.GuestContact, error)
	GetByID(ctx context.Context, id string) (*domain.GuestContact, error)
}

type guestContactRepository struct {
	pool *pgxpool.Pool
}

// NewGuestContactRepository builds repository.
func NewGuestContactRepository(pool *pgxpool.Pool) GuestContactRepository {
	return &guestContactRepository{pool: pool}
}

func (r *guestContactRepository) Create(ctx context.Context, contact *domain.GuestContact) error {
	const query = `
        INSERT INTO guest_contacts (email, name)
        VALUES ($1,$2)
        RETURNING id, created_at`
	err := r.pool.QueryRow(ctx, query, contact.Email, contact.Name).
		Scan(&contact.ID, &contact.CreatedAt)
	return translateError(err)
}

// FindOldestByEmail returns the earliest contact for the normalized email,
// which is the record all subsequent guest tickets reuse.
func (r *guestContactRepository) FindOldestByEmail(ctx context.Context, email string) (*domain.GuestContact, error) {
	const query = `
        SELECT id, email, name, created_at
        FROM guest_contacts WHERE email=$1
        ORDER BY created_at ASC LIMIT 1`
	var contact domain.GuestContact
	if err := r.pool.QueryRow(ctx, query, email).Scan(
		&contact.ID,
		&contact.Email,
		&contact.Name,
		&contact.CreatedAt,
	); err != nil {
		return nil, translateError(err)
	}
	return &contact, nil
}

func (r *guestContactRepository) GetByID(ctx context.Context, id string) (*domain.GuestContact, error) {
	const query = `SELECT id, email, name, created_at FROM guest_contacts WHERE id=$1`
	var contact domain.GuestContact
	if err := r.pool.QueryRow(ctx, query, id).Scan(
		&contact.ID,
		&contact.Email,
		&contact.Name,
		&contact.CreatedAt,
	); err != nil {
		return nil, translateError(err)
	}
	return &contact, nil
}
