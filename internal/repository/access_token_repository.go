package repository

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/insighta/complaints-service/internal/domain"
)

// AccessTokenRepository stores hashed guest access credentials. Rows are
// never mutated; rotation supersedes by inserting a newer row.
type AccessTokenRepository interface {
	Create(ctx context.Context, token *domain.TicketAccessToken) error
	FindValidByHash(ctx context.Context, hash string) (*domain.TicketAccessToken, error)
}

type accessTokenRepository struct {
	pool *pgxpool.Pool
}

// NewAccessTokenRepository builds repository.
func NewAccessTokenRepository(pool *pgxpool.Pool) AccessTokenRepository {
	return &accessTokenRepository{pool: pool}
}

func (r *accessTokenRepository) Create(ctx context.Context, token *domain.TicketAccessToken) error {
	const query = `
        INSERT INTO ticket_access_tokens (ticket_id, token_hash, expires_at)
        VALUES ($1,$2,$3)
        RETURNING id, created_at`
	err := r.pool.QueryRow(ctx, query,
		token.TicketID,
		token.TokenHash,
		token.ExpiresAt,
	).Scan(&token.ID, &token.CreatedAt)
	return translateError(err)
}

// FindValidByHash resolves an unexpired token by its stored hash. Compares are
// always hash-to-hash; the raw token never reaches this layer.
func (r *accessTokenRepository) FindValidByHash(ctx context.Context, hash string) (*domain.TicketAccessToken, error) {
	const query = `
        SELECT id, ticket_id, token_hash, expires_at, created_at
        FROM ticket_access_tokens
        WHERE token_hash=$1 AND expires_at > NOW()
        ORDER BY created_at DESC LIMIT 1`
	var token domain.TicketAccessToken
	if err := r.pool.QueryRow(ctx, query, hash).Scan(
		&token.ID,
		&token.TicketID,
		&token.TokenHash,
		&token.ExpiresAt,
		&token.CreatedAt,
	); err != nil {
		return nil, translateError(err)
	}
	return &token, nil
}
