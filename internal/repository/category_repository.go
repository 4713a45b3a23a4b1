package repository

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/insighta/complaints-service/internal/domain"
)

// CategoryRepository reads complaint categories. Category administration is
// handled elsewhere; this core never creates or mutates them.
type CategoryRepository interface {
	GetByID(ctx context.Context, id string) (*domain.Category, error)
	ListActive(ctx context.Context) ([]domain.Category, error)
}

type categoryRepository struct {
	pool *pgxpool.Pool
}

// NewCategoryRepository builds repository.
func NewCategoryRepository(pool *pgxpool.Pool) CategoryRepository {
	return &categoryRepository{pool: pool}
}

func (r *categoryRepository) GetByID(ctx context.Context, id string) (*domain.Category, error) {
	const query = `SELECT id, name, is_active, created_at FROM categories WHERE id=$1`
	var category domain.Category
	if err := r.pool.QueryRow(ctx, query, id).Scan(
		&category.ID,
		&category.Name,
		&category.IsActive,
		&category.CreatedAt,
	); err != nil {
		return nil, translateError(err)
	}
	return &category, nil
}

func (r *categoryRepository) ListActive(ctx context.Context) ([]domain.Category, error) {
	const query = `SELECT id, name, is_active, created_at FROM categories WHERE is_active ORDER BY name ASC`
	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, translateError(err)
	}
	defer rows.Close()

	var result []domain.Category
	for rows.Next() {
		var category domain.Category
		if err := rows.Scan(
			&category.ID,
			&category.Name,
			&category.IsActive,
			&category.CreatedAt,
		); err != nil {
			return nil, err
		}
		result = append(result, category)
	}
	return result, rows.Err()
}
