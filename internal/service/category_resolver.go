package service

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/insighta/complaints-service/internal/domain"
	"github.com/insighta/complaints-service/internal/persistence"
	"github.com/insighta/complaints-service/internal/repository"
	apperrors "github.com/insighta/complaints-service/pkg/util"
)

const (
	activeCategoriesCacheKey = "categories:active"
	activeCategoriesCacheTTL = time.Minute
)

// CategoryResolver maps creation requests to an active category id with
// deterministic fallbacks. It never creates categories. The active set is
// read through a short-TTL redis cache; cache trouble falls back to the
// repository.
type CategoryResolver struct {
	categories repository.CategoryRepository
	cache      *persistence.Redis
	logger     *zap.Logger
}

// NewCategoryResolver constructs the resolver.
func NewCategoryResolver(categories repository.CategoryRepository, cache *persistence.Redis, logger *zap.Logger) *CategoryResolver {
	return &CategoryResolver{categories: categories, cache: cache, logger: logger}
}

// Resolve picks the category for a new ticket. Order: explicit id (must be a
// well-formed identifier referencing an active category), then name match
// (exact, then case-insensitive), then the default category. fellBack is true
// only when the default was reached without an explicit match, which is what
// later permits the enrichment category override.
func (r *CategoryResolver) Resolve(ctx context.Context, categoryID, categoryName *string) (category *domain.Category, fellBack bool, err error) {
	if categoryID != nil && strings.TrimSpace(*categoryID) != "" {
		id := strings.TrimSpace(*categoryID)
		if _, err := uuid.Parse(id); err != nil {
			return nil, false, apperrors.NewValidationError("malformed category id", map[string]any{"category_id": id})
		}
		cat, err := r.categories.GetByID(ctx, id)
		if err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				return nil, false, apperrors.NewValidationError("unknown category", map[string]any{"category_id": id})
			}
			return nil, false, apperrors.MapError(err)
		}
		if !cat.IsActive {
			return nil, false, apperrors.NewValidationError("category inactive", map[string]any{"category_id": id})
		}
		return cat, false, nil
	}

	if categoryName != nil && strings.TrimSpace(*categoryName) != "" {
		name := strings.TrimSpace(*categoryName)
		cat, err := r.ActiveByName(ctx, name)
		if err == nil {
			return cat, false, nil
		}
		if !errors.Is(err, repository.ErrNotFound) {
			return nil, false, apperrors.MapError(err)
		}
		r.logger.Debug("category name did not match, falling back to default",
			zap.String("category_name", name))
	}

	def, err := r.Default(ctx)
	if err != nil {
		return nil, false, err
	}
	return def, true, nil
}

// ActiveByName finds an active category by exact match first, then
// case-insensitively. Returns repository.ErrNotFound when nothing matches.
func (r *CategoryResolver) ActiveByName(ctx context.Context, name string) (*domain.Category, error) {
	active, err := r.listActive(ctx)
	if err != nil {
		return nil, err
	}
	for i := range active {
		if active[i].Name == name {
			return &active[i], nil
		}
	}
	for i := range active {
		if strings.EqualFold(active[i].Name, name) {
			return &active[i], nil
		}
	}
	return nil, repository.ErrNotFound
}

// Default returns the guaranteed-active fallback category. Its absence is a
// system misconfiguration, not a per-request error.
func (r *CategoryResolver) Default(ctx context.Context) (*domain.Category, error) {
	cat, err := r.ActiveByName(ctx, domain.DefaultCategoryName)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			r.logger.Error("no active default category configured",
				zap.String("expected_name", domain.DefaultCategoryName))
			return nil, apperrors.NewInternalError(errors.New("no active default category"))
		}
		return nil, apperrors.MapError(err)
	}
	return cat, nil
}

func (r *CategoryResolver) listActive(ctx context.Context) ([]domain.Category, error) {
	if data, ok := r.cacheGet(ctx); ok {
		return data, nil
	}
	active, err := r.categories.ListActive(ctx)
	if err != nil {
		return nil, err
	}
	r.cacheSet(ctx, active)
	return active, nil
}

func (r *CategoryResolver) cacheGet(ctx context.Context) ([]domain.Category, bool) {
	if r.cache == nil || r.cache.Client == nil {
		return nil, false
	}
	data, err := r.cache.Client.Get(ctx, activeCategoriesCacheKey).Bytes()
	if err != nil {
		return nil, false
	}
	var active []domain.Category
	if err := json.Unmarshal(data, &active); err != nil {
		return nil, false
	}
	return active, true
}

func (r *CategoryResolver) cacheSet(ctx context.Context, active []domain.Category) {
	if r.cache == nil || r.cache.Client == nil {
		return
	}
	data, err := json.Marshal(active)
	if err != nil {
		return
	}
	if err := r.cache.Client.Set(ctx, activeCategoriesCacheKey, data, activeCategoriesCacheTTL).Err(); err != nil {
		r.logger.Debug("category cache write failed", zap.Error(err))
	}
}
