package service

import (
	"context"
	"testing"

	"go.uber.org/zap"

	"github.com/insighta/complaints-service/internal/domain"
	apperrors "github.com/insighta/complaints-service/pkg/util"
)

const (
	defaultCatID = "11111111-1111-1111-1111-111111111111"
	billingCatID = "22222222-2222-2222-2222-222222222222"
	legacyCatID  = "33333333-3333-3333-3333-333333333333"
)

func newResolverForTest(t *testing.T, categories []domain.Category) *CategoryResolver {
	t.Helper()
	return NewCategoryResolver(&fakeCategoryRepo{categories: categories}, nil, zap.NewNop())
}

func standardCategories() []domain.Category {
	return []domain.Category{
		{ID: defaultCatID, Name: domain.DefaultCategoryName, IsActive: true},
		{ID: billingCatID, Name: "Billing", IsActive: true},
		{ID: legacyCatID, Name: "Legacy", IsActive: false},
	}
}

func TestResolveExplicitID(t *testing.T) {
	r := newResolverForTest(t, standardCategories())

	cat, fellBack, err := r.Resolve(context.Background(), strPtr(billingCatID), nil)
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if cat.ID != billingCatID {
		t.Fatalf("category = %q, want billing", cat.ID)
	}
	if fellBack {
		t.Fatalf("explicit id must not be reported as fallback")
	}
}

func TestResolveExplicitIDRejections(t *testing.T) {
	r := newResolverForTest(t, standardCategories())
	ctx := context.Background()

	cases := []struct {
		name string
		id   string
	}{
		{"malformed", "not-a-uuid"},
		{"unknown", "99999999-9999-9999-9999-999999999999"},
		{"inactive", legacyCatID},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, _, err := r.Resolve(ctx, strPtr(tc.id), nil)
			if err == nil {
				t.Fatalf("expected rejection for %q", tc.id)
			}
			if code := apperrors.ToDomainError(err).Code; code != "VALIDATION_FAILED" {
				t.Fatalf("error code = %q, want VALIDATION_FAILED", code)
			}
		})
	}
}

func TestResolveNameMatching(t *testing.T) {
	r := newResolverForTest(t, standardCategories())
	ctx := context.Background()

	cat, fellBack, err := r.Resolve(ctx, nil, strPtr("Billing"))
	if err != nil || cat.ID != billingCatID || fellBack {
		t.Fatalf("exact match: cat=%v fellBack=%v err=%v", cat, fellBack, err)
	}

	cat, fellBack, err = r.Resolve(ctx, nil, strPtr("bILLing"))
	if err != nil || cat.ID != billingCatID || fellBack {
		t.Fatalf("case-insensitive match: cat=%v fellBack=%v err=%v", cat, fellBack, err)
	}
}

func TestResolveUnknownNameFallsBack(t *testing.T) {
	r := newResolverForTest(t, standardCategories())

	cat, fellBack, err := r.Resolve(context.Background(), nil, strPtr("Shipping"))
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if cat.ID != defaultCatID {
		t.Fatalf("category = %q, want default", cat.ID)
	}
	if !fellBack {
		t.Fatalf("fallback must be reported so enrichment may override")
	}
}

func TestResolveInactiveNameFallsBack(t *testing.T) {
	r := newResolverForTest(t, standardCategories())

	cat, fellBack, err := r.Resolve(context.Background(), nil, strPtr("Legacy"))
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if cat.ID != defaultCatID || !fellBack {
		t.Fatalf("inactive name must fall back to default, got %q fellBack=%v", cat.ID, fellBack)
	}
}

func TestResolveNothingProvidedUsesDefault(t *testing.T) {
	r := newResolverForTest(t, standardCategories())

	cat, fellBack, err := r.Resolve(context.Background(), nil, nil)
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if cat.Name != domain.DefaultCategoryName || !fellBack {
		t.Fatalf("want default category with fellBack=true, got %q %v", cat.Name, fellBack)
	}
}

func TestResolveMissingDefaultIsInternalError(t *testing.T) {
	r := newResolverForTest(t, []domain.Category{
		{ID: billingCatID, Name: "Billing", IsActive: true},
	})

	_, _, err := r.Resolve(context.Background(), nil, nil)
	if err == nil {
		t.Fatalf("expected misconfiguration error")
	}
	if code := apperrors.ToDomainError(err).Code; code != "INTERNAL_ERROR" {
		t.Fatalf("error code = %q, want INTERNAL_ERROR", code)
	}
}
