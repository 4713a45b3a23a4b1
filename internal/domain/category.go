package domain

import (
	"strings"
	"time"
)

// DefaultCategoryName is the guaranteed-active fallback category that creation
// and enrichment depend on.
const DefaultCategoryName = "Uncategorized"

// Category classifies complaints. Display names are unique case-insensitively
// among active categories.
type Category struct {
	ID        string
	Name      string
	IsActive  bool
	CreatedAt time.Time
}

func normalizeEnum(raw string) string {
	return strings.ToUpper(strings.TrimSpace(raw))
}
