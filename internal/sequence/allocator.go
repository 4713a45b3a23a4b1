// Package sequence computes human-readable ticket numbers.
//
// The allocator never caches the next number in process memory: every call
// re-reads the latest issued number from the store, so the only race left is
// two writers computing the same candidate. That race is resolved by the
// unique index on ticket_number; the caller retries on the resulting
// duplicate error.
package sequence

import (
	"context"
	"fmt"
	"strconv"
	"strings"
)

// Prefix is the human-facing ticket number prefix.
const Prefix = "TKT-"

// MaxAttempts bounds the insert retry loop under write contention.
const MaxAttempts = 3

// LatestSource reads the most recently issued ticket number ("" when none).
type LatestSource interface {
	LatestNumber(ctx context.Context) (string, error)
}

// Allocator produces candidate ticket numbers.
type Allocator struct {
	source LatestSource
}

// NewAllocator builds an allocator over the given source.
func NewAllocator(source LatestSource) *Allocator {
	return &Allocator{source: source}
}

// Next returns the next candidate number. The result is not reserved; the
// insert's unique constraint is the arbiter.
func (a *Allocator) Next(ctx context.Context) (string, error) {
	latest, err := a.source.LatestNumber(ctx)
	if err != nil {
		return "", fmt.Errorf("read latest ticket number: %w", err)
	}
	if latest == "" {
		return Format(1), nil
	}
	n, err := Parse(latest)
	if err != nil {
		return "", fmt.Errorf("latest ticket number %q: %w", latest, err)
	}
	return Format(n + 1), nil
}

// Format renders a sequence value as a zero-padded ticket number.
func Format(n int) string {
	return fmt.Sprintf("%s%05d", Prefix, n)
}

// Parse extracts the numeric suffix from a ticket number.
func Parse(number string) (int, error) {
	if !strings.HasPrefix(number, Prefix) {
		return 0, fmt.Errorf("malformed ticket number")
	}
	n, err := strconv.Atoi(strings.TrimPrefix(number, Prefix))
	if err != nil || n < 0 {
		return 0, fmt.Errorf("malformed ticket number")
	}
	return n, nil
}
