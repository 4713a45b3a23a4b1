package observability

import (
	"strconv"
	"sync"
	"time"
)

// Enrichment outcome labels.
const (
	EnrichmentOutcomeSucceeded       = "succeeded"
	EnrichmentOutcomeFailed          = "failed"
	EnrichmentOutcomeCategoryApplied = "category_applied"
	EnrichmentOutcomeCategorySkipped = "category_skipped"
)

// Metrics provides basic in-memory counters.
type Metrics struct {
	mu              sync.Mutex
	requestCount    map[string]int64
	errorCount      map[string]int64
	enrichmentCount map[string]int64
}

// NewMetrics initializes metrics storage.
func NewMetrics() *Metrics {
	return &Metrics{
		requestCount:    make(map[string]int64),
		errorCount:      make(map[string]int64),
		enrichmentCount: make(map[string]int64),
	}
}

// RecordRequest increments counters for requests.
func (m *Metrics) RecordRequest(path, method string, status int, duration time.Duration) {
	if m == nil {
		return
	}
	key := path + "|" + method + "|" + strconv.Itoa(status)
	m.mu.Lock()
	defer m.mu.Unlock()
	m.requestCount[key]++
}

// RecordError increments error counters.
func (m *Metrics) RecordError(path, method, code string) {
	if m == nil {
		return
	}
	key := path + "|" + method + "|" + code
	m.mu.Lock()
	defer m.mu.Unlock()
	m.errorCount[key]++
}

// RecordEnrichment increments enrichment outcome counters.
func (m *Metrics) RecordEnrichment(outcome string) {
	if m == nil {
		return
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.enrichmentCount[outcome]++
}

// EnrichmentCount returns the counter for an outcome label.
func (m *Metrics) EnrichmentCount(outcome string) int64 {
	if m == nil {
		return 0
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.enrichmentCount[outcome]
}
