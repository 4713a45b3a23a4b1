package enrichment

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/insighta/complaints-service/internal/config"
	"github.com/insighta/complaints-service/internal/domain"
	"github.com/insighta/complaints-service/internal/observability"
	"github.com/insighta/complaints-service/internal/repository"
	apperrors "github.com/insighta/complaints-service/pkg/util"
)

// CategoryDirectory resolves active categories for classifier suggestions.
type CategoryDirectory interface {
	ActiveByName(ctx context.Context, name string) (*domain.Category, error)
	Default(ctx context.Context) (*domain.Category, error)
}

// Outcome summarizes what a single enrichment pass changed.
type Outcome struct {
	FieldsUpdated   bool
	CategoryUpdated bool
}

// TicketFailure records one failed ticket inside a batch.
type TicketFailure struct {
	TicketID string `json:"ticket_id"`
	Error    string `json:"error"`
}

// Report aggregates a batch reprocessing run.
type Report struct {
	Processed int             `json:"processed"`
	Succeeded int             `json:"succeeded"`
	Failed    int             `json:"failed"`
	Failures  []TicketFailure `json:"failures,omitempty"`
}

// Service runs the classification pass over tickets and projects the result
// onto ticket fields. Category writes go through a conditional update so a
// human recategorization made in the interim always wins.
type Service struct {
	classifier Classifier
	tickets    repository.TicketRepository
	categories CategoryDirectory
	logger     *zap.Logger
	metrics    *observability.Metrics
	cfg        config.ReprocessConfig
}

// Dependencies bundles collaborators for the enrichment service.
type Dependencies struct {
	Classifier Classifier
	TicketRepo repository.TicketRepository
	Categories CategoryDirectory
	Logger     *zap.Logger
	Metrics    *observability.Metrics
	Reprocess  config.ReprocessConfig
}

// NewService constructs the service.
func NewService(deps Dependencies) *Service {
	return &Service{
		classifier: deps.Classifier,
		tickets:    deps.TicketRepo,
		categories: deps.Categories,
		logger:     deps.Logger,
		metrics:    deps.Metrics,
		cfg:        deps.Reprocess,
	}
}

// Enrich classifies the text and applies the result to the ticket. Sentiment,
// intent, issue type and priority have no competing human writer and are
// overwritten unconditionally. The category is only swapped when the caller
// permitted override and the ticket's category still equals the fallback
// supplied at call time; a miss on that predicate is a silent no-op.
func (s *Service) Enrich(ctx context.Context, ticketID, text string, allowCategoryOverride bool, fallbackCategoryID string) (Outcome, error) {
	var out Outcome

	result, err := s.classifier.Classify(ctx, ticketID, text)
	if err != nil {
		s.metrics.RecordEnrichment(observability.EnrichmentOutcomeFailed)
		return out, fmt.Errorf("classify ticket %s: %w", ticketID, err)
	}

	fields := projectFields(result)
	if !fields.Empty() {
		if err := s.tickets.UpdateEnrichment(ctx, ticketID, fields); err != nil {
			s.metrics.RecordEnrichment(observability.EnrichmentOutcomeFailed)
			return out, fmt.Errorf("update enrichment fields for ticket %s: %w", ticketID, err)
		}
		out.FieldsUpdated = true
	}

	if allowCategoryOverride && result.SuggestedCategory != nil {
		updated, err := s.applyCategorySuggestion(ctx, ticketID, *result.SuggestedCategory, fallbackCategoryID)
		if err != nil {
			s.metrics.RecordEnrichment(observability.EnrichmentOutcomeFailed)
			return out, err
		}
		out.CategoryUpdated = updated
	}

	s.metrics.RecordEnrichment(observability.EnrichmentOutcomeSucceeded)
	return out, nil
}

func (s *Service) applyCategorySuggestion(ctx context.Context, ticketID, suggestion, fallbackCategoryID string) (bool, error) {
	name := strings.TrimSpace(suggestion)
	if name == "" {
		return false, nil
	}
	category, err := s.categories.ActiveByName(ctx, name)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			s.logger.Debug("classifier suggested unknown category",
				zap.String("ticket_id", ticketID),
				zap.String("suggestion", name))
			return false, nil
		}
		return false, fmt.Errorf("resolve suggested category for ticket %s: %w", ticketID, err)
	}
	if category.ID == fallbackCategoryID {
		return false, nil
	}

	matched, err := s.tickets.UpdateCategoryIf(ctx, ticketID, category.ID, fallbackCategoryID)
	if err != nil {
		return false, fmt.Errorf("conditional category update for ticket %s: %w", ticketID, err)
	}
	if matched {
		s.metrics.RecordEnrichment(observability.EnrichmentOutcomeCategoryApplied)
	} else {
		// A human claimed the category first; their choice stands.
		s.metrics.RecordEnrichment(observability.EnrichmentOutcomeCategorySkipped)
		s.logger.Info("category override skipped, ticket recategorized in the interim",
			zap.String("ticket_id", ticketID),
			zap.String("suggested_category_id", category.ID))
	}
	return matched, nil
}

// Reprocess re-runs enrichment over a bounded set of tickets. With an explicit
// id list, those tickets are used; otherwise tickets missing any of the three
// core NLP fields are scanned up to limit. One ticket's failure never aborts
// the batch.
func (s *Service) Reprocess(ctx context.Context, ticketIDs []string, limit int) (*Report, error) {
	maxBatch := s.cfg.MaxBatchSize
	if maxBatch <= 0 {
		maxBatch = 200
	}
	if len(ticketIDs) > maxBatch {
		return nil, apperrors.NewValidationError("too many ticket ids", map[string]any{
			"max": maxBatch,
		})
	}
	if limit <= 0 {
		limit = s.cfg.DefaultLimit
	}
	if limit <= 0 || limit > maxBatch {
		limit = maxBatch
	}

	var (
		tickets []domain.Ticket
		err     error
	)
	if len(ticketIDs) > 0 {
		tickets, err = s.tickets.GetByIDs(ctx, ticketIDs)
	} else {
		tickets, err = s.tickets.ListMissingEnrichment(ctx, limit)
	}
	if err != nil {
		return nil, apperrors.MapError(err)
	}

	defaultCategory, err := s.categories.Default(ctx)
	if err != nil {
		return nil, apperrors.MapError(err)
	}

	report := &Report{}
	for i := range tickets {
		ticket := &tickets[i]
		report.Processed++

		// Override stays restricted to tickets still on the fallback
		// category; explicit human choices are never revisited.
		allowOverride := ticket.CategoryID == defaultCategory.ID
		_, enrichErr := s.Enrich(ctx, ticket.ID, CombineText(ticket.Title, ticket.Description), allowOverride, ticket.CategoryID)
		if enrichErr != nil {
			report.Failed++
			report.Failures = append(report.Failures, TicketFailure{
				TicketID: ticket.ID,
				Error:    enrichErr.Error(),
			})
			s.logger.Warn("reprocess enrichment failed",
				zap.String("ticket_id", ticket.ID),
				zap.Error(enrichErr))
			continue
		}
		report.Succeeded++
	}
	return report, nil
}

// CombineText joins title and description into the classifier input.
func CombineText(title, description string) string {
	title = strings.TrimSpace(title)
	description = strings.TrimSpace(description)
	if title == "" {
		return description
	}
	return title + "\n\n" + description
}

func projectFields(result *Result) repository.EnrichmentFields {
	fields := repository.EnrichmentFields{}
	if v := trimmed(result.Sentiment); v != nil {
		fields.Sentiment = v
	}
	if v := trimmed(result.Intent); v != nil {
		fields.Intent = v
	}
	if v := trimmed(result.IssueType); v != nil {
		fields.IssueType = v
	}
	if result.Priority != nil {
		if priority, ok := domain.ParsePriority(*result.Priority); ok {
			fields.Priority = &priority
		}
	}
	return fields
}

func trimmed(val *string) *string {
	if val == nil {
		return nil
	}
	v := strings.TrimSpace(*val)
	if v == "" {
		return nil
	}
	return &v
}
