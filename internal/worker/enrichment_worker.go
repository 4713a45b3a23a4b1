package worker

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/insighta/complaints-service/internal/enrichment"
	"github.com/insighta/complaints-service/internal/events"
	"github.com/insighta/complaints-service/internal/service"
)

// StartEnrichmentWorker subscribes the enrichment pass to ticket creation.
// The pass runs in a detached goroutine with its own deadline so it can never
// block or fail the creation response; its outcome is observable only through
// logs and the persisted ticket fields.
func StartEnrichmentWorker(dispatcher events.Dispatcher, enricher *enrichment.Service, logger *zap.Logger, timeout time.Duration) {
	if dispatcher == nil || enricher == nil {
		return
	}
	if timeout <= 0 {
		timeout = 30 * time.Second
	}

	dispatcher.Subscribe(events.EventTicketCreated, func(_ context.Context, event events.Event) error {
		payload, ok := event.Payload.(events.TicketCreatedPayload)
		if !ok {
			return nil
		}
		go func() {
			ctx, cancel := context.WithTimeout(context.Background(), timeout)
			defer cancel()

			outcome, err := enricher.Enrich(ctx, event.TicketID, payload.Text, payload.AllowCategoryOverride, payload.FallbackCategoryID)
			if err != nil {
				logger.Warn("enrichment failed",
					zap.String("ticket_id", event.TicketID),
					zap.Error(err))
				return
			}
			logger.Info("enrichment completed",
				zap.String("ticket_id", event.TicketID),
				zap.Bool("fields_updated", outcome.FieldsUpdated),
				zap.Bool("category_updated", outcome.CategoryUpdated))

			_ = dispatcher.Publish(ctx, events.Event{
				ID:        uuid.NewString(),
				Type:      events.EventTicketEnriched,
				TicketID:  event.TicketID,
				Timestamp: time.Now(),
				Payload: events.TicketEnrichedPayload{
					FieldsUpdated:   outcome.FieldsUpdated,
					CategoryUpdated: outcome.CategoryUpdated,
				},
			})
		}()
		return nil
	})
}

// StartNotificationWorker registers notification handlers.
func StartNotificationWorker(notifications *service.NotificationService) {
	if notifications == nil {
		return
	}
	notifications.RegisterHandlers()
}
