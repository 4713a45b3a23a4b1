package service

import (
	"context"
	"errors"

	"go.uber.org/zap"

	"github.com/insighta/complaints-service/internal/config"
	"github.com/insighta/complaints-service/internal/events"
	"github.com/insighta/complaints-service/internal/repository"
)

// NotificationService notifies submitters about status changes. Every failure
// here is logged and swallowed; notifications never affect the mutation that
// triggered them.
type NotificationService struct {
	dispatcher events.Dispatcher
	tickets    repository.TicketRepository
	customers  repository.CustomerRepository
	guests     repository.GuestContactRepository
	logger     *zap.Logger
	cfg        config.NotificationConfig
}

// NotificationDependencies bundles collaborators.
type NotificationDependencies struct {
	Dispatcher   events.Dispatcher
	TicketRepo   repository.TicketRepository
	CustomerRepo repository.CustomerRepository
	GuestRepo    repository.GuestContactRepository
	Logger       *zap.Logger
	Config       config.NotificationConfig
}

// NewNotificationService creates the service.
func NewNotificationService(deps NotificationDependencies) *NotificationService {
	return &NotificationService{
		dispatcher: deps.Dispatcher,
		tickets:    deps.TicketRepo,
		customers:  deps.CustomerRepo,
		guests:     deps.GuestRepo,
		logger:     deps.Logger,
		cfg:        deps.Config,
	}
}

// RegisterHandlers subscribes to events.
func (n *NotificationService) RegisterHandlers() {
	if n.dispatcher == nil {
		return
	}
	n.dispatcher.Subscribe(events.EventTicketStatusChanged, n.handleStatusChanged)
	n.dispatcher.Subscribe(events.EventTicketAssigned, n.handleAssigned)
}

func (n *NotificationService) handleStatusChanged(ctx context.Context, event events.Event) error {
	payload, ok := event.Payload.(events.TicketStatusChangedPayload)
	if !ok {
		return nil
	}
	email, err := n.recipientEmail(ctx, event.TicketID)
	if err != nil {
		n.logger.Warn("could not resolve notification recipient",
			zap.String("ticket_id", event.TicketID),
			zap.Error(err))
		return nil
	}
	if email == "" || payload.TicketNumber == "" {
		return nil
	}
	n.sendEmail(email, payload.TicketNumber, string(payload.NewStatus))
	return nil
}

func (n *NotificationService) handleAssigned(ctx context.Context, event events.Event) error {
	n.logger.Info("ticket assigned",
		zap.String("ticket_id", event.TicketID),
		zap.Any("payload", event.Payload))
	return nil
}

func (n *NotificationService) recipientEmail(ctx context.Context, ticketID string) (string, error) {
	ticket, err := n.tickets.GetByID(ctx, ticketID)
	if err != nil {
		return "", err
	}
	switch {
	case ticket.CustomerID != nil:
		customer, err := n.customers.GetByID(ctx, *ticket.CustomerID)
		if err != nil {
			return "", err
		}
		return customer.Email, nil
	case ticket.GuestContactID != nil:
		guest, err := n.guests.GetByID(ctx, *ticket.GuestContactID)
		if err != nil {
			return "", err
		}
		return guest.Email, nil
	}
	return "", errors.New("ticket has no submitter reference")
}

// sendEmail hands the message to the delivery collaborator. Template
// rendering and transport live outside this core; this logs the dispatch in
// their place.
func (n *NotificationService) sendEmail(to, ticketNumber, newStatus string) {
	if n.cfg.EmailFrom == "" {
		return
	}
	n.logger.Info("status notification dispatched",
		zap.String("from", n.cfg.EmailFrom),
		zap.String("to", to),
		zap.String("ticket_number", ticketNumber),
		zap.String("new_status", newStatus))
}
