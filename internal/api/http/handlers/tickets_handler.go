package handlers

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/insighta/complaints-service/internal/api/dto"
	"github.com/insighta/complaints-service/internal/auth"
	"github.com/insighta/complaints-service/internal/domain"
	"github.com/insighta/complaints-service/internal/service"
	apperrors "github.com/insighta/complaints-service/pkg/util"
)

// TicketsHandler manages submitter-facing ticket endpoints.
type TicketsHandler struct {
	tickets *service.TicketService
}

// NewTicketsHandler constructs handler.
func NewTicketsHandler(tickets *service.TicketService) *TicketsHandler {
	return &TicketsHandler{tickets: tickets}
}

// CreateTicket POST /tickets. Reachable authenticated (customer session) or
// anonymously (guest email in the body).
func (h *TicketsHandler) CreateTicket(c *fiber.Ctx) error {
	var req dto.CreateTicketRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	if req.CustomerID != nil && strings.TrimSpace(*req.CustomerID) != "" {
		// Identity comes from the verified session only.
		return apperrors.NewValidationError("customer_id must not be supplied in the body", nil)
	}

	input := service.TicketCreateInput{
		Title:        req.Title,
		Description:  req.Description,
		CategoryID:   req.CategoryID,
		CategoryName: req.CategoryName,
		GuestEmail:   req.GuestEmail,
	}
	if req.Type != nil {
		input.Type = domain.TicketType(strings.ToUpper(strings.TrimSpace(*req.Type)))
	}
	if principal, ok := auth.PrincipalFromContext(c); ok && principal.Customer != nil {
		input.CustomerID = &principal.Customer.ID
	}

	created, err := h.tickets.CreateTicket(c.Context(), input)
	if err != nil {
		return err
	}

	ticket := created.Ticket
	return c.Status(http.StatusCreated).JSON(fiber.Map{"data": dto.CreateTicketResponse{
		ID:           ticket.ID,
		TicketNumber: ticket.TicketNumber,
		Status:       ticket.Status,
		Priority:     ticket.Priority,
		CreatedAt:    ticket.CreatedAt,
		AccessToken:  created.AccessToken,
	}})
}

// ListTickets GET /tickets.
func (h *TicketsHandler) ListTickets(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok || principal.Customer == nil {
		return apperrors.NewUnauthorized("customer required")
	}
	page := parseInt(c.Query("page"), 1)
	pageSize := parseInt(c.Query("page_size"), 20)
	tickets, err := h.tickets.ListCustomerTickets(c.Context(), principal.Customer.ID, pageSize, (page-1)*pageSize)
	if err != nil {
		return err
	}
	items := make([]dto.TicketSummary, 0, len(tickets))
	for i := range tickets {
		items = append(items, ticketSummary(&tickets[i]))
	}
	return c.JSON(fiber.Map{"data": items})
}

// GetTicket GET /tickets/:id.
func (h *TicketsHandler) GetTicket(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok || principal.Customer == nil {
		return apperrors.NewUnauthorized("customer required")
	}
	ticket, err := h.tickets.GetTicketForCustomer(c.Context(), principal.Customer.ID, c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": ticketDetail(ticket, nil)})
}

// GetGuestTicket GET /guest/ticket. The guest token middleware resolved the
// bearer token to a single ticket id.
func (h *TicketsHandler) GetGuestTicket(c *fiber.Ctx) error {
	ticketID, ok := auth.GuestTicketFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("guest token required")
	}
	ticket, err := h.tickets.GetTicketForGuest(c.Context(), ticketID)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": ticketDetail(ticket, nil)})
}

func parseInt(val string, def int) int {
	if val == "" {
		return def
	}
	parsed, err := strconv.Atoi(val)
	if err != nil || parsed <= 0 {
		return def
	}
	return parsed
}

func ticketSummary(ticket *domain.Ticket) dto.TicketSummary {
	return dto.TicketSummary{
		ID:              ticket.ID,
		TicketNumber:    ticket.TicketNumber,
		Type:            ticket.Type,
		Status:          ticket.Status,
		Priority:        ticket.Priority,
		Title:           ticket.Title,
		CategoryID:      ticket.CategoryID,
		AssignedStaffID: ticket.AssignedStaffID,
		CreatedAt:       ticket.CreatedAt,
		UpdatedAt:       ticket.UpdatedAt,
	}
}

func ticketDetail(ticket *domain.Ticket, history []domain.TicketStatusEntry) dto.TicketDetailResponse {
	detail := dto.TicketDetailResponse{
		TicketSummary: ticketSummary(ticket),
		Description:   ticket.Description,
		Sentiment:     ticket.Sentiment,
		Intent:        ticket.Intent,
		IssueType:     ticket.IssueType,
	}
	for _, entry := range history {
		detail.History = append(detail.History, dto.StatusHistoryEntry{
			ID:               entry.ID,
			OldStatus:        entry.OldStatus,
			NewStatus:        entry.NewStatus,
			ChangedByStaffID: entry.ChangedByStaffID,
			Remarks:          entry.Remarks,
			CreatedAt:        entry.CreatedAt,
		})
	}
	return detail
}
