package handlers

import (
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/insighta/complaints-service/internal/api/dto"
	"github.com/insighta/complaints-service/internal/auth"
	"github.com/insighta/complaints-service/internal/domain"
	"github.com/insighta/complaints-service/internal/repository"
	"github.com/insighta/complaints-service/internal/service"
	apperrors "github.com/insighta/complaints-service/pkg/util"
)

// StaffTicketsHandler handles staff queue and mutation endpoints.
type StaffTicketsHandler struct {
	tickets     *service.TicketService
	assignments *service.AssignmentService
}

// NewStaffTicketsHandler constructs handler.
func NewStaffTicketsHandler(tickets *service.TicketService, assignments *service.AssignmentService) *StaffTicketsHandler {
	return &StaffTicketsHandler{tickets: tickets, assignments: assignments}
}

// ListTickets GET /staff/tickets.
func (h *StaffTicketsHandler) ListTickets(c *fiber.Ctx) error {
	if _, err := staffPrincipal(c); err != nil {
		return err
	}
	filter := parseStaffFilter(c)
	tickets, err := h.tickets.ListStaffTickets(c.Context(), filter)
	if err != nil {
		return err
	}
	items := make([]dto.TicketSummary, 0, len(tickets))
	for i := range tickets {
		items = append(items, ticketSummary(&tickets[i]))
	}
	return c.JSON(fiber.Map{"data": items})
}

// GetTicket GET /staff/tickets/:id.
func (h *StaffTicketsHandler) GetTicket(c *fiber.Ctx) error {
	if _, err := staffPrincipal(c); err != nil {
		return err
	}
	ticket, history, err := h.tickets.GetTicketForStaff(c.Context(), c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": ticketDetail(ticket, history)})
}

// UpdateStatus PATCH /staff/tickets/:id/status.
func (h *StaffTicketsHandler) UpdateStatus(c *fiber.Ctx) error {
	staff, err := staffPrincipal(c)
	if err != nil {
		return err
	}
	var req dto.UpdateStatusRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	status := domain.TicketStatus(strings.ToUpper(strings.TrimSpace(req.Status)))

	result, err := h.tickets.UpdateStatus(c.Context(), staff, c.Params("id"), status, req.Remarks)
	if err != nil {
		return err
	}
	message := "status updated"
	if !result.Changed {
		message = "no changes"
	}
	return c.JSON(fiber.Map{
		"data":    ticketSummary(result.Ticket),
		"message": message,
	})
}

// SelfAssign POST /staff/tickets/:id/assign.
func (h *StaffTicketsHandler) SelfAssign(c *fiber.Ctx) error {
	staff, err := staffPrincipal(c)
	if err != nil {
		return err
	}
	result, err := h.assignments.SelfAssign(c.Context(), staff, c.Params("id"))
	if err != nil {
		return err
	}
	message := "assigned to you"
	if result.AlreadyYours {
		message = "already assigned to you"
	}
	return c.JSON(fiber.Map{
		"data":    ticketSummary(result.Ticket),
		"message": message,
	})
}

func staffPrincipal(c *fiber.Ctx) (*domain.StaffMember, error) {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok || principal.Staff == nil {
		return nil, apperrors.NewUnauthorized("staff required")
	}
	return principal.Staff, nil
}

func parseStaffFilter(c *fiber.Ctx) repository.TicketFilter {
	filter := repository.TicketFilter{}
	if statusStr := c.Query("status"); statusStr != "" {
		for _, part := range strings.Split(statusStr, ",") {
			filter.Statuses = append(filter.Statuses, domain.TicketStatus(strings.ToUpper(strings.TrimSpace(part))))
		}
	}
	if priorityStr := c.Query("priority"); priorityStr != "" {
		for _, part := range strings.Split(priorityStr, ",") {
			filter.Priorities = append(filter.Priorities, domain.TicketPriority(strings.ToUpper(strings.TrimSpace(part))))
		}
	}
	if assignee := c.Query("assigned_staff_id"); assignee != "" {
		filter.AssignedStaffID = &assignee
	}
	if categoryID := c.Query("category_id"); categoryID != "" {
		filter.CategoryID = &categoryID
	}
	if search := c.Query("search"); search != "" {
		filter.SearchTerm = &search
	}
	page := parseInt(c.Query("page"), 1)
	pageSize := parseInt(c.Query("page_size"), 20)
	filter.Offset = (page - 1) * pageSize
	filter.Limit = pageSize
	return filter
}
