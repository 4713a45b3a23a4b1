package handlers

import (
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/insighta/complaints-service/internal/api/dto"
	"github.com/insighta/complaints-service/internal/service"
	apperrors "github.com/insighta/complaints-service/pkg/util"
)

// AuthHandler exposes the minimal account surface.
type AuthHandler struct {
	authService *service.AuthService
}

// NewAuthHandler constructs handler.
func NewAuthHandler(authService *service.AuthService) *AuthHandler {
	return &AuthHandler{authService: authService}
}

// RegisterCustomer POST /auth/customers/register.
func (h *AuthHandler) RegisterCustomer(c *fiber.Ctx) error {
	var req dto.RegisterRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	customer, session, err := h.authService.RegisterCustomer(c.Context(), req.Name, req.Email, req.Password)
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{
		"data": fiber.Map{
			"id":    customer.ID,
			"email": customer.Email,
			"session": dto.SessionResponse{
				Token:     session.Token,
				ExpiresAt: session.ExpiresAt,
			},
		},
	})
}

// LoginCustomer POST /auth/customers/login.
func (h *AuthHandler) LoginCustomer(c *fiber.Ctx) error {
	var req dto.LoginRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	_, session, err := h.authService.LoginCustomer(c.Context(), req.Email, req.Password)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.SessionResponse{
		Token:     session.Token,
		ExpiresAt: session.ExpiresAt,
	}})
}

// LoginStaff POST /auth/staff/login.
func (h *AuthHandler) LoginStaff(c *fiber.Ctx) error {
	var req dto.LoginRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	_, session, err := h.authService.LoginStaff(c.Context(), req.Email, req.Password)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.SessionResponse{
		Token:     session.Token,
		ExpiresAt: session.ExpiresAt,
	}})
}
