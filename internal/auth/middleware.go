package auth

import (
	"errors"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/insighta/complaints-service/internal/domain"
	"github.com/insighta/complaints-service/internal/repository"
	apperrors "github.com/insighta/complaints-service/pkg/util"
)

const (
	principalKey   = "auth_principal"
	guestTicketKey = "guest_ticket_id"
)

// Principal represents the authenticated caller.
type Principal struct {
	SubjectType domain.SubjectType
	Customer    *domain.Customer
	Staff       *domain.StaffMember
	Role        *domain.StaffRole
}

// AuthMiddleware validates bearer tokens and loads principals.
type AuthMiddleware struct {
	tokens    *TokenManager
	customers repository.CustomerRepository
	staff     repository.StaffRepository
}

// NewAuthMiddleware constructs middleware.
func NewAuthMiddleware(tokens *TokenManager, customers repository.CustomerRepository, staff repository.StaffRepository) *AuthMiddleware {
	return &AuthMiddleware{tokens: tokens, customers: customers, staff: staff}
}

// Handle enforces authentication for protected routes.
func (m *AuthMiddleware) Handle(c *fiber.Ctx) error {
	token, err := bearerToken(c)
	if err != nil {
		return err
	}
	if err := m.authenticate(c, token); err != nil {
		return err
	}
	return c.Next()
}

// HandleOptional loads a principal when a bearer token is present but lets
// anonymous requests through. Ticket creation is reachable both ways.
func (m *AuthMiddleware) HandleOptional(c *fiber.Ctx) error {
	if c.Get("Authorization") == "" {
		return c.Next()
	}
	token, err := bearerToken(c)
	if err != nil {
		return err
	}
	if err := m.authenticate(c, token); err != nil {
		return err
	}
	return c.Next()
}

func (m *AuthMiddleware) authenticate(c *fiber.Ctx, token string) error {
	claims, err := m.tokens.ParseToken(token)
	if err != nil {
		return apperrors.NewUnauthorized("invalid token")
	}

	principal := &Principal{SubjectType: claims.Subject, Role: claims.Role}

	switch claims.Subject {
	case domain.SubjectTypeCustomer:
		customer, err := m.customers.GetByID(c.Context(), claims.SubjectID)
		if err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				return apperrors.NewUnauthorized("customer not found")
			}
			return apperrors.MapError(err)
		}
		principal.Customer = customer
	case domain.SubjectTypeStaff:
		staff, err := m.staff.GetByID(c.Context(), claims.SubjectID)
		if err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				return apperrors.NewUnauthorized("staff not found")
			}
			return apperrors.MapError(err)
		}
		if !staff.Active {
			return apperrors.NewUnauthorized("staff account inactive")
		}
		principal.Staff = staff
	default:
		return apperrors.NewUnauthorized("unknown subject")
	}

	c.Locals(principalKey, principal)
	return nil
}

// GuestMiddleware resolves guest bearer tokens to the single ticket they
// grant access to.
type GuestMiddleware struct {
	tokens repository.AccessTokenRepository
}

// NewGuestMiddleware constructs middleware.
func NewGuestMiddleware(tokens repository.AccessTokenRepository) *GuestMiddleware {
	return &GuestMiddleware{tokens: tokens}
}

// Handle verifies the presented token against stored hashes and expiry.
func (m *GuestMiddleware) Handle(c *fiber.Ctx) error {
	raw, err := bearerToken(c)
	if err != nil {
		return err
	}
	token, err := m.tokens.FindValidByHash(c.Context(), HashGuestToken(raw))
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return apperrors.NewUnauthorized("invalid or expired access token")
		}
		return apperrors.MapError(err)
	}
	c.Locals(guestTicketKey, token.TicketID)
	return c.Next()
}

// PrincipalFromContext retrieves the authenticated entity.
func PrincipalFromContext(c *fiber.Ctx) (*Principal, bool) {
	val := c.Locals(principalKey)
	if val == nil {
		return nil, false
	}
	principal, ok := val.(*Principal)
	return principal, ok
}

// GuestTicketFromContext retrieves the ticket id a guest token resolved to.
func GuestTicketFromContext(c *fiber.Ctx) (string, bool) {
	val, ok := c.Locals(guestTicketKey).(string)
	return val, ok && val != ""
}

func bearerToken(c *fiber.Ctx) (string, error) {
	authHeader := c.Get("Authorization")
	if authHeader == "" {
		return "", apperrors.NewUnauthorized("missing authorization header")
	}
	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return "", apperrors.NewUnauthorized("invalid authorization header")
	}
	return parts[1], nil
}
