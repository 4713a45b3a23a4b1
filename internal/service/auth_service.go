package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/insighta/complaints-service/internal/auth"
	"github.com/insighta/complaints-service/internal/config"
	"github.com/insighta/complaints-service/internal/domain"
	"github.com/insighta/complaints-service/internal/repository"
	apperrors "github.com/insighta/complaints-service/pkg/util"
)

// AuthService handles customer registration and customer/staff login.
type AuthService struct {
	customers  repository.CustomerRepository
	staff      repository.StaffRepository
	tokens     *auth.TokenManager
	bcryptCost int
}

// AuthDependencies bundles repositories for auth.
type AuthDependencies struct {
	CustomerRepo repository.CustomerRepository
	StaffRepo    repository.StaffRepository
}

// Session is an issued login token.
type Session struct {
	Token     string
	ExpiresAt time.Time
}

// NewAuthService constructs the service.
func NewAuthService(cfg config.Config, deps AuthDependencies) *AuthService {
	return &AuthService{
		customers:  deps.CustomerRepo,
		staff:      deps.StaffRepo,
		tokens:     auth.NewTokenManager(cfg.Auth.JWTSecret, cfg.Auth.AccessTokenTTLMinutes),
		bcryptCost: cfg.Auth.BcryptCost,
	}
}

// TokenManager exposes the manager for middleware wiring.
func (s *AuthService) TokenManager() *auth.TokenManager {
	return s.tokens
}

// RegisterCustomer creates a customer account and logs it in.
func (s *AuthService) RegisterCustomer(ctx context.Context, name, email, password string) (*domain.Customer, *Session, error) {
	name = strings.TrimSpace(name)
	email = domain.NormalizeEmail(email)
	if name == "" || email == "" || password == "" {
		return nil, nil, apperrors.NewValidationError("name, email and password required", nil)
	}

	hash, err := auth.HashPassword(password, s.bcryptCost)
	if err != nil {
		return nil, nil, apperrors.MapError(err)
	}
	customer := &domain.Customer{Name: name, Email: email, PasswordHash: hash}
	if err := s.customers.Create(ctx, customer); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, nil, apperrors.NewConflict("email already registered", nil)
		}
		return nil, nil, apperrors.MapError(err)
	}

	session, err := s.issueSession(customer.ID, domain.SubjectTypeCustomer, nil)
	if err != nil {
		return nil, nil, err
	}
	return customer, session, nil
}

// LoginCustomer verifies credentials and issues a session token.
func (s *AuthService) LoginCustomer(ctx context.Context, email, password string) (*domain.Customer, *Session, error) {
	customer, err := s.customers.GetByEmail(ctx, domain.NormalizeEmail(email))
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, nil, apperrors.NewUnauthorized("invalid credentials")
		}
		return nil, nil, apperrors.MapError(err)
	}
	if err := auth.ComparePassword(customer.PasswordHash, password); err != nil {
		return nil, nil, apperrors.NewUnauthorized("invalid credentials")
	}
	session, err := s.issueSession(customer.ID, domain.SubjectTypeCustomer, nil)
	if err != nil {
		return nil, nil, err
	}
	return customer, session, nil
}

// LoginStaff verifies staff credentials and issues a session token.
func (s *AuthService) LoginStaff(ctx context.Context, email, password string) (*domain.StaffMember, *Session, error) {
	staff, err := s.staff.GetByEmail(ctx, domain.NormalizeEmail(email))
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, nil, apperrors.NewUnauthorized("invalid credentials")
		}
		return nil, nil, apperrors.MapError(err)
	}
	if !staff.Active {
		return nil, nil, apperrors.NewUnauthorized("staff account inactive")
	}
	if err := auth.ComparePassword(staff.PasswordHash, password); err != nil {
		return nil, nil, apperrors.NewUnauthorized("invalid credentials")
	}
	role := staff.Role
	session, err := s.issueSession(staff.ID, domain.SubjectTypeStaff, &role)
	if err != nil {
		return nil, nil, err
	}
	return staff, session, nil
}

func (s *AuthService) issueSession(subjectID string, subject domain.SubjectType, role *domain.StaffRole) (*Session, error) {
	token, expiresAt, err := s.tokens.GenerateToken(subjectID, subject, role)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	return &Session{Token: token, ExpiresAt: expiresAt}, nil
}
