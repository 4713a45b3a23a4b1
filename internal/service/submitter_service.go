package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/insighta/complaints-service/internal/auth"
	"github.com/insighta/complaints-service/internal/domain"
	"github.com/insighta/complaints-service/internal/repository"
	apperrors "github.com/insighta/complaints-service/pkg/util"
)

// Submitter identifies who a ticket belongs to: exactly one of the two
// references is set.
type Submitter struct {
	CustomerID     *string
	GuestContactID *string
}

// SubmitterService resolves creation requests to a submitter identity and
// issues guest access credentials.
type SubmitterService struct {
	guests   repository.GuestContactRepository
	tokens   repository.AccessTokenRepository
	tokenTTL time.Duration
	logger   *zap.Logger
}

// NewSubmitterService constructs the service.
func NewSubmitterService(guests repository.GuestContactRepository, tokens repository.AccessTokenRepository, tokenTTL time.Duration, logger *zap.Logger) *SubmitterService {
	return &SubmitterService{guests: guests, tokens: tokens, tokenTTL: tokenTTL, logger: logger}
}

// Resolve maps the request to either the verified customer id or a
// deduplicated guest contact. customerID comes from the authenticated
// session, never from the request body. Supplying both identities, or
// neither, is a validation error.
func (s *SubmitterService) Resolve(ctx context.Context, customerID, guestEmail *string) (Submitter, error) {
	hasCustomer := customerID != nil && strings.TrimSpace(*customerID) != ""
	hasGuest := guestEmail != nil && strings.TrimSpace(*guestEmail) != ""

	switch {
	case hasCustomer && hasGuest:
		return Submitter{}, apperrors.NewValidationError("authenticated submissions must not carry a guest email", nil)
	case !hasCustomer && !hasGuest:
		return Submitter{}, apperrors.NewValidationError("either an authenticated session or a guest email is required", nil)
	case hasCustomer:
		id := strings.TrimSpace(*customerID)
		return Submitter{CustomerID: &id}, nil
	}

	email := domain.NormalizeEmail(*guestEmail)
	if !strings.Contains(email, "@") {
		return Submitter{}, apperrors.NewValidationError("invalid guest email", nil)
	}

	contact, err := s.guests.FindOldestByEmail(ctx, email)
	if err != nil {
		if !errors.Is(err, repository.ErrNotFound) {
			return Submitter{}, apperrors.MapError(err)
		}
		contact = &domain.GuestContact{Email: email}
		if err := s.guests.Create(ctx, contact); err != nil {
			// A concurrent first ticket from the same email may have won
			// the insert; reuse their contact.
			if errors.Is(err, repository.ErrDuplicate) {
				contact, err = s.guests.FindOldestByEmail(ctx, email)
				if err != nil {
					return Submitter{}, apperrors.MapError(err)
				}
			} else {
				return Submitter{}, apperrors.MapError(err)
			}
		}
	}
	return Submitter{GuestContactID: &contact.ID}, nil
}

// IssueAccessToken mints and persists a guest credential for the ticket and
// returns the raw token. This is the only place the raw value exists outside
// the creation response.
func (s *SubmitterService) IssueAccessToken(ctx context.Context, ticketID string) (string, error) {
	raw, hash, err := auth.GenerateGuestToken()
	if err != nil {
		return "", err
	}
	token := &domain.TicketAccessToken{
		TicketID:  ticketID,
		TokenHash: hash,
		ExpiresAt: time.Now().Add(s.tokenTTL),
	}
	if err := s.tokens.Create(ctx, token); err != nil {
		return "", err
	}
	return raw, nil
}
