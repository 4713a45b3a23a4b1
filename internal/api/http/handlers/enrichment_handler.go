package handlers

import (
	"crypto/subtle"

	"github.com/gofiber/fiber/v2"

	"github.com/insighta/complaints-service/internal/api/dto"
	"github.com/insighta/complaints-service/internal/auth"
	"github.com/insighta/complaints-service/internal/config"
	"github.com/insighta/complaints-service/internal/domain"
	"github.com/insighta/complaints-service/internal/enrichment"
	apperrors "github.com/insighta/complaints-service/pkg/util"
)

// ReprocessSecretHeader authorizes scheduled, non-interactive reprocessing
// runs without a staff session.
const ReprocessSecretHeader = "X-Reprocess-Secret"

// EnrichmentHandler exposes administrative batch reprocessing.
type EnrichmentHandler struct {
	enricher *enrichment.Service
	cfg      config.ReprocessConfig
}

// NewEnrichmentHandler constructs handler.
func NewEnrichmentHandler(enricher *enrichment.Service, cfg config.ReprocessConfig) *EnrichmentHandler {
	return &EnrichmentHandler{enricher: enricher, cfg: cfg}
}

// Reprocess POST /admin/enrichment/reprocess. Authorized by an admin staff
// session or by the shared-secret header.
func (h *EnrichmentHandler) Reprocess(c *fiber.Ctx) error {
	if err := h.authorize(c); err != nil {
		return err
	}

	var req dto.ReprocessRequest
	if len(c.Body()) > 0 {
		if err := c.BodyParser(&req); err != nil {
			return apperrors.NewValidationError("invalid payload", nil)
		}
	}

	report, err := h.enricher.Reprocess(c.Context(), req.TicketIDs, req.Limit)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": report})
}

func (h *EnrichmentHandler) authorize(c *fiber.Ctx) error {
	if secret := c.Get(ReprocessSecretHeader); secret != "" && h.cfg.SharedSecret != "" {
		if subtle.ConstantTimeCompare([]byte(secret), []byte(h.cfg.SharedSecret)) == 1 {
			return nil
		}
		return apperrors.NewUnauthorized("invalid reprocess secret")
	}
	principal, ok := auth.PrincipalFromContext(c)
	if ok && principal.Staff != nil && principal.Staff.Role == domain.StaffRoleAdmin {
		return nil
	}
	return apperrors.NewUnauthorized("admin session or reprocess secret required")
}
