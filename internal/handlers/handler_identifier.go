package handlers

import (
	"net/http"
	"time"

	"github.com/SscSPs/estate_ledger/internal/core/domain"
	portssvc "github.com/SscSPs/estate_ledger/internal/core/ports/services"
	"github.com/SscSPs/estate_ledger/internal/dto"
	"github.com/gin-gonic/gin"
)

// identifierHandler exposes the sequence issuer to the other ERP modules.
type identifierHandler struct {
	sequenceService portssvc.SequenceSvc
}

func registerIdentifierRoutes(rg *gin.RouterGroup, ss portssvc.SequenceSvc) {
	h := &identifierHandler{sequenceService: ss}

	ids := rg.Group("/identifiers")
	{
		ids.POST("/:prefix/next", h.next)
		ids.POST("/validate", h.validate)
		ids.POST("/reserve", h.reserve)
	}
}

// next godoc
// @Summary Issue the next identifier for a prefix
// @Tags identifiers
// @Produce  json
// @Param   prefix path string true "Identifier prefix, e.g. prop"
// @Success 201 {object} map[string]string
// @Failure 503 {object} map[string]string "Issuance retries exhausted, retry later"
// @Security BearerAuth
// @Router /identifiers/{prefix}/next [post]
func (h *identifierHandler) next(c *gin.Context) {
	prefix := domain.IdentifierPrefix(c.Param("prefix"))
	if !prefix.IsValid() {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Unknown identifier prefix"})
		return
	}
	id, err := h.sequenceService.NextIdentifier(c.Request.Context(), prefix, time.Time{})
	if err != nil {
		respondWithError(c, err, "issue identifier")
		return
	}
	c.JSON(http.StatusCreated, gin.H{"identifier": id})
}

// validate godoc
// @Summary Check a manual identifier without reserving it
// @Tags identifiers
// @Accept  json
// @Produce  json
// @Param   identifier body dto.ValidateIdentifierRequest true "Identifier"
// @Success 200 {object} map[string]bool
// @Failure 409 {object} map[string]string "Identifier already in use"
// @Security BearerAuth
// @Router /identifiers/validate [post]
func (h *identifierHandler) validate(c *gin.Context) {
	var req dto.ValidateIdentifierRequest
	if !bindJSON(c, &req) {
		return
	}
	if err := h.sequenceService.ValidateManualIdentifier(c.Request.Context(), req.Prefix, req.Identifier, req.Year); err != nil {
		respondWithError(c, err, "validate identifier")
		return
	}
	c.JSON(http.StatusOK, gin.H{"valid": true})
}

// reserve godoc
// @Summary Validate and register a manual identifier
// @Tags identifiers
// @Accept  json
// @Produce  json
// @Param   identifier body dto.ValidateIdentifierRequest true "Identifier"
// @Success 201 {object} map[string]string
// @Security BearerAuth
// @Router /identifiers/reserve [post]
func (h *identifierHandler) reserve(c *gin.Context) {
	var req dto.ValidateIdentifierRequest
	if !bindJSON(c, &req) {
		return
	}
	if err := h.sequenceService.ReserveManualIdentifier(c.Request.Context(), req.Prefix, req.Identifier, req.Year); err != nil {
		respondWithError(c, err, "reserve identifier")
		return
	}
	c.JSON(http.StatusCreated, gin.H{"identifier": req.Identifier})
}
