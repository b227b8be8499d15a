package handlers

import (
	"net/http"
	"time"

	portssvc "github.com/SscSPs/estate_ledger/internal/core/ports/services"
	"github.com/gin-gonic/gin"
)

// reportingHandler serves the ledger read-models.
type reportingHandler struct {
	reportingService portssvc.ReportingService
}

func registerReportingRoutes(rg *gin.RouterGroup, rs portssvc.ReportingService) {
	h := &reportingHandler{reportingService: rs}

	reports := rg.Group("/reports")
	{
		reports.GET("/trial-balance", h.getTrialBalance)
		reports.GET("/clients/:id/statement", h.getClientStatement)
		reports.GET("/dealers/:id/statement", h.getDealerStatement)
	}
}

// parseAsOf reads the optional asOf query parameter. A bare date covers the whole day.
func parseAsOf(c *gin.Context) (time.Time, bool) {
	raw := c.Query("asOf")
	if raw == "" {
		return time.Time{}, true
	}
	if t, err := time.Parse(time.RFC3339, raw); err == nil {
		return t, true
	}
	if d, err := time.Parse(time.DateOnly, raw); err == nil {
		return d.Add(24*time.Hour - time.Nanosecond), true
	}
	c.JSON(http.StatusBadRequest, gin.H{"error": "asOf must be YYYY-MM-DD or RFC3339"})
	return time.Time{}, false
}

// getTrialBalance godoc
// @Summary Trial balance over posted entries
// @Tags reports
// @Produce  json
// @Param   asOf query string false "Date (YYYY-MM-DD or RFC3339), defaults to now"
// @Success 200 {object} domain.TrialBalance
// @Security BearerAuth
// @Router /reports/trial-balance [get]
func (h *reportingHandler) getTrialBalance(c *gin.Context) {
	asOf, ok := parseAsOf(c)
	if !ok {
		return
	}
	tb, err := h.reportingService.GetTrialBalance(c.Request.Context(), asOf)
	if err != nil {
		respondWithError(c, err, "build trial balance")
		return
	}
	c.JSON(http.StatusOK, tb)
}

// getClientStatement godoc
// @Summary Running-balance statement of a client
// @Tags reports
// @Produce  json
// @Param   id path string true "Client ID"
// @Success 200 {object} domain.PartyStatement
// @Security BearerAuth
// @Router /reports/clients/{id}/statement [get]
func (h *reportingHandler) getClientStatement(c *gin.Context) {
	st, err := h.reportingService.GetClientStatement(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondWithError(c, err, "build client statement")
		return
	}
	c.JSON(http.StatusOK, st)
}

// getDealerStatement godoc
// @Summary Running-balance commission statement of a dealer
// @Tags reports
// @Produce  json
// @Param   id path string true "Dealer ID"
// @Success 200 {object} domain.PartyStatement
// @Security BearerAuth
// @Router /reports/dealers/{id}/statement [get]
func (h *reportingHandler) getDealerStatement(c *gin.Context) {
	st, err := h.reportingService.GetDealerStatement(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondWithError(c, err, "build dealer statement")
		return
	}
	c.JSON(http.StatusOK, st)
}
