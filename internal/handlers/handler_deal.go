package handlers

import (
	"log/slog"
	"net/http"

	portssvc "github.com/SscSPs/estate_ledger/internal/core/ports/services"
	"github.com/SscSPs/estate_ledger/internal/dto"
	"github.com/SscSPs/estate_ledger/internal/middleware"
	"github.com/gin-gonic/gin"
)

// dealHandler handles HTTP requests related to deals.
type dealHandler struct {
	dealService    portssvc.DealSvc
	paymentService portssvc.PaymentSvc
}

func registerDealRoutes(rg *gin.RouterGroup, ds portssvc.DealSvc, ps portssvc.PaymentSvc) {
	h := &dealHandler{dealService: ds, paymentService: ps}

	deals := rg.Group("/deals")
	{
		deals.POST("", h.createDeal)
		deals.GET("/:id", h.getDeal)
		deals.DELETE("/:id", h.deleteDeal)
		deals.POST("/:id/stage", h.advanceStage)
		deals.POST("/:id/reopen", h.reopen)
		deals.POST("/:id/recompute", h.recompute)
		deals.GET("/:id/payments", h.listPayments)
	}
}

// createDeal godoc
// @Summary Create a deal with its installment plan
// @Tags deals
// @Accept  json
// @Produce  json
// @Param   deal body dto.CreateDealRequest true "Deal"
// @Success 201 {object} dto.DealDetails
// @Security BearerAuth
// @Router /deals [post]
func (h *dealHandler) createDeal(c *gin.Context) {
	var req dto.CreateDealRequest
	if !bindJSON(c, &req) {
		return
	}
	userID, ok := actor(c)
	if !ok {
		return
	}
	details, err := h.dealService.CreateDeal(c.Request.Context(), req, userID)
	if err != nil {
		respondWithError(c, err, "create deal")
		return
	}
	middleware.GetLoggerFromCtx(c.Request.Context()).Info("Deal created",
		slog.String("deal_id", details.Deal.DealID), slog.String("deal_number", details.Deal.DealNumber))
	c.JSON(http.StatusCreated, details)
}

// getDeal godoc
// @Summary Get a deal with its installments
// @Tags deals
// @Produce  json
// @Param   id path string true "Deal ID"
// @Success 200 {object} dto.DealDetails
// @Security BearerAuth
// @Router /deals/{id} [get]
func (h *dealHandler) getDeal(c *gin.Context) {
	details, err := h.dealService.GetDeal(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondWithError(c, err, "retrieve deal")
		return
	}
	c.JSON(http.StatusOK, details)
}

// advanceStage godoc
// @Summary Move a deal forward or into a terminal stage
// @Tags deals
// @Accept  json
// @Produce  json
// @Param   id path string true "Deal ID"
// @Param   stage body dto.StageChangeRequest true "Target stage"
// @Success 200 {object} domain.Deal
// @Failure 409 {object} map[string]string "Transition not allowed"
// @Security BearerAuth
// @Router /deals/{id}/stage [post]
func (h *dealHandler) advanceStage(c *gin.Context) {
	var req dto.StageChangeRequest
	if !bindJSON(c, &req) {
		return
	}
	userID, ok := actor(c)
	if !ok {
		return
	}
	deal, err := h.dealService.AdvanceStage(c.Request.Context(), c.Param("id"), req.Stage, userID)
	if err != nil {
		respondWithError(c, err, "change deal stage")
		return
	}
	c.JSON(http.StatusOK, deal)
}

// reopen godoc
// @Summary Reopen a closed deal
// @Tags deals
// @Accept  json
// @Produce  json
// @Param   id path string true "Deal ID"
// @Param   stage body dto.StageChangeRequest true "Open stage to return to"
// @Success 200 {object} domain.Deal
// @Security BearerAuth
// @Router /deals/{id}/reopen [post]
func (h *dealHandler) reopen(c *gin.Context) {
	var req dto.StageChangeRequest
	if !bindJSON(c, &req) {
		return
	}
	userID, ok := actor(c)
	if !ok {
		return
	}
	deal, err := h.dealService.Reopen(c.Request.Context(), c.Param("id"), req.Stage, userID)
	if err != nil {
		respondWithError(c, err, "reopen deal")
		return
	}
	c.JSON(http.StatusOK, deal)
}

// recompute godoc
// @Summary Re-derive a deal's paid total and status from its payments
// @Tags deals
// @Produce  json
// @Param   id path string true "Deal ID"
// @Success 200 {object} domain.Deal
// @Security BearerAuth
// @Router /deals/{id}/recompute [post]
func (h *dealHandler) recompute(c *gin.Context) {
	userID, ok := actor(c)
	if !ok {
		return
	}
	deal, err := h.dealService.Recompute(c.Request.Context(), c.Param("id"), userID)
	if err != nil {
		respondWithError(c, err, "recompute deal")
		return
	}
	c.JSON(http.StatusOK, deal)
}

// deleteDeal godoc
// @Summary Soft-delete a deal
// @Tags deals
// @Param   id path string true "Deal ID"
// @Success 204
// @Security BearerAuth
// @Router /deals/{id} [delete]
func (h *dealHandler) deleteDeal(c *gin.Context) {
	userID, ok := actor(c)
	if !ok {
		return
	}
	if err := h.dealService.SoftDeleteDeal(c.Request.Context(), c.Param("id"), userID); err != nil {
		respondWithError(c, err, "delete deal")
		return
	}
	c.Status(http.StatusNoContent)
}

// listPayments godoc
// @Summary List a deal's payments and refunds
// @Tags deals
// @Produce  json
// @Param   id path string true "Deal ID"
// @Success 200 {array} domain.Payment
// @Security BearerAuth
// @Router /deals/{id}/payments [get]
func (h *dealHandler) listPayments(c *gin.Context) {
	payments, err := h.paymentService.ListDealPayments(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondWithError(c, err, "list deal payments")
		return
	}
	c.JSON(http.StatusOK, payments)
}
