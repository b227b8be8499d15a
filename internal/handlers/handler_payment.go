package handlers

import (
	"log/slog"
	"net/http"

	portssvc "github.com/SscSPs/estate_ledger/internal/core/ports/services"
	"github.com/SscSPs/estate_ledger/internal/dto"
	"github.com/SscSPs/estate_ledger/internal/middleware"
	"github.com/gin-gonic/gin"
)

// paymentHandler handles HTTP requests related to payments and refunds.
type paymentHandler struct {
	paymentService portssvc.PaymentSvc
}

func registerPaymentRoutes(rg *gin.RouterGroup, ps portssvc.PaymentSvc) {
	h := &paymentHandler{paymentService: ps}

	payments := rg.Group("/payments")
	{
		payments.POST("", h.createPayment)
		payments.GET("/:id", h.getPayment)
		payments.POST("/:id/refunds", h.refundPayment)
	}
}

// createPayment godoc
// @Summary Record a payment against a deal
// @Description Posts the payment, allocates it to installments and updates the deal.
// @Tags payments
// @Accept  json
// @Produce  json
// @Param   payment body dto.CreatePaymentRequest true "Payment"
// @Success 201 {object} dto.PaymentResult
// @Security BearerAuth
// @Router /payments [post]
func (h *paymentHandler) createPayment(c *gin.Context) {
	var req dto.CreatePaymentRequest
	if !bindJSON(c, &req) {
		return
	}
	userID, ok := actor(c)
	if !ok {
		return
	}
	result, err := h.paymentService.CreatePayment(c.Request.Context(), req, userID)
	if err != nil {
		respondWithError(c, err, "create payment")
		return
	}
	middleware.GetLoggerFromCtx(c.Request.Context()).Info("Payment recorded",
		slog.String("payment_id", result.Payment.PaymentID),
		slog.String("payment_number", result.Payment.PaymentNumber))
	c.JSON(http.StatusCreated, result)
}

// getPayment godoc
// @Summary Get a payment
// @Tags payments
// @Produce  json
// @Param   id path string true "Payment ID"
// @Success 200 {object} domain.Payment
// @Security BearerAuth
// @Router /payments/{id} [get]
func (h *paymentHandler) getPayment(c *gin.Context) {
	payment, err := h.paymentService.GetPayment(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondWithError(c, err, "retrieve payment")
		return
	}
	c.JSON(http.StatusOK, payment)
}

// refundPayment godoc
// @Summary Refund part or all of a payment
// @Tags payments
// @Accept  json
// @Produce  json
// @Param   id path string true "Original payment ID"
// @Param   refund body dto.RefundPaymentRequest true "Refund"
// @Success 201 {object} dto.PaymentResult
// @Failure 422 {object} map[string]string "Refund exceeds what remains of the original"
// @Security BearerAuth
// @Router /payments/{id}/refunds [post]
func (h *paymentHandler) refundPayment(c *gin.Context) {
	var req dto.RefundPaymentRequest
	if !bindJSON(c, &req) {
		return
	}
	req.OriginalPaymentID = c.Param("id")
	userID, ok := actor(c)
	if !ok {
		return
	}
	result, err := h.paymentService.RefundPayment(c.Request.Context(), req, userID)
	if err != nil {
		respondWithError(c, err, "refund payment")
		return
	}
	c.JSON(http.StatusCreated, result)
}
