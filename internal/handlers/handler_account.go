package handlers

import (
	"log/slog"
	"net/http"

	"github.com/SscSPs/estate_ledger/internal/core/domain"
	portssvc "github.com/SscSPs/estate_ledger/internal/core/ports/services"
	"github.com/SscSPs/estate_ledger/internal/dto"
	"github.com/SscSPs/estate_ledger/internal/middleware"
	"github.com/gin-gonic/gin"
)

// accountHandler handles HTTP requests related to the chart of accounts.
type accountHandler struct {
	accountService   portssvc.AccountRegistrySvc
	reportingService portssvc.ReportingService
}

func newAccountHandler(as portssvc.AccountRegistrySvc, rs portssvc.ReportingService) *accountHandler {
	return &accountHandler{accountService: as, reportingService: rs}
}

// registerAccountRoutes registers routes related to accounts and role mappings.
func registerAccountRoutes(rg *gin.RouterGroup, as portssvc.AccountRegistrySvc, rs portssvc.ReportingService) {
	h := newAccountHandler(as, rs)

	accounts := rg.Group("/accounts")
	{
		accounts.POST("", h.createAccount)
		accounts.GET("", h.listAccounts)
		accounts.GET("/:id", h.getAccount)
		accounts.GET("/:id/balance", h.getAccountBalance)
	}

	roles := rg.Group("/account-roles")
	{
		roles.PUT("", h.mapRole)
		roles.GET("/:role", h.resolveRole)
	}
}

// createAccount godoc
// @Summary Create a chart-of-accounts entry
// @Tags accounts
// @Accept  json
// @Produce  json
// @Param   account body dto.CreateAccountRequest true "Account details"
// @Success 201 {object} dto.AccountResponse
// @Failure 400 {object} map[string]string "Invalid input format or validation error"
// @Failure 409 {object} map[string]string "Account code already exists"
// @Security BearerAuth
// @Router /accounts [post]
func (h *accountHandler) createAccount(c *gin.Context) {
	var req dto.CreateAccountRequest
	if !bindJSON(c, &req) {
		return
	}
	userID, ok := actor(c)
	if !ok {
		return
	}

	account, err := h.accountService.CreateAccount(c.Request.Context(), req, userID)
	if err != nil {
		respondWithError(c, err, "create account")
		return
	}

	middleware.GetLoggerFromCtx(c.Request.Context()).Info("Account created successfully",
		slog.String("account_id", account.AccountID), slog.String("code", account.Code))
	c.JSON(http.StatusCreated, dto.ToAccountResponse(account))
}

// getAccount godoc
// @Summary Get an account by ID
// @Tags accounts
// @Produce  json
// @Param   id path string true "Account ID"
// @Success 200 {object} dto.AccountResponse
// @Failure 404 {object} map[string]string "Account not found"
// @Security BearerAuth
// @Router /accounts/{id} [get]
func (h *accountHandler) getAccount(c *gin.Context) {
	account, err := h.accountService.GetAccount(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondWithError(c, err, "retrieve account")
		return
	}
	c.JSON(http.StatusOK, dto.ToAccountResponse(account))
}

// listAccounts godoc
// @Summary List the chart of accounts ordered by code
// @Tags accounts
// @Produce  json
// @Success 200 {array} dto.AccountResponse
// @Security BearerAuth
// @Router /accounts [get]
func (h *accountHandler) listAccounts(c *gin.Context) {
	accounts, err := h.accountService.ListAccounts(c.Request.Context())
	if err != nil {
		respondWithError(c, err, "list accounts")
		return
	}
	c.JSON(http.StatusOK, dto.ToAccountResponses(accounts))
}

// getAccountBalance godoc
// @Summary Signed balance of an account as of a date
// @Tags accounts
// @Produce  json
// @Param   id path string true "Account ID"
// @Param   asOf query string false "Date (YYYY-MM-DD or RFC3339), defaults to now"
// @Success 200 {object} domain.AccountBalance
// @Security BearerAuth
// @Router /accounts/{id}/balance [get]
func (h *accountHandler) getAccountBalance(c *gin.Context) {
	asOf, ok := parseAsOf(c)
	if !ok {
		return
	}
	balance, err := h.reportingService.GetAccountBalance(c.Request.Context(), c.Param("id"), asOf)
	if err != nil {
		respondWithError(c, err, "calculate account balance")
		return
	}
	c.JSON(http.StatusOK, balance)
}

// mapRole godoc
// @Summary Point an account role at an account
// @Description Writes a new mapping version; earlier versions are kept.
// @Tags accounts
// @Accept  json
// @Produce  json
// @Param   mapping body dto.MapRoleRequest true "Role mapping"
// @Success 200 {object} domain.AccountRoleMapping
// @Security BearerAuth
// @Router /account-roles [put]
func (h *accountHandler) mapRole(c *gin.Context) {
	var req dto.MapRoleRequest
	if !bindJSON(c, &req) {
		return
	}
	userID, ok := actor(c)
	if !ok {
		return
	}
	mapping, err := h.accountService.MapRole(c.Request.Context(), req, userID)
	if err != nil {
		respondWithError(c, err, "map account role")
		return
	}
	c.JSON(http.StatusOK, mapping)
}

// resolveRole godoc
// @Summary Show which account a role currently resolves to
// @Tags accounts
// @Produce  json
// @Param   role path string true "Account role"
// @Success 200 {object} dto.AccountResponse
// @Security BearerAuth
// @Router /account-roles/{role} [get]
func (h *accountHandler) resolveRole(c *gin.Context) {
	role := domain.AccountRole(c.Param("role"))
	if !role.IsValid() {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Unknown account role"})
		return
	}
	account, err := h.accountService.Resolve(c.Request.Context(), role)
	if err != nil {
		respondWithError(c, err, "resolve account role")
		return
	}
	c.JSON(http.StatusOK, dto.ToAccountResponse(account))
}
