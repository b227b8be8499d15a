package handlers

import (
	"errors"
	"io"
	"log/slog"
	"net/http"

	portssvc "github.com/SscSPs/estate_ledger/internal/core/ports/services"
	"github.com/SscSPs/estate_ledger/internal/dto"
	"github.com/SscSPs/estate_ledger/internal/middleware"
	"github.com/gin-gonic/gin"
)

// journalHandler handles HTTP requests related to journal entries.
type journalHandler struct {
	journalService portssvc.JournalSvcFacade
}

func newJournalHandler(js portssvc.JournalSvcFacade) *journalHandler {
	return &journalHandler{journalService: js}
}

func registerJournalRoutes(rg *gin.RouterGroup, js portssvc.JournalSvcFacade) {
	h := newJournalHandler(js)

	journals := rg.Group("/journals")
	{
		journals.POST("", h.postEntry)
		journals.GET("", h.listEntries)
		journals.GET("/by-key", h.getEntryByNaturalKey)
		journals.POST("/drafts", h.createDraft)
		journals.GET("/:id", h.getEntry)
		journals.POST("/:id/post", h.postDraft)
		journals.POST("/:id/reverse", h.reverseEntry)
	}
}

// postEntry godoc
// @Summary Post a balanced journal entry
// @Tags journals
// @Accept  json
// @Produce  json
// @Param   entry body dto.PostJournalRequest true "Entry and its lines"
// @Success 201 {object} domain.JournalEntry
// @Failure 409 {object} map[string]string "Natural key already posted"
// @Failure 422 {object} map[string]string "Unbalanced entry or unusable account"
// @Security BearerAuth
// @Router /journals [post]
func (h *journalHandler) postEntry(c *gin.Context) {
	var req dto.PostJournalRequest
	if !bindJSON(c, &req) {
		return
	}
	userID, ok := actor(c)
	if !ok {
		return
	}
	entry, err := h.journalService.Post(c.Request.Context(), req, userID)
	if err != nil {
		respondWithError(c, err, "post journal entry")
		return
	}
	middleware.GetLoggerFromCtx(c.Request.Context()).Info("Journal entry posted",
		slog.String("entry_id", entry.EntryID), slog.String("entry_number", entry.EntryNumber))
	c.JSON(http.StatusCreated, entry)
}

// createDraft godoc
// @Summary Save an unnumbered draft entry
// @Tags journals
// @Accept  json
// @Produce  json
// @Param   entry body dto.PostJournalRequest true "Draft entry"
// @Success 201 {object} domain.JournalEntry
// @Security BearerAuth
// @Router /journals/drafts [post]
func (h *journalHandler) createDraft(c *gin.Context) {
	var req dto.PostJournalRequest
	if !bindJSON(c, &req) {
		return
	}
	userID, ok := actor(c)
	if !ok {
		return
	}
	entry, err := h.journalService.CreateDraft(c.Request.Context(), req, userID)
	if err != nil {
		respondWithError(c, err, "save draft")
		return
	}
	c.JSON(http.StatusCreated, entry)
}

// postDraft godoc
// @Summary Validate and post a draft
// @Tags journals
// @Produce  json
// @Param   id path string true "Entry ID"
// @Success 200 {object} domain.JournalEntry
// @Security BearerAuth
// @Router /journals/{id}/post [post]
func (h *journalHandler) postDraft(c *gin.Context) {
	userID, ok := actor(c)
	if !ok {
		return
	}
	entry, err := h.journalService.PostDraft(c.Request.Context(), c.Param("id"), userID)
	if err != nil {
		respondWithError(c, err, "post draft")
		return
	}
	c.JSON(http.StatusOK, entry)
}

// reverseEntry godoc
// @Summary Post the contra-entry of a posted entry
// @Tags journals
// @Accept  json
// @Produce  json
// @Param   id path string true "Entry ID"
// @Param   reversal body dto.ReverseJournalRequest false "Reversal options"
// @Success 201 {object} domain.JournalEntry
// @Security BearerAuth
// @Router /journals/{id}/reverse [post]
func (h *journalHandler) reverseEntry(c *gin.Context) {
	var req dto.ReverseJournalRequest
	if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request format: " + err.Error()})
		return
	}
	userID, ok := actor(c)
	if !ok {
		return
	}
	entry, err := h.journalService.Reverse(c.Request.Context(), c.Param("id"), req, userID)
	if err != nil {
		respondWithError(c, err, "reverse journal entry")
		return
	}
	c.JSON(http.StatusCreated, entry)
}

// getEntry godoc
// @Summary Get a journal entry with its lines
// @Tags journals
// @Produce  json
// @Param   id path string true "Entry ID"
// @Success 200 {object} domain.JournalEntry
// @Failure 404 {object} map[string]string "Entry not found"
// @Security BearerAuth
// @Router /journals/{id} [get]
func (h *journalHandler) getEntry(c *gin.Context) {
	entry, err := h.journalService.GetEntry(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondWithError(c, err, "retrieve journal entry")
		return
	}
	c.JSON(http.StatusOK, entry)
}

// getEntryByNaturalKey godoc
// @Summary Get the posted entry of an originating event
// @Tags journals
// @Produce  json
// @Param   naturalKey query string true "Natural key"
// @Success 200 {object} domain.JournalEntry
// @Security BearerAuth
// @Router /journals/by-key [get]
func (h *journalHandler) getEntryByNaturalKey(c *gin.Context) {
	key := c.Query("naturalKey")
	if key == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "naturalKey is required"})
		return
	}
	entry, err := h.journalService.GetEntryByNaturalKey(c.Request.Context(), key)
	if err != nil {
		respondWithError(c, err, "retrieve journal entry")
		return
	}
	c.JSON(http.StatusOK, entry)
}

// listEntries godoc
// @Summary List journal entries, newest first
// @Tags journals
// @Produce  json
// @Param   limit query int false "Page size (1-100)" default(20)
// @Param   nextToken query string false "Token from the previous page"
// @Success 200 {object} dto.ListJournalsResponse
// @Security BearerAuth
// @Router /journals [get]
func (h *journalHandler) listEntries(c *gin.Context) {
	var params dto.ListJournalsParams
	if err := c.ShouldBindQuery(&params); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid query parameters: " + err.Error()})
		return
	}
	page, err := h.journalService.ListEntries(c.Request.Context(), params)
	if err != nil {
		respondWithError(c, err, "list journal entries")
		return
	}
	c.JSON(http.StatusOK, page)
}
