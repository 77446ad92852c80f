// internal/handlers/graph.go
package handlers

import (
	"context"

	"github.com/gin-gonic/gin"

	"github.com/archelabs/arche-backend/internal/i18n"
	"github.com/archelabs/arche-backend/internal/models"
	"github.com/archelabs/arche-backend/internal/services"
	"github.com/archelabs/arche-backend/internal/utils"
)

type lineageResolver interface {
	Explore(ctx context.Context, params services.ExploreParams) (*models.ExploreGraph, error)
	GlobalHistory(ctx context.Context, address string) ([]models.HistoryEntry, error)
	ContextualHistory(ctx context.Context, address, assetID string) ([]models.HistoryEntry, error)
}

type draftCreator interface {
	CreateDraft(ctx context.Context, address string, req *services.CreateDraftRequest) (string, error)
}

type GraphHandler struct {
	lineageService lineageResolver
	assetService   draftCreator
}

func NewGraphHandler(lineageService lineageResolver, assetService draftCreator) *GraphHandler {
	return &GraphHandler{
		lineageService: lineageService,
		assetService:   assetService,
	}
}

// GET /v1/graph/explore
func (h *GraphHandler) Explore(c *gin.Context) {
	params := services.ExploreParams{
		Query:  c.Query("q"),
		Filter: models.ParseExploreFilter(c.Query("filter")),
		Sort:   models.ParseExploreSort(c.Query("sort")),
	}

	// MINE needs an owner; query param wins, falling back to the
	// session principal when present.
	if owner := c.Query("owner"); owner != "" {
		normalized, err := utils.NormalizeAddress(owner)
		if err != nil {
			utils.BadRequestResponse(c, "", nil)
			return
		}
		params.Owner = normalized
	} else if wallet, ok := utils.GetWalletFromContext(c); ok {
		params.Owner = wallet
	}

	if params.Filter == models.ExploreFilterMine && params.Owner == "" {
		utils.UnauthorizedResponse(c, "")
		return
	}

	graph, err := h.lineageService.Explore(c.Request.Context(), params)
	if err != nil {
		utils.InternalErrorResponse(c, err)
		return
	}

	utils.SuccessResponse(c, graph)
}

// GET /v1/graph/get-history
func (h *GraphHandler) GetHistory(c *gin.Context) {
	address, err := utils.NormalizeAddress(c.Query("userAddress"))
	if err != nil {
		utils.BadRequestResponse(c, "", nil)
		return
	}

	var entries []models.HistoryEntry
	if contextID := c.Query("contextId"); contextID != "" {
		entries, err = h.lineageService.ContextualHistory(c.Request.Context(), address, contextID)
	} else {
		entries, err = h.lineageService.GlobalHistory(c.Request.Context(), address)
	}
	if err != nil {
		utils.InternalErrorResponse(c, err)
		return
	}

	utils.SuccessResponse(c, gin.H{"versions": entries})
}

// POST /v1/graph/save-draft
func (h *GraphHandler) SaveDraft(c *gin.Context) {
	lang := utils.GetLangFromContext(c)
	wallet, ok := utils.GetWalletFromContext(c)
	if !ok {
		utils.UnauthorizedResponse(c, "")
		return
	}

	var req services.CreateDraftRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.BadRequestResponse(c, i18n.T(lang, i18n.KeyValidationInvalid, "input"), err.Error())
		return
	}

	if validationErrors := utils.GetValidationErrors(utils.ValidateStruct(&req)); len(validationErrors) > 0 {
		utils.ValidationErrorResponse(c, validationErrors)
		return
	}

	draftID, err := h.assetService.CreateDraft(c.Request.Context(), wallet, &req)
	if err != nil {
		utils.InternalErrorResponse(c, err)
		return
	}

	utils.CreatedResponse(c, gin.H{
		"message":  i18n.T(lang, i18n.KeyDraftSaved),
		"draft_id": draftID,
		"status":   models.AssetStatusDraft,
	})
}
