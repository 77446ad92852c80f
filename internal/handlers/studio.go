// internal/handlers/studio.go
package handlers

import (
	"github.com/gin-gonic/gin"

	"github.com/archelabs/arche-backend/internal/i18n"
	"github.com/archelabs/arche-backend/internal/models"
	"github.com/archelabs/arche-backend/internal/services"
	"github.com/archelabs/arche-backend/internal/utils"
)

type StudioHandler struct {
	assetService      *services.AssetService
	generationService *services.GenerationService
	storageService    *services.StorageService
}

type favoriteRequest struct {
	AssetID string `json:"asset_id" validate:"required"`
}

func NewStudioHandler(assetService *services.AssetService, generationService *services.GenerationService, storageService *services.StorageService) *StudioHandler {
	return &StudioHandler{
		assetService:      assetService,
		generationService: generationService,
		storageService:    storageService,
	}
}

// GET /v1/studio/assets
func (h *StudioHandler) GetAssets(c *gin.Context) {
	wallet, ok := utils.GetWalletFromContext(c)
	if !ok {
		utils.UnauthorizedResponse(c, "")
		return
	}

	params := services.ListAssetsParams{
		PaginationParams: utils.GetPaginationParams(c),
		FavoritesOnly:    c.Query("favorites") == "true",
	}
	if statusStr := c.Query("status"); statusStr != "" {
		status := models.AssetStatus(statusStr)
		if status != models.AssetStatusDraft && status != models.AssetStatusRegistered {
			utils.BadRequestResponse(c, "", gin.H{"status": statusStr})
			return
		}
		params.Status = &status
	}

	assets, total, err := h.assetService.ListUserAssets(c.Request.Context(), wallet, params)
	if err != nil {
		utils.InternalErrorResponse(c, err)
		return
	}

	result := utils.CreatePaginationResult(assets, total, params.PaginationParams)
	utils.PaginatedResponse(c, result)
}

// POST /v1/studio/generate
func (h *StudioHandler) Generate(c *gin.Context) {
	lang := utils.GetLangFromContext(c)
	if _, ok := utils.GetWalletFromContext(c); !ok {
		utils.UnauthorizedResponse(c, "")
		return
	}

	var req services.GenerateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.BadRequestResponse(c, i18n.T(lang, i18n.KeyValidationInvalid, "input"), err.Error())
		return
	}

	if validationErrors := utils.GetValidationErrors(utils.ValidateStruct(&req)); len(validationErrors) > 0 {
		utils.ValidationErrorResponse(c, validationErrors)
		return
	}

	result, err := h.generationService.Generate(c.Request.Context(), &req)
	if err != nil {
		utils.ExternalServiceErrorResponse(c, "generation", err)
		return
	}

	utils.SuccessResponse(c, result)
}

// DELETE /v1/studio/draft
func (h *StudioHandler) DeleteDraft(c *gin.Context) {
	lang := utils.GetLangFromContext(c)
	wallet, ok := utils.GetWalletFromContext(c)
	if !ok {
		utils.UnauthorizedResponse(c, "")
		return
	}

	id := c.Query("id")
	if id == "" {
		utils.BadRequestResponse(c, "", gin.H{"id": "required"})
		return
	}

	deleted, imageURI, err := h.assetService.DeleteDraft(c.Request.Context(), id, wallet)
	if err != nil {
		utils.InternalErrorResponse(c, err)
		return
	}
	if !deleted {
		utils.NotFoundResponse(c, "draft")
		return
	}

	// Registered assets keep their pinned content; a deleted draft's
	// generated preview has no further use.
	if imageURI != "" {
		h.storageService.RemoveByURL(imageURI)
	}

	utils.SuccessResponse(c, gin.H{"message": i18n.T(lang, i18n.KeyDraftDeleted)})
}

// POST /v1/studio/favorite
func (h *StudioHandler) ToggleFavorite(c *gin.Context) {
	lang := utils.GetLangFromContext(c)
	wallet, ok := utils.GetWalletFromContext(c)
	if !ok {
		utils.UnauthorizedResponse(c, "")
		return
	}

	var req favoriteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.BadRequestResponse(c, i18n.T(lang, i18n.KeyValidationInvalid, "input"), err.Error())
		return
	}

	if validationErrors := utils.GetValidationErrors(utils.ValidateStruct(&req)); len(validationErrors) > 0 {
		utils.ValidationErrorResponse(c, validationErrors)
		return
	}

	favorited, err := h.assetService.ToggleFavorite(c.Request.Context(), wallet, req.AssetID)
	if err != nil {
		if err == services.ErrNotFound {
			utils.NotFoundResponse(c, "asset")
			return
		}
		utils.InternalErrorResponse(c, err)
		return
	}

	utils.SuccessResponse(c, gin.H{
		"message":   i18n.T(lang, i18n.KeyFavoriteToggled),
		"favorited": favorited,
	})
}
