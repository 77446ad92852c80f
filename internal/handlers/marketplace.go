// internal/handlers/marketplace.go
package handlers

import (
	"errors"

	"github.com/gin-gonic/gin"

	"github.com/archelabs/arche-backend/internal/i18n"
	"github.com/archelabs/arche-backend/internal/services"
	"github.com/archelabs/arche-backend/internal/utils"
)

type MarketplaceHandler struct {
	marketplaceService *services.MarketplaceService
}

type cancelListingRequest struct {
	ListingID string `json:"listing_id" validate:"required"`
}

func NewMarketplaceHandler(marketplaceService *services.MarketplaceService) *MarketplaceHandler {
	return &MarketplaceHandler{marketplaceService: marketplaceService}
}

// POST /v1/marketplace/list
func (h *MarketplaceHandler) CreateListing(c *gin.Context) {
	lang := utils.GetLangFromContext(c)
	wallet, ok := utils.GetWalletFromContext(c)
	if !ok {
		utils.UnauthorizedResponse(c, "")
		return
	}

	var req services.CreateListingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.BadRequestResponse(c, i18n.T(lang, i18n.KeyValidationInvalid, "input"), err.Error())
		return
	}

	if validationErrors := utils.GetValidationErrors(utils.ValidateStruct(&req)); len(validationErrors) > 0 {
		utils.ValidationErrorResponse(c, validationErrors)
		return
	}

	listing, err := h.marketplaceService.CreateListing(c.Request.Context(), wallet, &req)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrNotFound):
			utils.NotFoundResponse(c, "asset")
		case errors.Is(err, services.ErrNotOwner):
			utils.ForbiddenResponse(c, i18n.T(lang, i18n.KeyListingNotOwner))
		case errors.Is(err, services.ErrConflict):
			utils.ConflictResponse(c, i18n.T(lang, i18n.KeyListingNotActive))
		default:
			utils.InternalErrorResponse(c, err)
		}
		return
	}

	utils.CreatedResponse(c, gin.H{
		"message": i18n.T(lang, i18n.KeyListingCreated),
		"listing": listing,
	})
}

// POST /v1/marketplace/buy
func (h *MarketplaceHandler) BuyListing(c *gin.Context) {
	lang := utils.GetLangFromContext(c)
	wallet, ok := utils.GetWalletFromContext(c)
	if !ok {
		utils.UnauthorizedResponse(c, "")
		return
	}

	var req services.BuyListingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.BadRequestResponse(c, i18n.T(lang, i18n.KeyValidationInvalid, "input"), err.Error())
		return
	}

	if validationErrors := utils.GetValidationErrors(utils.ValidateStruct(&req)); len(validationErrors) > 0 {
		utils.ValidationErrorResponse(c, validationErrors)
		return
	}

	listing, err := h.marketplaceService.BuyListing(c.Request.Context(), wallet, &req)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrNotFound):
			utils.NotFoundResponse(c, "listing")
		case errors.Is(err, services.ErrListingNotActive):
			utils.ConflictResponse(c, i18n.T(lang, i18n.KeyListingNotActive))
		case errors.Is(err, services.ErrSelfPurchase):
			utils.BadRequestResponse(c, i18n.T(lang, i18n.KeyListingSelfPurchase), nil)
		default:
			utils.InternalErrorResponse(c, err)
		}
		return
	}

	utils.SuccessResponse(c, gin.H{
		"message": i18n.T(lang, i18n.KeyListingPurchased),
		"listing": listing,
	})
}

// POST /v1/marketplace/cancel
func (h *MarketplaceHandler) CancelListing(c *gin.Context) {
	lang := utils.GetLangFromContext(c)
	wallet, ok := utils.GetWalletFromContext(c)
	if !ok {
		utils.UnauthorizedResponse(c, "")
		return
	}

	var req cancelListingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.BadRequestResponse(c, i18n.T(lang, i18n.KeyValidationInvalid, "input"), err.Error())
		return
	}

	if validationErrors := utils.GetValidationErrors(utils.ValidateStruct(&req)); len(validationErrors) > 0 {
		utils.ValidationErrorResponse(c, validationErrors)
		return
	}

	listing, err := h.marketplaceService.CancelListing(c.Request.Context(), wallet, req.ListingID)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrNotFound):
			utils.NotFoundResponse(c, "listing")
		case errors.Is(err, services.ErrNotOwner):
			utils.ForbiddenResponse(c, i18n.T(lang, i18n.KeyListingNotOwner))
		case errors.Is(err, services.ErrListingNotActive):
			utils.ConflictResponse(c, i18n.T(lang, i18n.KeyListingNotActive))
		default:
			utils.InternalErrorResponse(c, err)
		}
		return
	}

	utils.SuccessResponse(c, gin.H{
		"message": i18n.T(lang, i18n.KeyListingCancelled),
		"listing": listing,
	})
}

// GET /v1/marketplace/explore
func (h *MarketplaceHandler) ExploreListings(c *gin.Context) {
	params := utils.GetPaginationParams(c)

	listings, total, err := h.marketplaceService.ExploreListings(c.Request.Context(), params)
	if err != nil {
		utils.InternalErrorResponse(c, err)
		return
	}

	result := utils.CreatePaginationResult(listings, total, params)
	utils.PaginatedResponse(c, result)
}

// GET /v1/marketplace/my-listings
func (h *MarketplaceHandler) MyListings(c *gin.Context) {
	wallet, ok := utils.GetWalletFromContext(c)
	if !ok {
		utils.UnauthorizedResponse(c, "")
		return
	}

	listings, err := h.marketplaceService.MyListings(c.Request.Context(), wallet)
	if err != nil {
		utils.InternalErrorResponse(c, err)
		return
	}

	utils.SuccessResponse(c, gin.H{"listings": listings})
}
