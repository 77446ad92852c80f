// internal/handlers/asset.go
package handlers

import (
	"errors"

	"github.com/gin-gonic/gin"

	"github.com/archelabs/arche-backend/internal/services"
	"github.com/archelabs/arche-backend/internal/utils"
)

type AssetHandler struct {
	assetService *services.AssetService
}

func NewAssetHandler(assetService *services.AssetService) *AssetHandler {
	return &AssetHandler{assetService: assetService}
}

// GET /v1/assets/:id
func (h *AssetHandler) GetAsset(c *gin.Context) {
	id := c.Param("id")

	viewer, _ := utils.GetWalletFromContext(c)

	asset, err := h.assetService.GetAsset(c.Request.Context(), id, viewer)
	if err != nil {
		if errors.Is(err, services.ErrNotFound) {
			utils.NotFoundResponse(c, "asset")
			return
		}
		utils.InternalErrorResponse(c, err)
		return
	}

	utils.SuccessResponse(c, asset)
}
