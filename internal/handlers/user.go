// internal/handlers/user.go
package handlers

import (
	"errors"

	"github.com/gin-gonic/gin"

	"github.com/archelabs/arche-backend/internal/i18n"
	"github.com/archelabs/arche-backend/internal/services"
	"github.com/archelabs/arche-backend/internal/utils"
)

type UserHandler struct {
	userService *services.UserService
}

func NewUserHandler(userService *services.UserService) *UserHandler {
	return &UserHandler{userService: userService}
}

// GET /v1/user/profile
func (h *UserHandler) GetProfile(c *gin.Context) {
	address := c.Query("address")
	if address == "" {
		// No explicit address means the caller's own profile.
		wallet, ok := utils.GetWalletFromContext(c)
		if !ok {
			utils.UnauthorizedResponse(c, "")
			return
		}
		address = wallet
	}

	normalized, err := utils.NormalizeAddress(address)
	if err != nil {
		utils.BadRequestResponse(c, "", nil)
		return
	}

	profile, err := h.userService.GetProfile(c.Request.Context(), normalized)
	if err != nil {
		if errors.Is(err, services.ErrNotFound) {
			utils.NotFoundResponse(c, "user")
			return
		}
		utils.InternalErrorResponse(c, err)
		return
	}

	utils.SuccessResponse(c, profile)
}

// POST /v1/user/profile
func (h *UserHandler) UpdateProfile(c *gin.Context) {
	lang := utils.GetLangFromContext(c)
	wallet, ok := utils.GetWalletFromContext(c)
	if !ok {
		utils.UnauthorizedResponse(c, "")
		return
	}

	var req services.UpdateProfileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.BadRequestResponse(c, i18n.T(lang, i18n.KeyValidationInvalid, "input"), err.Error())
		return
	}

	if validationErrors := utils.GetValidationErrors(utils.ValidateStruct(&req)); len(validationErrors) > 0 {
		utils.ValidationErrorResponse(c, validationErrors)
		return
	}

	user, err := h.userService.UpsertProfile(c.Request.Context(), wallet, &req)
	if err != nil {
		utils.InternalErrorResponse(c, err)
		return
	}

	utils.SuccessResponse(c, gin.H{
		"message": i18n.T(lang, i18n.KeyUserProfileUpdated),
		"user":    user,
	})
}
