// internal/handlers/auth.go
package handlers

import (
	"github.com/gin-gonic/gin"

	"github.com/archelabs/arche-backend/internal/config"
	"github.com/archelabs/arche-backend/internal/i18n"
	"github.com/archelabs/arche-backend/internal/utils"
)

type AuthHandler struct {
	config *config.Config
}

type sessionRequest struct {
	Address string `json:"address" validate:"required,eth_address"`
}

func NewAuthHandler(config *config.Config) *AuthHandler {
	return &AuthHandler{config: config}
}

// POST /v1/auth/session
// Signature proof happens in the wallet connector before this call;
// the session binds every later request to the checksummed address.
func (h *AuthHandler) CreateSession(c *gin.Context) {
	lang := utils.GetLangFromContext(c)

	var req sessionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.BadRequestResponse(c, i18n.T(lang, i18n.KeyValidationInvalid, "input"), err.Error())
		return
	}

	if validationErrors := utils.GetValidationErrors(utils.ValidateStruct(&req)); len(validationErrors) > 0 {
		utils.ValidationErrorResponse(c, validationErrors)
		return
	}

	address, err := utils.NormalizeAddress(req.Address)
	if err != nil {
		utils.BadRequestResponse(c, i18n.T(lang, i18n.KeyValidationInvalid, "address"), nil)
		return
	}

	token, err := utils.GenerateSessionToken(address, h.config.JWT.SessionTTL)
	if err != nil {
		utils.InternalErrorResponse(c, err)
		return
	}

	utils.SuccessResponse(c, gin.H{
		"message":    i18n.T(lang, i18n.KeySessionCreated),
		"token":      token,
		"address":    address,
		"expires_in": h.config.JWT.SessionTTL * 3600,
	})
}
