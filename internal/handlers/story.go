// internal/handlers/story.go
package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/archelabs/arche-backend/internal/i18n"
	"github.com/archelabs/arche-backend/internal/services"
	"github.com/archelabs/arche-backend/internal/utils"
)

type StoryHandler struct {
	registrationService *services.RegistrationService
}

func NewStoryHandler(registrationService *services.RegistrationService) *StoryHandler {
	return &StoryHandler{registrationService: registrationService}
}

// POST /v1/story/register
func (h *StoryHandler) Register(c *gin.Context) {
	lang := utils.GetLangFromContext(c)
	wallet, ok := utils.GetWalletFromContext(c)
	if !ok {
		utils.UnauthorizedResponse(c, "")
		return
	}

	var req services.RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.BadRequestResponse(c, i18n.T(lang, i18n.KeyValidationInvalid, "input"), err.Error())
		return
	}

	if validationErrors := utils.GetValidationErrors(utils.ValidateStruct(&req)); len(validationErrors) > 0 {
		utils.ValidationErrorResponse(c, validationErrors)
		return
	}

	result, err := h.registrationService.Register(c.Request.Context(), wallet, &req)
	if err != nil {
		var external *services.ExternalError
		switch {
		case errors.Is(err, services.ErrPaymentFailed):
			// The client may retry with fork=true to register as an
			// unrelated genesis work.
			utils.ErrorResponse(c, http.StatusPaymentRequired, "PAYMENT_REQUIRED",
				i18n.T(lang, i18n.KeyRegistrationFailed), gin.H{"can_fork": req.ParentIPID != "" && !req.Fork})
		case errors.Is(err, services.ErrAlreadyRegistered):
			utils.ConflictResponse(c, i18n.T(lang, i18n.KeyRegistrationConflict))
		case errors.Is(err, services.ErrNotFound):
			utils.NotFoundResponse(c, "draft")
		case errors.As(err, &external):
			utils.ExternalServiceErrorResponse(c, external.Service, err)
		default:
			utils.InternalErrorResponse(c, err)
		}
		return
	}

	message := i18n.T(lang, i18n.KeyAssetRegistered)
	if result.Forked {
		message = i18n.T(lang, i18n.KeyRegistrationForked)
	}

	utils.CreatedResponse(c, gin.H{
		"message":      message,
		"registration": result,
	})
}

// POST /v1/story/reconcile
func (h *StoryHandler) Reconcile(c *gin.Context) {
	if _, ok := utils.GetWalletFromContext(c); !ok {
		utils.UnauthorizedResponse(c, "")
		return
	}

	repaired, err := h.registrationService.Reconcile(c.Request.Context())
	if err != nil {
		utils.InternalErrorResponse(c, err)
		return
	}

	utils.SuccessResponse(c, gin.H{"repaired": repaired})
}
