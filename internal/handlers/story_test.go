// internal/handlers/story_test.go
package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/archelabs/arche-backend/internal/config"
	"github.com/archelabs/arche-backend/internal/models"
	"github.com/archelabs/arche-backend/internal/services"
)

type stubPinner struct{}

func (stubPinner) PinImageFromURL(ctx context.Context, url string) (string, error) {
	return "ipfs://QmImage", nil
}

func (stubPinner) PinJSON(ctx context.Context, name string, payload any) (string, error) {
	return "ipfs://QmMeta", nil
}

type stubProtocol struct {
	paymentFails bool
}

func (s stubProtocol) MintAndRegister(ctx context.Context, req services.MintRegisterRequest) (*services.MintRegisterResult, error) {
	if s.paymentFails {
		return nil, fmt.Errorf("wallet empty: %w", services.ErrPaymentFailed)
	}
	return &services.MintRegisterResult{IPID: "0xIP", TxHash: "0xTX"}, nil
}

func (s stubProtocol) LicenseTermsFor(ctx context.Context, parentIPID string) (*services.LicenseTerms, error) {
	return &services.LicenseTerms{TermsID: "terms-1"}, nil
}

func (s stubProtocol) MintLicenseToken(ctx context.Context, parentIPID, termsID string) (string, error) {
	if s.paymentFails {
		return "", fmt.Errorf("wallet empty: %w", services.ErrPaymentFailed)
	}
	return "token-1", nil
}

func (s stubProtocol) RegisterDerivative(ctx context.Context, req services.DerivativeRequest) (*services.MintRegisterResult, error) {
	return &services.MintRegisterResult{IPID: "0xDerivIP", TxHash: "0xDerivTX"}, nil
}

func (stubProtocol) ExplorerURL(txHash string) string {
	return "https://explorer.test/tx/" + txHash
}

type stubPromoter struct{}

func (stubPromoter) Promote(ctx context.Context, p models.Promotion) (*models.IPAsset, error) {
	return &models.IPAsset{ID: p.OnChainID, Status: models.AssetStatusRegistered}, nil
}

type stubLedger struct{}

func (stubLedger) Begin(ctx context.Context, attempt *models.RegistrationAttempt) error {
	return nil
}

func (stubLedger) RecordStep(ctx context.Context, id string, step models.RegistrationStep, fields map[string]any) error {
	return nil
}

func (stubLedger) Fail(ctx context.Context, id string, step models.RegistrationStep) error {
	return nil
}

func (stubLedger) Complete(ctx context.Context, id string) error {
	return nil
}

func (stubLedger) Stranded(ctx context.Context) ([]models.RegistrationAttempt, error) {
	return nil, nil
}

func storyTestRouter(protocol stubProtocol) *gin.Engine {
	gin.SetMode(gin.TestMode)

	cfg := &config.Config{
		Story: config.StoryConfig{SPGCollection: "0xCol", RevenueShare: 10},
	}
	registrationService := services.NewRegistrationService(
		stubPromoter{}, stubPinner{}, protocol, stubLedger{}, cfg)
	handler := NewStoryHandler(registrationService)

	r := gin.New()
	r.Use(func(c *gin.Context) {
		c.Set("wallet", "0x5aAeb6053F3E94C9b9A09f33669435E7Ef1BeAed")
	})
	r.POST("/v1/story/register", handler.Register)
	return r
}

func postRegister(r *gin.Engine, body map[string]any) *httptest.ResponseRecorder {
	jsonData, _ := json.Marshal(body)
	req, _ := http.NewRequest("POST", "/v1/story/register", bytes.NewBuffer(jsonData))
	req.Header.Set("Content-Type", "application/json")

	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestRegisterEndpoint(t *testing.T) {
	r := storyTestRouter(stubProtocol{})

	w := postRegister(r, map[string]any{
		"draft_id":  "draft-1",
		"image_uri": "ipfs://QmImg",
		"name":      "Dawn",
	})

	assert.Equal(t, http.StatusCreated, w.Code)

	var response map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
	assert.True(t, response["success"].(bool))

	data := response["data"].(map[string]any)
	registration := data["registration"].(map[string]any)
	assert.Equal(t, "0xIP", registration["ip_id"])
	assert.Equal(t, "0xTX", registration["tx_hash"])
}

func TestRegisterEndpointPaymentFailure(t *testing.T) {
	r := storyTestRouter(stubProtocol{paymentFails: true})

	w := postRegister(r, map[string]any{
		"image_uri":    "ipfs://QmImg",
		"parent_ip_id": "0xParent",
	})

	assert.Equal(t, http.StatusPaymentRequired, w.Code)

	var response map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
	assert.False(t, response["success"].(bool))

	apiErr := response["error"].(map[string]any)
	assert.Equal(t, "PAYMENT_REQUIRED", apiErr["code"])

	// The client is told a fork retry is possible
	details := apiErr["details"].(map[string]any)
	assert.True(t, details["can_fork"].(bool))
}

func TestRegisterEndpointMissingImage(t *testing.T) {
	r := storyTestRouter(stubProtocol{})

	w := postRegister(r, map[string]any{"draft_id": "draft-1"})

	assert.Equal(t, http.StatusBadRequest, w.Code)
}
