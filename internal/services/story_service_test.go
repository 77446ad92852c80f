// internal/services/story_service_test.go
package services

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/archelabs/arche-backend/internal/config"
)

func storyConfig(gatewayURL string) *config.Config {
	return &config.Config{
		Story: config.StoryConfig{
			GatewayURL:  gatewayURL,
			ExplorerURL: "https://aeneid.explorer.story.foundation",
			MaxRetries:  1,
		},
	}
}

func TestIsPaymentError(t *testing.T) {
	assert.True(t, isPaymentError(http.StatusPaymentRequired, ""))
	assert.True(t, isPaymentError(http.StatusBadRequest, "INSUFFICIENT_FUNDS"))
	assert.True(t, isPaymentError(http.StatusBadRequest, "PAYMENT_REQUIRED"))
	assert.True(t, isPaymentError(http.StatusBadRequest, "MINTING_FEE_UNPAID"))
	assert.False(t, isPaymentError(http.StatusBadRequest, "INVALID_METADATA"))
	assert.False(t, isPaymentError(http.StatusInternalServerError, ""))
}

func TestMintAndRegister(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/ip/mint-and-register", r.URL.Path)

		var req MintRegisterRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "0xCreator", req.Recipient)

		json.NewEncoder(w).Encode(MintRegisterResult{IPID: "0xIP", TxHash: "0xTX"})
	}))
	defer server.Close()

	svc := NewStoryService(storyConfig(server.URL))
	result, err := svc.MintAndRegister(context.Background(), MintRegisterRequest{Recipient: "0xCreator"})
	require.NoError(t, err)

	assert.Equal(t, "0xIP", result.IPID)
	assert.Equal(t, "0xTX", result.TxHash)
}

func TestMintAndRegisterPaymentFailure(t *testing.T) {
	calls := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.WriteHeader(http.StatusPaymentRequired)
		json.NewEncoder(w).Encode(gatewayError{Code: "INSUFFICIENT_FUNDS", Message: "wallet empty"})
	}))
	defer server.Close()

	svc := NewStoryService(storyConfig(server.URL))
	_, err := svc.MintAndRegister(context.Background(), MintRegisterRequest{})

	assert.ErrorIs(t, err, ErrPaymentFailed)
	// Payment failures are permanent; no retry happens
	assert.Equal(t, 1, calls)
}

func TestMintLicenseToken(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/license/mint", r.URL.Path)
		json.NewEncoder(w).Encode(map[string]string{"license_token_id": "token-7"})
	}))
	defer server.Close()

	svc := NewStoryService(storyConfig(server.URL))
	tokenID, err := svc.MintLicenseToken(context.Background(), "0xParent", "terms-1")
	require.NoError(t, err)

	assert.Equal(t, "token-7", tokenID)
}

func TestLicenseTermsForDefaultsWhenUnset(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(LicenseTerms{})
	}))
	defer server.Close()

	cfg := storyConfig(server.URL)
	cfg.Story.RevenueShare = 12.5
	cfg.Story.MintingFee = "1000"
	cfg.Story.LicenseCurrency = "0x1514000000000000000000000000000000000000"

	svc := NewStoryService(cfg)
	terms, err := svc.LicenseTermsFor(context.Background(), "0xParent")
	require.NoError(t, err)

	assert.Equal(t, 12.5, terms.CommercialRevShare)
	assert.Equal(t, "1000", terms.MintingFee)
}

func TestExplorerURL(t *testing.T) {
	svc := NewStoryService(storyConfig("http://gateway.test"))
	assert.Equal(t,
		"https://aeneid.explorer.story.foundation/transactions/0xTX",
		svc.ExplorerURL("0xTX"))
}
