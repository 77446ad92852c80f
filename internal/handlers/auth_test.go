// internal/handlers/auth_test.go
package handlers

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/suite"

	"github.com/archelabs/arche-backend/internal/config"
	"github.com/archelabs/arche-backend/internal/utils"
)

type AuthTestSuite struct {
	suite.Suite
	router *gin.Engine
}

func (suite *AuthTestSuite) SetupSuite() {
	gin.SetMode(gin.TestMode)
	utils.SetJWTSecret("handler-test-secret")

	cfg := &config.Config{
		JWT: config.JWTConfig{SecretKey: "handler-test-secret", SessionTTL: 24},
	}
	authHandler := NewAuthHandler(cfg)

	suite.router = gin.New()
	auth := suite.router.Group("/v1/auth")
	{
		auth.POST("/session", authHandler.CreateSession)
	}
}

func (suite *AuthTestSuite) postSession(body map[string]any) *httptest.ResponseRecorder {
	jsonData, _ := json.Marshal(body)
	req, _ := http.NewRequest("POST", "/v1/auth/session", bytes.NewBuffer(jsonData))
	req.Header.Set("Content-Type", "application/json")

	w := httptest.NewRecorder()
	suite.router.ServeHTTP(w, req)
	return w
}

func (suite *AuthTestSuite) TestCreateSession() {
	w := suite.postSession(map[string]any{
		"address": "0x5aaeb6053f3e94c9b9a09f33669435e7ef1beaed",
	})

	assert.Equal(suite.T(), http.StatusOK, w.Code)

	var response map[string]any
	err := json.Unmarshal(w.Body.Bytes(), &response)
	assert.NoError(suite.T(), err)
	assert.True(suite.T(), response["success"].(bool))

	data := response["data"].(map[string]any)
	assert.NotEmpty(suite.T(), data["token"])
	// The session is bound to the checksummed spelling
	assert.Equal(suite.T(), "0x5aAeb6053F3E94C9b9A09f33669435E7Ef1BeAed", data["address"])

	claims, err := utils.ValidateSessionToken(data["token"].(string))
	assert.NoError(suite.T(), err)
	assert.Equal(suite.T(), data["address"], claims.Wallet)
}

func (suite *AuthTestSuite) TestCreateSessionRejectsBadAddress() {
	w := suite.postSession(map[string]any{"address": "0x123"})

	assert.Equal(suite.T(), http.StatusBadRequest, w.Code)

	var response map[string]any
	err := json.Unmarshal(w.Body.Bytes(), &response)
	assert.NoError(suite.T(), err)
	assert.False(suite.T(), response["success"].(bool))
}

func (suite *AuthTestSuite) TestCreateSessionRejectsBadChecksum() {
	// One flipped letter breaks the EIP-55 checksum
	w := suite.postSession(map[string]any{
		"address": "0x5aaeb6053F3E94C9b9A09f33669435E7Ef1BeAed",
	})

	assert.Equal(suite.T(), http.StatusBadRequest, w.Code)
}

func (suite *AuthTestSuite) TestCreateSessionRejectsMissingAddress() {
	w := suite.postSession(map[string]any{})

	assert.Equal(suite.T(), http.StatusBadRequest, w.Code)
}

func TestAuthSuite(t *testing.T) {
	suite.Run(t, new(AuthTestSuite))
}
