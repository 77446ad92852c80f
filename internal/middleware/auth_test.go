// internal/middleware/auth_test.go
package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/archelabs/arche-backend/internal/utils"
)

const testWallet = "0x5aAeb6053F3E94C9b9A09f33669435E7Ef1BeAed"

func authTestRouter(handler gin.HandlerFunc) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.GET("/protected", AuthRequired(), handler)
	r.GET("/open", OptionalAuth(), handler)
	return r
}

func walletEcho(c *gin.Context) {
	wallet, _ := utils.GetWalletFromContext(c)
	c.JSON(http.StatusOK, gin.H{"wallet": wallet})
}

func TestAuthRequiredRejectsMissingToken(t *testing.T) {
	r := authTestRouter(walletEcho)

	w := httptest.NewRecorder()
	req := httptest.NewRequest("GET", "/protected", nil)
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestAuthRequiredRejectsMalformedHeader(t *testing.T) {
	r := authTestRouter(walletEcho)

	w := httptest.NewRecorder()
	req := httptest.NewRequest("GET", "/protected", nil)
	req.Header.Set("Authorization", "Token abc")
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestAuthRequiredSetsWallet(t *testing.T) {
	utils.SetJWTSecret("middleware-test-secret")
	token, err := utils.GenerateSessionToken(testWallet, 1)
	require.NoError(t, err)

	r := authTestRouter(walletEcho)

	w := httptest.NewRecorder()
	req := httptest.NewRequest("GET", "/protected", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), testWallet)
}

func TestOptionalAuthAllowsAnonymous(t *testing.T) {
	r := authTestRouter(walletEcho)

	w := httptest.NewRecorder()
	req := httptest.NewRequest("GET", "/open", nil)
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"wallet":""`)
}

func TestOptionalAuthIgnoresBadToken(t *testing.T) {
	utils.SetJWTSecret("middleware-test-secret")
	r := authTestRouter(walletEcho)

	w := httptest.NewRecorder()
	req := httptest.NewRequest("GET", "/open", nil)
	req.Header.Set("Authorization", "Bearer not-a-token")
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"wallet":""`)
}
