package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"upllyft-worksheet-api/pkg/utils"
)

func newAuthTestRouter(t *testing.T, cfg AuthConfig) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(Auth(cfg))
	return r
}

func TestAuthInjectsClaims(t *testing.T) {
	cfg := AuthConfig{Secret: "test-secret", Issuer: "upllyft", Expiration: time.Hour, Enabled: true}
	token, err := utils.NewJWTManager(cfg.Secret, cfg.Expiration, cfg.Issuer).
		GenerateToken("user-1", "tenant-1", "therapist", true)
	require.NoError(t, err)

	r := newAuthTestRouter(t, cfg)
	var gotTenant, gotUser string
	var gotVerified bool
	r.POST("/v1/worksheets/generate", func(c *gin.Context) {
		gotTenant = GetTenantIDFromGin(c)
		gotUser = GetUserIDFromGin(c)
		gotVerified = GetVerifiedFromGin(c)
		c.Status(http.StatusOK)
	})

	req := httptest.NewRequest(http.MethodPost, "/v1/worksheets/generate", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "tenant-1", gotTenant)
	assert.Equal(t, "user-1", gotUser)
	assert.True(t, gotVerified)
}

func TestAuthUnverifiedClaimStaysFalse(t *testing.T) {
	cfg := AuthConfig{Secret: "test-secret", Issuer: "upllyft", Expiration: time.Hour, Enabled: true}
	token, err := utils.NewJWTManager(cfg.Secret, cfg.Expiration, cfg.Issuer).
		GenerateToken("user-2", "tenant-1", "parent", false)
	require.NoError(t, err)

	r := newAuthTestRouter(t, cfg)
	verified := true
	r.GET("/v1/worksheets", func(c *gin.Context) {
		verified = GetVerifiedFromGin(c)
		c.Status(http.StatusOK)
	})

	req := httptest.NewRequest(http.MethodGet, "/v1/worksheets", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	assert.False(t, verified)
}

func TestAuthRejectsMissingHeader(t *testing.T) {
	cfg := AuthConfig{Secret: "test-secret", Issuer: "upllyft", Expiration: time.Hour, Enabled: true}
	r := newAuthTestRouter(t, cfg)
	r.GET("/v1/worksheets", func(c *gin.Context) { c.Status(http.StatusOK) })

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/v1/worksheets", nil))
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}
