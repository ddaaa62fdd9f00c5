package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

func newAuthEngine(cfg *AuthConfig) *gin.Engine {
	gin.SetMode(gin.TestMode)
	g := gin.New()
	g.Use(BearerAuth(cfg))
	ok := func(c *gin.Context) { c.JSON(http.StatusOK, gin.H{"ok": true}) }
	g.GET("/healthz", ok)
	g.GET("/version", ok)
	g.GET("/api/v1/olap/cubes", ok)
	return g
}

func doRequest(g *gin.Engine, remoteAddr, authHeader string, path string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, path, nil)
	req.RemoteAddr = remoteAddr
	if authHeader != "" {
		req.Header.Set("Authorization", authHeader)
	}
	rec := httptest.NewRecorder()
	g.ServeHTTP(rec, req)
	return rec
}

func TestBearerAuthDisabledAllowsAll(t *testing.T) {
	g := newAuthEngine(&AuthConfig{Enabled: false, Token: "secret"})

	rec := doRequest(g, "203.0.113.5:4312", "", "/api/v1/olap/cubes")
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestBearerAuthNoTokenConfiguredAllowsAll(t *testing.T) {
	t.Setenv("SIBYL_GATEWAY_TOKEN", "")
	g := newAuthEngine(&AuthConfig{Enabled: true})

	rec := doRequest(g, "203.0.113.5:4312", "", "/api/v1/olap/cubes")
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestBearerAuthRejectsMissingHeader(t *testing.T) {
	g := newAuthEngine(&AuthConfig{Enabled: true, Token: "secret"})

	rec := doRequest(g, "203.0.113.5:4312", "", "/api/v1/olap/cubes")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Contains(t, rec.Body.String(), "authentication_error")
}

func TestBearerAuthRejectsWrongToken(t *testing.T) {
	g := newAuthEngine(&AuthConfig{Enabled: true, Token: "secret"})

	rec := doRequest(g, "203.0.113.5:4312", "Bearer wrong", "/api/v1/olap/cubes")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestBearerAuthRejectsMalformedHeader(t *testing.T) {
	g := newAuthEngine(&AuthConfig{Enabled: true, Token: "secret"})

	rec := doRequest(g, "203.0.113.5:4312", "Basic c2VjcmV0", "/api/v1/olap/cubes")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Contains(t, rec.Body.String(), "Bearer")
}

func TestBearerAuthAcceptsCorrectToken(t *testing.T) {
	g := newAuthEngine(&AuthConfig{Enabled: true, Token: "secret"})

	rec := doRequest(g, "203.0.113.5:4312", "Bearer secret", "/api/v1/olap/cubes")
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestBearerAuthLoopbackBypass(t *testing.T) {
	g := newAuthEngine(&AuthConfig{Enabled: true, Token: "secret"})

	for _, addr := range []string{"127.0.0.1:5000", "[::1]:5000"} {
		rec := doRequest(g, addr, "", "/api/v1/olap/cubes")
		assert.Equal(t, http.StatusOK, rec.Code, "remote %s", addr)
	}
}

func TestBearerAuthWhitelistsHealthAndVersion(t *testing.T) {
	g := newAuthEngine(&AuthConfig{Enabled: true, Token: "secret"})

	for _, path := range []string{"/healthz", "/version"} {
		rec := doRequest(g, "203.0.113.5:4312", "", path)
		assert.Equal(t, http.StatusOK, rec.Code, "path %s", path)
	}
}

func TestBearerAuthEnvFallbackToken(t *testing.T) {
	t.Setenv("SIBYL_GATEWAY_TOKEN", "from-env")
	g := newAuthEngine(&AuthConfig{Enabled: true})

	rec := doRequest(g, "203.0.113.5:4312", "Bearer from-env", "/api/v1/olap/cubes")
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = doRequest(g, "203.0.113.5:4312", "Bearer other", "/api/v1/olap/cubes")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}
