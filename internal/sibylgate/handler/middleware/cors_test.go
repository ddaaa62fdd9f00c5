package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

func newCORSEngine(origin string) *gin.Engine {
	gin.SetMode(gin.TestMode)
	g := gin.New()
	g.Use(CORS(origin))
	g.GET("/api/v1/graph/summary", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"ok": true})
	})
	return g
}

func TestCORSSetsHeaders(t *testing.T) {
	g := newCORSEngine("http://console.local:5173")

	req := httptest.NewRequest(http.MethodGet, "/api/v1/graph/summary", nil)
	rec := httptest.NewRecorder()
	g.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "http://console.local:5173", rec.Header().Get("Access-Control-Allow-Origin"))
	assert.Contains(t, rec.Header().Get("Access-Control-Allow-Headers"), "X-Sibyl-Principal")
}

func TestCORSDefaultsToWildcard(t *testing.T) {
	g := newCORSEngine("")

	req := httptest.NewRequest(http.MethodGet, "/api/v1/graph/summary", nil)
	rec := httptest.NewRecorder()
	g.ServeHTTP(rec, req)

	assert.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))
}

func TestCORSPreflightShortCircuits(t *testing.T) {
	g := newCORSEngine("*")

	req := httptest.NewRequest(http.MethodOptions, "/api/v1/graph/summary", nil)
	rec := httptest.NewRecorder()
	g.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))
	assert.Empty(t, rec.Body.String())
}
