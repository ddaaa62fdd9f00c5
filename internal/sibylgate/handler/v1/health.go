package v1

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/vantle/sibyl/pkg/version"
)

// Healthz reports gateway liveness.
func Healthz(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// Version reports gateway build information.
func Version(c *gin.Context) {
	c.JSON(http.StatusOK, version.Get())
}
