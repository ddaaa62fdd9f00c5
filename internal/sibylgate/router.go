package sibylgate

import (
	"github.com/gin-contrib/pprof"
	"github.com/gin-gonic/gin"

	"github.com/vantle/sibyl/internal/sibylgate/handler/middleware"
	v1 "github.com/vantle/sibyl/internal/sibylgate/handler/v1"
)

// routerDeps holds the dependencies needed for route registration.
type routerDeps struct {
	backend     v1.Backend
	authConfig  *middleware.AuthConfig
	allowOrigin string
	enablePprof bool
}

func initRouter(g *gin.Engine, deps *routerDeps) {
	installMiddleware(g, deps)
	installController(g, deps)
}

func installMiddleware(g *gin.Engine, deps *routerDeps) {
	g.Use(gin.Recovery())
	g.Use(middleware.CORS(deps.allowOrigin))

	if deps.authConfig != nil {
		g.Use(middleware.BearerAuth(deps.authConfig))
	}
}

func installController(g *gin.Engine, deps *routerDeps) {
	g.GET("/healthz", v1.Healthz)
	g.GET("/version", v1.Version)

	if deps.enablePprof {
		pprof.Register(g)
	}

	queryHandler := v1.NewQueryStreamHandler(deps.backend)
	proxy := newBackendProxy(deps.backend)

	apiV1 := g.Group("/api/v1")
	{
		// The turn stream is bridged to SSE for EventSource consumers.
		apiV1.POST("/query/stream", queryHandler.Handle)

		// Everything else passes through to the backend services.
		for _, surface := range []string{"graph", "olap", "quality", "incidents", "alerts", "agents", "upload", "text2sql"} {
			apiV1.Any("/"+surface+"/*rest", proxy.Handle)
			apiV1.Any("/"+surface, proxy.Handle)
		}
	}
}
