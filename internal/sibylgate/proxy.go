package sibylgate

import (
	"net/http"
	"net/http/httputil"
	"net/url"

	"github.com/gin-gonic/gin"

	"github.com/vantle/sibyl/pkg/core"
	"github.com/vantle/sibyl/pkg/errorx"
	"github.com/vantle/sibyl/pkg/logger"

	v1 "github.com/vantle/sibyl/internal/sibylgate/handler/v1"
)

// backendProxy forwards REST requests to the backend, attaching the
// backend bearer token and rewriting the Host header. The backend
// address is resolved per request so config reloads take effect
// without restarting the server.
type backendProxy struct {
	backend v1.Backend
}

func newBackendProxy(backend v1.Backend) *backendProxy {
	return &backendProxy{backend: backend}
}

func (p *backendProxy) Handle(c *gin.Context) {
	addr, token := p.backend()

	target, err := url.Parse(addr)
	if err != nil {
		core.WriteResponse(c, errorx.WrapC(err, v1.ErrProxyBackend, "invalid backend address %q", addr), nil)
		return
	}

	proxy := httputil.NewSingleHostReverseProxy(target)
	director := proxy.Director
	proxy.Director = func(req *http.Request) {
		director(req)
		req.Host = target.Host
		if token != "" {
			req.Header.Set("Authorization", "Bearer "+token)
		}
	}
	proxy.ErrorHandler = func(w http.ResponseWriter, r *http.Request, err error) {
		logger.ErrorX("proxy", "backend request failed", "method", r.Method, "path", r.URL.Path, "err", err)
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusBadGateway)
		_, _ = w.Write([]byte(`{"error":{"message":"backend unavailable","type":"proxy_error"}}`))
	}

	proxy.ServeHTTP(c.Writer, c.Request)
}
