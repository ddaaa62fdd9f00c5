package sibylgate

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/gin-gonic/gin"

	"github.com/vantle/sibyl/internal/sibylgate/config"
	"github.com/vantle/sibyl/internal/sibylgate/handler/middleware"
	"github.com/vantle/sibyl/pkg/logger"
)

type apiServer struct {
	cfg     *config.Config
	engine  *gin.Engine
	server  *http.Server
	backend *backendEndpoint
	watcher *configWatcher
}

type preparedAPIServer struct {
	*apiServer
}

func createAPIServer(cfg *config.Config) (*apiServer, error) {
	gin.SetMode(gin.ReleaseMode)

	backend := newBackendEndpoint(cfg.BackendAddr, cfg.BackendToken)

	var watcher *configWatcher
	if cfg.ConfigFile != "" {
		w, err := newConfigWatcher(cfg.ConfigFile, backend)
		if err != nil {
			return nil, err
		}
		watcher = w
	}

	engine := gin.New()

	return &apiServer{
		cfg:     cfg,
		engine:  engine,
		backend: backend,
		watcher: watcher,
		server: &http.Server{
			Addr:    cfg.Addr,
			Handler: engine,
		},
	}, nil
}

func (s *apiServer) PrepareRun() preparedAPIServer {
	var authConfig *middleware.AuthConfig
	if s.cfg.AuthEnabled {
		authConfig = &middleware.AuthConfig{
			Enabled: true,
			Token:   s.cfg.AuthToken,
		}
	}

	initRouter(s.engine, &routerDeps{
		backend:     s.backend.Resolve,
		authConfig:  authConfig,
		allowOrigin: s.cfg.AllowOrigin,
		enablePprof: s.cfg.EnablePprof,
	})

	return preparedAPIServer{s}
}

func (s preparedAPIServer) Run() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if s.watcher != nil {
		go s.watcher.Watch(ctx)
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("gateway listening on %s", s.cfg.Addr)
		if err := s.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	logger.Info("shutting down gateway")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), s.cfg.ShutdownTimeout)
	defer cancel()

	if err := s.server.Shutdown(shutdownCtx); err != nil {
		return err
	}

	if s.watcher != nil {
		s.watcher.Close()
	}

	return nil
}
