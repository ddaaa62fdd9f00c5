package sibylgate

import (
	"context"
	"net/url"
	"path/filepath"
	"sync/atomic"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/viper"

	"github.com/vantle/sibyl/pkg/logger"
)

// backendEndpoint holds the backend address and token behind an atomic
// pointer so the config watcher can swap them while requests are in
// flight.
type backendEndpoint struct {
	value atomic.Pointer[backendTarget]
}

type backendTarget struct {
	addr  string
	token string
}

func newBackendEndpoint(addr, token string) *backendEndpoint {
	e := &backendEndpoint{}
	e.value.Store(&backendTarget{addr: addr, token: token})
	return e
}

func (e *backendEndpoint) Resolve() (string, string) {
	t := e.value.Load()
	return t.addr, t.token
}

func (e *backendEndpoint) update(addr, token string) {
	e.value.Store(&backendTarget{addr: addr, token: token})
}

// configWatcher reloads the backend endpoint when the config file
// changes on disk.
type configWatcher struct {
	file     string
	endpoint *backendEndpoint
	watcher  *fsnotify.Watcher
}

func newConfigWatcher(file string, endpoint *backendEndpoint) (*configWatcher, error) {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	// Watch the directory, not the file. Editors replace files on
	// save, which invalidates a watch on the file itself.
	if err := w.Add(filepath.Dir(file)); err != nil {
		w.Close()
		return nil, err
	}

	return &configWatcher{file: file, endpoint: endpoint, watcher: w}, nil
}

func (c *configWatcher) Watch(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case event, ok := <-c.watcher.Events:
			if !ok {
				return
			}
			if filepath.Clean(event.Name) != filepath.Clean(c.file) {
				continue
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) {
				continue
			}
			c.reload()
		case err, ok := <-c.watcher.Errors:
			if !ok {
				return
			}
			logger.WarnX("reload", "config watch error", "err", err)
		}
	}
}

func (c *configWatcher) reload() {
	v := viper.New()
	v.SetConfigFile(c.file)
	if err := v.ReadInConfig(); err != nil {
		logger.WarnX("reload", "reread config failed", "file", c.file, "err", err)
		return
	}

	addr := v.GetString("backend-addr")
	token := v.GetString("backend-token")
	if addr == "" {
		return
	}
	if _, err := url.ParseRequestURI(addr); err != nil {
		logger.WarnX("reload", "ignoring invalid backend address", "addr", addr, "err", err)
		return
	}

	prev, _ := c.endpoint.Resolve()
	c.endpoint.update(addr, token)
	if prev != addr {
		logger.InfoX("reload", "backend endpoint switched", "from", prev, "to", addr)
	}
}

func (c *configWatcher) Close() {
	_ = c.watcher.Close()
}
