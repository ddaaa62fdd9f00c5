package options

import (
	"fmt"
	"net/url"
	"time"

	"github.com/spf13/pflag"

	"github.com/vantle/sibyl/pkg/utils/json"
)

// Options holds the sibylgate run configuration.
type Options struct {
	// Addr is the listen address of the gateway.
	Addr string `json:"addr" mapstructure:"addr"`

	// BackendAddr is the root URL of the sibyl backend services.
	BackendAddr string `json:"backend-addr" mapstructure:"backend-addr"`

	// BackendToken is sent to the backend as a bearer token.
	BackendToken string `json:"-" mapstructure:"backend-token"`

	// AllowOrigin is the browser origin allowed by CORS.
	AllowOrigin string `json:"allow-origin" mapstructure:"allow-origin"`

	// AuthEnabled enforces bearer auth on non-loopback requests.
	AuthEnabled bool `json:"auth-enabled" mapstructure:"auth-enabled"`

	// AuthToken is the expected bearer token. Falls back to the
	// SIBYL_GATEWAY_TOKEN environment variable when empty.
	AuthToken string `json:"-" mapstructure:"auth-token"`

	// EnablePprof exposes the pprof endpoints under /debug/pprof.
	EnablePprof bool `json:"enable-pprof" mapstructure:"enable-pprof"`

	// ConfigFile is the watched config file for hot reload of the
	// backend address. Empty disables the watcher.
	ConfigFile string `json:"config-file" mapstructure:"config-file"`

	// ShutdownTimeout bounds graceful shutdown.
	ShutdownTimeout time.Duration `json:"shutdown-timeout" mapstructure:"shutdown-timeout"`
}

// NewOptions returns the default options.
func NewOptions() *Options {
	return &Options{
		Addr:            "127.0.0.1:11790",
		BackendAddr:     "http://localhost:11789",
		AllowOrigin:     "*",
		ShutdownTimeout: 10 * time.Second,
	}
}

// AddFlags registers the gateway flags.
func (o *Options) AddFlags(fs *pflag.FlagSet) {
	fs.StringVar(&o.Addr, "addr", o.Addr, "Gateway listen address")
	fs.StringVar(&o.BackendAddr, "backend-addr", o.BackendAddr, "Sibyl backend root URL")
	fs.StringVar(&o.BackendToken, "backend-token", o.BackendToken, "Bearer token forwarded to the backend")
	fs.StringVar(&o.AllowOrigin, "allow-origin", o.AllowOrigin, "Browser origin allowed by CORS")
	fs.BoolVar(&o.AuthEnabled, "auth-enabled", o.AuthEnabled, "Require a bearer token on non-loopback requests")
	fs.StringVar(&o.AuthToken, "auth-token", o.AuthToken, "Expected bearer token (or SIBYL_GATEWAY_TOKEN)")
	fs.BoolVar(&o.EnablePprof, "enable-pprof", o.EnablePprof, "Expose pprof under /debug/pprof")
	fs.StringVar(&o.ConfigFile, "config-file", o.ConfigFile, "Config file watched for backend address changes")
	fs.DurationVar(&o.ShutdownTimeout, "shutdown-timeout", o.ShutdownTimeout, "Graceful shutdown timeout")
}

// Validate checks the options for usable values.
func (o *Options) Validate() error {
	if o.Addr == "" {
		return fmt.Errorf("addr must not be empty")
	}
	u, err := url.Parse(o.BackendAddr)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("invalid backend address %q", o.BackendAddr)
	}
	return nil
}

func (o *Options) String() string {
	data, _ := json.Marshal(o)

	return string(data)
}
