package options

import (
	"testing"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewOptionsDefaults(t *testing.T) {
	opts := NewOptions()

	assert.Equal(t, "127.0.0.1:11790", opts.Addr)
	assert.Equal(t, "http://localhost:11789", opts.BackendAddr)
	assert.Equal(t, "*", opts.AllowOrigin)
	assert.False(t, opts.AuthEnabled)
	require.NoError(t, opts.Validate())
}

func TestOptionsValidate(t *testing.T) {
	opts := NewOptions()
	opts.Addr = ""
	assert.Error(t, opts.Validate())

	opts = NewOptions()
	opts.BackendAddr = "not-a-url"
	assert.Error(t, opts.Validate())

	opts = NewOptions()
	opts.BackendAddr = "https://backend.internal:8443"
	assert.NoError(t, opts.Validate())
}

func TestOptionsAddFlags(t *testing.T) {
	opts := NewOptions()
	fs := pflag.NewFlagSet("test", pflag.ContinueOnError)
	opts.AddFlags(fs)

	require.NoError(t, fs.Parse([]string{
		"--addr=0.0.0.0:8080",
		"--backend-addr=http://backend:11789",
		"--auth-enabled",
		"--auth-token=secret",
		"--enable-pprof",
	}))

	assert.Equal(t, "0.0.0.0:8080", opts.Addr)
	assert.Equal(t, "http://backend:11789", opts.BackendAddr)
	assert.True(t, opts.AuthEnabled)
	assert.Equal(t, "secret", opts.AuthToken)
	assert.True(t, opts.EnablePprof)
}

func TestOptionsStringHidesSecrets(t *testing.T) {
	opts := NewOptions()
	opts.AuthToken = "secret"
	opts.BackendToken = "backend-secret"

	s := opts.String()
	assert.NotContains(t, s, "secret")
	assert.Contains(t, s, "127.0.0.1:11790")
}
