package config

import (
	"github.com/vantle/sibyl/internal/sibylgate/options"
)

// Config is the running configuration structure of the sibylgate service.
type Config struct {
	*options.Options
}

// CreateConfigFromOptions creates a running configuration instance based
// on the given options.
func CreateConfigFromOptions(opts *options.Options) (*Config, error) {
	if err := opts.Validate(); err != nil {
		return nil, err
	}
	return &Config{opts}, nil
}
