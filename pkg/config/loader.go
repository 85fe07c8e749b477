package config

import (
	"fmt"

	"github.com/caarlos0/env/v10"
)

// Option customizes how Load resolves variables.
type Option func(*env.Options)

// WithEnvironment makes Load read from vars instead of the process environment.
func WithEnvironment(vars map[string]string) Option {
	return func(o *env.Options) {
		o.Environment = vars
	}
}

// WithPrefix prepends prefix to every `env` tag.
func WithPrefix(prefix string) Option {
	return func(o *env.Options) {
		o.Prefix = prefix
	}
}

// Load parses environment variables into the struct pointed to by cfg using
// its `env` and `envDefault` tags.
func Load(cfg any, opts ...Option) error {
	var o env.Options
	for _, opt := range opts {
		opt(&o)
	}
	if err := env.ParseWithOptions(cfg, o); err != nil {
		return fmt.Errorf("parse config: %w", err)
	}
	return nil
}
