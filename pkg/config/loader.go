package config

import (
	"fmt"

	"github.com/caarlos0/env/v10"
)

// Validator is implemented by configs that check their own invariants.
type Validator interface {
	Validate() error
}

// Load fills cfg from its `env` struct tags and then, when cfg is a
// Validator, validates it. Parse errors are prefixed "parse config"; a
// failed Validate is returned unwrapped.
//
//	type Config struct {
//	    Port    int    `env:"STOREFRONT_HTTP_PORT" envDefault:"8080"`
//	    APIPath string `env:"STOREFRONT_API_PATH,required"`
//	}
func Load(cfg any) error {
	if err := env.Parse(cfg); err != nil {
		return fmt.Errorf("parse config: %w", err)
	}
	if v, ok := cfg.(Validator); ok {
		return v.Validate()
	}
	return nil
}
