// Package config loads tagged configuration structs from the process
// environment.
package config

import (
	"fmt"

	"github.com/caarlos0/env/v10"
)

// Load fills cfg from environment variables. Fields are mapped with
// `env` tags and fall back to their `envDefault` value when the
// variable is unset; cfg must be a pointer to a struct.
func Load(cfg any) error {
	if err := env.Parse(cfg); err != nil {
		return fmt.Errorf("parse config: %w", err)
	}
	return nil
}
