package config

import "errors"

// ErrInvalidConfig marks a configuration validation failure.
var ErrInvalidConfig = errors.New("invalid config")
