package config

import "errors"

var (
	// ErrInvalidConfig wraps every Validate failure, including bundle errors.
	ErrInvalidConfig = errors.New("invalid luck config")
	// ErrLoadConfig wraps failures reading the LUCK_CONFIG file or LUCK_* env.
	ErrLoadConfig = errors.New("cannot load luck config")
)
