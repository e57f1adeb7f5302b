package config

import (
	"errors"
)

// Error kinds distinguishing a file/env read problem from a value that
// fails validation. Callers branch with errors.Is.
var (
	ErrInvalidConfig = errors.New("config validation failed")
	ErrLoadConfig    = errors.New("config could not be loaded")
)
