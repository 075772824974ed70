package config

import (
	"errors"
	"fmt"

	"github.com/dshills/highlighter/internal/config/loader"
)

// Errors returned by configuration operations.
var (
	// ErrInvalidPixelRatio indicates a pixel ratio that is not a positive
	// finite number.
	ErrInvalidPixelRatio = errors.New("pixel ratio must be positive and finite")

	// ErrInvalidDelay indicates a negative debounce delay.
	ErrInvalidDelay = errors.New("delay must not be negative")

	// ErrInvalidPosition indicates an unknown CSS position mode.
	ErrInvalidPosition = errors.New("unknown position mode")

	// ErrUnknownSetting indicates a key the configuration does not define.
	ErrUnknownSetting = errors.New("unknown setting")

	// ErrTypeMismatch indicates a value of the wrong type.
	ErrTypeMismatch = errors.New("type mismatch")

	// ErrFileNotFound indicates the configuration file doesn't exist.
	ErrFileNotFound = errors.New("config file not found")

	// ErrUnsupportedFormat indicates a file extension with no loader.
	ErrUnsupportedFormat = errors.New("unsupported config format")
)

// ParseError represents an error while parsing a configuration file.
type ParseError = loader.ParseError

// SettingError describes a setting that could not be applied.
type SettingError struct {
	// Path is the dot-separated setting path.
	Path string
	// Value is the offending value.
	Value any
	// Err is the underlying error.
	Err error
}

// Error implements the error interface.
func (e *SettingError) Error() string {
	return fmt.Sprintf("%s: %v (value: %v)", e.Path, e.Err, e.Value)
}

// Unwrap returns the underlying error.
func (e *SettingError) Unwrap() error {
	return e.Err
}
