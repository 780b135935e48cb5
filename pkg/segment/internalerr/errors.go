package internalerr

import (
	"errors"
	"fmt"
)

// Sentinel errors for common cases
var (
	ErrInvalidConfig  = errors.New("invalid configuration")
	ErrBufferTooSmall = errors.New("buffer too small")
	ErrIO             = errors.New("read failure")
	ErrPattern        = errors.New("malformed pattern")
	ErrOutOfRange     = errors.New("index out of range")
)

// ConfigError reports a rejected tunable at construction time.
type ConfigError struct {
	Field   string
	Message string
}

func (e *ConfigError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("invalid configuration for %s: %s", e.Field, e.Message)
	}
	return "invalid configuration: " + e.Message
}

func (e *ConfigError) Unwrap() error { return ErrInvalidConfig }

// WindowError reports an access below the retained part of a sliding window.
type WindowError struct {
	Index int // requested absolute index
	Floor int // lowest index still retained
	Size  int // buffer capacity
}

func (e *WindowError) Error() string {
	return fmt.Sprintf("buffer too small: index %d is below retained floor %d (buffer size %d)", e.Index, e.Floor, e.Size)
}

func (e *WindowError) Unwrap() error { return ErrBufferTooSmall }

// IOError wraps a failure of the underlying character source.
type IOError struct {
	Op  string
	Err error
}

func (e *IOError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

// Unwrap exposes both the ErrIO kind and the cause.
func (e *IOError) Unwrap() []error { return []error{ErrIO, e.Err} }

// PatternError reports a rule pattern the regex back-end rejected.
type PatternError struct {
	Pattern string
	Err     error
}

func (e *PatternError) Error() string {
	return fmt.Sprintf("compile %q: %v", e.Pattern, e.Err)
}

func (e *PatternError) Unwrap() []error { return []error{ErrPattern, e.Err} }

// Config builds a ConfigError.
func Config(field, format string, args ...any) error {
	return &ConfigError{Field: field, Message: fmt.Sprintf(format, args...)}
}
