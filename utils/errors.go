package utils

import "fmt"

// ConfigurationError signals an unusable run configuration. It is fatal at
// initialisation time and no computation is attempted.
type ConfigurationError struct {
	Reason string
}

func (e *ConfigurationError) Error() string {
	return "configuration error: " + e.Reason
}

func NewConfigurationError(format string, args ...interface{}) *ConfigurationError {
	return &ConfigurationError{Reason: fmt.Sprintf(format, args...)}
}

// IOFailure wraps a failed read or write against the product source, the
// collocation collaborator or the tiled band store. Fatal, no retry.
type IOFailure struct {
	Op  string
	Err error
}

func (e *IOFailure) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *IOFailure) Unwrap() error {
	return e.Err
}

func NewIOFailure(op string, err error) *IOFailure {
	return &IOFailure{Op: op, Err: err}
}
