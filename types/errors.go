package types

import "fmt"

// ConfigurationError is fatal and is reported during setup, before any solve
type ConfigurationError struct {
	Object string // Name of the object being configured, e.g. "momentum_x"
	Param  string // Offending parameter, if any
	Msg    string
}

func (e *ConfigurationError) Error() string {
	switch {
	case len(e.Object) != 0 && len(e.Param) != 0:
		return fmt.Sprintf("configuration error in %s, parameter %s: %s", e.Object, e.Param, e.Msg)
	case len(e.Object) != 0:
		return fmt.Sprintf("configuration error in %s: %s", e.Object, e.Msg)
	case len(e.Param) != 0:
		return fmt.Sprintf("configuration error, parameter %s: %s", e.Param, e.Msg)
	}
	return "configuration error: " + e.Msg
}

func NewConfigurationError(object, param, format string, args ...any) *ConfigurationError {
	return &ConfigurationError{
		Object: object,
		Param:  param,
		Msg:    fmt.Sprintf(format, args...),
	}
}

// InternalInvariantViolation should never occur for a correct configuration, it
// always aborts the current solve
type InternalInvariantViolation struct {
	Where string
	Msg   string
}

func (e *InternalInvariantViolation) Error() string {
	return fmt.Sprintf("internal invariant violated in %s: %s", e.Where, e.Msg)
}

func NewInvariantViolation(where, format string, args ...any) *InternalInvariantViolation {
	return &InternalInvariantViolation{
		Where: where,
		Msg:   fmt.Sprintf(format, args...),
	}
}
