// Package errors defines the error taxonomy of the identity store: typed
// errors carrying a machine-checkable code, plus a Describer hook letting the
// upstream identity layer supply its own user-facing descriptions.
package errors

import (
	"errors"
	"fmt"
)

// Error codes returned by the store. Callers branch on these, never on the
// description text.
const (
	InvalidArgument      = "invalid_argument"
	ConfigurationInvalid = "configuration_invalid"
	ConcurrencyFailure   = "concurrency_failure"
	MappingFailure       = "mapping_failure"
	StoreClosed          = "store_closed"
	NotFound             = "not_found"
)

// StoreError is a domain failure with a stable code and a human-readable
// description. Transport failures from the MongoDB driver are not wrapped in
// StoreError; they propagate unchanged.
type StoreError struct {
	Code        string `json:"error"`
	Description string `json:"error_description,omitempty"`
	Err         error  `json:"-"`
}

func (e *StoreError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Description)
}

func (e *StoreError) Unwrap() error {
	return e.Err
}

// HasCode reports whether err is (or wraps) a StoreError with the given code.
func HasCode(err error, code string) bool {
	var se *StoreError
	return errors.As(err, &se) && se.Code == code
}

// Describer maps an error code to a user-facing description. The default
// descriptions below are developer-oriented; identity frameworks typically
// install their own localized set.
type Describer interface {
	Describe(code string) string
}

// DescriberFunc adapts a function to the Describer interface.
type DescriberFunc func(code string) string

func (f DescriberFunc) Describe(code string) string { return f(code) }

var defaultDescriptions = map[string]string{
	InvalidArgument:      "a required argument is missing or empty",
	ConfigurationInvalid: "the store configuration is missing or invalid",
	ConcurrencyFailure:   "the record was modified by another caller; reload and retry",
	MappingFailure:       "a stored document field does not match the entity schema",
	StoreClosed:          "the store has been closed",
	NotFound:             "no matching record was found",
}

// DefaultDescriber serves the built-in descriptions.
var DefaultDescriber Describer = DescriberFunc(func(code string) string {
	return defaultDescriptions[code]
})

// New builds a StoreError for code using the given describer (nil means
// DefaultDescriber).
func New(d Describer, code string) *StoreError {
	if d == nil {
		d = DefaultDescriber
	}
	return &StoreError{Code: code, Description: d.Describe(code)}
}

// NewInvalidArgument reports a missing or empty required argument.
func NewInvalidArgument(name string) *StoreError {
	return &StoreError{
		Code:        InvalidArgument,
		Description: fmt.Sprintf("argument %q must not be empty", name),
	}
}

// NewConfiguration reports invalid store configuration, detected eagerly at
// construction.
func NewConfiguration(description string) *StoreError {
	return &StoreError{Code: ConfigurationInvalid, Description: description}
}

// NewNotFound reports a mutation whose target record does not exist.
func NewNotFound(what string) *StoreError {
	return &StoreError{
		Code:        NotFound,
		Description: fmt.Sprintf("%s not found", what),
	}
}

// MappingError reports a stored document field whose type is incompatible
// with the target entity field.
type MappingError struct {
	Field string
	Value interface{}
}

func (e *MappingError) Error() string {
	return fmt.Sprintf("mapping field %q: incompatible stored type %T", e.Field, e.Value)
}

// NewMapping wraps a field-level type mismatch into a coded StoreError so
// callers can branch on MappingFailure while errors.As still reaches the
// *MappingError detail.
func NewMapping(field string, value interface{}) *StoreError {
	me := &MappingError{Field: field, Value: value}
	return &StoreError{Code: MappingFailure, Description: me.Error(), Err: me}
}
