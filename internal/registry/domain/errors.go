package domain

import (
	"errors"
	"fmt"
)

// ErrorKind classifies a registry rejection.
type ErrorKind string

const (
	// KindAuthorization means the caller may not perform the operation.
	KindAuthorization ErrorKind = "authorization"

	// KindValidation means the arguments are malformed on their own.
	KindValidation ErrorKind = "validation"

	// KindConsistency means the arguments conflict with registry or controller state.
	KindConsistency ErrorKind = "consistency"
)

// RegistryError is a rejection signal with a stable code.
// All sentinels below are *RegistryError and compare by identity.
type RegistryError struct {
	Code    string
	Kind    ErrorKind
	Message string
}

func (e *RegistryError) Error() string {
	return e.Code + ": " + e.Message
}

func newRegistryError(code string, kind ErrorKind, msg string) *RegistryError {
	return &RegistryError{Code: code, Kind: kind, Message: msg}
}

// ===========================================================================
// Authorization
// ===========================================================================

// ErrNotOwner is returned when a mutating call is made by anyone but the administrator.
var ErrNotOwner = newRegistryError("NotOwner", KindAuthorization, "caller is not the owner")

// ===========================================================================
// Validation
// ===========================================================================

// ErrZeroAdapter is returned when the adapter argument is the null identifier.
var ErrZeroAdapter = newRegistryError("ZeroAdapter", KindValidation, "adapter address must exist")

// ErrEmptyModulesList is returned when a batch carries no modules.
var ErrEmptyModulesList = newRegistryError("EmptyModulesList", KindValidation, "modules must not be empty")

// ErrModuleAdapterLengthMismatch is returned when batch input sequences differ in length.
// The concrete error is a *LengthMismatchError naming the offending sequence.
var ErrModuleAdapterLengthMismatch = newRegistryError("ModuleAdapterLengthMismatch", KindValidation, "batch input lengths mismatch")

// ErrZeroOwner is returned when ownership would be handed to the null identifier.
var ErrZeroOwner = newRegistryError("ZeroOwner", KindValidation, "new owner is the zero address")

// ===========================================================================
// Consistency
// ===========================================================================

// ErrModuleNotInitialized is returned when the controller does not recognize the module.
var ErrModuleNotInitialized = newRegistryError("ModuleNotInitialized", KindConsistency, "must be valid module")

// ErrAdapterAlreadyExists is returned by add when the key is already bound.
var ErrAdapterAlreadyExists = newRegistryError("AdapterAlreadyExists", KindConsistency, "integration exists already")

// ErrAdapterDoesNotExist is returned by edit when the key is not bound.
var ErrAdapterDoesNotExist = newRegistryError("AdapterDoesNotExist", KindConsistency, "integration does not exist")

// ErrIntegrationNotExist is returned by remove when the key is not bound.
var ErrIntegrationNotExist = newRegistryError("IntegrationNotExist", KindConsistency, "integration does not exist")

// KindOf returns the kind of the first RegistryError in err's chain,
// or "" if err carries none.
func KindOf(err error) ErrorKind {
	var re *RegistryError
	if errors.As(err, &re) {
		return re.Kind
	}
	return ""
}

// CodeOf returns the code of the first RegistryError in err's chain,
// or "" if err carries none.
func CodeOf(err error) string {
	var re *RegistryError
	if errors.As(err, &re) {
		return re.Code
	}
	return ""
}

// LengthMismatchError reports which batch sequence disagrees with the module count.
type LengthMismatchError struct {
	// Field is "adapterNames" or "adapters".
	Field   string
	Modules int
	Got     int
}

func (e *LengthMismatchError) Error() string {
	return fmt.Sprintf("module and %s lengths mismatch: %d modules, %d %s",
		e.Field, e.Modules, e.Got, e.Field)
}

func (e *LengthMismatchError) Unwrap() error {
	return ErrModuleAdapterLengthMismatch
}

// OpError records the operation and key a rejection applies to.
type OpError struct {
	Op     string
	Module Address
	Name   string
	Err    error
}

func (e *OpError) Error() string {
	return fmt.Sprintf("%s %s/%q: %v", e.Op, e.Module, e.Name, e.Err)
}

func (e *OpError) Unwrap() error {
	return e.Err
}

// BatchError reports the first failing element of a batch.
// No element of the batch was applied.
type BatchError struct {
	Index int
	Err   error
}

func (e *BatchError) Error() string {
	return fmt.Sprintf("batch element %d: %v", e.Index, e.Err)
}

func (e *BatchError) Unwrap() error {
	return e.Err
}

// BatchIndexOf returns the failing element index if err carries a BatchError.
func BatchIndexOf(err error) (int, bool) {
	var be *BatchError
	if errors.As(err, &be) {
		return be.Index, true
	}
	return 0, false
}
