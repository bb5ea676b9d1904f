// Package errors provides error handling for mockwbem.
//
// It re-exports github.com/cockroachdb/errors and defines one sentinel error
// per CIM status condition the engine can report. Protocol-facing failures
// always wrap exactly one of these sentinels, so callers (and the wire
// encoder sitting above the engine) can classify any error with errors.Is or
// StatusCode without parsing messages.
//
// Usage:
//
//	if err := repo.DeleteInstance(path); errors.Is(err, errors.ErrNotFound) {
//	    // instance was already gone
//	}
//
//	code, ok := errors.StatusCode(err) // DMTF status code for the encoder
package errors

import (
	crdb "github.com/cockroachdb/errors"
)

// Core error creation and wrapping
var (
	New          = crdb.New
	Newf         = crdb.Newf
	Wrap         = crdb.Wrap
	Wrapf        = crdb.Wrapf
	WithStack    = crdb.WithStack
	WithMessage  = crdb.WithMessage
	WithMessagef = crdb.WithMessagef
	WithHint     = crdb.WithHint
	WithHintf    = crdb.WithHintf
	WithDetail   = crdb.WithDetail
	WithDetailf  = crdb.WithDetailf
)

// Error inspection
var (
	Is        = crdb.Is
	IsAny     = crdb.IsAny
	As        = crdb.As
	Unwrap    = crdb.Unwrap
	UnwrapAll = crdb.UnwrapAll
)

// Assertions
var (
	AssertionFailedf = crdb.AssertionFailedf
)

// Sentinel errors for the CIM status conditions the engine reports. The wire
// encoder maps these 1:1 to CIM_ERR_* status codes via StatusCode.
var (
	// ErrFailed is the catch-all for declared-but-unsatisfiable semantic
	// violations, such as instantiating an abstract class.
	ErrFailed = New("operation failed")

	// ErrInvalidNamespace indicates the target namespace does not exist.
	ErrInvalidNamespace = New("namespace does not exist")

	// ErrInvalidParameter indicates a semantically invalid request value,
	// such as a duplicate property without an Override qualifier.
	ErrInvalidParameter = New("invalid parameter")

	// ErrInvalidClass indicates the target class does not exist for an
	// instance-level operation.
	ErrInvalidClass = New("invalid class")

	// ErrNotFound indicates the requested object does not exist.
	ErrNotFound = New("not found")

	// ErrNotSupported indicates the operation is disabled or unimplemented.
	ErrNotSupported = New("not supported")

	// ErrClassHasChildren indicates a class mutation was rejected because
	// subclasses exist.
	ErrClassHasChildren = New("class has subclasses")

	// ErrClassHasInstances indicates a class mutation was rejected because
	// instances exist.
	ErrClassHasInstances = New("class has instances")

	// ErrInvalidSuperclass indicates the named superclass does not exist.
	ErrInvalidSuperclass = New("superclass does not exist")

	// ErrAlreadyExists indicates the object to create is already present.
	ErrAlreadyExists = New("already exists")

	// ErrMethodNotAvailable indicates no provider services the method.
	ErrMethodNotAvailable = New("method not available")

	// ErrMethodNotFound indicates the class does not declare the method.
	ErrMethodNotFound = New("method not found")

	// ErrNamespaceNotEmpty indicates namespace deletion was rejected because
	// the namespace still holds classes, qualifiers, or instances.
	ErrNamespaceNotEmpty = New("namespace not empty")

	// ErrInvalidEnumerationContext indicates an unknown, closed, or expired
	// enumeration context token.
	ErrInvalidEnumerationContext = New("invalid enumeration context")
)

// ErrUsage marks local programming misuse at a component boundary (wrong
// argument shape, a nil required value, closing a context token that was
// never issued). It deliberately has no CIM status code: callers must never
// confuse it with a protocol-facing condition.
var ErrUsage = New("usage error")

// DMTF status codes for the protocol-facing sentinels.
const (
	StatusFailed                    = 1
	StatusInvalidNamespace          = 3
	StatusInvalidParameter          = 4
	StatusInvalidClass              = 5
	StatusNotFound                  = 6
	StatusNotSupported              = 7
	StatusClassHasChildren          = 8
	StatusClassHasInstances         = 9
	StatusInvalidSuperclass         = 10
	StatusAlreadyExists             = 11
	StatusMethodNotAvailable        = 16
	StatusMethodNotFound            = 17
	StatusNamespaceNotEmpty         = 20
	StatusInvalidEnumerationContext = 21
)

var statusCodes = []struct {
	sentinel error
	code     int
}{
	{ErrInvalidNamespace, StatusInvalidNamespace},
	{ErrInvalidParameter, StatusInvalidParameter},
	{ErrInvalidClass, StatusInvalidClass},
	{ErrNotFound, StatusNotFound},
	{ErrNotSupported, StatusNotSupported},
	{ErrClassHasChildren, StatusClassHasChildren},
	{ErrClassHasInstances, StatusClassHasInstances},
	{ErrInvalidSuperclass, StatusInvalidSuperclass},
	{ErrAlreadyExists, StatusAlreadyExists},
	{ErrMethodNotAvailable, StatusMethodNotAvailable},
	{ErrMethodNotFound, StatusMethodNotFound},
	{ErrNamespaceNotEmpty, StatusNamespaceNotEmpty},
	{ErrInvalidEnumerationContext, StatusInvalidEnumerationContext},
	{ErrFailed, StatusFailed},
}

// StatusCode returns the DMTF status code for a protocol-facing error.
// The second return is false for nil errors and for local usage errors,
// which have no protocol representation.
func StatusCode(err error) (int, bool) {
	if err == nil {
		return 0, false
	}
	for _, m := range statusCodes {
		if Is(err, m.sentinel) {
			return m.code, true
		}
	}
	return 0, false
}

// IsProtocolError reports whether err wraps one of the CIM status sentinels.
func IsProtocolError(err error) bool {
	_, ok := StatusCode(err)
	return ok
}

// IsUsageError reports whether err is local programming misuse rather than a
// protocol-facing condition.
func IsUsageError(err error) bool {
	return err != nil && Is(err, ErrUsage)
}
