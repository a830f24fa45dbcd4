package engine

import (
	"errors"
	"fmt"
)

// RegistryError reports misuse of a Registry: declaring twice, declaring
// after sealing, or querying before sealing or for an unknown name.
//
// Failures to build a descriptor are *ir.Error values instead, so callers
// can match them with errors.Is against the ir sentinels.
type RegistryError struct {
	// Code identifies the error category.
	Code RegistryErrorCode

	// Message is a human-readable description.
	Message string

	// TypeName identifies the affected type, if any.
	TypeName string
}

// RegistryErrorCode categorizes registry errors.
type RegistryErrorCode string

const (
	// ErrCodeDuplicateType indicates a type name was declared twice.
	ErrCodeDuplicateType RegistryErrorCode = "DUPLICATE_TYPE"

	// ErrCodeReservedName indicates a declaration reused a scalar name.
	ErrCodeReservedName RegistryErrorCode = "RESERVED_NAME"

	// ErrCodeSealed indicates a declaration arrived after Seal.
	ErrCodeSealed RegistryErrorCode = "SEALED"

	// ErrCodeNotSealed indicates a query arrived before Seal.
	ErrCodeNotSealed RegistryErrorCode = "NOT_SEALED"

	// ErrCodeNotRegistered indicates a query for an undeclared name.
	ErrCodeNotRegistered RegistryErrorCode = "NOT_REGISTERED"
)

// Sentinels for errors.Is checks.
var (
	ErrDuplicateType = &RegistryError{Code: ErrCodeDuplicateType}
	ErrReservedName  = &RegistryError{Code: ErrCodeReservedName}
	ErrSealed        = &RegistryError{Code: ErrCodeSealed}
	ErrNotSealed     = &RegistryError{Code: ErrCodeNotSealed}
	ErrNotRegistered = &RegistryError{Code: ErrCodeNotRegistered}
)

// Error implements the error interface.
func (e *RegistryError) Error() string {
	msg := e.Message
	if msg == "" {
		msg = string(e.Code)
	}
	if e.TypeName != "" {
		return fmt.Sprintf("%s: %s (type=%s)", e.Code, msg, e.TypeName)
	}
	return fmt.Sprintf("%s: %s", e.Code, msg)
}

// Is reports whether target is a *RegistryError with the same code.
func (e *RegistryError) Is(target error) bool {
	var t *RegistryError
	if errors.As(target, &t) {
		return e.Code == t.Code
	}
	return false
}

func newRegistryError(code RegistryErrorCode, typeName, format string, args ...any) *RegistryError {
	return &RegistryError{
		Code:     code,
		Message:  fmt.Sprintf(format, args...),
		TypeName: typeName,
	}
}
