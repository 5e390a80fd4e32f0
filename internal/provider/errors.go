package provider

import (
	"errors"
	"fmt"
)

// EIP-1193 provider error codes.
const (
	CodeUserRejected      = 4001
	CodeUnauthorized      = 4100
	CodeUnsupportedMethod = 4200
	CodeDisconnected      = 4900
	CodeChainDisconnected = 4901
	CodeUnrecognizedChain = 4902
)

// Error is a coded provider error.
type Error struct {
	Code    int
	Message string
}

func (e *Error) Error() string {
	return fmt.Sprintf("provider error %d: %s", e.Code, e.Message)
}

// NewError returns a coded provider error.
func NewError(code int, msg string) *Error {
	return &Error{Code: code, Message: msg}
}

// Code extracts the provider error code from err, or 0.
func Code(err error) int {
	var pe *Error
	if errors.As(err, &pe) {
		return pe.Code
	}
	return 0
}

// IsUserRejection reports whether the user declined the request.
func IsUserRejection(err error) bool {
	return Code(err) == CodeUserRejected
}

// IsUnrecognizedChain reports whether the wallet does not know the chain.
func IsUnrecognizedChain(err error) bool {
	return Code(err) == CodeUnrecognizedChain
}

func errRejected() error {
	return NewError(CodeUserRejected, "User rejected the request.")
}
