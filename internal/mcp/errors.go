package mcp

import (
	"errors"
	"fmt"

	semerrors "github.com/semantiq-dev/semantiq/internal/errors"
)

// Standard JSON-RPC error codes, plus semantiq-specific extensions in the
// -32000 reserved-for-implementation-defined-errors range.
const (
	ErrCodeInvalidParams  = -32602
	ErrCodeMethodNotFound = -32601
	ErrCodeInternalError  = -32603
	ErrCodeNotFound       = -32001
	ErrCodeTimeout        = -32002
)

// ErrToolNotFound indicates the requested tool does not exist.
var ErrToolNotFound = errors.New("tool not found")

// MCPError is a protocol-level error with a JSON-RPC code and message.
type MCPError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

func (e *MCPError) Error() string {
	return fmt.Sprintf("mcp error %d: %s", e.Code, e.Message)
}

// NewInvalidParamsError builds an invalid-params error with a custom message.
func NewInvalidParamsError(msg string) *MCPError {
	return &MCPError{Code: ErrCodeInvalidParams, Message: msg}
}

// NewMethodNotFoundError builds a method-not-found error for an unknown tool name.
func NewMethodNotFoundError(name string) *MCPError {
	return &MCPError{Code: ErrCodeMethodNotFound, Message: fmt.Sprintf("tool %q not found", name)}
}

// MapError converts an error from the retrieval engine into an MCPError,
// translating semantiq's structured error categories into JSON-RPC codes.
func MapError(err error) *MCPError {
	if err == nil {
		return nil
	}

	var semErr *semerrors.SemantiqError
	if errors.As(err, &semErr) {
		return mapSemantiqError(semErr)
	}

	if errors.Is(err, ErrToolNotFound) {
		return &MCPError{Code: ErrCodeMethodNotFound, Message: err.Error()}
	}

	return &MCPError{Code: ErrCodeInternalError, Message: err.Error()}
}

func mapSemantiqError(e *semerrors.SemantiqError) *MCPError {
	message := e.Message
	if e.Suggestion != "" {
		message = fmt.Sprintf("%s %s", message, e.Suggestion)
	}

	switch e.Category {
	case semerrors.CategoryNotFound:
		return &MCPError{Code: ErrCodeNotFound, Message: message}
	case semerrors.CategoryLockPoisoned:
		return &MCPError{Code: ErrCodeTimeout, Message: message}
	default:
		return &MCPError{Code: ErrCodeInternalError, Message: message}
	}
}
