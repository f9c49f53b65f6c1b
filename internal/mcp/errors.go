// Package mcp exposes Argus search over the Model Context Protocol.
package mcp

import (
	"context"
	"errors"
	"fmt"

	argerr "github.com/Aman-CERP/argus/internal/errors"
	"github.com/Aman-CERP/argus/internal/cache"
)

// Custom MCP error codes for Argus.
const (
	// ErrCodeCacheNotFound indicates no cache file exists at the requested path.
	ErrCodeCacheNotFound = -32001

	// ErrCodeCacheUnreadable indicates the cache exists but cannot be used.
	ErrCodeCacheUnreadable = -32002

	// ErrCodeTimeout indicates the request timed out or was cancelled.
	ErrCodeTimeout = -32003

	// ErrCodeInvalidPath indicates the search directory is missing.
	ErrCodeInvalidPath = -32004

	// Standard JSON-RPC error codes.
	ErrCodeMethodNotFound = -32601
	ErrCodeInvalidParams  = -32602
	ErrCodeInternalError  = -32603
)

// MCPError represents an MCP protocol error with code and message.
type MCPError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

// Error implements the error interface.
func (e *MCPError) Error() string {
	return fmt.Sprintf("MCP error %d: %s", e.Code, e.Message)
}

// MapError converts internal errors to MCP errors.
func MapError(err error) *MCPError {
	if err == nil {
		return nil
	}

	var mcpErr *MCPError
	if errors.As(err, &mcpErr) {
		return mcpErr
	}
	if ae, ok := argerr.As(err); ok {
		return mapArgusError(ae)
	}

	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return &MCPError{Code: ErrCodeTimeout, Message: "Request timed out."}
	case errors.Is(err, context.Canceled):
		return &MCPError{Code: ErrCodeTimeout, Message: "Request was canceled."}
	case errors.Is(err, cache.ErrNotFound):
		return &MCPError{Code: ErrCodeCacheNotFound, Message: "Cache file not found. Run a search with save_cache first."}
	case errors.Is(err, cache.ErrParse), errors.Is(err, cache.ErrVersionMismatch), errors.Is(err, cache.ErrIO):
		return &MCPError{Code: ErrCodeCacheUnreadable, Message: err.Error()}
	default:
		return &MCPError{Code: ErrCodeInternalError, Message: "Internal server error."}
	}
}

// NewInvalidParamsError creates an error for invalid parameters with a custom message.
func NewInvalidParamsError(msg string) *MCPError {
	return &MCPError{Code: ErrCodeInvalidParams, Message: msg}
}

// NewMethodNotFoundError creates an error for unknown tools.
func NewMethodNotFoundError(name string) *MCPError {
	return &MCPError{
		Code:    ErrCodeMethodNotFound,
		Message: fmt.Sprintf("Tool '%s' not found.", name),
	}
}

func mapArgusError(ae *argerr.ArgusError) *MCPError {
	message := ae.Message
	if ae.Suggestion != "" {
		message = fmt.Sprintf("%s %s", ae.Message, ae.Suggestion)
	}

	if ae.Code == argerr.ErrCodeInvalidPath {
		return &MCPError{Code: ErrCodeInvalidPath, Message: message}
	}
	switch ae.Category {
	case argerr.CategoryValidation:
		return &MCPError{Code: ErrCodeInvalidParams, Message: message}
	case argerr.CategoryIO:
		if ae.Code == argerr.ErrCodeCacheLoad || ae.Code == argerr.ErrCodeCacheVersion {
			return &MCPError{Code: ErrCodeCacheUnreadable, Message: message}
		}
		return &MCPError{Code: ErrCodeInternalError, Message: message}
	default:
		return &MCPError{Code: ErrCodeInternalError, Message: message}
	}
}
