package mcp

import (
	"encoding/json"
	"net/http"

	"github.com/labstack/echo/v4"
)

// rpcResult writes a successful JSON-RPC 2.0 response.
//
// Requests without an id are notifications: the body is suppressed and
// the transport acknowledges with 204 regardless of the result.
func rpcResult(c echo.Context, id interface{}, result interface{}) error {
	if id == nil {
		return c.NoContent(http.StatusNoContent)
	}
	return c.JSON(http.StatusOK, JSONRPCResponse{
		JSONRPC: "2.0",
		ID:      id,
		Result:  result,
	})
}

// rpcError writes a JSON-RPC 2.0 error response.
//
// The notification rule applies to failures too: without an id the
// caller gets 204 and the error is dropped.
func rpcError(c echo.Context, id interface{}, code int, message string) error {
	if id == nil {
		return c.NoContent(http.StatusNoContent)
	}
	return c.JSON(http.StatusOK, JSONRPCError{
		JSONRPC: "2.0",
		ID:      id,
		Error:   &ErrorDetail{Code: code, Message: message},
	})
}

// toolText builds a plain-text tool result.
func toolText(text string) ToolResult {
	return ToolResult{
		Content: []ContentItem{{Type: "text", Text: text}},
		IsError: false,
	}
}

// toolError builds a tool-level failure result. Tool failures ride
// inside a successful envelope; only protocol faults use rpcError.
func toolError(text string) ToolResult {
	return ToolResult{
		Content: []ContentItem{{Type: "text", Text: text}},
		IsError: true,
	}
}

// unmarshalParams decodes an optional params or arguments object,
// treating an absent value as empty.
func unmarshalParams(raw json.RawMessage, v interface{}) error {
	if len(raw) == 0 {
		return nil
	}
	return json.Unmarshal(raw, v)
}
