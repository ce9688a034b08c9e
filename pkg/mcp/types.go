// Package mcp provides a Model Context Protocol server implementation over HTTP.
//
// This package implements a stateless JSON-RPC 2.0 dispatcher with one
// logical endpoint per project codename (POST /mcp/:codename). The
// initialize handshake is purely informational: no session state is
// created, and a request without a correlation id is a notification
// that receives no response body on any branch.
//
// Example usage:
//
//	server := mcp.NewServer(e, registry, logger)
//	server.RegisterRoutes()
package mcp

import "encoding/json"

// JSONRPCRequest represents a JSON-RPC 2.0 request.
type JSONRPCRequest struct {
	JSONRPC string          `json:"jsonrpc"` // Always "2.0"
	ID      interface{}     `json:"id"`      // Request ID (string, number, or null per JSON-RPC 2.0)
	Method  string          `json:"method"`  // Protocol method (e.g., "tools/call")
	Params  json.RawMessage `json:"params"`  // Method-specific parameters
}

// JSONRPCResponse represents a successful JSON-RPC 2.0 response.
type JSONRPCResponse struct {
	JSONRPC string      `json:"jsonrpc"` // Always "2.0"
	ID      interface{} `json:"id"`      // Matches request ID
	Result  interface{} `json:"result"`  // Method-specific result
}

// JSONRPCError represents an error JSON-RPC 2.0 response.
type JSONRPCError struct {
	JSONRPC string       `json:"jsonrpc"` // Always "2.0"
	ID      interface{}  `json:"id"`      // Matches request ID
	Error   *ErrorDetail `json:"error"`   // Error details
}

// ErrorDetail carries the code and message of a protocol-level failure.
//
// Tool-level failures (bad arguments, unknown ids) do not use this type;
// they ride inside a successful envelope as a ToolResult with IsError set.
type ErrorDetail struct {
	Code    int    `json:"code"`    // JSON-RPC error code
	Message string `json:"message"` // Human-readable message
}

// JSON-RPC 2.0 standard error codes.
const (
	ParseError     = -32700 // Invalid JSON
	InvalidRequest = -32600 // Invalid Request object
	MethodNotFound = -32601 // Method doesn't exist
	InvalidParams  = -32602 // Invalid method params
	InternalError  = -32603 // Internal server error
)

// ResourceNotFound is returned by resources/read for an unknown URI
// (application-specific range: -32000 to -32099).
const ResourceNotFound = -32002

// InitializeParams contains parameters for the initialize method.
type InitializeParams struct {
	ProtocolVersion string                 `json:"protocolVersion"` // Requested protocol version
	Capabilities    map[string]interface{} `json:"capabilities"`    // Client capabilities
	ClientInfo      ClientInfo             `json:"clientInfo"`      // Client information
}

// ClientInfo contains information about the MCP client.
type ClientInfo struct {
	Name    string `json:"name"`    // Client name (e.g., "claude-desktop")
	Version string `json:"version"` // Client version
}

// InitializeResult contains the result of the initialize method.
type InitializeResult struct {
	ProtocolVersion string             `json:"protocolVersion"` // Echoed or defaulted protocol version
	Capabilities    ServerCapabilities `json:"capabilities"`    // Server capabilities
	ServerInfo      ServerInfo         `json:"serverInfo"`      // Server information
}

// ServerCapabilities describes what the server supports.
type ServerCapabilities struct {
	Tools     ToolsCapability        `json:"tools"`     // Tool capabilities
	Resources map[string]interface{} `json:"resources"` // Resource capabilities (none advertised)
}

// ToolsCapability describes tool-related capabilities.
type ToolsCapability struct {
	ListChanged bool `json:"listChanged"` // Catalog is static, always false
}

// ServerInfo contains information about the MCP server.
type ServerInfo struct {
	Name    string `json:"name"`    // Server name
	Version string `json:"version"` // Server version
}

// ToolDefinition describes an invocable tool and its input schema.
type ToolDefinition struct {
	Name        string                 `json:"name"`
	Description string                 `json:"description"`
	InputSchema map[string]interface{} `json:"inputSchema"`
}

// ResourceDefinition describes a readable resource.
type ResourceDefinition struct {
	URI         string `json:"uri"`
	Name        string `json:"name"`
	Description string `json:"description"`
	MimeType    string `json:"mimeType"`
}

// ToolsListResult is the result of tools/list.
//
// Pagination is unsupported: NextCursor is always null.
type ToolsListResult struct {
	Tools      []ToolDefinition `json:"tools"`
	NextCursor *string          `json:"nextCursor"`
}

// ResourcesListResult is the result of resources/list.
type ResourcesListResult struct {
	Resources  []ResourceDefinition `json:"resources"`
	NextCursor *string              `json:"nextCursor"`
}

// ResourceTemplatesListResult is the result of resources/templates/list.
type ResourceTemplatesListResult struct {
	ResourceTemplates []interface{} `json:"resourceTemplates"`
	NextCursor        *string       `json:"nextCursor"`
}

// ToolsCallParams contains parameters for the tools/call method.
type ToolsCallParams struct {
	Name      string          `json:"name"`      // Tool name (e.g., "memory.store")
	Arguments json.RawMessage `json:"arguments"` // Tool-specific arguments
}

// ContentItem is a single piece of tool or resource output.
type ContentItem struct {
	Type string `json:"type"` // Always "text"
	Text string `json:"text"`
}

// ToolResult is the result payload of a tools/call invocation.
type ToolResult struct {
	Content           []ContentItem          `json:"content"`
	StructuredContent map[string]interface{} `json:"structuredContent,omitempty"`
	IsError           bool                   `json:"isError"`
}

// ReadResourceParams contains parameters for the resources/read method.
type ReadResourceParams struct {
	URI string `json:"uri"`
}

// ResourceContents is the result of resources/read.
type ResourceContents struct {
	Contents []ResourceContent `json:"contents"`
}

// ResourceContent is one resolved resource payload.
type ResourceContent struct {
	URI      string `json:"uri"`
	MimeType string `json:"mimeType"`
	Text     string `json:"text"`
}

// ListParams contains the optional pagination cursor for list methods.
type ListParams struct {
	Cursor string `json:"cursor"`
}
