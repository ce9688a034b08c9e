package mcp

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/fyrsmithlabs/memoryd/internal/memory"
	"github.com/fyrsmithlabs/memoryd/internal/project"
)

// handleRPC handles POST /mcp/:codename with JSON-RPC 2.0 method routing.
//
// Routed methods:
//   - initialize: informational handshake, no session state
//   - initialized, notifications/initialized: client acknowledgment
//   - tools/list, resources/list, resources/templates/list: discovery
//   - resources/read: full record dump for the well-known URI
//   - tools/call: the five memory.* tools
//
// The codename is validated and resolved before dispatch, so every
// method fails identically on a malformed project path. A request
// without an id is a notification: every branch, success or failure,
// acknowledges with 204 and an empty body.
func (s *Server) handleRPC(c echo.Context) error {
	var req JSONRPCRequest
	if err := c.Bind(&req); err != nil {
		// The id is unknowable in an unparseable body, so the
		// notification rule cannot apply; JSON-RPC 2.0 mandates a
		// null-id parse error instead.
		return c.JSON(http.StatusOK, JSONRPCError{
			JSONRPC: "2.0",
			Error:   &ErrorDetail{Code: ParseError, Message: "Parse error"},
		})
	}

	codename := c.Param("codename")
	svc, err := s.registry.ForCodename(c.Request().Context(), codename)
	if err != nil {
		if errors.Is(err, project.ErrInvalidCodename) {
			return rpcError(c, req.ID, InvalidParams, fmt.Sprintf("Invalid codename: %s", codename))
		}
		s.logger.Error("resolving project failed",
			zap.String("codename", codename),
			zap.Error(err))
		return rpcError(c, req.ID, InternalError, err.Error())
	}

	switch req.Method {
	case "initialize":
		return s.handleInitialize(c, req)

	case "initialized", "notifications/initialized":
		// Usually a notification; clients that attach an id get an
		// empty result back.
		return rpcResult(c, req.ID, map[string]interface{}{})

	case "tools/list":
		return rpcResult(c, req.ID, ToolsListResult{Tools: memoryTools})

	case "resources/list":
		return s.handleResourcesList(c, req)

	case "resources/templates/list":
		return rpcResult(c, req.ID, ResourceTemplatesListResult{ResourceTemplates: []interface{}{}})

	case "resources/read":
		return s.handleResourcesRead(c, svc, req)

	case "tools/call":
		return s.handleToolsCall(c, svc, req)

	default:
		return rpcError(c, req.ID, MethodNotFound, fmt.Sprintf("Method not found: %s", req.Method))
	}
}

// handleInitialize handles the initialize method.
//
// The handshake is stateless: the client-requested protocolVersion is
// echoed back (defaulted when absent) and no session is created.
func (s *Server) handleInitialize(c echo.Context, req JSONRPCRequest) error {
	var params InitializeParams
	if err := unmarshalParams(req.Params, &params); err != nil {
		return rpcError(c, req.ID, InvalidParams, err.Error())
	}

	version := params.ProtocolVersion
	if version == "" {
		version = defaultProtocolVersion
	}

	return rpcResult(c, req.ID, InitializeResult{
		ProtocolVersion: version,
		Capabilities: ServerCapabilities{
			Tools:     ToolsCapability{ListChanged: false},
			Resources: map[string]interface{}{},
		},
		ServerInfo: ServerInfo{
			Name:    serverName,
			Version: serverVersion,
		},
	})
}

// handleResourcesList handles the resources/list method.
//
// Pagination is unsupported: a non-empty cursor is rejected rather
// than silently ignored.
func (s *Server) handleResourcesList(c echo.Context, req JSONRPCRequest) error {
	var params ListParams
	if err := unmarshalParams(req.Params, &params); err != nil {
		return rpcError(c, req.ID, InvalidParams, err.Error())
	}
	if params.Cursor != "" {
		return rpcError(c, req.ID, InvalidParams, "Invalid cursor")
	}
	return rpcResult(c, req.ID, ResourcesListResult{Resources: memoryResources})
}

// handleResourcesRead handles the resources/read method.
//
// Only the well-known "all records" URI resolves; it returns every
// record of the project serialized as a single JSON text payload.
func (s *Server) handleResourcesRead(c echo.Context, svc *memory.Service, req JSONRPCRequest) error {
	var params ReadResourceParams
	if err := unmarshalParams(req.Params, &params); err != nil {
		return rpcError(c, req.ID, InvalidParams, err.Error())
	}
	if params.URI != allRecordsURI {
		return rpcError(c, req.ID, ResourceNotFound, fmt.Sprintf("Resource not found: %s", params.URI))
	}

	records, err := svc.List(c.Request().Context())
	if err != nil {
		s.logger.Error("resource read failed",
			zap.String("codename", svc.Codename()),
			zap.Error(err))
		return rpcError(c, req.ID, InternalError, err.Error())
	}

	text, err := json.Marshal(records)
	if err != nil {
		return rpcError(c, req.ID, InternalError, err.Error())
	}

	return rpcResult(c, req.ID, ResourceContents{
		Contents: []ResourceContent{{
			URI:      params.URI,
			MimeType: "application/json",
			Text:     string(text),
		}},
	})
}
