package mcp

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/fyrsmithlabs/memoryd/internal/memory"
)

// Tool names accepted by tools/call.
const (
	toolStore  = "memory.store"
	toolSearch = "memory.search"
	toolUpdate = "memory.update"
	toolDelete = "memory.delete"
	toolAll    = "memory.all"
)

// allRecordsURI is the well-known virtual resource serving every record
// of the project as one JSON document.
const allRecordsURI = "memory://project_memory/all"

// memoryTools is the static catalog returned by tools/list.
var memoryTools = []ToolDefinition{
	{
		Name:        toolStore,
		Description: "Store an important fact about the project",
		InputSchema: map[string]interface{}{
			"type": "object",
			"properties": map[string]interface{}{
				"content": map[string]interface{}{"type": "string", "description": "Fact to store"},
				"tags": map[string]interface{}{
					"type":        "array",
					"items":       map[string]interface{}{"type": "string"},
					"description": "Optional tags",
				},
			},
			"required": []string{"content"},
		},
	},
	{
		Name:        toolSearch,
		Description: "Search stored project facts",
		InputSchema: map[string]interface{}{
			"type": "object",
			"properties": map[string]interface{}{
				"query":     map[string]interface{}{"type": "string", "description": "Search query"},
				"n_results": map[string]interface{}{"type": "integer", "default": 5},
			},
			"required": []string{"query"},
		},
	},
	{
		Name:        toolUpdate,
		Description: "Update a stored fact's content or tags",
		InputSchema: map[string]interface{}{
			"type": "object",
			"properties": map[string]interface{}{
				"id":      map[string]interface{}{"type": "string", "description": "Memory id"},
				"content": map[string]interface{}{"type": "string", "description": "Replacement fact"},
				"tags": map[string]interface{}{
					"type":        "array",
					"items":       map[string]interface{}{"type": "string"},
					"description": "Replacement tags",
				},
			},
			"required": []string{"id"},
		},
	},
	{
		Name:        toolDelete,
		Description: "Delete a stored fact by id",
		InputSchema: map[string]interface{}{
			"type": "object",
			"properties": map[string]interface{}{
				"id": map[string]interface{}{"type": "string", "description": "Memory id"},
			},
			"required": []string{"id"},
		},
	},
	{
		Name:        toolAll,
		Description: "List all stored facts",
		InputSchema: map[string]interface{}{
			"type":                 "object",
			"additionalProperties": false,
		},
	},
}

// memoryResources is the static catalog returned by resources/list.
var memoryResources = []ResourceDefinition{
	{
		URI:         allRecordsURI,
		Name:        "project_memory (all)",
		Description: "All stored memory entries as JSON",
		MimeType:    "application/json",
	},
}

// handleToolsCall handles the tools/call method.
//
// Argument-validation failures and not-found outcomes return IsError
// results inside a successful envelope. Unknown tool names are protocol
// errors, and store failures map to InternalError.
func (s *Server) handleToolsCall(c echo.Context, svc *memory.Service, req JSONRPCRequest) error {
	var params ToolsCallParams
	if err := unmarshalParams(req.Params, &params); err != nil {
		return rpcError(c, req.ID, InvalidParams, err.Error())
	}

	ctx := c.Request().Context()

	switch params.Name {
	case toolStore:
		var args struct {
			Content string   `json:"content"`
			Tags    []string `json:"tags"`
		}
		if err := unmarshalParams(params.Arguments, &args); err != nil {
			return rpcError(c, req.ID, InvalidParams, err.Error())
		}
		if strings.TrimSpace(args.Content) == "" {
			return rpcResult(c, req.ID, toolError("content is required"))
		}

		rec, err := svc.Store(ctx, args.Content, args.Tags)
		if err != nil {
			return s.toolFailure(c, req, params.Name, err)
		}
		return rpcResult(c, req.ID, toolText(fmt.Sprintf("stored id=%s tags=%v", rec.ID, rec.Tags)))

	case toolSearch:
		var args struct {
			Query    string `json:"query"`
			NResults int    `json:"n_results"`
		}
		if err := unmarshalParams(params.Arguments, &args); err != nil {
			return rpcError(c, req.ID, InvalidParams, err.Error())
		}
		if strings.TrimSpace(args.Query) == "" {
			return rpcResult(c, req.ID, toolError("query is required"))
		}

		records, err := svc.Search(ctx, args.Query, args.NResults)
		if err != nil {
			return s.toolFailure(c, req, params.Name, err)
		}
		return s.recordsResult(c, req, records, map[string]interface{}{
			"query":   args.Query,
			"results": records,
		})

	case toolUpdate:
		var args struct {
			ID      string    `json:"id"`
			Content *string   `json:"content"`
			Tags    *[]string `json:"tags"`
		}
		if err := unmarshalParams(params.Arguments, &args); err != nil {
			return rpcError(c, req.ID, InvalidParams, err.Error())
		}
		if strings.TrimSpace(args.ID) == "" {
			return rpcResult(c, req.ID, toolError("id is required"))
		}
		if args.Content == nil && args.Tags == nil {
			return rpcResult(c, req.ID, toolError("content or tags is required"))
		}

		rec, found, err := svc.Update(ctx, args.ID, args.Content, args.Tags)
		if err != nil {
			return s.toolFailure(c, req, params.Name, err)
		}
		if !found {
			return rpcResult(c, req.ID, toolError(fmt.Sprintf("not found id=%s", args.ID)))
		}
		return rpcResult(c, req.ID, toolText(fmt.Sprintf("updated id=%s", rec.ID)))

	case toolDelete:
		var args struct {
			ID string `json:"id"`
		}
		if err := unmarshalParams(params.Arguments, &args); err != nil {
			return rpcError(c, req.ID, InvalidParams, err.Error())
		}
		if strings.TrimSpace(args.ID) == "" {
			return rpcResult(c, req.ID, toolError("id is required"))
		}

		deleted, err := svc.Delete(ctx, args.ID)
		if err != nil {
			return s.toolFailure(c, req, params.Name, err)
		}
		if !deleted {
			return rpcResult(c, req.ID, toolError(fmt.Sprintf("not found id=%s", args.ID)))
		}
		return rpcResult(c, req.ID, toolText(fmt.Sprintf("deleted id=%s", args.ID)))

	case toolAll:
		records, err := svc.List(ctx)
		if err != nil {
			return s.toolFailure(c, req, params.Name, err)
		}
		return s.recordsResult(c, req, records, map[string]interface{}{
			"results": records,
		})

	default:
		return rpcError(c, req.ID, InvalidParams, fmt.Sprintf("Unknown tool: %s", params.Name))
	}
}

// toolFailure maps a memory service error to the wire: validation
// failures become tool-level errors, everything else an InternalError.
func (s *Server) toolFailure(c echo.Context, req JSONRPCRequest, tool string, err error) error {
	if errors.Is(err, memory.ErrValidation) {
		return rpcResult(c, req.ID, toolError(err.Error()))
	}
	s.logger.Error("tool call failed",
		zap.String("tool", tool),
		zap.Error(err))
	return rpcError(c, req.ID, InternalError, err.Error())
}

// recordsResult serializes records as both the text payload and the
// structured content of a tool result.
func (s *Server) recordsResult(c echo.Context, req JSONRPCRequest, records []memory.Record, structured map[string]interface{}) error {
	text, err := json.Marshal(records)
	if err != nil {
		return rpcError(c, req.ID, InternalError, err.Error())
	}
	return rpcResult(c, req.ID, ToolResult{
		Content:           []ContentItem{{Type: "text", Text: string(text)}},
		StructuredContent: structured,
		IsError:           false,
	})
}
