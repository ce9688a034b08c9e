package mcp

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/fyrsmithlabs/memoryd/internal/memory"
)

// defaultCodename scopes a tool call when the client names no project.
const defaultCodename = "default"

// resolve maps a tool's codename argument to its memory service,
// falling back to the default project.
func (s *Server) resolve(ctx context.Context, codename string) (*memory.Service, error) {
	if codename == "" {
		codename = defaultCodename
	}
	return s.registry.ForCodename(ctx, codename)
}

// registerTools registers all memory tools with the server.
func (s *Server) registerTools() {
	s.registerStoreTool()
	s.registerSearchTool()
	s.registerUpdateTool()
	s.registerDeleteTool()
	s.registerAllTool()
}

// ===== STORE =====

type memoryStoreInput struct {
	Codename string   `json:"codename,omitempty" jsonschema:"Project codename (default: default)"`
	Content  string   `json:"content" jsonschema:"required,Fact to store"`
	Tags     []string `json:"tags,omitempty" jsonschema:"Optional tags"`
}

type memoryStoreOutput struct {
	ID      string   `json:"id" jsonschema:"Memory id"`
	Content string   `json:"content" jsonschema:"Stored content"`
	Tags    []string `json:"tags" jsonschema:"Stored tags"`
}

func (s *Server) registerStoreTool() {
	mcp.AddTool(s.mcp, &mcp.Tool{
		Name:        "memory_store",
		Description: "Store a fact in a project's memory",
	}, func(ctx context.Context, req *mcp.CallToolRequest, args memoryStoreInput) (*mcp.CallToolResult, memoryStoreOutput, error) {
		start := time.Now()
		s.metrics.IncrementActive(ctx, "memory_store")
		var toolErr error
		defer func() {
			s.metrics.DecrementActive(ctx, "memory_store")
			s.metrics.RecordInvocation(ctx, "memory_store", time.Since(start), toolErr)
		}()

		svc, err := s.resolve(ctx, args.Codename)
		if err != nil {
			toolErr = err
			return nil, memoryStoreOutput{}, err
		}

		rec, err := svc.Store(ctx, args.Content, args.Tags)
		if err != nil {
			if errors.Is(err, memory.ErrValidation) {
				toolErr = err
				return nil, memoryStoreOutput{}, err
			}
			toolErr = fmt.Errorf("memory store failed: %w", err)
			return nil, memoryStoreOutput{}, toolErr
		}

		output := memoryStoreOutput{
			ID:      rec.ID,
			Content: rec.Content,
			Tags:    rec.Tags,
		}

		return &mcp.CallToolResult{
			Content: []mcp.Content{
				&mcp.TextContent{Text: fmt.Sprintf("stored id=%s tags=%v", rec.ID, rec.Tags)},
			},
		}, output, nil
	})
}

// ===== SEARCH =====

type memorySearchInput struct {
	Codename string `json:"codename,omitempty" jsonschema:"Project codename (default: default)"`
	Query    string `json:"query" jsonschema:"required,Similarity search query"`
	NResults int    `json:"n_results,omitempty" jsonschema:"Maximum results (default: 5)"`
}

type memorySearchOutput struct {
	Query   string          `json:"query" jsonschema:"Original query"`
	Results []memory.Record `json:"results" jsonschema:"Matching records, most similar first"`
	Count   int             `json:"count" jsonschema:"Number of results"`
}

func (s *Server) registerSearchTool() {
	mcp.AddTool(s.mcp, &mcp.Tool{
		Name:        "memory_search",
		Description: "Search a project's memory by similarity",
	}, func(ctx context.Context, req *mcp.CallToolRequest, args memorySearchInput) (*mcp.CallToolResult, memorySearchOutput, error) {
		start := time.Now()
		s.metrics.IncrementActive(ctx, "memory_search")
		var toolErr error
		defer func() {
			s.metrics.DecrementActive(ctx, "memory_search")
			s.metrics.RecordInvocation(ctx, "memory_search", time.Since(start), toolErr)
		}()

		svc, err := s.resolve(ctx, args.Codename)
		if err != nil {
			toolErr = err
			return nil, memorySearchOutput{}, err
		}

		results, err := svc.Search(ctx, args.Query, args.NResults)
		if err != nil {
			if errors.Is(err, memory.ErrValidation) {
				toolErr = err
				return nil, memorySearchOutput{}, err
			}
			toolErr = fmt.Errorf("memory search failed: %w", err)
			return nil, memorySearchOutput{}, toolErr
		}

		output := memorySearchOutput{
			Query:   args.Query,
			Results: results,
			Count:   len(results),
		}

		return &mcp.CallToolResult{
			Content: []mcp.Content{
				&mcp.TextContent{Text: fmt.Sprintf("Found %d matching memories", output.Count)},
			},
		}, output, nil
	})
}

// ===== UPDATE =====

type memoryUpdateInput struct {
	Codename string    `json:"codename,omitempty" jsonschema:"Project codename (default: default)"`
	ID       string    `json:"id" jsonschema:"required,Memory id to update"`
	Content  *string   `json:"content,omitempty" jsonschema:"Replacement content"`
	Tags     *[]string `json:"tags,omitempty" jsonschema:"Replacement tags"`
}

type memoryUpdateOutput struct {
	ID      string   `json:"id" jsonschema:"Memory id"`
	Content string   `json:"content" jsonschema:"Content after update"`
	Tags    []string `json:"tags" jsonschema:"Tags after update"`
}

func (s *Server) registerUpdateTool() {
	mcp.AddTool(s.mcp, &mcp.Tool{
		Name:        "memory_update",
		Description: "Update a memory's content, tags, or both",
	}, func(ctx context.Context, req *mcp.CallToolRequest, args memoryUpdateInput) (*mcp.CallToolResult, memoryUpdateOutput, error) {
		start := time.Now()
		s.metrics.IncrementActive(ctx, "memory_update")
		var toolErr error
		defer func() {
			s.metrics.DecrementActive(ctx, "memory_update")
			s.metrics.RecordInvocation(ctx, "memory_update", time.Since(start), toolErr)
		}()

		if args.ID == "" {
			toolErr = fmt.Errorf("id is required")
			return nil, memoryUpdateOutput{}, toolErr
		}

		svc, err := s.resolve(ctx, args.Codename)
		if err != nil {
			toolErr = err
			return nil, memoryUpdateOutput{}, err
		}

		rec, found, err := svc.Update(ctx, args.ID, args.Content, args.Tags)
		if err != nil {
			if errors.Is(err, memory.ErrValidation) {
				toolErr = err
				return nil, memoryUpdateOutput{}, err
			}
			toolErr = fmt.Errorf("memory update failed: %w", err)
			return nil, memoryUpdateOutput{}, toolErr
		}
		if !found {
			toolErr = fmt.Errorf("not found id=%s", args.ID)
			return nil, memoryUpdateOutput{}, toolErr
		}

		output := memoryUpdateOutput{
			ID:      rec.ID,
			Content: rec.Content,
			Tags:    rec.Tags,
		}

		return &mcp.CallToolResult{
			Content: []mcp.Content{
				&mcp.TextContent{Text: fmt.Sprintf("updated id=%s", rec.ID)},
			},
		}, output, nil
	})
}

// ===== DELETE =====

type memoryDeleteInput struct {
	Codename string `json:"codename,omitempty" jsonschema:"Project codename (default: default)"`
	ID       string `json:"id" jsonschema:"required,Memory id to delete"`
}

type memoryDeleteOutput struct {
	ID      string `json:"id" jsonschema:"Memory id"`
	Deleted bool   `json:"deleted" jsonschema:"Whether the record existed and was removed"`
}

func (s *Server) registerDeleteTool() {
	mcp.AddTool(s.mcp, &mcp.Tool{
		Name:        "memory_delete",
		Description: "Delete a memory by id",
	}, func(ctx context.Context, req *mcp.CallToolRequest, args memoryDeleteInput) (*mcp.CallToolResult, memoryDeleteOutput, error) {
		start := time.Now()
		s.metrics.IncrementActive(ctx, "memory_delete")
		var toolErr error
		defer func() {
			s.metrics.DecrementActive(ctx, "memory_delete")
			s.metrics.RecordInvocation(ctx, "memory_delete", time.Since(start), toolErr)
		}()

		if args.ID == "" {
			toolErr = fmt.Errorf("id is required")
			return nil, memoryDeleteOutput{}, toolErr
		}

		svc, err := s.resolve(ctx, args.Codename)
		if err != nil {
			toolErr = err
			return nil, memoryDeleteOutput{}, err
		}

		deleted, err := svc.Delete(ctx, args.ID)
		if err != nil {
			toolErr = fmt.Errorf("memory delete failed: %w", err)
			return nil, memoryDeleteOutput{}, toolErr
		}
		if !deleted {
			toolErr = fmt.Errorf("not found id=%s", args.ID)
			return nil, memoryDeleteOutput{}, toolErr
		}

		output := memoryDeleteOutput{
			ID:      args.ID,
			Deleted: true,
		}

		return &mcp.CallToolResult{
			Content: []mcp.Content{
				&mcp.TextContent{Text: fmt.Sprintf("deleted id=%s", args.ID)},
			},
		}, output, nil
	})
}

// ===== ALL =====

type memoryAllInput struct {
	Codename string `json:"codename,omitempty" jsonschema:"Project codename (default: default)"`
}

type memoryAllOutput struct {
	Results []memory.Record `json:"results" jsonschema:"Every stored record in store order"`
	Count   int             `json:"count" jsonschema:"Number of records"`
}

func (s *Server) registerAllTool() {
	mcp.AddTool(s.mcp, &mcp.Tool{
		Name:        "memory_all",
		Description: "List every memory stored for a project",
	}, func(ctx context.Context, req *mcp.CallToolRequest, args memoryAllInput) (*mcp.CallToolResult, memoryAllOutput, error) {
		start := time.Now()
		s.metrics.IncrementActive(ctx, "memory_all")
		var toolErr error
		defer func() {
			s.metrics.DecrementActive(ctx, "memory_all")
			s.metrics.RecordInvocation(ctx, "memory_all", time.Since(start), toolErr)
		}()

		svc, err := s.resolve(ctx, args.Codename)
		if err != nil {
			toolErr = err
			return nil, memoryAllOutput{}, err
		}

		results, err := svc.List(ctx)
		if err != nil {
			toolErr = fmt.Errorf("memory list failed: %w", err)
			return nil, memoryAllOutput{}, toolErr
		}

		output := memoryAllOutput{
			Results: results,
			Count:   len(results),
		}

		return &mcp.CallToolResult{
			Content: []mcp.Content{
				&mcp.TextContent{Text: fmt.Sprintf("Found %d memories", output.Count)},
			},
		}, output, nil
	})
}
