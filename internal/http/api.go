package http

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/fyrsmithlabs/memoryd/internal/memory"
	"github.com/fyrsmithlabs/memoryd/internal/project"
)

// MemoryCreateRequest is the request body for POST /api/projects/:codename/memories.
type MemoryCreateRequest struct {
	Content string   `json:"content"`
	Tags    []string `json:"tags"`
}

// MemoryUpdateRequest is the request body for PUT /api/projects/:codename/memories/:id.
//
// Pointer fields distinguish an absent field from an empty one; both
// absent is a validation failure.
type MemoryUpdateRequest struct {
	Content *string   `json:"content"`
	Tags    *[]string `json:"tags"`
}

// SearchResponse is the response body for GET /api/projects/:codename/memories/search.
type SearchResponse struct {
	Query   string          `json:"query"`
	Results []memory.Record `json:"results"`
}

// DeleteResponse is the response body for DELETE /api/projects/:codename/memories/:id.
type DeleteResponse struct {
	Deleted bool `json:"deleted"`
}

// ProjectCreateRequest is the request body for POST /api/projects.
type ProjectCreateRequest struct {
	Codename string `json:"codename"`
}

// ProjectResponse is the response body for POST /api/projects.
type ProjectResponse struct {
	Codename string `json:"codename"`
}

// resolveService maps the path codename to its memory service. Invalid
// codenames become 400; the project itself is created on first use, so
// there is no project-level 404.
func (s *Server) resolveService(c echo.Context) (*memory.Service, error) {
	codename := c.Param("codename")
	svc, err := s.registry.ForCodename(c.Request().Context(), codename)
	if err != nil {
		if errors.Is(err, project.ErrInvalidCodename) {
			return nil, echo.NewHTTPError(http.StatusBadRequest, err.Error())
		}
		s.logger.Error("resolving project failed",
			zap.String("codename", codename),
			zap.Error(err))
		return nil, err
	}
	return svc, nil
}

// handleProjectsList returns the sorted codenames of all known projects.
func (s *Server) handleProjectsList(c echo.Context) error {
	return c.JSON(http.StatusOK, s.registry.ListCodenames(c.Request().Context()))
}

// handleProjectCreate registers a project namespace. Creation is
// idempotent: re-registering an existing codename succeeds.
func (s *Server) handleProjectCreate(c echo.Context) error {
	var req ProjectCreateRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}

	svc, err := s.registry.ForCodename(c.Request().Context(), req.Codename)
	if err != nil {
		if errors.Is(err, project.ErrInvalidCodename) {
			return echo.NewHTTPError(http.StatusBadRequest, err.Error())
		}
		s.logger.Error("registering project failed",
			zap.String("codename", req.Codename),
			zap.Error(err))
		return err
	}

	return c.JSON(http.StatusOK, ProjectResponse{Codename: svc.Codename()})
}

// handleMemoryCreate stores a new record and returns it read back from
// the store.
func (s *Server) handleMemoryCreate(c echo.Context) error {
	svc, err := s.resolveService(c)
	if err != nil {
		return err
	}

	var req MemoryCreateRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}

	rec, err := svc.Store(c.Request().Context(), req.Content, req.Tags)
	if err != nil {
		if errors.Is(err, memory.ErrValidation) {
			return echo.NewHTTPError(http.StatusBadRequest, err.Error())
		}
		s.logger.Error("storing memory failed", zap.Error(err))
		return err
	}

	return c.JSON(http.StatusOK, rec)
}

// handleMemoryList returns every record in store order.
func (s *Server) handleMemoryList(c echo.Context) error {
	svc, err := s.resolveService(c)
	if err != nil {
		return err
	}

	records, err := svc.List(c.Request().Context())
	if err != nil {
		s.logger.Error("listing memories failed", zap.Error(err))
		return err
	}

	return c.JSON(http.StatusOK, records)
}

// handleMemorySearch runs a similarity search over the project's records.
func (s *Server) handleMemorySearch(c echo.Context) error {
	svc, err := s.resolveService(c)
	if err != nil {
		return err
	}

	query := c.QueryParam("query")

	nResults := 0
	if raw := c.QueryParam("n_results"); raw != "" {
		nResults, err = strconv.Atoi(raw)
		if err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, "n_results must be an integer")
		}
	}

	results, err := svc.Search(c.Request().Context(), query, nResults)
	if err != nil {
		if errors.Is(err, memory.ErrValidation) {
			return echo.NewHTTPError(http.StatusBadRequest, err.Error())
		}
		s.logger.Error("searching memories failed", zap.Error(err))
		return err
	}

	return c.JSON(http.StatusOK, SearchResponse{Query: query, Results: results})
}

// handleMemoryGet returns a single record by id.
func (s *Server) handleMemoryGet(c echo.Context) error {
	svc, err := s.resolveService(c)
	if err != nil {
		return err
	}

	id := c.Param("id")
	rec, found, err := svc.Get(c.Request().Context(), id)
	if err != nil {
		s.logger.Error("getting memory failed", zap.String("id", id), zap.Error(err))
		return err
	}
	if !found {
		return echo.NewHTTPError(http.StatusNotFound, "memory "+id+" not found")
	}

	return c.JSON(http.StatusOK, rec)
}

// handleMemoryUpdate applies a partial update and returns the stored
// record read back.
func (s *Server) handleMemoryUpdate(c echo.Context) error {
	svc, err := s.resolveService(c)
	if err != nil {
		return err
	}

	var req MemoryUpdateRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}

	id := c.Param("id")
	rec, found, err := svc.Update(c.Request().Context(), id, req.Content, req.Tags)
	if err != nil {
		if errors.Is(err, memory.ErrValidation) {
			return echo.NewHTTPError(http.StatusBadRequest, err.Error())
		}
		s.logger.Error("updating memory failed", zap.String("id", id), zap.Error(err))
		return err
	}
	if !found {
		return echo.NewHTTPError(http.StatusNotFound, "memory "+id+" not found")
	}

	return c.JSON(http.StatusOK, rec)
}

// handleMemoryDelete removes a record by id.
func (s *Server) handleMemoryDelete(c echo.Context) error {
	svc, err := s.resolveService(c)
	if err != nil {
		return err
	}

	id := c.Param("id")
	deleted, err := svc.Delete(c.Request().Context(), id)
	if err != nil {
		s.logger.Error("deleting memory failed", zap.String("id", id), zap.Error(err))
		return err
	}
	if !deleted {
		return echo.NewHTTPError(http.StatusNotFound, "memory "+id+" not found")
	}

	return c.JSON(http.StatusOK, DeleteResponse{Deleted: true})
}
