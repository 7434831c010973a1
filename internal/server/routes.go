package server

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"nodestack/internal/constants"
	"nodestack/internal/errors"
	"nodestack/internal/logger"
	"nodestack/internal/validation"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// setupRoutes configures all API routes
func (s *Server) setupRoutes() {
	// Liveness of the server itself
	s.echo.GET("/health", s.handleLiveness)

	// Prometheus metrics
	s.echo.GET("/metrics", echo.WrapHandler(promhttp.Handler()))

	api := s.echo.Group("/api")

	// Service health
	api.GET("/health", s.handleGetHealth)
	api.GET("/health/:name", s.handleGetServiceHealth)

	// Profiles
	api.GET("/profiles", s.handleListProfiles)
	api.GET("/profiles/:id/services", s.handleGetProfileServices)

	// Restarts
	api.POST("/restart", s.handleRestart)
	api.GET("/restarts", s.handleListRestarts)
	api.GET("/restarts/:id", s.handleGetRestart)

	// System status
	api.GET("/status", s.handleGetStatus)

	// WebSocket snapshot stream
	s.echo.GET("/ws/health", s.handleHealthSocket)
}

func (s *Server) handleLiveness(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
}

// handleGetHealth returns the latest complete snapshot. Before the first
// cycle completes the service list is empty.
func (s *Server) handleGetHealth(c echo.Context) error {
	snap := s.health.Snapshot()
	if snap == nil {
		return c.JSON(http.StatusOK, HealthResponse{})
	}
	return c.JSON(http.StatusOK, HealthResponse{
		TakenAt:  snap.TakenAt,
		Services: snap.Services,
		Total:    len(snap.Services),
	})
}

func (s *Server) handleGetServiceHealth(c echo.Context) error {
	name := c.Param("name")
	if err := validation.ServiceName(name); err != nil {
		return err
	}
	if !s.registry.Has(name) {
		return errors.ServiceNotFound(name)
	}

	snap := s.health.Snapshot()
	if snap == nil {
		return errors.New(errors.ErrInternal, "no health snapshot yet").
			WithContext("service", name)
	}
	svc, ok := snap.ByName(name)
	if !ok {
		return errors.ServiceNotFound(name)
	}
	return c.JSON(http.StatusOK, svc)
}

func (s *Server) handleListProfiles(c echo.Context) error {
	profiles := s.registry.Profiles()
	return c.JSON(http.StatusOK, map[string]interface{}{
		"profiles": profiles,
		"total":    len(profiles),
	})
}

// handleGetProfileServices resolves a profile id, legacy aliases
// included, to its member services. An id that resolves to nothing is
// not an error; the caller gets an empty set.
func (s *Server) handleGetProfileServices(c echo.Context) error {
	id := c.Param("id")
	if err := validation.ProfileID(id); err != nil {
		return err
	}

	services := s.registry.Resolve(id)
	return c.JSON(http.StatusOK, ProfileServicesResponse{
		Profile:   id,
		Legacy:    s.registry.IsLegacy(id),
		Canonical: s.registry.CanonicalIDs(id),
		Services:  services,
		Total:     len(services),
	})
}

// handleRestart plans and executes a dependency-ordered restart of the
// requested services. The plan runs to completion; per-service failures
// are reported in the result rather than aborting it.
func (s *Server) handleRestart(c echo.Context) error {
	var req RestartRequest
	if err := c.Bind(&req); err != nil {
		return errors.ValidationFailed("body", "", "invalid request body")
	}
	if len(req.Services) == 0 {
		return errors.ValidationFailed("services", "", "at least one service is required")
	}
	for _, name := range req.Services {
		if err := validation.ServiceName(name); err != nil {
			return err
		}
	}

	// A started plan runs to completion even if the client goes away;
	// only per-service failures are reported, never a cancellation.
	ctx := context.WithoutCancel(c.Request().Context())

	result, err := s.restarts.Run(ctx, req.Services, req.ProfileChanges)
	if err != nil {
		return err
	}

	if s.history != nil {
		if err := s.history.Record(ctx, result); err != nil {
			logger.WithError(err).Warn("Failed to record restart history")
		}
	}

	return c.JSON(http.StatusOK, result)
}

func (s *Server) handleListRestarts(c echo.Context) error {
	if s.history == nil {
		return errors.New(errors.ErrDatabaseConnection, "restart history is disabled")
	}

	page := 1
	pageSize := constants.DefaultPageSize
	if p := c.QueryParam("page"); p != "" {
		if v, err := strconv.Atoi(p); err == nil && v > 0 {
			page = v
		}
	}
	if ps := c.QueryParam("page_size"); ps != "" {
		if v, err := strconv.Atoi(ps); err == nil && v > 0 {
			pageSize = v
		}
	}
	if pageSize > constants.MaxPageSize {
		pageSize = constants.MaxPageSize
	}

	ctx := c.Request().Context()
	plans, err := s.history.ListPlans(ctx, pageSize, (page-1)*pageSize)
	if err != nil {
		return err
	}
	total, err := s.history.CountPlans(ctx)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, RestartHistoryResponse{
		Plans:    plans,
		Total:    total,
		Page:     page,
		PageSize: pageSize,
	})
}

func (s *Server) handleGetRestart(c echo.Context) error {
	if s.history == nil {
		return errors.New(errors.ErrDatabaseConnection, "restart history is disabled")
	}

	planID := c.Param("id")
	plan, err := s.history.GetPlan(c.Request().Context(), planID)
	if err != nil {
		return err
	}
	items, err := s.history.ItemsOf(c.Request().Context(), planID)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, RestartDetailResponse{
		Plan:  plan,
		Items: items,
	})
}

func (s *Server) handleGetStatus(c echo.Context) error {
	ctx := c.Request().Context()

	resp := SystemStatusResponse{
		Status:       "ok",
		Uptime:       time.Since(s.startTime).Round(time.Second).String(),
		Services:     s.registry.Len(),
		Profiles:     len(s.registry.Profiles()),
		StatusCounts: map[string]int{},
		Components: ComponentStatuses{
			Runtime:  "unavailable",
			Database: "disabled",
		},
	}

	if snap := s.health.Snapshot(); snap != nil {
		taken := snap.TakenAt
		resp.LastCycle = &taken
		for _, svc := range snap.Services {
			resp.StatusCounts[string(svc.Record.Status)]++
		}
	}

	if s.runtime != nil && s.runtime.IsAvailable(ctx) {
		resp.Components.Runtime = "available"
	}
	if s.database != nil {
		if err := s.database.HealthCheck(ctx); err != nil {
			resp.Components.Database = "unhealthy"
		} else {
			resp.Components.Database = "healthy"
		}
	}

	if resp.Components.Runtime != "available" {
		resp.Status = "degraded"
	}

	return c.JSON(http.StatusOK, resp)
}
