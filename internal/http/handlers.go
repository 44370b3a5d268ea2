package http

import (
	"errors"
	"net/http"

	"forecast/internal/core"
	"forecast/internal/log"
	"forecast/internal/scenarios"
	"forecast/internal/services"
)

// projectionResponse is a stored bundle tagged with its scenario.
type projectionResponse struct {
	ScenarioID int `json:"scenarioId"`
	scenarios.Bundle
}

type scenarioListResponse struct {
	Scenarios []scenarios.Summary `json:"scenarios"`
}

func (s *Server) handleGenerateProjections(w http.ResponseWriter, r *http.Request) {
	id, err := ParseScenarioID(r)
	if err != nil {
		s.writeError(w, r, err, log.OpGenerate)
		return
	}
	opts, err := ParseOptions(w, r)
	if err != nil {
		s.writeError(w, r, err, log.OpGenerate)
		return
	}

	bundle, err := s.projections.GenerateProjections(r.Context(), id, opts)
	if err != nil {
		s.writeError(w, r, err, log.OpGenerate)
		return
	}

	NewJSONResponse().
		Status(http.StatusCreated).
		Body(projectionResponse{ScenarioID: id, Bundle: bundle}).
		Write(w)
}

func (s *Server) handleGetProjections(w http.ResponseWriter, r *http.Request) {
	id, err := ParseScenarioID(r)
	if err != nil {
		s.writeError(w, r, err, log.OpRead)
		return
	}

	bundle, err := s.projections.GetProjections(r.Context(), id)
	if err != nil {
		s.writeError(w, r, err, log.OpRead)
		return
	}
	NewJSONResponse().Body(projectionResponse{ScenarioID: id, Bundle: bundle}).Write(w)
}

func (s *Server) handleClearProjections(w http.ResponseWriter, r *http.Request) {
	id, err := ParseScenarioID(r)
	if err != nil {
		s.writeError(w, r, err, log.OpClear)
		return
	}
	if err := s.projections.ClearProjections(r.Context(), id); err != nil {
		s.writeError(w, r, err, log.OpClear)
		return
	}
	NewJSONResponse().Status(http.StatusNoContent).Write(w)
}

func (s *Server) handleListScenarios(w http.ResponseWriter, r *http.Request) {
	if s.lister == nil {
		ErrorResponse(r, http.StatusNotFound, "scenario listing is not available").Write(w)
		return
	}
	list, err := s.lister.ListScenarios(r.Context())
	if err != nil {
		s.writeError(w, r, err, log.OpList)
		return
	}
	if list == nil {
		list = []scenarios.Summary{}
	}
	NewJSONResponse().Body(scenarioListResponse{Scenarios: list}).Write(w)
}

// writeError maps service errors onto status codes. Only unexpected failures
// are logged as errors; the access log already records client mistakes.
func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error, op string) {
	var reqErr *requestError
	switch {
	case errors.As(err, &reqErr):
		ErrorResponse(r, http.StatusBadRequest, reqErr.Error()).Write(w)
	case errors.Is(err, core.ErrScenarioNotFound):
		ErrorResponse(r, http.StatusNotFound, "scenario not found").Write(w)
	case services.IsConfigError(err):
		ErrorResponse(r, http.StatusUnprocessableEntity, err.Error()).Write(w)
	default:
		ctx := r.Context()
		log.NewStructuredLogger(log.FromContext(ctx)).
			LogError(ctx, "Projection request failed", err, log.ComponentHTTP, op, nil)
		ErrorResponse(r, http.StatusInternalServerError, "internal error").Write(w)
	}
}
