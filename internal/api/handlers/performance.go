package handlers

import (
	"errors"
	"net/http"
	"sort"

	"github.com/jdewinter/Realized-Performance-Backend/internal/api/request"
	"github.com/jdewinter/Realized-Performance-Backend/internal/apperrors"
	"github.com/jdewinter/Realized-Performance-Backend/internal/service"
	"github.com/jdewinter/Realized-Performance-Backend/internal/validation"
)

// PerformanceHandler handles realized performance HTTP requests
type PerformanceHandler struct {
	performanceService *service.PerformanceService
}

// NewPerformanceHandler creates a new PerformanceHandler
func NewPerformanceHandler(performanceService *service.PerformanceService) *PerformanceHandler {
	return &PerformanceHandler{
		performanceService: performanceService,
	}
}

// Realized handles GET requests for a reconstructed realized return series.
//
// Endpoint: GET /api/performance/realized
// Query: source (required), account, start_date, end_date, segment, benchmark, mode
// Response: 200 OK with the full result including diagnostics and warnings
// Errors: 400 for malformed parameters, 404 for unknown source/account/benchmark,
// 422 when the scope's records cannot support a computation, 500 otherwise
func (h *PerformanceHandler) Realized(w http.ResponseWriter, r *http.Request) {
	query := request.ParseRealizedPerformanceQuery(r)

	if err := validation.ValidateRealizedPerformanceQuery(query); err != nil {
		var validationErr *validation.Error
		if errors.As(err, &validationErr) {
			respondJSON(w, http.StatusBadRequest, map[string]interface{}{
				"error":   "validation failed",
				"details": validationErr.Fields,
			})
			return
		}
		respondJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}

	result, err := h.performanceService.GetRealizedPerformance(r.Context(), service.PerformanceRequest{
		Source:    query.Source,
		Account:   query.Account,
		StartDate: query.StartDate,
		EndDate:   query.EndDate,
		Segment:   query.Segment,
		Benchmark: query.Benchmark,
		Mode:      query.Mode,
	})
	if err != nil {
		status, message := performanceErrorStatus(err)
		errorResponse := map[string]string{
			"error":  message,
			"detail": err.Error(),
		}
		respondJSON(w, status, errorResponse)
		return
	}

	respondJSON(w, http.StatusOK, result)
}

// ScopesResponse represents the scope discovery response
type ScopesResponse struct {
	Source   string   `json:"source"`
	Accounts []string `json:"accounts"`
}

// Scopes handles GET requests listing the institutions and account scopes
// that have canonical records available.
//
// Endpoint: GET /api/performance/scopes
// Response: 200 OK with one entry per institution
func (h *PerformanceHandler) Scopes(w http.ResponseWriter, r *http.Request) {
	scopes, err := h.performanceService.GetScopes()
	if err != nil {
		errorResponse := map[string]string{
			"error":  "failed to retrieve scopes",
			"detail": err.Error(),
		}
		respondJSON(w, http.StatusInternalServerError, errorResponse)
		return
	}

	response := make([]ScopesResponse, 0, len(scopes))
	for source, accounts := range scopes {
		response = append(response, ScopesResponse{Source: source, Accounts: accounts})
	}
	sort.Slice(response, func(i, j int) bool { return response[i].Source < response[j].Source })

	respondJSON(w, http.StatusOK, response)
}

// performanceErrorStatus maps a service error to an HTTP status and a
// stable, user-facing message. Malformed requests are 400, unknown entities
// 404, and structurally uncomputable requests 422: the caller supplied valid
// parameters but the underlying records cannot support the computation.
func performanceErrorStatus(err error) (int, string) {
	switch {
	case errors.Is(err, apperrors.ErrInvalidDateRange),
		errors.Is(err, apperrors.ErrInvalidSegment),
		errors.Is(err, apperrors.ErrInvalidNeutralizationMode):
		return http.StatusBadRequest, "invalid request parameters"

	case errors.Is(err, apperrors.ErrSourceNotFound),
		errors.Is(err, apperrors.ErrAccountNotFound),
		errors.Is(err, apperrors.ErrBenchmarkNotFound):
		return http.StatusNotFound, "requested scope not found"

	case errors.Is(err, apperrors.ErrNoRecords),
		errors.Is(err, apperrors.ErrNoPriceHistory),
		errors.Is(err, apperrors.ErrInsufficientBenchmarkOverlap):
		return http.StatusUnprocessableEntity, "scope cannot be computed"

	default:
		return http.StatusInternalServerError, "failed to compute realized performance"
	}
}
