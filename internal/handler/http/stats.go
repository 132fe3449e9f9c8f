package http

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/debjit15/angrybolly/internal/service"
	"github.com/debjit15/angrybolly/pkg/httputil"
	"github.com/debjit15/angrybolly/pkg/middleware"
	"github.com/debjit15/angrybolly/pkg/validator"
)

// StatsHandler handles HTTP requests for the stats endpoints.
type StatsHandler struct {
	service *service.StatsService
	logger  *slog.Logger
}

// NewStatsHandler creates a new stats HTTP handler.
func NewStatsHandler(svc *service.StatsService, logger *slog.Logger) *StatsHandler {
	return &StatsHandler{
		service: svc,
		logger:  logger,
	}
}

// SetStatsRequest is the JSON request body for the administrative overwrite.
type SetStatsRequest struct {
	Downloads int     `json:"downloads" validate:"gte=0"`
	Rating    float64 `json:"rating" validate:"gte=0,lte=5"`
	Reviews   int     `json:"reviews" validate:"gte=0"`
}

// Get handles GET /api/v1/stats
func (h *StatsHandler) Get(w http.ResponseWriter, r *http.Request) {
	stats, err := h.service.Get(r.Context())
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: stats})
}

// Set handles PUT /api/v1/stats (admin only; guarded by AdminAuth middleware).
func (h *StatsHandler) Set(w http.ResponseWriter, r *http.Request) {
	var req SetStatsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.WriteJSON(w, http.StatusBadRequest, httputil.Response{
			Error: &httputil.ErrorResponse{Code: "INVALID_INPUT", Message: "invalid request body: " + err.Error()},
		})
		return
	}

	if err := validator.Validate(req); err != nil {
		httputil.WriteValidationError(w, err)
		return
	}

	stats, err := h.service.Set(r.Context(), service.SetStatsInput{
		Downloads: req.Downloads,
		Rating:    req.Rating,
		Reviews:   req.Reviews,
	})
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: stats})
}

// TrackDownload handles POST /api/v1/stats/downloads
func (h *StatsHandler) TrackDownload(w http.ResponseWriter, r *http.Request) {
	stats, err := h.service.TrackDownload(r.Context(), middleware.ClientIP(r))
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: stats})
}
