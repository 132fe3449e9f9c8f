package http

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/debjit15/angrybolly/internal/domain"
	"github.com/debjit15/angrybolly/internal/service"
	"github.com/debjit15/angrybolly/pkg/httputil"
	"github.com/debjit15/angrybolly/pkg/middleware"
	"github.com/debjit15/angrybolly/pkg/validator"
)

// ReviewHandler handles HTTP requests for the review endpoints.
type ReviewHandler struct {
	service *service.ReviewService
	logger  *slog.Logger
}

// NewReviewHandler creates a new review HTTP handler.
func NewReviewHandler(svc *service.ReviewService, logger *slog.Logger) *ReviewHandler {
	return &ReviewHandler{
		service: svc,
		logger:  logger,
	}
}

// SubmitReviewRequest is the JSON request body for submitting a review.
// Field names match the public API of the marketing site.
type SubmitReviewRequest struct {
	Name     string `json:"name" validate:"required"`
	Email    string `json:"email" validate:"required,email"`
	Rating   int    `json:"rating" validate:"required,gte=1,lte=5"`
	Text     string `json:"review" validate:"required"`
	DeviceID string `json:"deviceId" validate:"required"`
}

// ListReviewsResponse is the paginated public feed payload.
type ListReviewsResponse struct {
	Reviews    []domain.PublicReview `json:"reviews"`
	Total      int                   `json:"total"`
	Page       int                   `json:"page"`
	PerPage    int                   `json:"perPage"`
	TotalPages int                   `json:"totalPages"`
}

// Submit handles POST /api/v1/reviews
func (h *ReviewHandler) Submit(w http.ResponseWriter, r *http.Request) {
	var req SubmitReviewRequest
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

	input := service.SubmitInput{
		Name:              req.Name,
		Email:             req.Email,
		Rating:            req.Rating,
		Text:              req.Text,
		DeviceFingerprint: req.DeviceID,
		ClientIP:          middleware.ClientIP(r),
	}

	review, err := h.service.Submit(r.Context(), input)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	httputil.WriteJSON(w, http.StatusCreated, httputil.Response{Data: review})
}

// List handles GET /api/v1/reviews?page=N
func (h *ReviewHandler) List(w http.ResponseWriter, r *http.Request) {
	page := 1
	if raw := r.URL.Query().Get("page"); raw != "" {
		if v, err := strconv.Atoi(raw); err == nil {
			page = v
		}
	}

	result, err := h.service.List(r.Context(), page)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: ListReviewsResponse{
		Reviews:    result.Items,
		Total:      result.Total,
		Page:       result.Page,
		PerPage:    result.PerPage,
		TotalPages: result.TotalPages,
	}})
}

func (h *ReviewHandler) writeError(w http.ResponseWriter, r *http.Request, err error) {
	// Service-level validation surfaces with field details too.
	var valErr *validator.ValidationError
	if errors.As(err, &valErr) {
		httputil.WriteValidationError(w, valErr)
		return
	}
	httputil.WriteError(w, r, err, h.logger)
}
