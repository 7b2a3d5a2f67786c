package handler

import (
	"context"
	"errors"
	"io"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/skillbridge-matcher/internal/dto"
	"github.com/noah-isme/skillbridge-matcher/internal/service"
	appErrors "github.com/noah-isme/skillbridge-matcher/pkg/errors"
	"github.com/noah-isme/skillbridge-matcher/pkg/response"
)

type matchRunner interface {
	Run(ctx context.Context, req dto.RunMatchingRequest) (*dto.MatchRunResponse, error)
	Enqueue(ctx context.Context, req dto.RunMatchingRequest) (*dto.MatchRunResponse, error)
	Get(ctx context.Context, runID string) (*dto.MatchRunResponse, error)
	MatchesForUser(ctx context.Context, userID string) ([]dto.UserMatch, error)
}

// MatchingHandler exposes matching run endpoints.
type MatchingHandler struct {
	service matchRunner
}

// NewMatchingHandler constructs the handler.
func NewMatchingHandler(svc *service.MatchingService) *MatchingHandler {
	return &MatchingHandler{service: svc}
}

// CreateRun godoc
// @Summary Run skill-exchange matching over active profiles
// @Description Runs synchronously by default. With async=true the run is queued and can be polled.
// @Tags Matching
// @Accept json
// @Produce json
// @Param async query bool false "Queue the run instead of waiting for it"
// @Param payload body dto.RunMatchingRequest false "Run options"
// @Success 200 {object} response.Envelope
// @Success 202 {object} response.Envelope
// @Router /matches/runs [post]
func (h *MatchingHandler) CreateRun(c *gin.Context) {
	var req dto.RunMatchingRequest
	if c.Request.Body != nil && c.Request.ContentLength != 0 {
		if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
			response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid matching payload"))
			return
		}
	}

	async, _ := strconv.ParseBool(c.DefaultQuery("async", "false"))
	if async {
		run, err := h.service.Enqueue(c.Request.Context(), req)
		if err != nil {
			response.Error(c, err)
			return
		}
		response.Accepted(c, run)
		return
	}

	run, err := h.service.Run(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, run)
}

// GetRun godoc
// @Summary Get a matching run
// @Tags Matching
// @Produce json
// @Param id path string true "Run ID"
// @Success 200 {object} response.Envelope
// @Router /matches/runs/{id} [get]
func (h *MatchingHandler) GetRun(c *gin.Context) {
	run, err := h.service.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, run)
}

// UserMatches godoc
// @Summary List persisted matches for a member
// @Tags Matching
// @Produce json
// @Param id path string true "User ID"
// @Success 200 {object} response.Envelope
// @Router /users/{id}/matches [get]
func (h *MatchingHandler) UserMatches(c *gin.Context) {
	matches, err := h.service.MatchesForUser(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, matches, map[string]interface{}{"total": len(matches)})
}
