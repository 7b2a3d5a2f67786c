package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/skillbridge-matcher/internal/dto"
	"github.com/noah-isme/skillbridge-matcher/internal/service"
	appErrors "github.com/noah-isme/skillbridge-matcher/pkg/errors"
	"github.com/noah-isme/skillbridge-matcher/pkg/response"
)

type skillSearcher interface {
	Search(ctx context.Context, req dto.SearchRequest) ([]dto.SearchResult, error)
}

// SearchHandler serves one-sided skill search.
type SearchHandler struct {
	service skillSearcher
}

// NewSearchHandler constructs the handler.
func NewSearchHandler(svc *service.SearchService) *SearchHandler {
	return &SearchHandler{service: svc}
}

// ComputeMatch godoc
// @Summary Find teachers or learners for a free-text skill
// @Description mode=learn ranks people teaching the skill, mode=teach ranks people wanting to learn it.
// @Tags Search
// @Accept json
// @Produce json
// @Param payload body dto.SearchRequest true "Search payload"
// @Success 200 {object} response.Envelope
// @Router /compute-match [post]
func (h *SearchHandler) ComputeMatch(c *gin.Context) {
	var req dto.SearchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid search payload"))
		return
	}
	results, err := h.service.Search(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, results, map[string]interface{}{"total": len(results), "mode": req.Mode})
}
