package handler

import (
	"context"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/sagha-api/internal/middleware"
	"github.com/noah-isme/sagha-api/internal/models"
	"github.com/noah-isme/sagha-api/pkg/response"
)

type categoryService interface {
	Create(ctx context.Context, actor models.Actor, req models.CreateCategoryRequest) (*models.ActivityCategory, error)
	List(ctx context.Context) ([]models.ActivityCategory, bool, error)
}

// CategoryHandler handles activity category endpoints.
type CategoryHandler struct {
	service categoryService
}

// NewCategoryHandler constructs a category handler.
func NewCategoryHandler(svc categoryService) *CategoryHandler {
	return &CategoryHandler{service: svc}
}

// Create godoc
// @Summary Create activity category
// @Tags Activities
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param payload body models.CreateCategoryRequest true "Category payload"
// @Success 201 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /activity/category [post]
func (h *CategoryHandler) Create(c *gin.Context) {
	actor, ok := actorFromContext(c)
	if !ok {
		return
	}
	var req models.CreateCategoryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, bindError(err, "invalid category payload"))
		return
	}
	category, err := h.service.Create(c.Request.Context(), actor, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, category)
}

// List godoc
// @Summary List activity categories
// @Tags Activities
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /activity/category [get]
func (h *CategoryHandler) List(c *gin.Context) {
	categories, hit, err := h.service.List(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	middleware.SetCacheHit(c, hit)
	response.OK(c, categories, middleware.ExtractMeta(c))
}
