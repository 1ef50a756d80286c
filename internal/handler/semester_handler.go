package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/sagha-api/internal/models"
	"github.com/noah-isme/sagha-api/pkg/response"
)

type semesterService interface {
	Create(ctx context.Context, actor models.Actor, domain string, req models.CreateSemesterRequest) (*models.Semester, error)
	Get(ctx context.Context, domain, id string) (*models.Semester, error)
	Update(ctx context.Context, actor models.Actor, domain, id string, req models.UpdateSemesterRequest) (*models.Semester, error)
}

// SemesterHandler handles semester endpoints.
type SemesterHandler struct {
	service semesterService
}

// NewSemesterHandler constructs a semester handler.
func NewSemesterHandler(svc semesterService) *SemesterHandler {
	return &SemesterHandler{service: svc}
}

// Create godoc
// @Summary Create semester
// @Tags Semesters
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param domain path string true "College domain"
// @Param payload body models.CreateSemesterRequest true "Semester payload"
// @Success 201 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /semester/{domain} [post]
func (h *SemesterHandler) Create(c *gin.Context) {
	actor, ok := actorFromContext(c)
	if !ok {
		return
	}
	var req models.CreateSemesterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, bindError(err, "invalid semester payload"))
		return
	}
	semester, err := h.service.Create(c.Request.Context(), actor, c.Param("domain"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, semester)
}

// Get godoc
// @Summary Get semester
// @Tags Semesters
// @Produce json
// @Param domain path string true "College domain"
// @Param semesterId path string true "Semester ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /semester/{domain}/{semesterId} [get]
func (h *SemesterHandler) Get(c *gin.Context) {
	semester, err := h.service.Get(c.Request.Context(), c.Param("domain"), c.Param("semesterId"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, semester, nil)
}

// Update godoc
// @Summary Update semester
// @Tags Semesters
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param domain path string true "College domain"
// @Param semesterId path string true "Semester ID"
// @Param payload body models.UpdateSemesterRequest true "Semester payload"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /semester/{domain}/{semesterId} [put]
func (h *SemesterHandler) Update(c *gin.Context) {
	actor, ok := actorFromContext(c)
	if !ok {
		return
	}
	var req models.UpdateSemesterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, bindError(err, "invalid semester payload"))
		return
	}
	semester, err := h.service.Update(c.Request.Context(), actor, c.Param("domain"), c.Param("semesterId"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, semester, nil)
}
