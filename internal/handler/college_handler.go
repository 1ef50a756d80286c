package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/sagha-api/internal/middleware"
	"github.com/noah-isme/sagha-api/internal/models"
	"github.com/noah-isme/sagha-api/pkg/response"
)

type collegeService interface {
	Create(ctx context.Context, actor models.Actor, req models.CreateCollegeRequest) (*models.College, error)
	GetByDomain(ctx context.Context, domain string) (*models.College, bool, error)
	Update(ctx context.Context, actor models.Actor, id string, req models.UpdateCollegeRequest) (*models.College, error)
	RegisterStudent(ctx context.Context, actor models.Actor, domain string, req models.RegisterStudentRequest) (*models.StudentRegistration, error)
}

// CollegeHandler exposes college and student registration endpoints.
type CollegeHandler struct {
	service collegeService
}

// NewCollegeHandler constructs a college handler.
func NewCollegeHandler(svc collegeService) *CollegeHandler {
	return &CollegeHandler{service: svc}
}

// Create godoc
// @Summary Create college
// @Tags Colleges
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param payload body models.CreateCollegeRequest true "College payload"
// @Success 201 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /college [post]
func (h *CollegeHandler) Create(c *gin.Context) {
	actor, ok := actorFromContext(c)
	if !ok {
		return
	}
	var req models.CreateCollegeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, bindError(err, "invalid college payload"))
		return
	}
	college, err := h.service.Create(c.Request.Context(), actor, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, college)
}

// Get godoc
// @Summary Get college by domain
// @Tags Colleges
// @Produce json
// @Param domain path string true "College domain"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /college/{domain} [get]
func (h *CollegeHandler) Get(c *gin.Context) {
	college, hit, err := h.service.GetByDomain(c.Request.Context(), c.Param("domain"))
	if err != nil {
		response.Error(c, err)
		return
	}
	middleware.SetCacheHit(c, hit)
	response.OK(c, college, middleware.ExtractMeta(c))
}

// Update godoc
// @Summary Update college
// @Tags Colleges
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "College ID"
// @Param payload body models.UpdateCollegeRequest true "College payload"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /college/{id} [put]
func (h *CollegeHandler) Update(c *gin.Context) {
	actor, ok := actorFromContext(c)
	if !ok {
		return
	}
	var req models.UpdateCollegeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, bindError(err, "invalid college payload"))
		return
	}
	college, err := h.service.Update(c.Request.Context(), actor, c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, college, nil)
}

// RegisterStudent godoc
// @Summary Register student in college
// @Description Creates the user when the email is unknown
// @Tags Colleges
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param domain path string true "College domain"
// @Param payload body models.RegisterStudentRequest true "Student payload"
// @Success 201 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /college/student/{domain} [post]
func (h *CollegeHandler) RegisterStudent(c *gin.Context) {
	actor, ok := actorFromContext(c)
	if !ok {
		return
	}
	var req models.RegisterStudentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, bindError(err, "invalid student payload"))
		return
	}
	registration, err := h.service.RegisterStudent(c.Request.Context(), actor, c.Param("domain"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, registration)
}
