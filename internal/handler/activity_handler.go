package handler

import (
	"context"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/sagha-api/internal/models"
	"github.com/noah-isme/sagha-api/pkg/response"
)

// certificateField is the multipart field carrying the certificate file.
const certificateField = "certificate"

type activityService interface {
	Create(ctx context.Context, actor models.Actor, domain string, req models.CreateActivityRequest, cert *models.CertificateUpload) (*models.Activity, error)
	List(ctx context.Context, actor models.Actor, domain string, filter models.ActivityFilter) ([]models.ActivityDetail, *models.Pagination, error)
	Get(ctx context.Context, actor models.Actor, domain, id string) (*models.ActivityDetail, error)
	Review(ctx context.Context, actor models.Actor, domain, id string, req models.ReviewActivityRequest) (*models.ActivityDetail, error)
}

// ActivityHandler handles activity submissions and reviews.
type ActivityHandler struct {
	service activityService
}

// NewActivityHandler constructs an activity handler.
func NewActivityHandler(svc activityService) *ActivityHandler {
	return &ActivityHandler{service: svc}
}

// Create godoc
// @Summary Submit activity
// @Description Multipart submission with the certificate file. Hours are checked against the category cap.
// @Tags Activities
// @Accept multipart/form-data
// @Produce json
// @Security BearerAuth
// @Param domain path string true "College domain"
// @Param description formData string true "Description"
// @Param hours_requested formData int true "Requested hours"
// @Param start_date formData string true "Start date (YYYY-MM-DD)"
// @Param end_date formData string true "End date (YYYY-MM-DD)"
// @Param category_id formData string true "Category ID"
// @Param student_id formData string true "Student ID"
// @Param certificate formData file true "Certificate"
// @Success 201 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Failure 500 {object} response.Envelope
// @Router /activity/{domain} [post]
func (h *ActivityHandler) Create(c *gin.Context) {
	actor, ok := actorFromContext(c)
	if !ok {
		return
	}
	var req models.CreateActivityRequest
	if err := c.ShouldBind(&req); err != nil {
		response.Error(c, bindError(err, "invalid activity payload"))
		return
	}

	header, err := c.FormFile(certificateField)
	if err != nil {
		response.Error(c, bindError(err, "certificate file is required"))
		return
	}
	file, err := header.Open()
	if err != nil {
		response.Error(c, bindError(err, "certificate file is unreadable"))
		return
	}
	defer file.Close()

	cert := &models.CertificateUpload{
		Filename:    header.Filename,
		ContentType: header.Header.Get("Content-Type"),
		Size:        header.Size,
		Body:        file,
	}
	activity, err := h.service.Create(c.Request.Context(), actor, c.Param("domain"), req, cert)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, activity)
}

// List godoc
// @Summary List activities
// @Description Students only see their own activities
// @Tags Activities
// @Produce json
// @Security BearerAuth
// @Param domain path string true "College domain"
// @Param studentId query string false "Filter by student"
// @Param status query string false "Filter by status"
// @Param categoryId query string false "Filter by category"
// @Param page query int false "Page"
// @Param page_size query int false "Page size"
// @Success 200 {object} response.Envelope
// @Router /activity/{domain} [get]
func (h *ActivityHandler) List(c *gin.Context) {
	actor, ok := actorFromContext(c)
	if !ok {
		return
	}
	filter := models.ActivityFilter{
		StudentID:  strings.TrimSpace(c.Query("studentId")),
		CategoryID: strings.TrimSpace(c.Query("categoryId")),
		Status:     models.ActivityStatus(strings.ToUpper(strings.TrimSpace(c.Query("status")))),
		SortOrder:  c.Query("order"),
	}
	if page, err := strconv.Atoi(c.DefaultQuery("page", "1")); err == nil {
		filter.Page = page
	}
	if size, err := strconv.Atoi(c.DefaultQuery("page_size", "20")); err == nil {
		filter.PageSize = size
	}

	activities, pagination, err := h.service.List(c.Request.Context(), actor, c.Param("domain"), filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, activities, pagination)
}

// Get godoc
// @Summary Get activity
// @Tags Activities
// @Produce json
// @Security BearerAuth
// @Param domain path string true "College domain"
// @Param id path string true "Activity ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /activity/{domain}/{id} [get]
func (h *ActivityHandler) Get(c *gin.Context) {
	actor, ok := actorFromContext(c)
	if !ok {
		return
	}
	activity, err := h.service.Get(c.Request.Context(), actor, c.Param("domain"), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, activity, nil)
}

// Review godoc
// @Summary Review activity
// @Description Approve totally or partially, or reject. Approvals are checked against the hour quotas.
// @Tags Activities
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param domain path string true "College domain"
// @Param id path string true "Activity ID"
// @Param payload body models.ReviewActivityRequest true "Review payload"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Failure 422 {object} response.Envelope
// @Router /activity/{domain}/{id}/review [patch]
func (h *ActivityHandler) Review(c *gin.Context) {
	actor, ok := actorFromContext(c)
	if !ok {
		return
	}
	var req models.ReviewActivityRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, bindError(err, "invalid review payload"))
		return
	}
	req.Status = models.ActivityStatus(strings.ToUpper(string(req.Status)))
	activity, err := h.service.Review(c.Request.Context(), actor, c.Param("domain"), c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, activity, nil)
}
