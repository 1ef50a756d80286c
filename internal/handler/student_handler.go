package handler

import (
	"context"
	"net/http"
	"os"
	"path/filepath"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/sagha-api/internal/models"
	appErrors "github.com/noah-isme/sagha-api/pkg/errors"
	"github.com/noah-isme/sagha-api/pkg/response"
)

type hourSummaryService interface {
	HourSummary(ctx context.Context, actor models.Actor, domain, studentID string) (*models.StudentHourSummary, error)
}

type exportService interface {
	ExportHours(ctx context.Context, actor models.Actor, domain, studentID string, format models.ExportFormat) (*models.ExportResult, error)
	Open(token string) (*os.File, string, error)
}

// StudentHandler serves hour summaries and statement exports.
type StudentHandler struct {
	students hourSummaryService
	exports  exportService
}

// NewStudentHandler constructs a student handler.
func NewStudentHandler(students hourSummaryService, exports exportService) *StudentHandler {
	return &StudentHandler{students: students, exports: exports}
}

// Hours godoc
// @Summary Student hour summary
// @Tags Students
// @Produce json
// @Security BearerAuth
// @Param domain path string true "College domain"
// @Param studentId path string true "Student ID"
// @Success 200 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /student/{domain}/{studentId}/hours [get]
func (h *StudentHandler) Hours(c *gin.Context) {
	actor, ok := actorFromContext(c)
	if !ok {
		return
	}
	summary, err := h.students.HourSummary(c.Request.Context(), actor, c.Param("domain"), c.Param("studentId"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, summary, nil)
}

// Export godoc
// @Summary Export hour statement
// @Tags Students
// @Produce json
// @Security BearerAuth
// @Param domain path string true "College domain"
// @Param studentId path string true "Student ID"
// @Param format query string false "csv or pdf" default(csv)
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /student/{domain}/{studentId}/hours/export [get]
func (h *StudentHandler) Export(c *gin.Context) {
	actor, ok := actorFromContext(c)
	if !ok {
		return
	}
	format := models.ExportFormat(c.DefaultQuery("format", string(models.ExportFormatCSV)))
	result, err := h.exports.ExportHours(c.Request.Context(), actor, c.Param("domain"), c.Param("studentId"), format)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, result, nil)
}

// Download godoc
// @Summary Download export
// @Tags Students
// @Produce octet-stream
// @Param token query string true "Signed token"
// @Success 200 {file} binary
// @Failure 401 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /exports/download [get]
func (h *StudentHandler) Download(c *gin.Context) {
	token := c.Query("token")
	if token == "" {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "token is required"))
		return
	}
	file, name, err := h.exports.Open(token)
	if err != nil {
		response.Error(c, err)
		return
	}
	defer file.Close()

	info, err := file.Stat()
	if err != nil {
		response.Error(c, err)
		return
	}
	c.DataFromReader(http.StatusOK, info.Size(), contentTypeFor(name), file, map[string]string{
		"Content-Disposition": `attachment; filename="` + name + `"`,
	})
}

func contentTypeFor(name string) string {
	switch filepath.Ext(name) {
	case ".csv":
		return "text/csv"
	case ".pdf":
		return "application/pdf"
	default:
		return "application/octet-stream"
	}
}
