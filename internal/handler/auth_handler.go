package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/sagha-api/internal/models"
	"github.com/noah-isme/sagha-api/pkg/response"
)

type authService interface {
	StaffLogin(ctx context.Context, req models.LoginRequest) (*models.StaffLoginResponse, error)
	StudentLogin(ctx context.Context, domain string, req models.LoginRequest) (*models.StudentLoginResponse, error)
	SetPassword(ctx context.Context, actor models.Actor, domain string, req models.SetPasswordRequest) error
}

// AuthHandler wires HTTP endpoints to the auth service.
type AuthHandler struct {
	service authService
}

// NewAuthHandler creates a new handler.
func NewAuthHandler(svc authService) *AuthHandler {
	return &AuthHandler{service: svc}
}

// StaffLogin godoc
// @Summary Authenticate staff
// @Description Authenticate an administrator or employee by email and password
// @Tags Authentication
// @Accept json
// @Produce json
// @Param payload body models.LoginRequest true "Login payload"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 401 {object} response.Envelope
// @Router /auth/login [post]
func (h *AuthHandler) StaffLogin(c *gin.Context) {
	req, ok := bindLogin(c)
	if !ok {
		return
	}
	res, err := h.service.StaffLogin(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, res, nil)
}

// StudentLogin godoc
// @Summary Authenticate student
// @Description Authenticate a student of the college identified by domain
// @Tags Students
// @Accept json
// @Produce json
// @Param domain path string true "College domain"
// @Param payload body models.LoginRequest true "Login payload"
// @Success 200 {object} response.Envelope
// @Failure 401 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /student/{domain}/login [post]
func (h *AuthHandler) StudentLogin(c *gin.Context) {
	req, ok := bindLogin(c)
	if !ok {
		return
	}
	res, err := h.service.StudentLogin(c.Request.Context(), c.Param("domain"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, res, nil)
}

// SetPassword godoc
// @Summary Set student password
// @Description Set the first password or change the current one
// @Tags Students
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param domain path string true "College domain"
// @Param payload body models.SetPasswordRequest true "Password payload"
// @Success 204 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Router /student/{domain}/password [post]
func (h *AuthHandler) SetPassword(c *gin.Context) {
	actor, ok := actorFromContext(c)
	if !ok {
		return
	}
	var req models.SetPasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, bindError(err, "invalid password payload"))
		return
	}
	if err := h.service.SetPassword(c.Request.Context(), actor, c.Param("domain"), req); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

func bindLogin(c *gin.Context) (models.LoginRequest, bool) {
	var req models.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, bindError(err, "invalid login payload"))
		return req, false
	}
	req.IP = c.ClientIP()
	req.UserAgent = c.GetHeader("User-Agent")
	return req, true
}
