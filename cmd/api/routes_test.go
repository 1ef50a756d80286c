package main

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"

	"github.com/noah-isme/sagha-api/internal/handler"
	"github.com/noah-isme/sagha-api/internal/models"
	appErrors "github.com/noah-isme/sagha-api/pkg/errors"
)

type tokenStub map[string]*models.JWTClaims

func (s tokenStub) ValidateToken(token string) (*models.JWTClaims, error) {
	if claims, ok := s[token]; ok {
		return claims, nil
	}
	return nil, appErrors.ErrUnauthorized
}

func newTestRouter() *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	registerRoutes(r, "/api/v1", tokenStub{
		"student": {Role: models.RoleStudent, Domain: "ufsc", StudentID: "s1"},
		"staff":   {Role: models.RoleEmployee},
	}, handlers{
		auth:      handler.NewAuthHandler(nil),
		colleges:  handler.NewCollegeHandler(nil),
		students:  handler.NewStudentHandler(nil, nil),
		courses:   handler.NewCourseHandler(nil),
		semesters: handler.NewSemesterHandler(nil),
		category:  handler.NewCategoryHandler(nil),
		activity:  handler.NewActivityHandler(nil),
		ops:       handler.NewMetricsHandler(nil, nil),
	})
	return r
}

func TestRegisterRoutesTable(t *testing.T) {
	registered := map[string]bool{}
	for _, route := range newTestRouter().Routes() {
		registered[route.Method+" "+route.Path] = true
	}

	for _, want := range []string{
		"GET /health",
		"GET /ready",
		"GET /metrics",
		"POST /api/v1/auth/login",
		"POST /api/v1/college",
		"GET /api/v1/college/:domain",
		"PUT /api/v1/college/:id",
		"POST /api/v1/college/student/:domain",
		"POST /api/v1/student/:domain/login",
		"POST /api/v1/student/:domain/password",
		"GET /api/v1/student/:domain/:studentId/hours",
		"GET /api/v1/student/:domain/:studentId/hours/export",
		"GET /api/v1/exports/download",
		"POST /api/v1/course/:domain",
		"GET /api/v1/course/:id",
		"PUT /api/v1/course/:domain/:id",
		"POST /api/v1/semester/:domain",
		"GET /api/v1/semester/:domain/:semesterId",
		"PUT /api/v1/semester/:domain/:semesterId",
		"POST /api/v1/activity/category",
		"GET /api/v1/activity/category",
		"POST /api/v1/activity/:domain",
		"GET /api/v1/activity/:domain",
		"GET /api/v1/activity/:domain/:id",
		"PATCH /api/v1/activity/:domain/:id/review",
	} {
		assert.True(t, registered[want], want)
	}
}

func TestRegisterRoutesGuards(t *testing.T) {
	r := newTestRouter()

	cases := []struct {
		method, path, token string
		status              int
	}{
		{http.MethodPost, "/api/v1/college", "", http.StatusUnauthorized},
		{http.MethodPost, "/api/v1/college", "staff", http.StatusForbidden},
		{http.MethodPost, "/api/v1/college/student/ufsc", "student", http.StatusForbidden},
		{http.MethodGet, "/api/v1/student/ufsc/s2/hours", "student", http.StatusForbidden},
		{http.MethodGet, "/api/v1/student/other/s1/hours", "student", http.StatusForbidden},
		{http.MethodPatch, "/api/v1/activity/ufsc/a1/review", "student", http.StatusForbidden},
		{http.MethodPost, "/api/v1/activity/category", "staff", http.StatusForbidden},
		{http.MethodGet, "/api/v1/course/c1", "", http.StatusUnauthorized},
		{http.MethodGet, "/metrics", "", http.StatusServiceUnavailable},
		{http.MethodGet, "/health", "", http.StatusOK},
	}

	for _, tc := range cases {
		req := httptest.NewRequest(tc.method, tc.path, nil)
		if tc.token != "" {
			req.Header.Set("Authorization", "Bearer "+tc.token)
		}
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)
		assert.Equal(t, tc.status, w.Code, "%s %s as %q", tc.method, tc.path, tc.token)
	}
}
