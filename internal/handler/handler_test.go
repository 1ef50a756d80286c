package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/sagha-api/internal/middleware"
	"github.com/noah-isme/sagha-api/internal/models"
	appErrors "github.com/noah-isme/sagha-api/pkg/errors"
)

type authServiceMock struct {
	loginReq models.LoginRequest
	domain   string
	setActor models.Actor
	setErr   error
}

func (m *authServiceMock) StaffLogin(ctx context.Context, req models.LoginRequest) (*models.StaffLoginResponse, error) {
	m.loginReq = req
	return &models.StaffLoginResponse{Token: "token"}, nil
}

func (m *authServiceMock) StudentLogin(ctx context.Context, domain string, req models.LoginRequest) (*models.StudentLoginResponse, error) {
	m.domain = domain
	m.loginReq = req
	return nil, appErrors.Clone(appErrors.ErrNotFound, "college not found")
}

func (m *authServiceMock) SetPassword(ctx context.Context, actor models.Actor, domain string, req models.SetPasswordRequest) error {
	m.setActor = actor
	return m.setErr
}

func jsonRequest(method, target string, payload interface{}) *http.Request {
	raw, _ := json.Marshal(payload)
	req := httptest.NewRequest(method, target, bytes.NewReader(raw))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", "handler-test")
	return req
}

func TestAuthHandlerStaffLoginCapturesClient(t *testing.T) {
	svc := &authServiceMock{}
	handler := NewAuthHandler(svc)

	w := httptest.NewRecorder()
	c := newTestContext(w, jsonRequest(http.MethodPost, "/auth/login", map[string]string{"email": "a@b.test", "password": "x"}), nil, nil)
	handler.StaffLogin(c)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "a@b.test", svc.loginReq.Email)
	assert.Equal(t, "handler-test", svc.loginReq.UserAgent)
	assert.Equal(t, "no-store", w.Header().Get("Cache-Control"))
}

func TestAuthHandlerStudentLoginPassesDomain(t *testing.T) {
	svc := &authServiceMock{}
	handler := NewAuthHandler(svc)

	w := httptest.NewRecorder()
	c := newTestContext(w, jsonRequest(http.MethodPost, "/student/ufx/login", map[string]string{"email": "a@b.test", "password": "x"}), nil, gin.Params{{Key: "domain", Value: "ufx"}})
	handler.StudentLogin(c)

	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "ufx", svc.domain)

	w = httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/student/ufx/login", bytes.NewReader([]byte("{")))
	req.Header.Set("Content-Type", "application/json")
	handler.StudentLogin(newTestContext(w, req, nil, gin.Params{{Key: "domain", Value: "ufx"}}))
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestAuthHandlerSetPassword(t *testing.T) {
	svc := &authServiceMock{}
	handler := NewAuthHandler(svc)

	w := httptest.NewRecorder()
	c := newTestContext(w, jsonRequest(http.MethodPost, "/student/ufx/password", map[string]string{"new_password": "LongEnough1"}), studentClaims, gin.Params{{Key: "domain", Value: "ufx"}})
	handler.SetPassword(c)
	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, "s1", svc.setActor.StudentID)

	svc.setErr = appErrors.Clone(appErrors.ErrForbidden, "current password does not match")
	w = httptest.NewRecorder()
	c = newTestContext(w, jsonRequest(http.MethodPost, "/student/ufx/password", map[string]string{"new_password": "LongEnough1"}), studentClaims, gin.Params{{Key: "domain", Value: "ufx"}})
	handler.SetPassword(c)
	assert.Equal(t, http.StatusForbidden, w.Code)
}

type collegeServiceMock struct {
	hit bool
}

func (m *collegeServiceMock) Create(ctx context.Context, actor models.Actor, req models.CreateCollegeRequest) (*models.College, error) {
	return nil, appErrors.Clone(appErrors.ErrConflict, "college with this domain already exists")
}

func (m *collegeServiceMock) GetByDomain(ctx context.Context, domain string) (*models.College, bool, error) {
	return &models.College{ID: "c1", Domain: domain}, m.hit, nil
}

func (m *collegeServiceMock) Update(ctx context.Context, actor models.Actor, id string, req models.UpdateCollegeRequest) (*models.College, error) {
	return &models.College{ID: id}, nil
}

func (m *collegeServiceMock) RegisterStudent(ctx context.Context, actor models.Actor, domain string, req models.RegisterStudentRequest) (*models.StudentRegistration, error) {
	return &models.StudentRegistration{UserCreated: true}, nil
}

func TestCollegeHandlerGetReportsCacheHit(t *testing.T) {
	handler := NewCollegeHandler(&collegeServiceMock{hit: true})
	router := gin.New()
	router.Use(middleware.WithResponseMeta())
	router.GET("/college/:domain", handler.Get)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/college/ufx", nil))
	require.Equal(t, http.StatusOK, w.Code)

	var envelope struct {
		Data models.College         `json:"data"`
		Meta map[string]interface{} `json:"meta"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &envelope))
	assert.Equal(t, "ufx", envelope.Data.Domain)
	assert.Equal(t, true, envelope.Meta["cache_hit"])
}

func TestCollegeHandlerCreateAndRegister(t *testing.T) {
	handler := NewCollegeHandler(&collegeServiceMock{})
	admin := &models.JWTClaims{UserID: "admin", Role: models.RoleAdmin}

	w := httptest.NewRecorder()
	handler.Create(newTestContext(w, jsonRequest(http.MethodPost, "/college", map[string]string{"name": "UFX"}), admin, nil))
	assert.Equal(t, http.StatusConflict, w.Code)

	w = httptest.NewRecorder()
	handler.RegisterStudent(newTestContext(w, jsonRequest(http.MethodPost, "/college/student/ufx", map[string]string{"email": "x@y.test"}), admin, gin.Params{{Key: "domain", Value: "ufx"}}))
	assert.Equal(t, http.StatusCreated, w.Code)
}

type exportServiceMock struct {
	path   string
	format models.ExportFormat
}

func (m *exportServiceMock) ExportHours(ctx context.Context, actor models.Actor, domain, studentID string, format models.ExportFormat) (*models.ExportResult, error) {
	m.format = format
	return &models.ExportResult{Filename: "2024001.csv", Format: string(format), DownloadURL: "/api/v1/exports/download?token=t"}, nil
}

func (m *exportServiceMock) Open(token string) (*os.File, string, error) {
	if token != "good" {
		return nil, "", appErrors.Clone(appErrors.ErrUnauthorized, "invalid download token")
	}
	f, err := os.Open(m.path)
	return f, filepath.Base(m.path), err
}

type hourSummaryMock struct{}

func (hourSummaryMock) HourSummary(ctx context.Context, actor models.Actor, domain, studentID string) (*models.StudentHourSummary, error) {
	return &models.StudentHourSummary{StudentID: studentID, TotalHours: 42}, nil
}

func TestStudentHandlerHoursAndExport(t *testing.T) {
	exports := &exportServiceMock{}
	handler := NewStudentHandler(hourSummaryMock{}, exports)
	params := gin.Params{{Key: "domain", Value: "ufx"}, {Key: "studentId", Value: "s1"}}

	w := httptest.NewRecorder()
	handler.Hours(newTestContext(w, httptest.NewRequest(http.MethodGet, "/student/ufx/s1/hours", nil), studentClaims, params))
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"total_hours":42`)

	w = httptest.NewRecorder()
	handler.Export(newTestContext(w, httptest.NewRequest(http.MethodGet, "/student/ufx/s1/hours/export?format=pdf", nil), studentClaims, params))
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, models.ExportFormatPDF, exports.format)
}

func TestStudentHandlerDownload(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "2024001.csv")
	require.NoError(t, os.WriteFile(path, []byte("a,b\n"), 0o600))
	handler := NewStudentHandler(hourSummaryMock{}, &exportServiceMock{path: path})

	w := httptest.NewRecorder()
	handler.Download(newTestContext(w, httptest.NewRequest(http.MethodGet, "/exports/download?token=good", nil), nil, nil))
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "text/csv", w.Header().Get("Content-Type"))
	assert.Contains(t, w.Header().Get("Content-Disposition"), "2024001.csv")
	body, _ := io.ReadAll(w.Body)
	assert.Equal(t, "a,b\n", string(body))

	w = httptest.NewRecorder()
	handler.Download(newTestContext(w, httptest.NewRequest(http.MethodGet, "/exports/download?token=bad", nil), nil, nil))
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = httptest.NewRecorder()
	handler.Download(newTestContext(w, httptest.NewRequest(http.MethodGet, "/exports/download", nil), nil, nil))
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestMetricsHandlerReady(t *testing.T) {
	healthy := NewMetricsHandler(nil, map[string]Pinger{
		"database": PingerFunc(func(ctx context.Context) error { return nil }),
	})
	w := httptest.NewRecorder()
	healthy.Ready(newTestContext(w, httptest.NewRequest(http.MethodGet, "/ready", nil), nil, nil))
	assert.Equal(t, http.StatusOK, w.Code)

	degraded := NewMetricsHandler(nil, map[string]Pinger{
		"database": PingerFunc(func(ctx context.Context) error { return nil }),
		"redis":    PingerFunc(func(ctx context.Context) error { return errors.New("connection refused") }),
	})
	w = httptest.NewRecorder()
	degraded.Ready(newTestContext(w, httptest.NewRequest(http.MethodGet, "/ready", nil), nil, nil))
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	assert.Contains(t, w.Body.String(), "connection refused")

	w = httptest.NewRecorder()
	degraded.Prometheus(newTestContext(w, httptest.NewRequest(http.MethodGet, "/metrics", nil), nil, nil))
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
}
