package middleware

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/sagha-api/internal/models"
	appErrors "github.com/noah-isme/sagha-api/pkg/errors"
)

type stubValidator map[string]*models.JWTClaims

func (s stubValidator) ValidateToken(token string) (*models.JWTClaims, error) {
	if claims, ok := s[token]; ok {
		return claims, nil
	}
	return nil, appErrors.Clone(appErrors.ErrUnauthorized, "invalid token")
}

var tokens = stubValidator{
	"admin":   {UserID: "a1", Role: models.RoleAdmin},
	"student": {UserID: "u1", Role: models.RoleStudent, StudentID: "s1", Domain: "ufx"},
}

func init() {
	gin.SetMode(gin.TestMode)
}

func newRouter(guards ...gin.HandlerFunc) *gin.Engine {
	r := gin.New()
	handlers := append([]gin.HandlerFunc{JWT(tokens)}, guards...)
	handlers = append(handlers, func(c *gin.Context) { c.Status(http.StatusOK) })
	r.GET("/student/:domain/:studentId/hours", handlers...)
	r.POST("/activity/category", handlers...)
	return r
}

func perform(r http.Handler, method, path, token string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, nil)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestJWTRejectsMissingAndInvalidTokens(t *testing.T) {
	r := newRouter()

	w := perform(r, http.MethodPost, "/activity/category", "")
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = perform(r, http.MethodPost, "/activity/category", "forged")
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	req := httptest.NewRequest(http.MethodPost, "/activity/category", nil)
	req.Header.Set("Authorization", "Basic admin")
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = perform(r, http.MethodPost, "/activity/category", "admin")
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestRBACSelfMatchesDomainAndStudent(t *testing.T) {
	r := newRouter(RBAC(string(models.RoleAdmin), string(models.RoleEmployee), RoleSelf))

	assert.Equal(t, http.StatusOK, perform(r, http.MethodGet, "/student/ufx/s1/hours", "student").Code)
	assert.Equal(t, http.StatusForbidden, perform(r, http.MethodGet, "/student/ufx/s2/hours", "student").Code)
	assert.Equal(t, http.StatusForbidden, perform(r, http.MethodGet, "/student/uyz/s1/hours", "student").Code)
	assert.Equal(t, http.StatusOK, perform(r, http.MethodGet, "/student/uyz/s9/hours", "admin").Code)
}

func TestRequireStaffBlocksStudents(t *testing.T) {
	r := newRouter(RequireStaff())

	w := perform(r, http.MethodPost, "/activity/category", "student")
	assert.Equal(t, http.StatusForbidden, w.Code)

	var body struct {
		Error appErrors.Error `json:"error"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "FORBIDDEN", body.Error.Code)
}

type recordingObserver struct {
	paths    []string
	statuses []int
}

func (r *recordingObserver) ObserveHTTPRequest(method, path string, status int, duration time.Duration) {
	r.paths = append(r.paths, path)
	r.statuses = append(r.statuses, status)
}

func TestMetricsUsesRouteTemplate(t *testing.T) {
	observer := &recordingObserver{}
	r := gin.New()
	r.Use(Metrics(observer))
	r.GET("/college/:domain", func(c *gin.Context) { c.Status(http.StatusNoContent) })

	perform(r, http.MethodGet, "/college/ufx", "")
	perform(r, http.MethodGet, "/nowhere", "")

	assert.Equal(t, []string{"/college/:domain", "unmatched"}, observer.paths)
	assert.Equal(t, []int{http.StatusNoContent, http.StatusNotFound}, observer.statuses)
}

func TestResponseMeta(t *testing.T) {
	var meta map[string]interface{}
	r := gin.New()
	r.Use(WithResponseMeta())
	r.GET("/cached", func(c *gin.Context) {
		SetCacheHit(c, true)
		meta = ExtractMeta(c)
		c.Status(http.StatusOK)
	})
	r.GET("/plain", func(c *gin.Context) {
		meta = ExtractMeta(c)
		c.Status(http.StatusOK)
	})

	perform(r, http.MethodGet, "/cached", "")
	require.NotNil(t, meta)
	assert.Equal(t, true, meta["cache_hit"])
	assert.Contains(t, meta, "processing_time_ms")

	perform(r, http.MethodGet, "/plain", "")
	assert.Nil(t, meta)
}
