package service

import (
	"context"
	"database/sql"
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/noah-isme/sagha-api/internal/models"
	appErrors "github.com/noah-isme/sagha-api/pkg/errors"
)

type mockAuthUsers struct {
	users     map[string]*models.User
	created   []*models.User
	findErr   error
	updateErr error
}

func newMockAuthUsers(users ...*models.User) *mockAuthUsers {
	m := &mockAuthUsers{users: map[string]*models.User{}}
	for _, u := range users {
		m.users[u.ID] = u
	}
	return m
}

func (m *mockAuthUsers) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	if m.findErr != nil {
		return nil, m.findErr
	}
	for _, u := range m.users {
		if u.Email == email {
			return u, nil
		}
	}
	return nil, sql.ErrNoRows
}

func (m *mockAuthUsers) FindByID(ctx context.Context, id string) (*models.User, error) {
	if u, ok := m.users[id]; ok {
		return u, nil
	}
	return nil, sql.ErrNoRows
}

func (m *mockAuthUsers) Create(ctx context.Context, user *models.User) error {
	if user.ID == "" {
		user.ID = "new-user"
	}
	m.created = append(m.created, user)
	m.users[user.ID] = user
	return nil
}

func (m *mockAuthUsers) UpdatePassword(ctx context.Context, id, passwordHash string, updatedAt time.Time) error {
	if m.updateErr != nil {
		return m.updateErr
	}
	m.users[id].PasswordHash = &passwordHash
	return nil
}

type mockAuthColleges struct {
	colleges map[string]*models.College
}

func (m *mockAuthColleges) FindByDomain(ctx context.Context, domain string) (*models.College, error) {
	if c, ok := m.colleges[domain]; ok {
		return c, nil
	}
	return nil, sql.ErrNoRows
}

type mockAuthStudents struct {
	byUser map[string]*models.Student
}

func (m *mockAuthStudents) FindByUserInCollege(ctx context.Context, collegeID, userID string) (*models.Student, error) {
	if s, ok := m.byUser[userID]; ok && s.CollegeID == collegeID {
		return s, nil
	}
	return nil, sql.ErrNoRows
}

func hashed(t *testing.T, password string) *string {
	t.Helper()
	h, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	require.NoError(t, err)
	encoded := string(h)
	return &encoded
}

type authFixture struct {
	svc   *AuthService
	users *mockAuthUsers
	audit *mockAudit
}

func newAuthFixture(t *testing.T) *authFixture {
	users := newMockAuthUsers(
		&models.User{ID: "admin-1", Name: "Admin", Email: "admin@sagha.test", PasswordHash: hashed(t, "Password123!"), Role: models.RoleAdmin},
		&models.User{ID: "stu-user", Name: "Ana", Email: "ana@ufx.test", PasswordHash: hashed(t, "Student123!"), Role: models.RoleStudent},
		&models.User{ID: "fresh-user", Name: "Bia", Email: "bia@ufx.test", Role: models.RoleStudent},
	)
	colleges := &mockAuthColleges{colleges: map[string]*models.College{
		"ufx": {ID: "c1", Name: "UFX", Domain: "ufx"},
		"uyz": {ID: "c2", Name: "UYZ", Domain: "uyz"},
	}}
	students := &mockAuthStudents{byUser: map[string]*models.Student{
		"stu-user":   {ID: "s1", UserID: "stu-user", CollegeID: "c1", Enrollment: "2024001"},
		"fresh-user": {ID: "s2", UserID: "fresh-user", CollegeID: "c1", Enrollment: "2024002"},
	}}
	audit := &mockAudit{}
	svc := NewAuthService(users, colleges, students, audit, nil, nil, AuthConfig{AccessTokenSecret: "secret", AccessTokenExpiry: time.Hour, Issuer: "sagha-test"})
	return &authFixture{svc: svc, users: users, audit: audit}
}

func TestStaffLoginIssuesToken(t *testing.T) {
	f := newAuthFixture(t)

	resp, err := f.svc.StaffLogin(context.Background(), models.LoginRequest{Email: " Admin@Sagha.test ", Password: "Password123!"})
	require.NoError(t, err)
	assert.NotEmpty(t, resp.Token)
	assert.Equal(t, int64(3600), resp.ExpiresIn)
	assert.Equal(t, models.RoleAdmin, resp.User.Role)

	claims, err := f.svc.ValidateToken(resp.Token)
	require.NoError(t, err)
	assert.Equal(t, "admin-1", claims.UserID)
	assert.Empty(t, claims.StudentID)
	assert.Equal(t, []string{models.AuditActionLogin}, f.audit.actions())
}

func TestStaffLoginRejections(t *testing.T) {
	f := newAuthFixture(t)

	_, err := f.svc.StaffLogin(context.Background(), models.LoginRequest{Email: "admin@sagha.test", Password: "wrong"})
	assert.ErrorIs(t, err, appErrors.ErrInvalidCredentials)

	_, err = f.svc.StaffLogin(context.Background(), models.LoginRequest{Email: "ana@ufx.test", Password: "Student123!"})
	assert.ErrorIs(t, err, appErrors.ErrInvalidCredentials)

	_, err = f.svc.StaffLogin(context.Background(), models.LoginRequest{Email: "ghost@sagha.test", Password: "whatever"})
	assert.ErrorIs(t, err, appErrors.ErrInvalidCredentials)

	_, err = f.svc.StaffLogin(context.Background(), models.LoginRequest{Email: "not-an-email", Password: "x"})
	assertAppError(t, err, http.StatusBadRequest)

	f.users.findErr = errors.New("db down")
	_, err = f.svc.StaffLogin(context.Background(), models.LoginRequest{Email: "admin@sagha.test", Password: "Password123!"})
	assertAppError(t, err, http.StatusInternalServerError)
	assert.Empty(t, f.audit.actions())
}

func TestStudentLoginScopesTokenToCollege(t *testing.T) {
	f := newAuthFixture(t)

	resp, err := f.svc.StudentLogin(context.Background(), "ufx", models.LoginRequest{Email: "ana@ufx.test", Password: "Student123!"})
	require.NoError(t, err)
	assert.Equal(t, "s1", resp.Student.ID)
	assert.Equal(t, "ufx", resp.College.Domain)

	claims, err := f.svc.ValidateToken(resp.Token)
	require.NoError(t, err)
	assert.Equal(t, models.RoleStudent, claims.Role)
	assert.Equal(t, "s1", claims.StudentID)
	assert.Equal(t, "ufx", claims.Domain)
}

func TestStudentLoginNormalisesEmail(t *testing.T) {
	f := newAuthFixture(t)

	resp, err := f.svc.StudentLogin(context.Background(), "ufx", models.LoginRequest{Email: "  ANA@ufx.test\t", Password: "Student123!"})
	require.NoError(t, err)
	assert.Equal(t, "s1", resp.Student.ID)
}

func TestStudentLoginRejections(t *testing.T) {
	f := newAuthFixture(t)

	_, err := f.svc.StudentLogin(context.Background(), "nope", models.LoginRequest{Email: "ana@ufx.test", Password: "Student123!"})
	assertAppError(t, err, http.StatusNotFound)

	_, err = f.svc.StudentLogin(context.Background(), "uyz", models.LoginRequest{Email: "ana@ufx.test", Password: "Student123!"})
	assertAppError(t, err, http.StatusUnauthorized)

	_, err = f.svc.StudentLogin(context.Background(), "ufx", models.LoginRequest{Email: "bia@ufx.test", Password: "anything"})
	appErr := assertAppError(t, err, http.StatusUnauthorized)
	assert.Contains(t, appErr.Message, "password not set")
}

func TestSetPasswordFirstTimeAndChange(t *testing.T) {
	f := newAuthFixture(t)
	actor := models.Actor{UserID: "fresh-user", Role: models.RoleStudent, StudentID: "s2", Domain: "ufx"}

	require.NoError(t, f.svc.SetPassword(context.Background(), actor, "ufx", models.SetPasswordRequest{NewPassword: "FirstPass1"}))
	_, err := f.svc.StudentLogin(context.Background(), "ufx", models.LoginRequest{Email: "bia@ufx.test", Password: "FirstPass1"})
	require.NoError(t, err)

	err = f.svc.SetPassword(context.Background(), actor, "ufx", models.SetPasswordRequest{CurrentPassword: "wrong", NewPassword: "SecondPass2"})
	assertAppError(t, err, http.StatusForbidden)

	require.NoError(t, f.svc.SetPassword(context.Background(), actor, "ufx", models.SetPasswordRequest{CurrentPassword: "FirstPass1", NewPassword: "SecondPass2"}))
	assert.Equal(t, []string{models.AuditActionPasswordChange, models.AuditActionLogin, models.AuditActionPasswordChange}, f.audit.actions())
}

func TestSetPasswordRejectsForeignScope(t *testing.T) {
	f := newAuthFixture(t)

	err := f.svc.SetPassword(context.Background(), models.Actor{UserID: "stu-user", Role: models.RoleStudent, Domain: "ufx"}, "uyz", models.SetPasswordRequest{NewPassword: "LongEnough1"})
	assertAppError(t, err, http.StatusForbidden)

	err = f.svc.SetPassword(context.Background(), models.Actor{UserID: "admin-1", Role: models.RoleAdmin}, "ufx", models.SetPasswordRequest{NewPassword: "LongEnough1"})
	assertAppError(t, err, http.StatusForbidden)

	err = f.svc.SetPassword(context.Background(), models.Actor{UserID: "stu-user", Role: models.RoleStudent, Domain: "ufx"}, "ufx", models.SetPasswordRequest{NewPassword: "short"})
	assertAppError(t, err, http.StatusBadRequest)
}

func TestValidateTokenRejectsForeignIssuerAndSecret(t *testing.T) {
	f := newAuthFixture(t)
	resp, err := f.svc.StaffLogin(context.Background(), models.LoginRequest{Email: "admin@sagha.test", Password: "Password123!"})
	require.NoError(t, err)

	other := NewAuthService(f.users, nil, nil, nil, nil, nil, AuthConfig{AccessTokenSecret: "secret", Issuer: "someone-else"})
	_, err = other.ValidateToken(resp.Token)
	assertAppError(t, err, http.StatusUnauthorized)

	forged := NewAuthService(f.users, nil, nil, nil, nil, nil, AuthConfig{AccessTokenSecret: "other-secret", Issuer: "sagha-test"})
	_, err = forged.ValidateToken(resp.Token)
	assertAppError(t, err, http.StatusUnauthorized)
}

func TestEnsureAdminCreatesOnce(t *testing.T) {
	f := newAuthFixture(t)

	require.NoError(t, f.svc.EnsureAdmin(context.Background(), "", "Root@Sagha.test", "BootPass1"))
	require.Len(t, f.users.created, 1)
	assert.Equal(t, "root@sagha.test", f.users.created[0].Email)
	assert.Equal(t, "Administrator", f.users.created[0].Name)
	assert.Equal(t, models.RoleAdmin, f.users.created[0].Role)

	require.NoError(t, f.svc.EnsureAdmin(context.Background(), "Root", "root@sagha.test", "BootPass1"))
	require.NoError(t, f.svc.EnsureAdmin(context.Background(), "Root", "", ""))
	assert.Len(t, f.users.created, 1)
}
