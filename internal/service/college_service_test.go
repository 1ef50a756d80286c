package service

import (
	"context"
	"database/sql"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/sagha-api/internal/models"
)

type mockCollegeRepo struct {
	colleges   map[string]*models.College
	domainHits int
	updated    int
}

func (m *mockCollegeRepo) FindByID(ctx context.Context, id string) (*models.College, error) {
	if c, ok := m.colleges[id]; ok {
		copied := *c
		return &copied, nil
	}
	return nil, sql.ErrNoRows
}

func (m *mockCollegeRepo) FindByDomain(ctx context.Context, domain string) (*models.College, error) {
	m.domainHits++
	for _, c := range m.colleges {
		if c.Domain == domain {
			copied := *c
			return &copied, nil
		}
	}
	return nil, sql.ErrNoRows
}

func (m *mockCollegeRepo) ExistsByField(ctx context.Context, field, value, excludeID string) (bool, error) {
	for _, c := range m.colleges {
		if c.ID == excludeID {
			continue
		}
		var current string
		switch field {
		case "domain":
			current = c.Domain
		case "email":
			current = c.Email
		case "zip_code":
			current = c.ZipCode
		case "phone":
			current = c.Phone
		}
		if current == value {
			return true, nil
		}
	}
	return false, nil
}

func (m *mockCollegeRepo) Create(ctx context.Context, college *models.College) error {
	college.ID = "college-" + college.Domain
	m.colleges[college.ID] = college
	return nil
}

func (m *mockCollegeRepo) Update(ctx context.Context, college *models.College) error {
	m.updated++
	m.colleges[college.ID] = college
	return nil
}

type mockCollegeUsers struct {
	byEmail map[string]*models.User
	created []*models.User
}

func (m *mockCollegeUsers) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	if u, ok := m.byEmail[email]; ok {
		return u, nil
	}
	return nil, sql.ErrNoRows
}

func (m *mockCollegeUsers) Create(ctx context.Context, user *models.User) error {
	user.ID = "user-" + user.Email
	m.created = append(m.created, user)
	m.byEmail[user.Email] = user
	return nil
}

type mockCourses map[string]*models.Course

func (m mockCourses) FindByID(ctx context.Context, id string) (*models.Course, error) {
	if c, ok := m[id]; ok {
		return c, nil
	}
	return nil, sql.ErrNoRows
}

type mockSemesters map[string]*models.SemesterDetail

func (m mockSemesters) FindByID(ctx context.Context, id string) (*models.SemesterDetail, error) {
	if s, ok := m[id]; ok {
		return s, nil
	}
	return nil, sql.ErrNoRows
}

type mockRegistrations struct {
	students []*models.Student
}

func (m *mockRegistrations) ExistsInCollege(ctx context.Context, collegeID, enrollment, userID string) (bool, error) {
	for _, s := range m.students {
		if s.CollegeID == collegeID && (s.Enrollment == enrollment || s.UserID == userID) {
			return true, nil
		}
	}
	return false, nil
}

func (m *mockRegistrations) Create(ctx context.Context, student *models.Student) error {
	student.ID = "student-" + student.Enrollment
	m.students = append(m.students, student)
	return nil
}

type collegeFixture struct {
	svc      *CollegeService
	repo     *mockCollegeRepo
	users    *mockCollegeUsers
	students *mockRegistrations
	cache    *memoryCache
	audit    *mockAudit
}

func newCollegeFixture() *collegeFixture {
	repo := &mockCollegeRepo{colleges: map[string]*models.College{
		"c1": {ID: "c1", Name: "UFX", Domain: "ufx", Email: "contact@ufx.test", ZipCode: "10000", Phone: "111"},
		"c2": {ID: "c2", Name: "UYZ", Domain: "uyz", Email: "contact@uyz.test", ZipCode: "20000", Phone: "222"},
	}}
	users := &mockCollegeUsers{byEmail: map[string]*models.User{
		"old@mail.test": {ID: "u-old", Name: "Old", Email: "old@mail.test", Role: models.RoleStudent},
	}}
	students := &mockRegistrations{}
	cache := newMemoryCache()
	audit := &mockAudit{}
	svc := NewCollegeService(CollegeServiceDeps{
		Colleges: repo,
		Users:    users,
		Courses: mockCourses{
			"course-1": {ID: "course-1", CollegeID: "c1"},
			"course-2": {ID: "course-2", CollegeID: "c2"},
		},
		Semesters: mockSemesters{
			"sem-1": {Semester: models.Semester{ID: "sem-1", CourseID: "course-1"}, CollegeID: "c1"},
			"sem-2": {Semester: models.Semester{ID: "sem-2", CourseID: "course-2"}, CollegeID: "c2"},
		},
		Students: students,
		Cache:    NewCacheService(cache, nil, 0, nil, true),
		Audit:    audit,
	})
	return &collegeFixture{svc: svc, repo: repo, users: users, students: students, cache: cache, audit: audit}
}

func collegeRequest(domain string) models.CreateCollegeRequest {
	return models.CreateCollegeRequest{
		Name: "New College", Address: "Main St", City: "Town", State: "ST", ZipCode: "30000",
		Country: "BR", Phone: "333", Email: "Hello@New.test", Domain: domain,
	}
}

func TestCollegeCreate(t *testing.T) {
	f := newCollegeFixture()

	college, err := f.svc.Create(context.Background(), staff, collegeRequest(" NewCollege "))
	require.NoError(t, err)
	assert.Equal(t, "newcollege", college.Domain)
	assert.Equal(t, "hello@new.test", college.Email)
	assert.Equal(t, []string{models.AuditActionCollegeCreate}, f.audit.actions())
}

func TestCollegeCreateConflictsReportedInOrder(t *testing.T) {
	f := newCollegeFixture()

	req := collegeRequest("ufx")
	req.Email = "contact@ufx.test"
	_, err := f.svc.Create(context.Background(), staff, req)
	appErr := assertAppError(t, err, http.StatusConflict)
	assert.Contains(t, appErr.Message, "domain")

	req = collegeRequest("fresh")
	req.Email = "contact@uyz.test"
	req.Phone = "111"
	_, err = f.svc.Create(context.Background(), staff, req)
	appErr = assertAppError(t, err, http.StatusConflict)
	assert.Contains(t, appErr.Message, "email")

	req = collegeRequest("fresh")
	req.ZipCode = "20000"
	_, err = f.svc.Create(context.Background(), staff, req)
	appErr = assertAppError(t, err, http.StatusConflict)
	assert.Contains(t, appErr.Message, "zip code")

	req = collegeRequest("fresh")
	req.Phone = "222"
	_, err = f.svc.Create(context.Background(), staff, req)
	appErr = assertAppError(t, err, http.StatusConflict)
	assert.Contains(t, appErr.Message, "phone")

	_, err = f.svc.Create(context.Background(), staff, collegeRequest("not a domain!"))
	assertAppError(t, err, http.StatusBadRequest)
}

func TestCollegeGetByDomainUsesCache(t *testing.T) {
	f := newCollegeFixture()

	college, hit, err := f.svc.GetByDomain(context.Background(), "UFX")
	require.NoError(t, err)
	assert.False(t, hit)
	assert.Equal(t, "c1", college.ID)

	college, hit, err = f.svc.GetByDomain(context.Background(), "ufx")
	require.NoError(t, err)
	assert.True(t, hit)
	assert.Equal(t, "c1", college.ID)
	assert.Equal(t, 1, f.repo.domainHits)

	_, _, err = f.svc.GetByDomain(context.Background(), "missing")
	assertAppError(t, err, http.StatusNotFound)
}

func TestCollegeUpdateKeepsDomainAndInvalidatesCache(t *testing.T) {
	f := newCollegeFixture()
	_, _, err := f.svc.GetByDomain(context.Background(), "ufx")
	require.NoError(t, err)

	req := models.UpdateCollegeRequest{Name: "UFX Renamed", Address: "A", City: "B", State: "C", ZipCode: "10000", Country: "BR", Phone: "111", Email: "contact@ufx.test"}
	college, err := f.svc.Update(context.Background(), staff, "c1", req)
	require.NoError(t, err)
	assert.Equal(t, "ufx", college.Domain)
	assert.Equal(t, "UFX Renamed", college.Name)
	assert.Equal(t, []string{collegeCacheKey("ufx")}, f.cache.invalidated)

	req.Phone = "222"
	_, err = f.svc.Update(context.Background(), staff, "c1", req)
	assertAppError(t, err, http.StatusConflict)

	_, err = f.svc.Update(context.Background(), staff, "missing", req)
	assertAppError(t, err, http.StatusNotFound)
}

func registration(email, enrollment string) models.RegisterStudentRequest {
	return models.RegisterStudentRequest{Name: "Student", Email: email, Enrollment: enrollment, CourseID: "course-1", SemesterID: "sem-1"}
}

func TestRegisterStudentCreatesUser(t *testing.T) {
	f := newCollegeFixture()

	reg, err := f.svc.RegisterStudent(context.Background(), staff, "ufx", registration("New@Mail.test", "2024001"))
	require.NoError(t, err)
	assert.True(t, reg.UserCreated)
	assert.Equal(t, "new@mail.test", reg.User.Email)
	assert.Equal(t, models.RoleStudent, reg.User.Role)
	assert.Equal(t, "c1", reg.Student.CollegeID)
	assert.Equal(t, "sem-1", reg.Student.SemesterID)
	require.Len(t, f.users.created, 1)
	assert.Nil(t, f.users.created[0].PasswordHash)
	assert.Equal(t, []string{models.AuditActionStudentRegister}, f.audit.actions())
}

func TestRegisterStudentReusesExistingUser(t *testing.T) {
	f := newCollegeFixture()

	reg, err := f.svc.RegisterStudent(context.Background(), staff, "ufx", registration("old@mail.test", "2024001"))
	require.NoError(t, err)
	assert.False(t, reg.UserCreated)
	assert.Equal(t, "u-old", reg.Student.UserID)
	assert.Empty(t, f.users.created)
}

func TestRegisterStudentConflictsAndScope(t *testing.T) {
	f := newCollegeFixture()
	_, err := f.svc.RegisterStudent(context.Background(), staff, "ufx", registration("old@mail.test", "2024001"))
	require.NoError(t, err)

	_, err = f.svc.RegisterStudent(context.Background(), staff, "ufx", registration("other@mail.test", "2024001"))
	assertAppError(t, err, http.StatusConflict)

	_, err = f.svc.RegisterStudent(context.Background(), staff, "ufx", registration("old@mail.test", "2024002"))
	assertAppError(t, err, http.StatusConflict)

	req := registration("x@mail.test", "2024009")
	req.CourseID = "course-2"
	req.SemesterID = "sem-2"
	_, err = f.svc.RegisterStudent(context.Background(), staff, "ufx", req)
	assertAppError(t, err, http.StatusNotFound)

	req = registration("x@mail.test", "2024009")
	req.SemesterID = "sem-2"
	_, err = f.svc.RegisterStudent(context.Background(), staff, "ufx", req)
	assertAppError(t, err, http.StatusNotFound)

	_, err = f.svc.RegisterStudent(context.Background(), staff, "missing", registration("x@mail.test", "2024009"))
	assertAppError(t, err, http.StatusNotFound)
}
