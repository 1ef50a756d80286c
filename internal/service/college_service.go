package service

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/sagha-api/internal/models"
	appErrors "github.com/noah-isme/sagha-api/pkg/errors"
)

type collegeRepository interface {
	FindByID(ctx context.Context, id string) (*models.College, error)
	FindByDomain(ctx context.Context, domain string) (*models.College, error)
	ExistsByField(ctx context.Context, field, value, excludeID string) (bool, error)
	Create(ctx context.Context, college *models.College) error
	Update(ctx context.Context, college *models.College) error
}

type collegeUserRepository interface {
	FindByEmail(ctx context.Context, email string) (*models.User, error)
	Create(ctx context.Context, user *models.User) error
}

type collegeCourseReader interface {
	FindByID(ctx context.Context, id string) (*models.Course, error)
}

type collegeSemesterReader interface {
	FindByID(ctx context.Context, id string) (*models.SemesterDetail, error)
}

type collegeStudentRepository interface {
	ExistsInCollege(ctx context.Context, collegeID, enrollment, userID string) (bool, error)
	Create(ctx context.Context, student *models.Student) error
}

// CollegeService manages colleges and student registration.
type CollegeService struct {
	colleges  collegeRepository
	users     collegeUserRepository
	courses   collegeCourseReader
	semesters collegeSemesterReader
	students  collegeStudentRepository
	cache     *CacheService
	audit     auditRecorder
	validator *validator.Validate
	logger    *zap.Logger
}

// CollegeServiceDeps groups the collaborators of CollegeService.
type CollegeServiceDeps struct {
	Colleges  collegeRepository
	Users     collegeUserRepository
	Courses   collegeCourseReader
	Semesters collegeSemesterReader
	Students  collegeStudentRepository
	Cache     *CacheService
	Audit     auditRecorder
	Validator *validator.Validate
	Logger    *zap.Logger
}

// NewCollegeService constructs a CollegeService.
func NewCollegeService(deps CollegeServiceDeps) *CollegeService {
	if deps.Logger == nil {
		deps.Logger = zap.NewNop()
	}
	if deps.Validator == nil {
		deps.Validator = validator.New()
	}
	if deps.Audit == nil {
		deps.Audit = noopAuditRecorder{}
	}
	return &CollegeService{
		colleges:  deps.Colleges,
		users:     deps.Users,
		courses:   deps.Courses,
		semesters: deps.Semesters,
		students:  deps.Students,
		cache:     deps.Cache,
		audit:     deps.Audit,
		validator: deps.Validator,
		logger:    deps.Logger,
	}
}

// uniqueCollegeChecks is the order conflicts are reported in.
var uniqueCollegeChecks = []struct {
	field string
	label string
}{
	{"domain", "domain"},
	{"email", "email"},
	{"zip_code", "zip code"},
	{"phone", "phone"},
}

// Create registers a college. Domain, email, zip code and phone must be unique.
func (s *CollegeService) Create(ctx context.Context, actor models.Actor, req models.CreateCollegeRequest) (*models.College, error) {
	req.Domain = strings.ToLower(strings.TrimSpace(req.Domain))
	req.Email = strings.ToLower(strings.TrimSpace(req.Email))
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid college payload")
	}

	values := map[string]string{"domain": req.Domain, "email": req.Email, "zip_code": req.ZipCode, "phone": req.Phone}
	if err := s.ensureUnique(ctx, values, ""); err != nil {
		return nil, err
	}

	college := &models.College{
		Name:    req.Name,
		Address: req.Address,
		City:    req.City,
		State:   req.State,
		ZipCode: req.ZipCode,
		Country: req.Country,
		Phone:   req.Phone,
		Email:   req.Email,
		Domain:  req.Domain,
	}
	if err := s.colleges.Create(ctx, college); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create college")
	}

	s.audit.Record(ctx, actor, models.AuditActionCollegeCreate, "college", college.ID, college)
	return college, nil
}

// GetByDomain returns the college for a domain, served from cache when enabled.
func (s *CollegeService) GetByDomain(ctx context.Context, domain string) (*models.College, bool, error) {
	domain = strings.ToLower(strings.TrimSpace(domain))
	var cached models.College
	if s.cache.Get(ctx, collegeCacheKey(domain), &cached) {
		return &cached, true, nil
	}

	college, err := s.colleges.FindByDomain(ctx, domain)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, false, appErrors.Clone(appErrors.ErrNotFound, "college not found")
		}
		return nil, false, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load college")
	}
	s.cache.Set(ctx, collegeCacheKey(domain), college, 0)
	return college, false, nil
}

// Update modifies a college. The domain never changes.
func (s *CollegeService) Update(ctx context.Context, actor models.Actor, id string, req models.UpdateCollegeRequest) (*models.College, error) {
	req.Email = strings.ToLower(strings.TrimSpace(req.Email))
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid college payload")
	}

	college, err := s.colleges.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "college not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load college")
	}

	values := map[string]string{"email": req.Email, "zip_code": req.ZipCode, "phone": req.Phone}
	if err := s.ensureUnique(ctx, values, college.ID); err != nil {
		return nil, err
	}

	college.Name = req.Name
	college.Address = req.Address
	college.City = req.City
	college.State = req.State
	college.ZipCode = req.ZipCode
	college.Country = req.Country
	college.Phone = req.Phone
	college.Email = req.Email
	if err := s.colleges.Update(ctx, college); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update college")
	}

	s.cache.Invalidate(ctx, collegeCacheKey(college.Domain))
	s.audit.Record(ctx, actor, models.AuditActionCollegeUpdate, "college", college.ID, req)
	return college, nil
}

// RegisterStudent enrolls a student in the college, creating the user
// account when no user has the email yet.
func (s *CollegeService) RegisterStudent(ctx context.Context, actor models.Actor, domain string, req models.RegisterStudentRequest) (*models.StudentRegistration, error) {
	req.Email = strings.ToLower(strings.TrimSpace(req.Email))
	req.Enrollment = strings.TrimSpace(req.Enrollment)
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid student payload")
	}

	college, _, err := s.GetByDomain(ctx, domain)
	if err != nil {
		return nil, err
	}

	course, err := s.courses.FindByID(ctx, req.CourseID)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load course")
	}
	if course == nil || course.CollegeID != college.ID {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "course not found in college")
	}

	semester, err := s.semesters.FindByID(ctx, req.SemesterID)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load semester")
	}
	if semester == nil || semester.CourseID != course.ID {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "semester not found in course")
	}

	user, err := s.users.FindByEmail(ctx, req.Email)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load user")
	}

	var existingUserID string
	if user != nil {
		existingUserID = user.ID
	}
	exists, err := s.students.ExistsInCollege(ctx, college.ID, req.Enrollment, existingUserID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check student")
	}
	if exists {
		return nil, appErrors.Clone(appErrors.ErrConflict, "student already registered in this college")
	}

	created := false
	if user == nil {
		user = &models.User{Name: req.Name, Email: req.Email, Role: models.RoleStudent}
		if err := s.users.Create(ctx, user); err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create user")
		}
		created = true
	}

	student := &models.Student{
		Enrollment: req.Enrollment,
		UserID:     user.ID,
		CollegeID:  college.ID,
		CourseID:   course.ID,
		SemesterID: semester.ID,
	}
	if err := s.students.Create(ctx, student); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create student")
	}

	s.audit.Record(ctx, actor, models.AuditActionStudentRegister, "student", student.ID, student)
	s.logger.Info("student registered", zap.String("college", college.Domain), zap.String("student_id", student.ID), zap.Bool("user_created", created))
	return &models.StudentRegistration{Student: *student, User: userInfo(user), UserCreated: created}, nil
}

func (s *CollegeService) ensureUnique(ctx context.Context, values map[string]string, excludeID string) error {
	for _, check := range uniqueCollegeChecks {
		value, ok := values[check.field]
		if !ok {
			continue
		}
		exists, err := s.colleges.ExistsByField(ctx, check.field, value, excludeID)
		if err != nil {
			return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check college uniqueness")
		}
		if exists {
			return appErrors.Clone(appErrors.ErrConflict, "college with this "+check.label+" already exists")
		}
	}
	return nil
}

// collegeLookup resolves a college by domain; implemented by CollegeService.
type collegeLookup interface {
	GetByDomain(ctx context.Context, domain string) (*models.College, bool, error)
}
