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

type semesterRepository interface {
	FindByID(ctx context.Context, id string) (*models.SemesterDetail, error)
	ExistsByName(ctx context.Context, courseID, name, excludeID string) (bool, error)
	Create(ctx context.Context, semester *models.Semester) error
	Update(ctx context.Context, semester *models.Semester) error
}

type semesterCourseReader interface {
	FindByID(ctx context.Context, id string) (*models.Course, error)
}

// SemesterService manages the semesters of a college's courses.
type SemesterService struct {
	repo      semesterRepository
	courses   semesterCourseReader
	colleges  collegeLookup
	audit     auditRecorder
	validator *validator.Validate
	logger    *zap.Logger
}

// NewSemesterService constructs a SemesterService.
func NewSemesterService(repo semesterRepository, courses semesterCourseReader, colleges collegeLookup, audit auditRecorder, validate *validator.Validate, logger *zap.Logger) *SemesterService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if validate == nil {
		validate = validator.New()
	}
	if audit == nil {
		audit = noopAuditRecorder{}
	}
	return &SemesterService{repo: repo, courses: courses, colleges: colleges, audit: audit, validator: validate, logger: logger}
}

// Create adds a semester to a course of the college.
func (s *SemesterService) Create(ctx context.Context, actor models.Actor, domain string, req models.CreateSemesterRequest) (*models.Semester, error) {
	req.Name = strings.TrimSpace(req.Name)
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid semester payload")
	}
	college, _, err := s.colleges.GetByDomain(ctx, domain)
	if err != nil {
		return nil, err
	}
	course, err := s.courses.FindByID(ctx, req.CourseID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "course not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load course")
	}
	if course.CollegeID != college.ID {
		return nil, appErrors.Clone(appErrors.ErrConflict, "course belongs to another college")
	}
	if err := s.ensureNameFree(ctx, course.ID, req.Name, ""); err != nil {
		return nil, err
	}

	semester := &models.Semester{Name: req.Name, DurationInMonths: req.DurationInMonths, CourseID: course.ID}
	if err := s.repo.Create(ctx, semester); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create semester")
	}
	s.audit.Record(ctx, actor, models.AuditActionSemesterCreate, "semester", semester.ID, semester)
	return semester, nil
}

// Get returns a semester that belongs to the college.
func (s *SemesterService) Get(ctx context.Context, domain, id string) (*models.Semester, error) {
	detail, err := s.load(ctx, domain, id)
	if err != nil {
		return nil, err
	}
	return &detail.Semester, nil
}

// Update renames or resizes a semester of the college.
func (s *SemesterService) Update(ctx context.Context, actor models.Actor, domain, id string, req models.UpdateSemesterRequest) (*models.Semester, error) {
	req.Name = strings.TrimSpace(req.Name)
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid semester payload")
	}
	detail, err := s.load(ctx, domain, id)
	if err != nil {
		return nil, err
	}
	if err := s.ensureNameFree(ctx, detail.CourseID, req.Name, detail.ID); err != nil {
		return nil, err
	}

	semester := detail.Semester
	semester.Name = req.Name
	semester.DurationInMonths = req.DurationInMonths
	if err := s.repo.Update(ctx, &semester); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update semester")
	}
	s.audit.Record(ctx, actor, models.AuditActionSemesterUpdate, "semester", semester.ID, req)
	return &semester, nil
}

func (s *SemesterService) load(ctx context.Context, domain, id string) (*models.SemesterDetail, error) {
	college, _, err := s.colleges.GetByDomain(ctx, domain)
	if err != nil {
		return nil, err
	}
	detail, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "semester not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load semester")
	}
	if detail.CollegeID != college.ID {
		return nil, appErrors.Clone(appErrors.ErrConflict, "semester belongs to another college")
	}
	return detail, nil
}

func (s *SemesterService) ensureNameFree(ctx context.Context, courseID, name, excludeID string) error {
	exists, err := s.repo.ExistsByName(ctx, courseID, name, excludeID)
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check semester name")
	}
	if exists {
		return appErrors.Clone(appErrors.ErrConflict, "semester with this name already exists in the course")
	}
	return nil
}
