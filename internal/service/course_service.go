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

type courseRepository interface {
	FindByID(ctx context.Context, id string) (*models.Course, error)
	ExistsByName(ctx context.Context, collegeID, name, excludeID string) (bool, error)
	Create(ctx context.Context, course *models.Course) error
	Update(ctx context.Context, course *models.Course) error
}

// CourseService manages the courses of a college.
type CourseService struct {
	repo      courseRepository
	colleges  collegeLookup
	audit     auditRecorder
	validator *validator.Validate
	logger    *zap.Logger
}

// NewCourseService constructs a CourseService.
func NewCourseService(repo courseRepository, colleges collegeLookup, audit auditRecorder, validate *validator.Validate, logger *zap.Logger) *CourseService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if validate == nil {
		validate = validator.New()
	}
	if audit == nil {
		audit = noopAuditRecorder{}
	}
	return &CourseService{repo: repo, colleges: colleges, audit: audit, validator: validate, logger: logger}
}

// Create adds a course to the college identified by domain.
func (s *CourseService) Create(ctx context.Context, actor models.Actor, domain string, req models.CourseRequest) (*models.Course, error) {
	req.Name = strings.TrimSpace(req.Name)
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid course payload")
	}
	college, _, err := s.colleges.GetByDomain(ctx, domain)
	if err != nil {
		return nil, err
	}
	if err := s.ensureNameFree(ctx, college.ID, req.Name, ""); err != nil {
		return nil, err
	}

	course := &models.Course{
		Name:             req.Name,
		Description:      req.Description,
		DurationInMonths: req.DurationInMonths,
		CollegeID:        college.ID,
	}
	if err := s.repo.Create(ctx, course); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create course")
	}
	s.audit.Record(ctx, actor, models.AuditActionCourseCreate, "course", course.ID, course)
	return course, nil
}

// Get returns a course by ID.
func (s *CourseService) Get(ctx context.Context, id string) (*models.Course, error) {
	course, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "course not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load course")
	}
	return course, nil
}

// Update modifies a course of the college identified by domain.
func (s *CourseService) Update(ctx context.Context, actor models.Actor, domain, id string, req models.CourseRequest) (*models.Course, error) {
	req.Name = strings.TrimSpace(req.Name)
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid course payload")
	}
	college, _, err := s.colleges.GetByDomain(ctx, domain)
	if err != nil {
		return nil, err
	}
	course, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if course.CollegeID != college.ID {
		return nil, appErrors.Clone(appErrors.ErrConflict, "course belongs to another college")
	}
	if err := s.ensureNameFree(ctx, college.ID, req.Name, course.ID); err != nil {
		return nil, err
	}

	course.Name = req.Name
	course.Description = req.Description
	course.DurationInMonths = req.DurationInMonths
	if err := s.repo.Update(ctx, course); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update course")
	}
	s.audit.Record(ctx, actor, models.AuditActionCourseUpdate, "course", course.ID, req)
	return course, nil
}

func (s *CourseService) ensureNameFree(ctx context.Context, collegeID, name, excludeID string) error {
	exists, err := s.repo.ExistsByName(ctx, collegeID, name, excludeID)
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check course name")
	}
	if exists {
		return appErrors.Clone(appErrors.ErrConflict, "course with this name already exists in the college")
	}
	return nil
}
