package service

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/sagha-api/internal/models"
	"github.com/noah-isme/sagha-api/internal/quota"
	"github.com/noah-isme/sagha-api/internal/repository"
	appErrors "github.com/noah-isme/sagha-api/pkg/errors"
)

type studentReader interface {
	FindInCollege(ctx context.Context, collegeID, studentID string) (*models.Student, error)
}

type hourLedger interface {
	SumApprovedHours(ctx context.Context, scope repository.ApprovedHoursScope) (int, error)
	CategoryTotals(ctx context.Context, studentID string) ([]models.CategoryHourSummary, error)
}

// StudentService answers questions about a student's accumulated hours.
type StudentService struct {
	students studentReader
	hours    hourLedger
	colleges collegeLookup
	logger   *zap.Logger
}

// NewStudentService constructs a StudentService.
func NewStudentService(students studentReader, hours hourLedger, colleges collegeLookup, logger *zap.Logger) *StudentService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &StudentService{students: students, hours: hours, colleges: colleges, logger: logger}
}

// Find loads a student of the college identified by domain.
func (s *StudentService) Find(ctx context.Context, domain, studentID string) (*models.College, *models.Student, error) {
	college, _, err := s.colleges.GetByDomain(ctx, domain)
	if err != nil {
		return nil, nil, err
	}
	student, err := s.students.FindInCollege(ctx, college.ID, studentID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil, appErrors.Clone(appErrors.ErrNotFound, "student not found in college")
		}
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load student")
	}
	return college, student, nil
}

// HourSummary reports approved hours overall, in the current semester and
// per category, plus the policy verdicts for a request of zero hours.
func (s *StudentService) HourSummary(ctx context.Context, actor models.Actor, domain, studentID string) (*models.StudentHourSummary, error) {
	if !actor.CanActFor(domain, studentID) {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "cannot read hours of another student")
	}
	_, student, err := s.Find(ctx, domain, studentID)
	if err != nil {
		return nil, err
	}

	total, err := s.hours.SumApprovedHours(ctx, repository.ApprovedHoursScope{StudentID: student.ID})
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to sum approved hours")
	}
	semester, err := s.hours.SumApprovedHours(ctx, repository.ApprovedHoursScope{StudentID: student.ID, SemesterID: student.SemesterID})
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to sum semester hours")
	}
	categories, err := s.hours.CategoryTotals(ctx, student.ID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load category totals")
	}
	for i := range categories {
		remaining := categories[i].MaxHourTotal - categories[i].ApprovedHours
		if remaining < 0 {
			remaining = 0
		}
		categories[i].RemainingHours = remaining
	}

	return &models.StudentHourSummary{
		StudentID:     student.ID,
		Enrollment:    student.Enrollment,
		SemesterID:    student.SemesterID,
		TotalHours:    total,
		SemesterHours: semester,
		Categories:    categories,
		Extension:     quota.ValidateHoursDistributionForExtension(total, semester, 0),
		Teaching:      quota.ValidateHoursDistributionForTeaching(total, semester, 0),
		GeneratedAt:   time.Now().UTC(),
	}, nil
}
