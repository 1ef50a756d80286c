package service

import (
	"context"
	"database/sql"
	"errors"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/noah-isme/sagha-api/internal/models"
	"github.com/noah-isme/sagha-api/internal/quota"
	"github.com/noah-isme/sagha-api/internal/repository"
	appErrors "github.com/noah-isme/sagha-api/pkg/errors"
	"github.com/noah-isme/sagha-api/pkg/storage"
)

type activityRepository interface {
	CreateWithCertificate(ctx context.Context, file *models.File, activity *models.Activity) error
	FindByID(ctx context.Context, collegeID, id string) (*models.ActivityDetail, error)
	List(ctx context.Context, filter models.ActivityFilter) ([]models.ActivityDetail, int, error)
	SumApprovedHours(ctx context.Context, scope repository.ApprovedHoursScope) (int, error)
	Review(ctx context.Context, review models.ActivityReview) error
}

type activityStudentReader interface {
	FindInCollege(ctx context.Context, collegeID, studentID string) (*models.Student, error)
}

type activityCategoryReader interface {
	FindByID(ctx context.Context, id string) (*models.ActivityCategory, error)
}

// ActivityConfig limits certificate uploads.
type ActivityConfig struct {
	MaxCertificateBytes int64
	AllowedMIMEs        []string
}

// ActivityService handles activity submissions and staff reviews.
type ActivityService struct {
	activities activityRepository
	students   activityStudentReader
	categories activityCategoryReader
	colleges   collegeLookup
	store      storage.ObjectStore
	audit      auditRecorder
	metrics    *MetricsService
	validator  *validator.Validate
	logger     *zap.Logger
	cfg        ActivityConfig
	now        func() time.Time
}

// ActivityServiceDeps groups the collaborators of ActivityService.
type ActivityServiceDeps struct {
	Activities activityRepository
	Students   activityStudentReader
	Categories activityCategoryReader
	Colleges   collegeLookup
	Store      storage.ObjectStore
	Audit      auditRecorder
	Metrics    *MetricsService
	Validator  *validator.Validate
	Logger     *zap.Logger
	Config     ActivityConfig
}

// NewActivityService constructs an ActivityService.
func NewActivityService(deps ActivityServiceDeps) *ActivityService {
	if deps.Logger == nil {
		deps.Logger = zap.NewNop()
	}
	if deps.Validator == nil {
		deps.Validator = validator.New()
	}
	if deps.Audit == nil {
		deps.Audit = noopAuditRecorder{}
	}
	if deps.Config.MaxCertificateBytes <= 0 {
		deps.Config.MaxCertificateBytes = 10 * 1024 * 1024
	}
	return &ActivityService{
		activities: deps.Activities,
		students:   deps.Students,
		categories: deps.Categories,
		colleges:   deps.Colleges,
		store:      deps.Store,
		audit:      deps.Audit,
		metrics:    deps.Metrics,
		validator:  deps.Validator,
		logger:     deps.Logger,
		cfg:        deps.Config,
		now:        time.Now,
	}
}

// Create validates a submission, checks the category quota, uploads the
// certificate and stores the activity in analysis. The uploaded object is
// removed when the records cannot be stored.
//
// A request over the category cap fails with VALIDATION_ERROR (400). Review
// reports quota failures as QUOTA_EXCEEDED (422) instead.
func (s *ActivityService) Create(ctx context.Context, actor models.Actor, domain string, req models.CreateActivityRequest, cert *models.CertificateUpload) (*models.Activity, error) {
	req.Description = strings.TrimSpace(req.Description)
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid activity payload")
	}
	if !req.EndDate.After(req.StartDate) {
		return nil, appErrors.Clone(appErrors.ErrValidation, "end date must be after start date")
	}
	if err := s.validateCertificate(cert); err != nil {
		return nil, err
	}
	if !actor.CanActFor(domain, req.StudentID) {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "cannot submit activities for another student")
	}

	college, _, err := s.colleges.GetByDomain(ctx, domain)
	if err != nil {
		return nil, err
	}
	student, err := s.students.FindInCollege(ctx, college.ID, req.StudentID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "student not found in college")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load student")
	}
	category, err := s.loadCategory(ctx, req.CategoryID)
	if err != nil {
		return nil, err
	}

	approved, err := s.activities.SumApprovedHours(ctx, repository.ApprovedHoursScope{StudentID: student.ID, CategoryID: category.ID})
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to sum approved hours")
	}
	if verdict := quota.ValidateCategoryQuota(category.Name, approved, req.HoursRequested, category.MaxHourTotal); !verdict.Success {
		s.metrics.QuotaRejected("category")
		return nil, appErrors.Clone(appErrors.ErrValidation, verdict.Message)
	}

	fileID := uuid.NewString()
	key := fileID + strings.ToLower(filepath.Ext(cert.Filename))
	fileURL, err := s.store.Put(ctx, storage.Object{
		Bucket:      models.CertificateBucket,
		Key:         key,
		ContentType: cert.ContentType,
		Size:        cert.Size,
		Body:        cert.Body,
	})
	if err != nil {
		s.logger.Error("certificate upload failed", zap.String("student_id", student.ID), zap.Error(err))
		return nil, appErrors.Wrap(err, appErrors.ErrUploadFailed.Code, appErrors.ErrUploadFailed.Status, appErrors.ErrUploadFailed.Message)
	}

	file := &models.File{
		ID:          fileID,
		URL:         fileURL,
		Bucket:      models.CertificateBucket,
		Name:        filepath.Base(cert.Filename),
		SizeInBytes: cert.Size,
		MimeType:    cert.ContentType,
	}
	activity := &models.Activity{
		Description:    req.Description,
		HoursRequested: req.HoursRequested,
		StartDate:      req.StartDate,
		EndDate:        req.EndDate,
		Status:         models.ActivityStatusInAnalysis,
		CategoryID:     category.ID,
		StudentID:      student.ID,
		SemesterID:     student.SemesterID,
	}
	if err := s.activities.CreateWithCertificate(ctx, file, activity); err != nil {
		if delErr := s.store.Delete(context.WithoutCancel(ctx), models.CertificateBucket, key); delErr != nil {
			s.logger.Error("failed to remove orphaned certificate", zap.String("key", key), zap.Error(delErr))
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create activity")
	}

	s.metrics.ActivityCreated(cert.Size)
	s.audit.Record(ctx, actor, models.AuditActionActivityCreate, "activity", activity.ID, activity)
	return activity, nil
}

// List returns activities of the college. Students only see their own.
func (s *ActivityService) List(ctx context.Context, actor models.Actor, domain string, filter models.ActivityFilter) ([]models.ActivityDetail, *models.Pagination, error) {
	if filter.Status != "" && !filter.Status.Valid() {
		return nil, nil, appErrors.Clone(appErrors.ErrValidation, "invalid status filter")
	}
	if !actor.IsStaff() {
		if actor.Domain != domain || actor.StudentID == "" {
			return nil, nil, appErrors.Clone(appErrors.ErrForbidden, "token is not scoped to this college")
		}
		filter.StudentID = actor.StudentID
	}
	college, _, err := s.colleges.GetByDomain(ctx, domain)
	if err != nil {
		return nil, nil, err
	}
	filter.CollegeID = college.ID
	if filter.Page < 1 {
		filter.Page = 1
	}
	if filter.PageSize <= 0 || filter.PageSize > 100 {
		filter.PageSize = 20
	}

	activities, total, err := s.activities.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list activities")
	}
	return activities, &models.Pagination{Page: filter.Page, PageSize: filter.PageSize, TotalCount: total}, nil
}

// Get returns an activity of the college with its certificate.
func (s *ActivityService) Get(ctx context.Context, actor models.Actor, domain, id string) (*models.ActivityDetail, error) {
	college, _, err := s.colleges.GetByDomain(ctx, domain)
	if err != nil {
		return nil, err
	}
	activity, err := s.load(ctx, college.ID, id)
	if err != nil {
		return nil, err
	}
	if !actor.CanActFor(domain, activity.StudentID) {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "cannot read activities of another student")
	}
	return activity, nil
}

// Review records a staff decision on an activity in analysis. Approvals are
// checked against the category caps and, for categories bound to a policy,
// against the course-wide Extension or Teaching caps.
func (s *ActivityService) Review(ctx context.Context, actor models.Actor, domain, id string, req models.ReviewActivityRequest) (*models.ActivityDetail, error) {
	if !actor.IsStaff() {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "only staff can review activities")
	}
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid review payload")
	}

	college, _, err := s.colleges.GetByDomain(ctx, domain)
	if err != nil {
		return nil, err
	}
	activity, err := s.load(ctx, college.ID, id)
	if err != nil {
		return nil, err
	}
	if activity.Status != models.ActivityStatusInAnalysis {
		return nil, appErrors.Clone(appErrors.ErrConflict, "activity was already reviewed")
	}

	granted, err := grantedHours(activity.HoursRequested, req)
	if err != nil {
		return nil, err
	}
	if req.Status.Approved() {
		if err := s.checkReviewQuota(ctx, activity, granted); err != nil {
			return nil, err
		}
	}

	review := models.ActivityReview{
		ID:            activity.ID,
		Status:        req.Status,
		HoursApproved: granted,
		EmployeeID:    actor.UserID,
		Note:          req.Note,
		ReviewedAt:    s.now().UTC(),
	}
	if err := s.activities.Review(ctx, review); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrConflict, "activity was already reviewed")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to review activity")
	}

	activity.Status = review.Status
	activity.HoursApproved = &review.HoursApproved
	activity.EmployeeID = &review.EmployeeID
	activity.ReviewNote = review.Note
	activity.ReviewedAt = &review.ReviewedAt
	activity.UpdatedAt = review.ReviewedAt

	s.metrics.ActivityReviewed(string(review.Status))
	s.audit.Record(ctx, actor, models.AuditActionActivityReview, "activity", activity.ID, map[string]interface{}{
		"status":         review.Status,
		"hours_approved": review.HoursApproved,
	})
	return activity, nil
}

func grantedHours(requested int, req models.ReviewActivityRequest) (int, error) {
	switch req.Status {
	case models.ActivityStatusTotallyApproved:
		return requested, nil
	case models.ActivityStatusPartiallyApproved:
		if req.HoursApproved == nil || *req.HoursApproved <= 0 || *req.HoursApproved >= requested {
			return 0, appErrors.Clone(appErrors.ErrValidation, "partial approval requires hours_approved between 1 and the requested hours minus one")
		}
		return *req.HoursApproved, nil
	default:
		return 0, nil
	}
}

func (s *ActivityService) checkReviewQuota(ctx context.Context, activity *models.ActivityDetail, granted int) error {
	category, err := s.loadCategory(ctx, activity.CategoryID)
	if err != nil {
		return err
	}

	inCategory, err := s.sum(ctx, repository.ApprovedHoursScope{StudentID: activity.StudentID, CategoryID: category.ID})
	if err != nil {
		return err
	}
	if verdict := quota.ValidateCategoryQuota(category.Name, inCategory, granted, category.MaxHourTotal); !verdict.Success {
		return s.quotaExceeded("category", verdict)
	}

	if category.MaxHourPerSemester > 0 {
		inCategorySemester, err := s.sum(ctx, repository.ApprovedHoursScope{StudentID: activity.StudentID, CategoryID: category.ID, SemesterID: activity.SemesterID})
		if err != nil {
			return err
		}
		perSemester := quota.Policy{Name: category.Name, TotalCap: category.MaxHourTotal, SemesterCap: category.MaxHourPerSemester}
		if verdict := perSemester.Validate(inCategory, inCategorySemester, granted); !verdict.Success {
			return s.quotaExceeded("category_semester", verdict)
		}
	}

	var validate func(total, semester, requested int) quota.Verdict
	switch category.Policy {
	case models.CategoryPolicyExtension:
		validate = quota.ValidateHoursDistributionForExtension
	case models.CategoryPolicyTeaching:
		validate = quota.ValidateHoursDistributionForTeaching
	default:
		return nil
	}

	total, err := s.sum(ctx, repository.ApprovedHoursScope{StudentID: activity.StudentID})
	if err != nil {
		return err
	}
	semester, err := s.sum(ctx, repository.ApprovedHoursScope{StudentID: activity.StudentID, SemesterID: activity.SemesterID})
	if err != nil {
		return err
	}
	if verdict := validate(total, semester, granted); !verdict.Success {
		return s.quotaExceeded(strings.ToLower(string(category.Policy)), verdict)
	}
	return nil
}

func (s *ActivityService) quotaExceeded(check string, verdict quota.Verdict) error {
	s.metrics.QuotaRejected(check)
	return appErrors.Clone(appErrors.ErrQuotaExceeded, verdict.Message)
}

func (s *ActivityService) sum(ctx context.Context, scope repository.ApprovedHoursScope) (int, error) {
	hours, err := s.activities.SumApprovedHours(ctx, scope)
	if err != nil {
		return 0, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to sum approved hours")
	}
	return hours, nil
}

func (s *ActivityService) load(ctx context.Context, collegeID, id string) (*models.ActivityDetail, error) {
	activity, err := s.activities.FindByID(ctx, collegeID, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "activity not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load activity")
	}
	return activity, nil
}

func (s *ActivityService) loadCategory(ctx context.Context, id string) (*models.ActivityCategory, error) {
	category, err := s.categories.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "category not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load category")
	}
	return category, nil
}

func (s *ActivityService) validateCertificate(cert *models.CertificateUpload) error {
	if cert == nil || cert.Body == nil {
		return appErrors.Clone(appErrors.ErrValidation, "certificate file is required")
	}
	if cert.Size <= 0 {
		return appErrors.Clone(appErrors.ErrValidation, "certificate file is empty")
	}
	if cert.Size > s.cfg.MaxCertificateBytes {
		return appErrors.Clone(appErrors.ErrValidation, "certificate file is too large")
	}
	if len(s.cfg.AllowedMIMEs) == 0 {
		return nil
	}
	contentType := strings.ToLower(strings.TrimSpace(strings.Split(cert.ContentType, ";")[0]))
	for _, allowed := range s.cfg.AllowedMIMEs {
		if strings.EqualFold(allowed, contentType) {
			return nil
		}
	}
	return appErrors.Clone(appErrors.ErrValidation, "certificate file type is not allowed")
}
