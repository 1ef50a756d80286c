package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/sagha-api/internal/models"
)

const activityDetailSelect = `SELECT a.id, a.description, a.hours_requested, a.hours_approved, a.start_date, a.end_date, a.status,
a.category_id, a.student_id, a.semester_id, a.employee_id, a.certificate_id, a.review_note, a.reviewed_at, a.created_at, a.updated_at,
c.name AS category_name, f.url AS certificate_url, f.name AS certificate_name
FROM activities a
JOIN students s ON s.id = a.student_id
JOIN activity_categories c ON c.id = a.category_id
JOIN files f ON f.id = a.certificate_id`

// ApprovedHoursScope narrows an approved hours sum. Empty fields are ignored.
type ApprovedHoursScope struct {
	StudentID  string
	CategoryID string
	SemesterID string
}

// ActivityRepository handles persistence for activity requests and their certificates.
type ActivityRepository struct {
	db *sqlx.DB
}

// NewActivityRepository instantiates an activity repository.
func NewActivityRepository(db *sqlx.DB) *ActivityRepository {
	return &ActivityRepository{db: db}
}

// CreateWithCertificate stores the certificate file record and the activity atomically.
func (r *ActivityRepository) CreateWithCertificate(ctx context.Context, file *models.File, activity *models.Activity) (err error) {
	now := time.Now().UTC()
	if file.ID == "" {
		file.ID = uuid.NewString()
	}
	if file.CreatedAt.IsZero() {
		file.CreatedAt = now
	}
	if activity.ID == "" {
		activity.ID = uuid.NewString()
	}
	if activity.Status == "" {
		activity.Status = models.ActivityStatusInAnalysis
	}
	activity.CertificateID = file.ID
	activity.CreatedAt = now
	activity.UpdatedAt = now

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin activity transaction: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	const fileQuery = `INSERT INTO files (id, url, bucket, name, size_in_bytes, mime_type, created_at) VALUES (:id, :url, :bucket, :name, :size_in_bytes, :mime_type, :created_at)`
	if _, err = tx.NamedExecContext(ctx, fileQuery, file); err != nil {
		return fmt.Errorf("insert certificate file: %w", err)
	}

	const activityQuery = `INSERT INTO activities (id, description, hours_requested, hours_approved, start_date, end_date, status, category_id, student_id, semester_id, employee_id, certificate_id, created_at, updated_at)
VALUES (:id, :description, :hours_requested, :hours_approved, :start_date, :end_date, :status, :category_id, :student_id, :semester_id, :employee_id, :certificate_id, :created_at, :updated_at)`
	if _, err = tx.NamedExecContext(ctx, activityQuery, activity); err != nil {
		return fmt.Errorf("insert activity: %w", err)
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit activity: %w", err)
	}
	return nil
}

// FindByID loads an activity visible within the given college.
func (r *ActivityRepository) FindByID(ctx context.Context, collegeID, id string) (*models.ActivityDetail, error) {
	query := activityDetailSelect + " WHERE a.id = $1 AND s.college_id = $2"
	var activity models.ActivityDetail
	if err := r.db.GetContext(ctx, &activity, query, id, collegeID); err != nil {
		return nil, err
	}
	return &activity, nil
}

// List returns activities of a college matching the filter.
func (r *ActivityRepository) List(ctx context.Context, filter models.ActivityFilter) ([]models.ActivityDetail, int, error) {
	conditions := []string{"s.college_id = $1"}
	args := []interface{}{filter.CollegeID}

	if filter.StudentID != "" {
		conditions = append(conditions, fmt.Sprintf("a.student_id = $%d", len(args)+1))
		args = append(args, filter.StudentID)
	}
	if filter.CategoryID != "" {
		conditions = append(conditions, fmt.Sprintf("a.category_id = $%d", len(args)+1))
		args = append(args, filter.CategoryID)
	}
	if filter.Status != "" {
		conditions = append(conditions, fmt.Sprintf("a.status = $%d", len(args)+1))
		args = append(args, filter.Status)
	}
	where := " WHERE " + strings.Join(conditions, " AND ")

	order := strings.ToUpper(filter.SortOrder)
	if order != "ASC" && order != "DESC" {
		order = "DESC"
	}
	page := filter.Page
	if page < 1 {
		page = 1
	}
	size := filter.PageSize
	if size <= 0 || size > 100 {
		size = 20
	}
	offset := (page - 1) * size

	query := fmt.Sprintf("%s%s ORDER BY a.created_at %s LIMIT %d OFFSET %d", activityDetailSelect, where, order, size, offset)
	activities := make([]models.ActivityDetail, 0)
	if err := r.db.SelectContext(ctx, &activities, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list activities: %w", err)
	}

	countQuery := "SELECT COUNT(*) FROM activities a JOIN students s ON s.id = a.student_id" + where
	var total int
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("count activities: %w", err)
	}
	return activities, total, nil
}

// SumApprovedHours adds up hours granted to totally or partially approved activities.
func (r *ActivityRepository) SumApprovedHours(ctx context.Context, scope ApprovedHoursScope) (int, error) {
	query := "SELECT COALESCE(SUM(hours_approved), 0) FROM activities WHERE student_id = $1 AND status IN ('TOTALLY_APPROVED', 'PARTIALLY_APPROVED')"
	args := []interface{}{scope.StudentID}
	if scope.CategoryID != "" {
		query += fmt.Sprintf(" AND category_id = $%d", len(args)+1)
		args = append(args, scope.CategoryID)
	}
	if scope.SemesterID != "" {
		query += fmt.Sprintf(" AND semester_id = $%d", len(args)+1)
		args = append(args, scope.SemesterID)
	}

	var total int
	if err := r.db.GetContext(ctx, &total, query, args...); err != nil {
		return 0, fmt.Errorf("sum approved hours: %w", err)
	}
	return total, nil
}

// CategoryTotals returns the approved hours of a student for every category.
func (r *ActivityRepository) CategoryTotals(ctx context.Context, studentID string) ([]models.CategoryHourSummary, error) {
	const query = `SELECT c.id AS category_id, c.name AS category_name, c.policy, c.max_hour_total, c.max_hour_per_semester,
COALESCE(SUM(a.hours_approved), 0) AS approved_hours
FROM activity_categories c
LEFT JOIN activities a ON a.category_id = c.id AND a.student_id = $1 AND a.status IN ('TOTALLY_APPROVED', 'PARTIALLY_APPROVED')
GROUP BY c.id, c.name, c.policy, c.max_hour_total, c.max_hour_per_semester
ORDER BY c.name ASC`
	totals := make([]models.CategoryHourSummary, 0)
	if err := r.db.SelectContext(ctx, &totals, query, studentID); err != nil {
		return nil, fmt.Errorf("category totals: %w", err)
	}
	return totals, nil
}

// Review records a staff decision. It only touches activities still in
// analysis and returns sql.ErrNoRows when none was updated.
func (r *ActivityRepository) Review(ctx context.Context, review models.ActivityReview) error {
	const query = `UPDATE activities SET status = $1, hours_approved = $2, employee_id = $3, review_note = $4, reviewed_at = $5, updated_at = $5
WHERE id = $6 AND status = 'IN_ANALYSIS'`
	res, err := r.db.ExecContext(ctx, query, review.Status, review.HoursApproved, review.EmployeeID, review.Note, review.ReviewedAt, review.ID)
	if err != nil {
		return fmt.Errorf("review activity: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("review activity rows: %w", err)
	}
	if affected == 0 {
		return sql.ErrNoRows
	}
	return nil
}
