package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/sagha-api/internal/models"
)

const studentColumns = "id, enrollment, user_id, college_id, course_id, semester_id, created_at, updated_at"

// StudentRepository handles persistence for students.
type StudentRepository struct {
	db *sqlx.DB
}

// NewStudentRepository constructs a new student repository.
func NewStudentRepository(db *sqlx.DB) *StudentRepository {
	return &StudentRepository{db: db}
}

// FindInCollege loads a student only when it belongs to the given college.
func (r *StudentRepository) FindInCollege(ctx context.Context, collegeID, studentID string) (*models.Student, error) {
	query := fmt.Sprintf("SELECT %s FROM students WHERE id = $1 AND college_id = $2", studentColumns)
	var student models.Student
	if err := r.db.GetContext(ctx, &student, query, studentID, collegeID); err != nil {
		return nil, err
	}
	return &student, nil
}

// FindByUserInCollege loads the student record of a user within a college.
func (r *StudentRepository) FindByUserInCollege(ctx context.Context, collegeID, userID string) (*models.Student, error) {
	query := fmt.Sprintf("SELECT %s FROM students WHERE user_id = $1 AND college_id = $2 LIMIT 1", studentColumns)
	var student models.Student
	if err := r.db.GetContext(ctx, &student, query, userID, collegeID); err != nil {
		return nil, err
	}
	return &student, nil
}

// ExistsInCollege reports whether the college already has a student with the
// enrollment number or linked to the user.
func (r *StudentRepository) ExistsInCollege(ctx context.Context, collegeID, enrollment, userID string) (bool, error) {
	const query = `SELECT 1 FROM students WHERE college_id = $1 AND (enrollment = $2 OR user_id = $3) LIMIT 1`
	var exists int
	if err := r.db.GetContext(ctx, &exists, query, collegeID, enrollment, userID); err != nil {
		if err == sql.ErrNoRows {
			return false, nil
		}
		return false, fmt.Errorf("check student uniqueness: %w", err)
	}
	return true, nil
}

// Create inserts a new student record.
func (r *StudentRepository) Create(ctx context.Context, student *models.Student) error {
	if student.ID == "" {
		student.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if student.CreatedAt.IsZero() {
		student.CreatedAt = now
	}
	student.UpdatedAt = now

	const query = `INSERT INTO students (id, enrollment, user_id, college_id, course_id, semester_id, created_at, updated_at) VALUES (:id, :enrollment, :user_id, :college_id, :course_id, :semester_id, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, student); err != nil {
		return fmt.Errorf("create student: %w", err)
	}
	return nil
}
