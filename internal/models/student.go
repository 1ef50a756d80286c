package models

import (
	"time"

	"github.com/noah-isme/sagha-api/internal/quota"
)

// Student links a user to a college with an enrollment number and the
// semester the student is currently attending.
type Student struct {
	ID         string    `db:"id" json:"id"`
	Enrollment string    `db:"enrollment" json:"enrollment"`
	UserID     string    `db:"user_id" json:"user_id"`
	CollegeID  string    `db:"college_id" json:"college_id"`
	CourseID   string    `db:"course_id" json:"course_id"`
	SemesterID string    `db:"semester_id" json:"semester_id"`
	CreatedAt  time.Time `db:"created_at" json:"created_at"`
	UpdatedAt  time.Time `db:"updated_at" json:"updated_at"`
}

// StudentHourSummary aggregates approved hours for a student.
type StudentHourSummary struct {
	StudentID     string                `json:"student_id"`
	Enrollment    string                `json:"enrollment"`
	SemesterID    string                `json:"semester_id"`
	TotalHours    int                   `json:"total_hours"`
	SemesterHours int                   `json:"semester_hours"`
	Categories    []CategoryHourSummary `json:"categories"`
	Extension     quota.Verdict         `json:"extension"`
	Teaching      quota.Verdict         `json:"teaching"`
	GeneratedAt   time.Time             `json:"generated_at"`
}

// CategoryHourSummary reports approved hours against a category cap.
type CategoryHourSummary struct {
	CategoryID         string         `db:"category_id" json:"category_id"`
	CategoryName       string         `db:"category_name" json:"category_name"`
	Policy             CategoryPolicy `db:"policy" json:"policy"`
	ApprovedHours      int            `db:"approved_hours" json:"approved_hours"`
	MaxHourTotal       int            `db:"max_hour_total" json:"max_hour_total"`
	MaxHourPerSemester int            `db:"max_hour_per_semester" json:"max_hour_per_semester"`
	RemainingHours     int            `db:"-" json:"remaining_hours"`
}

// RegisterStudentRequest enrolls a student, creating the user when the email is new.
type RegisterStudentRequest struct {
	Name       string `json:"name" validate:"required,max=255"`
	Email      string `json:"email" validate:"required,email"`
	Enrollment string `json:"enrollment" validate:"required,max=60"`
	CourseID   string `json:"course_id" validate:"required"`
	SemesterID string `json:"semester_id" validate:"required"`
}

// StudentRegistration is the outcome of a student registration.
type StudentRegistration struct {
	Student     Student  `json:"student"`
	User        UserInfo `json:"user"`
	UserCreated bool     `json:"user_created"`
}
