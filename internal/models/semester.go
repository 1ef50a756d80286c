package models

import "time"

// Semester belongs to a course; names are unique within the course.
type Semester struct {
	ID               string    `db:"id" json:"id"`
	Name             string    `db:"name" json:"name"`
	DurationInMonths int       `db:"duration_in_months" json:"duration_in_months"`
	CourseID         string    `db:"course_id" json:"course_id"`
	CreatedAt        time.Time `db:"created_at" json:"created_at"`
	UpdatedAt        time.Time `db:"updated_at" json:"updated_at"`
}

// SemesterDetail carries the owning college of a semester.
type SemesterDetail struct {
	Semester
	CollegeID string `db:"college_id" json:"-"`
}

// CreateSemesterRequest is the payload for creating a semester.
type CreateSemesterRequest struct {
	Name             string `json:"name" validate:"required,max=255"`
	DurationInMonths int    `json:"duration_in_months" validate:"required,gt=0"`
	CourseID         string `json:"course_id" validate:"required"`
}

// UpdateSemesterRequest is the payload for updating a semester.
type UpdateSemesterRequest struct {
	Name             string `json:"name" validate:"required,max=255"`
	DurationInMonths int    `json:"duration_in_months" validate:"required,gt=0"`
}
