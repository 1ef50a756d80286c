package models

import "time"

// Course is a degree programme offered by a college.
type Course struct {
	ID               string    `db:"id" json:"id"`
	Name             string    `db:"name" json:"name"`
	Description      *string   `db:"description" json:"description"`
	DurationInMonths int       `db:"duration_in_months" json:"duration_in_months"`
	CollegeID        string    `db:"college_id" json:"college_id"`
	CreatedAt        time.Time `db:"created_at" json:"created_at"`
	UpdatedAt        time.Time `db:"updated_at" json:"updated_at"`
}

// CourseRequest is the payload for creating or updating a course.
type CourseRequest struct {
	Name             string  `json:"name" validate:"required,max=255"`
	Description      *string `json:"description" validate:"omitempty,max=1024"`
	DurationInMonths int     `json:"duration_in_months" validate:"required,gt=0"`
}
