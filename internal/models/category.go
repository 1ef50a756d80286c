package models

import "time"

// CategoryPolicy ties a category to one of the course-wide hour policies.
type CategoryPolicy string

const (
	CategoryPolicyNone      CategoryPolicy = "NONE"
	CategoryPolicyExtension CategoryPolicy = "EXTENSION"
	CategoryPolicyTeaching  CategoryPolicy = "TEACHING"
)

// ActivityCategory groups activities under shared hour caps.
type ActivityCategory struct {
	ID                 string         `db:"id" json:"id"`
	Name               string         `db:"name" json:"name"`
	Description        string         `db:"description" json:"description"`
	MaxHourTotal       int            `db:"max_hour_total" json:"max_hour_total"`
	MaxHourPerSemester int            `db:"max_hour_per_semester" json:"max_hour_per_semester"`
	Policy             CategoryPolicy `db:"policy" json:"policy"`
	CreatedAt          time.Time      `db:"created_at" json:"created_at"`
	UpdatedAt          time.Time      `db:"updated_at" json:"updated_at"`
}

// Valid reports whether p is a known policy.
func (p CategoryPolicy) Valid() bool {
	switch p {
	case CategoryPolicyNone, CategoryPolicyExtension, CategoryPolicyTeaching:
		return true
	}
	return false
}

// CreateCategoryRequest is the payload for creating an activity category.
type CreateCategoryRequest struct {
	Name               string         `json:"name" validate:"required,max=255"`
	Description        string         `json:"description" validate:"max=1024"`
	MaxHourTotal       int            `json:"max_hour_total" validate:"required,gt=0"`
	MaxHourPerSemester int            `json:"max_hour_per_semester" validate:"required,gt=0,ltefield=MaxHourTotal"`
	Policy             CategoryPolicy `json:"policy" validate:"omitempty,oneof=NONE EXTENSION TEACHING"`
}
