package models

import (
	"io"
	"time"
)

// ActivityStatus tracks the review state of an activity request.
type ActivityStatus string

const (
	ActivityStatusInAnalysis        ActivityStatus = "IN_ANALYSIS"
	ActivityStatusPartiallyApproved ActivityStatus = "PARTIALLY_APPROVED"
	ActivityStatusTotallyApproved   ActivityStatus = "TOTALLY_APPROVED"
	ActivityStatusRejected          ActivityStatus = "REJECTED"
)

// Approved reports whether the status grants hours.
func (s ActivityStatus) Approved() bool {
	return s == ActivityStatusTotallyApproved || s == ActivityStatusPartiallyApproved
}

// Valid reports whether s is a known status.
func (s ActivityStatus) Valid() bool {
	switch s {
	case ActivityStatusInAnalysis, ActivityStatusPartiallyApproved, ActivityStatusTotallyApproved, ActivityStatusRejected:
		return true
	}
	return false
}

// Activity is a student's claim for academic hours.
type Activity struct {
	ID             string         `db:"id" json:"id"`
	Description    string         `db:"description" json:"description"`
	HoursRequested int            `db:"hours_requested" json:"hours_requested"`
	HoursApproved  *int           `db:"hours_approved" json:"hours_approved"`
	StartDate      time.Time      `db:"start_date" json:"start_date"`
	EndDate        time.Time      `db:"end_date" json:"end_date"`
	Status         ActivityStatus `db:"status" json:"status"`
	CategoryID     string         `db:"category_id" json:"category_id"`
	StudentID      string         `db:"student_id" json:"student_id"`
	SemesterID     string         `db:"semester_id" json:"semester_id"`
	EmployeeID     *string        `db:"employee_id" json:"employee_id"`
	CertificateID  string         `db:"certificate_id" json:"certificate_id"`
	ReviewNote     *string        `db:"review_note" json:"review_note,omitempty"`
	ReviewedAt     *time.Time     `db:"reviewed_at" json:"reviewed_at,omitempty"`
	CreatedAt      time.Time      `db:"created_at" json:"created_at"`
	UpdatedAt      time.Time      `db:"updated_at" json:"updated_at"`
}

// ActivityDetail enriches an activity with its category and certificate.
type ActivityDetail struct {
	Activity
	CategoryName    string `db:"category_name" json:"category_name"`
	CertificateURL  string `db:"certificate_url" json:"certificate_url"`
	CertificateName string `db:"certificate_name" json:"certificate_name"`
}

// ActivityFilter constrains activity listings within a college.
type ActivityFilter struct {
	CollegeID  string
	StudentID  string
	CategoryID string
	Status     ActivityStatus
	Page       int
	PageSize   int
	SortOrder  string
}

// ActivityReview carries the persisted outcome of a staff review.
type ActivityReview struct {
	ID            string
	Status        ActivityStatus
	HoursApproved int
	EmployeeID    string
	Note          *string
	ReviewedAt    time.Time
}

// CreateActivityRequest carries the form fields of an activity submission.
type CreateActivityRequest struct {
	Description    string    `form:"description" json:"description" validate:"required,max=1024"`
	HoursRequested int       `form:"hours_requested" json:"hours_requested" validate:"required,gt=0"`
	StartDate      time.Time `form:"start_date" json:"start_date" time_format:"2006-01-02" time_utc:"1" validate:"required"`
	EndDate        time.Time `form:"end_date" json:"end_date" time_format:"2006-01-02" time_utc:"1" validate:"required"`
	CategoryID     string    `form:"category_id" json:"category_id" validate:"required"`
	StudentID      string    `form:"student_id" json:"student_id" validate:"required"`
}

// CertificateUpload is the file attached to an activity submission.
type CertificateUpload struct {
	Filename    string
	ContentType string
	Size        int64
	Body        io.Reader
}

// ReviewActivityRequest is a staff decision on an activity in analysis.
// HoursApproved is only read for partial approvals.
type ReviewActivityRequest struct {
	Status        ActivityStatus `json:"status" validate:"required,oneof=TOTALLY_APPROVED PARTIALLY_APPROVED REJECTED"`
	HoursApproved *int           `json:"hours_approved" validate:"omitempty,gt=0"`
	Note          *string        `json:"note" validate:"omitempty,max=1024"`
}
