package models

import (
	"encoding/json"
	"time"
)

// AuditAction constants represent actions to be logged.
const (
	AuditActionLogin           = "LOGIN"
	AuditActionPasswordChange  = "PASSWORD_CHANGE"
	AuditActionCollegeCreate   = "COLLEGE_CREATE"
	AuditActionCollegeUpdate   = "COLLEGE_UPDATE"
	AuditActionCourseCreate    = "COURSE_CREATE"
	AuditActionCourseUpdate    = "COURSE_UPDATE"
	AuditActionSemesterCreate  = "SEMESTER_CREATE"
	AuditActionSemesterUpdate  = "SEMESTER_UPDATE"
	AuditActionStudentRegister = "STUDENT_REGISTER"
	AuditActionCategoryCreate  = "CATEGORY_CREATE"
	AuditActionActivityCreate  = "ACTIVITY_CREATE"
	AuditActionActivityReview  = "ACTIVITY_REVIEW"
)

// AuditLog represents an audit trail record.
type AuditLog struct {
	ID         string    `db:"id" json:"id"`
	UserID     *string   `db:"user_id" json:"user_id,omitempty"`
	Action     string    `db:"action" json:"action"`
	Resource   string    `db:"resource" json:"resource"`
	ResourceID *string   `db:"resource_id" json:"resource_id,omitempty"`
	NewValues  *string   `db:"new_values" json:"new_values,omitempty"`
	IPAddress  string    `db:"ip_address" json:"ip_address"`
	UserAgent  string    `db:"user_agent" json:"user_agent"`
	CreatedAt  time.Time `db:"created_at" json:"created_at"`
}

// AuditValues renders v as JSON for AuditLog.NewValues. Values that cannot be
// encoded are dropped.
func AuditValues(v interface{}) *string {
	raw, err := json.Marshal(v)
	if err != nil {
		return nil
	}
	encoded := string(raw)
	return &encoded
}
