package models

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// LoginRequest holds credentials for authenticating a user.
type LoginRequest struct {
	Email     string `json:"email" validate:"required,email"`
	Password  string `json:"password" validate:"required"`
	IP        string `json:"-"`
	UserAgent string `json:"-"`
}

// UserInfo describes the authenticated user in responses.
type UserInfo struct {
	ID    string   `json:"id"`
	Name  string   `json:"name"`
	Email string   `json:"email"`
	Role  UserRole `json:"role"`
}

// StaffLoginResponse returns the issued token for staff accounts.
type StaffLoginResponse struct {
	Token     string    `json:"token"`
	ExpiresIn int64     `json:"expires_in"`
	IssuedAt  time.Time `json:"issued_at"`
	User      UserInfo  `json:"user"`
}

// StudentInfo identifies the student a token was issued for.
type StudentInfo struct {
	ID         string `json:"id"`
	Enrollment string `json:"enrollment"`
}

// CollegeInfo identifies the college a token was issued for.
type CollegeInfo struct {
	ID     string `json:"id"`
	Name   string `json:"name"`
	Domain string `json:"domain"`
}

// StudentLoginResponse returns the token plus the student's college context.
type StudentLoginResponse struct {
	Token   string      `json:"token"`
	User    UserInfo    `json:"user"`
	Student StudentInfo `json:"student"`
	College CollegeInfo `json:"college"`
}

// JWTClaims represents the JWT payload for access tokens. Student tokens
// carry the student ID and the college domain they are scoped to.
type JWTClaims struct {
	UserID    string   `json:"user_id"`
	Role      UserRole `json:"role"`
	Email     string   `json:"email"`
	StudentID string   `json:"student_id,omitempty"`
	Domain    string   `json:"domain,omitempty"`
	jwt.RegisteredClaims
}

// IsStaff reports whether the claims belong to an administrator or employee.
func (c *JWTClaims) IsStaff() bool {
	return c != nil && (c.Role == RoleAdmin || c.Role == RoleEmployee)
}

// SetPasswordRequest sets or changes a student's password. CurrentPassword
// is required once a password exists.
type SetPasswordRequest struct {
	CurrentPassword string `json:"current_password"`
	NewPassword     string `json:"new_password" validate:"required,min=8,max=72"`
}

// Actor identifies the caller of a state-changing operation.
type Actor struct {
	UserID    string
	Role      UserRole
	StudentID string
	Domain    string
	IP        string
	UserAgent string
}

// ActorFromClaims builds an Actor from validated token claims.
func ActorFromClaims(claims *JWTClaims, ip, userAgent string) Actor {
	if claims == nil {
		return Actor{IP: ip, UserAgent: userAgent}
	}
	return Actor{
		UserID:    claims.UserID,
		Role:      claims.Role,
		StudentID: claims.StudentID,
		Domain:    claims.Domain,
		IP:        ip,
		UserAgent: userAgent,
	}
}

// IsStaff reports whether the actor is an administrator or employee.
func (a Actor) IsStaff() bool {
	return a.Role == RoleAdmin || a.Role == RoleEmployee
}

// CanActFor reports whether the actor may act on behalf of the student of
// the given college domain.
func (a Actor) CanActFor(domain, studentID string) bool {
	if a.IsStaff() {
		return true
	}
	return a.Role == RoleStudent && a.StudentID == studentID && a.Domain == domain
}
