package models

import "time"

// College is a tenant. Every other record is reachable from a college, and
// public routes address colleges by their domain.
type College struct {
	ID        string    `db:"id" json:"id"`
	Name      string    `db:"name" json:"name"`
	Address   string    `db:"address" json:"address"`
	City      string    `db:"city" json:"city"`
	State     string    `db:"state" json:"state"`
	ZipCode   string    `db:"zip_code" json:"zip_code"`
	Country   string    `db:"country" json:"country"`
	Phone     string    `db:"phone" json:"phone"`
	Email     string    `db:"email" json:"email"`
	Domain    string    `db:"domain" json:"domain"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}

// CreateCollegeRequest is the payload for registering a college.
type CreateCollegeRequest struct {
	Name    string `json:"name" validate:"required,max=255"`
	Address string `json:"address" validate:"required,max=255"`
	City    string `json:"city" validate:"required,max=120"`
	State   string `json:"state" validate:"required,max=120"`
	ZipCode string `json:"zip_code" validate:"required,max=20"`
	Country string `json:"country" validate:"required,max=120"`
	Phone   string `json:"phone" validate:"required,max=30"`
	Email   string `json:"email" validate:"required,email"`
	Domain  string `json:"domain" validate:"required,hostname_rfc1123,max=120"`
}

// UpdateCollegeRequest updates every college attribute except the domain.
type UpdateCollegeRequest struct {
	Name    string `json:"name" validate:"required,max=255"`
	Address string `json:"address" validate:"required,max=255"`
	City    string `json:"city" validate:"required,max=120"`
	State   string `json:"state" validate:"required,max=120"`
	ZipCode string `json:"zip_code" validate:"required,max=20"`
	Country string `json:"country" validate:"required,max=120"`
	Phone   string `json:"phone" validate:"required,max=30"`
	Email   string `json:"email" validate:"required,email"`
}
