package models

import "time"

// CertificateBucket is the storage bucket for activity certificates.
const CertificateBucket = "certificates"

// File describes an uploaded object.
type File struct {
	ID          string    `db:"id" json:"id"`
	URL         string    `db:"url" json:"url"`
	Bucket      string    `db:"bucket" json:"bucket"`
	Name        string    `db:"name" json:"name"`
	SizeInBytes int64     `db:"size_in_bytes" json:"size_in_bytes"`
	MimeType    string    `db:"mime_type" json:"mime_type"`
	CreatedAt   time.Time `db:"created_at" json:"created_at"`
}
