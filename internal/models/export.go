package models

import "time"

// ExportFormat enumerates supported hour statement formats.
type ExportFormat string

const (
	ExportFormatCSV ExportFormat = "csv"
	ExportFormatPDF ExportFormat = "pdf"
)

// ExportResult describes a generated statement ready for download.
type ExportResult struct {
	Filename    string    `json:"filename"`
	Format      string    `json:"format"`
	DownloadURL string    `json:"download_url"`
	ExpiresAt   time.Time `json:"expires_at"`
}
