package service

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"os"
	"path"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/noah-isme/sagha-api/internal/models"
	appErrors "github.com/noah-isme/sagha-api/pkg/errors"
	"github.com/noah-isme/sagha-api/pkg/export"
	"github.com/noah-isme/sagha-api/pkg/storage"
)

type fileStorage interface {
	Save(filename string, data []byte) (string, error)
	Open(filename string) (*os.File, error)
	CleanupOlderThan(ttl time.Duration) ([]string, error)
}

type hourSummaryProvider interface {
	HourSummary(ctx context.Context, actor models.Actor, domain, studentID string) (*models.StudentHourSummary, error)
}

// ExportConfig tunes export behaviour.
type ExportConfig struct {
	APIPrefix string
	Retention time.Duration
}

// ExportService renders hour statements, stores them and hands out signed download links.
type ExportService struct {
	summaries hourSummaryProvider
	storage   fileStorage
	signer    *storage.SignedURLSigner
	renderers map[models.ExportFormat]export.Renderer
	metrics   *MetricsService
	logger    *zap.Logger
	cfg       ExportConfig
}

// NewExportService constructs an ExportService.
func NewExportService(summaries hourSummaryProvider, files fileStorage, signer *storage.SignedURLSigner, metrics *MetricsService, cfg ExportConfig, logger *zap.Logger) *ExportService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.Retention <= 0 {
		cfg.Retention = 24 * time.Hour
	}
	cfg.APIPrefix = strings.TrimRight(cfg.APIPrefix, "/")
	return &ExportService{
		summaries: summaries,
		storage:   files,
		signer:    signer,
		renderers: map[models.ExportFormat]export.Renderer{
			models.ExportFormatCSV: export.NewCSVExporter(),
			models.ExportFormatPDF: export.NewPDFExporter(),
		},
		metrics: metrics,
		logger:  logger,
		cfg:     cfg,
	}
}

// ExportHours renders the hour statement of a student in the requested format.
func (s *ExportService) ExportHours(ctx context.Context, actor models.Actor, domain, studentID string, format models.ExportFormat) (*models.ExportResult, error) {
	if format == "" {
		format = models.ExportFormatCSV
	}
	renderer, ok := s.renderers[models.ExportFormat(strings.ToLower(string(format)))]
	if !ok {
		return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("unsupported export format %q", format))
	}

	summary, err := s.summaries.HourSummary(ctx, actor, domain, studentID)
	if err != nil {
		return nil, err
	}

	payload, err := renderer.Render(hourStatement(domain, summary))
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render hour statement")
	}

	filename := fmt.Sprintf("%s_%s.%s", sanitizeFilename(summary.Enrollment), summary.GeneratedAt.Format("20060102_150405"), renderer.Extension())
	relPath, err := s.storage.Save(path.Join("hours", filename), payload)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to store hour statement")
	}

	token, expiresAt, err := s.signer.Generate(uuid.NewString(), relPath)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to sign download link")
	}

	s.metrics.ExportGenerated(renderer.Extension())
	return &models.ExportResult{
		Filename:    filename,
		Format:      renderer.Extension(),
		DownloadURL: fmt.Sprintf("%s/exports/download?token=%s", s.cfg.APIPrefix, url.QueryEscape(token)),
		ExpiresAt:   expiresAt,
	}, nil
}

// Open resolves a download token to the stored file.
func (s *ExportService) Open(token string) (*os.File, string, error) {
	_, relPath, _, err := s.signer.Parse(token, false)
	if err != nil {
		if errors.Is(err, storage.ErrTokenExpired) {
			return nil, "", appErrors.Clone(appErrors.ErrNotFound, "download link expired")
		}
		return nil, "", appErrors.Clone(appErrors.ErrUnauthorized, "invalid download token")
	}
	file, err := s.storage.Open(relPath)
	if err != nil {
		return nil, "", appErrors.Wrap(err, appErrors.ErrNotFound.Code, appErrors.ErrNotFound.Status, "export not found")
	}
	return file, path.Base(relPath), nil
}

// Cleanup removes exports older than the retention window.
func (s *ExportService) Cleanup(ctx context.Context) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	deleted, err := s.storage.CleanupOlderThan(s.cfg.Retention)
	if err != nil {
		return 0, err
	}
	s.metrics.ExportsCleaned(len(deleted))
	return len(deleted), nil
}

func hourStatement(domain string, summary *models.StudentHourSummary) export.Dataset {
	rows := make([][]string, 0, len(summary.Categories))
	for _, category := range summary.Categories {
		rows = append(rows, []string{
			category.CategoryName,
			string(category.Policy),
			strconv.Itoa(category.ApprovedHours),
			strconv.Itoa(category.MaxHourTotal),
			strconv.Itoa(category.RemainingHours),
		})
	}
	return export.Dataset{
		Title: "Academic hours statement",
		Summary: []string{
			"College: " + domain,
			"Enrollment: " + summary.Enrollment,
			"Total approved hours: " + strconv.Itoa(summary.TotalHours),
			"Approved hours this semester: " + strconv.Itoa(summary.SemesterHours),
			"Generated at: " + summary.GeneratedAt.Format(time.RFC3339),
		},
		Headers: []string{"Category", "Policy", "Approved", "Cap", "Remaining"},
		Rows:    rows,
	}
}

func sanitizeFilename(raw string) string {
	if raw == "" {
		return "na"
	}
	replacer := strings.NewReplacer(" ", "_", "/", "-", "\\", "-", ":", "-", "..", ".")
	result := replacer.Replace(raw)
	if len(result) > 100 {
		return result[:100]
	}
	return result
}
