package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/noah-isme/sagha-api/internal/models"
	"github.com/noah-isme/sagha-api/pkg/jobs"
)

const auditJobType = "audit_log"

type auditLogWriter interface {
	CreateAuditLog(ctx context.Context, log *models.AuditLog) error
}

type auditRecorder interface {
	Record(ctx context.Context, actor models.Actor, action, resource, resourceID string, values interface{})
}

type noopAuditRecorder struct{}

func (noopAuditRecorder) Record(context.Context, models.Actor, string, string, string, interface{}) {}

// AuditService writes audit trail entries through a background queue.
// Entries are written inline when the queue is full or not running.
type AuditService struct {
	repo   auditLogWriter
	queue  *jobs.Queue
	logger *zap.Logger
}

// NewAuditService constructs the audit writer and its queue.
func NewAuditService(repo auditLogWriter, cfg jobs.QueueConfig, logger *zap.Logger) *AuditService {
	if logger == nil {
		logger = zap.NewNop()
	}
	cfg.Logger = logger
	svc := &AuditService{repo: repo, logger: logger}
	svc.queue = jobs.NewQueue("audit", svc.handle, cfg)
	return svc
}

// Start launches the queue workers.
func (s *AuditService) Start(ctx context.Context) {
	s.queue.Start(ctx)
}

// Stop flushes pending entries and stops the workers.
func (s *AuditService) Stop() {
	s.queue.Stop()
}

// Record stores an audit entry for the actor. Failures are logged, never returned.
func (s *AuditService) Record(ctx context.Context, actor models.Actor, action, resource, resourceID string, values interface{}) {
	if s == nil {
		return
	}
	entry := &models.AuditLog{
		ID:        uuid.NewString(),
		Action:    action,
		Resource:  resource,
		IPAddress: actor.IP,
		UserAgent: actor.UserAgent,
		CreatedAt: time.Now().UTC(),
	}
	if actor.UserID != "" {
		userID := actor.UserID
		entry.UserID = &userID
	}
	if resourceID != "" {
		entry.ResourceID = &resourceID
	}
	if values != nil {
		entry.NewValues = models.AuditValues(values)
	}

	if err := s.queue.TryEnqueue(jobs.Job{ID: entry.ID, Type: auditJobType, Payload: entry}); err != nil {
		s.logger.Debug("audit queue unavailable, writing inline", zap.String("action", action), zap.Error(err))
		if err := s.repo.CreateAuditLog(context.WithoutCancel(ctx), entry); err != nil {
			s.logger.Warn("failed to record audit log", zap.String("action", action), zap.Error(err))
		}
	}
}

func (s *AuditService) handle(ctx context.Context, job jobs.Job) error {
	entry, ok := job.Payload.(*models.AuditLog)
	if !ok {
		s.logger.Error("unexpected audit payload", zap.String("job_id", job.ID))
		return nil
	}
	if err := s.repo.CreateAuditLog(ctx, entry); err != nil {
		return fmt.Errorf("write audit log %s: %w", entry.Action, err)
	}
	return nil
}
