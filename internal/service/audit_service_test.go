package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/sagha-api/internal/models"
	"github.com/noah-isme/sagha-api/pkg/jobs"
)

type memoryAuditLog struct {
	mu      sync.Mutex
	entries []*models.AuditLog
	err     error
}

func (m *memoryAuditLog) CreateAuditLog(ctx context.Context, log *models.AuditLog) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	m.entries = append(m.entries, log)
	return nil
}

func (m *memoryAuditLog) snapshot() []*models.AuditLog {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]*models.AuditLog(nil), m.entries...)
}

func TestAuditServiceWritesInlineWhenNotStarted(t *testing.T) {
	repo := &memoryAuditLog{}
	svc := NewAuditService(repo, jobs.QueueConfig{Workers: 1, BufferSize: 1}, nil)

	actor := models.Actor{UserID: "emp-1", Role: models.RoleEmployee, IP: "10.0.0.1", UserAgent: "curl"}
	svc.Record(context.Background(), actor, models.AuditActionCourseCreate, "course", "course-1", map[string]string{"name": "Law"})

	entries := repo.snapshot()
	require.Len(t, entries, 1)
	entry := entries[0]
	assert.Equal(t, models.AuditActionCourseCreate, entry.Action)
	assert.Equal(t, "emp-1", *entry.UserID)
	assert.Equal(t, "course-1", *entry.ResourceID)
	assert.Equal(t, "10.0.0.1", entry.IPAddress)
	require.NotNil(t, entry.NewValues)
	assert.JSONEq(t, `{"name":"Law"}`, *entry.NewValues)
}

func TestAuditServiceQueuedEntriesFlushOnStop(t *testing.T) {
	repo := &memoryAuditLog{}
	svc := NewAuditService(repo, jobs.QueueConfig{Workers: 2, BufferSize: 16, RetryDelay: time.Millisecond}, nil)
	svc.Start(context.Background())

	for i := 0; i < 10; i++ {
		svc.Record(context.Background(), models.Actor{}, models.AuditActionLogin, "auth", "", nil)
	}
	svc.Stop()

	entries := repo.snapshot()
	assert.Len(t, entries, 10)
	for _, entry := range entries {
		assert.Nil(t, entry.UserID)
		assert.Nil(t, entry.ResourceID)
		assert.Nil(t, entry.NewValues)
	}
}

func TestAuditServiceSwallowsWriteErrors(t *testing.T) {
	repo := &memoryAuditLog{err: errors.New("db down")}
	svc := NewAuditService(repo, jobs.QueueConfig{}, nil)

	assert.NotPanics(t, func() {
		svc.Record(context.Background(), staff, models.AuditActionLogin, "auth", "emp-1", nil)
	})

	var nilSvc *AuditService
	assert.NotPanics(t, func() {
		nilSvc.Record(context.Background(), staff, models.AuditActionLogin, "auth", "emp-1", nil)
	})
}
