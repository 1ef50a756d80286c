package service

import (
	"context"
	"database/sql"
	"encoding/json"
	"path"
	"sync"
	"time"

	"github.com/noah-isme/sagha-api/internal/models"
	"github.com/noah-isme/sagha-api/internal/repository"
	appErrors "github.com/noah-isme/sagha-api/pkg/errors"
	"github.com/noah-isme/sagha-api/pkg/storage"
)

type recordedAudit struct {
	actor      models.Actor
	action     string
	resource   string
	resourceID string
}

type mockAudit struct {
	mu      sync.Mutex
	entries []recordedAudit
}

func (m *mockAudit) Record(ctx context.Context, actor models.Actor, action, resource, resourceID string, values interface{}) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries = append(m.entries, recordedAudit{actor: actor, action: action, resource: resource, resourceID: resourceID})
}

func (m *mockAudit) actions() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]string, len(m.entries))
	for i, e := range m.entries {
		out[i] = e.action
	}
	return out
}

type mockCollegeLookup struct {
	college *models.College
	err     error
}

func (m *mockCollegeLookup) GetByDomain(ctx context.Context, domain string) (*models.College, bool, error) {
	if m.err != nil {
		return nil, false, m.err
	}
	return m.college, false, nil
}

type mockStudentReader struct {
	students map[string]*models.Student
}

func (m *mockStudentReader) FindInCollege(ctx context.Context, collegeID, studentID string) (*models.Student, error) {
	student, ok := m.students[studentID]
	if !ok || student.CollegeID != collegeID {
		return nil, sql.ErrNoRows
	}
	return student, nil
}

type mockCategoryReader struct {
	categories map[string]*models.ActivityCategory
}

func (m *mockCategoryReader) FindByID(ctx context.Context, id string) (*models.ActivityCategory, error) {
	category, ok := m.categories[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return category, nil
}

// mockActivityRepo keeps activities in memory and sums approved hours like the SQL does.
type mockActivityRepo struct {
	activities map[string]*models.ActivityDetail
	files      []*models.File
	createErr  error
	reviewErr  error
	listFilter models.ActivityFilter
	sumCalls   []repository.ApprovedHoursScope
}

func newMockActivityRepo() *mockActivityRepo {
	return &mockActivityRepo{activities: map[string]*models.ActivityDetail{}}
}

func (m *mockActivityRepo) add(a models.Activity) {
	m.activities[a.ID] = &models.ActivityDetail{Activity: a}
}

func (m *mockActivityRepo) CreateWithCertificate(ctx context.Context, file *models.File, activity *models.Activity) error {
	if m.createErr != nil {
		return m.createErr
	}
	if activity.ID == "" {
		activity.ID = "generated"
	}
	activity.CertificateID = file.ID
	m.files = append(m.files, file)
	m.add(*activity)
	return nil
}

func (m *mockActivityRepo) FindByID(ctx context.Context, collegeID, id string) (*models.ActivityDetail, error) {
	activity, ok := m.activities[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	copied := *activity
	return &copied, nil
}

func (m *mockActivityRepo) List(ctx context.Context, filter models.ActivityFilter) ([]models.ActivityDetail, int, error) {
	m.listFilter = filter
	out := make([]models.ActivityDetail, 0)
	for _, a := range m.activities {
		if filter.StudentID != "" && a.StudentID != filter.StudentID {
			continue
		}
		out = append(out, *a)
	}
	return out, len(out), nil
}

func (m *mockActivityRepo) SumApprovedHours(ctx context.Context, scope repository.ApprovedHoursScope) (int, error) {
	m.sumCalls = append(m.sumCalls, scope)
	total := 0
	for _, a := range m.activities {
		if a.StudentID != scope.StudentID || !a.Status.Approved() || a.HoursApproved == nil {
			continue
		}
		if scope.CategoryID != "" && a.CategoryID != scope.CategoryID {
			continue
		}
		if scope.SemesterID != "" && a.SemesterID != scope.SemesterID {
			continue
		}
		total += *a.HoursApproved
	}
	return total, nil
}

func (m *mockActivityRepo) CategoryTotals(ctx context.Context, studentID string) ([]models.CategoryHourSummary, error) {
	return []models.CategoryHourSummary{
		{CategoryID: "cat-ext", CategoryName: "Extension", Policy: models.CategoryPolicyExtension, ApprovedHours: 30, MaxHourTotal: 100, MaxHourPerSemester: 60},
		{CategoryID: "cat-over", CategoryName: "Legacy", Policy: models.CategoryPolicyNone, ApprovedHours: 50, MaxHourTotal: 40, MaxHourPerSemester: 40},
	}, nil
}

func (m *mockActivityRepo) Review(ctx context.Context, review models.ActivityReview) error {
	if m.reviewErr != nil {
		return m.reviewErr
	}
	activity, ok := m.activities[review.ID]
	if !ok || activity.Status != models.ActivityStatusInAnalysis {
		return sql.ErrNoRows
	}
	hours := review.HoursApproved
	activity.Status = review.Status
	activity.HoursApproved = &hours
	return nil
}

type mockObjectStore struct {
	puts    []storage.Object
	deleted []string
	putErr  error
}

func (m *mockObjectStore) Put(ctx context.Context, obj storage.Object) (string, error) {
	if m.putErr != nil {
		return "", m.putErr
	}
	m.puts = append(m.puts, obj)
	return "https://files.test/" + obj.Bucket + "/" + obj.Key, nil
}

func (m *mockObjectStore) Delete(ctx context.Context, bucket, key string) error {
	m.deleted = append(m.deleted, bucket+"/"+key)
	return nil
}

func intPtr(v int) *int { return &v }

func approvedActivity(id, studentID, categoryID, semesterID string, hours int) models.Activity {
	return models.Activity{
		ID:             id,
		HoursRequested: hours,
		HoursApproved:  intPtr(hours),
		Status:         models.ActivityStatusTotallyApproved,
		StudentID:      studentID,
		CategoryID:     categoryID,
		SemesterID:     semesterID,
		StartDate:      time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
		EndDate:        time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC),
	}
}

// memoryCache is a CacheRepository backed by a map of JSON payloads.
type memoryCache struct {
	mu          sync.Mutex
	items       map[string][]byte
	getErr      error
	invalidated []string
}

func newMemoryCache() *memoryCache {
	return &memoryCache{items: map[string][]byte{}}
}

func (m *memoryCache) Get(ctx context.Context, key string, dest interface{}) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.getErr != nil {
		return m.getErr
	}
	raw, ok := m.items[key]
	if !ok {
		return appErrors.ErrCacheMiss
	}
	return json.Unmarshal(raw, dest)
}

func (m *memoryCache) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	raw, err := json.Marshal(value)
	if err != nil {
		return err
	}
	m.items[key] = raw
	return nil
}

func (m *memoryCache) DeleteByPattern(ctx context.Context, pattern string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.invalidated = append(m.invalidated, pattern)
	for key := range m.items {
		if ok, _ := path.Match(pattern, key); ok {
			delete(m.items, key)
		}
	}
	return nil
}
