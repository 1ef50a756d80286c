package repository

import (
	"context"
	"database/sql"
	"errors"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/sagha-api/internal/models"
)

func TestActivityCreateWithCertificateCommits(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewActivityRepository(db)

	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO files").WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectExec("INSERT INTO activities").WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectCommit()

	file := &models.File{ID: "f1", URL: "/uploads/certificates/f1.pdf", Bucket: models.CertificateBucket, Name: "cert.pdf"}
	activity := &models.Activity{Description: "Workshop", HoursRequested: 10, CategoryID: "cat", StudentID: "s1", SemesterID: "sem-1"}
	require.NoError(t, repo.CreateWithCertificate(context.Background(), file, activity))
	assert.Equal(t, "f1", activity.CertificateID)
	assert.Equal(t, models.ActivityStatusInAnalysis, activity.Status)
	assert.NotEmpty(t, activity.ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestActivityCreateWithCertificateRollsBack(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewActivityRepository(db)

	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO files").WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectExec("INSERT INTO activities").WillReturnError(errors.New("fk violation"))
	mock.ExpectRollback()

	err := repo.CreateWithCertificate(context.Background(), &models.File{}, &models.Activity{})
	require.Error(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSumApprovedHoursScopes(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewActivityRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT COALESCE(SUM(hours_approved), 0) FROM activities WHERE student_id = $1 AND status IN ('TOTALLY_APPROVED', 'PARTIALLY_APPROVED') AND category_id = $2")).
		WithArgs("s1", "cat").
		WillReturnRows(sqlmock.NewRows([]string{"coalesce"}).AddRow(40))
	hours, err := repo.SumApprovedHours(context.Background(), ApprovedHoursScope{StudentID: "s1", CategoryID: "cat"})
	require.NoError(t, err)
	assert.Equal(t, 40, hours)

	mock.ExpectQuery(regexp.QuoteMeta("AND semester_id = $2")).
		WithArgs("s1", "sem-1").
		WillReturnRows(sqlmock.NewRows([]string{"coalesce"}).AddRow(0))
	hours, err = repo.SumApprovedHours(context.Background(), ApprovedHoursScope{StudentID: "s1", SemesterID: "sem-1"})
	require.NoError(t, err)
	assert.Zero(t, hours)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestActivityList(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewActivityRepository(db)

	now := time.Now()
	rows := sqlmock.NewRows([]string{"id", "description", "hours_requested", "hours_approved", "start_date", "end_date", "status",
		"category_id", "student_id", "semester_id", "employee_id", "certificate_id", "review_note", "reviewed_at", "created_at", "updated_at",
		"category_name", "certificate_url", "certificate_name"}).
		AddRow("a1", "Workshop", 10, nil, now, now.Add(time.Hour), "IN_ANALYSIS", "cat", "s1", "sem-1", nil, "f1", nil, nil, now, now, "Extension", "/uploads/f1.pdf", "cert.pdf")
	mock.ExpectQuery(regexp.QuoteMeta("WHERE s.college_id = $1 AND a.student_id = $2 AND a.status = $3 ORDER BY a.created_at DESC LIMIT 20 OFFSET 0")).
		WithArgs("c1", "s1", models.ActivityStatusInAnalysis).
		WillReturnRows(rows)
	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*) FROM activities a JOIN students s ON s.id = a.student_id WHERE")).
		WithArgs("c1", "s1", models.ActivityStatusInAnalysis).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))

	activities, total, err := repo.List(context.Background(), models.ActivityFilter{CollegeID: "c1", StudentID: "s1", Status: models.ActivityStatusInAnalysis})
	require.NoError(t, err)
	require.Len(t, activities, 1)
	assert.Equal(t, 1, total)
	assert.Equal(t, "Extension", activities[0].CategoryName)
	assert.Nil(t, activities[0].HoursApproved)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestActivityReviewConditionalUpdate(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewActivityRepository(db)

	review := models.ActivityReview{ID: "a1", Status: models.ActivityStatusTotallyApproved, HoursApproved: 10, EmployeeID: "e1", ReviewedAt: time.Now()}

	mock.ExpectExec(regexp.QuoteMeta("WHERE id = $6 AND status = 'IN_ANALYSIS'")).
		WillReturnResult(sqlmock.NewResult(0, 1))
	require.NoError(t, repo.Review(context.Background(), review))

	mock.ExpectExec(regexp.QuoteMeta("WHERE id = $6 AND status = 'IN_ANALYSIS'")).
		WillReturnResult(sqlmock.NewResult(0, 0))
	err := repo.Review(context.Background(), review)
	assert.ErrorIs(t, err, sql.ErrNoRows)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCategoryTotals(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewActivityRepository(db)

	mock.ExpectQuery("LEFT JOIN activities a ON a.category_id = c.id").
		WithArgs("s1").
		WillReturnRows(sqlmock.NewRows([]string{"category_id", "category_name", "policy", "max_hour_total", "max_hour_per_semester", "approved_hours"}).
			AddRow("cat", "Extension", "EXTENSION", 100, 40, 30).
			AddRow("cat2", "Research", "NONE", 60, 20, 0))

	totals, err := repo.CategoryTotals(context.Background(), "s1")
	require.NoError(t, err)
	require.Len(t, totals, 2)
	assert.Equal(t, models.CategoryPolicyExtension, totals[0].Policy)
	assert.Equal(t, 30, totals[0].ApprovedHours)
}
