package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/sagha-api/internal/models"
)

const collegeColumns = "id, name, address, city, state, zip_code, country, phone, email, domain, created_at, updated_at"

// uniqueCollegeFields lists the columns that must not repeat across colleges.
var uniqueCollegeFields = map[string]bool{
	"domain":   true,
	"email":    true,
	"zip_code": true,
	"phone":    true,
}

// CollegeRepository handles persistence for colleges.
type CollegeRepository struct {
	db *sqlx.DB
}

// NewCollegeRepository instantiates a college repository.
func NewCollegeRepository(db *sqlx.DB) *CollegeRepository {
	return &CollegeRepository{db: db}
}

// FindByID loads a college by identifier.
func (r *CollegeRepository) FindByID(ctx context.Context, id string) (*models.College, error) {
	query := fmt.Sprintf("SELECT %s FROM colleges WHERE id = $1", collegeColumns)
	var college models.College
	if err := r.db.GetContext(ctx, &college, query, id); err != nil {
		return nil, err
	}
	return &college, nil
}

// FindByDomain loads a college by its unique domain.
func (r *CollegeRepository) FindByDomain(ctx context.Context, domain string) (*models.College, error) {
	query := fmt.Sprintf("SELECT %s FROM colleges WHERE domain = $1", collegeColumns)
	var college models.College
	if err := r.db.GetContext(ctx, &college, query, domain); err != nil {
		return nil, err
	}
	return &college, nil
}

// ExistsByField checks whether another college already uses value for a unique field.
func (r *CollegeRepository) ExistsByField(ctx context.Context, field, value, excludeID string) (bool, error) {
	if !uniqueCollegeFields[field] {
		return false, fmt.Errorf("unsupported college field %q", field)
	}
	base := fmt.Sprintf("SELECT 1 FROM colleges WHERE %s = $1", field)
	args := []interface{}{value}
	if excludeID != "" {
		base += " AND id <> $2"
		args = append(args, excludeID)
	}
	var exists int
	if err := r.db.GetContext(ctx, &exists, base+" LIMIT 1", args...); err != nil {
		if err == sql.ErrNoRows {
			return false, nil
		}
		return false, fmt.Errorf("check college %s uniqueness: %w", field, err)
	}
	return true, nil
}

// Create inserts a new college record.
func (r *CollegeRepository) Create(ctx context.Context, college *models.College) error {
	if college.ID == "" {
		college.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if college.CreatedAt.IsZero() {
		college.CreatedAt = now
	}
	college.UpdatedAt = now

	const query = `INSERT INTO colleges (id, name, address, city, state, zip_code, country, phone, email, domain, created_at, updated_at) VALUES (:id, :name, :address, :city, :state, :zip_code, :country, :phone, :email, :domain, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, college); err != nil {
		return fmt.Errorf("create college: %w", err)
	}
	return nil
}

// Update modifies an existing college. The domain is immutable.
func (r *CollegeRepository) Update(ctx context.Context, college *models.College) error {
	college.UpdatedAt = time.Now().UTC()
	const query = `UPDATE colleges SET name = :name, address = :address, city = :city, state = :state, zip_code = :zip_code, country = :country, phone = :phone, email = :email, updated_at = :updated_at WHERE id = :id`
	if _, err := r.db.NamedExecContext(ctx, query, college); err != nil {
		return fmt.Errorf("update college: %w", err)
	}
	return nil
}
