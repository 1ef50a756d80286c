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

const categoryColumns = "id, name, description, max_hour_total, max_hour_per_semester, policy, created_at, updated_at"

// CategoryRepository handles persistence for activity categories.
type CategoryRepository struct {
	db *sqlx.DB
}

// NewCategoryRepository instantiates a category repository.
func NewCategoryRepository(db *sqlx.DB) *CategoryRepository {
	return &CategoryRepository{db: db}
}

// List returns every category ordered by name.
func (r *CategoryRepository) List(ctx context.Context) ([]models.ActivityCategory, error) {
	query := fmt.Sprintf("SELECT %s FROM activity_categories ORDER BY name ASC", categoryColumns)
	categories := make([]models.ActivityCategory, 0)
	if err := r.db.SelectContext(ctx, &categories, query); err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}
	return categories, nil
}

// FindByID loads a category by identifier.
func (r *CategoryRepository) FindByID(ctx context.Context, id string) (*models.ActivityCategory, error) {
	query := fmt.Sprintf("SELECT %s FROM activity_categories WHERE id = $1", categoryColumns)
	var category models.ActivityCategory
	if err := r.db.GetContext(ctx, &category, query, id); err != nil {
		return nil, err
	}
	return &category, nil
}

// ExistsByName checks whether a category name is already taken.
func (r *CategoryRepository) ExistsByName(ctx context.Context, name string) (bool, error) {
	const query = `SELECT 1 FROM activity_categories WHERE LOWER(name) = LOWER($1) LIMIT 1`
	var exists int
	if err := r.db.GetContext(ctx, &exists, query, name); err != nil {
		if err == sql.ErrNoRows {
			return false, nil
		}
		return false, fmt.Errorf("check category uniqueness: %w", err)
	}
	return true, nil
}

// Create inserts a new category record.
func (r *CategoryRepository) Create(ctx context.Context, category *models.ActivityCategory) error {
	if category.ID == "" {
		category.ID = uuid.NewString()
	}
	if category.Policy == "" {
		category.Policy = models.CategoryPolicyNone
	}
	now := time.Now().UTC()
	if category.CreatedAt.IsZero() {
		category.CreatedAt = now
	}
	category.UpdatedAt = now

	const query = `INSERT INTO activity_categories (id, name, description, max_hour_total, max_hour_per_semester, policy, created_at, updated_at) VALUES (:id, :name, :description, :max_hour_total, :max_hour_per_semester, :policy, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, category); err != nil {
		return fmt.Errorf("create category: %w", err)
	}
	return nil
}
