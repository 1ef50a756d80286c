package service

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/sagha-api/internal/models"
	appErrors "github.com/noah-isme/sagha-api/pkg/errors"
)

type categoryRepository interface {
	List(ctx context.Context) ([]models.ActivityCategory, error)
	FindByID(ctx context.Context, id string) (*models.ActivityCategory, error)
	ExistsByName(ctx context.Context, name string) (bool, error)
	Create(ctx context.Context, category *models.ActivityCategory) error
}

// CategoryService manages activity categories.
type CategoryService struct {
	repo      categoryRepository
	cache     *CacheService
	audit     auditRecorder
	validator *validator.Validate
	logger    *zap.Logger
}

// NewCategoryService constructs a CategoryService.
func NewCategoryService(repo categoryRepository, cache *CacheService, audit auditRecorder, validate *validator.Validate, logger *zap.Logger) *CategoryService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if validate == nil {
		validate = validator.New()
	}
	if audit == nil {
		audit = noopAuditRecorder{}
	}
	return &CategoryService{repo: repo, cache: cache, audit: audit, validator: validate, logger: logger}
}

// Create registers a category with unique name.
func (s *CategoryService) Create(ctx context.Context, actor models.Actor, req models.CreateCategoryRequest) (*models.ActivityCategory, error) {
	req.Name = strings.TrimSpace(req.Name)
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid category payload")
	}

	exists, err := s.repo.ExistsByName(ctx, req.Name)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check category name")
	}
	if exists {
		return nil, appErrors.Clone(appErrors.ErrConflict, "category with this name already exists")
	}

	category := &models.ActivityCategory{
		Name:               req.Name,
		Description:        req.Description,
		MaxHourTotal:       req.MaxHourTotal,
		MaxHourPerSemester: req.MaxHourPerSemester,
		Policy:             req.Policy,
	}
	if err := s.repo.Create(ctx, category); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create category")
	}

	s.cache.Invalidate(ctx, cacheKeyCategories)
	s.audit.Record(ctx, actor, models.AuditActionCategoryCreate, "activity_category", category.ID, category)
	return category, nil
}

// List returns every category and whether the result came from cache.
func (s *CategoryService) List(ctx context.Context) ([]models.ActivityCategory, bool, error) {
	var cached []models.ActivityCategory
	if s.cache.Get(ctx, cacheKeyCategories, &cached) {
		return cached, true, nil
	}
	categories, err := s.repo.List(ctx)
	if err != nil {
		return nil, false, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list categories")
	}
	s.cache.Set(ctx, cacheKeyCategories, categories, 0)
	return categories, false, nil
}

// Get returns a category by ID.
func (s *CategoryService) Get(ctx context.Context, id string) (*models.ActivityCategory, error) {
	category, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "category not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load category")
	}
	return category, nil
}
