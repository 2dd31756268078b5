package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/news-publishing-api/internal/metrics"
	"github.com/news-publishing-api/internal/models"
	"github.com/news-publishing-api/internal/policy"
	"github.com/news-publishing-api/internal/repository"
	"github.com/news-publishing-api/internal/slug"
	"github.com/news-publishing-api/internal/validation"
)

const msgNameTaken = "the name has already been taken"

// categoryService is the concrete implementation of CategoryService
type categoryService struct {
	repos     *repository.Repositories
	validator *validation.Validator
	now       func() time.Time
	log       zerolog.Logger
}

// newCategoryService creates a new CategoryService
func newCategoryService(repos *repository.Repositories, validator *validation.Validator, log zerolog.Logger) *categoryService {
	return &categoryService{
		repos:     repos,
		validator: validator,
		now:       func() time.Time { return time.Now().UTC() },
		log:       log.With().Str("service", "category").Logger(),
	}
}

// Create adds a category. Without an explicit slug one is derived from the name.
func (s *categoryService) Create(ctx context.Context, actor models.Actor, in *models.CategoryInput) (*models.Category, error) {
	if err := policy.RequireActor(actor); err != nil {
		return nil, err
	}

	v, errs := s.validator.ValidateCategory(in)
	if errs != nil {
		return nil, invalid(errs)
	}
	if err := s.checkUnique(ctx, v, ""); err != nil {
		return nil, err
	}

	now := s.now()
	category := &models.Category{
		ID:          uuid.New().String(),
		Name:        v.Name,
		Slug:        v.Slug,
		Description: v.Description,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	err := s.save(ctx, category, v.Slug == "", s.repos.Category.Create)
	metrics.ObserveContentWrite("category", "create", err)
	if err != nil {
		return nil, err
	}

	s.log.Info().Str("category_id", category.ID).Str("slug", category.Slug).Msg("Category created")
	return category, nil
}

// Update changes a category's name, description and slug. The slug is
// regenerated only when the name changes and no explicit slug is given.
func (s *categoryService) Update(ctx context.Context, actor models.Actor, categorySlug string, in *models.CategoryInput) (*models.Category, error) {
	if err := policy.RequireActor(actor); err != nil {
		return nil, err
	}
	existing, err := s.Get(ctx, categorySlug)
	if err != nil {
		return nil, err
	}

	v, errs := s.validator.ValidateCategory(in)
	if errs != nil {
		return nil, invalid(errs)
	}
	if err := s.checkUnique(ctx, v, existing.ID); err != nil {
		return nil, err
	}

	updated := *existing
	updated.Description = v.Description
	updated.UpdatedAt = s.now()

	regenerate := false
	switch {
	case v.Slug != "":
		updated.Slug = v.Slug
	case v.Name != existing.Name:
		regenerate = true
	}
	updated.Name = v.Name

	err = s.save(ctx, &updated, regenerate, s.repos.Category.Update)
	metrics.ObserveContentWrite("category", "update", err)
	if err != nil {
		return nil, err
	}

	s.log.Info().Str("category_id", updated.ID).Str("slug", updated.Slug).Msg("Category updated")
	return &updated, nil
}

// Delete removes a category that has no articles
func (s *categoryService) Delete(ctx context.Context, actor models.Actor, categorySlug string) error {
	if err := policy.RequireActor(actor); err != nil {
		return err
	}
	existing, err := s.Get(ctx, categorySlug)
	if err != nil {
		return err
	}

	count, err := s.repos.Category.CountArticles(ctx, existing.ID)
	if err != nil {
		return fmt.Errorf("failed to count category articles: %w", err)
	}
	if count > 0 {
		return errCategoryInUse
	}

	err = s.repos.Category.Delete(ctx, existing.ID)
	metrics.ObserveContentWrite("category", "delete", err)
	switch {
	case errors.Is(err, repository.ErrInUse):
		return errCategoryInUse
	case errors.Is(err, repository.ErrNotFound):
		return ErrNotFound
	case err != nil:
		return fmt.Errorf("failed to delete category: %w", err)
	}

	s.log.Info().Str("category_id", existing.ID).Msg("Category deleted")
	return nil
}

var errCategoryInUse = &ConflictError{Message: "cannot delete category: it has associated news articles"}

// Get returns a category with its article count
func (s *categoryService) Get(ctx context.Context, categorySlug string) (*models.Category, error) {
	category, err := s.repos.Category.GetBySlug(ctx, categorySlug)
	if err != nil {
		return nil, fmt.Errorf("failed to load category: %w", err)
	}
	if category == nil {
		return nil, ErrNotFound
	}
	return category, nil
}

// List returns categories ordered by name with article counts
func (s *categoryService) List(ctx context.Context, page models.PageRequest) (*models.Page[*models.Category], error) {
	categories, total, err := s.repos.Category.List(ctx, page)
	if err != nil {
		return nil, fmt.Errorf("failed to list categories: %w", err)
	}
	if categories == nil {
		categories = []*models.Category{}
	}
	return &models.Page[*models.Category]{
		Items:   categories,
		Total:   total,
		Page:    page.Page,
		PerPage: page.PerPage,
	}, nil
}

func (s *categoryService) checkUnique(ctx context.Context, v *validation.ValidatedCategory, excludeID string) error {
	fields := validation.FieldErrors{}

	taken, err := s.repos.Category.NameExists(ctx, v.Name, excludeID)
	if err != nil {
		return fmt.Errorf("failed to check category name: %w", err)
	}
	if taken {
		fields.Add("name", msgNameTaken)
	}

	if v.Slug != "" {
		taken, err := s.repos.Category.SlugExists(ctx, v.Slug, excludeID)
		if err != nil {
			return fmt.Errorf("failed to check category slug: %w", err)
		}
		if taken {
			fields.Add("slug", msgSlugTaken)
		}
	}

	if !fields.Empty() {
		return invalid(fields)
	}
	return nil
}

func (s *categoryService) save(ctx context.Context, category *models.Category, regenerate bool, write func(context.Context, *models.Category) error) error {
	for attempt := 1; ; attempt++ {
		if regenerate {
			generated, err := slug.GenerateUnique(ctx, category.Name, category.ID, s.repos.Category.SlugExists)
			if err != nil {
				return fmt.Errorf("failed to generate slug: %w", err)
			}
			category.Slug = generated
		}

		err := write(ctx, category)
		var dup *repository.DuplicateError
		switch {
		case err == nil:
			return nil
		case errors.As(err, &dup) && dup.Field == "name":
			return invalidField("name", msgNameTaken)
		case errors.As(err, &dup) && dup.Field == "slug":
			metrics.ObserveSlugConflict("category")
			if !regenerate {
				return invalidField("slug", msgSlugTaken)
			}
			if attempt >= maxSlugAttempts {
				return &ConflictError{Field: "slug", Message: "could not reserve a unique slug", Retryable: true}
			}
		case errors.Is(err, repository.ErrNotFound):
			return ErrNotFound
		default:
			return fmt.Errorf("failed to save category: %w", err)
		}
	}
}
