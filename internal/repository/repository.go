package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/news-publishing-api/internal/database"
	"github.com/news-publishing-api/internal/models"
)

var (
	// ErrDuplicate matches any *DuplicateError
	ErrDuplicate = errors.New("duplicate value")
	// ErrNotFound is returned by Update and Delete when the row does not exist
	ErrNotFound = errors.New("record not found")
	// ErrInUse is returned when deleting a row that is still referenced
	ErrInUse = errors.New("record is still referenced")
	// ErrMissingReference is returned when a row points at a missing parent
	ErrMissingReference = errors.New("referenced record does not exist")
)

// DuplicateError reports a unique constraint violation on a single column
type DuplicateError struct {
	Field string
	Err   error
}

func (e *DuplicateError) Error() string {
	return fmt.Sprintf("duplicate %s", e.Field)
}

func (e *DuplicateError) Is(target error) bool {
	return target == ErrDuplicate
}

func (e *DuplicateError) Unwrap() error {
	return e.Err
}

// CategoryRepository defines the interface for category data operations
type CategoryRepository interface {
	Create(ctx context.Context, category *models.Category) error
	Update(ctx context.Context, category *models.Category) error
	Delete(ctx context.Context, id string) error
	GetByID(ctx context.Context, id string) (*models.Category, error)
	GetBySlug(ctx context.Context, slug string) (*models.Category, error)
	SlugExists(ctx context.Context, slug, excludeID string) (bool, error)
	NameExists(ctx context.Context, name, excludeID string) (bool, error)
	List(ctx context.Context, page models.PageRequest) ([]*models.Category, int, error)
	CountArticles(ctx context.Context, id string) (int, error)
	Count(ctx context.Context) (int, error)
}

// ArticleRepository defines the interface for article data operations
type ArticleRepository interface {
	Create(ctx context.Context, article *models.Article) error
	Update(ctx context.Context, article *models.Article) error
	Delete(ctx context.Context, id string) error
	GetByID(ctx context.Context, id string) (*models.Article, error)
	GetBySlug(ctx context.Context, slug string) (*models.Article, error)
	SlugExists(ctx context.Context, slug, excludeID string) (bool, error)
	List(ctx context.Context, filter models.ArticleFilter) ([]*models.Article, int, error)
	Count(ctx context.Context) (int, error)
}

// Repositories holds all repository interfaces
type Repositories struct {
	Category CategoryRepository
	Article  ArticleRepository
}

// New creates all repositories with the given database connection
func New(db *database.DB) *Repositories {
	return &Repositories{
		Category: NewCategoryRepo(db),
		Article:  NewArticleRepo(db),
	}
}

// constraintFields maps unique indexes to the column they guard
var constraintFields = map[string]string{
	"idx_categories_name": "name",
	"idx_categories_slug": "slug",
	"idx_articles_slug":   "slug",
}

// translate converts driver errors into repository errors
func translate(err error) error {
	if err == nil {
		return nil
	}
	if database.IsUniqueViolation(err) {
		field, ok := constraintFields[database.ConstraintName(err)]
		if !ok {
			field = "id"
		}
		return &DuplicateError{Field: field, Err: err}
	}
	return err
}

// validID reports whether id can be compared against a UUID column
func validID(id string) bool {
	_, err := uuid.Parse(id)
	return err == nil
}

// nullableID converts an exclusion id into a query argument
func nullableID(id string) interface{} {
	if !validID(id) {
		return nil
	}
	return id
}
