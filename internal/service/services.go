package service

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/news-publishing-api/internal/config"
	"github.com/news-publishing-api/internal/models"
	"github.com/news-publishing-api/internal/reconcile"
	"github.com/news-publishing-api/internal/repository"
	"github.com/news-publishing-api/internal/storage"
	"github.com/news-publishing-api/internal/validation"
)

// ArticleService defines the interface for article operations
type ArticleService interface {
	Create(ctx context.Context, actor models.Actor, in *models.ArticleInput) (*models.Article, error)
	Update(ctx context.Context, actor models.Actor, slug string, in *models.ArticleInput) (*models.Article, error)
	Delete(ctx context.Context, actor models.Actor, slug string) error
	Get(ctx context.Context, actor models.Actor, slug string) (*models.Article, error)
	List(ctx context.Context, actor models.Actor, page models.PageRequest, categoryID string) (*models.Page[*models.Article], error)
	Home(ctx context.Context, page models.PageRequest) (*models.Page[*models.Article], error)
	CategoryFeed(ctx context.Context, categoryID string, page models.PageRequest) (*models.Page[*models.Article], error)
	MoreNews(ctx context.Context, article *models.Article, limit int) ([]*models.Article, error)
}

// CategoryService defines the interface for category operations
type CategoryService interface {
	Create(ctx context.Context, actor models.Actor, in *models.CategoryInput) (*models.Category, error)
	Update(ctx context.Context, actor models.Actor, slug string, in *models.CategoryInput) (*models.Category, error)
	Delete(ctx context.Context, actor models.Actor, slug string) error
	Get(ctx context.Context, slug string) (*models.Category, error)
	List(ctx context.Context, page models.PageRequest) (*models.Page[*models.Category], error)
}

// StatsService reports record counts
type StatsService interface {
	GetCount(ctx context.Context, resource string) (int, error)
}

// Services holds all service interfaces
type Services struct {
	Article  ArticleService
	Category CategoryService
	Stats    StatsService

	// Blobs resolves stored image references to URLs
	Blobs storage.BlobStore
}

// NewServices creates all services
func NewServices(repos *repository.Repositories, blobs storage.BlobStore, cfg *config.Config, log zerolog.Logger) *Services {
	validator := validation.NewValidator(validation.Limits{
		MaxImageSize:      cfg.Upload.MaxImageSize,
		AllowedImageTypes: cfg.Upload.AllowedImageTypes,
	})
	reconciler := reconcile.New(blobs, log)

	return &Services{
		Article:  newArticleService(repos, validator, reconciler, log),
		Category: newCategoryService(repos, validator, log),
		Stats:    &statsService{repos: repos},
		Blobs:    blobs,
	}
}

// statsService is the concrete implementation of StatsService
type statsService struct {
	repos *repository.Repositories
}

// GetCount returns the number of records of a resource
func (s *statsService) GetCount(ctx context.Context, resource string) (int, error) {
	switch resource {
	case "articles":
		return s.repos.Article.Count(ctx)
	case "categories":
		return s.repos.Category.Count(ctx)
	default:
		return 0, fmt.Errorf("unknown resource: %s", resource)
	}
}
