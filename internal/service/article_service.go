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
	"github.com/news-publishing-api/internal/reconcile"
	"github.com/news-publishing-api/internal/repository"
	"github.com/news-publishing-api/internal/slug"
	"github.com/news-publishing-api/internal/validation"
)

const (
	// maxSlugAttempts bounds regeneration after a unique violation
	maxSlugAttempts = 3

	msgSlugTaken       = "the slug has already been taken"
	msgUnknownCategory = "the selected category does not exist"
	msgUnknownImage    = "the image does not belong to this content block"
)

// articleService is the concrete implementation of ArticleService
type articleService struct {
	repos      *repository.Repositories
	validator  *validation.Validator
	reconciler *reconcile.Reconciler
	now        func() time.Time
	log        zerolog.Logger
}

// newArticleService creates a new ArticleService
func newArticleService(repos *repository.Repositories, validator *validation.Validator, reconciler *reconcile.Reconciler, log zerolog.Logger) *articleService {
	return &articleService{
		repos:      repos,
		validator:  validator,
		reconciler: reconciler,
		now:        func() time.Time { return time.Now().UTC() },
		log:        log.With().Str("service", "article").Logger(),
	}
}

// Create validates a submission, stores its uploads and persists a new
// article owned by actor
func (s *articleService) Create(ctx context.Context, actor models.Actor, in *models.ArticleInput) (*models.Article, error) {
	if err := policy.RequireActor(actor); err != nil {
		return nil, err
	}

	v, errs := s.validator.ValidateArticle(in, validation.ModeCreate)
	if errs != nil {
		return nil, invalid(errs)
	}
	if err := s.checkReferences(ctx, v, ""); err != nil {
		return nil, err
	}

	plan, err := s.reconciler.Reconcile(ctx, reconcile.Input{
		Submitted:      v.ContentBlocks,
		FeaturedUpload: v.FeaturedImage,
	})
	if err != nil {
		return nil, s.reconcileError(err)
	}

	now := s.now()
	article := &models.Article{
		ID:            uuid.New().String(),
		AuthorID:      actor.UserID,
		CategoryID:    v.CategoryID,
		Title:         v.Title,
		Slug:          v.Slug,
		FeaturedImage: plan.FeaturedImage,
		ContentBlocks: plan.Blocks,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	status := models.StatusDraft
	if v.Status != nil {
		status = *v.Status
	}
	article.ApplyStatus(status, v.PublishedAt, now)

	err = s.save(ctx, article, v.Slug == "", s.repos.Article.Create)
	metrics.ObserveContentWrite("article", "create", err)
	if err != nil {
		s.reconciler.Cleanup(ctx, plan.Written)
		return nil, err
	}

	s.log.Info().
		Str("article_id", article.ID).
		Str("slug", article.Slug).
		Str("author_id", article.AuthorID).
		Int("blocks", len(article.ContentBlocks)).
		Msg("Article created")

	return s.reload(ctx, article)
}

// Update replaces an article's fields and content blocks with the
// submission, storing new uploads and removing superseded images once the
// new state is persisted
func (s *articleService) Update(ctx context.Context, actor models.Actor, articleSlug string, in *models.ArticleInput) (*models.Article, error) {
	existing, err := s.findMutable(ctx, actor, articleSlug)
	if err != nil {
		return nil, err
	}

	v, errs := s.validator.ValidateArticle(in, validation.ModeUpdate)
	if errs != nil {
		return nil, invalid(errs)
	}
	if err := s.checkReferences(ctx, v, existing.ID); err != nil {
		return nil, err
	}

	plan, err := s.reconciler.Reconcile(ctx, reconcile.Input{
		Previous:         existing.ContentBlocks,
		Submitted:        v.ContentBlocks,
		PreviousFeatured: existing.FeaturedImage,
		RemoveFeatured:   v.RemoveFeaturedImage,
		FeaturedUpload:   v.FeaturedImage,
	})
	if err != nil {
		return nil, s.reconcileError(err)
	}

	now := s.now()
	updated := *existing
	updated.Category = nil
	updated.CategoryID = v.CategoryID
	updated.FeaturedImage = plan.FeaturedImage
	updated.ContentBlocks = plan.Blocks
	updated.UpdatedAt = now

	regenerate := false
	switch {
	case v.Slug != "":
		updated.Slug = v.Slug
	case v.Title != existing.Title:
		regenerate = true
	}
	updated.Title = v.Title

	switch {
	case v.Status != nil:
		updated.ApplyStatus(*v.Status, v.PublishedAt, now)
	case v.PublishedAt != nil:
		updated.ApplyStatus(existing.Status, v.PublishedAt, now)
	}

	err = s.save(ctx, &updated, regenerate, s.repos.Article.Update)
	metrics.ObserveContentWrite("article", "update", err)
	if err != nil {
		s.reconciler.Cleanup(ctx, plan.Written)
		return nil, err
	}

	if failed := s.reconciler.Cleanup(ctx, plan.Delete); failed > 0 {
		s.log.Warn().Str("article_id", updated.ID).Int("failed", failed).Msg("Some superseded images could not be removed")
	}

	s.log.Info().
		Str("article_id", updated.ID).
		Str("slug", updated.Slug).
		Int("stored", len(plan.Written)).
		Int("removed", len(plan.Delete)).
		Msg("Article updated")

	return s.reload(ctx, &updated)
}

// Delete removes an article and then, best effort, every image it references
func (s *articleService) Delete(ctx context.Context, actor models.Actor, articleSlug string) error {
	existing, err := s.findMutable(ctx, actor, articleSlug)
	if err != nil {
		return err
	}

	err = s.repos.Article.Delete(ctx, existing.ID)
	metrics.ObserveContentWrite("article", "delete", err)
	if errors.Is(err, repository.ErrNotFound) {
		return ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("failed to delete article: %w", err)
	}

	refs := models.BlobRefs(existing.ContentBlocks)
	if existing.FeaturedImage != "" {
		refs = append(refs, existing.FeaturedImage)
	}
	s.reconciler.Cleanup(ctx, refs)

	s.log.Info().Str("article_id", existing.ID).Int("images", len(refs)).Msg("Article deleted")
	return nil
}

// Get returns an article the actor may view. Articles hidden from the actor
// are reported as not found.
func (s *articleService) Get(ctx context.Context, actor models.Actor, articleSlug string) (*models.Article, error) {
	article, err := s.repos.Article.GetBySlug(ctx, articleSlug)
	if err != nil {
		return nil, fmt.Errorf("failed to load article: %w", err)
	}
	if !policy.CanView(actor, article) {
		return nil, ErrNotFound
	}
	return article, nil
}

// List returns the actor's scoped article listing, optionally limited to a
// category
func (s *articleService) List(ctx context.Context, actor models.Actor, page models.PageRequest, categoryID string) (*models.Page[*models.Article], error) {
	filter := policy.ListScope(actor)
	filter.CategoryID = categoryID
	return s.page(ctx, filter, page)
}

// Home returns the public feed of published articles
func (s *articleService) Home(ctx context.Context, page models.PageRequest) (*models.Page[*models.Article], error) {
	return s.page(ctx, models.ArticleFilter{PublishedOnly: true}, page)
}

// CategoryFeed returns the published articles of one category
func (s *articleService) CategoryFeed(ctx context.Context, categoryID string, page models.PageRequest) (*models.Page[*models.Article], error) {
	return s.page(ctx, models.ArticleFilter{PublishedOnly: true, CategoryID: categoryID}, page)
}

// MoreNews returns up to limit other published articles, newest first
func (s *articleService) MoreNews(ctx context.Context, article *models.Article, limit int) ([]*models.Article, error) {
	articles, _, err := s.repos.Article.List(ctx, models.ArticleFilter{
		PublishedOnly: true,
		ExcludeID:     article.ID,
		Limit:         limit,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list more news: %w", err)
	}
	return articles, nil
}

func (s *articleService) page(ctx context.Context, filter models.ArticleFilter, page models.PageRequest) (*models.Page[*models.Article], error) {
	filter.Limit = page.PerPage
	filter.Offset = page.Offset()

	articles, total, err := s.repos.Article.List(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("failed to list articles: %w", err)
	}
	if articles == nil {
		articles = []*models.Article{}
	}
	return &models.Page[*models.Article]{
		Items:   articles,
		Total:   total,
		Page:    page.Page,
		PerPage: page.PerPage,
	}, nil
}

// findMutable loads an article for update or delete, checking in order that
// the actor is signed in, may see it, and owns it
func (s *articleService) findMutable(ctx context.Context, actor models.Actor, articleSlug string) (*models.Article, error) {
	if err := policy.RequireActor(actor); err != nil {
		return nil, err
	}
	existing, err := s.Get(ctx, actor, articleSlug)
	if err != nil {
		return nil, err
	}
	if err := policy.CanMutate(actor, existing); err != nil {
		return nil, err
	}
	return existing, nil
}

// checkReferences verifies the category exists and an explicit slug is free
func (s *articleService) checkReferences(ctx context.Context, v *validation.ValidatedArticle, excludeID string) error {
	category, err := s.repos.Category.GetByID(ctx, v.CategoryID)
	if err != nil {
		return fmt.Errorf("failed to load category: %w", err)
	}
	if category == nil {
		return invalidField("category_id", msgUnknownCategory)
	}

	if v.Slug != "" {
		taken, err := s.repos.Article.SlugExists(ctx, v.Slug, excludeID)
		if err != nil {
			return fmt.Errorf("failed to check slug: %w", err)
		}
		if taken {
			return invalidField("slug", msgSlugTaken)
		}
	}
	return nil
}

// save writes article, generating its slug from the title when regenerate
// is set. A unique violation on a generated slug is retried with a fresh
// slug; on an explicit slug it is a validation error.
func (s *articleService) save(ctx context.Context, article *models.Article, regenerate bool, write func(context.Context, *models.Article) error) error {
	for attempt := 1; ; attempt++ {
		if regenerate {
			generated, err := slug.GenerateUnique(ctx, article.Title, article.ID, s.repos.Article.SlugExists)
			if err != nil {
				return fmt.Errorf("failed to generate slug: %w", err)
			}
			article.Slug = generated
		}

		err := write(ctx, article)
		var dup *repository.DuplicateError
		switch {
		case err == nil:
			return nil
		case errors.As(err, &dup) && dup.Field == "slug":
			metrics.ObserveSlugConflict("article")
			if !regenerate {
				return invalidField("slug", msgSlugTaken)
			}
			if attempt >= maxSlugAttempts {
				return &ConflictError{Field: "slug", Message: "could not reserve a unique slug", Retryable: true}
			}
			s.log.Debug().Str("slug", article.Slug).Int("attempt", attempt).Msg("Slug taken concurrently, regenerating")
		case errors.Is(err, repository.ErrMissingReference):
			return invalidField("category_id", msgUnknownCategory)
		case errors.Is(err, repository.ErrNotFound):
			return ErrNotFound
		default:
			return fmt.Errorf("failed to save article: %w", err)
		}
	}
}

func (s *articleService) reconcileError(err error) error {
	var refErr *reconcile.UnknownRefError
	if errors.As(err, &refErr) {
		return invalidField(refErr.Field(), msgUnknownImage)
	}
	return fmt.Errorf("failed to store images: %w", err)
}

// reload returns the persisted article with its category attached
func (s *articleService) reload(ctx context.Context, article *models.Article) (*models.Article, error) {
	stored, err := s.repos.Article.GetByID(ctx, article.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to reload article: %w", err)
	}
	if stored == nil {
		return article, nil
	}
	return stored, nil
}
