package repository_test

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/news-publishing-api/internal/mocks"
	"github.com/news-publishing-api/internal/models"
	"github.com/news-publishing-api/internal/repository"
)

func newCategory(id, name string) *models.Category {
	now := time.Now()
	return &models.Category{ID: id, Name: name, Slug: name, CreatedAt: now, UpdatedAt: now}
}

func newArticle(id, categoryID, slug string, publishedAt *time.Time) *models.Article {
	status := models.StatusDraft
	if publishedAt != nil {
		status = models.StatusPublished
	}
	return &models.Article{
		ID:            id,
		AuthorID:      "author-1",
		CategoryID:    categoryID,
		Title:         slug,
		Slug:          slug,
		Status:        status,
		PublishedAt:   publishedAt,
		ContentBlocks: []models.ContentBlock{models.TextBlock("b1", "Body")},
		CreatedAt:     time.Now(),
		UpdatedAt:     time.Now(),
	}
}

func TestMockCategoryRepository_UniqueName(t *testing.T) {
	repo := mocks.NewMockCategoryRepository()
	ctx := context.Background()

	if err := repo.Create(ctx, newCategory("cat-1", "world")); err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	dup := newCategory("cat-2", "world")
	dup.Slug = "world-2"
	err := repo.Create(ctx, dup)

	var derr *repository.DuplicateError
	if !errors.As(err, &derr) || derr.Field != "name" {
		t.Fatalf("Expected duplicate name error, got %v", err)
	}
	if !errors.Is(err, repository.ErrDuplicate) {
		t.Error("Expected error to match ErrDuplicate")
	}

	exists, err := repo.NameExists(ctx, "world", "cat-1")
	if err != nil {
		t.Fatalf("NameExists failed: %v", err)
	}
	if exists {
		t.Error("Expected own name to be excluded")
	}
}

func TestMockCategoryRepository_NotFoundReturnsNil(t *testing.T) {
	repo := mocks.NewMockCategoryRepository()

	category, err := repo.GetBySlug(context.Background(), "missing")
	if err != nil {
		t.Fatalf("GetBySlug failed: %v", err)
	}
	if category != nil {
		t.Errorf("Expected nil category, got %+v", category)
	}
}

func TestMockArticleRepository_CategoryReference(t *testing.T) {
	repos, categories, articles := mocks.NewMockRepositories()
	ctx := context.Background()

	err := repos.Article.Create(ctx, newArticle("a-1", "cat-1", "orphan", nil))
	if !errors.Is(err, repository.ErrMissingReference) {
		t.Fatalf("Expected ErrMissingReference, got %v", err)
	}

	if err := categories.Create(ctx, newCategory("cat-1", "world")); err != nil {
		t.Fatalf("Create category failed: %v", err)
	}
	if err := repos.Article.Create(ctx, newArticle("a-1", "cat-1", "story", nil)); err != nil {
		t.Fatalf("Create article failed: %v", err)
	}

	count, _ := categories.CountArticles(ctx, "cat-1")
	if count != 1 {
		t.Errorf("Expected 1 article in category, got %d", count)
	}

	if err := categories.Delete(ctx, "cat-1"); !errors.Is(err, repository.ErrInUse) {
		t.Errorf("Expected ErrInUse, got %v", err)
	}

	if err := articles.Delete(ctx, "a-1"); err != nil {
		t.Fatalf("Delete article failed: %v", err)
	}
	if err := categories.Delete(ctx, "cat-1"); err != nil {
		t.Errorf("Expected empty category to be deletable, got %v", err)
	}
}

func TestMockArticleRepository_UniqueSlug(t *testing.T) {
	repos, categories, _ := mocks.NewMockRepositories()
	ctx := context.Background()
	categories.Create(ctx, newCategory("cat-1", "world"))

	if err := repos.Article.Create(ctx, newArticle("a-1", "cat-1", "story", nil)); err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	err := repos.Article.Create(ctx, newArticle("a-2", "cat-1", "story", nil))
	var derr *repository.DuplicateError
	if !errors.As(err, &derr) || derr.Field != "slug" {
		t.Fatalf("Expected duplicate slug error, got %v", err)
	}

	exists, _ := repos.Article.SlugExists(ctx, "story", "a-1")
	if exists {
		t.Error("Expected own slug to be excluded")
	}
	exists, _ = repos.Article.SlugExists(ctx, "story", "")
	if !exists {
		t.Error("Expected slug to exist")
	}
}

func TestMockArticleRepository_ListOrderingAndVisibility(t *testing.T) {
	repos, categories, _ := mocks.NewMockRepositories()
	ctx := context.Background()
	categories.Create(ctx, newCategory("cat-1", "world"))

	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	for i := 0; i < 5; i++ {
		published := base.Add(time.Duration(i) * time.Hour)
		repos.Article.Create(ctx, newArticle(fmt.Sprintf("a-%d", i), "cat-1", fmt.Sprintf("story-%d", i), &published))
	}
	repos.Article.Create(ctx, newArticle("draft", "cat-1", "draft", nil))

	items, total, err := repos.Article.List(ctx, models.ArticleFilter{PublishedOnly: true, Limit: 2, Offset: 2})
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if total != 5 {
		t.Errorf("Expected total 5, got %d", total)
	}
	if len(items) != 2 || items[0].Slug != "story-2" || items[1].Slug != "story-1" {
		t.Errorf("Unexpected page: %v", slugs(items))
	}
	if items[0].Category == nil || items[0].Category.Name != "world" {
		t.Error("Expected category to be attached")
	}

	items, total, _ = repos.Article.List(ctx, models.ArticleFilter{PublishedOnly: true, IncludeAuthorID: "author-1"})
	if total != 6 {
		t.Errorf("Expected author to see drafts, got total %d", total)
	}
	if items[len(items)-1].Slug != "draft" {
		t.Errorf("Expected unpublished article last, got %v", slugs(items))
	}
}

func slugs(items []*models.Article) []string {
	out := make([]string, len(items))
	for i, a := range items {
		out[i] = a.Slug
	}
	return out
}
