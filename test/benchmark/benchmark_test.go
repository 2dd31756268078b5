package benchmark

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/news-publishing-api/internal/mocks"
	"github.com/news-publishing-api/internal/models"
	"github.com/news-publishing-api/internal/policy"
	"github.com/news-publishing-api/internal/reconcile"
	"github.com/news-publishing-api/internal/slug"
	"github.com/news-publishing-api/internal/storage/memory"
	"github.com/news-publishing-api/internal/validation"
)

// seedArticles fills a mock repository with n published articles
func seedArticles(b *testing.B, n int) *mocks.MockArticleRepository {
	b.Helper()
	_, categories, articles := mocks.NewMockRepositories()
	ctx := context.Background()

	now := time.Now()
	categories.Create(ctx, &models.Category{ID: "cat-1", Name: "World", Slug: "world", CreatedAt: now, UpdatedAt: now})

	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	for i := 0; i < n; i++ {
		published := base.Add(time.Duration(i) * time.Minute)
		articles.Create(ctx, &models.Article{
			ID:            fmt.Sprintf("article-%06d", i),
			AuthorID:      "author-1",
			CategoryID:    "cat-1",
			Title:         fmt.Sprintf("Story %d", i),
			Slug:          fmt.Sprintf("story-%d", i),
			Status:        models.StatusPublished,
			PublishedAt:   &published,
			ContentBlocks: []models.ContentBlock{models.TextBlock("b1", "Body")},
			CreatedAt:     published,
			UpdatedAt:     published,
		})
	}
	return articles
}

// BenchmarkHomeFeed benchmarks one page of the published feed
func BenchmarkHomeFeed(b *testing.B) {
	articles := seedArticles(b, 1000)
	filter := policy.ListScope(models.Anonymous())
	filter.Limit = 12

	b.ResetTimer()
	b.ReportAllocs()

	for i := 0; i < b.N; i++ {
		articles.List(context.Background(), filter)
	}

	b.ReportMetric(float64(1000*b.N)/b.Elapsed().Seconds(), "rows/sec")
}

// BenchmarkSlugify benchmarks slug derivation from a title
func BenchmarkSlugify(b *testing.B) {
	title := "Élections 2024: Résultats & Analyse, Édition Spéciale"

	b.ReportAllocs()
	for i := 0; i < b.N; i++ {
		slug.Slugify(title)
	}
}

// BenchmarkValidateArticle benchmarks validation of a full submission
func BenchmarkValidateArticle(b *testing.B) {
	validator := validation.NewValidator(validation.DefaultLimits())

	blocks := make([]models.BlockInput, 0, 20)
	for i := 0; i < 20; i++ {
		body := fmt.Sprintf("Paragraph %d", i)
		blocks = append(blocks, models.BlockInput{
			ID:   fmt.Sprintf("b%d", i),
			Type: "text",
			Data: models.BlockDataInput{Text: &body},
		})
	}
	in := &models.ArticleInput{
		Title:         "Breaking News",
		CategoryID:    "9b2f7c1e-4a4d-4b55-8f1c-0c2b3c4d5e6f",
		Status:        "published",
		ContentBlocks: blocks,
	}

	b.ResetTimer()
	b.ReportAllocs()

	for i := 0; i < b.N; i++ {
		validator.ValidateArticle(in, validation.ModeCreate)
	}
}

// BenchmarkReconcileUnchanged benchmarks reconciling an edit that keeps
// every stored image
func BenchmarkReconcileUnchanged(b *testing.B) {
	reconciler := reconcile.New(memory.New("/storage"), zerolog.Nop())

	blocks := make([]models.ContentBlock, 0, 20)
	for i := 0; i < 20; i++ {
		id := fmt.Sprintf("b%d", i)
		if i%2 == 0 {
			blocks = append(blocks, models.ImageBlock(id, fmt.Sprintf("news_content_images/%d.png", i), "caption"))
		} else {
			blocks = append(blocks, models.TextBlock(id, "Body"))
		}
	}
	in := reconcile.Input{Previous: blocks, Submitted: blocks, PreviousFeatured: "news_featured_images/cover.png"}

	b.ResetTimer()
	b.ReportAllocs()

	for i := 0; i < b.N; i++ {
		reconciler.Reconcile(context.Background(), in)
	}
}
