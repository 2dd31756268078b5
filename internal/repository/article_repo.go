package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/news-publishing-api/internal/database"
	"github.com/news-publishing-api/internal/models"
	"github.com/news-publishing-api/internal/policy"
)

// articleRepo is the concrete implementation of ArticleRepository
type articleRepo struct {
	db *database.DB
}

// NewArticleRepo creates a new article repository
func NewArticleRepo(db *database.DB) ArticleRepository {
	return &articleRepo{db: db}
}

const articleSelect = `
	SELECT a.id, a.author_id, a.category_id, a.title, a.slug, a.status, a.published_at,
		a.featured_image_ref, a.content_blocks, a.created_at, a.updated_at,
		c.id, c.name, c.slug, c.description, c.created_at, c.updated_at
	FROM articles a
	JOIN categories c ON c.id = a.category_id
`

// Create inserts a new article
func (r *articleRepo) Create(ctx context.Context, article *models.Article) error {
	blocksJSON, err := encodeBlocks(article.ContentBlocks)
	if err != nil {
		return err
	}

	query := `
		INSERT INTO articles (id, author_id, category_id, title, slug, status, published_at,
			featured_image_ref, content_blocks, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	`
	_, err = r.db.ExecContext(ctx, query,
		article.ID, article.AuthorID, article.CategoryID, article.Title, article.Slug,
		article.Status, article.PublishedAt, nullString(article.FeaturedImage), blocksJSON,
		article.CreatedAt, article.UpdatedAt,
	)
	if database.IsForeignKeyViolation(err) {
		return ErrMissingReference
	}
	return translate(err)
}

// Update overwrites every mutable column of an article
func (r *articleRepo) Update(ctx context.Context, article *models.Article) error {
	blocksJSON, err := encodeBlocks(article.ContentBlocks)
	if err != nil {
		return err
	}

	query := `
		UPDATE articles SET category_id = $2, title = $3, slug = $4, status = $5, published_at = $6,
			featured_image_ref = $7, content_blocks = $8, updated_at = $9
		WHERE id = $1
	`
	res, err := r.db.ExecContext(ctx, query,
		article.ID, article.CategoryID, article.Title, article.Slug, article.Status,
		article.PublishedAt, nullString(article.FeaturedImage), blocksJSON, article.UpdatedAt,
	)
	if database.IsForeignKeyViolation(err) {
		return ErrMissingReference
	}
	if err != nil {
		return translate(err)
	}
	return requireRow(res)
}

// Delete removes an article
func (r *articleRepo) Delete(ctx context.Context, id string) error {
	if !validID(id) {
		return ErrNotFound
	}
	res, err := r.db.ExecContext(ctx, "DELETE FROM articles WHERE id = $1", id)
	if err != nil {
		return err
	}
	return requireRow(res)
}

// GetByID retrieves an article and its category by ID
func (r *articleRepo) GetByID(ctx context.Context, id string) (*models.Article, error) {
	if !validID(id) {
		return nil, nil
	}
	return r.getOne(ctx, articleSelect+" WHERE a.id = $1", id)
}

// GetBySlug retrieves an article and its category by slug
func (r *articleRepo) GetBySlug(ctx context.Context, slug string) (*models.Article, error) {
	return r.getOne(ctx, articleSelect+" WHERE a.slug = $1", slug)
}

func (r *articleRepo) getOne(ctx context.Context, query string, arg string) (*models.Article, error) {
	article, err := scanArticle(r.db.QueryRowContext(ctx, query, arg))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return article, nil
}

// SlugExists checks if another article uses slug
func (r *articleRepo) SlugExists(ctx context.Context, slug, excludeID string) (bool, error) {
	var exists bool
	err := r.db.QueryRowContext(ctx,
		"SELECT EXISTS(SELECT 1 FROM articles WHERE slug = $1 AND ($2::uuid IS NULL OR id <> $2::uuid))",
		slug, nullableID(excludeID),
	).Scan(&exists)
	return exists, err
}

// List returns the articles matching filter, newest first, and the total
// number of matches ignoring Limit and Offset
func (r *articleRepo) List(ctx context.Context, filter models.ArticleFilter) ([]*models.Article, int, error) {
	where, args := articleWhere(filter)

	var total int
	if err := r.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM articles a"+where, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	query := articleSelect + where + " ORDER BY " + policy.OrderByClause
	if filter.Limit > 0 {
		args = append(args, filter.Limit, filter.Offset)
		query += fmt.Sprintf(" LIMIT $%d OFFSET $%d", len(args)-1, len(args))
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var articles []*models.Article
	for rows.Next() {
		article, err := scanArticle(rows)
		if err != nil {
			return nil, 0, err
		}
		articles = append(articles, article)
	}
	return articles, total, rows.Err()
}

// Count returns the total number of articles
func (r *articleRepo) Count(ctx context.Context) (int, error) {
	var count int
	err := r.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM articles").Scan(&count)
	return count, err
}

// articleWhere renders filter as a WHERE clause over alias a
func articleWhere(filter models.ArticleFilter) (string, []interface{}) {
	var conds []string
	var args []interface{}
	arg := func(v interface{}) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}

	if filter.PublishedOnly {
		published := "a.status = " + arg(string(models.StatusPublished))
		if filter.IncludeAuthorID != "" {
			published = "(" + published + " OR a.author_id = " + arg(filter.IncludeAuthorID) + ")"
		}
		conds = append(conds, published)
	}
	if filter.CategoryID != "" {
		conds = append(conds, "a.category_id = "+arg(nullableID(filter.CategoryID)))
	}
	if filter.ExcludeID != "" && validID(filter.ExcludeID) {
		conds = append(conds, "a.id <> "+arg(filter.ExcludeID))
	}

	if len(conds) == 0 {
		return "", nil
	}
	return " WHERE " + strings.Join(conds, " AND "), args
}

func scanArticle(row scanner) (*models.Article, error) {
	var article models.Article
	var category models.Category
	var publishedAt sql.NullTime
	var featured, description sql.NullString
	var blocksJSON []byte

	err := row.Scan(
		&article.ID, &article.AuthorID, &article.CategoryID, &article.Title, &article.Slug,
		&article.Status, &publishedAt, &featured, &blocksJSON, &article.CreatedAt, &article.UpdatedAt,
		&category.ID, &category.Name, &category.Slug, &description, &category.CreatedAt, &category.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	if err := json.Unmarshal(blocksJSON, &article.ContentBlocks); err != nil {
		return nil, fmt.Errorf("decode content blocks of article %s: %w", article.ID, err)
	}
	if publishedAt.Valid {
		article.PublishedAt = &publishedAt.Time
	}
	article.FeaturedImage = featured.String
	if description.Valid {
		category.Description = &description.String
	}
	article.Category = &category

	return &article, nil
}

func encodeBlocks(blocks []models.ContentBlock) ([]byte, error) {
	if blocks == nil {
		blocks = []models.ContentBlock{}
	}
	data, err := json.Marshal(blocks)
	if err != nil {
		return nil, fmt.Errorf("encode content blocks: %w", err)
	}
	return data, nil
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
