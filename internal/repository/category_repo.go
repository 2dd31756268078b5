package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/news-publishing-api/internal/database"
	"github.com/news-publishing-api/internal/models"
)

// categoryRepo is the concrete implementation of CategoryRepository
type categoryRepo struct {
	db *database.DB
}

// NewCategoryRepo creates a new category repository
func NewCategoryRepo(db *database.DB) CategoryRepository {
	return &categoryRepo{db: db}
}

const categoryColumns = `c.id, c.name, c.slug, c.description, c.created_at, c.updated_at,
	(SELECT COUNT(*) FROM articles a WHERE a.category_id = c.id)`

// Create inserts a new category
func (r *categoryRepo) Create(ctx context.Context, category *models.Category) error {
	query := `
		INSERT INTO categories (id, name, slug, description, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`
	_, err := r.db.ExecContext(ctx, query,
		category.ID, category.Name, category.Slug, category.Description,
		category.CreatedAt, category.UpdatedAt,
	)
	return translate(err)
}

// Update saves name, slug and description of an existing category
func (r *categoryRepo) Update(ctx context.Context, category *models.Category) error {
	query := `
		UPDATE categories SET name = $2, slug = $3, description = $4, updated_at = $5
		WHERE id = $1
	`
	res, err := r.db.ExecContext(ctx, query,
		category.ID, category.Name, category.Slug, category.Description, category.UpdatedAt,
	)
	if err != nil {
		return translate(err)
	}
	return requireRow(res)
}

// Delete removes a category. Categories that still own articles are
// protected by the foreign key and yield ErrInUse.
func (r *categoryRepo) Delete(ctx context.Context, id string) error {
	if !validID(id) {
		return ErrNotFound
	}
	res, err := r.db.ExecContext(ctx, "DELETE FROM categories WHERE id = $1", id)
	if database.IsForeignKeyViolation(err) {
		return ErrInUse
	}
	if err != nil {
		return err
	}
	return requireRow(res)
}

// GetByID retrieves a category by ID
func (r *categoryRepo) GetByID(ctx context.Context, id string) (*models.Category, error) {
	if !validID(id) {
		return nil, nil
	}
	return r.getOne(ctx, "SELECT "+categoryColumns+" FROM categories c WHERE c.id = $1", id)
}

// GetBySlug retrieves a category by slug
func (r *categoryRepo) GetBySlug(ctx context.Context, slug string) (*models.Category, error) {
	return r.getOne(ctx, "SELECT "+categoryColumns+" FROM categories c WHERE c.slug = $1", slug)
}

func (r *categoryRepo) getOne(ctx context.Context, query string, arg string) (*models.Category, error) {
	category, err := scanCategory(r.db.QueryRowContext(ctx, query, arg))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return category, nil
}

// SlugExists checks if another category uses slug
func (r *categoryRepo) SlugExists(ctx context.Context, slug, excludeID string) (bool, error) {
	var exists bool
	err := r.db.QueryRowContext(ctx,
		"SELECT EXISTS(SELECT 1 FROM categories WHERE slug = $1 AND ($2::uuid IS NULL OR id <> $2::uuid))",
		slug, nullableID(excludeID),
	).Scan(&exists)
	return exists, err
}

// NameExists checks if another category uses name
func (r *categoryRepo) NameExists(ctx context.Context, name, excludeID string) (bool, error) {
	var exists bool
	err := r.db.QueryRowContext(ctx,
		"SELECT EXISTS(SELECT 1 FROM categories WHERE name = $1 AND ($2::uuid IS NULL OR id <> $2::uuid))",
		name, nullableID(excludeID),
	).Scan(&exists)
	return exists, err
}

// List returns one page of categories ordered by name, with article counts
func (r *categoryRepo) List(ctx context.Context, page models.PageRequest) ([]*models.Category, int, error) {
	total, err := r.Count(ctx)
	if err != nil {
		return nil, 0, err
	}

	rows, err := r.db.QueryContext(ctx,
		"SELECT "+categoryColumns+" FROM categories c ORDER BY c.name LIMIT $1 OFFSET $2",
		page.PerPage, page.Offset(),
	)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	categories := make([]*models.Category, 0, page.PerPage)
	for rows.Next() {
		category, err := scanCategory(rows)
		if err != nil {
			return nil, 0, err
		}
		categories = append(categories, category)
	}
	return categories, total, rows.Err()
}

// CountArticles returns the number of articles in a category
func (r *categoryRepo) CountArticles(ctx context.Context, id string) (int, error) {
	if !validID(id) {
		return 0, nil
	}
	var count int
	err := r.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM articles WHERE category_id = $1", id).Scan(&count)
	return count, err
}

// Count returns the total number of categories
func (r *categoryRepo) Count(ctx context.Context) (int, error) {
	var count int
	err := r.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM categories").Scan(&count)
	return count, err
}

type scanner interface {
	Scan(dest ...interface{}) error
}

func scanCategory(row scanner) (*models.Category, error) {
	var category models.Category
	var description sql.NullString

	err := row.Scan(
		&category.ID, &category.Name, &category.Slug, &description,
		&category.CreatedAt, &category.UpdatedAt, &category.ArticleCount,
	)
	if err != nil {
		return nil, err
	}
	if description.Valid {
		category.Description = &description.String
	}
	return &category, nil
}

func requireRow(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}
