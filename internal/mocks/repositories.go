package mocks

import (
	"context"
	"sort"
	"sync"

	"github.com/news-publishing-api/internal/models"
	"github.com/news-publishing-api/internal/policy"
	"github.com/news-publishing-api/internal/repository"
)

// MockCategoryRepository is an in-memory implementation of CategoryRepository
// enforcing unique names and slugs and the article foreign key
type MockCategoryRepository struct {
	mu         sync.RWMutex
	Categories map[string]*models.Category
	CreateErr  error
	articles   *MockArticleRepository
}

func NewMockCategoryRepository() *MockCategoryRepository {
	return &MockCategoryRepository{
		Categories: make(map[string]*models.Category),
	}
}

func (m *MockCategoryRepository) Create(ctx context.Context, category *models.Category) error {
	if m.CreateErr != nil {
		return m.CreateErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.checkUnique(category); err != nil {
		return err
	}
	c := *category
	m.Categories[c.ID] = &c
	return nil
}

func (m *MockCategoryRepository) Update(ctx context.Context, category *models.Category) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.Categories[category.ID]; !ok {
		return repository.ErrNotFound
	}
	if err := m.checkUnique(category); err != nil {
		return err
	}
	c := *category
	m.Categories[c.ID] = &c
	return nil
}

func (m *MockCategoryRepository) checkUnique(category *models.Category) error {
	for _, existing := range m.Categories {
		if existing.ID == category.ID {
			continue
		}
		if existing.Name == category.Name {
			return &repository.DuplicateError{Field: "name"}
		}
		if existing.Slug == category.Slug {
			return &repository.DuplicateError{Field: "slug"}
		}
	}
	return nil
}

func (m *MockCategoryRepository) Delete(ctx context.Context, id string) error {
	if n, _ := m.CountArticles(ctx, id); n > 0 {
		return repository.ErrInUse
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.Categories[id]; !ok {
		return repository.ErrNotFound
	}
	delete(m.Categories, id)
	return nil
}

func (m *MockCategoryRepository) GetByID(ctx context.Context, id string) (*models.Category, error) {
	m.mu.RLock()
	c, ok := m.Categories[id]
	m.mu.RUnlock()
	if !ok {
		return nil, nil
	}
	return m.withCount(ctx, c), nil
}

func (m *MockCategoryRepository) GetBySlug(ctx context.Context, slug string) (*models.Category, error) {
	m.mu.RLock()
	var found *models.Category
	for _, c := range m.Categories {
		if c.Slug == slug {
			found = c
			break
		}
	}
	m.mu.RUnlock()
	if found == nil {
		return nil, nil
	}
	return m.withCount(ctx, found), nil
}

func (m *MockCategoryRepository) withCount(ctx context.Context, c *models.Category) *models.Category {
	out := *c
	out.ArticleCount, _ = m.CountArticles(ctx, c.ID)
	return &out
}

func (m *MockCategoryRepository) SlugExists(ctx context.Context, slug, excludeID string) (bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, c := range m.Categories {
		if c.Slug == slug && c.ID != excludeID {
			return true, nil
		}
	}
	return false, nil
}

func (m *MockCategoryRepository) NameExists(ctx context.Context, name, excludeID string) (bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, c := range m.Categories {
		if c.Name == name && c.ID != excludeID {
			return true, nil
		}
	}
	return false, nil
}

func (m *MockCategoryRepository) List(ctx context.Context, page models.PageRequest) ([]*models.Category, int, error) {
	m.mu.RLock()
	all := make([]*models.Category, 0, len(m.Categories))
	for _, c := range m.Categories {
		all = append(all, c)
	}
	m.mu.RUnlock()

	sort.Slice(all, func(i, j int) bool { return all[i].Name < all[j].Name })

	out := make([]*models.Category, 0, page.PerPage)
	for _, c := range paginate(all, page.Offset(), page.PerPage) {
		out = append(out, m.withCount(ctx, c))
	}
	return out, len(all), nil
}

func (m *MockCategoryRepository) CountArticles(ctx context.Context, id string) (int, error) {
	if m.articles == nil {
		return 0, nil
	}
	m.articles.mu.RLock()
	defer m.articles.mu.RUnlock()
	n := 0
	for _, a := range m.articles.Articles {
		if a.CategoryID == id {
			n++
		}
	}
	return n, nil
}

func (m *MockCategoryRepository) Count(ctx context.Context) (int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.Categories), nil
}

// MockArticleRepository is an in-memory implementation of ArticleRepository
// enforcing unique slugs and, when linked to a category repository, the
// category foreign key
type MockArticleRepository struct {
	mu         sync.RWMutex
	Articles   map[string]*models.Article
	CreateErr  error
	UpdateErr  error
	DeleteErr  error
	categories *MockCategoryRepository

	// SlugExistsFunc overrides SlugExists when set
	SlugExistsFunc func(slug, excludeID string) bool
}

// NewMockArticleRepository creates an article repository. When categories is
// not nil the two are linked so category deletes see article references.
func NewMockArticleRepository(categories *MockCategoryRepository) *MockArticleRepository {
	m := &MockArticleRepository{
		Articles:   make(map[string]*models.Article),
		categories: categories,
	}
	if categories != nil {
		categories.articles = m
	}
	return m
}

// NewMockRepositories creates linked category and article mocks
func NewMockRepositories() (*repository.Repositories, *MockCategoryRepository, *MockArticleRepository) {
	categories := NewMockCategoryRepository()
	articles := NewMockArticleRepository(categories)
	return &repository.Repositories{Category: categories, Article: articles}, categories, articles
}

func (m *MockArticleRepository) Create(ctx context.Context, article *models.Article) error {
	if m.CreateErr != nil {
		return m.CreateErr
	}
	if err := m.checkCategory(ctx, article.CategoryID); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.slugTaken(article.Slug, article.ID) {
		return &repository.DuplicateError{Field: "slug"}
	}
	m.Articles[article.ID] = copyArticle(article)
	return nil
}

func (m *MockArticleRepository) Update(ctx context.Context, article *models.Article) error {
	if m.UpdateErr != nil {
		return m.UpdateErr
	}
	if err := m.checkCategory(ctx, article.CategoryID); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	existing, ok := m.Articles[article.ID]
	if !ok {
		return repository.ErrNotFound
	}
	if m.slugTaken(article.Slug, article.ID) {
		return &repository.DuplicateError{Field: "slug"}
	}
	stored := copyArticle(article)
	stored.AuthorID = existing.AuthorID
	stored.CreatedAt = existing.CreatedAt
	m.Articles[article.ID] = stored
	return nil
}

func (m *MockArticleRepository) checkCategory(ctx context.Context, id string) error {
	if m.categories == nil {
		return nil
	}
	if c, _ := m.categories.GetByID(ctx, id); c == nil {
		return repository.ErrMissingReference
	}
	return nil
}

func (m *MockArticleRepository) slugTaken(slug, excludeID string) bool {
	for _, a := range m.Articles {
		if a.Slug == slug && a.ID != excludeID {
			return true
		}
	}
	return false
}

func (m *MockArticleRepository) Delete(ctx context.Context, id string) error {
	if m.DeleteErr != nil {
		return m.DeleteErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.Articles[id]; !ok {
		return repository.ErrNotFound
	}
	delete(m.Articles, id)
	return nil
}

func (m *MockArticleRepository) GetByID(ctx context.Context, id string) (*models.Article, error) {
	m.mu.RLock()
	a, ok := m.Articles[id]
	m.mu.RUnlock()
	if !ok {
		return nil, nil
	}
	return m.hydrate(ctx, a), nil
}

func (m *MockArticleRepository) GetBySlug(ctx context.Context, slug string) (*models.Article, error) {
	m.mu.RLock()
	var found *models.Article
	for _, a := range m.Articles {
		if a.Slug == slug {
			found = a
			break
		}
	}
	m.mu.RUnlock()
	if found == nil {
		return nil, nil
	}
	return m.hydrate(ctx, found), nil
}

func (m *MockArticleRepository) SlugExists(ctx context.Context, slug, excludeID string) (bool, error) {
	if m.SlugExistsFunc != nil {
		return m.SlugExistsFunc(slug, excludeID), nil
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.slugTaken(slug, excludeID), nil
}

func (m *MockArticleRepository) List(ctx context.Context, filter models.ArticleFilter) ([]*models.Article, int, error) {
	m.mu.RLock()
	var matched []*models.Article
	for _, a := range m.Articles {
		if policy.Visible(filter, a) {
			matched = append(matched, a)
		}
	}
	m.mu.RUnlock()

	sort.Slice(matched, func(i, j int) bool { return policy.Less(matched[i], matched[j]) })

	page := matched
	if filter.Limit > 0 {
		page = paginate(matched, filter.Offset, filter.Limit)
	}
	out := make([]*models.Article, 0, len(page))
	for _, a := range page {
		out = append(out, m.hydrate(ctx, a))
	}
	return out, len(matched), nil
}

func (m *MockArticleRepository) Count(ctx context.Context) (int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.Articles), nil
}

// All returns a snapshot of every stored article
func (m *MockArticleRepository) All() []*models.Article {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]*models.Article, 0, len(m.Articles))
	for _, a := range m.Articles {
		out = append(out, copyArticle(a))
	}
	return out
}

func (m *MockArticleRepository) hydrate(ctx context.Context, a *models.Article) *models.Article {
	out := copyArticle(a)
	if m.categories != nil {
		out.Category, _ = m.categories.GetByID(ctx, a.CategoryID)
	}
	return out
}

func copyArticle(a *models.Article) *models.Article {
	out := *a
	out.ContentBlocks = append([]models.ContentBlock(nil), a.ContentBlocks...)
	if a.PublishedAt != nil {
		t := *a.PublishedAt
		out.PublishedAt = &t
	}
	out.Category = nil
	return &out
}

func paginate[T any](items []T, offset, limit int) []T {
	if offset >= len(items) {
		return nil
	}
	end := offset + limit
	if end > len(items) {
		end = len(items)
	}
	return items[offset:end]
}
