package api

import (
	"time"

	"github.com/news-publishing-api/internal/models"
	"github.com/news-publishing-api/internal/storage"
)

// ArticleView is the response shape of an article, with image URLs resolved
type ArticleView struct {
	ID               string        `json:"id"`
	AuthorID         string        `json:"author_id"`
	CategoryID       string        `json:"category_id"`
	Title            string        `json:"title"`
	Slug             string        `json:"slug"`
	Status           models.Status `json:"status"`
	PublishedAt      *time.Time    `json:"published_at"`
	FeaturedImageRef string        `json:"featured_image_ref,omitempty"`
	FeaturedImageURL string        `json:"featured_image_url,omitempty"`
	ContentBlocks    []BlockView   `json:"content_blocks"`
	Category         *CategoryView `json:"category,omitempty"`
	CreatedAt        time.Time     `json:"created_at"`
	UpdatedAt        time.Time     `json:"updated_at"`
}

// BlockView is one content block in a response
type BlockView struct {
	ID   string           `json:"id"`
	Type models.BlockType `json:"type"`
	Data BlockDataView    `json:"data"`
}

// BlockDataView is the payload of a BlockView
type BlockDataView struct {
	Text     string `json:"text,omitempty"`
	Caption  string `json:"caption,omitempty"`
	BlobRef  string `json:"blob_ref,omitempty"`
	ImageURL string `json:"image_url,omitempty"`
}

// CategoryView is the response shape of a category
type CategoryView struct {
	ID           string    `json:"id"`
	Name         string    `json:"name"`
	Slug         string    `json:"slug"`
	Description  *string   `json:"description"`
	ArticleCount int       `json:"article_count"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// PageView wraps one page of a listing
type PageView[T any] struct {
	Data []T      `json:"data"`
	Meta PageMeta `json:"meta"`
}

// PageMeta describes the position of a page
type PageMeta struct {
	Total    int `json:"total"`
	Page     int `json:"page"`
	PerPage  int `json:"per_page"`
	LastPage int `json:"last_page"`
}

func newArticleView(a *models.Article, blobs storage.BlobStore) ArticleView {
	view := ArticleView{
		ID:               a.ID,
		AuthorID:         a.AuthorID,
		CategoryID:       a.CategoryID,
		Title:            a.Title,
		Slug:             a.Slug,
		Status:           a.Status,
		PublishedAt:      a.PublishedAt,
		FeaturedImageRef: a.FeaturedImage,
		ContentBlocks:    make([]BlockView, 0, len(a.ContentBlocks)),
		CreatedAt:        a.CreatedAt,
		UpdatedAt:        a.UpdatedAt,
	}
	if a.FeaturedImage != "" {
		view.FeaturedImageURL = blobs.URL(a.FeaturedImage)
	}
	if a.Category != nil {
		c := newCategoryView(a.Category)
		view.Category = &c
	}

	for _, b := range a.ContentBlocks {
		bv := BlockView{ID: b.ID, Type: b.Type()}
		switch data := b.Data.(type) {
		case models.TextData:
			bv.Data.Text = data.Text
		case models.ImageData:
			bv.Data.Caption = data.Caption
			bv.Data.BlobRef = data.BlobRef
			if data.BlobRef != "" {
				bv.Data.ImageURL = blobs.URL(data.BlobRef)
			}
		}
		view.ContentBlocks = append(view.ContentBlocks, bv)
	}
	return view
}

func newArticleViews(articles []*models.Article, blobs storage.BlobStore) []ArticleView {
	views := make([]ArticleView, 0, len(articles))
	for _, a := range articles {
		views = append(views, newArticleView(a, blobs))
	}
	return views
}

func newCategoryView(c *models.Category) CategoryView {
	return CategoryView{
		ID:           c.ID,
		Name:         c.Name,
		Slug:         c.Slug,
		Description:  c.Description,
		ArticleCount: c.ArticleCount,
		CreatedAt:    c.CreatedAt,
		UpdatedAt:    c.UpdatedAt,
	}
}

func newPageView[M any, V any](page *models.Page[M], convert func(M) V) PageView[V] {
	data := make([]V, 0, len(page.Items))
	for _, item := range page.Items {
		data = append(data, convert(item))
	}
	return PageView[V]{
		Data: data,
		Meta: PageMeta{
			Total:    page.Total,
			Page:     page.Page,
			PerPage:  page.PerPage,
			LastPage: page.LastPage(),
		},
	}
}
