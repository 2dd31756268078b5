package models

import (
	"github.com/news-publishing-api/internal/storage"
)

// BlockInput is a content block as submitted by a client, before validation
type BlockInput struct {
	ID   string         `json:"id"`
	Type string         `json:"type"`
	Data BlockDataInput `json:"data"`
}

// BlockDataInput carries the union of fields any block type may submit
type BlockDataInput struct {
	Text    *string         `json:"text,omitempty"`
	Caption string          `json:"caption,omitempty"`
	BlobRef string          `json:"blob_ref,omitempty"`
	File    *storage.Upload `json:"-"`
}

// ArticleInput is a create or update submission for an article. The content
// block list is always the complete desired final state.
type ArticleInput struct {
	Title               string          `json:"title"`
	Slug                string          `json:"slug,omitempty"`
	CategoryID          string          `json:"category_id"`
	Status              string          `json:"status,omitempty"`
	PublishedAt         string          `json:"published_at,omitempty"`
	RemoveFeaturedImage bool            `json:"remove_featured_image,omitempty"`
	ContentBlocks       []BlockInput    `json:"content_blocks"`
	FeaturedImage       *storage.Upload `json:"-"`
}

// CategoryInput is a create or update submission for a category
type CategoryInput struct {
	Name        string `json:"name"`
	Slug        string `json:"slug,omitempty"`
	Description string `json:"description,omitempty"`
}
