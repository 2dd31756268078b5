package models

import (
	"fmt"
	"time"
)

// Status is the publication state of an article
type Status string

const (
	StatusDraft     Status = "draft"
	StatusPublished Status = "published"
	StatusArchived  Status = "archived"
)

// ValidStatuses defines allowed article statuses
var ValidStatuses = map[string]bool{
	string(StatusDraft):     true,
	string(StatusPublished): true,
	string(StatusArchived):  true,
}

// ParseStatus converts a raw status string
func ParseStatus(raw string) (Status, error) {
	if !ValidStatuses[raw] {
		return "", fmt.Errorf("invalid status %q", raw)
	}
	return Status(raw), nil
}

// Article represents a news article
type Article struct {
	ID            string         `json:"id" db:"id"`
	AuthorID      string         `json:"author_id" db:"author_id"`
	CategoryID    string         `json:"category_id" db:"category_id"`
	Title         string         `json:"title" db:"title"`
	Slug          string         `json:"slug" db:"slug"`
	Status        Status         `json:"status" db:"status"`
	PublishedAt   *time.Time     `json:"published_at,omitempty" db:"published_at"`
	FeaturedImage string         `json:"featured_image_ref,omitempty" db:"featured_image_ref"`
	ContentBlocks []ContentBlock `json:"content_blocks" db:"content_blocks"`
	CreatedAt     time.Time      `json:"created_at" db:"created_at"`
	UpdatedAt     time.Time      `json:"updated_at" db:"updated_at"`

	// Category is populated by listing and detail queries
	Category *Category `json:"category,omitempty" db:"-"`
}

// IsPublished reports whether the article is publicly visible
func (a *Article) IsPublished() bool {
	return a.Status == StatusPublished
}

// ApplyStatus sets the status and maintains published_at. An explicit
// timestamp always wins; otherwise published_at is stamped with now the first
// time the article is published and left alone afterwards.
func (a *Article) ApplyStatus(status Status, publishedAt *time.Time, now time.Time) {
	a.Status = status
	if publishedAt != nil {
		t := *publishedAt
		a.PublishedAt = &t
		return
	}
	if status == StatusPublished && a.PublishedAt == nil {
		t := now
		a.PublishedAt = &t
	}
}

// ArticleFilter narrows an article listing
type ArticleFilter struct {
	// PublishedOnly restricts results to published articles
	PublishedOnly bool
	// IncludeAuthorID additionally admits any article by this author
	IncludeAuthorID string
	CategoryID      string
	ExcludeID       string
	Limit           int
	Offset          int
}
