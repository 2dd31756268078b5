package models

import (
	"time"
)

// Category groups articles. A category cannot be deleted while it owns articles.
type Category struct {
	ID           string    `json:"id" db:"id"`
	Name         string    `json:"name" db:"name"`
	Slug         string    `json:"slug" db:"slug"`
	Description  *string   `json:"description,omitempty" db:"description"`
	ArticleCount int       `json:"article_count" db:"-"`
	CreatedAt    time.Time `json:"created_at" db:"created_at"`
	UpdatedAt    time.Time `json:"updated_at" db:"updated_at"`
}
