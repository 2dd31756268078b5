// Package policy decides who may see and change articles and how listings
// are ordered.
package policy

import (
	"errors"

	"github.com/news-publishing-api/internal/models"
)

var (
	// ErrUnauthenticated is returned when an operation needs a signed-in actor
	ErrUnauthenticated = errors.New("authentication required")
	// ErrForbidden is returned when the actor does not own the resource
	ErrForbidden = errors.New("forbidden")
)

// OrderByClause is the SQL ordering matching Less
const OrderByClause = "a.published_at DESC NULLS LAST, a.created_at DESC, a.id DESC"

// CanView reports whether actor may read article. Published articles are
// public; anything else is visible to its author only.
func CanView(actor models.Actor, article *models.Article) bool {
	if article == nil {
		return false
	}
	if article.IsPublished() {
		return true
	}
	return actor.Authenticated() && actor.UserID == article.AuthorID
}

// CanMutate checks that actor may update or delete article
func CanMutate(actor models.Actor, article *models.Article) error {
	if !actor.Authenticated() {
		return ErrUnauthenticated
	}
	if article == nil || actor.UserID != article.AuthorID {
		return ErrForbidden
	}
	return nil
}

// RequireActor checks that the actor is signed in
func RequireActor(actor models.Actor) error {
	if !actor.Authenticated() {
		return ErrUnauthenticated
	}
	return nil
}

// ListScope returns the filter an actor's article listing is restricted to:
// every published article, plus the actor's own drafts and archived articles.
func ListScope(actor models.Actor) models.ArticleFilter {
	f := models.ArticleFilter{PublishedOnly: true}
	if actor.Authenticated() {
		f.IncludeAuthorID = actor.UserID
	}
	return f
}

// Visible reports whether article passes filter f
func Visible(f models.ArticleFilter, article *models.Article) bool {
	if f.CategoryID != "" && article.CategoryID != f.CategoryID {
		return false
	}
	if f.ExcludeID != "" && article.ID == f.ExcludeID {
		return false
	}
	if !f.PublishedOnly || article.IsPublished() {
		return true
	}
	return f.IncludeAuthorID != "" && article.AuthorID == f.IncludeAuthorID
}

// Less orders articles newest first: published_at descending with unset
// values last, then created_at descending, then id.
func Less(a, b *models.Article) bool {
	switch {
	case a.PublishedAt != nil && b.PublishedAt == nil:
		return true
	case a.PublishedAt == nil && b.PublishedAt != nil:
		return false
	case a.PublishedAt != nil && !a.PublishedAt.Equal(*b.PublishedAt):
		return a.PublishedAt.After(*b.PublishedAt)
	}
	if !a.CreatedAt.Equal(b.CreatedAt) {
		return a.CreatedAt.After(b.CreatedAt)
	}
	return a.ID > b.ID
}
