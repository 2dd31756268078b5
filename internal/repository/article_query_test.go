package repository

import (
	"errors"
	"testing"

	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"

	"github.com/news-publishing-api/internal/models"
)

func TestArticleWhere(t *testing.T) {
	const catID = "6f1c2b0e-0d5e-4f39-9a57-5d0b8a2f7c11"
	const artID = "0b8e5c7a-2c1d-4e33-8f51-7a9e2d4b6c20"

	tests := []struct {
		name      string
		filter    models.ArticleFilter
		wantWhere string
		wantArgs  []interface{}
	}{
		{
			name:      "no filter",
			filter:    models.ArticleFilter{},
			wantWhere: "",
			wantArgs:  nil,
		},
		{
			name:      "anonymous scope",
			filter:    models.ArticleFilter{PublishedOnly: true},
			wantWhere: " WHERE a.status = $1",
			wantArgs:  []interface{}{"published"},
		},
		{
			name:      "author scope",
			filter:    models.ArticleFilter{PublishedOnly: true, IncludeAuthorID: "u1"},
			wantWhere: " WHERE (a.status = $1 OR a.author_id = $2)",
			wantArgs:  []interface{}{"published", "u1"},
		},
		{
			name:      "more news",
			filter:    models.ArticleFilter{PublishedOnly: true, CategoryID: catID, ExcludeID: artID},
			wantWhere: " WHERE a.status = $1 AND a.category_id = $2 AND a.id <> $3",
			wantArgs:  []interface{}{"published", catID, artID},
		},
		{
			name:      "malformed exclusion ignored",
			filter:    models.ArticleFilter{ExcludeID: "not-a-uuid"},
			wantWhere: "",
			wantArgs:  nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			where, args := articleWhere(tt.filter)
			assert.Equal(t, tt.wantWhere, where)
			assert.Equal(t, tt.wantArgs, args)
		})
	}
}

func TestTranslate(t *testing.T) {
	assert.NoError(t, translate(nil))

	err := translate(&pq.Error{Code: "23505", Constraint: "idx_categories_name"})
	var dup *DuplicateError
	assert.ErrorAs(t, err, &dup)
	assert.Equal(t, "name", dup.Field)
	assert.ErrorIs(t, err, ErrDuplicate)

	err = translate(&pq.Error{Code: "23505", Constraint: "idx_articles_slug"})
	assert.ErrorAs(t, err, &dup)
	assert.Equal(t, "slug", dup.Field)

	other := errors.New("connection reset")
	assert.Equal(t, other, translate(other))
}

func TestNullableID(t *testing.T) {
	assert.Nil(t, nullableID(""))
	assert.Nil(t, nullableID("abc"))
	assert.Equal(t, "6f1c2b0e-0d5e-4f39-9a57-5d0b8a2f7c11", nullableID("6f1c2b0e-0d5e-4f39-9a57-5d0b8a2f7c11"))
}
