package database

import (
	"errors"
	"fmt"
	"testing"

	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
)

func TestConstraintErrors(t *testing.T) {
	unique := &pq.Error{Code: "23505", Constraint: "idx_articles_slug"}
	fk := &pq.Error{Code: "23503", Constraint: "articles_category_id_fkey"}
	wrapped := fmt.Errorf("insert article: %w", unique)

	assert.True(t, IsUniqueViolation(unique))
	assert.True(t, IsUniqueViolation(wrapped))
	assert.True(t, IsUniqueViolation(wrapped, "idx_categories_name", "idx_articles_slug"))
	assert.False(t, IsUniqueViolation(wrapped, "idx_categories_name"))
	assert.False(t, IsUniqueViolation(fk))
	assert.False(t, IsUniqueViolation(errors.New("boom")))
	assert.False(t, IsUniqueViolation(nil))

	assert.True(t, IsForeignKeyViolation(fk))
	assert.False(t, IsForeignKeyViolation(unique))

	assert.Equal(t, "idx_articles_slug", ConstraintName(wrapped))
	assert.Empty(t, ConstraintName(errors.New("boom")))
}
