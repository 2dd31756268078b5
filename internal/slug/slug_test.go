package slug

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSlugify(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{name: "simple title", in: "Hello World", want: "hello-world"},
		{name: "punctuation collapses", in: "Breaking: Markets -- Rally!!", want: "breaking-markets-rally"},
		{name: "leading and trailing junk", in: "  ...Old Title...  ", want: "old-title"},
		{name: "accents folded", in: "Café Société à Paris", want: "cafe-societe-a-paris"},
		{name: "special letters", in: "Straße Ærø", want: "strasse-aero"},
		{name: "digits kept", in: "Top 10 Picks of 2025", want: "top-10-picks-of-2025"},
		{name: "ampersand", in: "Rock & Roll", want: "rock-and-roll"},
		{name: "underscores", in: "snake_case_title", want: "snake-case-title"},
		{name: "only symbols", in: "!!! ???", want: ""},
		{name: "non latin dropped", in: "新闻 News", want: "news"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Slugify(tt.in)
			assert.Equal(t, tt.want, got)
			if got != "" {
				assert.True(t, Valid(got), "slug %q should be well-formed", got)
			}
		})
	}
}

func TestSlugify_OutputAlphabet(t *testing.T) {
	inputs := []string{
		"-leading hyphen", "trailing hyphen-", "--double--", "MiXeD CaSe",
		"tabs\tand\nnewlines", "émoji 🎉 party", "a", "",
	}
	for _, in := range inputs {
		got := Slugify(in)
		if got == "" {
			continue
		}
		assert.Regexp(t, `^[a-z0-9]+(-[a-z0-9]+)*$`, got, "input %q", in)
	}
}

func existsIn(taken map[string]string) ExistsFunc {
	return func(ctx context.Context, slug, excludeID string) (bool, error) {
		owner, ok := taken[slug]
		if !ok {
			return false, nil
		}
		return excludeID == "" || owner != excludeID, nil
	}
}

func TestGenerateUnique_Sequential(t *testing.T) {
	ctx := context.Background()
	taken := map[string]string{}

	var got []string
	for i := 0; i < 4; i++ {
		s, err := GenerateUnique(ctx, "Same Title", "", existsIn(taken))
		require.NoError(t, err)
		taken[s] = s
		got = append(got, s)
	}

	assert.Equal(t, []string{"same-title", "same-title-1", "same-title-2", "same-title-3"}, got)
}

func TestGenerateUnique_ExcludesOwnRecord(t *testing.T) {
	ctx := context.Background()
	taken := map[string]string{"my-post": "article-1"}

	s, err := GenerateUnique(ctx, "My Post", "article-1", existsIn(taken))
	require.NoError(t, err)
	assert.Equal(t, "my-post", s)

	s, err = GenerateUnique(ctx, "My Post", "article-2", existsIn(taken))
	require.NoError(t, err)
	assert.Equal(t, "my-post-1", s)
}

func TestGenerateUnique_EmptyBase(t *testing.T) {
	s, err := GenerateUnique(context.Background(), "???", "", existsIn(map[string]string{}))
	require.NoError(t, err)
	assert.Equal(t, Fallback, s)
}

func TestGenerateUnique_PropagatesError(t *testing.T) {
	boom := errors.New("db down")
	_, err := GenerateUnique(context.Background(), "x", "", func(context.Context, string, string) (bool, error) {
		return false, boom
	})
	assert.ErrorIs(t, err, boom)
}
