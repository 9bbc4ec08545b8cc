package classifier

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHashtagSuggester(t *testing.T) {
	s := NewHashtagSuggester(5)
	ctx := context.Background()

	tags, err := s.SuggestTags(ctx, "sunset at the #Beach with #friends! #beach")
	require.NoError(t, err)
	assert.Equal(t, []string{"beach", "friends"}, tags)
}

func TestHashtagSuggesterStripsPunctuation(t *testing.T) {
	s := NewHashtagSuggester(5)

	tags, err := s.SuggestTags(context.Background(), "great trip #Rome, see you #soon.")
	require.NoError(t, err)
	assert.Equal(t, []string{"rome", "soon"}, tags)
}

func TestHashtagSuggesterMaxTags(t *testing.T) {
	s := NewHashtagSuggester(2)

	tags, err := s.SuggestTags(context.Background(), "#a #b #c #d")
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b"}, tags)
}

func TestHashtagSuggesterNoHashtags(t *testing.T) {
	s := NewHashtagSuggester(5)

	tags, err := s.SuggestTags(context.Background(), "no tags here # alone")
	require.NoError(t, err)
	assert.Empty(t, tags)
}
