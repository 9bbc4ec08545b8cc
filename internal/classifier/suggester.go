package classifier

import (
	"context"
	"strings"
)

// Suggester proposes extra category tags for a caption. Suggestions
// are advisory: they are passed to the archive as label text and go
// through the same normalization as user-typed labels.
type Suggester interface {
	SuggestTags(ctx context.Context, caption string) ([]string, error)
}

// HashtagSuggester extracts #hashtags the user already typed into the
// caption, so "sunset at the #beach" gets a beach tag without an
// explicit label.
type HashtagSuggester struct {
	maxTags int
}

func NewHashtagSuggester(maxTags int) *HashtagSuggester {
	return &HashtagSuggester{maxTags: maxTags}
}

func (s *HashtagSuggester) SuggestTags(ctx context.Context, caption string) ([]string, error) {
	seen := make(map[string]struct{})
	var tags []string

	for _, word := range strings.Fields(caption) {
		if !strings.HasPrefix(word, "#") {
			continue
		}
		tag := strings.ToLower(strings.TrimPrefix(word, "#"))
		tag = strings.TrimRight(tag, ".,!?:;")
		if tag == "" {
			continue
		}
		if _, dup := seen[tag]; dup {
			continue
		}
		seen[tag] = struct{}{}
		tags = append(tags, tag)
		if s.maxTags > 0 && len(tags) >= s.maxTags {
			break
		}
	}

	return tags, nil
}
