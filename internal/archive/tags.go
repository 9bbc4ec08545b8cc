package archive

import (
	"strings"

	"github.com/xaenox/stash-bot/internal/models"
)

// NormalizeTag lowercases, trims and strips a leading '#' from a tag
// token. The result of normalizing an already-normalized tag is the
// tag itself.
func NormalizeTag(token string) string {
	token = strings.TrimSpace(strings.ToLower(token))
	token = strings.TrimPrefix(token, "#")
	return strings.TrimSpace(token)
}

// SplitLabel breaks free-form label text on whitespace and commas,
// normalizes each token and drops empties and duplicates, preserving
// first-seen order.
func SplitLabel(label string) []string {
	fields := strings.FieldsFunc(label, func(r rune) bool {
		return r == ',' || r == ' ' || r == '\t' || r == '\n' || r == '\r'
	})

	seen := make(map[string]struct{}, len(fields))
	var tags []string
	for _, field := range fields {
		tag := NormalizeTag(field)
		if tag == "" {
			continue
		}
		if _, dup := seen[tag]; dup {
			continue
		}
		seen[tag] = struct{}{}
		tags = append(tags, tag)
	}
	return tags
}

// AssignTags maps a media kind and an optional user label to the
// item's category tags. A usable label wins; otherwise the kind's
// default category is used, so the result is never empty.
func AssignTags(kind models.MediaKind, label string) []string {
	if tags := SplitLabel(label); len(tags) > 0 {
		return tags
	}
	return []string{kind.DefaultTag()}
}

// MergeTags unions new tags into existing ones. Existing tags are
// never dropped; order is existing first, then unseen additions.
func MergeTags(existing, added []string) []string {
	merged := append([]string(nil), existing...)
	seen := make(map[string]struct{}, len(existing))
	for _, tag := range existing {
		seen[tag] = struct{}{}
	}
	for _, tag := range added {
		if _, dup := seen[tag]; dup {
			continue
		}
		seen[tag] = struct{}{}
		merged = append(merged, tag)
	}
	return merged
}
