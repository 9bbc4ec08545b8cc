package models

import "time"

// MediaKind identifies what sort of media a saved item references.
type MediaKind string

const (
	MediaPhoto    MediaKind = "photo"
	MediaVideo    MediaKind = "video"
	MediaAudio    MediaKind = "audio"
	MediaDocument MediaKind = "document"
	MediaSticker  MediaKind = "sticker"
	MediaOther    MediaKind = "other"
)

// DefaultTag returns the category a kind falls into when the user
// supplies no label of their own.
func (k MediaKind) DefaultTag() string {
	switch k {
	case MediaPhoto:
		return "photos"
	case MediaVideo:
		return "videos"
	case MediaAudio:
		return "audio"
	case MediaDocument:
		return "documents"
	case MediaSticker:
		return "stickers"
	default:
		return "other"
	}
}

// User represents a bot user. The handle is a cached display name, not
// authoritative; the provider account id is.
type User struct {
	ID        int64     `json:"id"`
	Handle    string    `json:"handle,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// SavedItem is one archived media reference. FileID is the opaque
// provider-issued identifier; the bytes stay with the provider.
type SavedItem struct {
	ID        int64      `json:"id"`
	UserID    int64      `json:"user_id"`
	FileID    string     `json:"file_id"`
	Kind      MediaKind  `json:"media_kind"`
	Caption   string     `json:"caption,omitempty"`
	Tags      []string   `json:"tags"`
	CreatedAt time.Time  `json:"created_at"`
	DeletedAt *time.Time `json:"deleted_at,omitempty"`
}

// Deleted reports whether the item has been soft-deleted.
func (i *SavedItem) Deleted() bool {
	return i.DeletedAt != nil
}

// HasTag reports whether the item carries the exact tag. Tags are
// stored normalized, so this is a plain equality check.
func (i *SavedItem) HasTag(tag string) bool {
	for _, t := range i.Tags {
		if t == tag {
			return true
		}
	}
	return false
}

// PageKey is the decoded sort position a pagination cursor encodes:
// the (created-at, id) pair of the last item on the previous page.
type PageKey struct {
	CreatedAt time.Time
	ID        int64
}

// Page is one page of listing or search results. NextCursor is empty
// when the result set is exhausted.
type Page struct {
	Items      []*SavedItem `json:"items"`
	NextCursor string       `json:"next_cursor,omitempty"`
}
