package archive

import (
	"context"
	"errors"
	"fmt"

	"github.com/xaenox/stash-bot/internal/models"
	"github.com/xaenox/stash-bot/internal/storage"
)

// Resolution is the outcome of identity resolution for an incoming
// media reference. Existing is nil for a new item and set to the
// already-archived item for a duplicate.
type Resolution struct {
	Existing *models.SavedItem
}

// IsNew reports whether the reference has not been archived yet.
func (r Resolution) IsNew() bool {
	return r.Existing == nil
}

// DedupResolver decides whether a (user, provider file id) pair is new
// or a duplicate of an item already archived for that user. File ids
// are opaque and never parsed; lookups consider non-deleted items
// only, so re-saving a soft-deleted file starts a fresh record.
type DedupResolver struct {
	store storage.Storage
}

func NewDedupResolver(store storage.Storage) *DedupResolver {
	return &DedupResolver{store: store}
}

// Resolve is a pure query against the store: it performs no writes.
// Dedup is scoped per user; the same file id under two users yields
// two independent items.
func (r *DedupResolver) Resolve(ctx context.Context, userID int64, fileID string) (Resolution, error) {
	if fileID == "" {
		return Resolution{}, fmt.Errorf("%w: empty file id", models.ErrInvalidInput)
	}

	existing, err := r.store.GetItemByFileID(ctx, userID, fileID)
	if errors.Is(err, models.ErrNotFound) {
		return Resolution{}, nil
	}
	if err != nil {
		return Resolution{}, err
	}
	return Resolution{Existing: existing}, nil
}
