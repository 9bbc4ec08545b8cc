package storage

import (
	"context"

	"github.com/xaenox/stash-bot/internal/models"
)

// Storage is the durable record of users and their saved items. All
// writes to a single item are atomic; no multi-item transactions exist
// because items are independent.
type Storage interface {
	// UpsertUser creates the user row if absent and refreshes the
	// cached handle if present. Idempotent.
	UpsertUser(ctx context.Context, userID int64, handle string) error

	// InsertItem creates a new item and fills in its ID and CreatedAt.
	// It returns models.ErrConstraintViolation when a non-deleted item
	// with the same (user, file id) already exists; the uniqueness
	// invariant is enforced here, not in application logic.
	InsertItem(ctx context.Context, item *models.SavedItem) error

	// GetItem returns the item by id regardless of its deletion state,
	// or models.ErrNotFound. Callers check ownership and deletion.
	GetItem(ctx context.Context, itemID int64) (*models.SavedItem, error)

	// GetItemByFileID returns the user's non-deleted item with the
	// given provider file id, or models.ErrNotFound.
	GetItemByFileID(ctx context.Context, userID int64, fileID string) (*models.SavedItem, error)

	// UpdateItem partially updates a non-deleted item. Nil caption or
	// nil tags leave the field untouched. Returns models.ErrNotFound
	// when the item does not exist or is deleted.
	UpdateItem(ctx context.Context, itemID int64, caption *string, tags []string) error

	// SoftDeleteItem marks the item deleted. Deleting an already
	// deleted item is a no-op success; a missing item is
	// models.ErrNotFound.
	SoftDeleteItem(ctx context.Context, itemID int64) error

	// GetItemsPage returns up to limit non-deleted items for the user,
	// newest first (created-at descending, id descending on ties),
	// strictly after the key when one is given. A non-empty tag
	// restricts results to items whose tag set contains it exactly.
	GetItemsPage(ctx context.Context, userID int64, tag string, after *models.PageKey, limit int) ([]*models.SavedItem, error)

	// SearchItemsPage is GetItemsPage with a keyword filter: every
	// token must match the item's caption or at least one of its tags
	// as a case-insensitive substring.
	SearchItemsPage(ctx context.Context, userID int64, tokens []string, after *models.PageKey, limit int) ([]*models.SavedItem, error)

	Close() error
}
