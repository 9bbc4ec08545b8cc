package archive

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/xaenox/stash-bot/internal/models"
	"github.com/xaenox/stash-bot/internal/storage"
	"go.uber.org/zap"
)

// Limits bounds the per-request input the facade accepts.
type Limits struct {
	MaxPageSize      int
	DefaultPageSize  int
	MaxCaptionLength int
	StoreTimeout     time.Duration
}

func DefaultLimits() Limits {
	return Limits{
		MaxPageSize:      50,
		DefaultPageSize:  10,
		MaxCaptionLength: 4096,
		StoreTimeout:     5 * time.Second,
	}
}

// Facade is the single entry point for the transport layer. It
// orchestrates identity resolution, categorization, persistence and
// queries, and defines the transaction boundary of a save.
type Facade struct {
	store    storage.Storage
	resolver *DedupResolver
	queries  *QueryEngine
	limits   Limits
	logger   *zap.Logger
}

func NewFacade(store storage.Storage, limits Limits, logger *zap.Logger) *Facade {
	defaults := DefaultLimits()
	if limits.MaxPageSize <= 0 {
		limits.MaxPageSize = defaults.MaxPageSize
	}
	if limits.DefaultPageSize <= 0 {
		limits.DefaultPageSize = defaults.DefaultPageSize
	}
	if limits.MaxCaptionLength <= 0 {
		limits.MaxCaptionLength = defaults.MaxCaptionLength
	}
	if limits.StoreTimeout <= 0 {
		limits.StoreTimeout = defaults.StoreTimeout
	}
	return &Facade{
		store:    store,
		resolver: NewDedupResolver(store),
		queries:  NewQueryEngine(store),
		limits:   limits,
		logger:   logger,
	}
}

// SaveItem archives a media reference for the user, or updates the
// existing item when the same file was saved before: the new label's
// tags are unioned into the old ones and a non-empty caption replaces
// the cached one. Saving is idempotent under concurrent duplicate
// submissions: a lost insert race is retried once as an update.
func (f *Facade) SaveItem(ctx context.Context, userID int64, handle, fileID string, kind models.MediaKind, caption, label string) (*models.SavedItem, error) {
	if fileID == "" {
		return nil, fmt.Errorf("%w: empty file id", models.ErrInvalidInput)
	}
	if len(caption) > f.limits.MaxCaptionLength {
		return nil, fmt.Errorf("%w: caption exceeds %d characters", models.ErrInvalidInput, f.limits.MaxCaptionLength)
	}
	if kind == "" {
		kind = models.MediaOther
	}

	opID := uuid.NewString()

	if err := f.callStore(ctx, func(ctx context.Context) error {
		return f.store.UpsertUser(ctx, userID, handle)
	}); err != nil {
		return nil, err
	}

	item, err := f.saveOrUpdate(ctx, userID, fileID, kind, caption, label)
	if errors.Is(err, models.ErrConstraintViolation) {
		// Lost the insert race to a concurrent save of the same file:
		// the row exists now, so redo the sequence as an update.
		f.logger.Debug("save race lost, retrying as update",
			zap.String("op_id", opID),
			zap.Int64("user_id", userID))
		item, err = f.saveOrUpdate(ctx, userID, fileID, kind, caption, label)
		if errors.Is(err, models.ErrConstraintViolation) {
			err = fmt.Errorf("%w: repeated save conflict", models.ErrTransient)
		}
	}
	if err != nil {
		return nil, err
	}

	f.logger.Info("item saved",
		zap.String("op_id", opID),
		zap.Int64("user_id", userID),
		zap.Int64("item_id", item.ID),
		zap.String("media_kind", string(item.Kind)),
		zap.Strings("tags", item.Tags))
	return item, nil
}

func (f *Facade) saveOrUpdate(ctx context.Context, userID int64, fileID string, kind models.MediaKind, caption, label string) (*models.SavedItem, error) {
	var resolution Resolution
	if err := f.callStore(ctx, func(ctx context.Context) error {
		var err error
		resolution, err = f.resolver.Resolve(ctx, userID, fileID)
		return err
	}); err != nil {
		return nil, err
	}

	if resolution.IsNew() {
		item := &models.SavedItem{
			UserID:  userID,
			FileID:  fileID,
			Kind:    kind,
			Caption: caption,
			Tags:    AssignTags(kind, label),
		}
		if err := f.callStore(ctx, func(ctx context.Context) error {
			return f.store.InsertItem(ctx, item)
		}); err != nil {
			return nil, err
		}
		return item, nil
	}

	existing := resolution.Existing
	existing.Tags = MergeTags(existing.Tags, SplitLabel(label))
	var newCaption *string
	if caption != "" {
		existing.Caption = caption
		newCaption = &caption
	}
	if err := f.callStore(ctx, func(ctx context.Context) error {
		return f.store.UpdateItem(ctx, existing.ID, newCaption, existing.Tags)
	}); err != nil {
		return nil, err
	}
	return existing, nil
}

// ListItems returns one page of the user's archive, optionally
// restricted to a category.
func (f *Facade) ListItems(ctx context.Context, userID int64, category, cursor string, pageSize int) (*models.Page, error) {
	after, err := DecodeCursor(cursor)
	if err != nil {
		return nil, err
	}
	pageSize = f.clampPageSize(pageSize)

	var page *models.Page
	err = f.callStore(ctx, func(ctx context.Context) error {
		page, err = f.queries.List(ctx, userID, category, after, pageSize)
		return err
	})
	return page, err
}

// SearchItems returns one page of the user's items matching the
// free-text keywords.
func (f *Facade) SearchItems(ctx context.Context, userID int64, keywords, cursor string, pageSize int) (*models.Page, error) {
	after, err := DecodeCursor(cursor)
	if err != nil {
		return nil, err
	}
	pageSize = f.clampPageSize(pageSize)

	var page *models.Page
	err = f.callStore(ctx, func(ctx context.Context) error {
		page, err = f.queries.Search(ctx, userID, keywords, after, pageSize)
		return err
	})
	return page, err
}

// DeleteItem soft-deletes the user's item. A foreign item is
// models.ErrForbidden; transports render it exactly like ErrNotFound
// so other users' items stay invisible. Deleting an already-deleted
// item succeeds.
func (f *Facade) DeleteItem(ctx context.Context, userID, itemID int64) error {
	var item *models.SavedItem
	if err := f.callStore(ctx, func(ctx context.Context) (err error) {
		item, err = f.store.GetItem(ctx, itemID)
		return err
	}); err != nil {
		return err
	}
	if item.UserID != userID {
		return models.ErrForbidden
	}
	if item.Deleted() {
		return nil
	}
	return f.callStore(ctx, func(ctx context.Context) error {
		return f.store.SoftDeleteItem(ctx, itemID)
	})
}

func (f *Facade) clampPageSize(pageSize int) int {
	if pageSize <= 0 {
		return f.limits.DefaultPageSize
	}
	if pageSize > f.limits.MaxPageSize {
		return f.limits.MaxPageSize
	}
	return pageSize
}

// callStore runs one store call under the configured timeout and
// reports deadline hits as transient failures.
func (f *Facade) callStore(ctx context.Context, call func(context.Context) error) error {
	ctx, cancel := context.WithTimeout(ctx, f.limits.StoreTimeout)
	defer cancel()

	err := call(ctx)
	if err != nil && errors.Is(err, context.DeadlineExceeded) && !errors.Is(err, models.ErrTransient) {
		return fmt.Errorf("%w: %v", models.ErrTransient, err)
	}
	return err
}
