package archive

import (
	"context"
	"strings"

	"github.com/xaenox/stash-bot/internal/models"
	"github.com/xaenox/stash-bot/internal/storage"
)

// QueryEngine answers listing and search requests on top of the store.
// It owns the token semantics; ordering and pagination stay with the
// store.
type QueryEngine struct {
	store storage.Storage
}

func NewQueryEngine(store storage.Storage) *QueryEngine {
	return &QueryEngine{store: store}
}

// List returns one page of the user's items, newest first. A non-empty
// category restricts results to items tagged with it; the category is
// normalized first so matching is exact, not substring.
func (q *QueryEngine) List(ctx context.Context, userID int64, category string, after *models.PageKey, pageSize int) (*models.Page, error) {
	category = NormalizeTag(category)
	items, err := q.store.GetItemsPage(ctx, userID, category, after, pageSize+1)
	if err != nil {
		return nil, err
	}
	return buildPage(items, pageSize), nil
}

// Search returns one page of items matching the free-text keywords.
// The query is tokenized on whitespace; an item matches only if every
// token matches its caption or one of its tags as a case-insensitive
// substring. AND across tokens, OR within a token — the two levels
// must not be swapped. A query with no tokens yields an empty page
// rather than everything.
func (q *QueryEngine) Search(ctx context.Context, userID int64, keywords string, after *models.PageKey, pageSize int) (*models.Page, error) {
	tokens := strings.Fields(keywords)
	if len(tokens) == 0 {
		return &models.Page{}, nil
	}

	items, err := q.store.SearchItemsPage(ctx, userID, tokens, after, pageSize+1)
	if err != nil {
		return nil, err
	}
	return buildPage(items, pageSize), nil
}

// buildPage trims the one-item lookahead used to detect whether more
// results exist and issues the next cursor from the last kept item.
func buildPage(items []*models.SavedItem, pageSize int) *models.Page {
	page := &models.Page{Items: items}
	if len(items) > pageSize {
		page.Items = items[:pageSize]
		last := page.Items[len(page.Items)-1]
		page.NextCursor = EncodeCursor(models.PageKey{CreatedAt: last.CreatedAt, ID: last.ID})
	}
	return page
}
