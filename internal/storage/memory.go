package storage

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/xaenox/stash-bot/internal/models"
)

// MemoryStorage keeps the archive in process memory. It mirrors the
// Postgres semantics exactly, including the live (user, file id)
// uniqueness check, so it can back local runs and tests.
type MemoryStorage struct {
	mu     sync.RWMutex
	users  map[int64]*models.User
	items  map[int64]*models.SavedItem
	nextID int64
}

func NewMemoryStorage() *MemoryStorage {
	return &MemoryStorage{
		users: make(map[int64]*models.User),
		items: make(map[int64]*models.SavedItem),
	}
}

func (s *MemoryStorage) UpsertUser(ctx context.Context, userID int64, handle string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if user, exists := s.users[userID]; exists {
		if handle != "" {
			user.Handle = handle
		}
		return nil
	}
	s.users[userID] = &models.User{
		ID:        userID,
		Handle:    handle,
		CreatedAt: time.Now(),
	}
	return nil
}

func (s *MemoryStorage) InsertItem(ctx context.Context, item *models.SavedItem) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, existing := range s.items {
		if existing.UserID == item.UserID && existing.FileID == item.FileID && !existing.Deleted() {
			return models.ErrConstraintViolation
		}
	}

	s.nextID++
	item.ID = s.nextID
	item.CreatedAt = time.Now()
	s.items[item.ID] = copyItem(item)
	return nil
}

func (s *MemoryStorage) GetItem(ctx context.Context, itemID int64) (*models.SavedItem, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if item, exists := s.items[itemID]; exists {
		return copyItem(item), nil
	}
	return nil, models.ErrNotFound
}

func (s *MemoryStorage) GetItemByFileID(ctx context.Context, userID int64, fileID string) (*models.SavedItem, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, item := range s.items {
		if item.UserID == userID && item.FileID == fileID && !item.Deleted() {
			return copyItem(item), nil
		}
	}
	return nil, models.ErrNotFound
}

func (s *MemoryStorage) UpdateItem(ctx context.Context, itemID int64, caption *string, tags []string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	item, exists := s.items[itemID]
	if !exists || item.Deleted() {
		return models.ErrNotFound
	}
	if caption != nil {
		item.Caption = *caption
	}
	if tags != nil {
		item.Tags = append([]string(nil), tags...)
	}
	return nil
}

func (s *MemoryStorage) SoftDeleteItem(ctx context.Context, itemID int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	item, exists := s.items[itemID]
	if !exists {
		return models.ErrNotFound
	}
	if item.Deleted() {
		return nil
	}
	now := time.Now()
	item.DeletedAt = &now
	return nil
}

func (s *MemoryStorage) GetItemsPage(ctx context.Context, userID int64, tag string, after *models.PageKey, limit int) ([]*models.SavedItem, error) {
	match := func(item *models.SavedItem) bool {
		return tag == "" || item.HasTag(tag)
	}
	return s.page(userID, after, limit, match), nil
}

func (s *MemoryStorage) SearchItemsPage(ctx context.Context, userID int64, tokens []string, after *models.PageKey, limit int) ([]*models.SavedItem, error) {
	match := func(item *models.SavedItem) bool {
		for _, token := range tokens {
			if !itemMatchesToken(item, token) {
				return false
			}
		}
		return true
	}
	return s.page(userID, after, limit, match), nil
}

// itemMatchesToken reports whether the token appears as a
// case-insensitive substring of the caption or of any tag.
func itemMatchesToken(item *models.SavedItem, token string) bool {
	token = strings.ToLower(token)
	if strings.Contains(strings.ToLower(item.Caption), token) {
		return true
	}
	for _, tag := range item.Tags {
		if strings.Contains(strings.ToLower(tag), token) {
			return true
		}
	}
	return false
}

func (s *MemoryStorage) page(userID int64, after *models.PageKey, limit int, match func(*models.SavedItem) bool) []*models.SavedItem {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var items []*models.SavedItem
	for _, item := range s.items {
		if item.UserID != userID || item.Deleted() || !match(item) {
			continue
		}
		if after != nil && !beforeKey(item, after) {
			continue
		}
		items = append(items, copyItem(item))
	}

	sort.Slice(items, func(i, j int) bool {
		if !items[i].CreatedAt.Equal(items[j].CreatedAt) {
			return items[i].CreatedAt.After(items[j].CreatedAt)
		}
		return items[i].ID > items[j].ID
	})

	if len(items) > limit {
		items = items[:limit]
	}
	return items
}

// beforeKey reports whether the item sorts strictly after the cursor
// position, i.e. (created_at, id) < (key.CreatedAt, key.ID).
func beforeKey(item *models.SavedItem, key *models.PageKey) bool {
	if item.CreatedAt.Before(key.CreatedAt) {
		return true
	}
	return item.CreatedAt.Equal(key.CreatedAt) && item.ID < key.ID
}

func copyItem(item *models.SavedItem) *models.SavedItem {
	dup := *item
	dup.Tags = append([]string(nil), item.Tags...)
	if item.DeletedAt != nil {
		t := *item.DeletedAt
		dup.DeletedAt = &t
	}
	return &dup
}

func (s *MemoryStorage) Close() error {
	// Nothing to close for in-memory storage
	return nil
}
