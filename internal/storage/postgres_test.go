package storage

import (
	"context"
	"database/sql"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xaenox/stash-bot/internal/models"
	"go.uber.org/zap"
)

func newMockStorage(t *testing.T) (*PostgresStorage, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return &PostgresStorage{db: db, logger: zap.NewNop()}, mock
}

var itemRows = []string{"id", "user_id", "file_id", "media_kind", "caption", "tags", "created_at", "deleted_at"}

func TestPostgresUpsertUser(t *testing.T) {
	s, mock := newMockStorage(t)

	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO users")).
		WithArgs(int64(42), "alice").
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, s.UpsertUser(context.Background(), 42, "alice"))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresInsertItem(t *testing.T) {
	s, mock := newMockStorage(t)
	now := time.Now()

	mock.ExpectQuery(regexp.QuoteMeta("INSERT INTO saved_items")).
		WithArgs(int64(42), "ABC123", "photo", "beach day", sqlmock.AnyArg()).
		WillReturnRows(sqlmock.NewRows([]string{"id", "created_at"}).AddRow(int64(7), now))

	item := &models.SavedItem{
		UserID:  42,
		FileID:  "ABC123",
		Kind:    models.MediaPhoto,
		Caption: "beach day",
		Tags:    []string{"photos"},
	}
	require.NoError(t, s.InsertItem(context.Background(), item))
	assert.Equal(t, int64(7), item.ID)
	assert.Equal(t, now, item.CreatedAt)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresInsertItemUniqueViolation(t *testing.T) {
	s, mock := newMockStorage(t)

	mock.ExpectQuery(regexp.QuoteMeta("INSERT INTO saved_items")).
		WillReturnError(&pq.Error{Code: "23505", Constraint: "saved_items_user_file_live"})

	err := s.InsertItem(context.Background(), &models.SavedItem{
		UserID: 42,
		FileID: "ABC123",
		Kind:   models.MediaPhoto,
		Tags:   []string{"photos"},
	})
	assert.True(t, errors.Is(err, models.ErrConstraintViolation))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresGetItemByFileIDNotFound(t *testing.T) {
	s, mock := newMockStorage(t)

	mock.ExpectQuery(regexp.QuoteMeta("FROM saved_items")).
		WithArgs(int64(42), "missing").
		WillReturnError(sql.ErrNoRows)

	_, err := s.GetItemByFileID(context.Background(), 42, "missing")
	assert.True(t, errors.Is(err, models.ErrNotFound))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresUpdateItemNotFound(t *testing.T) {
	s, mock := newMockStorage(t)

	mock.ExpectExec(regexp.QuoteMeta("UPDATE saved_items")).
		WillReturnResult(sqlmock.NewResult(0, 0))

	caption := "new"
	err := s.UpdateItem(context.Background(), 7, &caption, nil)
	assert.True(t, errors.Is(err, models.ErrNotFound))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresSoftDeleteAlreadyDeleted(t *testing.T) {
	s, mock := newMockStorage(t)

	// The row exists but is already deleted: the update touches nothing
	// and the existence probe turns it into an idempotent success.
	mock.ExpectExec(regexp.QuoteMeta("UPDATE saved_items")).
		WithArgs(int64(7)).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery(regexp.QuoteMeta("SELECT EXISTS")).
		WithArgs(int64(7)).
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(true))

	assert.NoError(t, s.SoftDeleteItem(context.Background(), 7))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresSoftDeleteMissing(t *testing.T) {
	s, mock := newMockStorage(t)

	mock.ExpectExec(regexp.QuoteMeta("UPDATE saved_items")).
		WithArgs(int64(7)).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery(regexp.QuoteMeta("SELECT EXISTS")).
		WithArgs(int64(7)).
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(false))

	err := s.SoftDeleteItem(context.Background(), 7)
	assert.True(t, errors.Is(err, models.ErrNotFound))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresGetItemsPageWithTagAndCursor(t *testing.T) {
	s, mock := newMockStorage(t)
	now := time.Now()
	after := &models.PageKey{CreatedAt: now, ID: 9}

	mock.ExpectQuery(regexp.QuoteMeta("= ANY(tags)")).
		WithArgs(int64(42), "beach", after.CreatedAt, after.ID, 6).
		WillReturnRows(sqlmock.NewRows(itemRows).
			AddRow(int64(5), int64(42), "ABC123", "photo", "beach day", "{photos,beach}", now, nil))

	items, err := s.GetItemsPage(context.Background(), 42, "beach", after, 6)
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, []string{"photos", "beach"}, items[0].Tags)
	assert.False(t, items[0].Deleted())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresSearchItemsPagePerTokenClause(t *testing.T) {
	s, mock := newMockStorage(t)
	now := time.Now()

	// One ILIKE clause per token, patterns wrapped in wildcards.
	mock.ExpectQuery(regexp.QuoteMeta("caption ILIKE $2") + ".*" + regexp.QuoteMeta("caption ILIKE $3")).
		WithArgs(int64(42), "%cat%", "%dog%", 11).
		WillReturnRows(sqlmock.NewRows(itemRows).
			AddRow(int64(5), int64(42), "ABC123", "photo", "cat photo", "{dog-park}", now, nil))

	items, err := s.SearchItemsPage(context.Background(), 42, []string{"cat", "dog"}, nil, 11)
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestEscapeLike(t *testing.T) {
	assert.Equal(t, `50\%`, escapeLike("50%"))
	assert.Equal(t, `a\_b`, escapeLike("a_b"))
	assert.Equal(t, `back\\slash`, escapeLike(`back\slash`))
	assert.Equal(t, "plain", escapeLike("plain"))
}
