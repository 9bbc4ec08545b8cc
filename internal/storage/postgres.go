package storage

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"embed"
	"errors"
	"fmt"
	"strings"

	"github.com/lib/pq"
	"github.com/pressly/goose/v3"
	"github.com/xaenox/stash-bot/internal/models"
	"go.uber.org/zap"
)

//go:embed migrations/*.sql
var migrations embed.FS

type DatabaseConfig struct {
	Host        string
	Port        int
	User        string
	Password    string
	DBName      string
	SSLMode     string
	UseInMemory bool
}

type PostgresStorage struct {
	db     *sql.DB
	logger *zap.Logger
}

func NewPostgresStorage(config DatabaseConfig, logger *zap.Logger) (*PostgresStorage, error) {
	connStr := fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		config.Host, config.Port, config.User, config.Password, config.DBName, config.SSLMode)

	db, err := sql.Open("postgres", connStr)
	if err != nil {
		return nil, fmt.Errorf("error opening database: %w", err)
	}

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("error connecting to the database: %w", err)
	}

	storage := &PostgresStorage{db: db, logger: logger}

	if err := storage.runMigrations(context.Background()); err != nil {
		return nil, fmt.Errorf("error migrating database schema: %w", err)
	}

	return storage, nil
}

func (s *PostgresStorage) runMigrations(ctx context.Context) error {
	goose.SetBaseFS(migrations)
	if err := goose.SetDialect("postgres"); err != nil {
		return err
	}
	if err := goose.UpContext(ctx, s.db, "migrations"); err != nil {
		return err
	}
	s.logger.Info("database schema is up to date")
	return nil
}

const itemColumns = "id, user_id, file_id, media_kind, caption, tags, created_at, deleted_at"

func scanItem(row interface{ Scan(...any) error }) (*models.SavedItem, error) {
	item := &models.SavedItem{}
	var deletedAt sql.NullTime
	err := row.Scan(
		&item.ID,
		&item.UserID,
		&item.FileID,
		&item.Kind,
		&item.Caption,
		pq.Array(&item.Tags),
		&item.CreatedAt,
		&deletedAt,
	)
	if err != nil {
		return nil, err
	}
	if deletedAt.Valid {
		t := deletedAt.Time
		item.DeletedAt = &t
	}
	return item, nil
}

// wrapErr classifies driver failures so callers can tell transient
// conditions (timeouts, dead connections) from permanent ones.
func wrapErr(op string, err error) error {
	if errors.Is(err, context.DeadlineExceeded) ||
		errors.Is(err, context.Canceled) ||
		errors.Is(err, driver.ErrBadConn) {
		return fmt.Errorf("%s: %w: %v", op, models.ErrTransient, err)
	}
	return fmt.Errorf("%s: %w", op, err)
}

func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == "23505"
}

func (s *PostgresStorage) UpsertUser(ctx context.Context, userID int64, handle string) error {
	query := `
		INSERT INTO users (id, handle)
		VALUES ($1, $2)
		ON CONFLICT (id) DO UPDATE SET handle = EXCLUDED.handle
		WHERE EXCLUDED.handle <> ''`

	if _, err := s.db.ExecContext(ctx, query, userID, handle); err != nil {
		return wrapErr("error upserting user", err)
	}
	return nil
}

func (s *PostgresStorage) InsertItem(ctx context.Context, item *models.SavedItem) error {
	query := `
		INSERT INTO saved_items (user_id, file_id, media_kind, caption, tags)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, created_at`

	err := s.db.QueryRowContext(
		ctx,
		query,
		item.UserID,
		item.FileID,
		string(item.Kind),
		item.Caption,
		pq.Array(item.Tags),
	).Scan(&item.ID, &item.CreatedAt)

	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("item already saved: %w", models.ErrConstraintViolation)
		}
		return wrapErr("error creating item", err)
	}
	return nil
}

func (s *PostgresStorage) GetItem(ctx context.Context, itemID int64) (*models.SavedItem, error) {
	query := `SELECT ` + itemColumns + ` FROM saved_items WHERE id = $1`

	item, err := scanItem(s.db.QueryRowContext(ctx, query, itemID))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, models.ErrNotFound
	}
	if err != nil {
		return nil, wrapErr("error querying item", err)
	}
	return item, nil
}

func (s *PostgresStorage) GetItemByFileID(ctx context.Context, userID int64, fileID string) (*models.SavedItem, error) {
	query := `
		SELECT ` + itemColumns + `
		FROM saved_items
		WHERE user_id = $1 AND file_id = $2 AND deleted_at IS NULL`

	item, err := scanItem(s.db.QueryRowContext(ctx, query, userID, fileID))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, models.ErrNotFound
	}
	if err != nil {
		return nil, wrapErr("error querying item by file id", err)
	}
	return item, nil
}

func (s *PostgresStorage) UpdateItem(ctx context.Context, itemID int64, caption *string, tags []string) error {
	query := `
		UPDATE saved_items
		SET caption = COALESCE($2, caption),
		    tags = COALESCE($3, tags)
		WHERE id = $1 AND deleted_at IS NULL`

	result, err := s.db.ExecContext(ctx, query, itemID, caption, pq.Array(tags))
	if err != nil {
		return wrapErr("error updating item", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return wrapErr("error getting rows affected", err)
	}
	if rowsAffected == 0 {
		return models.ErrNotFound
	}
	return nil
}

func (s *PostgresStorage) SoftDeleteItem(ctx context.Context, itemID int64) error {
	query := `
		UPDATE saved_items
		SET deleted_at = now()
		WHERE id = $1 AND deleted_at IS NULL`

	result, err := s.db.ExecContext(ctx, query, itemID)
	if err != nil {
		return wrapErr("error deleting item", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return wrapErr("error getting rows affected", err)
	}
	if rowsAffected > 0 {
		return nil
	}

	// Nothing was updated: either the item never existed (NotFound) or
	// it is already deleted (idempotent success).
	var exists bool
	err = s.db.QueryRowContext(ctx,
		`SELECT EXISTS (SELECT 1 FROM saved_items WHERE id = $1)`, itemID).Scan(&exists)
	if err != nil {
		return wrapErr("error checking item existence", err)
	}
	if !exists {
		return models.ErrNotFound
	}
	return nil
}

func (s *PostgresStorage) GetItemsPage(ctx context.Context, userID int64, tag string, after *models.PageKey, limit int) ([]*models.SavedItem, error) {
	var sb strings.Builder
	sb.WriteString(`SELECT ` + itemColumns + ` FROM saved_items WHERE user_id = $1 AND deleted_at IS NULL`)
	args := []any{userID}

	if tag != "" {
		args = append(args, tag)
		fmt.Fprintf(&sb, " AND $%d = ANY(tags)", len(args))
	}
	appendPageClause(&sb, &args, after, limit)

	return s.queryItems(ctx, sb.String(), args)
}

func (s *PostgresStorage) SearchItemsPage(ctx context.Context, userID int64, tokens []string, after *models.PageKey, limit int) ([]*models.SavedItem, error) {
	var sb strings.Builder
	sb.WriteString(`SELECT ` + itemColumns + ` FROM saved_items WHERE user_id = $1 AND deleted_at IS NULL`)
	args := []any{userID}

	// One clause per token: the token must appear in the caption or in
	// at least one tag. Tokens combine with AND.
	for _, token := range tokens {
		args = append(args, "%"+escapeLike(token)+"%")
		fmt.Fprintf(&sb,
			" AND (caption ILIKE $%d OR EXISTS (SELECT 1 FROM unnest(tags) AS t WHERE t ILIKE $%d))",
			len(args), len(args))
	}
	appendPageClause(&sb, &args, after, limit)

	return s.queryItems(ctx, sb.String(), args)
}

func appendPageClause(sb *strings.Builder, args *[]any, after *models.PageKey, limit int) {
	if after != nil {
		*args = append(*args, after.CreatedAt, after.ID)
		fmt.Fprintf(sb, " AND (created_at, id) < ($%d, $%d)", len(*args)-1, len(*args))
	}
	*args = append(*args, limit)
	fmt.Fprintf(sb, " ORDER BY created_at DESC, id DESC LIMIT $%d", len(*args))
}

func escapeLike(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return r.Replace(s)
}

func (s *PostgresStorage) queryItems(ctx context.Context, query string, args []any) ([]*models.SavedItem, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, wrapErr("error querying items", err)
	}
	defer rows.Close()

	var items []*models.SavedItem
	for rows.Next() {
		item, err := scanItem(rows)
		if err != nil {
			return nil, wrapErr("error scanning item", err)
		}
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, wrapErr("error iterating items", err)
	}
	return items, nil
}

func (s *PostgresStorage) Close() error {
	return s.db.Close()
}
