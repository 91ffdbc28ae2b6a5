package catalog

import (
	"context"
	"database/sql"
	"fmt"

	_ "github.com/ncruces/go-sqlite3/driver"
	_ "github.com/ncruces/go-sqlite3/embed"

	"github.com/matzehuels/masonry/pkg/core/layout"
	"github.com/matzehuels/masonry/pkg/errors"
)

// imagesSchema is the part of the image index table that layout needs.
// Databases created by the indexer carry more columns; they are ignored.
const imagesSchema = `
CREATE TABLE IF NOT EXISTS images (
    id     INTEGER PRIMARY KEY AUTOINCREMENT,
    width  INTEGER,
    height INTEGER
)`

const selectImages = `SELECT id, width, height FROM images ORDER BY id ASC LIMIT ? OFFSET ?`

// SQLiteSource serves items from the images table of a SQLite database.
type SQLiteSource struct {
	db   *sql.DB
	path string
}

// OpenSQLite opens the database at path and checks that it is reachable.
func OpenSQLite(ctx context.Context, path string) (*SQLiteSource, error) {
	if err := errors.ValidatePath(path); err != nil {
		return nil, err
	}
	db, err := sql.Open("sqlite3", "file:"+path)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidSource, err, "open sqlite %s", path)
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, errors.Wrap(errors.ErrCodeInvalidSource, err, "open sqlite %s", path)
	}
	return &SQLiteSource{db: db, path: path}, nil
}

// NewSQLiteSource wraps an open database handle. Close closes db.
func NewSQLiteSource(db *sql.DB) *SQLiteSource {
	return &SQLiteSource{db: db, path: "sqlite"}
}

// EnsureSchema creates the images table if it does not exist.
func (s *SQLiteSource) EnsureSchema(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, imagesSchema); err != nil {
		return fmt.Errorf("create images table: %w", err)
	}
	return nil
}

// Insert stores items in the images table in one transaction. Existing rows
// with the same ID are replaced.
func (s *SQLiteSource) Insert(ctx context.Context, items []layout.Item) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `INSERT OR REPLACE INTO images (id, width, height) VALUES (?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("prepare insert: %w", err)
	}
	defer stmt.Close()

	for _, it := range items {
		if _, err := stmt.ExecContext(ctx, it.ID, nullInt(it.Width), nullInt(it.Height)); err != nil {
			return fmt.Errorf("insert item %d: %w", it.ID, err)
		}
	}
	return tx.Commit()
}

// Load implements Source.
func (s *SQLiteSource) Load(ctx context.Context, limit, offset int) ([]layout.Item, error) {
	rows, err := s.db.QueryContext(ctx, selectImages, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("query images: %w", err)
	}
	defer rows.Close()

	items := make([]layout.Item, 0, max(limit, 0))
	for rows.Next() {
		var (
			id     int64
			width  sql.NullInt64
			height sql.NullInt64
		)
		if err := rows.Scan(&id, &width, &height); err != nil {
			return nil, fmt.Errorf("scan image row: %w", err)
		}
		items = append(items, layout.Item{ID: id, Width: intPtr(width), Height: intPtr(height)})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("read images: %w", err)
	}
	return items, nil
}

// Name implements Source.
func (s *SQLiteSource) Name() string { return "sqlite://" + s.path }

// Close implements Source.
func (s *SQLiteSource) Close() error { return s.db.Close() }

func intPtr(v sql.NullInt64) *int {
	if !v.Valid {
		return nil
	}
	n := int(v.Int64)
	return &n
}

func nullInt(p *int) sql.NullInt64 {
	if p == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: int64(*p), Valid: true}
}
