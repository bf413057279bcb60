// Package sqlite provides a SQLite-backed Store.
//
// Items live in content_items with their parts as one msgpack blob. Each
// IndexProvider gets its own table keyed by item_id, rewritten in the
// same transaction as the item, so queries never see an index row that
// disagrees with the stored parts.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/pthm/hxpart"
	"github.com/pthm/hxpart/lib/store"
	msqlite "modernc.org/sqlite"
	sqlite3lib "modernc.org/sqlite/lib"
)

const schema = `
CREATE TABLE IF NOT EXISTS content_items (
  id           TEXT PRIMARY KEY,
  content_type TEXT NOT NULL,
  version      INTEGER NOT NULL,
  created_at   INTEGER NOT NULL,
  modified_at  INTEGER NOT NULL,
  parts        BLOB NOT NULL
);
CREATE INDEX IF NOT EXISTS content_items_by_type ON content_items (content_type, created_at);
`

var identifier = regexp.MustCompile(`^[a-z_][a-z0-9_]*$`)

// Store persists content items in SQLite.
type Store struct {
	sqlDB     *sql.DB
	providers []store.IndexProvider
	now       func() time.Time
}

var _ store.Store = (*Store)(nil)

func toMillis(value time.Time) int64 {
	return value.UTC().UnixMilli()
}

func fromMillis(value int64) time.Time {
	return time.UnixMilli(value).UTC()
}

// Open opens the database at path, creating the item table and one
// table per index provider if they do not exist.
func Open(ctx context.Context, path string, providers ...store.IndexProvider) (*Store, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("storage path is required")
	}
	for _, ip := range providers {
		if err := checkProvider(ip); err != nil {
			return nil, err
		}
	}

	dsn := filepath.Clean(path) + "?_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)"
	sqlDB, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}
	// One writer at a time; SQLite serializes writes anyway.
	sqlDB.SetMaxOpenConns(1)

	if err := sqlDB.PingContext(ctx); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("ping sqlite db: %w", err)
	}
	s := &Store{
		sqlDB:     sqlDB,
		providers: providers,
		now:       func() time.Time { return time.Now().UTC() },
	}
	if err := s.migrate(ctx); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("create schema: %w", err)
	}
	return s, nil
}

func checkProvider(ip store.IndexProvider) error {
	if !identifier.MatchString(ip.Table()) {
		return fmt.Errorf("index table name %q is not a plain identifier", ip.Table())
	}
	for _, c := range ip.Columns() {
		if !identifier.MatchString(c.Name) || c.Name == "item_id" {
			return fmt.Errorf("index column %s.%s is not usable", ip.Table(), c.Name)
		}
	}
	return nil
}

func (s *Store) migrate(ctx context.Context) error {
	if _, err := s.sqlDB.ExecContext(ctx, schema); err != nil {
		return err
	}
	for _, ip := range s.providers {
		var cols []string
		for _, c := range ip.Columns() {
			typ := "TEXT"
			if c.Type == store.Time {
				typ = "INTEGER"
			}
			cols = append(cols, fmt.Sprintf("%s %s NOT NULL", c.Name, typ))
		}
		ddl := fmt.Sprintf(
			`CREATE TABLE IF NOT EXISTS %s (
			   item_id TEXT PRIMARY KEY REFERENCES content_items (id) ON DELETE CASCADE,
			   %s
			 )`,
			ip.Table(), strings.Join(cols, ",\n"),
		)
		if _, err := s.sqlDB.ExecContext(ctx, ddl); err != nil {
			return fmt.Errorf("index table %s: %w", ip.Table(), err)
		}
	}
	return nil
}

// Close closes the SQLite handle.
func (s *Store) Close() error {
	if s == nil || s.sqlDB == nil {
		return nil
	}
	return s.sqlDB.Close()
}

func (s *Store) Create(ctx context.Context, item *hxpart.ContentItem) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	rows, err := store.IndexRows(item, s.providers)
	if err != nil {
		return err
	}
	parts, err := item.MarshalParts()
	if err != nil {
		return fmt.Errorf("encode parts: %w", err)
	}
	version := max(item.Version, 1)

	err = s.inTx(ctx, func(tx *sql.Tx) error {
		_, err := tx.ExecContext(ctx,
			`INSERT INTO content_items (id, content_type, version, created_at, modified_at, parts)
			 VALUES (?, ?, ?, ?, ?, ?)`,
			item.ID, item.ContentType, version,
			toMillis(item.CreatedUTC), toMillis(item.ModifiedUTC), parts,
		)
		if err != nil {
			if isUniqueViolation(err) {
				return fmt.Errorf("%w: %s", store.ErrAlreadyExists, item.ID)
			}
			return fmt.Errorf("create content item: %w", err)
		}
		return s.writeIndexes(ctx, tx, item.ID, rows)
	})
	if err != nil {
		return err
	}
	item.Version = version
	return nil
}

func (s *Store) Get(ctx context.Context, id string) (*hxpart.ContentItem, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	row := s.sqlDB.QueryRowContext(ctx,
		`SELECT id, content_type, version, created_at, modified_at, parts
		 FROM content_items WHERE id = ?`, id)
	item, err := scanItem(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", store.ErrNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("get content item: %w", err)
	}
	return item, nil
}

func (s *Store) Update(ctx context.Context, item *hxpart.ContentItem) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	rows, err := store.IndexRows(item, s.providers)
	if err != nil {
		return err
	}
	parts, err := item.MarshalParts()
	if err != nil {
		return fmt.Errorf("encode parts: %w", err)
	}
	modified := s.now()

	err = s.inTx(ctx, func(tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx,
			`UPDATE content_items
			 SET version = version + 1, modified_at = ?, parts = ?
			 WHERE id = ? AND version = ?`,
			toMillis(modified), parts, item.ID, item.Version,
		)
		if err != nil {
			return fmt.Errorf("update content item: %w", err)
		}
		n, err := res.RowsAffected()
		if err != nil {
			return fmt.Errorf("update content item: %w", err)
		}
		if n == 0 {
			var stored int
			err := tx.QueryRowContext(ctx, `SELECT version FROM content_items WHERE id = ?`, item.ID).Scan(&stored)
			if errors.Is(err, sql.ErrNoRows) {
				return fmt.Errorf("%w: %s", store.ErrNotFound, item.ID)
			}
			if err != nil {
				return fmt.Errorf("update content item: %w", err)
			}
			return fmt.Errorf("%w: %s at version %d, stored %d", store.ErrConflict, item.ID, item.Version, stored)
		}
		return s.writeIndexes(ctx, tx, item.ID, rows)
	})
	if err != nil {
		return err
	}
	item.Version++
	item.ModifiedUTC = modified
	return nil
}

func (s *Store) Delete(ctx context.Context, id string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	res, err := s.sqlDB.ExecContext(ctx, `DELETE FROM content_items WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete content item: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete content item: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("%w: %s", store.ErrNotFound, id)
	}
	return nil
}

// Query returns items of contentType matching every predicate, in
// creation order.
func (s *Store) Query(ctx context.Context, contentType string, preds []store.Predicate, page store.Page) ([]*hxpart.ContentItem, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err := store.CheckPredicates(preds, s.providers); err != nil {
		return nil, err
	}

	var q strings.Builder
	q.WriteString(`SELECT c.id, c.content_type, c.version, c.created_at, c.modified_at, c.parts
		FROM content_items c WHERE c.content_type = ?`)
	args := []any{contentType}
	for _, p := range preds {
		cond, arg := condition(p)
		fmt.Fprintf(&q, ` AND EXISTS (SELECT 1 FROM %s x WHERE x.item_id = c.id AND %s)`, p.Table, cond)
		args = append(args, arg)
	}
	q.WriteString(` ORDER BY c.created_at, c.rowid LIMIT ? OFFSET ?`)
	args = append(args, page.Limit(), page.Offset())

	rows, err := s.sqlDB.QueryContext(ctx, q.String(), args...)
	if err != nil {
		return nil, fmt.Errorf("query content items: %w", err)
	}
	defer rows.Close()

	var out []*hxpart.ContentItem
	for rows.Next() {
		item, err := scanItem(rows)
		if err != nil {
			return nil, fmt.Errorf("scan content item: %w", err)
		}
		out = append(out, item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("query content items: %w", err)
	}
	return out, nil
}

// condition renders p against alias x. p has passed CheckPredicates.
func condition(p store.Predicate) (string, any) {
	arg := columnValue(p.Value)
	col := "x." + p.Column
	switch p.Op {
	case store.OpNe:
		return col + " <> ?", arg
	case store.OpLt:
		return col + " < ?", arg
	case store.OpGt:
		return col + " > ?", arg
	case store.OpContains:
		return "instr(" + col + ", ?) > 0", arg
	case store.OpStartsWith:
		return "instr(" + col + ", ?) = 1", arg
	default:
		return col + " = ?", arg
	}
}

func columnValue(v any) any {
	if t, ok := v.(time.Time); ok {
		return toMillis(t)
	}
	return v
}

func (s *Store) writeIndexes(ctx context.Context, tx *sql.Tx, itemID string, rows map[string]store.Row) error {
	for _, ip := range s.providers {
		if _, err := tx.ExecContext(ctx, fmt.Sprintf(`DELETE FROM %s WHERE item_id = ?`, ip.Table()), itemID); err != nil {
			return fmt.Errorf("clear index %s: %w", ip.Table(), err)
		}
		row, ok := rows[ip.Table()]
		if !ok {
			continue
		}

		cols := ip.Columns()
		names := []string{"item_id"}
		marks := []string{"?"}
		args := []any{itemID}
		for _, c := range cols {
			names = append(names, c.Name)
			marks = append(marks, "?")
			args = append(args, columnValue(row[c.Name]))
		}
		stmt := fmt.Sprintf(`INSERT INTO %s (%s) VALUES (%s)`,
			ip.Table(), strings.Join(names, ", "), strings.Join(marks, ", "))
		if _, err := tx.ExecContext(ctx, stmt, args...); err != nil {
			return fmt.Errorf("write index %s: %w", ip.Table(), err)
		}
	}
	return nil
}

func (s *Store) inTx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	tx, err := s.sqlDB.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	if err := fn(tx); err != nil {
		_ = tx.Rollback()
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}
	return nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanItem(sc scanner) (*hxpart.ContentItem, error) {
	var (
		item              hxpart.ContentItem
		created, modified int64
		parts             []byte
	)
	if err := sc.Scan(&item.ID, &item.ContentType, &item.Version, &created, &modified, &parts); err != nil {
		return nil, err
	}
	item.CreatedUTC = fromMillis(created)
	item.ModifiedUTC = fromMillis(modified)
	if err := item.UnmarshalParts(parts); err != nil {
		return nil, err
	}
	return &item, nil
}

func isUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	var sqliteErr *msqlite.Error
	if errors.As(err, &sqliteErr) {
		switch sqliteErr.Code() {
		case sqlite3lib.SQLITE_CONSTRAINT_PRIMARYKEY, sqlite3lib.SQLITE_CONSTRAINT_UNIQUE:
			return true
		}
	}
	return strings.Contains(strings.ToLower(err.Error()), "unique constraint failed")
}
