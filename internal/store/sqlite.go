package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/arborhq/arbor/internal/schema"
	_ "github.com/ncruces/go-sqlite3/driver"
	_ "github.com/ncruces/go-sqlite3/embed"
)

// sqlStore implements Store over a database/sql connection. The embedded
// sqlite backend and the libsql backend share this implementation; only the
// driver and connection string differ.
type sqlStore struct {
	conn *sql.DB
	path string
}

// OpenSQLite opens (creating if needed) an embedded SQLite store at path.
//
// The database runs in WAL mode for concurrent reads. The caller MUST call
// Close() when done.
func OpenSQLite(path string) (Store, error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create database directory: %w", err)
	}

	conn, err := sql.Open("sqlite3", fmt.Sprintf("file:%s", path))
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if err := conn.Ping(); err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	conn.SetMaxOpenConns(25)
	conn.SetMaxIdleConns(5)
	conn.SetConnMaxLifetime(5 * time.Minute)

	s := &sqlStore{conn: conn, path: path}

	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
	} {
		if _, err := s.conn.Exec(pragma); err != nil {
			_ = s.Close()
			return nil, fmt.Errorf("failed to apply %s: %w", pragma, err)
		}
	}

	if err := s.initSchema(context.Background()); err != nil {
		_ = s.Close()
		return nil, err
	}

	return s, nil
}

// initSchema creates the people table and its indexes. Idempotent.
func (s *sqlStore) initSchema(ctx context.Context) error {
	ddl := `
	CREATE TABLE IF NOT EXISTS people (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		born TEXT NOT NULL DEFAULT '',
		collapsed INTEGER NOT NULL DEFAULT 0,
		parent_id TEXT NOT NULL DEFAULT '',
		child_ids TEXT NOT NULL DEFAULT '[]'  -- JSON array of ids
	);

	CREATE INDEX IF NOT EXISTS idx_people_parent ON people(parent_id);
	`

	if _, err := s.conn.ExecContext(ctx, ddl); err != nil {
		return fmt.Errorf("failed to initialize schema: %w", err)
	}
	return nil
}

// Close closes the connection, checkpointing the WAL first.
func (s *sqlStore) Close() error {
	if s.conn == nil {
		return nil
	}
	if _, err := s.conn.Exec("PRAGMA wal_checkpoint(TRUNCATE)"); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: failed to checkpoint WAL: %v\n", err)
	}
	if err := s.conn.Close(); err != nil {
		return fmt.Errorf("failed to close database: %w", err)
	}
	s.conn = nil
	return nil
}

// GetAll implements Store.GetAll.
func (s *sqlStore) GetAll(ctx context.Context) ([]*schema.Record, error) {
	rows, err := s.conn.QueryContext(ctx,
		`SELECT id, name, born, collapsed, parent_id, child_ids FROM people`)
	if err != nil {
		return nil, fmt.Errorf("failed to query records: %w", err)
	}
	defer rows.Close()

	return scanRecords(rows)
}

// GetByID implements Store.GetByID.
func (s *sqlStore) GetByID(ctx context.Context, id string) (*schema.Record, error) {
	row := s.conn.QueryRowContext(ctx,
		`SELECT id, name, born, collapsed, parent_id, child_ids FROM people WHERE id = ?`, id)

	rec, err := scanRecord(row.Scan)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get record %s: %w", id, err)
	}
	return rec, nil
}

// Upsert implements Store.Upsert.
func (s *sqlStore) Upsert(ctx context.Context, rec *schema.Record) error {
	if err := rec.Validate(); err != nil {
		return fmt.Errorf("invalid record: %w", err)
	}

	childJSON, err := json.Marshal(rec.ChildIDs)
	if err != nil {
		return fmt.Errorf("failed to marshal child ids: %w", err)
	}

	query := `
	INSERT INTO people (id, name, born, collapsed, parent_id, child_ids)
	VALUES (?, ?, ?, ?, ?, ?)
	ON CONFLICT(id) DO UPDATE SET
		name = excluded.name,
		born = excluded.born,
		collapsed = excluded.collapsed,
		parent_id = excluded.parent_id,
		child_ids = excluded.child_ids
	`

	if _, err := s.conn.ExecContext(ctx, query,
		rec.ID, rec.Name, rec.Born, boolToInt(rec.Collapsed), rec.ParentID, string(childJSON)); err != nil {
		return fmt.Errorf("failed to upsert record %s: %w", rec.ID, err)
	}
	return nil
}

// Update implements Store.Update.
func (s *sqlStore) Update(ctx context.Context, id string, fields Fields) error {
	if err := validateFields(fields); err != nil {
		return err
	}

	var sets []string
	var args []interface{}
	for k, v := range fields {
		switch k {
		case FieldName, FieldBorn, FieldParentID:
			sets = append(sets, k+" = ?")
			args = append(args, v.(string))
		case FieldCollapsed:
			sets = append(sets, "collapsed = ?")
			args = append(args, boolToInt(v.(bool)))
		case FieldChildIDs:
			childJSON, err := json.Marshal(v.([]string))
			if err != nil {
				return fmt.Errorf("failed to marshal child ids: %w", err)
			}
			sets = append(sets, "child_ids = ?")
			args = append(args, string(childJSON))
		}
	}
	args = append(args, id)

	query := `UPDATE people SET ` + strings.Join(sets, ", ") + ` WHERE id = ?`
	res, err := s.conn.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("failed to update record %s: %w", id, err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check update of %s: %w", id, err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// Delete implements Store.Delete. Deleting an absent id is a no-op.
func (s *sqlStore) Delete(ctx context.Context, id string) error {
	if _, err := s.conn.ExecContext(ctx, `DELETE FROM people WHERE id = ?`, id); err != nil {
		return fmt.Errorf("failed to delete record %s: %w", id, err)
	}
	return nil
}

// scanRecords scans all rows of a records query.
func scanRecords(rows *sql.Rows) ([]*schema.Record, error) {
	var out []*schema.Record
	for rows.Next() {
		rec, err := scanRecord(rows.Scan)
		if err != nil {
			return nil, fmt.Errorf("failed to scan record: %w", err)
		}
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating records: %w", err)
	}
	return out, nil
}

// scanRecord scans a single row through the given scan function.
func scanRecord(scan func(...interface{}) error) (*schema.Record, error) {
	var rec schema.Record
	var collapsed int
	var childJSON string

	if err := scan(&rec.ID, &rec.Name, &rec.Born, &collapsed, &rec.ParentID, &childJSON); err != nil {
		return nil, err
	}

	rec.Collapsed = collapsed != 0
	if childJSON != "" && childJSON != "null" {
		if err := json.Unmarshal([]byte(childJSON), &rec.ChildIDs); err != nil {
			return nil, fmt.Errorf("failed to unmarshal child ids: %w", err)
		}
	}
	return &rec, nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
