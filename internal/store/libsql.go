package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/tursodatabase/go-libsql"
)

// OpenLibSQL opens a libSQL (Turso) store at the given URL.
//
// This backend speaks the same schema and SQL as the embedded sqlite store;
// only the driver differs. Use it when the tree lives in a remote or
// replicated Turso database instead of a local file. authToken may be empty
// for unauthenticated local sqld instances.
func OpenLibSQL(url, authToken string) (Store, error) {
	connStr := url
	if authToken != "" {
		connStr = fmt.Sprintf("%s?authToken=%s", url, authToken)
	}

	conn, err := sql.Open("libsql", connStr)
	if err != nil {
		return nil, fmt.Errorf("failed to open libsql database: %w", err)
	}
	if err := conn.Ping(); err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("failed to ping libsql database: %w", err)
	}

	conn.SetMaxOpenConns(25)
	conn.SetMaxIdleConns(5)
	conn.SetConnMaxLifetime(5 * time.Minute)

	s := &sqlStore{conn: conn, path: url}
	if err := s.initSchema(context.Background()); err != nil {
		_ = conn.Close()
		return nil, err
	}
	return s, nil
}
