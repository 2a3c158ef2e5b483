// Package store provides the keyed document stores that persist flat tree
// records.
//
// Three backends implement the same Store interface: an embedded SQLite
// database (the default), a libSQL/Turso database for remote or replicated
// setups, and an in-memory map for tests and ephemeral runs. The editor
// only ever talks to the interface; backends are selected by configuration.
package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/arborhq/arbor/internal/schema"
)

// ErrNotFound is returned by GetByID and Update when no record has the
// requested id.
var ErrNotFound = errors.New("record not found")

// Field names accepted by Update.
const (
	FieldName      = "name"
	FieldBorn      = "born"
	FieldCollapsed = "collapsed"
	FieldParentID  = "parent_id"
	FieldChildIDs  = "child_ids"
)

// Fields is a partial record update: field name to new value. Allowed keys
// are the Field* constants; child_ids takes a []string, collapsed a bool,
// everything else a string.
type Fields map[string]any

// Store is the persistence collaborator consumed by the editor.
//
// All operations are keyed by record id. Upsert is create-or-replace,
// Update is a partial merge that fails with ErrNotFound for unknown ids,
// and Delete is idempotent. Implementations must be safe for concurrent
// use.
type Store interface {
	// GetAll returns every record in the store, in no particular order.
	GetAll(ctx context.Context) ([]*schema.Record, error)

	// GetByID returns the record with the given id, or ErrNotFound.
	GetByID(ctx context.Context, id string) (*schema.Record, error)

	// Upsert creates or replaces the record with rec.ID.
	Upsert(ctx context.Context, rec *schema.Record) error

	// Update applies a partial field update to an existing record.
	Update(ctx context.Context, id string, fields Fields) error

	// Delete removes the record with the given id. Deleting an absent id
	// is not an error.
	Delete(ctx context.Context, id string) error

	// Close releases backend resources.
	Close() error
}

// Options selects and configures a backend for Open.
type Options struct {
	// Backend is one of "sqlite", "libsql", or "memory".
	Backend string

	// Path is the database file path for the sqlite backend.
	Path string

	// URL is the database URL for the libsql backend
	// (for example libsql://mytree.turso.io).
	URL string

	// AuthToken authenticates the libsql connection.
	AuthToken string
}

// Open constructs the store selected by opts.
func Open(opts Options) (Store, error) {
	switch opts.Backend {
	case "sqlite":
		if opts.Path == "" {
			return nil, fmt.Errorf("sqlite backend requires a database path")
		}
		return OpenSQLite(opts.Path)
	case "libsql":
		if opts.URL == "" {
			return nil, fmt.Errorf("libsql backend requires a database URL")
		}
		return OpenLibSQL(opts.URL, opts.AuthToken)
	case "memory":
		return NewMemory(), nil
	default:
		return nil, fmt.Errorf("unknown store backend %q", opts.Backend)
	}
}

// validateFields rejects unknown field names and wrong value types before
// they reach a backend.
func validateFields(fields Fields) error {
	if len(fields) == 0 {
		return fmt.Errorf("no fields to update")
	}
	for k, v := range fields {
		switch k {
		case FieldName, FieldBorn, FieldParentID:
			if _, ok := v.(string); !ok {
				return fmt.Errorf("field %s requires a string value", k)
			}
		case FieldCollapsed:
			if _, ok := v.(bool); !ok {
				return fmt.Errorf("field %s requires a bool value", k)
			}
		case FieldChildIDs:
			if _, ok := v.([]string); !ok {
				return fmt.Errorf("field %s requires a []string value", k)
			}
		default:
			return fmt.Errorf("unknown field %q", k)
		}
	}
	return nil
}
