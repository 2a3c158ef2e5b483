package store

import (
	"context"
	"errors"
	"path/filepath"
	"sort"
	"strings"
	"testing"

	"github.com/arborhq/arbor/internal/schema"
)

// backends runs a subtest against each Store implementation.
func backends(t *testing.T, fn func(t *testing.T, st Store)) {
	t.Helper()

	t.Run("memory", func(t *testing.T) {
		st := NewMemory()
		defer st.Close()
		fn(t, st)
	})

	t.Run("sqlite", func(t *testing.T) {
		st, err := OpenSQLite(filepath.Join(t.TempDir(), "arbor.db"))
		if err != nil {
			t.Fatalf("Failed to open sqlite store: %v", err)
		}
		defer st.Close()
		fn(t, st)
	})
}

func TestStore_UpsertAndGet(t *testing.T) {
	backends(t, func(t *testing.T, st Store) {
		ctx := context.Background()
		rec := &schema.Record{
			ID:       "root",
			Name:     "Alma Whitfield",
			Born:     "1921-03-04",
			ChildIDs: []string{"a", "b"},
		}
		if err := st.Upsert(ctx, rec); err != nil {
			t.Fatalf("Failed to upsert: %v", err)
		}

		got, err := st.GetByID(ctx, "root")
		if err != nil {
			t.Fatalf("Failed to get: %v", err)
		}
		if got.Name != rec.Name || got.Born != rec.Born {
			t.Errorf("Got %+v, want %+v", got, rec)
		}
		if len(got.ChildIDs) != 2 || got.ChildIDs[0] != "a" || got.ChildIDs[1] != "b" {
			t.Errorf("ChildIDs = %v, want [a b]", got.ChildIDs)
		}
	})
}

func TestStore_UpsertReplaces(t *testing.T) {
	backends(t, func(t *testing.T, st Store) {
		ctx := context.Background()
		if err := st.Upsert(ctx, &schema.Record{ID: "p-1", Name: "Before", ChildIDs: []string{"x"}}); err != nil {
			t.Fatalf("Failed to upsert: %v", err)
		}
		if err := st.Upsert(ctx, &schema.Record{ID: "p-1", Name: "After"}); err != nil {
			t.Fatalf("Failed to re-upsert: %v", err)
		}

		got, err := st.GetByID(ctx, "p-1")
		if err != nil {
			t.Fatalf("Failed to get: %v", err)
		}
		if got.Name != "After" {
			t.Errorf("Name = %q, want After", got.Name)
		}
		if len(got.ChildIDs) != 0 {
			t.Errorf("ChildIDs = %v, want empty after replace", got.ChildIDs)
		}
	})
}

func TestStore_UpsertRejectsInvalid(t *testing.T) {
	backends(t, func(t *testing.T, st Store) {
		err := st.Upsert(context.Background(), &schema.Record{ID: "p-1"})
		if err == nil {
			t.Fatalf("Expected validation error for record without name")
		}
	})
}

func TestStore_GetByID_NotFound(t *testing.T) {
	backends(t, func(t *testing.T, st Store) {
		_, err := st.GetByID(context.Background(), "missing")
		if !errors.Is(err, ErrNotFound) {
			t.Fatalf("Error = %v, want ErrNotFound", err)
		}
	})
}

func TestStore_GetAll(t *testing.T) {
	backends(t, func(t *testing.T, st Store) {
		ctx := context.Background()

		recs, err := st.GetAll(ctx)
		if err != nil {
			t.Fatalf("Failed to get all from empty store: %v", err)
		}
		if len(recs) != 0 {
			t.Fatalf("Empty store returned %d records", len(recs))
		}

		for _, id := range []string{"a", "b", "c"} {
			if err := st.Upsert(ctx, &schema.Record{ID: id, Name: "Person " + id}); err != nil {
				t.Fatalf("Failed to upsert %s: %v", id, err)
			}
		}

		recs, err = st.GetAll(ctx)
		if err != nil {
			t.Fatalf("Failed to get all: %v", err)
		}
		if len(recs) != 3 {
			t.Fatalf("GetAll returned %d records, want 3", len(recs))
		}
		ids := make([]string, len(recs))
		for i, r := range recs {
			ids[i] = r.ID
		}
		sort.Strings(ids)
		if ids[0] != "a" || ids[1] != "b" || ids[2] != "c" {
			t.Errorf("Ids = %v, want [a b c]", ids)
		}
	})
}

func TestStore_Update(t *testing.T) {
	backends(t, func(t *testing.T, st Store) {
		ctx := context.Background()
		if err := st.Upsert(ctx, &schema.Record{ID: "p-1", Name: "Before", ParentID: "root"}); err != nil {
			t.Fatalf("Failed to upsert: %v", err)
		}

		err := st.Update(ctx, "p-1", Fields{
			FieldName:      "After",
			FieldCollapsed: true,
			FieldChildIDs:  []string{"p-2"},
		})
		if err != nil {
			t.Fatalf("Failed to update: %v", err)
		}

		got, err := st.GetByID(ctx, "p-1")
		if err != nil {
			t.Fatalf("Failed to get: %v", err)
		}
		if got.Name != "After" || !got.Collapsed {
			t.Errorf("Got %+v after partial update", got)
		}
		if got.ParentID != "root" {
			t.Errorf("ParentID = %q, untouched field changed", got.ParentID)
		}
		if len(got.ChildIDs) != 1 || got.ChildIDs[0] != "p-2" {
			t.Errorf("ChildIDs = %v, want [p-2]", got.ChildIDs)
		}
	})
}

func TestStore_Update_NotFound(t *testing.T) {
	backends(t, func(t *testing.T, st Store) {
		err := st.Update(context.Background(), "missing", Fields{FieldName: "X"})
		if !errors.Is(err, ErrNotFound) {
			t.Fatalf("Error = %v, want ErrNotFound", err)
		}
	})
}

func TestStore_Update_RejectsBadFields(t *testing.T) {
	backends(t, func(t *testing.T, st Store) {
		ctx := context.Background()
		if err := st.Upsert(ctx, &schema.Record{ID: "p-1", Name: "A"}); err != nil {
			t.Fatalf("Failed to upsert: %v", err)
		}

		if err := st.Update(ctx, "p-1", Fields{"favorite_color": "blue"}); err == nil {
			t.Errorf("Expected error for unknown field")
		}
		if err := st.Update(ctx, "p-1", Fields{FieldName: 42}); err == nil {
			t.Errorf("Expected error for wrong value type")
		}
		if err := st.Update(ctx, "p-1", Fields{}); err == nil {
			t.Errorf("Expected error for empty field set")
		}
	})
}

func TestStore_Delete(t *testing.T) {
	backends(t, func(t *testing.T, st Store) {
		ctx := context.Background()
		if err := st.Upsert(ctx, &schema.Record{ID: "p-1", Name: "A"}); err != nil {
			t.Fatalf("Failed to upsert: %v", err)
		}

		if err := st.Delete(ctx, "p-1"); err != nil {
			t.Fatalf("Failed to delete: %v", err)
		}
		if _, err := st.GetByID(ctx, "p-1"); !errors.Is(err, ErrNotFound) {
			t.Fatalf("Record still present after delete")
		}

		// Deleting again is not an error.
		if err := st.Delete(ctx, "p-1"); err != nil {
			t.Fatalf("Second delete failed: %v", err)
		}
	})
}

func TestSQLite_Reopen(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "arbor.db")

	st, err := OpenSQLite(path)
	if err != nil {
		t.Fatalf("Failed to open sqlite store: %v", err)
	}
	if err := st.Upsert(ctx, &schema.Record{ID: "root", Name: "Alma", ChildIDs: []string{"a"}}); err != nil {
		t.Fatalf("Failed to upsert: %v", err)
	}
	if err := st.Close(); err != nil {
		t.Fatalf("Failed to close: %v", err)
	}

	st, err = OpenSQLite(path)
	if err != nil {
		t.Fatalf("Failed to reopen sqlite store: %v", err)
	}
	defer st.Close()

	got, err := st.GetByID(ctx, "root")
	if err != nil {
		t.Fatalf("Failed to get after reopen: %v", err)
	}
	if got.Name != "Alma" || len(got.ChildIDs) != 1 {
		t.Errorf("Got %+v after reopen", got)
	}
}

func TestOpen_BackendSelection(t *testing.T) {
	tests := []struct {
		name    string
		opts    Options
		wantErr string
	}{
		{
			name: "memory",
			opts: Options{Backend: "memory"},
		},
		{
			name: "sqlite",
			opts: Options{Backend: "sqlite", Path: filepath.Join(t.TempDir(), "a.db")},
		},
		{
			name:    "sqlite without path",
			opts:    Options{Backend: "sqlite"},
			wantErr: "requires a database path",
		},
		{
			name:    "libsql without url",
			opts:    Options{Backend: "libsql"},
			wantErr: "requires a database URL",
		},
		{
			name:    "unknown backend",
			opts:    Options{Backend: "etcd"},
			wantErr: "unknown store backend",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			st, err := Open(tt.opts)
			if tt.wantErr != "" {
				if err == nil {
					t.Fatalf("Expected error, got none")
				}
				if !strings.Contains(err.Error(), tt.wantErr) {
					t.Errorf("Error %q does not contain %q", err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("Unexpected error: %v", err)
			}
			st.Close()
		})
	}
}

func TestMemory_FailNext(t *testing.T) {
	ctx := context.Background()
	st := NewMemory()

	boom := errors.New("disk full")
	st.FailNext = boom

	err := st.Upsert(ctx, &schema.Record{ID: "p-1", Name: "A"})
	if !errors.Is(err, boom) {
		t.Fatalf("Error = %v, want injected failure", err)
	}
	if st.Len() != 0 {
		t.Fatalf("Record stored despite injected failure")
	}

	// Failure is one-shot.
	if err := st.Upsert(ctx, &schema.Record{ID: "p-1", Name: "A"}); err != nil {
		t.Fatalf("Second upsert failed: %v", err)
	}
}
