// Package editor implements the synchronization controller that owns the
// current family tree.
//
// The editor holds a single authoritative tree value and mediates every
// user-facing edit: it checks the admin capability, computes a new tree
// through the pure transforms in internal/tree, applies it optimistically,
// and persists through the store. In immediate save mode a persistence
// failure rolls the in-memory tree back to the pre-edit snapshot; in
// debounced mode edits coalesce into a single trailing-edge full-tree save
// and failures are surfaced through the event listeners.
package editor

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"log"
	"os"
	"sync"
	"time"

	"github.com/arborhq/arbor/internal/auth"
	"github.com/arborhq/arbor/internal/schema"
	"github.com/arborhq/arbor/internal/store"
	"github.com/arborhq/arbor/internal/tree"
)

// Validation errors surfaced to the user before any state change.
var (
	// ErrNotAdmin means the session lacks the admin capability.
	ErrNotAdmin = errors.New("admin capability required")

	// ErrRootDelete means a delete targeted the root node.
	ErrRootDelete = errors.New("cannot delete the root of the tree")

	// ErrEmptyName means a name input was empty.
	ErrEmptyName = errors.New("name must not be empty")

	// ErrNoSuchNode means the target id is not in the current tree.
	ErrNoSuchNode = errors.New("no such node")

	// ErrNoTree means the editor has not loaded a tree yet.
	ErrNoTree = errors.New("no tree loaded")
)

// Save modes for Config.SaveMode.
const (
	// SaveDebounced coalesces rapid edits into one full-tree save after a
	// quiet period. This is the default; it keeps write amplification down.
	SaveDebounced = "debounced"

	// SaveImmediate persists each edit as targeted record writes before the
	// operation returns, rolling back the in-memory tree on failure.
	SaveImmediate = "immediate"
)

// Config holds editor configuration.
type Config struct {
	// SaveMode is SaveDebounced or SaveImmediate.
	SaveMode string

	// DebounceInterval is the quiet period before a debounced save fires.
	DebounceInterval time.Duration

	// Logger for editor activity.
	Logger *log.Logger
}

// DefaultConfig returns sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		SaveMode:         SaveDebounced,
		DebounceInterval: 500 * time.Millisecond,
		Logger:           log.New(os.Stderr, "[editor] ", log.LstdFlags),
	}
}

// Editor owns the current tree and applies edits against it.
type Editor struct {
	store   store.Store
	checker auth.Checker
	config  *Config

	mu      sync.Mutex
	current *tree.Node

	saveMu    sync.Mutex
	saveTimer *time.Timer

	listeners []Listener
}

// New creates an editor over the given store. If checker is nil every
// session is treated as admin (local single-user mode). If config is nil
// defaults are used.
func New(st store.Store, checker auth.Checker, config *Config) *Editor {
	if checker == nil {
		checker = auth.AllowAll{}
	}
	if config == nil {
		config = DefaultConfig()
	}
	if config.Logger == nil {
		config.Logger = log.New(os.Stderr, "[editor] ", log.LstdFlags)
	}
	if config.SaveMode == "" {
		config.SaveMode = SaveDebounced
	}
	if config.DebounceInterval <= 0 {
		config.DebounceInterval = 500 * time.Millisecond
	}
	return &Editor{
		store:   st,
		checker: checker,
		config:  config,
	}
}

// Load reads all records from the store and rebuilds the tree. An empty
// store is seeded with the sample tree through the normal save path first.
// A store whose record set cannot form a single tree (duplicate ids,
// multiple roots, shared children) fails the load: that is corruption we
// refuse to guess around. Dangling child references are dropped silently.
func (e *Editor) Load(ctx context.Context) error {
	records, err := e.store.GetAll(ctx)
	if err != nil {
		return fmt.Errorf("failed to read records: %w", err)
	}

	if len(records) == 0 {
		e.config.Logger.Println("Store is empty, seeding sample tree")
		seed := tree.Sample()
		if err := e.saveTree(ctx, seed); err != nil {
			return fmt.Errorf("failed to seed store: %w", err)
		}
		if records, err = e.store.GetAll(ctx); err != nil {
			return fmt.Errorf("failed to reload after seeding: %w", err)
		}
	}

	if err := schema.CheckIntegrity(records); err != nil {
		return fmt.Errorf("store integrity check failed: %w", err)
	}

	root := tree.Build(records)
	if root == nil {
		return fmt.Errorf("store yielded no usable tree from %d records", len(records))
	}

	e.mu.Lock()
	e.current = root
	e.mu.Unlock()

	e.config.Logger.Printf("Loaded tree with %d nodes", tree.Count(root))
	e.emitTreeReplaced(root)
	return nil
}

// Tree returns a deep copy of the current tree, or nil before Load.
func (e *Editor) Tree() *tree.Node {
	e.mu.Lock()
	defer e.mu.Unlock()
	return tree.Clone(e.current)
}

// Find returns a copy of the node with the given id, or nil.
func (e *Editor) Find(id string) *tree.Node {
	e.mu.Lock()
	cur := e.current
	e.mu.Unlock()
	return tree.Clone(tree.Find(cur, id))
}

// Path returns copies of the ancestor chain from the root to id inclusive,
// or nil when the id is absent. Used for breadcrumbs and for locating the
// parent of the current view root.
func (e *Editor) Path(id string) []*tree.Node {
	e.mu.Lock()
	cur := e.current
	e.mu.Unlock()

	var out []*tree.Node
	for _, n := range tree.PathTo(cur, id) {
		c := *n
		c.Children = nil
		out = append(out, &c)
	}
	return out
}

// AddChild appends a new leaf under parentID and returns a copy of it.
func (e *Editor) AddChild(ctx context.Context, token, parentID, name, born string) (*tree.Node, error) {
	if name == "" {
		return nil, ErrEmptyName
	}

	child := &tree.Node{Name: name, Born: born}
	err := e.apply(ctx, token,
		func(cur *tree.Node) (*tree.Node, error) {
			if tree.Find(cur, parentID) == nil {
				return nil, fmt.Errorf("%w: %s", ErrNoSuchNode, parentID)
			}
			child.ID = e.newID(cur)
			return tree.Map(cur, func(n *tree.Node) *tree.Node {
				if n.ID == parentID {
					n.Children = append(append([]*tree.Node(nil), n.Children...), child)
				}
				return n
			}), nil
		},
		func(ctx context.Context, old, cur *tree.Node) error {
			rec := &schema.Record{
				ID:       child.ID,
				Name:     child.Name,
				Born:     child.Born,
				ParentID: parentID,
			}
			if err := e.store.Upsert(ctx, rec); err != nil {
				return err
			}
			return e.store.Update(ctx, parentID, store.Fields{
				store.FieldChildIDs: childIDs(tree.Find(cur, parentID)),
			})
		})
	if err != nil {
		return nil, err
	}

	e.config.Logger.Printf("Added %s (%s) under %s", child.ID, child.Name, parentID)
	e.emitNodeAdded(tree.Clone(child), parentID)
	return tree.Clone(child), nil
}

// EditNode replaces the name (and born date) of the node with the given id.
func (e *Editor) EditNode(ctx context.Context, token, id, name, born string) error {
	if name == "" {
		return ErrEmptyName
	}

	err := e.apply(ctx, token,
		func(cur *tree.Node) (*tree.Node, error) {
			if tree.Find(cur, id) == nil {
				return nil, fmt.Errorf("%w: %s", ErrNoSuchNode, id)
			}
			return tree.Map(cur, func(n *tree.Node) *tree.Node {
				if n.ID == id {
					n.Name = name
					n.Born = born
				}
				return n
			}), nil
		},
		func(ctx context.Context, old, cur *tree.Node) error {
			return e.store.Update(ctx, id, store.Fields{
				store.FieldName: name,
				store.FieldBorn: born,
			})
		})
	if err != nil {
		return err
	}

	e.config.Logger.Printf("Edited %s -> %q", id, name)
	e.emitNodeUpdated(e.Find(id))
	return nil
}

// DeleteNode prunes the node with the given id and its entire subtree.
// Deleting the root is rejected with ErrRootDelete before any state change.
func (e *Editor) DeleteNode(ctx context.Context, token, id string) error {
	err := e.apply(ctx, token,
		func(cur *tree.Node) (*tree.Node, error) {
			if cur != nil && cur.ID == id {
				return nil, ErrRootDelete
			}
			if tree.Find(cur, id) == nil {
				return nil, fmt.Errorf("%w: %s", ErrNoSuchNode, id)
			}
			return tree.Update(cur, func(n *tree.Node) *tree.Node {
				if n.ID == id {
					return nil
				}
				return n
			}), nil
		},
		func(ctx context.Context, old, cur *tree.Node) error {
			if err := e.deleteRecordTree(ctx, id); err != nil {
				return err
			}
			return e.scrubChildReferences(ctx, id)
		})
	if err != nil {
		return err
	}

	e.config.Logger.Printf("Deleted subtree at %s", id)
	e.emitNodeDeleted(id)
	return nil
}

// AddParentAbove inserts a new node as the sole parent of the target,
// splicing it into the target's former position. When the target is the
// root, the new node becomes the new root. Returns a copy of the new node.
func (e *Editor) AddParentAbove(ctx context.Context, token, id, name string) (*tree.Node, error) {
	if name == "" {
		return nil, ErrEmptyName
	}

	parent := &tree.Node{Name: name}
	err := e.apply(ctx, token,
		func(cur *tree.Node) (*tree.Node, error) {
			if tree.Find(cur, id) == nil {
				return nil, fmt.Errorf("%w: %s", ErrNoSuchNode, id)
			}
			parent.ID = e.newID(cur)

			if cur.ID == id {
				parent.Children = []*tree.Node{tree.Clone(cur)}
				return parent, nil
			}

			return tree.Map(cur, func(n *tree.Node) *tree.Node {
				for i, c := range n.Children {
					if c.ID != id {
						continue
					}
					kids := append([]*tree.Node(nil), n.Children...)
					kids[i] = &tree.Node{
						ID:       parent.ID,
						Name:     parent.Name,
						Children: []*tree.Node{c},
					}
					n.Children = kids
					break
				}
				return n
			}), nil
		},
		func(ctx context.Context, old, cur *tree.Node) error {
			// Re-flatten the spliced subtree and upsert every record in it.
			// The inserted node's parent keeps its other children, so its
			// child list is refreshed separately when the target was not
			// the root.
			for _, rec := range tree.Flatten(tree.Find(cur, parent.ID)) {
				if path := tree.PathTo(cur, rec.ID); len(path) >= 2 {
					rec.ParentID = path[len(path)-2].ID
				} else {
					rec.ParentID = ""
				}
				if err := e.store.Upsert(ctx, rec); err != nil {
					return err
				}
			}
			if grand := parentOf(cur, parent.ID); grand != nil {
				return e.store.Update(ctx, grand.ID, store.Fields{
					store.FieldChildIDs: childIDs(grand),
				})
			}
			return nil
		})
	if err != nil {
		return nil, err
	}

	e.config.Logger.Printf("Inserted %s (%s) above %s", parent.ID, parent.Name, id)
	e.emitNodeAdded(e.Find(parent.ID), "")
	return e.Find(parent.ID), nil
}

// ToggleCollapse flips the collapsed flag of the node with the given id.
func (e *Editor) ToggleCollapse(ctx context.Context, token, id string) error {
	var collapsed bool
	err := e.apply(ctx, token,
		func(cur *tree.Node) (*tree.Node, error) {
			target := tree.Find(cur, id)
			if target == nil {
				return nil, fmt.Errorf("%w: %s", ErrNoSuchNode, id)
			}
			collapsed = !target.Collapsed
			return tree.Map(cur, func(n *tree.Node) *tree.Node {
				if n.ID == id {
					n.Collapsed = collapsed
				}
				return n
			}), nil
		},
		func(ctx context.Context, old, cur *tree.Node) error {
			return e.store.Update(ctx, id, store.Fields{store.FieldCollapsed: collapsed})
		})
	if err != nil {
		return err
	}

	e.emitNodeUpdated(e.Find(id))
	return nil
}

// Replace swaps in a whole new tree (snapshot import) and persists it as a
// full save regardless of save mode.
func (e *Editor) Replace(ctx context.Context, token string, root *tree.Node) error {
	if !e.checker.IsAdmin(token) {
		return ErrNotAdmin
	}
	if root == nil {
		return ErrNoTree
	}

	root = tree.Clone(root)

	e.mu.Lock()
	old := e.current
	e.current = root
	e.mu.Unlock()

	if err := e.saveTree(ctx, root); err != nil {
		e.mu.Lock()
		e.current = old
		e.mu.Unlock()
		return fmt.Errorf("failed to persist imported tree: %w", err)
	}

	e.config.Logger.Printf("Replaced tree (%d nodes)", tree.Count(root))
	e.emitTreeReplaced(root)
	return nil
}

// Flush cancels any pending debounced save and runs a full save now.
func (e *Editor) Flush(ctx context.Context) error {
	e.saveMu.Lock()
	if e.saveTimer != nil {
		e.saveTimer.Stop()
		e.saveTimer = nil
	}
	e.saveMu.Unlock()

	e.mu.Lock()
	cur := e.current
	e.mu.Unlock()
	if cur == nil {
		return nil
	}
	return e.saveTree(ctx, cur)
}

// Close cancels any pending debounced save without running it.
func (e *Editor) Close() {
	e.saveMu.Lock()
	defer e.saveMu.Unlock()
	if e.saveTimer != nil {
		e.saveTimer.Stop()
		e.saveTimer = nil
	}
}

// apply runs one edit: capability check, synchronous tree computation,
// optimistic swap, then persistence. mutate sees the latest tree and
// returns its replacement. In immediate mode persist runs before apply
// returns and a failure rolls back; in debounced mode a trailing-edge full
// save is (re)scheduled instead and persist is ignored.
func (e *Editor) apply(
	ctx context.Context,
	token string,
	mutate func(cur *tree.Node) (*tree.Node, error),
	persist func(ctx context.Context, old, cur *tree.Node) error,
) error {
	if !e.checker.IsAdmin(token) {
		return ErrNotAdmin
	}

	e.mu.Lock()
	if e.current == nil {
		e.mu.Unlock()
		return ErrNoTree
	}
	old := e.current
	next, err := mutate(old)
	if err != nil {
		e.mu.Unlock()
		return err
	}
	e.current = next
	e.mu.Unlock()

	if e.config.SaveMode == SaveImmediate {
		if err := persist(ctx, old, next); err != nil {
			e.mu.Lock()
			e.current = old
			e.mu.Unlock()
			return fmt.Errorf("failed to persist edit (rolled back): %w", err)
		}
		return nil
	}

	e.scheduleSave()
	return nil
}

// scheduleSave arms (or re-arms) the trailing-edge debounce timer. The
// save re-reads the current tree when the timer fires, not when it is
// scheduled, so coalesced edits persist their final state.
func (e *Editor) scheduleSave() {
	e.saveMu.Lock()
	defer e.saveMu.Unlock()

	if e.saveTimer != nil {
		e.saveTimer.Stop()
	}
	e.saveTimer = time.AfterFunc(e.config.DebounceInterval, func() {
		e.mu.Lock()
		cur := e.current
		e.mu.Unlock()
		if cur == nil {
			return
		}

		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		if err := e.saveTree(ctx, cur); err != nil {
			e.config.Logger.Printf("Debounced save failed: %v", err)
			e.emitSaveError(err)
			return
		}
		e.emitSaved()
	})
}

// saveTree persists the whole tree: flatten, upsert every record, and
// delete stored records that are no longer part of the tree.
func (e *Editor) saveTree(ctx context.Context, root *tree.Node) error {
	records := tree.Flatten(root)

	existing, err := e.store.GetAll(ctx)
	if err != nil {
		return fmt.Errorf("failed to read existing records: %w", err)
	}

	keep := make(map[string]bool, len(records))
	for _, rec := range records {
		keep[rec.ID] = true
		if err := e.store.Upsert(ctx, rec); err != nil {
			return fmt.Errorf("failed to upsert record %s: %w", rec.ID, err)
		}
	}
	for _, rec := range existing {
		if keep[rec.ID] {
			continue
		}
		if err := e.store.Delete(ctx, rec.ID); err != nil {
			return fmt.Errorf("failed to delete stale record %s: %w", rec.ID, err)
		}
	}
	return nil
}

// deleteRecordTree removes the record with the given id and, recursively,
// every record reachable through its ChildIDs. Deletion order is not
// significant; dangling references left mid-way are cleaned by the final
// reference scrub.
func (e *Editor) deleteRecordTree(ctx context.Context, id string) error {
	rec, err := e.store.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil
		}
		return err
	}
	for _, cid := range rec.ChildIDs {
		if err := e.deleteRecordTree(ctx, cid); err != nil {
			return err
		}
	}
	return e.store.Delete(ctx, id)
}

// scrubChildReferences removes id from every remaining record's ChildIDs.
func (e *Editor) scrubChildReferences(ctx context.Context, id string) error {
	records, err := e.store.GetAll(ctx)
	if err != nil {
		return err
	}
	for _, rec := range records {
		kept := rec.ChildIDs[:0:0]
		changed := false
		for _, cid := range rec.ChildIDs {
			if cid == id {
				changed = true
				continue
			}
			kept = append(kept, cid)
		}
		if !changed {
			continue
		}
		if err := e.store.Update(ctx, rec.ID, store.Fields{store.FieldChildIDs: []string(kept)}); err != nil {
			return err
		}
	}
	return nil
}

// newID generates a random id not present in the given tree. Collisions
// are vanishingly unlikely but cheap to rule out.
func (e *Editor) newID(cur *tree.Node) string {
	for {
		buf := make([]byte, 6)
		if _, err := rand.Read(buf); err != nil {
			// crypto/rand failing means the platform is broken; fall back
			// to a time-derived id rather than crash an edit.
			return fmt.Sprintf("p-%d", time.Now().UnixNano())
		}
		id := "p-" + hex.EncodeToString(buf)
		if tree.Find(cur, id) == nil {
			return id
		}
	}
}

// childIDs lists the immediate child ids of a node.
func childIDs(n *tree.Node) []string {
	if n == nil {
		return nil
	}
	out := make([]string, 0, len(n.Children))
	for _, c := range n.Children {
		out = append(out, c.ID)
	}
	return out
}

// parentOf returns the parent of the node with the given id, or nil for
// the root or an absent id.
func parentOf(root *tree.Node, id string) *tree.Node {
	path := tree.PathTo(root, id)
	if len(path) < 2 {
		return nil
	}
	return path[len(path)-2]
}
