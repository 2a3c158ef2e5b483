package editor

import (
	"github.com/arborhq/arbor/internal/tree"
)

// Listener receives edit notifications from the editor. The view server
// subscribes to forward them to connected clients. Callbacks run on the
// editing goroutine (or the debounce timer goroutine for save outcomes)
// and must not block.
type Listener interface {
	// OnNodeAdded fires after a node was added. parentID is empty when the
	// node became the new root.
	OnNodeAdded(node *tree.Node, parentID string)

	// OnNodeUpdated fires after a node's fields changed.
	OnNodeUpdated(node *tree.Node)

	// OnNodeDeleted fires after a subtree was pruned.
	OnNodeDeleted(id string)

	// OnTreeReplaced fires after a load, seed, or snapshot import.
	OnTreeReplaced(root *tree.Node)

	// OnSaved fires after a debounced full save succeeded.
	OnSaved()

	// OnSaveError fires when a debounced save failed. The in-memory tree
	// keeps the edited value; the store holds the last successful save.
	OnSaveError(err error)
}

// Subscribe registers a listener. Not safe to call concurrently with edits;
// wire listeners up before the editor starts serving.
func (e *Editor) Subscribe(l Listener) {
	e.listeners = append(e.listeners, l)
}

func (e *Editor) emitNodeAdded(n *tree.Node, parentID string) {
	for _, l := range e.listeners {
		l.OnNodeAdded(n, parentID)
	}
}

func (e *Editor) emitNodeUpdated(n *tree.Node) {
	if n == nil {
		return
	}
	for _, l := range e.listeners {
		l.OnNodeUpdated(n)
	}
}

func (e *Editor) emitNodeDeleted(id string) {
	for _, l := range e.listeners {
		l.OnNodeDeleted(id)
	}
}

func (e *Editor) emitTreeReplaced(root *tree.Node) {
	for _, l := range e.listeners {
		l.OnTreeReplaced(root)
	}
}

func (e *Editor) emitSaved() {
	for _, l := range e.listeners {
		l.OnSaved()
	}
}

func (e *Editor) emitSaveError(err error) {
	for _, l := range e.listeners {
		l.OnSaveError(err)
	}
}
