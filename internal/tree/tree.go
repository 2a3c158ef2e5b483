// Package tree implements the in-memory family tree and the pure
// transformations that back every edit.
//
// A tree is a value: transforms never mutate their input, they return a
// freshly built tree. The editor holds exactly one current tree and replaces
// it wholesale on each edit, so readers never observe a half-applied change.
// The codec half of this package (codec.go) converts between the nested
// Node shape and the flat schema.Record shape used by the stores.
package tree

// Node is one person in the family tree.
//
// Children are owned and ordered (insertion order is display order). A node
// appears at most once in a tree; there is no sharing and no cycle.
type Node struct {
	ID   string `json:"id" yaml:"id"`
	Name string `json:"name" yaml:"name"`

	// Born is an optional display date (YYYY-MM-DD).
	Born string `json:"born,omitempty" yaml:"born,omitempty"`

	// Collapsed marks the node's subtree as folded in views. It is plain
	// node data as far as persistence is concerned.
	Collapsed bool `json:"collapsed,omitempty" yaml:"collapsed,omitempty"`

	Children []*Node `json:"children,omitempty" yaml:"children,omitempty"`
}

// Map returns a new tree where every node, visited pre-order, has been
// replaced by fn(node). fn receives a copy it may modify freely and must
// return a non-nil node. Map then recurses into the children of fn's
// result, so a fn that leaves Children alone rewrites node-local fields
// only, while a fn that splices Children (the add-child and add-parent
// edits) has the spliced nodes visited too. The traversal is total and the
// input tree is unchanged.
//
// A nil root maps to nil.
func Map(root *Node, fn func(*Node) *Node) *Node {
	if root == nil {
		return nil
	}
	out := fn(root.shallowCopy())
	kids := out.Children
	out.Children = nil
	for _, c := range kids {
		out.Children = append(out.Children, Map(c, fn))
	}
	return out
}

// Update is Map with deletion: fn returning nil prunes that node together
// with its entire subtree. A surviving node keeps the surviving transformed
// children of its original children, in original order.
//
// If fn rejects the root the whole tree vanishes and Update returns nil;
// callers that must keep a root guard against that before calling.
func Update(root *Node, fn func(*Node) *Node) *Node {
	if root == nil {
		return nil
	}
	out := fn(root.shallowCopy())
	if out == nil {
		return nil
	}
	out.Children = nil
	for _, c := range root.Children {
		if uc := Update(c, fn); uc != nil {
			out.Children = append(out.Children, uc)
		}
	}
	return out
}

// Find returns the node with the given id, searching depth-first in
// pre-order, or nil if the id is not present. The returned node is part of
// the input tree; callers must not mutate it.
func Find(root *Node, id string) *Node {
	if root == nil {
		return nil
	}
	if root.ID == id {
		return root
	}
	for _, c := range root.Children {
		if n := Find(c, id); n != nil {
			return n
		}
	}
	return nil
}

// PathTo returns the ancestor chain from the root to the node with the
// given id, both inclusive. It returns nil when the id is not in the tree.
// The second-to-last element, when present, is the target's parent.
func PathTo(root *Node, id string) []*Node {
	if root == nil {
		return nil
	}
	if root.ID == id {
		return []*Node{root}
	}
	for _, c := range root.Children {
		if p := PathTo(c, id); p != nil {
			return append([]*Node{root}, p...)
		}
	}
	return nil
}

// Clone returns a structurally independent deep copy of the tree.
func Clone(root *Node) *Node {
	return Map(root, func(n *Node) *Node { return n })
}

// Count returns the number of nodes in the tree.
func Count(root *Node) int {
	if root == nil {
		return 0
	}
	n := 1
	for _, c := range root.Children {
		n += Count(c)
	}
	return n
}

// IDs returns all node ids in pre-order.
func IDs(root *Node) []string {
	if root == nil {
		return nil
	}
	out := []string{root.ID}
	for _, c := range root.Children {
		out = append(out, IDs(c)...)
	}
	return out
}

// Equal reports whether two trees are structurally identical: same ids,
// names, born dates, collapsed flags, and child order throughout.
func Equal(a, b *Node) bool {
	if a == nil || b == nil {
		return a == b
	}
	if a.ID != b.ID || a.Name != b.Name || a.Born != b.Born || a.Collapsed != b.Collapsed {
		return false
	}
	if len(a.Children) != len(b.Children) {
		return false
	}
	for i := range a.Children {
		if !Equal(a.Children[i], b.Children[i]) {
			return false
		}
	}
	return true
}

// shallowCopy duplicates the node's own fields. Children still alias the
// original slice; Map and Update overwrite them.
func (n *Node) shallowCopy() *Node {
	out := *n
	return &out
}
