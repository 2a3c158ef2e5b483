package tree

import (
	"github.com/arborhq/arbor/internal/schema"
)

// Flatten converts a tree into the flat record set used by the stores.
//
// Records are emitted in pre-order (root first), each carrying its parent's
// id (empty for the root) and the ordered ids of its immediate children.
// Storage treats the result as an unordered set; the order only matters for
// deterministic output in tests and exports.
//
// For any valid tree t, Build(Flatten(t)) is structurally equal to t.
func Flatten(root *Node) []*schema.Record {
	var out []*schema.Record
	flattenInto(root, "", &out)
	return out
}

func flattenInto(n *Node, parentID string, out *[]*schema.Record) {
	if n == nil {
		return
	}
	rec := &schema.Record{
		ID:        n.ID,
		Name:      n.Name,
		Born:      n.Born,
		Collapsed: n.Collapsed,
		ParentID:  parentID,
	}
	for _, c := range n.Children {
		rec.ChildIDs = append(rec.ChildIDs, c.ID)
	}
	*out = append(*out, rec)
	for _, c := range n.Children {
		flattenInto(c, n.ID, out)
	}
}

// Build reconstructs a tree from a flat record set.
//
// Reconstruction is two-pass: first a stub node per record, then children
// resolved through the id lookup in ChildIDs order. A ChildIDs entry with no
// matching record is a dangling pointer and is dropped silently. The root is
// the record with an empty ParentID; Build returns nil when the set is empty
// or contains no root, and callers treat that as "no data" (typically by
// seeding defaults). Sets with multiple roots or shared children should be
// rejected beforehand with schema.CheckIntegrity; Build itself picks the
// first root it sees and attaches each child to its first claimant.
func Build(records []*schema.Record) *Node {
	if len(records) == 0 {
		return nil
	}

	nodes := make(map[string]*Node, len(records))
	for _, r := range records {
		nodes[r.ID] = &Node{
			ID:        r.ID,
			Name:      r.Name,
			Born:      r.Born,
			Collapsed: r.Collapsed,
		}
	}

	var root *Node
	attached := make(map[string]bool, len(records))
	for _, r := range records {
		n := nodes[r.ID]
		for _, cid := range r.ChildIDs {
			c, ok := nodes[cid]
			if !ok || attached[cid] {
				continue
			}
			n.Children = append(n.Children, c)
			attached[cid] = true
		}
		if r.ParentID == "" && root == nil {
			root = n
		}
	}

	return root
}
