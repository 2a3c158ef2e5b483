// Package schema defines the flat, storage-facing record shape for tree nodes.
//
// A Record is the persisted form of one person in the family tree. Ownership
// is expressed through id references instead of nesting: every record names
// its parent (empty for the root) and the ordered ids of its children. The
// codec in internal/tree converts between this shape and the nested tree.
package schema

import (
	"fmt"
)

// Record is the persisted representation of a single tree node.
//
// Fields are flat and independently updatable so partial updates map cleanly
// onto the store's Update operation. ChildIDs is the authoritative ownership
// direction; ParentID is the back-reference used for root detection.
type Record struct {
	ID   string `json:"id"`
	Name string `json:"name"`

	// Born is an optional display date (YYYY-MM-DD), empty when unknown.
	Born string `json:"born,omitempty"`

	// Collapsed is UI state, persisted like any other field.
	Collapsed bool `json:"collapsed,omitempty"`

	// ParentID is the id of the owning record, empty for the root.
	// Exactly one record in a valid set has an empty ParentID.
	ParentID string `json:"parent_id,omitempty"`

	// ChildIDs lists the ids of immediate children in display order.
	ChildIDs []string `json:"child_ids,omitempty"`
}

// Validate checks that the record's own fields are usable.
func (r *Record) Validate() error {
	if r.ID == "" {
		return fmt.Errorf("id is required")
	}
	if r.Name == "" {
		return fmt.Errorf("name is required")
	}
	if len(r.Name) > 200 {
		return fmt.Errorf("name must be 200 characters or less (got %d)", len(r.Name))
	}
	if r.ParentID == r.ID {
		return fmt.Errorf("record %s is its own parent", r.ID)
	}
	for _, c := range r.ChildIDs {
		if c == r.ID {
			return fmt.Errorf("record %s lists itself as a child", r.ID)
		}
	}
	return nil
}

// Clone returns a deep copy of the record.
func (r *Record) Clone() *Record {
	out := *r
	if r.ChildIDs != nil {
		out.ChildIDs = append([]string(nil), r.ChildIDs...)
	}
	return &out
}

// CheckIntegrity verifies that a record set can be interpreted as a single
// tree. It rejects the corruptions that would make tree reconstruction
// ambiguous or cyclic: duplicate ids, more than one root, a child claimed
// by more than one parent, and the root claimed as anyone's child.
//
// Lighter damage is tolerated rather than rejected, matching load behavior:
// a ChildIDs entry with no matching record is simply dropped during
// reconstruction, and an orphaned subtree (parent pointer to a missing
// record) is unreachable from the root and omitted. An empty set is valid
// and means "no data yet".
func CheckIntegrity(records []*Record) error {
	byID := make(map[string]*Record, len(records))
	for _, r := range records {
		if _, dup := byID[r.ID]; dup {
			return fmt.Errorf("duplicate record id %q", r.ID)
		}
		byID[r.ID] = r
	}

	var rootID string
	for _, r := range records {
		if r.ParentID != "" {
			continue
		}
		if rootID != "" {
			return fmt.Errorf("multiple root records: %q and %q", rootID, r.ID)
		}
		rootID = r.ID
	}
	if rootID == "" && len(records) > 0 {
		return fmt.Errorf("no root record in a set of %d", len(records))
	}

	claimedBy := make(map[string]string)
	for _, r := range records {
		for _, c := range r.ChildIDs {
			if _, ok := byID[c]; !ok {
				continue // dangling reference, dropped at build time
			}
			if owner, ok := claimedBy[c]; ok {
				return fmt.Errorf("record %q claimed as child by both %q and %q", c, owner, r.ID)
			}
			claimedBy[c] = r.ID
		}
	}

	// The root owned by another record would put it beneath one of its own
	// descendants, a cycle that no tree reconstruction can represent.
	if owner, ok := claimedBy[rootID]; ok {
		return fmt.Errorf("root record %q claimed as child by %q", rootID, owner)
	}

	return nil
}
