package tree

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Snapshot is the on-disk form of a whole tree, used by import/export and
// the watch daemon. It is the nested shape, not the flat one: snapshot
// files are meant to be written by hand, and nesting is what humans edit.
type Snapshot struct {
	// Version guards the file format. Currently always 1.
	Version int   `yaml:"version"`
	Root    *Node `yaml:"root"`
}

// SnapshotVersion is the current snapshot file format version.
const SnapshotVersion = 1

// ReadSnapshot loads and validates a tree snapshot from a YAML file.
//
// Beyond YAML well-formedness it checks the structural invariants a
// hand-edited file can break: every node needs an id and a name, and no id
// may appear twice.
func ReadSnapshot(path string) (*Node, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read snapshot: %w", err)
	}

	var snap Snapshot
	if err := yaml.Unmarshal(data, &snap); err != nil {
		return nil, fmt.Errorf("failed to parse snapshot: %w", err)
	}
	if snap.Version != SnapshotVersion {
		return nil, fmt.Errorf("unsupported snapshot version %d (want %d)", snap.Version, SnapshotVersion)
	}
	if snap.Root == nil {
		return nil, fmt.Errorf("snapshot has no root node")
	}

	seen := make(map[string]bool)
	var check func(n *Node) error
	check = func(n *Node) error {
		if n.ID == "" {
			return fmt.Errorf("node %q has no id", n.Name)
		}
		if n.Name == "" {
			return fmt.Errorf("node %s has no name", n.ID)
		}
		if seen[n.ID] {
			return fmt.Errorf("duplicate node id %q", n.ID)
		}
		seen[n.ID] = true
		for _, c := range n.Children {
			if err := check(c); err != nil {
				return err
			}
		}
		return nil
	}
	if err := check(snap.Root); err != nil {
		return nil, fmt.Errorf("invalid snapshot: %w", err)
	}

	return snap.Root, nil
}

// WriteSnapshot writes the tree to path as a YAML snapshot file.
func WriteSnapshot(path string, root *Node) error {
	if root == nil {
		return fmt.Errorf("cannot snapshot an empty tree")
	}

	data, err := yaml.Marshal(&Snapshot{Version: SnapshotVersion, Root: root})
	if err != nil {
		return fmt.Errorf("failed to encode snapshot: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write snapshot: %w", err)
	}
	return nil
}
