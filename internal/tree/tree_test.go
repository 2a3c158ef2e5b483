package tree

import (
	"strings"
	"testing"
)

// ancestorTree builds the fixture used across transform tests:
//
//	1
//	└── 2
//	    └── 3
//	        ├── 4
//	        │   ├── 5
//	        │   └── 6
//	        └── 7
//	            └── 8
func ancestorTree() *Node {
	return &Node{ID: "1", Name: "one", Children: []*Node{
		{ID: "2", Name: "two", Children: []*Node{
			{ID: "3", Name: "three", Children: []*Node{
				{ID: "4", Name: "four", Children: []*Node{
					{ID: "5", Name: "five"},
					{ID: "6", Name: "six"},
				}},
				{ID: "7", Name: "seven", Children: []*Node{
					{ID: "8", Name: "eight"},
				}},
			}},
		}},
	}}
}

func TestMap_Identity(t *testing.T) {
	orig := ancestorTree()
	got := Map(orig, func(n *Node) *Node { return n })

	if !Equal(orig, got) {
		t.Fatalf("Identity map changed the tree")
	}
	if got == orig {
		t.Fatalf("Map returned the input root instead of a fresh tree")
	}
	if got.Children[0] == orig.Children[0] {
		t.Fatalf("Map reused a child node from the input tree")
	}
}

func TestMap_RenamesEveryNode(t *testing.T) {
	orig := ancestorTree()
	got := Map(orig, func(n *Node) *Node {
		n.Name = strings.ToUpper(n.Name)
		return n
	})

	for _, id := range IDs(got) {
		n := Find(got, id)
		if n.Name != strings.ToUpper(n.Name) {
			t.Errorf("Node %s not renamed: %q", id, n.Name)
		}
	}
	if Find(orig, "1").Name != "one" {
		t.Fatalf("Map mutated the input tree")
	}
}

func TestMap_SplicedChildrenAreVisited(t *testing.T) {
	// Splicing a new child under "4" must leave the new node subject to
	// the same traversal as everything else.
	orig := ancestorTree()
	got := Map(orig, func(n *Node) *Node {
		if n.ID == "4" {
			n.Children = append(n.Children, &Node{ID: "9", Name: "nine"})
		}
		n.Name = n.Name + "!"
		return n
	})

	added := Find(got, "9")
	if added == nil {
		t.Fatalf("Spliced child not present in result")
	}
	if added.Name != "nine!" {
		t.Fatalf("Spliced child skipped by traversal: name = %q", added.Name)
	}
	if Count(got) != Count(orig)+1 {
		t.Fatalf("Count = %d, want %d", Count(got), Count(orig)+1)
	}
}

func TestMap_NilRoot(t *testing.T) {
	if got := Map(nil, func(n *Node) *Node { return n }); got != nil {
		t.Fatalf("Map(nil) = %v, want nil", got)
	}
}

func TestUpdate_DeletesSubtree(t *testing.T) {
	orig := ancestorTree()
	got := Update(orig, func(n *Node) *Node {
		if n.ID == "6" {
			return nil
		}
		return n
	})

	if Find(got, "6") != nil {
		t.Fatalf("Node 6 still present after deletion")
	}
	four := Find(got, "4")
	if len(four.Children) != 1 || four.Children[0].ID != "5" {
		t.Fatalf("Node 4 children = %v, want just [5]", IDs(four))
	}
	if Find(orig, "6") == nil {
		t.Fatalf("Update mutated the input tree")
	}
}

func TestUpdate_DeletingInnerNodeDropsDescendants(t *testing.T) {
	got := Update(ancestorTree(), func(n *Node) *Node {
		if n.ID == "7" {
			return nil
		}
		return n
	})

	for _, id := range []string{"7", "8"} {
		if Find(got, id) != nil {
			t.Errorf("Node %s survived deletion of its subtree", id)
		}
	}
	if Count(got) != 6 {
		t.Fatalf("Count = %d, want 6", Count(got))
	}
}

func TestUpdate_DeletingRootReturnsNil(t *testing.T) {
	got := Update(ancestorTree(), func(n *Node) *Node { return nil })
	if got != nil {
		t.Fatalf("Update deleting the root = %v, want nil", got)
	}
}

func TestFind(t *testing.T) {
	root := ancestorTree()

	if n := Find(root, "1"); n == nil || n.ID != "1" {
		t.Fatalf("Find(1) = %v", n)
	}
	if n := Find(root, "8"); n == nil || n.Name != "eight" {
		t.Fatalf("Find(8) = %v", n)
	}
	if n := Find(root, "99"); n != nil {
		t.Fatalf("Find(99) = %v, want nil", n)
	}
	if n := Find(nil, "1"); n != nil {
		t.Fatalf("Find on nil tree = %v, want nil", n)
	}
}

func TestPathTo(t *testing.T) {
	root := ancestorTree()

	path := PathTo(root, "8")
	want := []string{"1", "2", "3", "7", "8"}
	if len(path) != len(want) {
		t.Fatalf("PathTo(8) has %d nodes, want %d", len(path), len(want))
	}
	for i, id := range want {
		if path[i].ID != id {
			t.Errorf("path[%d] = %s, want %s", i, path[i].ID, id)
		}
	}

	if p := PathTo(root, "1"); len(p) != 1 || p[0].ID != "1" {
		t.Fatalf("PathTo(root) = %v", p)
	}
	if p := PathTo(root, "99"); p != nil {
		t.Fatalf("PathTo(99) = %v, want nil", p)
	}
}

func TestClone_Independent(t *testing.T) {
	orig := ancestorTree()
	cp := Clone(orig)

	if !Equal(orig, cp) {
		t.Fatalf("Clone is not equal to the original")
	}
	cp.Children[0].Name = "changed"
	if Find(orig, "2").Name != "two" {
		t.Fatalf("Mutating the clone changed the original")
	}
}

func TestEqual(t *testing.T) {
	a := ancestorTree()
	b := ancestorTree()
	if !Equal(a, b) {
		t.Fatalf("Identical trees reported unequal")
	}

	b = ancestorTree()
	b.Children[0].Born = "1950-06-04"
	if Equal(a, b) {
		t.Fatalf("Trees differing in Born reported equal")
	}

	b = ancestorTree()
	four := Find(b, "4")
	four.Children[0], four.Children[1] = four.Children[1], four.Children[0]
	if Equal(a, b) {
		t.Fatalf("Trees differing in child order reported equal")
	}

	if !Equal(nil, nil) {
		t.Fatalf("Equal(nil, nil) = false")
	}
	if Equal(a, nil) {
		t.Fatalf("Equal(tree, nil) = true")
	}
}

func TestCount(t *testing.T) {
	if n := Count(ancestorTree()); n != 8 {
		t.Fatalf("Count = %d, want 8", n)
	}
	if n := Count(nil); n != 0 {
		t.Fatalf("Count(nil) = %d, want 0", n)
	}
}

func TestIDs_PreOrder(t *testing.T) {
	got := IDs(ancestorTree())
	want := []string{"1", "2", "3", "4", "5", "6", "7", "8"}
	if len(got) != len(want) {
		t.Fatalf("IDs returned %d ids, want %d", len(got), len(want))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("IDs[%d] = %s, want %s", i, got[i], want[i])
		}
	}
}
