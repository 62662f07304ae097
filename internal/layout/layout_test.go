package layout

import (
	"image"
	"math/rand"
	"testing"
)

func TestSplitOnSingleLeaf(t *testing.T) {
	root := InsertSplit(&Leaf{PanelID: 0}, 0, 1, Vertical, true)

	s, ok := root.(*Split)
	if !ok {
		t.Fatalf("expected a split root, got %T", root)
	}
	if s.Axis != Vertical || s.Ratio != DefaultRatio {
		t.Fatalf("unexpected split %+v", s)
	}
	if first, ok := s.First.(*Leaf); !ok || first.PanelID != 1 {
		t.Fatalf("expected the new panel first, got %+v", s.First)
	}
	if second, ok := s.Second.(*Leaf); !ok || second.PanelID != 0 {
		t.Fatalf("expected the target second, got %+v", s.Second)
	}
	if CountLeaves(root) != 2 {
		t.Fatalf("expected 2 leaves, got %d", CountLeaves(root))
	}
}

func TestSplitPastCapIsNoop(t *testing.T) {
	var root Node = &Leaf{PanelID: 0}
	for id := 1; id < MaxLeaves; id++ {
		root = InsertSplit(root, id-1, id, Horizontal, false)
	}
	if CountLeaves(root) != MaxLeaves {
		t.Fatalf("expected %d leaves, got %d", MaxLeaves, CountLeaves(root))
	}
	next := InsertSplit(root, 0, 99, Vertical, true)
	if next != root {
		t.Fatal("expected the same root when the tree is full")
	}
	if Contains(next, 99) {
		t.Fatal("expected no new panel past the cap")
	}
}

func TestRemoveLastLeafIsNoop(t *testing.T) {
	root := &Leaf{PanelID: 3}
	if got := Remove(root, 3); got != root {
		t.Fatalf("expected the single leaf to survive, got %+v", got)
	}
}

func TestRemoveCollapsesParent(t *testing.T) {
	left := &Leaf{PanelID: 0}
	right := NewSplit(Vertical, &Leaf{PanelID: 1}, &Leaf{PanelID: 2})
	root := NewSplit(Horizontal, left, right)

	got := Remove(root, 1)
	s, ok := got.(*Split)
	if !ok {
		t.Fatalf("expected a split root, got %T", got)
	}
	if s.First != left {
		t.Fatal("expected the untouched subtree to keep its identity")
	}
	if l, ok := s.Second.(*Leaf); !ok || l.PanelID != 2 {
		t.Fatalf("expected sibling to replace the removed split, got %+v", s.Second)
	}
	if root.Second != right {
		t.Fatal("expected the original tree to be left alone")
	}
}

func TestSwapKeepsShape(t *testing.T) {
	untouched := NewSplit(Vertical, &Leaf{PanelID: 4}, &Leaf{PanelID: 5})
	root := NewSplit(Horizontal, NewSplit(Vertical, &Leaf{PanelID: 0}, &Leaf{PanelID: 1}), untouched)

	got := Swap(root, 0, 1)
	want := NewSplit(Horizontal, NewSplit(Vertical, &Leaf{PanelID: 1}, &Leaf{PanelID: 0}), untouched)
	if !Equal(got, want) {
		t.Fatalf("unexpected swap result %v", Leaves(got))
	}
	if got.(*Split).Second != untouched {
		t.Fatal("expected the untouched subtree to be shared")
	}
	if Swap(root, 0, 42) != root {
		t.Fatal("expected swap with a missing id to be a no-op")
	}
}

func TestComputeBoundsTilesArea(t *testing.T) {
	rng := rand.New(rand.NewSource(11))
	for trial := 0; trial < 200; trial++ {
		var root Node = &Leaf{PanelID: 0}
		next := 1
		for op := 0; op < 12; op++ {
			ids := Leaves(root)
			if rng.Intn(3) == 0 {
				root = Remove(root, ids[rng.Intn(len(ids))])
				continue
			}
			root = InsertSplit(root, ids[rng.Intn(len(ids))], next, Axis(rng.Intn(2)), rng.Intn(2) == 0)
			next++
		}
		if n := CountLeaves(root); n < 1 || n > MaxLeaves {
			t.Fatalf("trial %d: leaf count %d out of range", trial, n)
		}
		if err := Validate(root); err != nil {
			t.Fatalf("trial %d: %v", trial, err)
		}

		area := image.Rect(3, 5, 3+rng.Intn(300)+1, 5+rng.Intn(200)+1)
		covered := make(map[image.Point]int)
		var total int
		ComputeBounds(root, area, func(id int, r image.Rectangle) {
			if !r.In(area) && !r.Empty() {
				t.Fatalf("trial %d: %v escapes %v", trial, r, area)
			}
			total += r.Dx() * r.Dy()
			for y := r.Min.Y; y < r.Max.Y; y++ {
				for x := r.Min.X; x < r.Max.X; x++ {
					covered[image.Point{X: x, Y: y}]++
				}
			}
		})
		if total != area.Dx()*area.Dy() || len(covered) != total {
			t.Fatalf("trial %d: leaves cover %d px (%d unique) of %d", trial, total, len(covered), area.Dx()*area.Dy())
		}
	}
}

func TestComputeBoundsSplitsAtRatio(t *testing.T) {
	root := NewSplit(Vertical, &Leaf{PanelID: 0}, NewSplit(Horizontal, &Leaf{PanelID: 1}, &Leaf{PanelID: 2}))
	got := map[int]image.Rectangle{}
	ComputeBounds(root, image.Rect(0, 0, 101, 51), func(id int, r image.Rectangle) { got[id] = r })

	if got[0] != image.Rect(0, 0, 101, 25) {
		t.Fatalf("unexpected top %v", got[0])
	}
	if got[1] != image.Rect(0, 25, 50, 51) || got[2] != image.Rect(50, 25, 101, 51) {
		t.Fatalf("unexpected bottom row %v %v", got[1], got[2])
	}
}

func TestValidateRejectsMalformedTrees(t *testing.T) {
	cases := map[string]Node{
		"nil":       nil,
		"unary":     &Split{Axis: Vertical, Ratio: 0.5, First: &Leaf{PanelID: 0}},
		"duplicate": NewSplit(Vertical, &Leaf{PanelID: 1}, &Leaf{PanelID: 1}),
		"ratio":     &Split{Axis: Horizontal, Ratio: 1, First: &Leaf{PanelID: 0}, Second: &Leaf{PanelID: 1}},
		"axis":      &Split{Axis: Axis(7), Ratio: 0.5, First: &Leaf{PanelID: 0}, Second: &Leaf{PanelID: 1}},
	}
	for name, n := range cases {
		if err := Validate(n); err == nil {
			t.Fatalf("%s: expected an error", name)
		}
	}
}
