// Package layout is the split tree that arranges panels on screen.
//
// A tree is a full binary tree of Split nodes whose leaves name panels.
// Mutations never edit a tree in place: they return a new root that shares
// every subtree the change did not touch.
package layout

import (
	"errors"
	"fmt"
	"image"
)

// MaxLeaves caps how many panels a layout can hold.
const MaxLeaves = 4

// DefaultRatio is the share of a split given to the first child.
const DefaultRatio = 0.5

// Axis is the direction a split divides its area.
type Axis int

const (
	// Vertical stacks the children: first on top.
	Vertical Axis = iota
	// Horizontal places the children side by side: first on the left.
	Horizontal
)

func (a Axis) String() string {
	switch a {
	case Vertical:
		return "vertical"
	case Horizontal:
		return "horizontal"
	}
	return fmt.Sprintf("axis(%d)", int(a))
}

// ParseAxis accepts the names written by String.
func ParseAxis(s string) (Axis, error) {
	switch s {
	case "vertical":
		return Vertical, nil
	case "horizontal":
		return Horizontal, nil
	}
	return 0, fmt.Errorf("unknown axis %q", s)
}

// Node is either a *Leaf or a *Split.
type Node interface {
	node()
}

// Leaf places a single panel.
type Leaf struct {
	PanelID int
}

// Split divides its area between two children.
type Split struct {
	Axis   Axis
	Ratio  float64
	First  Node
	Second Node
}

func (*Leaf) node()  {}
func (*Split) node() {}

// NewSplit builds a split at the default ratio.
func NewSplit(axis Axis, first, second Node) *Split {
	return &Split{Axis: axis, Ratio: DefaultRatio, First: first, Second: second}
}

// CountLeaves returns the number of panels in the tree.
func CountLeaves(n Node) int {
	switch n := n.(type) {
	case *Leaf:
		return 1
	case *Split:
		return CountLeaves(n.First) + CountLeaves(n.Second)
	}
	return 0
}

// Contains reports whether id appears in the tree.
func Contains(n Node, id int) bool {
	switch n := n.(type) {
	case *Leaf:
		return n.PanelID == id
	case *Split:
		return Contains(n.First, id) || Contains(n.Second, id)
	}
	return false
}

// Leaves lists panel ids in order, first children before second.
func Leaves(n Node) []int {
	var out []int
	var walk func(Node)
	walk = func(n Node) {
		switch n := n.(type) {
		case *Leaf:
			out = append(out, n.PanelID)
		case *Split:
			walk(n.First)
			walk(n.Second)
		}
	}
	walk(n)
	return out
}

// InsertSplit replaces the target leaf with a split holding the new panel
// and the target. It returns root unchanged when the tree is full or the
// target is missing.
func InsertSplit(root Node, target, newID int, axis Axis, newFirst bool) Node {
	if CountLeaves(root) >= MaxLeaves || !Contains(root, target) || Contains(root, newID) {
		return root
	}
	return insert(root, target, newID, axis, newFirst)
}

func insert(n Node, target, newID int, axis Axis, newFirst bool) Node {
	switch n := n.(type) {
	case *Leaf:
		if n.PanelID != target {
			return n
		}
		added := &Leaf{PanelID: newID}
		if newFirst {
			return NewSplit(axis, added, n)
		}
		return NewSplit(axis, n, added)
	case *Split:
		if Contains(n.First, target) {
			return &Split{Axis: n.Axis, Ratio: n.Ratio, First: insert(n.First, target, newID, axis, newFirst), Second: n.Second}
		}
		return &Split{Axis: n.Axis, Ratio: n.Ratio, First: n.First, Second: insert(n.Second, target, newID, axis, newFirst)}
	}
	return n
}

// Remove deletes a panel's leaf and collapses its parent into the sibling.
// The last remaining leaf is never removed.
func Remove(root Node, id int) Node {
	if CountLeaves(root) <= 1 || !Contains(root, id) {
		return root
	}
	return remove(root, id)
}

func remove(n Node, id int) Node {
	s, ok := n.(*Split)
	if !ok {
		return n
	}
	if l, ok := s.First.(*Leaf); ok && l.PanelID == id {
		return s.Second
	}
	if l, ok := s.Second.(*Leaf); ok && l.PanelID == id {
		return s.First
	}
	if Contains(s.First, id) {
		return &Split{Axis: s.Axis, Ratio: s.Ratio, First: remove(s.First, id), Second: s.Second}
	}
	return &Split{Axis: s.Axis, Ratio: s.Ratio, First: s.First, Second: remove(s.Second, id)}
}

// Swap exchanges the positions of two panels. The shape is unchanged.
func Swap(root Node, a, b int) Node {
	if a == b || !Contains(root, a) || !Contains(root, b) {
		return root
	}
	return swap(root, a, b)
}

func swap(n Node, a, b int) Node {
	switch n := n.(type) {
	case *Leaf:
		switch n.PanelID {
		case a:
			return &Leaf{PanelID: b}
		case b:
			return &Leaf{PanelID: a}
		}
		return n
	case *Split:
		if !Contains(n, a) && !Contains(n, b) {
			return n
		}
		return &Split{Axis: n.Axis, Ratio: n.Ratio, First: swap(n.First, a, b), Second: swap(n.Second, a, b)}
	}
	return n
}

// ComputeBounds walks the tree and hands every leaf its rectangle. The
// leaves tile area exactly.
func ComputeBounds(n Node, area image.Rectangle, assign func(id int, r image.Rectangle)) {
	switch n := n.(type) {
	case *Leaf:
		assign(n.PanelID, area)
	case *Split:
		first, second := area, area
		if n.Axis == Vertical {
			y := area.Min.Y + int(float64(area.Dy())*n.Ratio)
			first.Max.Y, second.Min.Y = y, y
		} else {
			x := area.Min.X + int(float64(area.Dx())*n.Ratio)
			first.Max.X, second.Min.X = x, x
		}
		ComputeBounds(n.First, first, assign)
		ComputeBounds(n.Second, second, assign)
	}
}

// Equal compares shape, axes, ratios and leaf ids.
func Equal(a, b Node) bool {
	switch a := a.(type) {
	case *Leaf:
		bl, ok := b.(*Leaf)
		return ok && a.PanelID == bl.PanelID
	case *Split:
		bs, ok := b.(*Split)
		return ok && a.Axis == bs.Axis && a.Ratio == bs.Ratio &&
			Equal(a.First, bs.First) && Equal(a.Second, bs.Second)
	}
	return a == nil && b == nil
}

var errEmpty = errors.New("empty layout")

// Validate checks that n is a well-formed tree of 1..MaxLeaves unique
// leaves.
func Validate(n Node) error {
	if n == nil {
		return errEmpty
	}
	seen := map[int]bool{}
	var check func(Node) error
	check = func(n Node) error {
		switch n := n.(type) {
		case *Leaf:
			if n == nil {
				return errEmpty
			}
			if seen[n.PanelID] {
				return fmt.Errorf("panel %d appears twice", n.PanelID)
			}
			seen[n.PanelID] = true
			return nil
		case *Split:
			if n == nil || n.First == nil || n.Second == nil {
				return errors.New("split is missing a child")
			}
			if n.Axis != Vertical && n.Axis != Horizontal {
				return fmt.Errorf("invalid axis %d", int(n.Axis))
			}
			if !(n.Ratio > 0 && n.Ratio < 1) {
				return fmt.Errorf("split ratio %v out of range", n.Ratio)
			}
			if err := check(n.First); err != nil {
				return err
			}
			return check(n.Second)
		}
		return fmt.Errorf("unknown node %T", n)
	}
	if err := check(n); err != nil {
		return err
	}
	if len(seen) > MaxLeaves {
		return fmt.Errorf("%d leaves exceeds the limit of %d", len(seen), MaxLeaves)
	}
	return nil
}
