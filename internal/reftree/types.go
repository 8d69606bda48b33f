package reftree

import "strings"

// Kind discriminates the node variants the boundary rules care about.
type Kind int

const (
	// KindConstant is one link of a namespace-qualified constant path.
	// Billing::Api::Charge produces three nodes: "Billing::Api::Charge",
	// its parent-less outermost form first, then "Billing::Api", then
	// "Billing". The parent index of each node points at the longer path
	// that encloses it, so walking Parent reconstructs the chain the way
	// the boundary rules expect.
	KindConstant Kind = iota
	// KindAssociation is a relationship-declaring call site whose
	// class_name argument was a literal string.
	KindAssociation
)

type Location struct {
	File   string
	Line   int
	Column int
}

type Node struct {
	Kind Kind
	// Name is the fully-qualified form for constant nodes ("Billing::Api")
	// or the literal class_name value for association nodes.
	Name string
	// Relation is belongs_to, has_one or has_many for association nodes.
	Relation string
	// Declaration marks constant paths that name a module/class being
	// defined rather than used.
	Declaration bool
	// CallReceiver marks the outermost node of a constant path that is the
	// direct receiver of a method call.
	CallReceiver bool
	// Parent is the arena index of the enclosing constant path, or -1.
	Parent   int
	Location Location
}

// Tree is an arena of reference nodes extracted from one source file.
type Tree struct {
	Path  string
	Nodes []Node
}

// Add appends a node and returns its arena index.
func (t *Tree) Add(n Node) int {
	t.Nodes = append(t.Nodes, n)
	return len(t.Nodes) - 1
}

// IsBase reports whether the node is the innermost segment of its constant
// path, i.e. the single-segment constant the chain resolves from.
func (n Node) IsBase() bool {
	return n.Kind == KindConstant && !strings.Contains(strings.TrimPrefix(n.Name, "::"), "::")
}

// Ancestors returns the arena indices of up to max enclosing constant nodes,
// nearest first. The walk stops at the first non-constant parent.
func (t *Tree) Ancestors(idx, max int) []int {
	out := make([]int, 0, max)
	cur := t.Nodes[idx].Parent
	for cur >= 0 && len(out) < max {
		if t.Nodes[cur].Kind != KindConstant {
			break
		}
		out = append(out, cur)
		cur = t.Nodes[cur].Parent
	}
	return out
}

// Outermost returns the index of the widest constant path enclosing idx,
// walking at most max levels. With pathological nesting deeper than the
// bound, the widest node reached within the bound is returned.
func (t *Tree) Outermost(idx, max int) int {
	cur := idx
	for _, a := range t.Ancestors(idx, max) {
		cur = a
	}
	return cur
}
