// Package counters models the nested counter tree reported by a monitored
// DNS server: named scalar counters grouped to arbitrary depth.
package counters

// Node is one value in a counter tree. It is a closed variant: a node is
// either an Int scalar, a Str scalar, or a *Group. Leaves are always scalars.
type Node interface {
	isNode()
}

// Int is an integer counter value.
type Int int64

// Str is a string counter value. Strings are never reinterpreted as numbers
// once decoded.
type Str string

// Group is a mapping from key to child node that preserves insertion order.
// Iteration order is the order keys were first set, which keeps encoding of
// the same tree reproducible.
type Group struct {
	keys     []string
	children map[string]Node
}

func (Int) isNode()    {}
func (Str) isNode()    {}
func (*Group) isNode() {}

// NewGroup returns an empty group.
func NewGroup() *Group {
	return &Group{children: make(map[string]Node)}
}

// Set stores a child under key, appending the key to the iteration order if
// it is new.
func (g *Group) Set(key string, n Node) {
	if _, ok := g.children[key]; !ok {
		g.keys = append(g.keys, key)
	}
	g.children[key] = n
}

// Get returns the child stored under key.
func (g *Group) Get(key string) (Node, bool) {
	n, ok := g.children[key]
	return n, ok
}

// Keys returns the group's keys in insertion order. The returned slice is
// shared; callers must not modify it.
func (g *Group) Keys() []string {
	return g.keys
}

// Len returns the number of children.
func (g *Group) Len() int {
	return len(g.children)
}
