package node

import (
	"strings"
)

// Tree is a link's node structure: a root node plus the change marker
// every node reports mutations to.
type Tree struct {
	root   *Node
	marker ChangeMarker
}

// New creates a tree containing only a root node. Mutations anywhere in
// the tree are reported to marker; pass nil to disable change tracking.
func New(marker ChangeMarker) *Tree {
	if marker == nil {
		marker = NopMarker{}
	}
	return &Tree{
		root:   newNode("", nil, marker),
		marker: marker,
	}
}

// Root returns the tree's root node.
func (t *Tree) Root() *Node { return t.root }

// Get returns the node at the given slash-separated path, or nil.
// "" and "/" address the root.
func (t *Tree) Get(path string) *Node {
	n := t.root
	for _, seg := range splitPath(path) {
		n = n.Child(seg)
		if n == nil {
			return nil
		}
	}
	return n
}

// Set applies a path-addressed write. A final segment starting with "$"
// writes a configuration entry on the owning node, "@" writes an
// attribute, and any other path sets the addressed node's value.
// Returns false if the addressed node does not exist.
func (t *Tree) Set(path string, v any) bool {
	dir, last := splitLast(path)

	switch {
	case strings.HasPrefix(last, "$"):
		n := t.Get(dir)
		if n == nil {
			return false
		}
		n.SetConfig(last, v)
	case strings.HasPrefix(last, "@"):
		n := t.Get(dir)
		if n == nil {
			return false
		}
		n.SetAttribute(last, v)
	default:
		n := t.Get(path)
		if n == nil {
			return false
		}
		n.SetValue(v)
	}
	return true
}

// Remove applies a path-addressed removal. "$"/"@" final segments remove
// a configuration entry or attribute; any other path detaches the
// addressed node from its parent and returns it so the caller can purge
// registry state. The returned node is nil for config/attribute removals
// and for paths that do not resolve.
func (t *Tree) Remove(path string) (*Node, bool) {
	dir, last := splitLast(path)

	switch {
	case strings.HasPrefix(last, "$"):
		n := t.Get(dir)
		if n == nil {
			return nil, false
		}
		n.RemoveConfig(last)
		return nil, true
	case strings.HasPrefix(last, "@"):
		n := t.Get(dir)
		if n == nil {
			return nil, false
		}
		n.RemoveAttribute(last)
		return nil, true
	default:
		parent := t.Get(dir)
		if parent == nil {
			return nil, false
		}
		removed := parent.RemoveChild(last)
		return removed, removed != nil
	}
}

// splitPath splits a slash path into its segments, ignoring empty ones.
func splitPath(path string) []string {
	var segs []string
	for _, seg := range strings.Split(path, "/") {
		if seg != "" {
			segs = append(segs, seg)
		}
	}
	return segs
}

// splitLast splits a path into its parent path and final segment.
func splitLast(path string) (dir, last string) {
	segs := splitPath(path)
	if len(segs) == 0 {
		return "", ""
	}
	return "/" + strings.Join(segs[:len(segs)-1], "/"), segs[len(segs)-1]
}
