package node

import (
	"errors"
	"sort"
	"sync"
	"time"
)

// Node errors.
var (
	ErrChildExists = errors.New("child already exists")
)

// ChangeMarker receives a signal whenever the tree is mutated.
// The persistence layer's dirty flag implements this.
type ChangeMarker interface {
	// Mark records that the tree differs from its last checkpoint.
	// Implementations must be safe for concurrent use.
	Mark()
}

// NopMarker discards change notifications. Usable as a zero value.
type NopMarker struct{}

// Mark discards the notification.
func (NopMarker) Mark() {}

// Compile-time interface satisfaction check.
var _ ChangeMarker = NopMarker{}

// Value is a node's optional payload together with its update time.
type Value struct {
	data      any
	set       bool
	updatedAt time.Time
}

// Node is a vertex in a link's data tree.
type Node struct {
	name   string
	parent *Node
	marker ChangeMarker

	mu         sync.Mutex
	children   map[string]*Node
	config     map[string]any
	attributes map[string]any
	value      Value
	transient  bool

	// Remote bookkeeping, maintained by the subscription registries.
	// Subscriber ids form a set; a peer holds at most one subscription
	// per node. Stream ids form a list: one peer may hold several open
	// streams against the same node under distinct request ids.
	subscribers map[int32]struct{}
	streams     []int32
}

// newNode creates a detached node. The root has an empty name and a nil
// parent; every other node inherits its parent's change marker.
func newNode(name string, parent *Node, marker ChangeMarker) *Node {
	if marker == nil {
		marker = NopMarker{}
	}
	return &Node{
		name:        name,
		parent:      parent,
		marker:      marker,
		children:    make(map[string]*Node),
		config:      map[string]any{"$is": "node"},
		attributes:  make(map[string]any),
		subscribers: make(map[int32]struct{}),
	}
}

// Name returns the node's name. The root's name is empty.
func (n *Node) Name() string { return n.name }

// Parent returns the node's parent, or nil for the root.
func (n *Node) Parent() *Node { return n.parent }

// Path returns the node's slash-separated path from the root.
// The root's path is "".
func (n *Node) Path() string {
	if n.parent == nil {
		if n.name == "" {
			return ""
		}
		return "/" + n.name
	}
	return n.parent.Path() + "/" + n.name
}

// Value returns the node's value and whether one has been set.
func (n *Node) Value() (any, bool) {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.value.data, n.value.set
}

// ValueUpdated returns when the value was last set.
func (n *Node) ValueUpdated() time.Time {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.value.updatedAt
}

// SetValue sets the node's value and marks the tree changed.
func (n *Node) SetValue(v any) {
	n.mu.Lock()
	n.value = Value{data: v, set: true, updatedAt: time.Now()}
	n.mu.Unlock()
	n.marker.Mark()
}

// ClearValue removes the node's value.
func (n *Node) ClearValue() {
	n.mu.Lock()
	n.value = Value{}
	n.mu.Unlock()
	n.marker.Mark()
}

// Config returns the configuration value for key.
func (n *Node) Config(key string) (any, bool) {
	n.mu.Lock()
	defer n.mu.Unlock()
	v, ok := n.config[key]
	return v, ok
}

// SetConfig sets a configuration entry. Keys carry their "$" prefix.
func (n *Node) SetConfig(key string, v any) {
	n.mu.Lock()
	n.config[key] = v
	n.mu.Unlock()
	n.marker.Mark()
}

// Configs returns a copy of the configuration map.
func (n *Node) Configs() map[string]any {
	n.mu.Lock()
	defer n.mu.Unlock()
	out := make(map[string]any, len(n.config))
	for k, v := range n.config {
		out[k] = v
	}
	return out
}

// RemoveConfig deletes a configuration entry.
func (n *Node) RemoveConfig(key string) {
	n.mu.Lock()
	delete(n.config, key)
	n.mu.Unlock()
	n.marker.Mark()
}

// Attribute returns the attribute value for key.
func (n *Node) Attribute(key string) (any, bool) {
	n.mu.Lock()
	defer n.mu.Unlock()
	v, ok := n.attributes[key]
	return v, ok
}

// SetAttribute sets a user attribute. Keys carry their "@" prefix.
func (n *Node) SetAttribute(key string, v any) {
	n.mu.Lock()
	n.attributes[key] = v
	n.mu.Unlock()
	n.marker.Mark()
}

// Attributes returns a copy of the attribute map.
func (n *Node) Attributes() map[string]any {
	n.mu.Lock()
	defer n.mu.Unlock()
	out := make(map[string]any, len(n.attributes))
	for k, v := range n.attributes {
		out[k] = v
	}
	return out
}

// RemoveAttribute deletes a user attribute.
func (n *Node) RemoveAttribute(key string) {
	n.mu.Lock()
	delete(n.attributes, key)
	n.mu.Unlock()
	n.marker.Mark()
}

// SetProfile sets the node's "$is" profile.
func (n *Node) SetProfile(profile string) {
	n.SetConfig("$is", profile)
}

// SetType sets the node's "$type" value type.
func (n *Node) SetType(t string) {
	n.SetConfig("$type", t)
}

// Transient reports whether the node is excluded from persistence.
func (n *Node) Transient() bool {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.transient
}

// SetTransient marks the node (and implicitly its subtree) as excluded
// from persistence.
func (n *Node) SetTransient(transient bool) {
	n.mu.Lock()
	n.transient = transient
	n.mu.Unlock()
}

// CreateChild creates and attaches a child node.
// Returns ErrChildExists if a sibling with the same name exists.
func (n *Node) CreateChild(name string) (*Node, error) {
	child := newNode(name, n, n.marker)

	n.mu.Lock()
	if _, exists := n.children[name]; exists {
		n.mu.Unlock()
		return nil, ErrChildExists
	}
	n.children[name] = child
	n.mu.Unlock()

	n.marker.Mark()
	return child, nil
}

// RemoveChild detaches the named child and returns it, or nil if no such
// child exists. The caller is responsible for purging any subscription
// or stream ids still registered inside the removed subtree (the link
// orchestrator does this via CollectIDs).
func (n *Node) RemoveChild(name string) *Node {
	n.mu.Lock()
	child, ok := n.children[name]
	if !ok {
		n.mu.Unlock()
		return nil
	}
	delete(n.children, name)
	n.mu.Unlock()

	n.marker.Mark()
	return child
}

// Child returns the named child, or nil.
func (n *Node) Child(name string) *Node {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.children[name]
}

// HasChild reports whether the named child exists.
func (n *Node) HasChild(name string) bool {
	return n.Child(name) != nil
}

// Children returns the node's children sorted by name.
func (n *Node) Children() []*Node {
	n.mu.Lock()
	out := make([]*Node, 0, len(n.children))
	for _, c := range n.children {
		out = append(out, c)
	}
	n.mu.Unlock()

	sort.Slice(out, func(i, j int) bool { return out[i].name < out[j].name })
	return out
}

// AddSubscriber records a subscription id on the node.
func (n *Node) AddSubscriber(sid int32) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.subscribers[sid] = struct{}{}
}

// RemoveSubscriber removes a subscription id from the node.
func (n *Node) RemoveSubscriber(sid int32) {
	n.mu.Lock()
	defer n.mu.Unlock()
	delete(n.subscribers, sid)
}

// Subscribers returns the node's subscription ids in ascending order.
func (n *Node) Subscribers() []int32 {
	n.mu.Lock()
	out := make([]int32, 0, len(n.subscribers))
	for sid := range n.subscribers {
		out = append(out, sid)
	}
	n.mu.Unlock()

	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// Subscribed reports whether any subscription is registered on the node.
func (n *Node) Subscribed() bool {
	n.mu.Lock()
	defer n.mu.Unlock()
	return len(n.subscribers) > 0
}

// AddStream records an open stream's request id on the node.
func (n *Node) AddStream(rid int32) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.streams = append(n.streams, rid)
}

// RemoveStream removes the first occurrence of a request id from the
// node's stream list.
func (n *Node) RemoveStream(rid int32) {
	n.mu.Lock()
	defer n.mu.Unlock()
	for i, r := range n.streams {
		if r == rid {
			n.streams = append(n.streams[:i], n.streams[i+1:]...)
			return
		}
	}
}

// Streams returns a copy of the node's open stream ids.
func (n *Node) Streams() []int32 {
	n.mu.Lock()
	defer n.mu.Unlock()
	out := make([]int32, len(n.streams))
	copy(out, n.streams)
	return out
}

// CollectIDs walks the subtree rooted at the node and returns every
// subscription id and stream id registered anywhere inside it. Used to
// purge registry entries when a subtree is removed.
func (n *Node) CollectIDs() (sids, rids []int32) {
	sids = append(sids, n.Subscribers()...)
	rids = append(rids, n.Streams()...)
	for _, c := range n.Children() {
		cs, cr := c.CollectIDs()
		sids = append(sids, cs...)
		rids = append(rids, cr...)
	}
	return sids, rids
}
