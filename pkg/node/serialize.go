package node

import (
	"encoding/json"
	"fmt"
)

// Serialize encodes the tree in the persisted nodes.json format.
// Transient nodes and their subtrees are omitted. Map keys are emitted
// in lexicographic order, so identical trees serialize identically.
func (t *Tree) Serialize() ([]byte, error) {
	return json.MarshalIndent(t.root.toMap(), "", "  ")
}

// toMap builds the JSON object form of a node: configuration and
// attribute entries keep their prefixed keys, "?value" carries the value
// if set, and every non-transient child appears under its name.
func (n *Node) toMap() map[string]any {
	n.mu.Lock()
	out := make(map[string]any, len(n.config)+len(n.attributes)+len(n.children)+1)
	for k, v := range n.config {
		out[k] = v
	}
	for k, v := range n.attributes {
		out[k] = v
	}
	if n.value.set {
		out["?value"] = n.value.data
	}
	children := make([]*Node, 0, len(n.children))
	for _, c := range n.children {
		children = append(children, c)
	}
	n.mu.Unlock()

	for _, c := range children {
		if c.Transient() {
			continue
		}
		out[c.Name()] = c.toMap()
	}
	return out
}

// Deserialize decodes a serialized tree. Mutations performed during
// decoding do not mark the tree changed; marker is attached afterwards
// so the freshly loaded tree starts clean.
func Deserialize(data []byte, marker ChangeMarker) (*Tree, error) {
	var obj map[string]any
	if err := json.Unmarshal(data, &obj); err != nil {
		return nil, fmt.Errorf("failed to decode node tree: %w", err)
	}

	// Build with a no-op marker, then swap the real one in.
	t := New(NopMarker{})
	if err := t.root.fromMap(obj); err != nil {
		return nil, err
	}
	if marker == nil {
		marker = NopMarker{}
	}
	t.marker = marker
	t.root.attachMarker(marker)
	return t, nil
}

// fromMap populates a node from its JSON object form.
func (n *Node) fromMap(obj map[string]any) error {
	for key, v := range obj {
		switch {
		case key == "?value":
			n.SetValue(v)
		case len(key) > 0 && key[0] == '$':
			n.SetConfig(key, v)
		case len(key) > 0 && key[0] == '@':
			n.SetAttribute(key, v)
		default:
			childObj, ok := v.(map[string]any)
			if !ok {
				return fmt.Errorf("node %q: child %q is not an object", n.Path(), key)
			}
			child, err := n.CreateChild(key)
			if err != nil {
				return fmt.Errorf("node %q: %w", n.Path(), err)
			}
			if err := child.fromMap(childObj); err != nil {
				return err
			}
		}
	}
	return nil
}

// attachMarker replaces the change marker on the subtree.
func (n *Node) attachMarker(marker ChangeMarker) {
	n.marker = marker
	for _, c := range n.Children() {
		c.attachMarker(marker)
	}
}
