package node

import (
	"sync"
	"testing"
)

// countingMarker counts Mark calls.
type countingMarker struct {
	mu    sync.Mutex
	count int
}

func (m *countingMarker) Mark() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.count++
}

func (m *countingMarker) Count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.count
}

func TestTreeStructure(t *testing.T) {
	t.Run("RootHasEmptyPath", func(t *testing.T) {
		tr := New(nil)
		if got := tr.Root().Path(); got != "" {
			t.Errorf("root path = %q, want \"\"", got)
		}
		if tr.Root().Parent() != nil {
			t.Error("root should have no parent")
		}
	})

	t.Run("ChildPaths", func(t *testing.T) {
		tr := New(nil)
		a, err := tr.Root().CreateChild("a")
		if err != nil {
			t.Fatalf("CreateChild: %v", err)
		}
		b, err := a.CreateChild("b")
		if err != nil {
			t.Fatalf("CreateChild: %v", err)
		}

		if got := a.Path(); got != "/a" {
			t.Errorf("a path = %q, want /a", got)
		}
		if got := b.Path(); got != "/a/b" {
			t.Errorf("b path = %q, want /a/b", got)
		}
		if b.Parent() != a {
			t.Error("b parent should be a")
		}
	})

	t.Run("DuplicateChildRejected", func(t *testing.T) {
		tr := New(nil)
		if _, err := tr.Root().CreateChild("dup"); err != nil {
			t.Fatalf("CreateChild: %v", err)
		}
		if _, err := tr.Root().CreateChild("dup"); err != ErrChildExists {
			t.Errorf("second CreateChild err = %v, want ErrChildExists", err)
		}
	})

	t.Run("GetByPath", func(t *testing.T) {
		tr := New(nil)
		a, _ := tr.Root().CreateChild("a")
		b, _ := a.CreateChild("b")

		if got := tr.Get("/a/b"); got != b {
			t.Errorf("Get(/a/b) = %v, want b", got)
		}
		if got := tr.Get("/"); got != tr.Root() {
			t.Error("Get(/) should return root")
		}
		if got := tr.Get("/missing"); got != nil {
			t.Errorf("Get(/missing) = %v, want nil", got)
		}
	})

	t.Run("RemoveChild", func(t *testing.T) {
		tr := New(nil)
		tr.Root().CreateChild("gone")

		removed := tr.Root().RemoveChild("gone")
		if removed == nil {
			t.Fatal("RemoveChild returned nil for existing child")
		}
		if tr.Root().HasChild("gone") {
			t.Error("child still present after removal")
		}
		if tr.Root().RemoveChild("gone") != nil {
			t.Error("RemoveChild of missing child should return nil")
		}
	})

	t.Run("ChildrenSorted", func(t *testing.T) {
		tr := New(nil)
		for _, name := range []string{"c", "a", "b"} {
			tr.Root().CreateChild(name)
		}
		children := tr.Root().Children()
		want := []string{"a", "b", "c"}
		for i, c := range children {
			if c.Name() != want[i] {
				t.Errorf("children[%d] = %q, want %q", i, c.Name(), want[i])
			}
		}
	})
}

func TestChangeMarking(t *testing.T) {
	marker := &countingMarker{}
	tr := New(marker)
	n, _ := tr.Root().CreateChild("n")

	before := marker.Count()
	n.SetValue(42)
	n.SetConfig("$type", "number")
	n.SetAttribute("@unit", "W")
	tr.Root().RemoveChild("n")

	if got := marker.Count() - before; got != 4 {
		t.Errorf("mutations marked %d times, want 4", got)
	}
}

func TestPathAddressedOps(t *testing.T) {
	t.Run("SetValue", func(t *testing.T) {
		tr := New(nil)
		tr.Root().CreateChild("data")

		if !tr.Set("/data", 42) {
			t.Fatal("Set(/data) failed")
		}
		v, ok := tr.Get("/data").Value()
		if !ok || v != 42 {
			t.Errorf("value = %v (%v), want 42", v, ok)
		}
	})

	t.Run("SetConfigAndAttribute", func(t *testing.T) {
		tr := New(nil)
		tr.Root().CreateChild("data")

		if !tr.Set("/data/$type", "number") {
			t.Fatal("Set(/data/$type) failed")
		}
		if !tr.Set("/data/@unit", "W") {
			t.Fatal("Set(/data/@unit) failed")
		}

		n := tr.Get("/data")
		if v, _ := n.Config("$type"); v != "number" {
			t.Errorf("$type = %v, want number", v)
		}
		if v, _ := n.Attribute("@unit"); v != "W" {
			t.Errorf("@unit = %v, want W", v)
		}
	})

	t.Run("SetMissingNode", func(t *testing.T) {
		tr := New(nil)
		if tr.Set("/missing", 1) {
			t.Error("Set on missing node should fail")
		}
		if tr.Set("/missing/$type", "number") {
			t.Error("Set config on missing node should fail")
		}
	})

	t.Run("RemoveConfigAttributeNode", func(t *testing.T) {
		tr := New(nil)
		n, _ := tr.Root().CreateChild("data")
		n.SetConfig("$type", "number")
		n.SetAttribute("@unit", "W")

		if _, ok := tr.Remove("/data/$type"); !ok {
			t.Fatal("Remove(/data/$type) failed")
		}
		if _, ok := n.Config("$type"); ok {
			t.Error("$type still present")
		}

		if _, ok := tr.Remove("/data/@unit"); !ok {
			t.Fatal("Remove(/data/@unit) failed")
		}
		if _, ok := n.Attribute("@unit"); ok {
			t.Error("@unit still present")
		}

		removed, ok := tr.Remove("/data")
		if !ok || removed != n {
			t.Errorf("Remove(/data) = %v, %v", removed, ok)
		}
	})
}

func TestRemoteBookkeeping(t *testing.T) {
	t.Run("SubscriberSet", func(t *testing.T) {
		tr := New(nil)
		n, _ := tr.Root().CreateChild("n")

		n.AddSubscriber(2)
		n.AddSubscriber(1)
		n.AddSubscriber(2) // set semantics

		sids := n.Subscribers()
		if len(sids) != 2 || sids[0] != 1 || sids[1] != 2 {
			t.Errorf("subscribers = %v, want [1 2]", sids)
		}
		if !n.Subscribed() {
			t.Error("Subscribed() = false with subscribers present")
		}

		n.RemoveSubscriber(1)
		n.RemoveSubscriber(2)
		if n.Subscribed() {
			t.Error("Subscribed() = true after removing all")
		}
	})

	t.Run("StreamList", func(t *testing.T) {
		tr := New(nil)
		n, _ := tr.Root().CreateChild("n")

		// A single peer may open several streams with distinct rids,
		// and the same rid only once per open.
		n.AddStream(7)
		n.AddStream(8)
		n.AddStream(7)

		if got := n.Streams(); len(got) != 3 {
			t.Errorf("streams = %v, want 3 entries", got)
		}
		n.RemoveStream(7)
		if got := n.Streams(); len(got) != 2 {
			t.Errorf("streams after remove = %v, want 2 entries", got)
		}
	})

	t.Run("CollectIDs", func(t *testing.T) {
		tr := New(nil)
		a, _ := tr.Root().CreateChild("a")
		b, _ := a.CreateChild("b")
		a.AddSubscriber(1)
		b.AddSubscriber(2)
		b.AddStream(10)

		sids, rids := a.CollectIDs()
		if len(sids) != 2 {
			t.Errorf("sids = %v, want 2 entries", sids)
		}
		if len(rids) != 1 || rids[0] != 10 {
			t.Errorf("rids = %v, want [10]", rids)
		}
	})
}
