package subscription

import (
	"testing"

	"github.com/iot-dsa/dslink-go/pkg/node"
)

func TestRegistry(t *testing.T) {
	t.Run("OpenClose", func(t *testing.T) {
		tr := node.New(nil)
		n, _ := tr.Root().CreateChild("a")
		reg := NewRegistry(nil)

		reg.Open(n, 1)
		if got := reg.Node(1); got != n {
			t.Errorf("Node(1) = %v, want a", got)
		}
		if sids := n.Subscribers(); len(sids) != 1 || sids[0] != 1 {
			t.Errorf("subscribers = %v, want [1]", sids)
		}

		if err := reg.Close(1); err != nil {
			t.Fatalf("Close: %v", err)
		}
		if len(n.Subscribers()) != 0 {
			t.Error("subscriber set not empty after close")
		}
		if reg.Node(1) != nil {
			t.Error("mapping still present after close")
		}
		if reg.Count() != 0 {
			t.Errorf("Count() = %d, want 0", reg.Count())
		}
	})

	t.Run("CloseUnknownIsNoop", func(t *testing.T) {
		tr := node.New(nil)
		n, _ := tr.Root().CreateChild("a")
		reg := NewRegistry(nil)
		reg.Open(n, 1)

		if err := reg.Close(99); err != ErrUnknownID {
			t.Errorf("Close(99) = %v, want ErrUnknownID", err)
		}
		// State unchanged.
		if reg.Count() != 1 || reg.Node(1) != n {
			t.Error("unknown close changed registry state")
		}
		if len(n.Subscribers()) != 1 {
			t.Error("unknown close changed node state")
		}
	})

	t.Run("DuplicateOpenLastWriterWins", func(t *testing.T) {
		tr := node.New(nil)
		a, _ := tr.Root().CreateChild("a")
		b, _ := tr.Root().CreateChild("b")
		reg := NewRegistry(nil)

		reg.Open(a, 5)
		reg.Open(b, 5)

		// The mapping follows the newer node; the older node is not
		// deregistered.
		if got := reg.Node(5); got != b {
			t.Errorf("Node(5) = %v, want b", got)
		}
		if len(a.Subscribers()) != 1 {
			t.Error("duplicate open deregistered sid from previous node")
		}
		if len(b.Subscribers()) != 1 {
			t.Error("sid missing from new node")
		}
	})
}

func TestStreams(t *testing.T) {
	t.Run("OpenClose", func(t *testing.T) {
		tr := node.New(nil)
		n, _ := tr.Root().CreateChild("a")
		st := NewStreams(nil)

		st.Open(n, 10)
		st.Open(n, 11)
		if st.Count() != 2 {
			t.Errorf("Count() = %d, want 2", st.Count())
		}
		if got := n.Streams(); len(got) != 2 {
			t.Errorf("streams = %v, want 2 entries", got)
		}

		if err := st.Close(10); err != nil {
			t.Fatalf("Close: %v", err)
		}
		if got := n.Streams(); len(got) != 1 || got[0] != 11 {
			t.Errorf("streams after close = %v, want [11]", got)
		}
	})

	t.Run("CloseUnknownIsNoop", func(t *testing.T) {
		st := NewStreams(nil)
		if err := st.Close(42); err != ErrUnknownID {
			t.Errorf("Close(42) = %v, want ErrUnknownID", err)
		}
	})

	t.Run("DuplicateOpenLastWriterWins", func(t *testing.T) {
		tr := node.New(nil)
		a, _ := tr.Root().CreateChild("a")
		b, _ := tr.Root().CreateChild("b")
		st := NewStreams(nil)

		st.Open(a, 7)
		st.Open(b, 7)

		if got := st.Node(7); got != b {
			t.Errorf("Node(7) = %v, want b", got)
		}
		if len(a.Streams()) != 1 {
			t.Error("duplicate open deregistered rid from previous node")
		}
	})
}
