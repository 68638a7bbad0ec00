package node

import (
	"bytes"
	"testing"
)

func TestSerialize(t *testing.T) {
	t.Run("RoundTrip", func(t *testing.T) {
		tr := New(nil)
		data, _ := tr.Root().CreateChild("data")
		data.SetValue(float64(42))
		data.SetType("number")
		data.SetAttribute("@unit", "W")

		out, err := tr.Serialize()
		if err != nil {
			t.Fatalf("Serialize: %v", err)
		}

		loaded, err := Deserialize(out, nil)
		if err != nil {
			t.Fatalf("Deserialize: %v", err)
		}

		n := loaded.Get("/data")
		if n == nil {
			t.Fatal("loaded tree has no /data node")
		}
		if v, ok := n.Value(); !ok || v != float64(42) {
			t.Errorf("value = %v (%v), want 42", v, ok)
		}
		if v, _ := n.Config("$type"); v != "number" {
			t.Errorf("$type = %v, want number", v)
		}
		if v, _ := n.Attribute("@unit"); v != "W" {
			t.Errorf("@unit = %v, want W", v)
		}
	})

	t.Run("TransientExcluded", func(t *testing.T) {
		tr := New(nil)
		defs, _ := tr.Root().CreateChild("defs")
		defs.SetTransient(true)
		defs.CreateChild("profile")
		tr.Root().CreateChild("data")

		out, err := tr.Serialize()
		if err != nil {
			t.Fatalf("Serialize: %v", err)
		}

		loaded, err := Deserialize(out, nil)
		if err != nil {
			t.Fatalf("Deserialize: %v", err)
		}
		if loaded.Get("/defs") != nil {
			t.Error("transient subtree reproduced after reload")
		}
		if loaded.Get("/data") == nil {
			t.Error("non-transient child missing after reload")
		}
	})

	t.Run("Deterministic", func(t *testing.T) {
		build := func(order []string) *Tree {
			tr := New(nil)
			for _, name := range order {
				n, _ := tr.Root().CreateChild(name)
				n.SetValue(name)
			}
			return tr
		}

		a, err := build([]string{"x", "y", "z"}).Serialize()
		if err != nil {
			t.Fatalf("Serialize: %v", err)
		}
		b, err := build([]string{"z", "x", "y"}).Serialize()
		if err != nil {
			t.Fatalf("Serialize: %v", err)
		}
		if !bytes.Equal(a, b) {
			t.Error("insertion order changed serialized output")
		}
	})

	t.Run("LoadedTreeStartsClean", func(t *testing.T) {
		tr := New(nil)
		n, _ := tr.Root().CreateChild("data")
		n.SetValue(1)
		out, _ := tr.Serialize()

		marker := &countingMarker{}
		loaded, err := Deserialize(out, marker)
		if err != nil {
			t.Fatalf("Deserialize: %v", err)
		}
		if marker.Count() != 0 {
			t.Errorf("deserialize marked %d changes, want 0", marker.Count())
		}

		// The marker is live for post-load mutations.
		loaded.Get("/data").SetValue(2)
		if marker.Count() != 1 {
			t.Errorf("post-load mutation marked %d changes, want 1", marker.Count())
		}
	})

	t.Run("MalformedInput", func(t *testing.T) {
		if _, err := Deserialize([]byte("{truncated"), nil); err == nil {
			t.Error("Deserialize accepted malformed JSON")
		}
		if _, err := Deserialize([]byte(`{"child": "not-an-object"}`), nil); err == nil {
			t.Error("Deserialize accepted non-object child")
		}
	})
}
