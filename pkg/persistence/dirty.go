package persistence

import (
	"sync/atomic"

	"github.com/iot-dsa/dslink-go/pkg/node"
)

// DirtyFlag records whether the in-memory tree differs from the last
// checkpoint written to storage. It is owned by the link orchestrator
// and shared, by handle, with the node tree (as its ChangeMarker) and
// the Store.
type DirtyFlag struct {
	dirty atomic.Bool
}

// NewDirtyFlag returns a clean flag.
func NewDirtyFlag() *DirtyFlag {
	return &DirtyFlag{}
}

// Mark sets the flag. Implements node.ChangeMarker.
func (f *DirtyFlag) Mark() {
	f.dirty.Store(true)
}

// IsSet reports whether a checkpoint is due.
func (f *DirtyFlag) IsSet() bool {
	return f.dirty.Load()
}

// clear resets the flag at the start of a checkpoint; a concurrent
// Mark survives for the next tick.
func (f *DirtyFlag) clear() {
	f.dirty.Store(false)
}

// Compile-time interface satisfaction check.
var _ node.ChangeMarker = (*DirtyFlag)(nil)
