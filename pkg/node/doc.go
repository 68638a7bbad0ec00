// Package node implements the hierarchical data model a link exposes to
// the broker.
//
// A link's state is a tree of named nodes. Each node carries three kinds
// of data:
//
//   - Configuration: protocol-defined metadata, keys prefixed with "$"
//     (for example "$is", "$type", "$hidden").
//   - Attributes: user-defined metadata, keys prefixed with "@".
//   - Value: an optional scalar or opaque payload with an update
//     timestamp.
//
// # Structure invariants
//
// A node's name is fixed at creation and unique among its siblings. Every
// node except the root has exactly one parent; the parent reference is a
// back-pointer used for path reconstruction only and never implies
// ownership. The structure is a strict tree: no sharing, no cycles.
//
// # Transient nodes
//
// Nodes marked transient represent runtime-only structure (for example
// the "defs" subtree). A transient node and everything below it is
// excluded from serialization and never appears in the persisted file.
//
// # Serialization
//
// Serialize produces the protocol's nodes.json format: each node becomes
// a JSON object whose "$"/"@" keys hold configuration and attributes,
// whose "?value" key holds the value if present, and whose remaining keys
// are child nodes. Keys are emitted in lexicographic order so repeated
// serializations of the same tree are byte-identical.
//
// # Change tracking
//
// The tree is created with a ChangeMarker. Every mutation (value, config,
// attribute, child add/remove) marks it, which is how the persistence
// layer learns that a checkpoint is due. Pass a no-op marker to disable
// tracking.
//
// # Concurrency
//
// Each node guards its own maps with a mutex, so individual operations
// are atomic. Compound operations (walk then mutate) must be serialized
// by the caller; the link orchestrator funnels all protocol-driven
// mutation through its dispatch path.
package node
