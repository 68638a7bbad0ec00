// Package subscription tracks which remote parties observe which tree
// nodes.
//
// The broker assigns two kinds of ephemeral identifiers, both scoped to
// a connection session:
//
//   - sid: a subscription id, assigned when a requester subscribes to a
//     node's value. A node holds a set of sids; a given sid maps to at
//     most one node.
//   - rid: a request id, assigned per streaming request (for example a
//     list). A node holds a list of rids, since one peer may keep
//     several streams open against the same node under distinct rids.
//
// Registry manages sids and Streams manages rids; the two contracts are
// symmetric. Closing an unknown id is not an error: peers may send
// redundant closes (for example after a timeout on their side), so the
// registries log it at debug level and return ErrUnknownID for callers
// that care, which the link does not.
//
// # Duplicate open
//
// Opening an id that is already mapped overwrites the mapping without
// deregistering the id from the previous node. The protocol does not
// reuse ids while they are open, so this case is not expected in
// practice; the behavior is last-writer-wins and deliberately left as is
// rather than silently corrected.
package subscription
