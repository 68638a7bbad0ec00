// Package persistence loads and checkpoints a link's node tree.
//
// The tree lives in a single JSON file (typically nodes.json) plus a
// backup file one checkpoint generation behind (nodes.json.bak).
//
// # Loading
//
// Load never fails. If the primary file is missing, it returns a default
// tree containing only a root node. If the primary is unreadable or
// corrupt and a backup exists, the corrupt primary is deleted, the
// backup is promoted to primary, and parsing is retried once. If that
// also fails, or no backup exists, Load falls back to the default tree.
// Every fallback is logged; none is surfaced as an error. Load reports
// whether it had to create a default tree, so callers can install their
// default children on every fresh start, recovery fallbacks included.
//
// # Checkpointing
//
// Checkpoint is a no-op unless the dirty flag is set. A dirty checkpoint
// rotates first and writes second: the old backup is deleted, the
// current primary becomes the backup, and only then is the new tree
// written to a fresh primary file and fsynced. A crash mid-write
// therefore never destroys the only surviving good copy; the backup is
// always one full generation behind, bounding data loss to one
// checkpoint interval.
//
// A failed write re-marks the dirty flag, so the next scheduled tick
// retries automatically; there is no inner retry loop.
//
// # Dirty flag
//
// DirtyFlag is created by the link orchestrator and handed to the node
// tree as its ChangeMarker, so any tree mutation schedules the next
// checkpoint. Checkpoint clears the flag before it reads the tree: a
// mutation landing while the write is in flight re-marks the flag and
// is picked up by the following tick, never silently absorbed into a
// checkpoint that predates it.
package persistence
