package persistence

import (
	"context"
	"log/slog"
	"os"
	"time"

	"github.com/iot-dsa/dslink-go/pkg/node"
)

// DefaultCheckpointInterval is how often a dirty tree is flushed to
// disk. The interval is a protocol constant, not configuration.
const DefaultCheckpointInterval = 5 * time.Second

// BackupSuffix is appended to the primary path to form the backup path.
const BackupSuffix = ".bak"

// Store persists a node tree to a primary file with a one-generation
// backup. It owns the primary and backup file handles for the duration
// of each load or checkpoint operation.
type Store struct {
	path       string
	backupPath string
	dirty      *DirtyFlag
	logger     *slog.Logger
	interval   time.Duration
}

// NewStore creates a store for the given primary path. The backup lives
// at path + ".bak". A nil logger disables logging.
func NewStore(path string, dirty *DirtyFlag, logger *slog.Logger) *Store {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Store{
		path:       path,
		backupPath: path + BackupSuffix,
		dirty:      dirty,
		logger:     logger,
		interval:   DefaultCheckpointInterval,
	}
}

// Load reads the persisted tree. It never fails: a missing primary
// yields a default tree, and a corrupt primary falls back to the backup
// and then to the default tree. See the package documentation for the
// full recovery chain. The second return is true when no persisted
// state could be recovered and a default tree was created; callers use
// it to (re)install default children.
func (s *Store) Load() (*node.Tree, bool) {
	data, err := os.ReadFile(s.path)
	if os.IsNotExist(err) {
		return node.New(s.dirty), true
	}
	if err == nil {
		t, perr := node.Deserialize(data, s.dirty)
		if perr == nil {
			return t, false
		}
		err = perr
	}

	s.logger.Error("unable to load node data", "path", s.path, "err", err)

	if _, serr := os.Stat(s.backupPath); serr != nil {
		s.logger.Warn("backup node data doesn't exist, using default", "path", s.backupPath)
		return node.New(s.dirty), true
	}

	s.logger.Warn("restoring backup node data", "path", s.backupPath)
	if rerr := os.Remove(s.path); rerr != nil {
		s.logger.Error("unable to remove corrupt node data", "err", rerr)
	}
	if rerr := os.Rename(s.backupPath, s.path); rerr != nil {
		s.logger.Error("unable to promote backup, using default", "err", rerr)
		return node.New(s.dirty), true
	}

	data, err = os.ReadFile(s.path)
	if err == nil {
		t, perr := node.Deserialize(data, s.dirty)
		if perr == nil {
			return t, false
		}
		err = perr
	}

	s.logger.Error("unable to restore node data, using default", "err", err)
	return node.New(s.dirty), true
}

// Checkpoint writes the tree to disk if the dirty flag is set. The old
// backup is removed, the current primary rotated to backup, and the new
// tree written and synced to a fresh primary. The flag is cleared
// before the tree is read: a mutation landing mid-write re-marks it and
// is flushed on the next tick instead of being absorbed into a
// checkpoint that predates it. On failure the flag is re-marked and the
// next tick retries.
func (s *Store) Checkpoint(t *node.Tree) error {
	if !s.dirty.IsSet() {
		return nil
	}
	s.dirty.clear()

	if err := s.write(t); err != nil {
		s.dirty.Mark()
		return err
	}
	return nil
}

// write serializes the tree and replaces the primary file, rotating the
// previous primary to the backup slot first.
func (s *Store) write(t *node.Tree) error {
	data, err := t.Serialize()
	if err != nil {
		return err
	}

	// Rotate before writing so a partial write can never replace the
	// only surviving good copy.
	if _, err := os.Stat(s.backupPath); err == nil {
		if err := os.Remove(s.backupPath); err != nil {
			return err
		}
	}
	if _, err := os.Stat(s.path); err == nil {
		if err := os.Rename(s.path, s.backupPath); err != nil {
			return err
		}
	}

	f, err := os.OpenFile(s.path, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0644)
	if err != nil {
		return err
	}
	if _, err := f.Write(data); err != nil {
		f.Close()
		return err
	}
	if err := f.Sync(); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

// Run checkpoints the tree every interval until ctx is canceled, then
// flushes one final checkpoint if the tree is still dirty. Checkpoint
// failures are logged and retried on the next tick.
func (s *Store) Run(ctx context.Context, t *node.Tree) {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			if err := s.Checkpoint(t); err != nil {
				s.logger.Error("final checkpoint failed", "err", err)
			}
			return
		case <-ticker.C:
			if err := s.Checkpoint(t); err != nil {
				s.logger.Error("checkpoint failed", "err", err)
			}
		}
	}
}

// Path returns the primary file path.
func (s *Store) Path() string { return s.path }

// BackupPath returns the backup file path.
func (s *Store) BackupPath() string { return s.backupPath }
