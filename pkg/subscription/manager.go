package subscription

import (
	"errors"
	"log/slog"
	"sync"

	"github.com/iot-dsa/dslink-go/pkg/node"
)

// ErrUnknownID is returned when closing an id that is not mapped.
// Redundant closes are allowed by the protocol, so callers normally
// ignore it.
var ErrUnknownID = errors.New("unknown subscription or stream id")

// Registry maps subscription ids to the nodes they observe.
type Registry struct {
	mu     sync.Mutex
	byID   map[int32]*node.Node
	logger *slog.Logger
}

// NewRegistry creates an empty subscription registry.
// A nil logger disables logging.
func NewRegistry(logger *slog.Logger) *Registry {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Registry{
		byID:   make(map[int32]*node.Node),
		logger: logger,
	}
}

// Open records a subscription: sid maps to n, and n's subscriber set
// gains sid. Re-opening a mapped sid overwrites the mapping without
// deregistering it from the previous node (see the package doc).
func (r *Registry) Open(n *node.Node, sid int32) {
	r.mu.Lock()
	r.byID[sid] = n
	r.mu.Unlock()

	n.AddSubscriber(sid)
}

// Close removes a subscription: sid is deregistered from its node and
// unmapped. An unknown sid is logged at debug level and returns
// ErrUnknownID.
func (r *Registry) Close(sid int32) error {
	r.mu.Lock()
	n, ok := r.byID[sid]
	if ok {
		delete(r.byID, sid)
	}
	r.mu.Unlock()

	if !ok {
		r.logger.Debug("close of unknown sid", "sid", sid)
		return ErrUnknownID
	}
	n.RemoveSubscriber(sid)
	return nil
}

// Node returns the node a sid maps to, or nil.
func (r *Registry) Node(sid int32) *node.Node {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.byID[sid]
}

// Count returns the number of mapped sids.
func (r *Registry) Count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.byID)
}

// Streams maps streaming request ids to the nodes they stream from.
// Its contract mirrors Registry, with list semantics on the node side.
type Streams struct {
	mu     sync.Mutex
	byID   map[int32]*node.Node
	logger *slog.Logger
}

// NewStreams creates an empty stream registry.
// A nil logger disables logging.
func NewStreams(logger *slog.Logger) *Streams {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Streams{
		byID:   make(map[int32]*node.Node),
		logger: logger,
	}
}

// Open records an open stream: rid maps to n, and rid is appended to
// n's stream list. Re-opening a mapped rid overwrites the mapping
// without deregistering it from the previous node.
func (s *Streams) Open(n *node.Node, rid int32) {
	s.mu.Lock()
	s.byID[rid] = n
	s.mu.Unlock()

	n.AddStream(rid)
}

// Close removes a stream: rid is deregistered from its node and
// unmapped. An unknown rid is logged at debug level and returns
// ErrUnknownID.
func (s *Streams) Close(rid int32) error {
	s.mu.Lock()
	n, ok := s.byID[rid]
	if ok {
		delete(s.byID, rid)
	}
	s.mu.Unlock()

	if !ok {
		s.logger.Debug("close of unknown rid", "rid", rid)
		return ErrUnknownID
	}
	n.RemoveStream(rid)
	return nil
}

// Node returns the node a rid maps to, or nil.
func (s *Streams) Node(rid int32) *node.Node {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.byID[rid]
}

// Count returns the number of mapped rids.
func (s *Streams) Count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.byID)
}
