package link

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/iot-dsa/dslink-go/pkg/connection"
	"github.com/iot-dsa/dslink-go/pkg/handshake"
	dslog "github.com/iot-dsa/dslink-go/pkg/log"
	"github.com/iot-dsa/dslink-go/pkg/node"
	"github.com/iot-dsa/dslink-go/pkg/persistence"
	"github.com/iot-dsa/dslink-go/pkg/subscription"
	"github.com/iot-dsa/dslink-go/pkg/transport"
	"github.com/iot-dsa/dslink-go/pkg/wire"
)

// Link is a running DSA link: a node tree, its registries and store,
// and the connection to the broker.
type Link struct {
	config Config
	logger *slog.Logger
	events dslog.Logger

	dirty *persistence.DirtyFlag
	store *persistence.Store
	tree  *node.Tree
	fresh bool

	subs    *subscription.Registry
	streams *subscription.Streams

	keypair *handshake.Keypair
	manager *connection.Manager

	// mu serializes frame dispatch against local tree mutation.
	mu sync.Mutex

	// msg is the outbound message sequence.
	msg atomic.Int32

	cancelMu sync.Mutex
	cancel   context.CancelFunc
}

// New builds a link from its configuration. Only configuration
// invariant violations fail construction; connectivity problems are
// handled later, inside Run.
func New(config Config) (*Link, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	logger := config.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	var events dslog.Logger = config.Events
	if events == nil {
		if config.EventLogPath != "" {
			fl, err := dslog.NewFileLogger(config.EventLogPath)
			if err != nil {
				return nil, fmt.Errorf("open event log: %w", err)
			}
			events = fl
		} else {
			events = dslog.NoopLogger{}
		}
	}

	l := &Link{
		config:  config,
		logger:  logger,
		events:  events,
		dirty:   persistence.NewDirtyFlag(),
		subs:    subscription.NewRegistry(logger),
		streams: subscription.NewStreams(logger),
	}

	l.store = persistence.NewStore(config.NodesPath, l.dirty, logger)

	if config.NoSave {
		l.tree = node.New(l.dirty)
		l.fresh = true
	} else {
		l.tree, l.fresh = l.store.Load()
	}

	if l.fresh {
		l.installDefs()
	}

	keypair, err := handshake.LoadOrCreateKeypair(config.KeyPath)
	if err != nil {
		return nil, fmt.Errorf("load keypair: %w", err)
	}
	l.keypair = keypair

	runner := config.Handshake
	if runner == nil {
		runner = l.buildHandshake()
	}
	tr := config.Transport
	if tr == nil {
		tr = transport.NewWebSocket(transport.DefaultConfig())
	}

	l.manager = connection.NewManager(connection.Config{
		Handshake:         runner,
		Transport:         tr,
		KeepAliveInterval: config.KeepAliveInterval,
		Backoff:           config.Backoff,
		Logger:            logger,
		Events:            events,
	})
	l.manager.OnMessage(l.handleFrame)
	l.manager.OnConnected(func(res *handshake.Result) {
		l.logger.Info("link connected", "ds_id", res.DsID)
	})

	return l, nil
}

// Tree returns the link's node tree.
func (l *Link) Tree() *node.Tree {
	return l.tree
}

// State returns the connection lifecycle state.
func (l *Link) State() connection.State {
	return l.manager.State()
}

// SubscriptionCount returns the number of active subscriptions.
func (l *Link) SubscriptionCount() int {
	return l.subs.Count()
}

// StreamCount returns the number of open streams.
func (l *Link) StreamCount() int {
	return l.streams.Count()
}

// Remove deletes the node at path with its subtree and closes every
// subscription and stream registered inside it.
func (l *Link) Remove(path string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	removed, ok := l.tree.Remove(path)
	if ok && removed != nil {
		l.purge(removed)
	}
	return ok
}

// DsID returns the link's durable identity.
func (l *Link) DsID() string {
	return l.keypair.DsID(l.config.Name)
}

// Run connects to the broker and blocks until the context is canceled
// or Close is called. The checkpoint timer runs alongside the connect
// loop unless persistence is disabled; a final flush happens on the
// way out.
func (l *Link) Run(ctx context.Context) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	l.cancelMu.Lock()
	l.cancel = cancel
	l.cancelMu.Unlock()

	var wg sync.WaitGroup
	if !l.config.NoSave {
		wg.Add(1)
		go func() {
			defer wg.Done()
			l.store.Run(ctx, l.tree)
		}()
	}

	l.manager.Run(ctx)
	wg.Wait()
}

// Close stops a running link. Safe to call more than once.
func (l *Link) Close() {
	l.cancelMu.Lock()
	defer l.cancelMu.Unlock()
	if l.cancel != nil {
		l.cancel()
		l.cancel = nil
	}
}

// installDefs adds the default structure under a freshly created root:
// a hidden, transient "defs" node holding the profile definitions.
func (l *Link) installDefs() {
	defs, err := l.tree.Root().CreateChild("defs")
	if err != nil {
		return
	}
	defs.SetConfig("$hidden", true)
	defs.SetTransient(true)
	if _, err := defs.CreateChild("profile"); err != nil {
		l.logger.Warn("failed to create profile node", "err", err)
	}
}

// buildHandshake wires the concrete handshake, deferring broker
// discovery to the first connect attempt when no broker is configured.
func (l *Link) buildHandshake() handshake.Runner {
	cfg := handshake.Config{
		BrokerURL: l.config.Broker,
		Name:      l.config.Name,
		Token:     l.config.Token,
		Requester: l.config.Requester,
		Responder: l.config.Responder,
	}
	if cfg.BrokerURL != "" {
		return handshake.New(cfg, l.keypair)
	}
	return &discoveringRunner{config: cfg, keypair: l.keypair, logger: l.logger}
}

// handleFrame decodes one inbound frame and routes its requests. Every
// frame gets an acknowledgment, even an empty liveness frame; a decoder
// error drops the frame with a debug log, since a misbehaving broker
// must not take the link down.
func (l *Link) handleFrame(payload []byte) {
	m, err := wire.DecodeMessage(payload)
	if err != nil {
		l.logger.Debug("dropping undecodable frame", "err", err)
		return
	}

	responses := l.dispatch(m.Requests)

	reply := &wire.Message{Ack: m.Msg, Responses: responses}
	if len(responses) > 0 {
		reply.Msg = l.msg.Add(1)
	}
	l.send(reply)
}

// dispatch routes requests to the registries and the tree. The lock
// spans the whole batch, so a frame's mutations are atomic with
// respect to checkpoint serialization and other frames.
func (l *Link) dispatch(requests []wire.Request) []wire.Response {
	l.mu.Lock()
	defer l.mu.Unlock()

	var responses []wire.Response
	for i := range requests {
		responses = l.dispatchOne(&requests[i], responses)
	}
	return responses
}

func (l *Link) dispatchOne(req *wire.Request, responses []wire.Response) []wire.Response {
	switch req.Method {
	case wire.MethodSubscribe:
		for _, p := range req.Paths {
			n := l.tree.Get(p.Path)
			if n == nil {
				l.logger.Debug("subscribe to unknown path", "path", p.Path)
				continue
			}
			l.subs.Open(n, p.Sid)
			if update := valueUpdate(n, p.Sid); update != nil {
				responses = append(responses, wire.Response{Rid: 0, Updates: []any{update}})
			}
		}
		responses = append(responses, wire.Response{Rid: req.Rid, Stream: wire.StreamClosed})

	case wire.MethodUnsubscribe:
		for _, sid := range req.Sids {
			if err := l.subs.Close(sid); err != nil {
				l.logger.Debug("unsubscribe unknown sid", "sid", sid)
			}
		}
		responses = append(responses, wire.Response{Rid: req.Rid, Stream: wire.StreamClosed})

	case wire.MethodList:
		n := l.tree.Get(req.Path)
		if n == nil {
			responses = append(responses, wire.Response{Rid: req.Rid, Stream: wire.StreamClosed})
			break
		}
		l.streams.Open(n, req.Rid)
		responses = append(responses, wire.Response{
			Rid:     req.Rid,
			Stream:  wire.StreamOpen,
			Updates: listRows(n),
		})

	case wire.MethodClose:
		if err := l.streams.Close(req.Rid); err != nil {
			l.logger.Debug("close unknown rid", "rid", req.Rid)
		}

	case wire.MethodSet:
		if !l.tree.Set(req.Path, req.Value) {
			l.logger.Debug("set on unknown path", "path", req.Path)
		}
		responses = append(responses, wire.Response{Rid: req.Rid, Stream: wire.StreamClosed})

	case wire.MethodRemove:
		if removed, ok := l.tree.Remove(req.Path); ok {
			if removed != nil {
				l.purge(removed)
			}
		} else {
			l.logger.Debug("remove on unknown path", "path", req.Path)
		}
		responses = append(responses, wire.Response{Rid: req.Rid, Stream: wire.StreamClosed})

	case wire.MethodInvoke:
		// No action framework is wired; invokes close immediately.
		responses = append(responses, wire.Response{Rid: req.Rid, Stream: wire.StreamClosed})
	}
	return responses
}

// purge closes every subscription and stream registered anywhere in a
// removed subtree. Dangling registry entries on removed nodes would
// otherwise keep the nodes reachable and mis-route later updates.
func (l *Link) purge(removed *node.Node) {
	sids, rids := removed.CollectIDs()
	for _, sid := range sids {
		_ = l.subs.Close(sid)
	}
	for _, rid := range rids {
		_ = l.streams.Close(rid)
	}
}

// send encodes and writes one frame, tracing it at the wire layer.
func (l *Link) send(m *wire.Message) {
	payload, err := wire.EncodeMessage(m)
	if err != nil {
		l.logger.Error("failed to encode frame", "err", err)
		return
	}

	l.events.Log(dslog.Event{
		Timestamp: time.Now(),
		Direction: dslog.DirectionOut,
		Layer:     dslog.LayerWire,
		Category:  dslog.CategoryMessage,
		DsID:      l.DsID(),
		Message: &dslog.MessageEvent{
			Msg:      m.Msg,
			Ack:      m.Ack,
			Liveness: m.IsLiveness(),
		},
	})

	if err := l.manager.Send(payload); err != nil {
		l.logger.Debug("send failed", "err", err)
	}
}

// valueUpdate builds the initial subscription update row for a node,
// or nil when the node carries no value.
func valueUpdate(n *node.Node, sid int32) []any {
	v, ok := n.Value()
	if !ok {
		return nil
	}
	return []any{sid, v, n.ValueUpdated().Format(time.RFC3339Nano)}
}

// listRows builds the update rows for a list response: configuration
// and attribute entries first, then one row per child with its profile
// summary. Keys are sorted so responses are reproducible.
func listRows(n *node.Node) []any {
	var rows []any

	configs := n.Configs()
	for _, k := range sortedKeys(configs) {
		rows = append(rows, []any{k, configs[k]})
	}

	attributes := n.Attributes()
	for _, k := range sortedKeys(attributes) {
		rows = append(rows, []any{k, attributes[k]})
	}

	for _, child := range n.Children() {
		summary := map[string]any{}
		if is, ok := child.Config("$is"); ok {
			summary["$is"] = is
		}
		rows = append(rows, []any{child.Name(), summary})
	}
	return rows
}

func sortedKeys(m map[string]any) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
