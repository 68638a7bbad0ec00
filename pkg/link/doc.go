// Package link composes the SDK into a runnable DSA link.
//
// A Link owns the node tree, the subscription and stream registries,
// the persistence store and the connection manager, and is the only
// place inbound protocol frames are decoded and routed. Startup order
// is fixed: the tree is loaded from disk, default structure is
// installed if the tree is fresh, the identity keypair is loaded or
// created, and only then does the connect loop start together with the
// checkpoint timer.
//
//	cfg := link.DefaultConfig()
//	cfg.Name = "weather"
//	cfg.Responder = true
//	l, err := link.New(cfg)
//	if err != nil {
//		// configuration is the only fatal error class
//	}
//	l.Run(ctx)
//
// Run blocks until the context is canceled. Connectivity problems are
// never surfaced to the caller; the link stays up and keeps retrying.
package link
