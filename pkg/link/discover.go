package link

import (
	"context"
	"log/slog"
	"sync"

	"github.com/iot-dsa/dslink-go/pkg/discovery"
	"github.com/iot-dsa/dslink-go/pkg/handshake"
)

// discoveringRunner resolves the broker endpoint via mDNS on the first
// connect attempt and then behaves like the regular handshake. A failed
// browse surfaces as a handshake error, which the connection manager
// retries with backoff like any other connectivity failure.
type discoveringRunner struct {
	config  handshake.Config
	keypair *handshake.Keypair
	logger  *slog.Logger

	mu    sync.Mutex
	inner handshake.Runner
}

func (d *discoveringRunner) Run(ctx context.Context) (*handshake.Result, error) {
	d.mu.Lock()
	inner := d.inner
	d.mu.Unlock()

	if inner == nil {
		browser, err := discovery.NewMDNSBrowser(discovery.DefaultBrowserConfig())
		if err != nil {
			return nil, err
		}
		defer browser.Stop()

		svc, err := browser.FindFirst(ctx)
		if err != nil {
			return nil, err
		}

		cfg := d.config
		cfg.BrokerURL = svc.ConnURL()
		d.logger.Info("discovered broker",
			"instance", svc.InstanceName, "uri", cfg.BrokerURL)

		inner = handshake.New(cfg, d.keypair)
		d.mu.Lock()
		d.inner = inner
		d.mu.Unlock()
	}

	return inner.Run(ctx)
}

var _ handshake.Runner = (*discoveringRunner)(nil)
