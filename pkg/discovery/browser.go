package discovery

import (
	"context"
	"time"
)

// Browser provides mDNS browsing for brokers.
type Browser interface {
	// BrowseBrokers searches for brokers on the local network. The
	// channel is closed when the context is cancelled or browsing
	// completes.
	BrowseBrokers(ctx context.Context) (<-chan *BrokerService, error)

	// FindFirst returns the first broker found, or ErrNoBrokerFound
	// when the browse window closes without a result.
	FindFirst(ctx context.Context) (*BrokerService, error)

	// Stop stops all active browsing operations.
	Stop()
}

// BrowserConfig configures browser behavior.
type BrowserConfig struct {
	// BrowseTimeout is the default timeout for FindFirst.
	// Default: 10 seconds.
	BrowseTimeout time.Duration

	// Interface specifies which network interface to use.
	// Empty string means all interfaces.
	Interface string
}

// DefaultBrowserConfig returns the default browser configuration.
func DefaultBrowserConfig() BrowserConfig {
	return BrowserConfig{
		BrowseTimeout: BrowseTimeout,
	}
}

// ServiceEntry is raw mDNS service entry data, decoupled from the
// zeroconf types so decoding can be tested without a network.
type ServiceEntry struct {
	Instance string
	Service  string
	Domain   string
	Host     string
	Port     uint16
	Text     []string
	Addrs    []string
}

// ToBrokerService converts a ServiceEntry to a BrokerService.
func (e *ServiceEntry) ToBrokerService() (*BrokerService, error) {
	txt := StringsToTXTRecords(e.Text)
	info, err := DecodeBrokerTXT(txt)
	if err != nil {
		return nil, err
	}

	port := e.Port
	if port == 0 {
		port = DefaultPort
	}

	return &BrokerService{
		InstanceName: e.Instance,
		Host:         e.Host,
		Port:         port,
		Addresses:    e.Addrs,
		Name:         info.Name,
		Path:         info.Path,
		Scheme:       info.Scheme,
		Version:      info.Version,
	}, nil
}
