package discovery

import (
	"errors"
	"fmt"
	"net"
	"strconv"
	"time"
)

// mDNS service parameters.
const (
	// ServiceTypeBroker is the mDNS service type brokers announce.
	ServiceTypeBroker = "_dsa-broker._tcp"

	// Domain is the mDNS domain.
	Domain = "local."

	// DefaultPort is the common broker HTTP port.
	DefaultPort = 8080

	// BrowseTimeout is the default timeout for browse operations.
	BrowseTimeout = 10 * time.Second

	// MaxInstanceNameLen is the maximum mDNS instance name length.
	MaxInstanceNameLen = 63
)

// TXT record keys for broker announcements.
const (
	// TXTKeyPath is the handshake endpoint path, usually "/conn".
	TXTKeyPath = "path"

	// TXTKeyScheme is "http" or "https".
	TXTKeyScheme = "scheme"

	// TXTKeyVersion is the protocol version the broker speaks.
	TXTKeyVersion = "version"

	// TXTKeyName is an optional human-readable broker name.
	TXTKeyName = "name"
)

// Discovery errors.
var (
	// ErrMissingRequired indicates a required TXT key is absent.
	ErrMissingRequired = errors.New("missing required TXT record")

	// ErrInvalidTXTRecord indicates a TXT value failed validation.
	ErrInvalidTXTRecord = errors.New("invalid TXT record")

	// ErrNoBrokerFound indicates browsing finished without a result.
	ErrNoBrokerFound = errors.New("no broker found")
)

// BrokerInfo is the announcement data a broker publishes.
type BrokerInfo struct {
	// Name is a human-readable broker name.
	Name string

	// Path is the handshake endpoint path.
	Path string

	// Scheme is "http" or "https".
	Scheme string

	// Version is the protocol version.
	Version string

	// Port the broker listens on. Zero means DefaultPort.
	Port uint16
}

// BrokerService is a broker discovered on the local network.
type BrokerService struct {
	// InstanceName is the mDNS instance name.
	InstanceName string

	// Host is the announced hostname.
	Host string

	// Port is the announced port.
	Port uint16

	// Addresses are the resolved IP addresses, possibly from several
	// interfaces.
	Addresses []string

	// Name, Path, Scheme and Version come from the TXT record.
	Name    string
	Path    string
	Scheme  string
	Version string
}

// ConnURL builds the handshake URL for the discovered broker. The
// first resolved address is preferred over the hostname, which avoids
// depending on multicast name resolution at dial time.
func (s *BrokerService) ConnURL() string {
	host := s.Host
	if len(s.Addresses) > 0 {
		host = s.Addresses[0]
	}
	return fmt.Sprintf("%s://%s%s", s.Scheme, net.JoinHostPort(host, strconv.Itoa(int(s.Port))), s.Path)
}
