package handshake

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"
)

// Version is the protocol version announced to the broker.
const Version = "1.1.2"

// DefaultTimeout bounds one handshake exchange.
const DefaultTimeout = 15 * time.Second

// Runner is the handshake contract the connection manager consumes.
// Implemented by Handshake; tests substitute fakes.
type Runner interface {
	// Run performs one handshake attempt and returns the session
	// parameters on success.
	Run(ctx context.Context) (*Result, error)
}

// Config configures the handshake.
type Config struct {
	// BrokerURL is the broker's /conn endpoint,
	// e.g. "http://localhost:8080/conn".
	BrokerURL string

	// Name is the link name the dsId is derived from.
	Name string

	// Token is an optional broker auth token.
	Token string

	// Requester and Responder declare the link's roles.
	Requester bool
	Responder bool

	// HTTPClient overrides the default client (used in tests).
	HTTPClient *http.Client
}

// Result carries the session parameters a successful handshake yields.
type Result struct {
	// DsID is the link identity the session was established under.
	DsID string

	// WsURL is the fully assembled websocket URL to dial, including
	// dsId, auth and token query parameters.
	WsURL string

	// Salt is the broker-issued salt the auth digest was derived from.
	Salt string

	// Format is the serialization format the broker selected.
	Format string
}

// request is the POST body sent to /conn.
type request struct {
	PublicKey   string   `json:"publicKey"`
	IsRequester bool     `json:"isRequester"`
	IsResponder bool     `json:"isResponder"`
	Version     string   `json:"version"`
	Formats     []string `json:"formats"`
}

// response is the broker's /conn reply.
type response struct {
	WsURI   string `json:"wsUri"`
	TempKey string `json:"tempKey"`
	Salt    string `json:"salt"`
	Format  string `json:"format"`
}

// Handshake performs the /conn exchange for a link identity.
type Handshake struct {
	config  Config
	keypair *Keypair
	client  *http.Client
}

// New creates a handshake for the given configuration and identity.
func New(config Config, keypair *Keypair) *Handshake {
	client := config.HTTPClient
	if client == nil {
		client = &http.Client{Timeout: DefaultTimeout}
	}
	return &Handshake{config: config, keypair: keypair, client: client}
}

// DsID returns the link identity the handshake announces.
func (h *Handshake) DsID() string {
	return h.keypair.DsID(h.config.Name)
}

// Run performs one handshake attempt.
func (h *Handshake) Run(ctx context.Context) (*Result, error) {
	dsID := h.DsID()

	body, err := json.Marshal(request{
		PublicKey:   h.keypair.PublicKey(),
		IsRequester: h.config.Requester,
		IsResponder: h.config.Responder,
		Version:     Version,
		Formats:     []string{"json"},
	})
	if err != nil {
		return nil, err
	}

	connURL := h.config.BrokerURL + "?dsId=" + url.QueryEscape(dsID)
	if h.config.Token != "" {
		connURL += "&token=" + url.QueryEscape(h.config.Token)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, connURL, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := h.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("handshake request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("handshake rejected: %s", resp.Status)
	}

	var hr response
	if err := json.NewDecoder(resp.Body).Decode(&hr); err != nil {
		return nil, fmt.Errorf("invalid handshake response: %w", err)
	}
	if hr.WsURI == "" {
		return nil, fmt.Errorf("handshake response missing wsUri")
	}

	wsURL, err := h.assembleWsURL(dsID, &hr)
	if err != nil {
		return nil, err
	}

	return &Result{
		DsID:   dsID,
		WsURL:  wsURL,
		Salt:   hr.Salt,
		Format: hr.Format,
	}, nil
}

// assembleWsURL resolves the broker-provided wsUri against the broker
// base URL, switches to the ws scheme and attaches the dsId, auth and
// token query parameters.
func (h *Handshake) assembleWsURL(dsID string, hr *response) (string, error) {
	base, err := url.Parse(h.config.BrokerURL)
	if err != nil {
		return "", fmt.Errorf("invalid broker URL: %w", err)
	}
	ws, err := base.Parse(hr.WsURI)
	if err != nil {
		return "", fmt.Errorf("invalid wsUri %q: %w", hr.WsURI, err)
	}

	switch ws.Scheme {
	case "http":
		ws.Scheme = "ws"
	case "https":
		ws.Scheme = "wss"
	}

	q := ws.Query()
	q.Set("dsId", dsID)
	if hr.TempKey != "" {
		secret, err := h.keypair.SharedSecret(hr.TempKey)
		if err != nil {
			return "", err
		}
		q.Set("auth", AuthDigest(hr.Salt, secret))
	}
	if h.config.Token != "" {
		q.Set("token", h.config.Token)
	}
	ws.RawQuery = q.Encode()

	return ws.String(), nil
}

// Compile-time interface satisfaction check.
var _ Runner = (*Handshake)(nil)
