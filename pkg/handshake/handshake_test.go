package handshake

import (
	"context"
	"crypto/sha256"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestKeypair(t *testing.T) {
	t.Run("PersistsAcrossLoads", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), ".keys")

		first, err := LoadOrCreateKeypair(path)
		if err != nil {
			t.Fatalf("LoadOrCreateKeypair: %v", err)
		}
		second, err := LoadOrCreateKeypair(path)
		if err != nil {
			t.Fatalf("LoadOrCreateKeypair (reload): %v", err)
		}

		if first.PublicKey() != second.PublicKey() {
			t.Error("reload produced a different keypair")
		}
		if first.DsID("link") != second.DsID("link") {
			t.Error("dsId not stable across reloads")
		}
	})

	t.Run("DsIDDerivation", func(t *testing.T) {
		kp, err := GenerateKeypair()
		if err != nil {
			t.Fatalf("GenerateKeypair: %v", err)
		}

		dsID := kp.DsID("example")
		if !strings.HasPrefix(dsID, "example-") {
			t.Errorf("dsId = %q, want example- prefix", dsID)
		}
		hash := strings.TrimPrefix(dsID, "example-")
		// base64url(sha256) without padding is 43 characters.
		if len(hash) != 43 {
			t.Errorf("dsId hash length = %d, want 43", len(hash))
		}
		if strings.ContainsAny(hash, "+/=") {
			t.Errorf("dsId hash %q not URL-safe", hash)
		}
	})

	t.Run("CorruptKeyFile", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), ".keys")
		if err := os.WriteFile(path, []byte("!!not base64!!"), 0600); err != nil {
			t.Fatal(err)
		}
		if _, err := LoadOrCreateKeypair(path); err == nil {
			t.Error("corrupt key file accepted")
		}
	})
}

func TestAuthDigest(t *testing.T) {
	// Fixed vector: sha256("salt" || {0x01,0x02}) in unpadded base64url.
	secret := []byte{0x01, 0x02}
	sum := sha256.Sum256(append([]byte("salt"), secret...))
	want := b64.EncodeToString(sum[:])

	if got := AuthDigest("salt", secret); got != want {
		t.Errorf("AuthDigest = %q, want %q", got, want)
	}
}

func TestHandshakeRun(t *testing.T) {
	broker, err := GenerateKeypair()
	if err != nil {
		t.Fatal(err)
	}

	var gotDsID string
	var gotBody request
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotDsID = r.URL.Query().Get("dsId")
		json.NewDecoder(r.Body).Decode(&gotBody)
		json.NewEncoder(w).Encode(response{
			WsURI:   "/ws",
			TempKey: broker.PublicKey(),
			Salt:    "0x1234",
			Format:  "json",
		})
	}))
	defer srv.Close()

	kp, _ := GenerateKeypair()
	h := New(Config{
		BrokerURL: srv.URL + "/conn",
		Name:      "example",
		Token:     "tok123",
		Responder: true,
	}, kp)

	res, err := h.Run(context.Background())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	if gotDsID != h.DsID() {
		t.Errorf("request dsId = %q, want %q", gotDsID, h.DsID())
	}
	if !gotBody.IsResponder || gotBody.IsRequester {
		t.Errorf("roles = requester:%v responder:%v", gotBody.IsRequester, gotBody.IsResponder)
	}
	if gotBody.PublicKey != kp.PublicKey() {
		t.Error("public key not announced")
	}

	u, err := url.Parse(res.WsURL)
	if err != nil {
		t.Fatalf("invalid ws URL %q: %v", res.WsURL, err)
	}
	if u.Scheme != "ws" || u.Path != "/ws" {
		t.Errorf("ws URL = %q", res.WsURL)
	}
	q := u.Query()
	if q.Get("dsId") != h.DsID() || q.Get("token") != "tok123" {
		t.Errorf("ws query = %q", u.RawQuery)
	}

	// The auth parameter must be the digest of salt || ECDH secret,
	// computable from the broker's side as well.
	secret, err := broker.SharedSecret(kp.PublicKey())
	if err != nil {
		t.Fatalf("broker-side ECDH: %v", err)
	}
	if q.Get("auth") != AuthDigest("0x1234", secret) {
		t.Error("auth digest does not match broker-side derivation")
	}
}

func TestHandshakeErrors(t *testing.T) {
	kp, _ := GenerateKeypair()

	t.Run("BrokerRejects", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
		}))
		defer srv.Close()

		h := New(Config{BrokerURL: srv.URL + "/conn", Name: "x", Responder: true}, kp)
		if _, err := h.Run(context.Background()); err == nil {
			t.Error("rejected handshake returned no error")
		}
	})

	t.Run("MissingWsURI", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte(`{}`))
		}))
		defer srv.Close()

		h := New(Config{BrokerURL: srv.URL + "/conn", Name: "x", Responder: true}, kp)
		if _, err := h.Run(context.Background()); err == nil {
			t.Error("empty handshake response accepted")
		}
	})

	t.Run("Unreachable", func(t *testing.T) {
		h := New(Config{BrokerURL: "http://127.0.0.1:1/conn", Name: "x", Responder: true}, kp)
		if _, err := h.Run(context.Background()); err == nil {
			t.Error("unreachable broker returned no error")
		}
	})
}
