package handshake

import (
	"crypto/ecdh"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"fmt"
	"os"
	"strings"
)

// b64 is the encoding used throughout the handshake: URL-safe, unpadded.
var b64 = base64.RawURLEncoding

// Keypair is the link's durable P-256 identity.
type Keypair struct {
	private *ecdh.PrivateKey
}

// GenerateKeypair creates a fresh keypair.
func GenerateKeypair() (*Keypair, error) {
	priv, err := ecdh.P256().GenerateKey(rand.Reader)
	if err != nil {
		return nil, fmt.Errorf("failed to generate keypair: %w", err)
	}
	return &Keypair{private: priv}, nil
}

// LoadOrCreateKeypair loads the keypair stored at path, creating and
// persisting a new one on first run.
func LoadOrCreateKeypair(path string) (*Keypair, error) {
	data, err := os.ReadFile(path)
	if err == nil {
		raw, derr := b64.DecodeString(strings.TrimSpace(string(data)))
		if derr != nil {
			return nil, fmt.Errorf("corrupt key file %s: %w", path, derr)
		}
		priv, kerr := ecdh.P256().NewPrivateKey(raw)
		if kerr != nil {
			return nil, fmt.Errorf("corrupt key file %s: %w", path, kerr)
		}
		return &Keypair{private: priv}, nil
	}
	if !os.IsNotExist(err) {
		return nil, err
	}

	kp, err := GenerateKeypair()
	if err != nil {
		return nil, err
	}
	if err := os.WriteFile(path, []byte(b64.EncodeToString(kp.private.Bytes())), 0600); err != nil {
		return nil, fmt.Errorf("failed to persist keypair: %w", err)
	}
	return kp, nil
}

// PublicKey returns the base64url-encoded public key point.
func (k *Keypair) PublicKey() string {
	return b64.EncodeToString(k.private.PublicKey().Bytes())
}

// DsID derives the link's durable identity from its name and public key.
func (k *Keypair) DsID(name string) string {
	sum := sha256.Sum256(k.private.PublicKey().Bytes())
	return name + "-" + b64.EncodeToString(sum[:])
}

// SharedSecret runs ECDH against the broker's temporary public key
// (base64url-encoded point).
func (k *Keypair) SharedSecret(tempKey string) ([]byte, error) {
	raw, err := b64.DecodeString(tempKey)
	if err != nil {
		return nil, fmt.Errorf("invalid tempKey: %w", err)
	}
	pub, err := ecdh.P256().NewPublicKey(raw)
	if err != nil {
		return nil, fmt.Errorf("invalid tempKey: %w", err)
	}
	return k.private.ECDH(pub)
}

// AuthDigest computes the session auth parameter from the broker salt
// and the ECDH shared secret: base64url(sha256(salt || secret)).
func AuthDigest(salt string, secret []byte) string {
	h := sha256.New()
	h.Write([]byte(salt))
	h.Write(secret)
	return b64.EncodeToString(h.Sum(nil))
}
