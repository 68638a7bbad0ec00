// Package handshake implements the broker handshake and the link's
// durable identity.
//
// A link identifies itself with a P-256 keypair persisted across runs.
// Its dsId is the configured link name joined with a base64url SHA-256
// digest of the public key, so the identity is stable for the lifetime
// of the key file.
//
// The handshake is an HTTP POST to the broker's /conn endpoint carrying
// the public key and the link's roles. The broker answers with the
// websocket URI to dial, a temporary ECDH public key and a salt. The
// session auth parameter is the base64url SHA-256 digest of
// salt || sharedSecret, where sharedSecret is the ECDH agreement between
// the link's private key and the broker's temporary key.
//
// Handshake failures are ordinary errors; the connection manager owns
// retrying them.
package handshake
