// Package crypto defines the pluggable credential primitives the identity
// core depends on. The core only needs two capabilities: minting a keypair at
// enrollment and checking a signature at verification. Registry and ledger
// logic never see which algorithm backs them.
package crypto

import (
	"crypto/ed25519"
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
)

// NonceBytes is the entropy of an issued challenge nonce. 32 bytes keeps
// collision probability negligible across any realistic issuance volume.
const NonceBytes = 32

// Verifier checks a device-produced signature against registered public
// material. Implementations must be safe for concurrent use.
type Verifier interface {
	Verify(publicKey, message, signature string) bool
}

// KeyGenerator mints credential material. The secret half is returned to the
// device and never stored server-side.
type KeyGenerator interface {
	GenerateKeyPair() (secretMaterial, publicKey string, err error)
}

// Signer produces a signature over a message with the device-held secret.
// Only devices (and tests standing in for them) sign; the server never does.
type Signer interface {
	Sign(secretMaterial, message string) (string, error)
}

// Scheme bundles the three capabilities of one signature algorithm.
type Scheme interface {
	KeyGenerator
	Signer
	Verifier
}

// NewNonce returns a hex-encoded nonce with NonceBytes of entropy.
func NewNonce() (string, error) {
	buf := make([]byte, NonceBytes)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("read nonce entropy: %w", err)
	}
	return hex.EncodeToString(buf), nil
}

// Ed25519Scheme is the production signature scheme. Secret material is the
// hex-encoded ed25519 seed; only its holder can produce a valid signature.
type Ed25519Scheme struct{}

func NewEd25519Scheme() Ed25519Scheme { return Ed25519Scheme{} }

func (Ed25519Scheme) GenerateKeyPair() (string, string, error) {
	pub, priv, err := ed25519.GenerateKey(rand.Reader)
	if err != nil {
		return "", "", fmt.Errorf("generate ed25519 key: %w", err)
	}
	return hex.EncodeToString(priv.Seed()), hex.EncodeToString(pub), nil
}

func (Ed25519Scheme) Sign(secretMaterial, message string) (string, error) {
	seed, err := hex.DecodeString(secretMaterial)
	if err != nil || len(seed) != ed25519.SeedSize {
		return "", fmt.Errorf("malformed secret material")
	}
	priv := ed25519.NewKeyFromSeed(seed)
	return hex.EncodeToString(ed25519.Sign(priv, []byte(message))), nil
}

func (Ed25519Scheme) Verify(publicKey, message, signature string) bool {
	pub, err := hex.DecodeString(publicKey)
	if err != nil || len(pub) != ed25519.PublicKeySize {
		return false
	}
	sig, err := hex.DecodeString(signature)
	if err != nil || len(sig) != ed25519.SignatureSize {
		return false
	}
	return ed25519.Verify(ed25519.PublicKey(pub), []byte(message), sig)
}

// HMACScheme is a development-only placeholder that preserves the protocol
// shape (generate, sign, verify) with symmetric primitives. Anyone who learns
// the public key can forge a signature under this scheme, so it must never
// back a real deployment; it exists to run the protocol without key storage
// infrastructure.
type HMACScheme struct{}

func NewHMACScheme() HMACScheme { return HMACScheme{} }

func (HMACScheme) GenerateKeyPair() (string, string, error) {
	secret := make([]byte, 32)
	if _, err := rand.Read(secret); err != nil {
		return "", "", fmt.Errorf("generate secret: %w", err)
	}
	// The "public" half is derived one-way from the secret so the server
	// cannot recover the device secret from what it stores.
	digest := sha256.Sum256(secret)
	return hex.EncodeToString(secret), hex.EncodeToString(digest[:]), nil
}

func (HMACScheme) Sign(secretMaterial, message string) (string, error) {
	secret, err := hex.DecodeString(secretMaterial)
	if err != nil {
		return "", fmt.Errorf("malformed secret material")
	}
	digest := sha256.Sum256(secret)
	mac := hmac.New(sha256.New, digest[:])
	mac.Write([]byte(message))
	return hex.EncodeToString(mac.Sum(nil)), nil
}

func (HMACScheme) Verify(publicKey, message, signature string) bool {
	pub, err := hex.DecodeString(publicKey)
	if err != nil {
		return false
	}
	mac := hmac.New(sha256.New, pub)
	mac.Write([]byte(message))
	expected := hex.EncodeToString(mac.Sum(nil))
	return hmac.Equal([]byte(expected), []byte(signature))
}
