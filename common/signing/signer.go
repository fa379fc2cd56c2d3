// Package signing implements the shared-secret request authentication used
// between venue agents and the ingestion gateway. Signatures are HMAC-SHA256
// digests over the raw request body, hex encoded in lowercase.
package signing

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"errors"
)

var (
	// ErrMissingSignature is returned when a request carries no signature at all.
	ErrMissingSignature = errors.New("missing signature")

	// ErrInvalidSignature is returned when the supplied signature does not match
	// the one computed from the body and the venue's shared secret.
	ErrInvalidSignature = errors.New("invalid signature")
)

// Sign computes the HMAC-SHA256 digest of body under the venue's shared
// secret. Verification requires the literal shared secret on both sides;
// storing a one-way hash of it server-side would make the signature
// unverifiable.
func Sign(secret string, body []byte) string {
	h := hmac.New(sha256.New, []byte(secret))
	h.Write(body)
	return hex.EncodeToString(h.Sum(nil))
}

// Verify checks signature against the digest recomputed from body and secret.
// The comparison is constant time.
func Verify(secret string, body []byte, signature string) error {
	if signature == "" {
		return ErrMissingSignature
	}
	expected := Sign(secret, body)
	if !hmac.Equal([]byte(expected), []byte(signature)) {
		return ErrInvalidSignature
	}
	return nil
}
