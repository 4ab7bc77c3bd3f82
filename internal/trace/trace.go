// Package trace derives one-way fingerprints of a writer's network origin.
package trace

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"net"
	"strings"
)

// FingerprintLength is the number of hex characters kept from the digest.
const FingerprintLength = 16

const unknownOrigin = "0.0.0.0"

// OriginAddress canonicalizes the client address resolved by the transport
// (which alone decides whether forwarding headers are trusted). A host:port
// pair is reduced to its host; anything that is not an IP maps to 0.0.0.0.
func OriginAddress(clientAddr string) string {
	clientAddr = strings.TrimSpace(clientAddr)
	if host, _, err := net.SplitHostPort(clientAddr); err == nil {
		clientAddr = host
	}
	ip := net.ParseIP(clientAddr)
	if ip == nil {
		return unknownOrigin
	}
	return ip.String()
}

// Fingerprinter hashes origin addresses. The zero value uses plain SHA-256.
type Fingerprinter struct {
	salt []byte
}

// NewFingerprinter returns a fingerprinter keyed with salt. An empty salt
// falls back to plain SHA-256.
func NewFingerprinter(salt string) *Fingerprinter {
	if salt == "" {
		return &Fingerprinter{}
	}
	return &Fingerprinter{salt: []byte(salt)}
}

// Fingerprint returns a truncated hex digest of addr.
func (f *Fingerprinter) Fingerprint(addr string) string {
	var sum []byte
	if f == nil || len(f.salt) == 0 {
		digest := sha256.Sum256([]byte(addr))
		sum = digest[:]
	} else {
		mac := hmac.New(sha256.New, f.salt)
		mac.Write([]byte(addr))
		sum = mac.Sum(nil)
	}
	return hex.EncodeToString(sum)[:FingerprintLength]
}
