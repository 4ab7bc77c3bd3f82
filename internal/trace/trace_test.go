package trace

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"
	"testing"
)

func TestOriginAddress(t *testing.T) {
	tests := []struct {
		name string
		addr string
		want string
	}{
		{name: "ipv4", addr: "192.0.2.4", want: "192.0.2.4"},
		{name: "padded", addr: " 198.51.100.1 ", want: "198.51.100.1"},
		{name: "host port", addr: "192.0.2.4:1234", want: "192.0.2.4"},
		{name: "ipv6 host port", addr: "[2001:db8::1]:443", want: "2001:db8::1"},
		{name: "ipv6 long form", addr: "2001:0db8:0000:0000:0000:0000:0000:0001", want: "2001:db8::1"},
		{name: "not an ip", addr: "evil.example", want: "0.0.0.0"},
		{name: "forwarding chain is not an address", addr: "203.0.113.7, 10.0.0.1", want: "0.0.0.0"},
		{name: "nothing", want: "0.0.0.0"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := OriginAddress(tt.addr); got != tt.want {
				t.Fatalf("expected %q, got %q", tt.want, got)
			}
		})
	}
}

func TestFingerprintUnsaltedMatchesSHA256Prefix(t *testing.T) {
	digest := sha256.Sum256([]byte("127.0.0.1"))
	want := hex.EncodeToString(digest[:])[:FingerprintLength]

	if got := NewFingerprinter("").Fingerprint("127.0.0.1"); got != want {
		t.Fatalf("expected %s, got %s", want, got)
	}
}

func TestFingerprintProperties(t *testing.T) {
	f := NewFingerprinter("pepper")

	a := f.Fingerprint("203.0.113.7")
	if len(a) != FingerprintLength {
		t.Fatalf("expected %d chars, got %d", FingerprintLength, len(a))
	}
	if a != f.Fingerprint("203.0.113.7") {
		t.Fatal("fingerprint must be deterministic")
	}
	if a == f.Fingerprint("203.0.113.8") {
		t.Fatal("different origins should not collide")
	}
	if strings.Contains(a, ".") {
		t.Fatalf("fingerprint leaks the address: %s", a)
	}
	if a == NewFingerprinter("").Fingerprint("203.0.113.7") {
		t.Fatal("salted and unsalted fingerprints should differ")
	}
}
