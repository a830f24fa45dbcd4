package ir

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
)

// DomainDescriptor is the domain prefix for descriptor fingerprints.
// The version suffix leaves room for a future encoding change.
const DomainDescriptor = "typeinfo/descriptor/v1"

// hashWithDomain computes SHA-256 with domain separation.
// Format: SHA256(domain + 0x00 + data)
func hashWithDomain(domain string, data []byte) string {
	h := sha256.New()
	h.Write([]byte(domain))
	h.Write([]byte{0x00})
	h.Write(data)
	return hex.EncodeToString(h.Sum(nil))
}

// Fingerprint returns the content address of a descriptor: the domain
// separated SHA-256 of its canonical JSON. Structurally equal descriptors
// have equal fingerprints.
func Fingerprint(t Type) (string, error) {
	data, err := MarshalDescriptor(t)
	if err != nil {
		return "", fmt.Errorf("Fingerprint: %w", err)
	}
	return hashWithDomain(DomainDescriptor, data), nil
}

// MustFingerprint is like Fingerprint but panics on error.
// Use only in tests or when the descriptor is known to be non-nil.
func MustFingerprint(t Type) string {
	fp, err := Fingerprint(t)
	if err != nil {
		panic(err)
	}
	return fp
}
