package ir

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
)

// Fingerprint domains. Bump the version when the canonical form of the
// fingerprinted structure changes.
const (
	DomainFilterGroup = "criteria/filter-group/v1"
	DomainCriteria    = "criteria/criteria/v1"
)

// domainHash returns hex(SHA-256(domain || 0x00 || data)).
func domainHash(domain string, data []byte) string {
	msg := make([]byte, 0, len(domain)+1+len(data))
	msg = append(msg, domain...)
	msg = append(msg, 0)
	msg = append(msg, data...)
	sum := sha256.Sum256(msg)
	return hex.EncodeToString(sum[:])
}

// Fingerprint hashes the canonical JSON of v under domain. Values that
// differ only in key order, time zone or Unicode normalization share a
// fingerprint.
func Fingerprint(domain string, v any) (string, error) {
	canonical, err := MarshalCanonical(v)
	if err != nil {
		return "", fmt.Errorf("fingerprint %s: %w", domain, err)
	}
	return domainHash(domain, canonical), nil
}

// MustFingerprint is like Fingerprint but panics on error.
func MustFingerprint(domain string, v any) string {
	fp, err := Fingerprint(domain, v)
	if err != nil {
		panic(err)
	}
	return fp
}
