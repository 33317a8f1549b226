// Package ir provides the value representation carried by criteria filters.
//
// This package contains value types and their codecs only. All other internal
// packages import ir; ir imports nothing internal.
//
// Key design constraints:
//   - IRValue is sealed; backends can switch exhaustively over its types
//   - Times are always UTC and travel through JSON as {"$time": "<RFC 3339>"}
//   - Canonical JSON (RFC 8785 key order, NFC strings) is the only input to fingerprints
//   - All JSON tags in dependent packages use snake_case
package ir
