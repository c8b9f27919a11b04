// Package ir provides the value types every stored record is made of.
//
// This package contains type definitions only. All other internal packages
// import ir; ir imports nothing internal.
//
// Key design constraints:
//   - Records are IRObject values built from the sealed IRValue set
//   - Non-integer numbers are kept as IRDecimal literals, never float64
//   - An explicit null and a missing key are both "absent" for Has
//   - MarshalCanonical is the only serialization used for snapshots
package ir
