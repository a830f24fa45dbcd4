// Package ir provides the type descriptor model for typeinfo.
//
// A descriptor describes what a plain-old-data type looks like in memory:
// a scalar kind, a fixed-length array of another descriptor, or a compound
// with ordered named fields at byte offsets.
//
// This package contains the model only. All other internal packages import
// ir; ir imports nothing internal.
//
// Key design constraints:
//   - Descriptors are immutable once constructed; accessors return copies
//   - Compounds are only built through NewCompound, which checks every layout
//     invariant, so a descriptor either satisfies them or does not exist
//   - Compound-only accessors panic on scalars and arrays (and vice versa)
//   - All JSON keys use snake_case; the canonical encoding is RFC 8785
package ir
