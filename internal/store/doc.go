// Package store provides SQLite-backed storage for computed type layouts.
//
// The store keeps:
//   - Descriptors: canonical JSON bodies keyed by fingerprint
//   - Descriptor fields: one row per compound field, for querying offsets
//     without decoding bodies
//   - Snapshots: one record per compile run
//   - Bindings: type name to fingerprint, per snapshot, in declaration order
//
// Descriptor writes are idempotent: a fingerprint is stored once however
// many snapshots refer to it. Every read decodes through
// ir.UnmarshalDescriptor and checks the fingerprint, so a row that no longer
// satisfies the layout invariants is reported rather than returned.
//
// # Database Configuration
//
//   - WAL mode: Concurrent reads during writes
//   - synchronous=NORMAL: Balance durability/performance
//   - busy_timeout=5000: Wait for locks up to 5 seconds
//   - foreign_keys=ON: Enforce referential integrity
package store
