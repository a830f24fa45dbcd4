// Package engine computes memory layouts for type descriptors.
//
// It has three entry points:
//
//   - Layout places an ordered list of fields under a layout policy and
//     returns the resulting compound descriptor.
//   - Registry owns a set of named type declarations. Declarations are
//     collected first; Seal then resolves every type once, innermost first,
//     after which Lookup is a read-only query safe for concurrent use.
//   - TypeOf and Of derive descriptors from Go types through reflection,
//     memoized per type for the life of the process.
//
// Layout is pure: it reads each field's descriptor only through its size
// and alignment, never mutates its input, and returns the same result for
// the same input.
package engine
