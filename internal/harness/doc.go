// Package harness runs layout conformance scenarios.
//
// A scenario names a set of schema declarations and the layouts they must
// produce. The harness builds a registry from them, records every resolved
// descriptor in an in-memory store, reads the layouts back and evaluates
// the scenario's assertions against what the store holds.
//
// # Scenario Format
//
// Scenarios are YAML files:
//
//	name: palette_wire_form
//	description: "Packed palette has no padding after the flag"
//	schemas:
//	  - ../schemas/palette.cue
//	types:
//	  - name: Header
//	    fields:
//	      - {name: tag, type: u8}
//	      - {name: length, type: u32}
//	assertions:
//	  - type: layout
//	    name: Palette
//	    size: 97
//	    align: 1
//	    policy: packed
//	    fields:
//	      - {name: monochrome, offset: 0}
//	      - {name: colors, offset: 1, size: 96}
//	  - type: error
//	    name: Broken
//	    code: duplicate_field
//
// Schema paths are resolved relative to the scenario file. Inline types
// are appended after all schema files.
//
// # Assertion Types
//
//   - layout: size, align, policy and field placements of a resolved type
//   - error: a declaration failed with the given code
//   - equal: two names resolve to structurally identical descriptors
//   - fingerprint: a resolved type has the given content address
//
// Error codes are the descriptor codes (duplicate_field, unsupported_type,
// invalid_layout, overflow), the registry codes (DUPLICATE_TYPE,
// RESERVED_NAME) and the schema validation codes (E110-E116).
//
// # Golden Files
//
// Snapshot renders the resolved layouts as canonical JSON. The test
// command compares it against a .golden file next to the scenario.
package harness
