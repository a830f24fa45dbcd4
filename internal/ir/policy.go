package ir

import "fmt"

// Policy selects how a compound places its fields.
type Policy int

const (
	// Natural aligns every field to its own alignment and pads the compound
	// to a multiple of its largest field alignment.
	Natural Policy = iota
	// Packed places fields back to back with no padding; the compound has
	// alignment 1.
	Packed
)

func (p Policy) String() string {
	switch p {
	case Natural:
		return "natural"
	case Packed:
		return "packed"
	default:
		return fmt.Sprintf("Policy(%d)", int(p))
	}
}

// ParsePolicy parses a policy name. The empty string means Natural.
func ParsePolicy(s string) (Policy, error) {
	switch s {
	case "", "natural":
		return Natural, nil
	case "packed":
		return Packed, nil
	default:
		return Natural, fmt.Errorf("unknown layout policy %q: must be natural or packed", s)
	}
}
