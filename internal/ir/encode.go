package ir

import (
	"encoding/json"
	"fmt"

	"fortio.org/safecast"
)

// ToIR converts a descriptor to its canonical value tree.
//
//	scalar:   {"kind":"UInt16"}
//	array:    {"elem":{...},"kind":"Array","len":16}
//	compound: {"align":2,"fields":[{"name":"r","offset":0,"type":{...}}],
//	           "kind":"Compound","policy":"natural","size":6}
func ToIR(t Type) IRObject {
	switch v := t.(type) {
	case *Array:
		return IRObject{
			"kind": IRString(KindArray.String()),
			"len":  IRInt(v.n),
			"elem": ToIR(v.elem),
		}
	case *Compound:
		fields := make(IRArray, len(v.fields))
		for i, f := range v.fields {
			fields[i] = IRObject{
				"name":   IRString(f.Name),
				"offset": IRInt(f.Offset),
				"type":   ToIR(f.Type),
			}
		}
		return IRObject{
			"kind":   IRString(KindCompound.String()),
			"policy": IRString(v.policy.String()),
			"size":   IRInt(v.size),
			"align":  IRInt(v.align),
			"fields": fields,
		}
	default:
		return IRObject{"kind": IRString(t.Kind().String())}
	}
}

// MarshalDescriptor returns the canonical JSON encoding of t.
func MarshalDescriptor(t Type) ([]byte, error) {
	if t == nil {
		return nil, fmt.Errorf("marshal descriptor: nil descriptor")
	}
	data, err := MarshalCanonical(ToIR(t))
	if err != nil {
		return nil, fmt.Errorf("marshal descriptor: %w", err)
	}
	return data, nil
}

// UnmarshalDescriptor decodes a descriptor encoded by MarshalDescriptor.
// Compounds are rebuilt through NewCompound, so the result satisfies every
// layout invariant or an error is returned.
func UnmarshalDescriptor(data []byte) (Type, error) {
	var obj IRObject
	if err := json.Unmarshal(data, &obj); err != nil {
		return nil, fmt.Errorf("unmarshal descriptor: %w", err)
	}
	t, err := FromIR(obj)
	if err != nil {
		return nil, fmt.Errorf("unmarshal descriptor: %w", err)
	}
	return t, nil
}

// FromIR rebuilds a descriptor from its value tree.
func FromIR(obj IRObject) (Type, error) {
	kind, ok := obj.String("kind")
	if !ok {
		return nil, fmt.Errorf("missing kind")
	}

	switch kind {
	case KindArray.String():
		n, ok := obj.Int("len")
		if !ok {
			return nil, fmt.Errorf("array: missing len")
		}
		elemObj, ok := obj["elem"].(IRObject)
		if !ok {
			return nil, fmt.Errorf("array: missing elem")
		}
		elem, err := FromIR(elemObj)
		if err != nil {
			return nil, fmt.Errorf("array elem: %w", err)
		}
		length, err := toInt(n)
		if err != nil {
			return nil, fmt.Errorf("array len: %w", err)
		}
		return NewArray(elem, length)

	case KindCompound.String():
		return compoundFromIR(obj)

	default:
		s, ok := LookupScalar(kind)
		if !ok {
			return nil, Unsupported(kind, "unknown descriptor kind")
		}
		return s, nil
	}
}

func compoundFromIR(obj IRObject) (*Compound, error) {
	policyName, _ := obj.String("policy")
	policy, err := ParsePolicy(policyName)
	if err != nil {
		return nil, fmt.Errorf("compound: %w", err)
	}

	size, err := intField(obj, "size")
	if err != nil {
		return nil, fmt.Errorf("compound: %w", err)
	}
	align, err := intField(obj, "align")
	if err != nil {
		return nil, fmt.Errorf("compound: %w", err)
	}

	raw, _ := obj["fields"].(IRArray)
	fields := make([]NamedField, 0, len(raw))
	for i, v := range raw {
		fo, ok := v.(IRObject)
		if !ok {
			return nil, fmt.Errorf("compound field %d: not an object", i)
		}
		name, ok := fo.String("name")
		if !ok {
			return nil, fmt.Errorf("compound field %d: missing name", i)
		}
		offset, err := intField(fo, "offset")
		if err != nil {
			return nil, fmt.Errorf("compound field %q: %w", name, err)
		}
		typeObj, ok := fo["type"].(IRObject)
		if !ok {
			return nil, fmt.Errorf("compound field %q: missing type", name)
		}
		ft, err := FromIR(typeObj)
		if err != nil {
			return nil, fmt.Errorf("compound field %q: %w", name, err)
		}
		fields = append(fields, NamedField{Name: name, Type: ft, Offset: offset})
	}

	return NewCompound(fields, size, align, policy)
}

func intField(obj IRObject, key string) (int, error) {
	n, ok := obj.Int(key)
	if !ok {
		return 0, fmt.Errorf("missing %s", key)
	}
	v, err := toInt(n)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", key, err)
	}
	return v, nil
}

func toInt(n int64) (int, error) {
	v, err := safecast.Conv[int](n)
	if err != nil {
		return 0, overflow(fmt.Sprintf("%d does not fit in int", n))
	}
	return v, nil
}
