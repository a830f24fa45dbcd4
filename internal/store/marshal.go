package store

import (
	"errors"
	"fmt"

	"github.com/roach88/typeinfo/internal/ir"
)

// ErrNotFound is returned when a snapshot, binding or descriptor does not
// exist.
var ErrNotFound = errors.New("not found")

// ErrFingerprintMismatch is returned when a stored body no longer hashes to
// the fingerprint it is stored under.
var ErrFingerprintMismatch = errors.New("fingerprint mismatch")

// Snapshot is one recorded compile run.
type Snapshot struct {
	Seq         int64  `json:"seq"`
	ID          string `json:"id"`
	Source      string `json:"source"`
	IRVersion   string `json:"ir_version"`
	ToolVersion string `json:"tool_version"`
}

// Entry is a named descriptor to record in a snapshot.
type Entry struct {
	Name string
	Type ir.Type
}

// Binding maps a type name to a descriptor within a snapshot.
type Binding struct {
	SnapshotID  string `json:"snapshot_id"`
	Ordinal     int    `json:"ordinal"`
	Name        string `json:"name"`
	Fingerprint string `json:"fingerprint"`
}

// Descriptor is a decoded descriptor with its content address.
type Descriptor struct {
	Fingerprint string
	Type        ir.Type
}

// FieldRow is the stored placement of one compound field.
type FieldRow struct {
	Ordinal          int    `json:"ordinal"`
	Name             string `json:"name"`
	Offset           int    `json:"offset"`
	Size             int    `json:"size"`
	Kind             string `json:"kind"`
	FieldFingerprint string `json:"field_fingerprint"`
}

// marshalDescriptor returns the fingerprint and canonical JSON body of t.
func marshalDescriptor(t ir.Type) (fingerprint, body string, err error) {
	data, err := ir.MarshalDescriptor(t)
	if err != nil {
		return "", "", err
	}
	fp, err := ir.Fingerprint(t)
	if err != nil {
		return "", "", err
	}
	return fp, string(data), nil
}

// unmarshalDescriptor decodes a stored body and checks it against its
// fingerprint.
func unmarshalDescriptor(fingerprint, body string) (ir.Type, error) {
	t, err := ir.UnmarshalDescriptor([]byte(body))
	if err != nil {
		return nil, fmt.Errorf("descriptor %s: %w", fingerprint, err)
	}
	got, err := ir.Fingerprint(t)
	if err != nil {
		return nil, fmt.Errorf("descriptor %s: %w", fingerprint, err)
	}
	if got != fingerprint {
		return nil, fmt.Errorf("descriptor %s: %w (body hashes to %s)", fingerprint, ErrFingerprintMismatch, got)
	}
	return t, nil
}
