package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/roach88/typeinfo/internal/ir"
)

// WriteSnapshot records entries as a new snapshot in one transaction.
//
// Each descriptor, and every descriptor nested inside it, is stored under
// its fingerprint with ON CONFLICT DO NOTHING, so rewriting an unchanged
// schema only adds the snapshot and its bindings.
func (s *Store) WriteSnapshot(ctx context.Context, source string, entries []Entry) (Snapshot, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return Snapshot{}, fmt.Errorf("write snapshot: begin tx: %w", err)
	}
	defer tx.Rollback() // No-op if committed

	snap := Snapshot{
		ID:          s.ids.Generate(),
		Source:      source,
		IRVersion:   ir.IRVersion,
		ToolVersion: ir.ToolVersion,
	}

	result, err := tx.ExecContext(ctx, `
		INSERT INTO snapshots (id, source, ir_version, tool_version)
		VALUES (?, ?, ?, ?)
	`, snap.ID, snap.Source, snap.IRVersion, snap.ToolVersion)
	if err != nil {
		return Snapshot{}, fmt.Errorf("write snapshot: %w", err)
	}
	snap.Seq, err = result.LastInsertId()
	if err != nil {
		return Snapshot{}, fmt.Errorf("write snapshot: seq: %w", err)
	}

	for i, e := range entries {
		fp, err := writeDescriptor(ctx, tx, e.Type)
		if err != nil {
			return Snapshot{}, fmt.Errorf("write snapshot: %s: %w", e.Name, err)
		}

		_, err = tx.ExecContext(ctx, `
			INSERT INTO bindings (snapshot_id, ordinal, name, fingerprint)
			VALUES (?, ?, ?, ?)
		`, snap.ID, i, e.Name, fp)
		if err != nil {
			return Snapshot{}, fmt.Errorf("write snapshot: bind %s: %w", e.Name, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return Snapshot{}, fmt.Errorf("write snapshot: commit: %w", err)
	}
	return snap, nil
}

// WriteDescriptor stores a single descriptor, and the descriptors nested in
// it, without creating a snapshot. Returns its fingerprint.
func (s *Store) WriteDescriptor(ctx context.Context, t ir.Type) (string, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return "", fmt.Errorf("write descriptor: begin tx: %w", err)
	}
	defer tx.Rollback() // No-op if committed

	fp, err := writeDescriptor(ctx, tx, t)
	if err != nil {
		return "", fmt.Errorf("write descriptor: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return "", fmt.Errorf("write descriptor: commit: %w", err)
	}
	return fp, nil
}

// writeDescriptor stores t depth-first, nested descriptors before their
// parents so field rows can reference them.
func writeDescriptor(ctx context.Context, tx *sql.Tx, t ir.Type) (string, error) {
	if t == nil {
		return "", fmt.Errorf("nil descriptor")
	}

	var fieldFingerprints []string
	switch t.Kind() {
	case ir.KindArray:
		if _, err := writeDescriptor(ctx, tx, t.Elem()); err != nil {
			return "", err
		}
	case ir.KindCompound:
		for _, f := range t.Fields() {
			ffp, err := writeDescriptor(ctx, tx, f.Type)
			if err != nil {
				return "", fmt.Errorf("field %s: %w", f.Name, err)
			}
			fieldFingerprints = append(fieldFingerprints, ffp)
		}
	}

	fp, body, err := marshalDescriptor(t)
	if err != nil {
		return "", err
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO descriptors (fingerprint, kind, size, align, body)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(fingerprint) DO NOTHING
	`, fp, t.Kind().String(), t.Size(), t.Align(), body)
	if err != nil {
		return "", fmt.Errorf("insert descriptor: %w", err)
	}

	if t.Kind() == ir.KindCompound {
		for i, f := range t.Fields() {
			_, err = tx.ExecContext(ctx, `
				INSERT INTO descriptor_fields
				(fingerprint, ordinal, name, byte_offset, size, kind, field_fingerprint)
				VALUES (?, ?, ?, ?, ?, ?, ?)
				ON CONFLICT(fingerprint, ordinal) DO NOTHING
			`, fp, i, f.Name, f.Offset, f.Type.Size(), f.Type.Kind().String(), fieldFingerprints[i])
			if err != nil {
				return "", fmt.Errorf("insert field %s: %w", f.Name, err)
			}
		}
	}

	return fp, nil
}
