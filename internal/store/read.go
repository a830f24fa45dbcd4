package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
)

// LatestSnapshot returns the most recently written snapshot.
// Returns ErrNotFound if the store is empty.
func (s *Store) LatestSnapshot(ctx context.Context) (Snapshot, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT seq, id, source, ir_version, tool_version
		FROM snapshots
		ORDER BY seq DESC
		LIMIT 1
	`)
	snap, err := scanSnapshot(row)
	if err != nil {
		return Snapshot{}, fmt.Errorf("latest snapshot: %w", err)
	}
	return snap, nil
}

// ReadSnapshot returns the snapshot with the given ID.
// Returns ErrNotFound if it does not exist.
func (s *Store) ReadSnapshot(ctx context.Context, id string) (Snapshot, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT seq, id, source, ir_version, tool_version
		FROM snapshots
		WHERE id = ?
	`, id)
	snap, err := scanSnapshot(row)
	if err != nil {
		return Snapshot{}, fmt.Errorf("read snapshot %s: %w", id, err)
	}
	return snap, nil
}

// ListSnapshots returns every snapshot, oldest first.
func (s *Store) ListSnapshots(ctx context.Context) ([]Snapshot, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT seq, id, source, ir_version, tool_version
		FROM snapshots
		ORDER BY seq ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("query snapshots: %w", err)
	}
	defer rows.Close()

	snapshots := []Snapshot{}
	for rows.Next() {
		snap, err := scanSnapshot(rows)
		if err != nil {
			return nil, err
		}
		snapshots = append(snapshots, snap)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate snapshots: %w", err)
	}
	return snapshots, nil
}

// ListBindings returns the bindings of a snapshot in declaration order.
// Returns an empty slice (not nil) for a snapshot without bindings.
func (s *Store) ListBindings(ctx context.Context, snapshotID string) ([]Binding, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT snapshot_id, ordinal, name, fingerprint
		FROM bindings
		WHERE snapshot_id = ?
		ORDER BY ordinal ASC
	`, snapshotID)
	if err != nil {
		return nil, fmt.Errorf("query bindings: %w", err)
	}
	defer rows.Close()

	bindings := []Binding{}
	for rows.Next() {
		var b Binding
		if err := rows.Scan(&b.SnapshotID, &b.Ordinal, &b.Name, &b.Fingerprint); err != nil {
			return nil, fmt.Errorf("scan binding: %w", err)
		}
		bindings = append(bindings, b)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate bindings: %w", err)
	}
	return bindings, nil
}

// ReadDescriptor returns the descriptor bound to name in the most recent
// snapshot that binds it.
// Returns ErrNotFound if no snapshot binds name.
func (s *Store) ReadDescriptor(ctx context.Context, name string) (Descriptor, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT d.fingerprint, d.body
		FROM bindings b
		JOIN snapshots s ON s.id = b.snapshot_id
		JOIN descriptors d ON d.fingerprint = b.fingerprint
		WHERE b.name = ?
		ORDER BY s.seq DESC
		LIMIT 1
	`, name)

	d, err := scanDescriptor(row)
	if err != nil {
		return Descriptor{}, fmt.Errorf("read descriptor %s: %w", name, err)
	}
	return d, nil
}

// ReadDescriptorByFingerprint returns the descriptor stored under
// fingerprint.
// Returns ErrNotFound if it does not exist.
func (s *Store) ReadDescriptorByFingerprint(ctx context.Context, fingerprint string) (Descriptor, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT fingerprint, body
		FROM descriptors
		WHERE fingerprint = ?
	`, fingerprint)

	d, err := scanDescriptor(row)
	if err != nil {
		return Descriptor{}, fmt.Errorf("read descriptor %s: %w", fingerprint, err)
	}
	return d, nil
}

// ReadFields returns the stored field rows of a compound, in order.
// Returns an empty slice (not nil) for scalars, arrays, empty compounds and
// unknown fingerprints.
func (s *Store) ReadFields(ctx context.Context, fingerprint string) ([]FieldRow, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT ordinal, name, byte_offset, size, kind, field_fingerprint
		FROM descriptor_fields
		WHERE fingerprint = ?
		ORDER BY ordinal ASC
	`, fingerprint)
	if err != nil {
		return nil, fmt.Errorf("query fields: %w", err)
	}
	defer rows.Close()

	fields := []FieldRow{}
	for rows.Next() {
		var f FieldRow
		if err := rows.Scan(&f.Ordinal, &f.Name, &f.Offset, &f.Size, &f.Kind, &f.FieldFingerprint); err != nil {
			return nil, fmt.Errorf("scan field: %w", err)
		}
		fields = append(fields, f)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate fields: %w", err)
	}
	return fields, nil
}

// scanner is implemented by *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

func scanSnapshot(row scanner) (Snapshot, error) {
	var snap Snapshot
	err := row.Scan(&snap.Seq, &snap.ID, &snap.Source, &snap.IRVersion, &snap.ToolVersion)
	if errors.Is(err, sql.ErrNoRows) {
		return Snapshot{}, ErrNotFound
	}
	if err != nil {
		return Snapshot{}, fmt.Errorf("scan snapshot: %w", err)
	}
	return snap, nil
}

func scanDescriptor(row scanner) (Descriptor, error) {
	var fp, body string
	err := row.Scan(&fp, &body)
	if errors.Is(err, sql.ErrNoRows) {
		return Descriptor{}, ErrNotFound
	}
	if err != nil {
		return Descriptor{}, fmt.Errorf("scan descriptor: %w", err)
	}

	t, err := unmarshalDescriptor(fp, body)
	if err != nil {
		return Descriptor{}, err
	}
	return Descriptor{Fingerprint: fp, Type: t}, nil
}
