package cli

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/roach88/typeinfo/internal/ir"
	"github.com/roach88/typeinfo/internal/store"
)

// ShowOptions holds flags for the show command.
type ShowOptions struct {
	*RootOptions
	Database string
	Snapshot string // optional - defaults to the latest snapshot
}

// ShowResult is a stored descriptor with its field placements.
type ShowResult struct {
	Snapshot    string           `json:"snapshot"`
	Name        string           `json:"name"`
	Fingerprint string           `json:"fingerprint"`
	Size        int              `json:"size"`
	Align       int              `json:"align"`
	Policy      string           `json:"policy,omitempty"`
	Fields      []store.FieldRow `json:"fields"`
	Descriptor  json.RawMessage  `json:"descriptor"`
}

// NewShowCommand creates the show command.
func NewShowCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ShowOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "show <name>",
		Short: "Show a recorded descriptor",
		Long: `Show the descriptor bound to a type name in a snapshot database.

The latest snapshot is used unless --snapshot names another one.

Examples:
  typeinfo show Palette --db ./typeinfo.db
  typeinfo show Palette --db ./typeinfo.db --format json`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runShow(opts, args[0], cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Database, "db", "", "path to SQLite database (required)")
	_ = cmd.MarkFlagRequired("db")
	cmd.Flags().StringVar(&opts.Snapshot, "snapshot", "", "snapshot ID (default: latest)")

	return cmd
}

func runShow(opts *ShowOptions, name string, cmd *cobra.Command) error {
	ctx := context.Background()
	formatter := newFormatter(opts.RootOptions, cmd.OutOrStdout(), cmd.ErrOrStderr())

	st, err := openExisting(opts.Database)
	if err != nil {
		return outputCommandError(formatter, err)
	}
	defer st.Close()

	snap, err := selectSnapshot(ctx, st, opts.Snapshot)
	if err != nil {
		return outputCommandError(formatter, err)
	}
	formatter.VerboseLog("Using snapshot %s (seq %d, source %s)", snap.ID, snap.Seq, snap.Source)

	bindings, err := st.ListBindings(ctx, snap.ID)
	if err != nil {
		return outputCommandError(formatter, err)
	}
	binding, ok := findBinding(bindings, name)
	if !ok {
		return outputCommandError(formatter, fmt.Errorf("type %s is not bound in snapshot %s: %w", name, snap.ID, store.ErrNotFound))
	}

	d, err := st.ReadDescriptorByFingerprint(ctx, binding.Fingerprint)
	if err != nil {
		return outputCommandError(formatter, err)
	}
	fields, err := st.ReadFields(ctx, d.Fingerprint)
	if err != nil {
		return outputCommandError(formatter, err)
	}
	body, err := ir.MarshalDescriptor(d.Type)
	if err != nil {
		return outputCommandError(formatter, err)
	}

	result := ShowResult{
		Snapshot:    snap.ID,
		Name:        name,
		Fingerprint: d.Fingerprint,
		Size:        d.Type.Size(),
		Align:       d.Type.Align(),
		Fields:      fields,
		Descriptor:  body,
	}
	if c, ok := d.Type.(*ir.Compound); ok {
		result.Policy = c.Policy().String()
	}

	if formatter.Format == "json" {
		return formatter.Success(result)
	}
	writeDescriptor(formatter.Writer, name, d.Type, d.Fingerprint, bindingNames(bindings))
	return nil
}

// openExisting opens a snapshot database that must already exist.
func openExisting(path string) (*store.Store, error) {
	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("database not found: %s: %w", path, store.ErrNotFound)
		}
		return nil, err
	}
	st, err := store.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	return st, nil
}

// selectSnapshot returns the snapshot with the given ID, or the latest one
// when id is empty.
func selectSnapshot(ctx context.Context, st *store.Store, id string) (store.Snapshot, error) {
	if id != "" {
		return st.ReadSnapshot(ctx, id)
	}
	snap, err := st.LatestSnapshot(ctx)
	if errors.Is(err, store.ErrNotFound) {
		return store.Snapshot{}, fmt.Errorf("no snapshots recorded: %w", err)
	}
	return snap, err
}

func findBinding(bindings []store.Binding, name string) (store.Binding, bool) {
	for _, b := range bindings {
		if b.Name == name {
			return b, true
		}
	}
	return store.Binding{}, false
}

// bindingNames maps each bound fingerprint to the first name bound to it.
func bindingNames(bindings []store.Binding) map[string]string {
	names := make(map[string]string, len(bindings))
	for _, b := range bindings {
		if _, taken := names[b.Fingerprint]; !taken {
			names[b.Fingerprint] = b.Name
		}
	}
	return names
}

// outputCommandError reports a store or lookup failure as a command error.
func outputCommandError(formatter *OutputFormatter, err error) error {
	code := ErrorCode(err)
	_ = formatter.Error(code, err.Error(), nil)
	return WrapExitError(ExitCommandError, code, err)
}
