package cli

import (
	"context"
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/roach88/typeinfo/internal/ir"
	"github.com/roach88/typeinfo/internal/store"
)

// ListOptions holds flags for the list command.
type ListOptions struct {
	*RootOptions
	Database  string
	Snapshot  string // optional - defaults to the latest snapshot
	Snapshots bool   // list snapshots instead of bindings
}

// ListEntry is one binding of a snapshot.
type ListEntry struct {
	Name        string `json:"name"`
	Fingerprint string `json:"fingerprint"`
	Kind        string `json:"kind"`
	Size        int    `json:"size"`
	Align       int    `json:"align"`
	Policy      string `json:"policy,omitempty"`
}

// ListResult holds the bindings of one snapshot.
type ListResult struct {
	Snapshot store.Snapshot `json:"snapshot"`
	Types    []ListEntry    `json:"types"`
}

// NewListCommand creates the list command.
func NewListCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ListOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List recorded types",
		Long: `List the types bound in a snapshot database.

The latest snapshot is used unless --snapshot names another one.
--snapshots lists the recorded snapshots instead.

Examples:
  typeinfo list --db ./typeinfo.db
  typeinfo list --db ./typeinfo.db --snapshots`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runList(opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Database, "db", "", "path to SQLite database (required)")
	_ = cmd.MarkFlagRequired("db")
	cmd.Flags().StringVar(&opts.Snapshot, "snapshot", "", "snapshot ID (default: latest)")
	cmd.Flags().BoolVar(&opts.Snapshots, "snapshots", false, "list snapshots instead of types")

	return cmd
}

func runList(opts *ListOptions, cmd *cobra.Command) error {
	ctx := context.Background()
	formatter := newFormatter(opts.RootOptions, cmd.OutOrStdout(), cmd.ErrOrStderr())

	st, err := openExisting(opts.Database)
	if err != nil {
		return outputCommandError(formatter, err)
	}
	defer st.Close()

	if opts.Snapshots {
		return listSnapshots(ctx, st, formatter)
	}

	snap, err := selectSnapshot(ctx, st, opts.Snapshot)
	if err != nil {
		return outputCommandError(formatter, err)
	}

	bindings, err := st.ListBindings(ctx, snap.ID)
	if err != nil {
		return outputCommandError(formatter, err)
	}

	result := ListResult{Snapshot: snap, Types: make([]ListEntry, 0, len(bindings))}
	for _, b := range bindings {
		d, err := st.ReadDescriptorByFingerprint(ctx, b.Fingerprint)
		if err != nil {
			return outputCommandError(formatter, err)
		}
		entry := ListEntry{
			Name:        b.Name,
			Fingerprint: b.Fingerprint,
			Kind:        d.Type.Kind().String(),
			Size:        d.Type.Size(),
			Align:       d.Type.Align(),
		}
		if c, ok := d.Type.(*ir.Compound); ok {
			entry.Policy = c.Policy().String()
		}
		result.Types = append(result.Types, entry)
	}

	if formatter.Format == "json" {
		return formatter.Success(result)
	}

	fmt.Fprintf(formatter.Writer, "Snapshot %s (seq %d, source %s)\n", snap.ID, snap.Seq, snap.Source)
	if len(result.Types) == 0 {
		fmt.Fprintln(formatter.Writer, "No types recorded")
		return nil
	}
	rows := make([][]string, len(result.Types))
	for i, e := range result.Types {
		rows[i] = []string{e.Name, strconv.Itoa(e.Size), strconv.Itoa(e.Align), e.Policy, e.Fingerprint}
	}
	renderTable(formatter.Writer, []string{"NAME", "SIZE", "ALIGN", "POLICY", "FINGERPRINT"}, rows)
	return nil
}

func listSnapshots(ctx context.Context, st *store.Store, formatter *OutputFormatter) error {
	snapshots, err := st.ListSnapshots(ctx)
	if err != nil {
		return outputCommandError(formatter, err)
	}

	if formatter.Format == "json" {
		return formatter.Success(snapshots)
	}

	if len(snapshots) == 0 {
		fmt.Fprintln(formatter.Writer, "No snapshots recorded")
		return nil
	}
	rows := make([][]string, len(snapshots))
	for i, s := range snapshots {
		rows[i] = []string{strconv.FormatInt(s.Seq, 10), s.ID, s.Source, s.ToolVersion}
	}
	renderTable(formatter.Writer, []string{"SEQ", "ID", "SOURCE", "TOOL"}, rows)
	return nil
}
