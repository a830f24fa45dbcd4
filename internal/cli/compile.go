package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/roach88/typeinfo/internal/engine"
	"github.com/roach88/typeinfo/internal/ir"
	"github.com/roach88/typeinfo/internal/store"
)

// CompileOptions holds flags for the compile command.
type CompileOptions struct {
	*RootOptions
	Output   string // output file path
	Database string // snapshot database path
}

// TypeResult is one compiled type.
type TypeResult struct {
	Name        string          `json:"name"`
	Fingerprint string          `json:"fingerprint"`
	Size        int             `json:"size"`
	Align       int             `json:"align"`
	Policy      string          `json:"policy"`
	Descriptor  json.RawMessage `json:"descriptor"`

	typ ir.Type
}

// CompilationResult holds the compiled types in declaration order.
type CompilationResult struct {
	Types    []TypeResult `json:"types"`
	Snapshot string       `json:"snapshot,omitempty"`
}

// NewCompileCommand creates the compile command.
func NewCompileCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &CompileOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "compile <path>",
		Short: "Compute layout descriptors from schema files",
		Long: `Compile CUE or YAML schema files to layout descriptors.

<path> is a schema file or a directory of them. Every declared type is laid
out and printed with its field offsets. --output writes the descriptors as
JSON; --db records them as a new snapshot in a SQLite database.

Examples:
  typeinfo compile ./schemas
  typeinfo compile ./schemas/palette.cue --format json
  typeinfo compile ./schemas --db ./typeinfo.db -o layouts.json`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true, // Don't print usage on errors - we handle our own error output
		SilenceErrors: true, // Don't print errors - we handle our own error output
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCompile(opts, args[0], cmd)
		},
	}

	cmd.Flags().StringVarP(&opts.Output, "output", "o", "", "output file path")
	cmd.Flags().StringVar(&opts.Database, "db", "", "record a snapshot in this SQLite database")

	return cmd
}

func runCompile(opts *CompileOptions, path string, cmd *cobra.Command) error {
	formatter := newFormatter(opts.RootOptions, cmd.OutOrStdout(), cmd.ErrOrStderr())

	// Use shared loader with collect-all mode
	loadResult, loadErrors := LoadSchemas(path, LoadModeCollectAll)

	// Handle load errors (path not found, no files, etc.)
	if loadResult == nil && len(loadErrors) > 0 {
		return outputCompileError(formatter, ErrorCode(loadErrors[0]), errorMessage(loadErrors[0]), nil)
	}

	formatter.VerboseLog("Found %d schema file(s) in %s", len(loadResult.Files), path)
	if len(loadErrors) > 0 {
		return outputCompileErrors(formatter, loadErrors)
	}

	for _, td := range loadResult.Document.Types {
		formatter.VerboseLog("Compiling type: %s", td.Name)
	}

	reg, buildErrors := BuildRegistry(loadResult.Document, LoadModeCollectAll)
	if len(buildErrors) > 0 {
		return outputCompileErrors(formatter, buildErrors)
	}

	result, err := buildCompilationResult(reg)
	if err != nil {
		return outputCompileError(formatter, ErrorCode(err), err.Error(), nil)
	}

	// Write to file if --output specified
	if opts.Output != "" {
		if err := writeResultToFile(result, opts.Output); err != nil {
			return outputCompileError(formatter, ErrCodeWriteFailed, fmt.Sprintf("writing output file: %v", err), nil)
		}
	}

	// Record a snapshot if --db specified
	if opts.Database != "" {
		snap, err := recordSnapshot(cmd.Context(), opts.Database, path, reg)
		if err != nil {
			return outputCompileError(formatter, ErrCodeWriteFailed, fmt.Sprintf("recording snapshot: %v", err), nil)
		}
		result.Snapshot = snap.ID
		formatter.VerboseLog("Recorded snapshot %s (seq %d)", snap.ID, snap.Seq)
	}

	return outputCompileSuccess(formatter, result, opts.Output)
}

// buildCompilationResult collects the resolved types of a sealed registry.
func buildCompilationResult(reg *engine.Registry) (*CompilationResult, error) {
	result := &CompilationResult{Types: []TypeResult{}}
	for _, b := range reg.Resolved() {
		tr, err := newTypeResult(b.Name, b.Type)
		if err != nil {
			return nil, err
		}
		result.Types = append(result.Types, tr)
	}
	return result, nil
}

func newTypeResult(name string, t ir.Type) (TypeResult, error) {
	body, err := ir.MarshalDescriptor(t)
	if err != nil {
		return TypeResult{}, fmt.Errorf("%s: %w", name, err)
	}
	fp, err := ir.Fingerprint(t)
	if err != nil {
		return TypeResult{}, fmt.Errorf("%s: %w", name, err)
	}
	tr := TypeResult{
		Name:        name,
		Fingerprint: fp,
		Size:        t.Size(),
		Align:       t.Align(),
		Descriptor:  body,
		typ:         t,
	}
	if c, ok := t.(*ir.Compound); ok {
		tr.Policy = c.Policy().String()
	}
	return tr, nil
}

// names maps each result's fingerprint to its type name.
func (r *CompilationResult) names() map[string]string {
	names := make(map[string]string, len(r.Types))
	for _, tr := range r.Types {
		if _, taken := names[tr.Fingerprint]; !taken {
			names[tr.Fingerprint] = tr.Name
		}
	}
	return names
}

// recordSnapshot writes the registry's descriptors to the database at dbPath.
func recordSnapshot(ctx context.Context, dbPath, source string, reg *engine.Registry) (store.Snapshot, error) {
	if ctx == nil {
		ctx = context.Background()
	}

	st, err := store.Open(dbPath)
	if err != nil {
		return store.Snapshot{}, err
	}
	defer st.Close()

	resolved := reg.Resolved()
	entries := make([]store.Entry, len(resolved))
	for i, b := range resolved {
		entries[i] = store.Entry{Name: b.Name, Type: b.Type}
	}
	return st.WriteSnapshot(ctx, source, entries)
}

// outputCompileSuccess outputs successful compilation results.
func outputCompileSuccess(formatter *OutputFormatter, result *CompilationResult, outputFile string) error {
	if formatter.Format == "json" {
		return formatter.Success(result)
	}

	// Human-readable text output
	fmt.Fprintf(formatter.Writer, "✓ Compiled %d type(s)\n\n", len(result.Types))

	names := result.names()
	for _, tr := range result.Types {
		writeDescriptor(formatter.Writer, tr.Name, tr.typ, tr.Fingerprint, names)
	}

	if outputFile != "" {
		fmt.Fprintf(formatter.Writer, "Wrote descriptors to %s\n", outputFile)
	}
	if result.Snapshot != "" {
		fmt.Fprintf(formatter.Writer, "Recorded snapshot %s\n", result.Snapshot)
	}

	return nil
}

// outputCompileError outputs a single compilation error.
func outputCompileError(formatter *OutputFormatter, code, message string, details interface{}) error {
	_ = formatter.Error(code, message, details)
	// Compilation errors are command-level errors (exit code 2)
	return WrapExitError(ExitCommandError, fmt.Sprintf("%s: %s", code, message), nil)
}

// outputCompileErrors outputs multiple compilation errors.
func outputCompileErrors(formatter *OutputFormatter, errs []error) error {
	if err := formatter.Errors("Compilation failed", toCLIErrors(errs)); err != nil {
		return err
	}
	// Compilation errors are command-level errors (exit code 2)
	return NewExitError(ExitCommandError, fmt.Sprintf("compilation failed with %d error(s)", len(errs)))
}

// writeResultToFile writes the compilation result to a file.
func writeResultToFile(result *CompilationResult, filename string) error {
	// Indented for readability; fingerprints are over the canonical form
	data, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling descriptors: %w", err)
	}

	if err := os.WriteFile(filename, data, 0644); err != nil {
		return fmt.Errorf("writing file: %w", err)
	}

	return nil
}
