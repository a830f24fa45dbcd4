package cli

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/spf13/cobra"
)

// ValidationResult holds validation results.
type ValidationResult struct {
	Valid  bool       `json:"valid"`
	Types  int        `json:"types"`
	Errors []CLIError `json:"errors,omitempty"`
}

// NewValidateCommand creates the validate command.
func NewValidateCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "validate <path>",
		Short: "Check schema files without printing layouts",
		Long: `Validate CUE or YAML schema files.

Runs the same pipeline as compile (schema checks, declaration, layout) and
reports every error found, but prints no descriptors and writes nothing.`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true, // Don't print usage on errors
		SilenceErrors: true, // Don't print errors - we handle our own error output
		RunE: func(cmd *cobra.Command, args []string) error {
			return runValidate(rootOpts, args[0], cmd)
		},
	}

	return cmd
}

func runValidate(opts *RootOptions, path string, cmd *cobra.Command) error {
	formatter := newFormatter(opts, cmd.OutOrStdout(), cmd.ErrOrStderr())

	loadResult, loadErrors := LoadSchemas(path, LoadModeCollectAll)

	// Handle load errors (path not found, no files, etc.)
	if loadResult == nil && len(loadErrors) > 0 {
		return outputValidateError(formatter, ErrorCode(loadErrors[0]), errorMessage(loadErrors[0]), nil)
	}

	formatter.VerboseLog("Found %d schema file(s) in %s", len(loadResult.Files), path)

	errs, count := validateAll(loadResult, loadErrors, formatter)
	if len(errs) > 0 {
		return outputValidationErrors(formatter, errs, count)
	}

	return outputValidateSuccess(formatter, count)
}

// validateAll runs declaration and layout for every loaded type and
// returns every error found along with the number of types declared.
func validateAll(loadResult *LoadResult, loadErrors []error, formatter *OutputFormatter) ([]error, int) {
	if len(loadErrors) > 0 {
		return loadErrors, len(loadResult.Document.Types)
	}

	for _, td := range loadResult.Document.Types {
		formatter.VerboseLog("Validating type: %s", td.Name)
	}

	_, errs := BuildRegistry(loadResult.Document, LoadModeCollectAll)
	return errs, len(loadResult.Document.Types)
}

// outputValidateSuccess outputs successful validation results.
func outputValidateSuccess(formatter *OutputFormatter, count int) error {
	if formatter.Format == "json" {
		return formatter.Success(ValidationResult{Valid: true, Types: count})
	}

	fmt.Fprintf(formatter.Writer, "✓ All schemas valid (%d type(s))\n", count)
	return nil
}

// outputValidateError outputs a single validation error.
func outputValidateError(formatter *OutputFormatter, code, message string, details interface{}) error {
	_ = formatter.Error(code, message, details)
	// Path and load problems are command-level errors (exit code 2)
	return NewExitError(ExitCommandError, fmt.Sprintf("%s: %s", code, message))
}

// outputValidationErrors outputs multiple validation errors.
func outputValidationErrors(formatter *OutputFormatter, errs []error, count int) error {
	cliErrors := toCLIErrors(errs)

	if formatter.Format == "json" {
		response := CLIResponse{
			Status: "error",
			Data: ValidationResult{
				Valid:  false,
				Types:  count,
				Errors: cliErrors,
			},
			Error: &cliErrors[0],
		}

		encoder := json.NewEncoder(formatter.Writer)
		encoder.SetIndent("", "  ")
		if err := encoder.Encode(response); err != nil {
			return err
		}

		// Validation failures = exit code 1
		return NewExitError(ExitFailure, fmt.Sprintf("validation failed with %d error(s)", len(errs)))
	}

	// Text format
	fmt.Fprintln(formatter.Writer, "✗ Validation failed")
	fmt.Fprintln(formatter.Writer)

	for _, e := range cliErrors {
		fmt.Fprintf(formatter.Writer, "  %s: %s\n\n", e.Code, e.Message)
	}

	// Validation failures = exit code 1
	return NewExitError(ExitFailure, fmt.Sprintf("validation failed with %d error(s)", len(errs)))
}

// ValidateSchemas validates the schemas at path.
// This is a helper function for external callers.
func ValidateSchemas(path string) ([]error, error) {
	loadResult, loadErrors := LoadSchemas(path, LoadModeCollectAll)
	if loadResult == nil && len(loadErrors) > 0 {
		return nil, loadErrors[0]
	}

	// Create a silent formatter for validateAll
	silentFormatter := &OutputFormatter{Format: "text", Verbose: false, Writer: io.Discard}
	errs, _ := validateAll(loadResult, loadErrors, silentFormatter)
	return errs, nil
}
