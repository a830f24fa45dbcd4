package cli

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"cuelang.org/go/cue/cuecontext"
	cueerrors "cuelang.org/go/cue/errors"
	"cuelang.org/go/cue/load"
	"cuelang.org/go/cue/token"

	"github.com/roach88/typeinfo/internal/compiler"
	"github.com/roach88/typeinfo/internal/engine"
)

// LoadMode controls how errors are handled during schema loading.
type LoadMode int

const (
	// LoadModeFailFast stops on the first error encountered.
	LoadModeFailFast LoadMode = iota
	// LoadModeCollectAll collects all errors before returning.
	LoadModeCollectAll
)

// LoadResult contains the schema documents found at a path, merged into
// one document in file order (CUE first, then YAML).
type LoadResult struct {
	Document *compiler.Document
	Files    []string
}

// LoadError represents an error that occurred during schema loading.
type LoadError struct {
	Code    string
	Message string
	Pos     token.Pos // CUE position if available
}

func (e *LoadError) Error() string {
	if e.Pos.IsValid() {
		return fmt.Sprintf("%s:%d:%d: %s: %s", e.Pos.Filename(), e.Pos.Line(), e.Pos.Column(), e.Code, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// LoadSchemas loads CUE and YAML schema files from a file or directory.
// A directory is scanned without descending into subdirectories.
// If mode is LoadModeFailFast, returns on first error.
// If mode is LoadModeCollectAll, collects all errors.
func LoadSchemas(path string, mode LoadMode) (*LoadResult, []error) {
	info, err := os.Stat(path)
	if os.IsNotExist(err) {
		return nil, []error{&LoadError{Code: ErrCodeNotFound, Message: fmt.Sprintf("schema path not found: %s", path)}}
	}
	if err != nil {
		return nil, []error{&LoadError{Code: ErrCodeNotFound, Message: fmt.Sprintf("error accessing schema path: %v", err)}}
	}

	var cueFiles, yamlFiles []string
	dir := path
	if info.IsDir() {
		cueFiles, yamlFiles, err = FindSchemaFiles(path)
		if err != nil {
			return nil, []error{&LoadError{Code: ErrCodeScanError, Message: fmt.Sprintf("error scanning directory: %v", err)}}
		}
	} else {
		dir = filepath.Dir(path)
		switch schemaKind(path) {
		case "cue":
			cueFiles = []string{path}
		case "yaml":
			yamlFiles = []string{path}
		default:
			return nil, []error{&LoadError{Code: ErrCodeNoFiles, Message: fmt.Sprintf("not a schema file (want .cue, .yaml or .yml): %s", path)}}
		}
	}

	if len(cueFiles) == 0 && len(yamlFiles) == 0 {
		return nil, []error{&LoadError{Code: ErrCodeNoFiles, Message: fmt.Sprintf("no schema files found in %s", path)}}
	}

	result := &LoadResult{Document: &compiler.Document{}}
	var errs []error

	if len(cueFiles) > 0 {
		doc, err := loadCUE(dir, cueFiles)
		if err != nil {
			errs = append(errs, err)
			if mode == LoadModeFailFast {
				return result, errs
			}
		} else {
			result.Document.Types = append(result.Document.Types, doc.Types...)
		}
		result.Files = append(result.Files, cueFiles...)
	}

	for _, f := range yamlFiles {
		doc, err := compiler.LoadYAMLFile(f)
		if err != nil {
			errs = append(errs, &LoadError{Code: ErrCodeLoadFailed, Message: err.Error()})
			if mode == LoadModeFailFast {
				return result, errs
			}
			continue
		}
		result.Document.Types = append(result.Document.Types, doc.Types...)
		result.Files = append(result.Files, f)
	}

	// Check if we found anything
	if len(result.Document.Types) == 0 && len(errs) == 0 {
		errs = append(errs, &LoadError{Code: ErrCodeNoFiles, Message: fmt.Sprintf("no types declared in %s", path)})
	}

	return result, errs
}

// loadCUE builds the CUE files of one directory as a single instance.
func loadCUE(dir string, files []string) (*compiler.Document, error) {
	args := make([]string, len(files))
	for i, f := range files {
		args[i] = filepath.Base(f)
	}

	ctx := cuecontext.New()
	cfg := &load.Config{Dir: dir}
	instances := load.Instances(args, cfg)
	if len(instances) == 0 {
		return nil, &LoadError{Code: ErrCodeLoadFailed, Message: "no CUE instances loaded"}
	}

	// Check for load errors
	inst := instances[0]
	if inst.Err != nil {
		return nil, &LoadError{Code: ErrCodeLoadFailed, Message: fmt.Sprintf("loading CUE files: %v", inst.Err), Pos: firstPos(inst.Err)}
	}

	// Build value from instance
	value := ctx.BuildInstance(inst)
	if err := value.Err(); err != nil {
		return nil, &LoadError{Code: ErrCodeBuildFailed, Message: fmt.Sprintf("building CUE value: %v", err), Pos: firstPos(err)}
	}

	doc, err := compiler.CompileDocument(value)
	if err != nil {
		return nil, convertCompileError(err)
	}
	return doc, nil
}

// FindSchemaFiles lists the .cue and .yaml/.yml files directly inside dir,
// sorted by name.
func FindSchemaFiles(dir string) (cueFiles, yamlFiles []string, err error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, nil, err
	}
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		path := filepath.Join(dir, e.Name())
		switch schemaKind(path) {
		case "cue":
			cueFiles = append(cueFiles, path)
		case "yaml":
			yamlFiles = append(yamlFiles, path)
		}
	}
	return cueFiles, yamlFiles, nil
}

func schemaKind(path string) string {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".cue":
		return "cue"
	case ".yaml", ".yml":
		return "yaml"
	default:
		return ""
	}
}

func firstPos(err error) token.Pos {
	for _, e := range cueerrors.Errors(err) {
		if positions := cueerrors.Positions(e); len(positions) > 0 {
			return positions[0]
		}
	}
	return token.NoPos
}

// convertCompileError converts a compiler error to a LoadError with position info.
func convertCompileError(err error) *LoadError {
	var compileErr *compiler.CompileError
	if errors.As(err, &compileErr) {
		code := ErrCodeInvalidSchema
		if compileErr.Field == "cue" {
			code = ErrCodeBuildFailed
		}
		return &LoadError{
			Code:    code,
			Message: fmt.Sprintf("%s: %s", compileErr.Field, compileErr.Message),
			Pos:     compileErr.Pos,
		}
	}
	return &LoadError{Code: ErrCodeGeneric, Message: err.Error()}
}

// BuildRegistry validates doc, declares its types and seals the registry.
// The registry is returned whenever declaration got as far as Seal, even
// if some types failed to build; their errors are in the returned slice.
func BuildRegistry(doc *compiler.Document, mode LoadMode) (*engine.Registry, []error) {
	if verrs := compiler.Validate(doc); len(verrs) > 0 {
		if mode == LoadModeFailFast {
			return nil, []error{verrs[0]}
		}
		errs := make([]error, len(verrs))
		for i, ve := range verrs {
			errs[i] = ve
		}
		return nil, errs
	}

	reg := engine.NewRegistry()
	var errs []error
	for _, td := range doc.Types {
		d, err := td.Decl()
		if err == nil {
			err = reg.Declare(d)
		}
		if err != nil {
			errs = append(errs, err)
			if mode == LoadModeFailFast {
				return nil, errs
			}
		}
	}

	for _, err := range splitErrors(reg.Seal()) {
		errs = append(errs, err)
		if mode == LoadModeFailFast {
			break
		}
	}
	return reg, errs
}

// toCLIErrors converts load and build errors for output.
func toCLIErrors(errs []error) []CLIError {
	out := make([]CLIError, len(errs))
	for i, err := range errs {
		out[i] = CLIError{Code: ErrorCode(err), Message: errorMessage(err)}
	}
	return out
}

// errorMessage renders err without the code prefix LoadError adds.
func errorMessage(err error) string {
	var loadErr *LoadError
	if errors.As(err, &loadErr) {
		if loadErr.Pos.IsValid() {
			return fmt.Sprintf("%s:%d:%d: %s", loadErr.Pos.Filename(), loadErr.Pos.Line(), loadErr.Pos.Column(), loadErr.Message)
		}
		return loadErr.Message
	}
	return err.Error()
}
