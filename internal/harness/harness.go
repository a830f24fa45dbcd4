package harness

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"

	"go.uber.org/zap"

	"github.com/roach88/typeinfo/internal/compiler"
	"github.com/roach88/typeinfo/internal/engine"
	"github.com/roach88/typeinfo/internal/ir"
	"github.com/roach88/typeinfo/internal/store"
)

// Run executes a scenario and evaluates its assertions.
//
// Run creates an isolated in-memory store per call. The returned error is
// for infrastructure failures (unreadable schema, store failure); failed
// declarations and failed assertions are reported in the Result.
func Run(scenario *Scenario) (*Result, error) {
	ctx := context.Background()
	log := engine.Logger().With(zap.String("scenario", scenario.Name))

	doc, err := loadDocument(scenario)
	if err != nil {
		return nil, fmt.Errorf("failed to load schemas: %w", err)
	}

	result := NewResult()
	valid := validTypes(doc, result)

	reg := engine.NewRegistry()
	for _, td := range valid {
		decl, err := td.Decl()
		if err == nil {
			err = reg.Declare(decl)
		}
		if err != nil {
			result.Failures = append(result.Failures, failureOf(td.Name, err))
		}
	}
	if err := reg.Seal(); err != nil {
		log.Debug("registry sealed with failures", zap.Error(err))
	}
	for _, name := range reg.Names() {
		if _, err := reg.Lookup(name); err != nil {
			result.Failures = append(result.Failures, failureOf(name, err))
		}
	}

	st, err := store.Open(":memory:", store.WithIDGenerator(store.NewFixedGenerator(scenario.Name)))
	if err != nil {
		return nil, fmt.Errorf("failed to create in-memory store: %w", err)
	}
	defer st.Close()

	types, err := recordLayouts(ctx, st, scenario.Name, reg.Resolved(), result)
	if err != nil {
		return nil, err
	}

	for _, msg := range EvaluateAssertions(result, types, scenario.Assertions) {
		result.AddError(msg)
	}

	log.Debug("scenario evaluated",
		zap.Int("layouts", len(result.Layouts)),
		zap.Int("failures", len(result.Failures)),
		zap.Bool("pass", result.Pass),
	)
	return result, nil
}

// loadDocument merges schema files and inline types, in that order.
func loadDocument(scenario *Scenario) (*compiler.Document, error) {
	doc := &compiler.Document{}
	for _, path := range scenario.Schemas {
		var (
			part *compiler.Document
			err  error
		)
		if filepath.Ext(path) == ".cue" {
			part, err = compiler.LoadCUEFile(path)
		} else {
			part, err = compiler.LoadYAMLFile(path)
		}
		if err != nil {
			return nil, err
		}
		doc.Types = append(doc.Types, part.Types...)
	}
	doc.Types = append(doc.Types, scenario.Types...)
	return doc, nil
}

// validTypes records a failure for every type with a validation error and
// returns the rest.
func validTypes(doc *compiler.Document, result *Result) []compiler.TypeDoc {
	bad := make(map[int]bool)
	for _, ve := range compiler.Validate(doc) {
		i, ok := typeIndex(ve.Field)
		if !ok || i >= len(doc.Types) {
			result.Failures = append(result.Failures, Failure{Name: "", Code: ve.Code, Message: ve.Error()})
			continue
		}
		bad[i] = true
		result.Failures = append(result.Failures, Failure{Name: doc.Types[i].Name, Code: ve.Code, Message: ve.Error()})
	}

	var out []compiler.TypeDoc
	for i, td := range doc.Types {
		if !bad[i] {
			out = append(out, td)
		}
	}
	return out
}

// typeIndex extracts i from a validation path like "types[i].fields[0]".
func typeIndex(field string) (int, bool) {
	var i int
	if _, err := fmt.Sscanf(field, "types[%d]", &i); err != nil {
		return 0, false
	}
	return i, i >= 0
}

// recordLayouts writes resolved bindings to the store and reads them back
// into result.Layouts. The returned map holds the decoded descriptors.
func recordLayouts(ctx context.Context, st *store.Store, source string, bindings []engine.Binding, result *Result) (map[string]ir.Type, error) {
	entries := make([]store.Entry, len(bindings))
	for i, b := range bindings {
		entries[i] = store.Entry{Name: b.Name, Type: b.Type}
	}

	snap, err := st.WriteSnapshot(ctx, source, entries)
	if err != nil {
		return nil, fmt.Errorf("failed to record layouts: %w", err)
	}
	stored, err := st.ListBindings(ctx, snap.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to read bindings: %w", err)
	}

	types := make(map[string]ir.Type, len(stored))
	for _, b := range stored {
		d, err := st.ReadDescriptorByFingerprint(ctx, b.Fingerprint)
		if err != nil {
			return nil, fmt.Errorf("failed to read %s: %w", b.Name, err)
		}
		fields, err := st.ReadFields(ctx, b.Fingerprint)
		if err != nil {
			return nil, fmt.Errorf("failed to read fields of %s: %w", b.Name, err)
		}

		l := Layout{
			Name:        b.Name,
			Fingerprint: d.Fingerprint,
			Kind:        d.Type.Kind().String(),
			Size:        d.Type.Size(),
			Align:       d.Type.Align(),
			Fields:      fields,
		}
		if c, ok := d.Type.(*ir.Compound); ok {
			l.Policy = c.Policy().String()
		}
		result.Layouts = append(result.Layouts, l)
		types[b.Name] = d.Type
	}
	return types, nil
}

// failureOf maps a declaration error to its code.
func failureOf(name string, err error) Failure {
	f := Failure{Name: name, Message: err.Error()}

	var ie *ir.Error
	var re *engine.RegistryError
	switch {
	case errors.As(err, &ie):
		f.Code = string(ie.Code)
	case errors.As(err, &re):
		f.Code = string(re.Code)
	default:
		f.Code = "unknown"
	}
	return f
}

// Snapshot renders the scenario outcome as canonical JSON for golden
// comparison. Assertion messages are not included.
func Snapshot(scenario *Scenario, result *Result) ([]byte, error) {
	layouts := make(ir.IRArray, len(result.Layouts))
	for i, l := range result.Layouts {
		fields := make(ir.IRArray, len(l.Fields))
		for j, f := range l.Fields {
			fields[j] = ir.IRObject{
				"name":   ir.IRString(f.Name),
				"offset": ir.IRInt(f.Offset),
				"size":   ir.IRInt(f.Size),
				"kind":   ir.IRString(f.Kind),
			}
		}
		obj := ir.IRObject{
			"name":        ir.IRString(l.Name),
			"fingerprint": ir.IRString(l.Fingerprint),
			"kind":        ir.IRString(l.Kind),
			"size":        ir.IRInt(l.Size),
			"align":       ir.IRInt(l.Align),
			"fields":      fields,
		}
		if l.Policy != "" {
			obj["policy"] = ir.IRString(l.Policy)
		}
		layouts[i] = obj
	}

	failures := make(ir.IRArray, len(result.Failures))
	for i, f := range result.Failures {
		failures[i] = ir.IRObject{
			"name": ir.IRString(f.Name),
			"code": ir.IRString(f.Code),
		}
	}

	data, err := ir.MarshalCanonical(ir.IRObject{
		"scenario": ir.IRString(scenario.Name),
		"layouts":  layouts,
		"failures": failures,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to render snapshot: %w", err)
	}
	return data, nil
}
