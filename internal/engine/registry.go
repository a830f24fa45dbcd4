package engine

import (
	"errors"
	"fmt"
	"slices"
	"sync"
	"sync/atomic"

	"go.uber.org/zap"

	"github.com/roach88/typeinfo/internal/ir"
)

// Decl declares a named compound type.
type Decl struct {
	Name   string
	Policy ir.Policy
	Fields []FieldRef
}

// FieldRef is a field whose type is given by reference: a scalar spelling,
// another declared type, or an array expression over either (see
// ParseTypeExpr).
type FieldRef struct {
	Name string
	Type string
}

// Binding pairs a declared name with its resolved descriptor.
type Binding struct {
	Name string
	Type ir.Type
}

// Registry maps type names to descriptors.
//
// It has two phases. While open, Declare collects declarations. Seal
// resolves all of them exactly once and closes the registry; afterwards
// Lookup, Names and Resolved only read, and are safe for concurrent use.
type Registry struct {
	mu    sync.Mutex
	decls []Decl
	index map[string]int

	sealOnce sync.Once
	sealed   atomic.Bool
	sealErr  error

	types map[string]ir.Type
	errs  map[string]error
}

// NewRegistry returns an empty, open registry.
func NewRegistry() *Registry {
	return &Registry{
		index: make(map[string]int),
		types: make(map[string]ir.Type),
		errs:  make(map[string]error),
	}
}

// Declare adds a declaration. Names must be unique and must not shadow a
// scalar spelling.
func (r *Registry) Declare(d Decl) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.sealed.Load() {
		return newRegistryError(ErrCodeSealed, d.Name, "registry is sealed")
	}
	if d.Name == "" {
		return newRegistryError(ErrCodeReservedName, "", "type name is empty")
	}
	if _, ok := ir.LookupScalar(d.Name); ok {
		return newRegistryError(ErrCodeReservedName, d.Name, "%q is a scalar type name", d.Name)
	}
	if _, dup := r.index[d.Name]; dup {
		return newRegistryError(ErrCodeDuplicateType, d.Name, "type declared more than once")
	}

	d.Fields = slices.Clone(d.Fields)
	r.index[d.Name] = len(r.decls)
	r.decls = append(r.decls, d)
	return nil
}

// MustDeclare is like Declare but panics on error.
func (r *Registry) MustDeclare(d Decl) {
	if err := r.Declare(d); err != nil {
		panic(err)
	}
}

// Seal resolves every declaration and closes the registry.
//
// Types are resolved depth-first, dependencies before dependents, and
// Layout runs once per type. Every failure is collected: the returned error
// joins one error per failed type, in declaration order. Types that fail
// still answer Lookup with their error.
//
// Seal is idempotent; concurrent callers share one resolution and all
// receive its result.
func (r *Registry) Seal() error {
	r.sealOnce.Do(func() {
		r.mu.Lock()
		defer r.mu.Unlock()

		stack := newResolveStack()
		var errs []error
		for _, d := range r.decls {
			if _, err := r.resolve(d.Name, stack); err != nil {
				errs = append(errs, err)
			}
		}
		r.sealErr = errors.Join(errs...)
		r.sealed.Store(true)

		Logger().Debug("registry sealed",
			zap.Int("declared", len(r.decls)),
			zap.Int("resolved", len(r.types)),
			zap.Int("failed", len(r.errs)),
		)
	})
	return r.sealErr
}

// Sealed reports whether Seal has completed.
func (r *Registry) Sealed() bool {
	return r.sealed.Load()
}

// Lookup returns the descriptor registered under name.
func (r *Registry) Lookup(name string) (ir.Type, error) {
	if !r.sealed.Load() {
		return nil, newRegistryError(ErrCodeNotSealed, name, "registry is not sealed")
	}
	if t, ok := r.types[name]; ok {
		return t, nil
	}
	if err, ok := r.errs[name]; ok {
		return nil, err
	}
	return nil, newRegistryError(ErrCodeNotRegistered, name, "type is not registered")
}

// MustLookup is like Lookup but panics on error.
func (r *Registry) MustLookup(name string) ir.Type {
	t, err := r.Lookup(name)
	if err != nil {
		panic(err)
	}
	return t
}

// Names returns the declared type names in declaration order.
func (r *Registry) Names() []string {
	r.mu.Lock()
	defer r.mu.Unlock()

	names := make([]string, len(r.decls))
	for i, d := range r.decls {
		names[i] = d.Name
	}
	return names
}

// Resolved returns the successfully built descriptors in declaration order.
// It is empty before Seal.
func (r *Registry) Resolved() []Binding {
	if !r.sealed.Load() {
		return nil
	}
	out := make([]Binding, 0, len(r.types))
	for _, d := range r.decls {
		if t, ok := r.types[d.Name]; ok {
			out = append(out, Binding{Name: d.Name, Type: t})
		}
	}
	return out
}

// resolve builds the descriptor for a declared name, memoizing the outcome.
// Callers hold r.mu.
func (r *Registry) resolve(name string, stack *resolveStack) (ir.Type, error) {
	if t, ok := r.types[name]; ok {
		return t, nil
	}
	if err, ok := r.errs[name]; ok {
		return nil, err
	}
	if stack.WouldCycle(name) {
		return nil, ir.Unsupported(name, "recursive containment: "+stack.Path(name))
	}

	d := r.decls[r.index[name]]

	stack.Push(name)
	t, err := r.build(d, stack)
	stack.Pop()

	if err != nil {
		r.errs[name] = err
		Logger().Warn("type construction failed", zap.String("type", name), zap.Error(err))
		return nil, err
	}

	r.types[name] = t
	Logger().Debug("type resolved",
		zap.String("type", name),
		zap.Int("size", t.Size()),
		zap.Int("align", t.Align()),
		zap.Stringer("policy", d.Policy),
	)
	return t, nil
}

func (r *Registry) build(d Decl, stack *resolveStack) (ir.Type, error) {
	fields := make([]FieldDecl, len(d.Fields))
	for i, f := range d.Fields {
		t, err := r.resolveRef(f.Type, stack)
		if err != nil {
			return nil, fmt.Errorf("%s.%s: %w", d.Name, f.Name, err)
		}
		fields[i] = FieldDecl{Name: f.Name, Type: t}
	}

	c, err := Layout(fields, d.Policy)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", d.Name, err)
	}
	return c, nil
}

func (r *Registry) resolveRef(ref string, stack *resolveStack) (ir.Type, error) {
	expr, err := ParseTypeExpr(ref)
	if err != nil {
		return nil, err
	}

	var base ir.Type
	if s, ok := ir.LookupScalar(expr.Name); ok {
		base = s
	} else if _, declared := r.index[expr.Name]; declared {
		base, err = r.resolve(expr.Name, stack)
		if err != nil {
			return nil, err
		}
	} else {
		return nil, ir.Unsupported(expr.Name, "unknown type")
	}

	return expr.Wrap(base)
}
