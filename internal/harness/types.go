package harness

import "github.com/roach88/typeinfo/internal/store"

// Layout is a resolved type as read back from the store.
type Layout struct {
	Name        string           `json:"name"`
	Fingerprint string           `json:"fingerprint"`
	Kind        string           `json:"kind"`
	Size        int              `json:"size"`
	Align       int              `json:"align"`
	Policy      string           `json:"policy,omitempty"`
	Fields      []store.FieldRow `json:"fields"`
}

// Failure is a declaration that did not produce a descriptor.
type Failure struct {
	Name    string `json:"name"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

// Result is the outcome of a scenario run.
type Result struct {
	// Pass is true if every assertion held.
	Pass bool `json:"pass"`

	// Layouts holds resolved types in declaration order.
	Layouts []Layout `json:"layouts"`

	// Failures holds declarations that failed, in the order they were
	// reported.
	Failures []Failure `json:"failures,omitempty"`

	// Errors contains assertion failure messages.
	Errors []string `json:"errors,omitempty"`
}

// NewResult creates a new passing result.
func NewResult() *Result {
	return &Result{
		Pass:    true,
		Layouts: []Layout{},
		Errors:  []string{},
	}
}

// AddError adds an assertion failure and marks the result as failed.
func (r *Result) AddError(err string) {
	r.Errors = append(r.Errors, err)
	r.Pass = false
}

// Layout returns the resolved layout bound to name.
func (r *Result) Layout(name string) (Layout, bool) {
	for _, l := range r.Layouts {
		if l.Name == name {
			return l, true
		}
	}
	return Layout{}, false
}

// FailuresFor returns the failures reported for name.
func (r *Result) FailuresFor(name string) []Failure {
	var out []Failure
	for _, f := range r.Failures {
		if f.Name == name {
			out = append(out, f)
		}
	}
	return out
}
