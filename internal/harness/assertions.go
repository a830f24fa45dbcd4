package harness

import (
	"fmt"
	"strings"

	"github.com/roach88/typeinfo/internal/ir"
)

// AssertionError is returned when an assertion fails.
type AssertionError struct {
	Type     string // assertion type
	Name     string // declared type the assertion is about
	Expected string
	Actual   string
}

// Error implements the error interface.
func (e *AssertionError) Error() string {
	var buf strings.Builder
	fmt.Fprintf(&buf, "Assertion failed: %s %s\n", e.Type, e.Name)
	fmt.Fprintf(&buf, "  Expected: %s\n", e.Expected)
	fmt.Fprintf(&buf, "  Actual: %s", e.Actual)
	return buf.String()
}

// EvaluateAssertions evaluates all assertions against the result.
// types holds the resolved descriptors by name.
// Returns one message per failed assertion.
func EvaluateAssertions(result *Result, types map[string]ir.Type, assertions []Assertion) []string {
	var errs []string

	for i, assertion := range assertions {
		var err error

		switch assertion.Type {
		case AssertLayout:
			err = assertLayout(result, assertion)
		case AssertError:
			err = assertFailure(result, assertion)
		case AssertEqual:
			err = assertEqual(types, assertion)
		case AssertFingerprint:
			err = assertFingerprint(result, assertion)
		default:
			err = fmt.Errorf("assertion[%d]: unknown assertion type %q", i, assertion.Type)
		}

		if err != nil {
			errs = append(errs, err.Error())
		}
	}

	return errs
}

func assertLayout(result *Result, a Assertion) error {
	l, ok := result.Layout(a.Name)
	if !ok {
		return &AssertionError{
			Type:     AssertLayout,
			Name:     a.Name,
			Expected: "a resolved type",
			Actual:   describeFailures(result.FailuresFor(a.Name)),
		}
	}

	var diffs []string
	if a.Size != nil && *a.Size != l.Size {
		diffs = append(diffs, fmt.Sprintf("size %d, want %d", l.Size, *a.Size))
	}
	if a.Align != nil && *a.Align != l.Align {
		diffs = append(diffs, fmt.Sprintf("align %d, want %d", l.Align, *a.Align))
	}
	if a.Policy != "" && a.Policy != l.Policy {
		diffs = append(diffs, fmt.Sprintf("policy %q, want %q", l.Policy, a.Policy))
	}

	if len(a.Fields) > 0 {
		if len(a.Fields) != len(l.Fields) {
			diffs = append(diffs, fmt.Sprintf("%d fields, want %d", len(l.Fields), len(a.Fields)))
		} else {
			for i, want := range a.Fields {
				got := l.Fields[i]
				if want.Name != got.Name {
					diffs = append(diffs, fmt.Sprintf("field %d is %q, want %q", i, got.Name, want.Name))
					continue
				}
				if want.Offset != got.Offset {
					diffs = append(diffs, fmt.Sprintf("%s at offset %d, want %d", got.Name, got.Offset, want.Offset))
				}
				if want.Size != nil && *want.Size != got.Size {
					diffs = append(diffs, fmt.Sprintf("%s has size %d, want %d", got.Name, got.Size, *want.Size))
				}
			}
		}
	}

	if len(diffs) == 0 {
		return nil
	}
	return &AssertionError{
		Type:     AssertLayout,
		Name:     a.Name,
		Expected: "layout as declared in the scenario",
		Actual:   strings.Join(diffs, "; "),
	}
}

func assertFailure(result *Result, a Assertion) error {
	failures := result.FailuresFor(a.Name)
	for _, f := range failures {
		if codeMatches(a.Code, f.Code) {
			return nil
		}
	}

	actual := describeFailures(failures)
	if _, ok := result.Layout(a.Name); ok {
		actual = "resolved without error"
	}
	return &AssertionError{
		Type:     AssertError,
		Name:     a.Name,
		Expected: fmt.Sprintf("failure with code %s", a.Code),
		Actual:   actual,
	}
}

func assertEqual(types map[string]ir.Type, a Assertion) error {
	left, ok := types[a.Name]
	if !ok {
		return &AssertionError{Type: AssertEqual, Name: a.Name, Expected: "a resolved type", Actual: "not resolved"}
	}
	right, ok := types[a.Other]
	if !ok {
		return &AssertionError{Type: AssertEqual, Name: a.Other, Expected: "a resolved type", Actual: "not resolved"}
	}
	if ir.Equal(left, right) {
		return nil
	}
	return &AssertionError{
		Type:     AssertEqual,
		Name:     a.Name,
		Expected: fmt.Sprintf("identical to %s (%s)", a.Other, right),
		Actual:   left.String(),
	}
}

func assertFingerprint(result *Result, a Assertion) error {
	l, ok := result.Layout(a.Name)
	if !ok {
		return &AssertionError{Type: AssertFingerprint, Name: a.Name, Expected: a.Fingerprint, Actual: "not resolved"}
	}
	if l.Fingerprint == a.Fingerprint {
		return nil
	}
	return &AssertionError{
		Type:     AssertFingerprint,
		Name:     a.Name,
		Expected: a.Fingerprint,
		Actual:   l.Fingerprint,
	}
}

func describeFailures(failures []Failure) string {
	if len(failures) == 0 {
		return "not declared"
	}
	codes := make([]string, len(failures))
	for i, f := range failures {
		codes[i] = f.Code
	}
	return "failed with " + strings.Join(codes, ", ")
}

// codeMatches compares failure codes, ignoring case for the descriptor and
// registry codes.
func codeMatches(want, got string) bool {
	return strings.EqualFold(want, got)
}
