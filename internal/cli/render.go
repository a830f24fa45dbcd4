package cli

import (
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"golang.org/x/term"

	"github.com/roach88/typeinfo/internal/ir"
)

// isTerminal reports whether w is an interactive terminal.
func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	return term.IsTerminal(int(f.Fd()))
}

// renderTable writes rows as a table. Headers are styled only on a
// terminal; elsewhere the table is plain text so it can be diffed and
// grepped.
func renderTable(w io.Writer, headers []string, rows [][]string) {
	t := table.New().
		Headers(headers...).
		Rows(rows...)

	if isTerminal(w) {
		r := lipgloss.NewRenderer(w)
		header := r.NewStyle().Bold(true).Foreground(lipgloss.Color("#7D56F4")).Padding(0, 1)
		cell := r.NewStyle().Padding(0, 1)
		t = t.Border(lipgloss.RoundedBorder()).
			BorderStyle(r.NewStyle().Foreground(lipgloss.Color("#666666"))).
			StyleFunc(func(row, col int) lipgloss.Style {
				if row == table.HeaderRow {
					return header
				}
				return cell
			})
	} else {
		cell := lipgloss.NewStyle().PaddingRight(2)
		t = t.Border(lipgloss.NormalBorder()).
			BorderTop(false).
			BorderBottom(false).
			BorderLeft(false).
			BorderRight(false).
			BorderColumn(false).
			StyleFunc(func(row, col int) lipgloss.Style {
				return cell
			})
	}

	fmt.Fprintln(w, t.Render())
}

// typeLabel names t for display. Compounds are named by the binding whose
// fingerprint they match, when there is one.
func typeLabel(t ir.Type, names map[string]string) string {
	switch t.Kind() {
	case ir.KindArray:
		return "[" + strconv.Itoa(t.Len()) + "]" + typeLabel(t.Elem(), names)
	case ir.KindCompound:
		if fp, err := ir.Fingerprint(t); err == nil {
			if name, ok := names[fp]; ok {
				return name
			}
		}
		return fmt.Sprintf("compound(size=%d)", t.Size())
	default:
		return t.String()
	}
}

// fieldRows lays out a compound's fields as table rows.
func fieldRows(t ir.Type, names map[string]string) [][]string {
	if t.Kind() != ir.KindCompound {
		return nil
	}
	fields := t.Fields()
	rows := make([][]string, len(fields))
	for i, f := range fields {
		rows[i] = []string{
			f.Name,
			strconv.Itoa(f.Offset),
			strconv.Itoa(f.Type.Size()),
			strconv.Itoa(f.Type.Align()),
			typeLabel(f.Type, names),
		}
	}
	return rows
}

var fieldHeaders = []string{"FIELD", "OFFSET", "SIZE", "ALIGN", "TYPE"}

// writeDescriptor prints a one-line summary of t followed by its field
// table.
func writeDescriptor(w io.Writer, name string, t ir.Type, fingerprint string, names map[string]string) {
	policy := ""
	if c, ok := t.(*ir.Compound); ok {
		policy = " policy=" + c.Policy().String()
	}
	fmt.Fprintf(w, "%s size=%d align=%d%s\n", name, t.Size(), t.Align(), policy)
	if fingerprint != "" {
		fmt.Fprintf(w, "  %s\n", fingerprint)
	}
	if rows := fieldRows(t, names); len(rows) > 0 {
		renderTable(w, fieldHeaders, rows)
	}
	fmt.Fprintln(w)
}
