package workflow

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"
)

// Print writes the transition table, one transition per line.
func (t *Table) Print(w io.Writer) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "MODULE\tTRANSITION\tSOURCES\tTARGETS\tGUARDS\tFLAGS")
	for _, e := range t.entries {
		tr := e.Transition
		sources := "*"
		if !tr.AnySource {
			sources = joinStatuses(tr.Sources)
		}
		guards := make([]string, len(tr.Guards))
		for i, g := range tr.Guards {
			guards[i] = g.Name
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\n",
			e.Module, tr.Name, sources, joinStatuses(tr.Targets()), dash(strings.Join(guards, ",")), flags(tr))
	}
	return tw.Flush()
}

func joinStatuses[S ~string](ss []S) string {
	parts := make([]string, len(ss))
	for i, s := range ss {
		parts[i] = string(s)
	}
	return dash(strings.Join(parts, ","))
}

func flags(tr Transition) string {
	var f []string
	if tr.Automatic {
		f = append(f, "auto")
	}
	if tr.IsDynamic() {
		f = append(f, "dynamic")
	}
	if tr.Admin {
		f = append(f, fmt.Sprintf("admin(%q)", tr.Label))
	}
	return dash(strings.Join(f, " "))
}

func dash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
