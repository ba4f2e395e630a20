package executor

import (
	"fmt"
	"io"
	"strconv"
	"strings"
	"text/tabwriter"
)

// cellEscaper keeps control characters in values from breaking the table layout
var cellEscaper = strings.NewReplacer("\t", `\t`, "\r", `\r`, "\n", `\n`)

// Format writes the textual response for a result
func Format(w io.Writer, res *Result) {
	switch res.Kind {
	case KindSelect:
		formatSelect(w, res)
	case KindDescribe:
		fmt.Fprintf(w, "Table '%s' columns: %s\n", res.Table, strings.Join(res.Columns, ", "))
	case KindShow:
		if len(res.Tables) == 0 {
			fmt.Fprintln(w, "Tables: (none)")
			return
		}
		fmt.Fprintf(w, "Tables: %s\n", strings.Join(res.Tables, ", "))
	default:
		if res.Message != "" {
			fmt.Fprintln(w, res.Message)
		}
	}
}

func formatSelect(w io.Writer, res *Result) {
	fmt.Fprintf(w, "Results from table '%s':\n", res.Table)

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	header := append([]string{"ID"}, res.Columns...)

	fmt.Fprintln(tw, strings.Join(header, "\t"))

	// Separator
	sep := make([]string, len(header))
	for i := range sep {
		sep[i] = "---"
	}
	fmt.Fprintln(tw, strings.Join(sep, "\t"))

	// Rows
	for _, rec := range res.Records {
		cells := make([]string, 0, len(header))
		cells = append(cells, strconv.Itoa(rec.ID))
		for _, col := range res.Columns {
			val, ok := rec.Row.Get(col)
			if !ok {
				val = "NULL"
			}
			cells = append(cells, cellEscaper.Replace(val))
		}
		fmt.Fprintln(tw, strings.Join(cells, "\t"))
	}
	tw.Flush()

	fmt.Fprintf(w, "(%d rows)\n", len(res.Records))
}
