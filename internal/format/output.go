// Package format renders CLI command output.
package format

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"
)

// Write writes output in the requested format.
//
// Supported formats:
// - table (default, human-readable)
// - json
//
// JSON mode takes the value as-is; table mode expects headers+rows built by
// the command.
func Write(w io.Writer, v any, format string, pretty bool) error {
	switch format {
	case "json":
		return WriteJSON(w, v, pretty)
	case "", "table":
		if t, ok := v.(Table); ok {
			return WriteTable(w, t)
		}
		return WriteJSON(w, v, true)
	default:
		return fmt.Errorf("unknown format: %s", format)
	}
}

// WriteJSON writes strict JSON output for scripting. Anything meant for
// humans goes through table mode instead.
func WriteJSON(w io.Writer, v any, pretty bool) error {
	var b []byte
	var err error
	if pretty {
		b, err = json.MarshalIndent(v, "", "  ")
	} else {
		b, err = json.Marshal(v)
	}
	if err != nil {
		return err
	}

	_, err = fmt.Fprintln(w, string(b))
	return err
}

// Table is a plain header+rows payload for human-readable listings.
type Table struct {
	Headers []string
	Rows    [][]string
}

func WriteTable(w io.Writer, t Table) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	if len(t.Headers) > 0 {
		fmt.Fprintln(tw, strings.Join(t.Headers, "\t"))
	}
	for _, row := range t.Rows {
		fmt.Fprintln(tw, strings.Join(row, "\t"))
	}
	return tw.Flush()
}
