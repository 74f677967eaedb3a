// Package export writes extracted MIB tables to their derived artifacts:
// delimited text, SQLite tables, C++ translation sources and YAML dumps.
package export

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/fsfw-tools/mibgen/internal/mib"
)

// DefaultSeparator is the field separator of the tabular export.
const DefaultSeparator = ';'

// WriteCSV writes the header row of layout followed by one row per record.
// Numeric fields are rendered as decimal text.
func WriteCSV[R any](w io.Writer, layout mib.Layout[R], t *mib.Table[R], sep rune) error {
	if sep == 0 {
		sep = DefaultSeparator
	}
	cw := csv.NewWriter(w)
	cw.Comma = sep

	if err := cw.Write(layout.Headers()); err != nil {
		return fmt.Errorf("failed to write %s header: %w", layout.Table, err)
	}
	for key, r := range t.All() {
		if err := cw.Write(formatRow(layout.Row(r))); err != nil {
			return fmt.Errorf("failed to write %s row %d: %w", layout.Table, key, err)
		}
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		return fmt.Errorf("failed to flush %s: %w", layout.Table, err)
	}
	return nil
}

// WriteCSVFile writes the table to path, creating parent directories.
func WriteCSVFile[R any](path string, layout mib.Layout[R], t *mib.Table[R], sep rune) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}
	if err := WriteCSV(f, layout, t, sep); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

func formatRow(values []any) []string {
	row := make([]string, len(values))
	for i, v := range values {
		row[i] = fmt.Sprint(v)
	}
	return row
}
