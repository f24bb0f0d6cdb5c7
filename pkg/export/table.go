package export

import "fmt"

// Table is a rectangular grid of text. Rows marked in Shaded are rendered as filler
// rows, such as breaks.
type Table struct {
	Title   string
	Headers []string
	Rows    [][]string
	Shaded  map[int]bool
}

// Validate checks that every row is as wide as the header.
func (t Table) Validate() error {
	if len(t.Headers) == 0 {
		return fmt.Errorf("table requires at least one header")
	}
	for i, row := range t.Rows {
		if len(row) != len(t.Headers) {
			return fmt.Errorf("row %d has %d cells, want %d", i, len(row), len(t.Headers))
		}
	}
	return nil
}
